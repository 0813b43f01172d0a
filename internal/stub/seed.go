package stub

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/briefly-ai/briefly-go/internal/briefs"
)

// SeedFile describes the YAML fixture loaded at startup: one or more user
// accounts, each with optional pre-created briefs.
type SeedFile struct {
	Users []SeedUser `yaml:"users"`
}

// SeedUser is one account in the seed file.
type SeedUser struct {
	Email    string      `yaml:"email"`
	Password string      `yaml:"password"`
	Name     string      `yaml:"name"`
	Briefs   []SeedBrief `yaml:"briefs"`
}

// SeedBrief is one pre-created brief.
type SeedBrief struct {
	Title         string   `yaml:"title"`
	Objective     string   `yaml:"objective"`
	Deliverables  []string `yaml:"deliverables"`
	Deadline      string   `yaml:"deadline"`
	Owners        []string `yaml:"owners"`
	Assets        []string `yaml:"assets"`
	OpenQuestions []string `yaml:"open_questions"`
	Status        string   `yaml:"status"`
}

// SeedFromFile loads a YAML fixture and populates the stub database.
func (s *Server) SeedFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading seed file: %w", err)
	}
	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("parsing seed file: %w", err)
	}
	return s.Seed(seed)
}

// Seed populates the stub database with the given fixture.
func (s *Server) Seed(seed SeedFile) error {
	now := s.now()
	for _, su := range seed.Users {
		if su.Email == "" || su.Password == "" {
			return fmt.Errorf("seed user %q: email and password are required", su.Name)
		}
		u := &user{
			ID:        uuid.New().String(),
			Email:     su.Email,
			Name:      su.Name,
			Password:  su.Password,
			CreatedAt: now,
		}
		s.db.putUser(u)

		for i, sb := range su.Briefs {
			status := sb.Status
			if status == "" {
				status = briefs.StatusDraft
			}
			// Stagger updated_at so seeded listings have a stable order.
			ts := now.Add(-time.Duration(i) * time.Minute)
			s.db.putBrief(&briefs.Brief{
				ID:            uuid.New().String(),
				UserID:        u.ID,
				Title:         sb.Title,
				Objective:     sb.Objective,
				Deliverables:  emptyIfNil(sb.Deliverables),
				Deadline:      sb.Deadline,
				Owners:        emptyIfNil(sb.Owners),
				Assets:        emptyIfNil(sb.Assets),
				OpenQuestions: emptyIfNil(sb.OpenQuestions),
				SourceType:    briefs.SourceManual,
				Status:        status,
				CreatedAt:     ts,
				UpdatedAt:     ts,
			})
		}
		s.logger.Info().Str("email", su.Email).Int("briefs", len(su.Briefs)).Msg("seeded user")
	}
	return nil
}
