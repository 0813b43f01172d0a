// Package stub implements an in-memory BrieflyAI backend for local
// development and integration tests: auth, brief CRUD, a canned assistant,
// mocked integrations and demo exports.
package stub

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/briefly-ai/briefly-go/internal/briefs"
	"github.com/briefly-ai/briefly-go/internal/metrics"
)

// Config holds stub server settings.
type Config struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// Server is the stub BrieflyAI API.
type Server struct {
	app    *fiber.App
	db     *memoryDB
	cfg    Config
	logger zerolog.Logger
	now    func() time.Time
}

// NewServer creates and wires the stub application.
func NewServer(cfg Config, m *metrics.Metrics, logger zerolog.Logger) *Server {
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = 24 * time.Hour
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
	})

	s := &Server{
		app:    app,
		db:     newMemoryDB(),
		cfg:    cfg,
		logger: logger.With().Str("component", "stub_server").Logger(),
		now:    time.Now,
	}

	app.Use(recover.New())
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/", s.handleRoot)
	api.Get("/health", s.handleHealth)
	if m != nil {
		api.Get("/metrics", adaptor.HTTPHandler(m.Handler()))
	}

	api.Post("/auth/register", s.handleRegister)
	api.Post("/auth/login", s.handleLogin)

	authed := api.Group("", s.authMiddleware)
	authed.Get("/auth/me", s.handleMe)
	authed.Post("/briefs", s.handleCreateBrief)
	authed.Get("/briefs", s.handleListBriefs)
	authed.Get("/briefs/:id", s.handleGetBrief)
	authed.Put("/briefs/:id", s.handleUpdateBrief)
	authed.Delete("/briefs/:id", s.handleDeleteBrief)
	authed.Post("/chat", s.handleChat)
	authed.Get("/conversations", s.handleListConversations)
	authed.Get("/conversations/:id", s.handleGetConversation)
	authed.Get("/integrations", s.handleIntegrations)
	authed.Post("/integrations/:name/connect", s.handleConnectIntegration)
	authed.Post("/export", s.handleExport)

	return s
}

// App exposes the fiber application (for app.Test in tests).
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves the stub API on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	s.logger.Info().Str("addr", addr).Msg("stub API listening")
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// detailResponse mirrors the production API's error shape.
func detailResponse(c *fiber.Ctx, status int, detail string) error {
	return c.Status(status).JSON(fiber.Map{"detail": detail})
}

// ---- auth ----

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

type tokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        userResponse `json:"user"`
}

func (s *Server) issueToken(u *user) (string, error) {
	claims := jwt.MapClaims{
		"user_id": u.ID,
		"email":   u.Email,
		"exp":     s.now().Add(s.cfg.TokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
}

func (s *Server) handleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return detailResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return detailResponse(c, fiber.StatusBadRequest, "email, password and name are required")
	}
	if s.db.userByEmail(req.Email) != nil {
		return detailResponse(c, fiber.StatusBadRequest, "Email already registered")
	}

	u := &user{
		ID:        uuid.New().String(),
		Email:     req.Email,
		Name:      req.Name,
		Password:  req.Password,
		CreatedAt: s.now(),
	}
	s.db.putUser(u)

	token, err := s.issueToken(u)
	if err != nil {
		return detailResponse(c, fiber.StatusInternalServerError, "token issue failed")
	}
	return c.JSON(tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        userResponse{ID: u.ID, Email: u.Email, Name: u.Name, CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339)},
	})
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return detailResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	u := s.db.userByEmail(req.Email)
	if u == nil || u.Password != req.Password {
		return detailResponse(c, fiber.StatusUnauthorized, "Invalid email or password")
	}
	token, err := s.issueToken(u)
	if err != nil {
		return detailResponse(c, fiber.StatusInternalServerError, "token issue failed")
	}
	return c.JSON(tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        userResponse{ID: u.ID, Email: u.Email, Name: u.Name, CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339)},
	})
}

func (s *Server) authMiddleware(c *fiber.Ctx) error {
	header := c.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return detailResponse(c, fiber.StatusUnauthorized, "Invalid token")
	}
	tokenStr := strings.TrimPrefix(header, "Bearer ")

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return detailResponse(c, fiber.StatusUnauthorized, "Invalid token")
	}

	userID, _ := claims["user_id"].(string)
	u := s.db.userByID(userID)
	if u == nil {
		return detailResponse(c, fiber.StatusUnauthorized, "User not found")
	}
	c.Locals("user", u)
	return c.Next()
}

func currentUser(c *fiber.Ctx) *user {
	u, _ := c.Locals("user").(*user)
	return u
}

func (s *Server) handleMe(c *fiber.Ctx) error {
	u := currentUser(c)
	return c.JSON(userResponse{ID: u.ID, Email: u.Email, Name: u.Name, CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339)})
}

// ---- briefs ----

type briefCreateRequest struct {
	Title         string   `json:"title"`
	Objective     string   `json:"objective"`
	Deliverables  []string `json:"deliverables"`
	Deadline      string   `json:"deadline"`
	Owners        []string `json:"owners"`
	Assets        []string `json:"assets"`
	OpenQuestions []string `json:"open_questions"`
	SourceType    string   `json:"source_type"`
	SourceContent string   `json:"source_content"`
}

func emptyIfNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

func (s *Server) handleCreateBrief(c *fiber.Ctx) error {
	u := currentUser(c)
	var req briefCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return detailResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Title == "" {
		return detailResponse(c, fiber.StatusBadRequest, "title is required")
	}
	sourceType := req.SourceType
	if sourceType == "" {
		sourceType = briefs.SourceManual
	}
	now := s.now()
	doc := &briefs.Brief{
		ID:            uuid.New().String(),
		UserID:        u.ID,
		Title:         req.Title,
		Objective:     req.Objective,
		Deliverables:  emptyIfNil(req.Deliverables),
		Deadline:      req.Deadline,
		Owners:        emptyIfNil(req.Owners),
		Assets:        emptyIfNil(req.Assets),
		OpenQuestions: emptyIfNil(req.OpenQuestions),
		SourceType:    sourceType,
		SourceContent: req.SourceContent,
		Status:        briefs.StatusDraft,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.db.putBrief(doc)
	return c.JSON(doc)
}

func (s *Server) handleListBriefs(c *fiber.Ctx) error {
	u := currentUser(c)
	out := s.db.briefsFor(u.ID)
	summaries := make([]briefs.Summary, 0, len(out))
	for _, b := range out {
		summaries = append(summaries, b.Summary())
	}
	return c.JSON(summaries)
}

func (s *Server) handleGetBrief(c *fiber.Ctx) error {
	u := currentUser(c)
	doc := s.db.briefFor(u.ID, c.Params("id"))
	if doc == nil {
		return detailResponse(c, fiber.StatusNotFound, "Brief not found")
	}
	return c.JSON(doc)
}

func (s *Server) handleUpdateBrief(c *fiber.Ctx) error {
	u := currentUser(c)
	id := c.Params("id")
	existing := s.db.briefFor(u.ID, id)
	if existing == nil {
		return detailResponse(c, fiber.StatusNotFound, "Brief not found")
	}

	var req briefs.Brief
	if err := c.BodyParser(&req); err != nil {
		return detailResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}

	existing.Title = req.Title
	existing.Objective = req.Objective
	existing.Deliverables = emptyIfNil(req.Deliverables)
	existing.Deadline = req.Deadline
	existing.Owners = emptyIfNil(req.Owners)
	existing.Assets = emptyIfNil(req.Assets)
	existing.OpenQuestions = emptyIfNil(req.OpenQuestions)
	if req.Status != "" {
		existing.Status = req.Status
	}
	existing.UpdatedAt = s.now()
	s.db.putBrief(existing)
	return c.JSON(existing)
}

func (s *Server) handleDeleteBrief(c *fiber.Ctx) error {
	u := currentUser(c)
	if !s.db.deleteBrief(u.ID, c.Params("id")) {
		return detailResponse(c, fiber.StatusNotFound, "Brief not found")
	}
	return c.JSON(fiber.Map{"message": "Brief deleted"})
}

// ---- chat ----

type chatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id"`
}

type chatResponse struct {
	Response       string        `json:"response"`
	ConversationID string        `json:"conversation_id"`
	Brief          *briefs.Brief `json:"brief,omitempty"`
}

func (s *Server) handleChat(c *fiber.Ctx) error {
	u := currentUser(c)
	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return detailResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(req.Message) == "" {
		return detailResponse(c, fiber.StatusBadRequest, "message is required")
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = uuid.New().String()
	}
	conv := s.db.conversationFor(u.ID, conversationID)
	if conv == nil {
		conv = &conversation{ID: conversationID, UserID: u.ID, CreatedAt: s.now()}
	}

	response := assistantReply(req.Message)
	now := s.now()
	s.db.appendMessages(conv,
		chatMessage{Role: "user", Content: req.Message, Timestamp: now},
		chatMessage{Role: "assistant", Content: response, Timestamp: now},
	)

	var created *briefs.Brief
	if doc := parseBrief(response, req.Message, u.ID, now); doc != nil {
		s.db.putBrief(doc)
		created = doc
		s.logger.Info().Str("brief_id", doc.ID).Str("title", doc.Title).Msg("chat produced brief")
	}

	return c.JSON(chatResponse{
		Response:       response,
		ConversationID: conversationID,
		Brief:          created,
	})
}

func (s *Server) handleListConversations(c *fiber.Ctx) error {
	u := currentUser(c)
	out := s.db.conversationsFor(u.ID)
	if out == nil {
		out = []*conversation{}
	}
	return c.JSON(out)
}

func (s *Server) handleGetConversation(c *fiber.Ctx) error {
	u := currentUser(c)
	conv := s.db.conversationFor(u.ID, c.Params("id"))
	if conv == nil {
		return detailResponse(c, fiber.StatusNotFound, "Conversation not found")
	}
	return c.JSON(conv)
}

// ---- integrations & export ----

var integrationNames = []string{"slack", "gmail", "asana", "clickup", "google_sheets"}

func (s *Server) handleIntegrations(c *fiber.Ctx) error {
	out := make([]fiber.Map, 0, len(integrationNames))
	for _, name := range integrationNames {
		out = append(out, fiber.Map{"name": name, "connected": false, "last_sync": nil})
	}
	return c.JSON(out)
}

func (s *Server) handleConnectIntegration(c *fiber.Ctx) error {
	name := c.Params("name")
	known := false
	for _, n := range integrationNames {
		if n == name {
			known = true
			break
		}
	}
	if !known {
		return detailResponse(c, fiber.StatusBadRequest, "Invalid integration")
	}
	return c.JSON(fiber.Map{
		"message":  name + " connection initiated",
		"auth_url": "https://example.com/oauth/" + name + "?demo=true",
	})
}

type exportRequest struct {
	BriefID     string `json:"brief_id"`
	Destination string `json:"destination"`
}

func (s *Server) handleExport(c *fiber.Ctx) error {
	u := currentUser(c)
	var req exportRequest
	if err := c.BodyParser(&req); err != nil {
		return detailResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	doc := s.db.briefFor(u.ID, req.BriefID)
	if doc == nil {
		return detailResponse(c, fiber.StatusNotFound, "Brief not found")
	}
	if !briefs.KnownDestination(req.Destination) {
		return detailResponse(c, fiber.StatusBadRequest, "Invalid export destination")
	}

	doc.Status = briefs.StatusExported
	doc.UpdatedAt = s.now()
	s.db.putBrief(doc)

	return c.JSON(fiber.Map{
		"success":    true,
		"message":    fmt.Sprintf("Brief exported to %s successfully (Demo Mode)", req.Destination),
		"export_url": fmt.Sprintf("https://example.com/%s/task/demo-123", req.Destination),
	})
}

// ---- misc ----

func (s *Server) handleRoot(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "BrieflyAI stub API is running", "version": "1.0.0"})
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "healthy"})
}
