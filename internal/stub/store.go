package stub

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/briefly-ai/briefly-go/internal/briefs"
)

// user is a registered stub account.
type user struct {
	ID        string
	Email     string
	Name      string
	Password  string // plain text; the stub is a development fixture, not a vault
	CreatedAt time.Time
}

// conversation is a stored chat transcript.
type conversation struct {
	ID        string        `json:"id"`
	UserID    string        `json:"-"`
	Messages  []chatMessage `json:"messages"`
	CreatedAt time.Time     `json:"created_at"`
}

type chatMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// memoryDB is the stub's in-memory database.
type memoryDB struct {
	mu            sync.Mutex
	users         map[string]*user // by id
	briefs        map[string]*briefs.Brief
	conversations map[string]*conversation
}

func newMemoryDB() *memoryDB {
	return &memoryDB{
		users:         make(map[string]*user),
		briefs:        make(map[string]*briefs.Brief),
		conversations: make(map[string]*conversation),
	}
}

func (db *memoryDB) userByEmail(email string) *user {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, u := range db.users {
		if strings.EqualFold(u.Email, email) {
			return u
		}
	}
	return nil
}

func (db *memoryDB) userByID(id string) *user {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.users[id]
}

func (db *memoryDB) putUser(u *user) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.users[u.ID] = u
}

func (db *memoryDB) putBrief(b *briefs.Brief) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.briefs[b.ID] = b.Clone()
}

func (db *memoryDB) briefFor(userID, id string) *briefs.Brief {
	db.mu.Lock()
	defer db.mu.Unlock()
	b := db.briefs[id]
	if b == nil || b.UserID != userID {
		return nil
	}
	return b.Clone()
}

// briefsFor returns the user's briefs sorted by updated_at descending.
func (db *memoryDB) briefsFor(userID string) []*briefs.Brief {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []*briefs.Brief
	for _, b := range db.briefs {
		if b.UserID == userID {
			out = append(out, b.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

func (db *memoryDB) deleteBrief(userID, id string) bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	b := db.briefs[id]
	if b == nil || b.UserID != userID {
		return false
	}
	delete(db.briefs, id)
	return true
}

func (db *memoryDB) conversationFor(userID, id string) *conversation {
	db.mu.Lock()
	defer db.mu.Unlock()
	c := db.conversations[id]
	if c == nil || c.UserID != userID {
		return nil
	}
	clone := *c
	clone.Messages = append([]chatMessage(nil), c.Messages...)
	return &clone
}

func (db *memoryDB) conversationsFor(userID string) []*conversation {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []*conversation
	for _, c := range db.conversations {
		if c.UserID == userID {
			clone := *c
			clone.Messages = append([]chatMessage(nil), c.Messages...)
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (db *memoryDB) appendMessages(conv *conversation, msgs ...chatMessage) {
	db.mu.Lock()
	defer db.mu.Unlock()
	stored, ok := db.conversations[conv.ID]
	if !ok {
		stored = conv
		db.conversations[conv.ID] = stored
	}
	stored.Messages = append(stored.Messages, msgs...)
}
