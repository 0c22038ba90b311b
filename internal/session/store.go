package session

import (
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/save-ai/save/internal/log"
)

const (
	// DefaultTTL is the idle time after which a session is evicted.
	DefaultTTL = 30 * time.Minute

	// DefaultMaxTurns bounds the turn window per session.
	DefaultMaxTurns = 15

	// DefaultCharBudget bounds the total text held in the turn window.
	// Roughly 6000 tokens at four characters per token.
	DefaultCharBudget = 24000

	// maxValidations bounds the per-session validation history.
	maxValidations = 10
)

// Config tunes the store. Zero values fall back to the defaults above.
type Config struct {
	TTL        time.Duration
	MaxTurns   int
	CharBudget int
}

func (c Config) withDefaults() Config {
	if c.TTL <= 0 {
		c.TTL = DefaultTTL
	}
	if c.MaxTurns <= 0 {
		c.MaxTurns = DefaultMaxTurns
	}
	if c.CharBudget <= 0 {
		c.CharBudget = DefaultCharBudget
	}
	return c
}

// state is the mutable record behind one session. Guarded by mu; the
// store hands out copies, never the record itself.
type state struct {
	mu sync.Mutex
	s  Snapshot

	chars int
}

// Store keeps sessions in memory with idle-TTL eviction.
type Store struct {
	cfg    Config
	cache  *gocache.Cache
	logger log.Logger

	mu sync.Mutex // serializes session creation
}

// NewStore creates a session store.
func NewStore(cfg Config, logger log.Logger) *Store {
	cfg = cfg.withDefaults()
	return &Store{
		cfg:    cfg,
		cache:  gocache.New(cfg.TTL, cfg.TTL/2),
		logger: logger,
	}
}

// Load returns a snapshot of the session, creating it if absent or
// expired. Every load refreshes the idle TTL.
func (st *Store) Load(sessionID string) (Snapshot, error) {
	if sessionID == "" {
		return Snapshot{}, fmt.Errorf("session: empty session ID")
	}
	s := st.get(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.s.LastActive = time.Now()
	return copySnapshot(s.s), nil
}

// AppendTurn records a turn and evicts oldest turns until the window
// fits both the turn and character budgets. The last product reference
// and validation history survive eviction.
func (st *Store) AppendTurn(sessionID string, role Role, text string) error {
	if sessionID == "" {
		return fmt.Errorf("session: empty session ID")
	}
	s := st.get(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.s.Turns = append(s.s.Turns, Turn{Role: role, Text: text, At: time.Now()})
	s.chars += len(text)
	for len(s.s.Turns) > 1 && (len(s.s.Turns) > st.cfg.MaxTurns || s.chars > st.cfg.CharBudget) {
		s.chars -= len(s.s.Turns[0].Text)
		s.s.Turns = s.s.Turns[1:]
	}
	s.s.LastActive = time.Now()
	return nil
}

// SetLastProduct updates the session's product reference and appends a
// validation record.
func (st *Store) SetLastProduct(sessionID string, ref ProductRef) error {
	if sessionID == "" {
		return fmt.Errorf("session: empty session ID")
	}
	s := st.get(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()

	r := ref
	s.s.LastProduct = &r
	s.s.Validations = append(s.s.Validations, ValidationRecord{
		UPC:    ref.UPC,
		Name:   ref.Name,
		Status: "resolved",
		At:     time.Now(),
	})
	if n := len(s.s.Validations); n > maxValidations {
		s.s.Validations = s.s.Validations[n-maxValidations:]
	}
	s.s.LastActive = time.Now()
	return nil
}

// get returns the live state for a session, creating it on miss. The
// cache expiration is refreshed on every access so TTL measures
// idleness, not age.
func (st *Store) get(sessionID string) *state {
	if v, ok := st.cache.Get(sessionID); ok {
		st.cache.SetDefault(sessionID, v)
		return v.(*state)
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if v, ok := st.cache.Get(sessionID); ok {
		st.cache.SetDefault(sessionID, v)
		return v.(*state)
	}

	now := time.Now()
	s := &state{s: Snapshot{ID: sessionID, CreatedAt: now, LastActive: now}}
	st.cache.SetDefault(sessionID, s)
	st.logger.Debug("session created", "session_id", sessionID)
	return s
}

func copySnapshot(s Snapshot) Snapshot {
	out := s
	out.Turns = append([]Turn(nil), s.Turns...)
	out.Validations = append([]ValidationRecord(nil), s.Validations...)
	if s.LastProduct != nil {
		r := *s.LastProduct
		out.LastProduct = &r
	}
	return out
}
