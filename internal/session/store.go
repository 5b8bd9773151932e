package session

import (
	"context"
	"log"
	"sync"
	"time"

	"printshop-assistant/internal/order"
)

const (
	DefaultTimeout    = 30 * time.Minute
	DefaultMaxHistory = 50
)

type Message struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	Goal      order.Step `json:"goal,omitempty"` // empty applies to every goal
	Timestamp time.Time  `json:"timestamp"`
}

// Repository is the durable tier behind the in-memory cache. All
// failures are tolerated: reads fall back to a fresh record, writes are
// logged and dropped.
type Repository interface {
	LoadSession(ctx context.Context, sessionID string) (orderDoc map[string]any, messages []Message, lastActive time.Time, err error)
	SaveSession(ctx context.Context, sessionID string, orderDoc map[string]any, messages []Message, lastActive time.Time) error
	DeleteSession(ctx context.Context, sessionID string) error
	SaveCompletedOrder(ctx context.Context, sessionID string, orderDoc map[string]any) error
	SaveLead(ctx context.Context, sessionID string, orderDoc map[string]any) error
}

type state struct {
	mu           sync.Mutex
	turnMu       sync.Mutex
	order        *order.Record
	messages     []Message
	lastActive   time.Time
	everComplete bool
}

// Store owns the session_id -> (order, history, lastActive) mapping.
// It is an explicitly constructed object, not a package-level cache:
// build one at process start and keep it for the process lifetime.
type Store struct {
	mu         sync.Mutex
	sessions   map[string]*state
	repo       Repository
	timeout    time.Duration
	maxHistory int

	// OnLead, when set, is invoked for every abandoned order promoted
	// into the leads collection during cleanup.
	OnLead func(sessionID string, rec *order.Record)
}

func NewStore(repo Repository, timeout time.Duration, maxHistory int) *Store {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	return &Store{
		sessions:   map[string]*state{},
		repo:       repo,
		timeout:    timeout,
		maxHistory: maxHistory,
	}
}

// BeginTurn serializes full conversation turns for one session so two
// concurrent requests cannot interleave reads and writes of the cached
// order. The returned function releases the turn.
func (s *Store) BeginTurn(sessionID string) func() {
	e := s.entry(sessionID)
	e.turnMu.Lock()
	return e.turnMu.Unlock
}

func (s *Store) entry(sessionID string) *state {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[sessionID]
	if !ok {
		e = &state{lastActive: time.Now().UTC()}
		s.sessions[sessionID] = e
	}
	return e
}

// AddMessage appends to the session's history, trimming to the most
// recent maxHistory entries, and persists write-through.
func (s *Store) AddMessage(ctx context.Context, sessionID, role, content string, goal order.Step) {
	e := s.entry(sessionID)
	e.mu.Lock()
	defer e.mu.Unlock()

	e.messages = append(e.messages, Message{
		Role:      role,
		Content:   content,
		Goal:      goal,
		Timestamp: time.Now().UTC(),
	})
	if len(e.messages) > s.maxHistory {
		e.messages = e.messages[len(e.messages)-s.maxHistory:]
	}
	e.lastActive = time.Now().UTC()
	if e.order != nil {
		e.order.Touch(e.lastActive)
	}
	s.persistLocked(ctx, sessionID, e)
}

// GetOrderState returns the cached order, hydrating from the durable
// store on a cache miss and creating a fresh record when the store has
// nothing usable. Timed-out sessions restart from an empty record.
func (s *Store) GetOrderState(ctx context.Context, sessionID string) *order.Record {
	e := s.entry(sessionID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.order != nil && time.Since(e.lastActive) > s.timeout {
		log.Printf("session %s: idle past %s, starting a fresh order", sessionID, s.timeout)
		s.expireLocked(ctx, sessionID, e)
	}
	if e.order != nil {
		return e.order
	}

	if s.repo != nil {
		doc, messages, lastActive, err := s.repo.LoadSession(ctx, sessionID)
		if err != nil {
			log.Printf("session %s: durable read failed, starting fresh: %v", sessionID, err)
		} else if doc != nil && time.Since(lastActive) <= s.timeout {
			e.order = order.FromRecord(doc)
			e.order.SessionID = sessionID
			e.messages = messages
			e.lastActive = lastActive
			e.everComplete = e.order.IsComplete()
			return e.order
		}
	}

	e.order = order.New(sessionID)
	e.lastActive = time.Now().UTC()
	return e.order
}

// UpdateOrderState replaces the cached order wholesale and persists. A
// product_details field going from set to nil is logged as a probable
// regression (other than through an explicit rejection).
func (s *Store) UpdateOrderState(ctx context.Context, sessionID string, rec *order.Record) {
	e := s.entry(sessionID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.order != nil && e.order.ProductDetails != nil && rec.ProductDetails == nil && rec.ProductSelected {
		log.Printf("session %s: product_details dropped on update while product still selected", sessionID)
	}
	e.order = rec
	e.lastActive = time.Now().UTC()
	rec.Touch(e.lastActive)
	if rec.IsComplete() {
		e.everComplete = true
	}
	s.persistLocked(ctx, sessionID, e)
}

func (s *Store) IsTimedOut(sessionID string) bool {
	s.mu.Lock()
	e, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if !ok {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return time.Since(e.lastActive) > s.timeout
}

// GetMessagesForGoal returns the union of messages tagged with the
// given goal, untagged messages, and unconditionally the last three
// messages, preserving order. The trailing window keeps short-term
// continuity across goal switches.
func (s *Store) GetMessagesForGoal(sessionID string, goal order.Step) []Message {
	e := s.entry(sessionID)
	e.mu.Lock()
	defer e.mu.Unlock()

	result := make([]Message, 0, len(e.messages))
	for i, msg := range e.messages {
		if msg.Goal == goal || msg.Goal == "" || i >= len(e.messages)-3 {
			result = append(result, msg)
		}
	}
	return result
}

// Reset drops the session from the cache and the durable store.
func (s *Store) Reset(ctx context.Context, sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	if s.repo != nil {
		if err := s.repo.DeleteSession(ctx, sessionID); err != nil {
			log.Printf("session %s: durable delete failed: %v", sessionID, err)
		}
	}
}

// CleanupExpired evicts every session idle past the timeout window from
// both tiers. Abandoned orders that were ever complete are promoted
// into the leads collection before deletion. Returns the eviction count.
func (s *Store) CleanupExpired(ctx context.Context) int {
	s.mu.Lock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	evicted := 0
	for _, id := range ids {
		e := s.entry(id)
		e.mu.Lock()
		expired := time.Since(e.lastActive) > s.timeout
		if expired {
			s.expireLocked(ctx, id, e)
			evicted++
		}
		e.mu.Unlock()
		if expired {
			s.mu.Lock()
			delete(s.sessions, id)
			s.mu.Unlock()
		}
	}
	return evicted
}

// expireLocked promotes a lead if warranted, deletes the durable copy
// and clears the in-memory order. Caller holds e.mu.
func (s *Store) expireLocked(ctx context.Context, sessionID string, e *state) {
	if e.order != nil && (e.everComplete || e.order.IsComplete()) {
		if s.repo != nil {
			if err := s.repo.SaveLead(ctx, sessionID, e.order.ToRecord()); err != nil {
				log.Printf("session %s: lead promotion failed: %v", sessionID, err)
			}
		}
		if s.OnLead != nil {
			s.OnLead(sessionID, e.order)
		}
	}
	if s.repo != nil {
		if err := s.repo.DeleteSession(ctx, sessionID); err != nil {
			log.Printf("session %s: durable delete failed: %v", sessionID, err)
		}
	}
	e.order = nil
	e.messages = nil
	e.everComplete = false
	e.lastActive = time.Now().UTC()
}

// persistLocked writes the session through to the durable store.
// Failures are logged; the in-memory copy stays authoritative. Caller
// holds e.mu.
func (s *Store) persistLocked(ctx context.Context, sessionID string, e *state) {
	if e.order != nil && e.order.IsComplete() {
		e.everComplete = true
	}
	if s.repo == nil || e.order == nil {
		return
	}
	doc := e.order.ToRecord()
	if err := s.repo.SaveSession(ctx, sessionID, doc, e.messages, e.lastActive); err != nil {
		log.Printf("session %s: durable save failed: %v", sessionID, err)
	}
	if e.order.IsComplete() {
		if err := s.repo.SaveCompletedOrder(ctx, sessionID, doc); err != nil {
			log.Printf("session %s: completed-order save failed: %v", sessionID, err)
		}
	}
}
