package draft

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sandburr/invoicing/internal/models"
)

// maxSessionAge bounds abandoned drafts; they are pruned lazily on Create.
const maxSessionAge = 24 * time.Hour

// Session is one in-progress draft. The catalog is snapshotted once when the
// session opens and is not refreshed mid-session. Each session has a single
// owner; concurrent editing of the same draft is not supported.
type Session struct {
	ID         string           `json:"draftId"`
	CustomerID uint             `json:"customerId"`
	InvoiceID  uint             `json:"invoiceId,omitempty"`
	Items      []LineItem       `json:"items"`
	Catalog    []models.Product `json:"-"`
	CreatedAt  time.Time        `json:"createdAt"`
}

// Store keeps draft sessions in process memory, keyed by a random id.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{sessions: map[string]*Session{}, now: time.Now}
}

// Create opens a session with the given catalog snapshot and initial rows.
// invoiceID is non-zero when the draft edits a stored invoice.
func (s *Store) Create(catalog []models.Product, items []LineItem, invoiceID uint) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	sess := &Session{
		ID:        uuid.NewString(),
		InvoiceID: invoiceID,
		Items:     items,
		Catalog:   catalog,
		CreatedAt: s.now(),
	}
	s.sessions[sess.ID] = sess
	return sess
}

// Get returns a copy of the session state so callers cannot mutate rows in
// place; edits go through Apply.
func (s *Store) Get(id string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, false
	}
	return copySession(sess), true
}

// Apply runs fn against the session's current row snapshot and stores the
// returned list as the new state. The returned Session is a copy.
func (s *Store) Apply(id string, fn func(items []LineItem, catalog []models.Product) []LineItem) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, false
	}
	sess.Items = fn(sess.Items, sess.Catalog)
	return copySession(sess), true
}

// SetCustomer records the selected customer on the session.
func (s *Store) SetCustomer(id string, customerID uint) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, false
	}
	sess.CustomerID = customerID
	return copySession(sess), true
}

// Delete discards a session, typically after submit or abandon.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

func (s *Store) pruneLocked() {
	cutoff := s.now().Add(-maxSessionAge)
	for id, sess := range s.sessions {
		if sess.CreatedAt.Before(cutoff) {
			delete(s.sessions, id)
		}
	}
}

func copySession(sess *Session) Session {
	out := *sess
	out.Items = snapshot(sess.Items)
	return out
}
