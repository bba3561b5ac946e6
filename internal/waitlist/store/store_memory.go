package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"pocketly/internal/waitlist/models"
	"pocketly/pkg/requestcontext"
)

// InMemoryStore keeps subscribers in a map keyed by email. It enforces the same
// uniqueness rule as the database table and reports it with the same code.
type InMemoryStore struct {
	mu          sync.RWMutex
	subscribers map[string]models.Subscriber
}

// NewInMemory creates an empty in-memory subscriber store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		subscribers: make(map[string]models.Subscriber),
	}
}

func (s *InMemoryStore) Insert(ctx context.Context, email string) (*models.Subscriber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.subscribers[email]; exists {
		return nil, NewError(CodeUniqueViolation,
			`duplicate key value violates unique constraint "newsletter_subscribers_email_key"`, nil)
	}

	sub := models.Subscriber{
		ID:        uuid.New(),
		Email:     email,
		CreatedAt: requestcontext.Now(ctx).UTC().Truncate(time.Microsecond),
	}
	s.subscribers[email] = sub
	return &sub, nil
}

// Count returns the number of stored subscribers.
func (s *InMemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers)
}
