package cartstore

import (
	"context"
	"sync"

	"github.com/jwebchajari/Savia/internal/domain"
	"github.com/jwebchajari/Savia/internal/repositories"
)

// MemoryStore keeps carts in process memory, for tests and single-instance runs.
type MemoryStore struct {
	mu    sync.Mutex
	carts map[string]domain.Cart
	now   Clock
}

var _ repositories.CartStore = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore(clock Clock) *MemoryStore {
	return &MemoryStore{carts: make(map[string]domain.Cart), now: orNow(clock)}
}

// Load returns the live cart or a fresh one.
func (s *MemoryStore) Load(_ context.Context, sessionID string) (domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cart, ok := s.carts[sessionID]
	if !ok || cart.Expired(s.now()) {
		delete(s.carts, sessionID)
		return domain.NewCart(sessionID), nil
	}
	return cart.Clone(), nil
}

// Save stores the cart when its version matches.
func (s *MemoryStore) Save(_ context.Context, cart domain.Cart) (domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, found := s.carts[cart.SessionID]
	next, err := nextRevision(cart, liveVersion(stored, found, s.now()))
	if err != nil {
		return domain.Cart{}, err
	}
	s.carts[cart.SessionID] = next
	return next.Clone(), nil
}

// Clear removes the session's cart.
func (s *MemoryStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.carts, sessionID)
	s.mu.Unlock()
	return nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(context.Context) error { return nil }
