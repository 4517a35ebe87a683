package session

import (
	"context"
	"fmt"
	"strconv"
	"sync"
)

// shopKey is the storage key the active shop id survives reloads under.
const shopKey = "shop_id"

// Store is the persistence port for session-scoped values.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Context scopes a kitchen screen to one shop. An explicit shop id from
// the invoking context wins and is persisted; without one the last
// persisted value is read back.
type Context struct {
	store  Store
	shopID int64
}

func Resolve(ctx context.Context, store Store, explicit int64) (*Context, error) {
	if explicit != 0 {
		if err := store.Set(ctx, shopKey, strconv.FormatInt(explicit, 10)); err != nil {
			return nil, fmt.Errorf("persist shop id: %w", err)
		}
		return &Context{store: store, shopID: explicit}, nil
	}

	raw, err := store.Get(ctx, shopKey)
	if err != nil {
		return nil, fmt.Errorf("read shop id: %w", err)
	}
	if raw == "" {
		return &Context{store: store}, nil
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("stored shop id %q is not a number: %w", raw, err)
	}
	return &Context{store: store, shopID: id}, nil
}

// ShopID returns the resolved shop id, zero when none is known.
func (c *Context) ShopID() int64 {
	return c.shopID
}

// MemoryStore is an in-process Store used in tests.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key], nil
}

func (s *MemoryStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}
