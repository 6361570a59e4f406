package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jhoicas/tienda-api/internal/domain/entity"
	"github.com/jhoicas/tienda-api/internal/domain/repository"
)

// CartStore carritos serializados en memoria con vencimiento por TTL.
// Guarda JSON para que cada Get devuelva una copia independiente.
type CartStore struct {
	mu    sync.Mutex
	carts map[string]cartRecord
	now   func() time.Time
}

type cartRecord struct {
	data      []byte
	expiresAt time.Time
}

var _ repository.CartStore = (*CartStore)(nil)

// NewCartStore crea un store vacío.
func NewCartStore() *CartStore {
	return &CartStore{carts: make(map[string]cartRecord), now: time.Now}
}

// WithClock reemplaza la fuente de tiempo (tests de vencimiento).
func (s *CartStore) WithClock(now func() time.Time) *CartStore {
	s.now = now
	return s
}

func (s *CartStore) Get(_ context.Context, key string) (*entity.Cart, error) {
	s.mu.Lock()
	rec, ok := s.carts[key]
	if ok && !rec.expiresAt.IsZero() && !s.now().Before(rec.expiresAt) {
		delete(s.carts, key)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}

	var cart entity.Cart
	if err := json.Unmarshal(rec.data, &cart); err != nil {
		return nil, fmt.Errorf("decode cart %s: %w", key, err)
	}
	return &cart, nil
}

func (s *CartStore) Put(_ context.Context, key string, cart *entity.Cart, ttl time.Duration) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encode cart %s: %w", key, err)
	}
	rec := cartRecord{data: data}
	if ttl > 0 {
		rec.expiresAt = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.carts[key] = rec
	s.mu.Unlock()
	return nil
}

func (s *CartStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.carts, key)
	s.mu.Unlock()
	return nil
}
