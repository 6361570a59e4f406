package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/tienda-api/internal/domain/entity"
	"github.com/jhoicas/tienda-api/internal/domain/repository"
)

// CartStore carritos de sesión en Redis como JSON bajo la clave cart:<sesión>.
// Cada Put reescribe el valor y renueva el TTL.
type CartStore struct {
	client goredis.UniversalClient
	prefix string
}

var _ repository.CartStore = (*CartStore)(nil)

// NewCartStore crea el store sobre un cliente ya configurado.
func NewCartStore(client goredis.UniversalClient) *CartStore {
	return &CartStore{client: client, prefix: "cart:"}
}

// NewClient abre el cliente y verifica la conexión con PING.
func NewClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func (s *CartStore) key(sessionKey string) string {
	return s.prefix + sessionKey
}

func (s *CartStore) Get(ctx context.Context, sessionKey string) (*entity.Cart, error) {
	data, err := s.client.Get(ctx, s.key(sessionKey)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get cart: %w", err)
	}

	var cart entity.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}
	return &cart, nil
}

func (s *CartStore) Put(ctx context.Context, sessionKey string, cart *entity.Cart, ttl time.Duration) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}
	if err := s.client.Set(ctx, s.key(sessionKey), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}
	return nil
}

func (s *CartStore) Delete(ctx context.Context, sessionKey string) error {
	if err := s.client.Del(ctx, s.key(sessionKey)).Err(); err != nil {
		return fmt.Errorf("redis delete cart: %w", err)
	}
	return nil
}
