package cartstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jwebchajari/Savia/internal/domain"
	"github.com/jwebchajari/Savia/internal/platform/config"
	"github.com/jwebchajari/Savia/internal/repositories"
)

const defaultKeyPrefix = "savia:cart:"

// NewRedisClient builds the client shared by the cart store and the idempotency store.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

// RedisStore keeps each cart as a JSON string whose key TTL matches Cart.ExpiresAt.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	now    Clock
}

var _ repositories.CartStore = (*RedisStore)(nil)

// NewRedisStore wraps a connected client. Keys are prefix+sessionID.
func NewRedisStore(client redis.UniversalClient, prefix string, clock Clock) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("redis cart store: client is required")
	}
	if strings.TrimSpace(prefix) == "" {
		prefix = defaultKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix, now: orNow(clock)}, nil
}

func (s *RedisStore) key(sessionID string) string { return s.prefix + sessionID }

// Load returns the live cart or a fresh one. Corrupt payloads are treated as absent.
func (s *RedisStore) Load(ctx context.Context, sessionID string) (domain.Cart, error) {
	data, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.NewCart(sessionID), nil
	}
	if err != nil {
		return domain.Cart{}, repositories.NewError("carts.load", repositories.KindUnavailable, err)
	}
	cart, ok := decodeCart(data)
	if !ok || cart.Expired(s.now()) || cart.SessionID != sessionID {
		return domain.NewCart(sessionID), nil
	}
	return cart, nil
}

// Save runs the version check and the write inside WATCH/MULTI so a concurrent writer
// aborts the transaction instead of being overwritten.
func (s *RedisStore) Save(ctx context.Context, cart domain.Cart) (domain.Cart, error) {
	key := s.key(cart.SessionID)
	var saved domain.Cart

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		var (
			stored domain.Cart
			found  bool
		)
		data, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			stored, found = decodeCart(data)
			// A payload owned by another session reads as empty in Load too.
			if found && stored.SessionID != cart.SessionID {
				found = false
			}
		}

		next, err := nextRevision(cart, liveVersion(stored, found, s.now()))
		if err != nil {
			return err
		}
		payload, err := encodeCart(next)
		if err != nil {
			return err
		}
		ttl := time.Duration(0)
		if !next.ExpiresAt.IsZero() {
			ttl = next.ExpiresAt.Sub(s.now())
			if ttl < time.Millisecond {
				ttl = time.Millisecond
			}
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, ttl)
			return nil
		})
		if err != nil {
			return err
		}
		saved = next
		return nil
	}, key)

	switch {
	case err == nil:
		return saved, nil
	case errors.Is(err, repositories.ErrCartVersionConflict), errors.Is(err, redis.TxFailedErr):
		return domain.Cart{}, repositories.ErrCartVersionConflict
	default:
		return domain.Cart{}, repositories.NewError("carts.save", repositories.KindUnavailable, err)
	}
}

// Clear deletes the session's key.
func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return repositories.NewError("carts.clear", repositories.KindUnavailable, err)
	}
	return nil
}

// Ping checks connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
