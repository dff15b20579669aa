package profile

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/anufa/anufa-backend/internal/app/model"
	apperrors "github.com/anufa/anufa-backend/internal/errors"
	"github.com/anufa/anufa-backend/internal/metrics"
	"github.com/anufa/anufa-backend/pkg/keylock"
	"github.com/anufa/anufa-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
	gobreaker "github.com/sony/gobreaker/v2"
)

const (
	redisKeyPrefix = "profile:"
	redisIndexKey  = "profiles:ids"
)

type BreakerConfig struct {
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{FailureThreshold: 5, OpenTimeout: 30 * time.Second}
}

// RedisStore keeps each profile as a JSON string and the set of known user
// ids in a redis set. Writers in this process queue per user; WATCH/MULTI
// guards against writers in other processes and is retried with backoff.
// Calls go through a circuit breaker so an unavailable redis fails fast.
type RedisStore struct {
	client  redis.UniversalClient
	breaker *gobreaker.CircuitBreaker[any]
	locks   *keylock.KeyedMutex[uint]
}

func NewRedisStore(client redis.UniversalClient, cfg BreakerConfig) *RedisStore {
	settings := gobreaker.Settings{
		Name:        "profile-store-redis",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		// missing profiles and rejected mutations say nothing about redis health
		IsSuccessful: func(err error) bool {
			return err == nil || !isBackendError(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Profile store circuit breaker changed state", map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
			metrics.ProfileStoreBreakerState.WithLabelValues("redis").Set(float64(to))
		},
	}
	return &RedisStore{
		client:  client,
		breaker: gobreaker.NewCircuitBreaker[any](settings),
		locks:   keylock.New[uint](),
	}
}

// isBackendError reports errors that came from redis itself.
func isBackendError(err error) bool {
	if errors.Is(err, ErrNotFound) || errors.Is(err, redis.TxFailedErr) {
		return false
	}
	var callerErr *callerError
	return !errors.As(err, &callerErr)
}

// callerError carries an error that did not come from redis, a rejected
// mutation or a cancelled wait, through the breaker.
type callerError struct{ err error }

func (e *callerError) Error() string { return e.err.Error() }
func (e *callerError) Unwrap() error { return e.err }

func redisKey(userID uint) string {
	return redisKeyPrefix + strconv.FormatUint(uint64(userID), 10)
}

func (s *RedisStore) execute(op string, fn func() (any, error)) (any, error) {
	result, err := s.breaker.Execute(fn)
	if err == nil {
		return result, nil
	}
	var callerErr *callerError
	switch {
	case errors.As(err, &callerErr):
		return nil, callerErr.err
	case errors.Is(err, ErrNotFound):
		return nil, ErrNotFound
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		logger.Warn("Profile store unavailable, circuit open", map[string]interface{}{
			"op": op,
		})
	}
	return nil, apperrors.Storage(op, err)
}

func (s *RedisStore) Get(ctx context.Context, userID uint) (*model.CustomerProfile, error) {
	result, err := s.execute("get profile", func() (any, error) {
		data, err := s.client.Get(ctx, redisKey(userID)).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, err
		}
		return decode(data)
	})
	if err != nil {
		return nil, err
	}
	return result.(*model.CustomerProfile), nil
}

func (s *RedisStore) Put(ctx context.Context, p *model.CustomerProfile) error {
	unlock := s.locks.Lock(p.UserID)
	defer unlock()

	_, err := s.execute("put profile", func() (any, error) {
		data, err := encode(p)
		if err != nil {
			return nil, err
		}
		_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, redisKey(p.UserID), data, 0)
			pipe.SAdd(ctx, redisIndexKey, p.UserID)
			return nil
		})
		return nil, err
	})
	return err
}

func (s *RedisStore) Upsert(ctx context.Context, userID uint, mutate MutateFunc) (*model.CustomerProfile, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	key := redisKey(userID)
	result, err := s.execute("upsert profile", func() (any, error) {
		var saved *model.CustomerProfile
		txf := func(tx *redis.Tx) error {
			p := newProfile(userID)
			exists := true
			data, err := tx.Get(ctx, key).Bytes()
			switch {
			case errors.Is(err, redis.Nil):
				exists = false
			case err != nil:
				return err
			default:
				if p, err = decode(data); err != nil {
					return err
				}
			}

			if err := mutate(p, exists); err != nil {
				return &callerError{err: err}
			}
			p.UserID = userID
			payload, err := encode(p)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, payload, 0)
				pipe.SAdd(ctx, redisIndexKey, userID)
				return nil
			})
			if err == nil {
				saved = p
			}
			return err
		}

		for attempt := 0; attempt < maxUpsertRetries; attempt++ {
			if attempt > 0 {
				if err := waitBackoff(ctx, attempt-1); err != nil {
					return nil, &callerError{err: err}
				}
			}
			err := s.client.Watch(ctx, txf, key)
			if !errors.Is(err, redis.TxFailedErr) {
				return saved, err
			}
			logger.Debug("Profile upsert lost optimistic lock, retrying", map[string]interface{}{
				"user_id": userID,
				"attempt": attempt + 1,
			})
		}
		return nil, fmt.Errorf("profile %d: %w after %d attempts", userID, redis.TxFailedErr, maxUpsertRetries)
	})
	if err != nil {
		return nil, err
	}
	return result.(*model.CustomerProfile), nil
}

func (s *RedisStore) ListUserIDs(ctx context.Context) ([]uint, error) {
	result, err := s.execute("list profiles", func() (any, error) {
		members, err := s.client.SMembers(ctx, redisIndexKey).Result()
		if err != nil {
			return nil, err
		}
		ids := make([]uint, 0, len(members))
		for _, m := range members {
			if id, ok := parseUserID(m); ok {
				ids = append(ids, id)
			}
		}
		slices.Sort(ids)
		return ids, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]uint), nil
}

// Close is a no-op; the shared client is closed by its owner.
func (s *RedisStore) Close() error { return nil }

func (s *RedisStore) BreakerState() gobreaker.State {
	return s.breaker.State()
}
