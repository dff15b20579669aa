package profile

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/anufa/anufa-backend/internal/app/model"
	apperrors "github.com/anufa/anufa-backend/internal/errors"
	"github.com/anufa/anufa-backend/pkg/keylock"
	"github.com/anufa/anufa-backend/pkg/logger"
	"github.com/dgraph-io/badger/v4"
)

const badgerKeyPrefix = "profile:"

// BadgerStore keeps profiles in an embedded badger database. Writers of the
// same user queue on a keyed mutex; the serializable transaction underneath
// still retries on a write conflict.
type BadgerStore struct {
	db    *badger.DB
	locks *keylock.KeyedMutex[uint]
}

// OpenBadgerStore opens dir, or an in-memory database when dir is empty.
func OpenBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger profile store: %w", err)
	}
	logger.Info("Badger profile store opened", map[string]interface{}{
		"dir":       dir,
		"in_memory": dir == "",
	})
	return &BadgerStore{db: db, locks: keylock.New[uint]()}, nil
}

func badgerKey(userID uint) []byte {
	return []byte(fmt.Sprintf("%s%d", badgerKeyPrefix, userID))
}

func readProfile(txn *badger.Txn, userID uint) (*model.CustomerProfile, error) {
	item, err := txn.Get(badgerKey(userID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var p *model.CustomerProfile
	err = item.Value(func(val []byte) error {
		var decodeErr error
		p, decodeErr = decode(val)
		return decodeErr
	})
	return p, err
}

func writeProfile(txn *badger.Txn, p *model.CustomerProfile) error {
	data, err := encode(p)
	if err != nil {
		return err
	}
	return txn.Set(badgerKey(p.UserID), data)
}

func (s *BadgerStore) Get(_ context.Context, userID uint) (*model.CustomerProfile, error) {
	var p *model.CustomerProfile
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		p, err = readProfile(txn, userID)
		return err
	})
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, apperrors.Storage("get profile", err)
	}
	return p, nil
}

func (s *BadgerStore) Put(_ context.Context, p *model.CustomerProfile) error {
	unlock := s.locks.Lock(p.UserID)
	defer unlock()

	err := s.db.Update(func(txn *badger.Txn) error {
		return writeProfile(txn, p)
	})
	if err != nil {
		return apperrors.Storage("put profile", err)
	}
	return nil
}

func (s *BadgerStore) Upsert(ctx context.Context, userID uint, mutate MutateFunc) (*model.CustomerProfile, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	var (
		result    *model.CustomerProfile
		mutateErr error
		err       error
	)
	for attempt := 0; attempt < maxUpsertRetries; attempt++ {
		if attempt > 0 {
			if waitErr := waitBackoff(ctx, attempt-1); waitErr != nil {
				return nil, waitErr
			}
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		result, mutateErr = nil, nil
		err = s.db.Update(func(txn *badger.Txn) error {
			p, readErr := readProfile(txn, userID)
			exists := readErr == nil
			if readErr != nil && !errors.Is(readErr, ErrNotFound) {
				return readErr
			}
			if !exists {
				p = newProfile(userID)
			}
			if mutateErr = mutate(p, exists); mutateErr != nil {
				return mutateErr
			}
			p.UserID = userID
			result = p
			return writeProfile(txn, p)
		})
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
		logger.Debug("Profile upsert conflicted, retrying", map[string]interface{}{
			"user_id": userID,
			"attempt": attempt + 1,
		})
	}
	if mutateErr != nil {
		return nil, mutateErr
	}
	if err != nil {
		return nil, apperrors.Storage("upsert profile", err)
	}
	return result, nil
}

func (s *BadgerStore) ListUserIDs(_ context.Context) ([]uint, error) {
	var ids []uint
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(badgerKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			key := strings.TrimPrefix(string(it.Item().Key()), badgerKeyPrefix)
			if id, ok := parseUserID(key); ok {
				ids = append(ids, id)
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Storage("list profiles", err)
	}
	slices.Sort(ids)
	return ids, nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
