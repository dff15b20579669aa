// Package profile persists CustomerProfile documents outside the relational
// database. Every backend serializes read-modify-write per user id with a
// keyed mutex; the persistent ones also retry optimistic-lock conflicts that
// come from other processes.
package profile

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/anufa/anufa-backend/internal/app/model"
	apperrors "github.com/anufa/anufa-backend/internal/errors"
	"github.com/goccy/go-json"
)

var ErrNotFound = fmt.Errorf("customer profile %w", apperrors.ErrNotFound)

const (
	maxUpsertRetries = 8
	retryBaseDelay   = 2 * time.Millisecond
	retryMaxDelay    = 250 * time.Millisecond
)

// MutateFunc edits p in place. exists is false when p is a fresh profile
// carrying only its UserID. Returning an error aborts the write.
type MutateFunc func(p *model.CustomerProfile, exists bool) error

type Store interface {
	Get(ctx context.Context, userID uint) (*model.CustomerProfile, error)
	Put(ctx context.Context, p *model.CustomerProfile) error
	// Upsert runs mutate against the current profile and stores the result
	// atomically with respect to other writers of the same user id.
	Upsert(ctx context.Context, userID uint, mutate MutateFunc) (*model.CustomerProfile, error)
	ListUserIDs(ctx context.Context) ([]uint, error)
	Close() error
}

func encode(p *model.CustomerProfile) ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal profile %d: %w", p.UserID, err)
	}
	return data, nil
}

func decode(data []byte) (*model.CustomerProfile, error) {
	var p model.CustomerProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("unmarshal profile: %w", err)
	}
	if p.Preferences == nil {
		p.Preferences = map[string]float64{}
	}
	if p.BehaviorPatterns == nil {
		p.BehaviorPatterns = map[string]int{}
	}
	return &p, nil
}

func newProfile(userID uint) *model.CustomerProfile {
	return &model.CustomerProfile{
		UserID:           userID,
		Preferences:      map[string]float64{},
		BehaviorPatterns: map[string]int{},
	}
}

// conflictBackoff is base * 2^attempt, capped, with up to 50% jitter so
// competing processes do not retry in lockstep.
func conflictBackoff(attempt int) time.Duration {
	d := retryMaxDelay
	if attempt < 16 {
		d = min(retryBaseDelay<<attempt, retryMaxDelay)
	}
	return d/2 + rand.N(d/2+1)
}

func waitBackoff(ctx context.Context, attempt int) error {
	timer := time.NewTimer(conflictBackoff(attempt))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseUserID(s string) (uint, bool) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
