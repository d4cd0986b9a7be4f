package ports

import (
	"context"
	"errors"
	"time"

	"github.com/bolingo/onboarding-bot/internal/core/domain"
)

// ErrSkipWrite is returned by a MutateFunc that decided nothing changed.
// Update then returns the current record and a nil error without writing.
var ErrSkipWrite = errors.New("skip write")

// MutateFunc changes a user record in place during an Update. Returning any
// other error aborts the update without writing and is returned by Update.
type MutateFunc func(rec *domain.UserRecord) error

// UserRepository is the durable identity → onboarding record mapping.
type UserRepository interface {
	// Get returns domain.ErrUserNotFound when no record exists.
	Get(ctx context.Context, identity int64) (*domain.UserRecord, error)
	// Create stores rec unless a record already exists for its identity, and
	// returns whichever record is stored (first-seen-wins).
	Create(ctx context.Context, rec *domain.UserRecord) (*domain.UserRecord, error)
	// Update applies mutate to the current record. Updates to the same
	// identity are serialized; the returned record is what was written.
	Update(ctx context.Context, identity int64, mutate MutateFunc) (*domain.UserRecord, error)
	// Delete is an administrative operation; the onboarding flow never calls it.
	Delete(ctx context.Context, identity int64) error
}

// StalledUserLister finds records parked in one state since before a cutoff,
// oldest first.
type StalledUserLister interface {
	ListStalled(ctx context.Context, state domain.OnboardingState, updatedBefore time.Time, limit int) ([]*domain.UserRecord, error)
}
