package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/bolingo/onboarding-bot/internal/core/domain"
	"github.com/bolingo/onboarding-bot/internal/core/ports"
)

// UserRepository is a process-local UserRepository. Records are lost on
// restart; it backs single-instance deployments and tests.
type UserRepository struct {
	mu      sync.RWMutex
	records map[int64]domain.UserRecord
	// locks serializes read-modify-write cycles per identity.
	locks map[int64]*sync.Mutex
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		records: make(map[int64]domain.UserRecord),
		locks:   make(map[int64]*sync.Mutex),
	}
}

func (r *UserRepository) Get(_ context.Context, identity int64) (*domain.UserRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[identity]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &rec, nil
}

func (r *UserRepository) Create(_ context.Context, rec *domain.UserRecord) (*domain.UserRecord, error) {
	if rec == nil || rec.Identity == 0 {
		return nil, domain.ErrInvalidIdentity
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.records[rec.Identity]; ok {
		return &existing, nil
	}
	stored := *rec
	stored.Version = 1
	r.records[rec.Identity] = stored
	return &stored, nil
}

func (r *UserRepository) Update(ctx context.Context, identity int64, mutate ports.MutateFunc) (*domain.UserRecord, error) {
	lock := r.lockFor(identity)
	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	current, err := r.Get(ctx, identity)
	if err != nil {
		return nil, err
	}

	next := *current
	if err := mutate(&next); err != nil {
		if errors.Is(err, ports.ErrSkipWrite) {
			return current, nil
		}
		return nil, err
	}
	next.Identity = identity
	next.Version = current.Version + 1

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[identity]; !ok {
		// Deleted while the mutation ran.
		return nil, domain.ErrUserNotFound
	}
	r.records[identity] = next
	return &next, nil
}

func (r *UserRepository) Delete(_ context.Context, identity int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[identity]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.records, identity)
	return nil
}

// ListStalled returns up to limit records in state last written before
// updatedBefore, oldest first. A limit <= 0 returns all of them.
func (r *UserRepository) ListStalled(_ context.Context, state domain.OnboardingState, updatedBefore time.Time, limit int) ([]*domain.UserRecord, error) {
	r.mu.RLock()
	var out []*domain.UserRecord
	for _, rec := range r.records {
		if rec.OnboardingState == state && rec.UpdatedAt.Before(updatedBefore) {
			out = append(out, &rec)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *UserRepository) lockFor(identity int64) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.locks[identity]
	if !ok {
		l = &sync.Mutex{}
		r.locks[identity] = l
	}
	return l
}
