package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bolingo/onboarding-bot/internal/core/domain"
	"github.com/bolingo/onboarding-bot/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repository
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	mu      sync.Mutex
	records map[int64]domain.UserRecord
	getErr  error // if set, Get returns this error
	updErr  error // if set, Update returns this error
	writes  int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{records: make(map[int64]domain.UserRecord)}
}

func (r *stubUserRepo) seed(identity int64, state domain.OnboardingState) {
	r.records[identity] = domain.UserRecord{Identity: identity, OnboardingState: state}
}

func (r *stubUserRepo) state(identity int64) domain.OnboardingState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.records[identity].OnboardingState
}

func (r *stubUserRepo) Get(_ context.Context, identity int64) (*domain.UserRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	rec, ok := r.records[identity]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &rec, nil
}

func (r *stubUserRepo) Create(_ context.Context, rec *domain.UserRecord) (*domain.UserRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.records[rec.Identity]; ok {
		return &existing, nil
	}
	r.records[rec.Identity] = *rec
	clone := *rec
	return &clone, nil
}

func (r *stubUserRepo) Update(_ context.Context, identity int64, mutate ports.MutateFunc) (*domain.UserRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updErr != nil {
		return nil, r.updErr
	}
	rec, ok := r.records[identity]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if err := mutate(&rec); err != nil {
		if errors.Is(err, ports.ErrSkipWrite) {
			current := r.records[identity]
			return &current, nil
		}
		return nil, err
	}
	rec.Version++
	r.records[identity] = rec
	r.writes++
	return &rec, nil
}

func (r *stubUserRepo) Delete(_ context.Context, identity int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, identity)
	return nil
}

// ---------------------------------------------------------------------------
// Chat transport, queue and generator stubs
// ---------------------------------------------------------------------------

type stubMessenger struct {
	mu        sync.Mutex
	sent      []domain.Reply
	callbacks []string
	sendErr   error
}

func (m *stubMessenger) Send(_ context.Context, reply domain.Reply) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, reply)
	return nil
}

func (m *stubMessenger) AnswerCallback(_ context.Context, callbackID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, callbackID)
	return nil
}

func (m *stubMessenger) last() domain.Reply {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return domain.Reply{}
	}
	return m.sent[len(m.sent)-1]
}

type stubQueue struct {
	tasks []domain.GenerationTask
	err   error
}

func (q *stubQueue) Enqueue(_ context.Context, task domain.GenerationTask) error {
	if q.err != nil {
		return q.err
	}
	q.tasks = append(q.tasks, task)
	return nil
}

type stubGenerator struct {
	text  string
	err   error
	block bool          // wait for ctx cancellation
	delay time.Duration // simulated latency, cut short by ctx
	calls int
}

func (g *stubGenerator) Generate(ctx context.Context, _ domain.ProfileChoices) (string, error) {
	g.calls++
	if g.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if g.delay > 0 {
		select {
		case <-time.After(g.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return g.text, g.err
}

// ctxMessenger fails like a real transport once the request context is done.
type ctxMessenger struct {
	stubMessenger
}

func (m *ctxMessenger) Send(ctx context.Context, reply domain.Reply) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.stubMessenger.Send(ctx, reply)
}
