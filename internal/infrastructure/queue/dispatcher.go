package queue

import (
	"context"
	"fmt"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/bolingo/onboarding-bot/internal/core/domain"
	"github.com/bolingo/onboarding-bot/internal/pkg/metrics"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// Handler processes one dequeued item.
type Handler[T any] func(ctx context.Context, item T) error

// Dispatcher routes items to a fixed set of workers using consistent hashing
// on a key, so items sharing a key are handled one at a time and in order.
type Dispatcher[T any] struct {
	name    string
	workers []chan T
	key     func(T) int64
	log     zerolog.Logger
	wg      sync.WaitGroup

	// mu guards started and closed; Enqueue holds it shared while sending.
	mu       sync.RWMutex
	started  bool
	closed   bool
	stopping chan struct{}
	stopOnce sync.Once
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used. key selects the shard.
func NewDispatcher[T any](name string, numWorkers int, key func(T) int64, log zerolog.Logger) *Dispatcher[T] {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher[T]{
		name:     name,
		workers:  make([]chan T, numWorkers),
		key:      key,
		log:      log.With().Str("queue", name).Logger(),
		stopping: make(chan struct{}),
	}
	for i := range d.workers {
		d.workers[i] = make(chan T, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines with handler. Workers stop when ctx is
// cancelled; items still buffered at that point are dropped, so call Drain
// first on a graceful stop. Start may only be called once.
func (d *Dispatcher[T]) Start(ctx context.Context, handler Handler[T]) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.started = true
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch, handler)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher[T]) Wait() {
	d.wg.Wait()
}

// Drain stops accepting items and waits until the workers have handled
// everything already buffered. It returns ctx's error if the backlog is not
// done in time; the workers keep running until their Start context ends.
func (d *Dispatcher[T]) Drain(ctx context.Context) error {
	d.stopOnce.Do(func() { close(d.stopping) })

	d.mu.Lock()
	if !d.closed {
		d.closed = true
		for _, ch := range d.workers {
			close(ch)
		}
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.log.Info().Msg("queue drained")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain %s queue: %w", d.name, ctx.Err())
	}
}

// Enqueue buffers item on the worker responsible for its key. It blocks while
// that worker's buffer is full and fails with domain.ErrQueueUnavailable once
// ctx is done or the dispatcher is draining.
func (d *Dispatcher[T]) Enqueue(ctx context.Context, item T) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return fmt.Errorf("%w: %s: shutting down", domain.ErrQueueUnavailable, d.name)
	}

	idx := d.shardIndex(d.key(item))
	select {
	case d.workers[idx] <- item:
		metrics.QueueDepth.WithLabelValues(d.name, strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
		return nil
	case <-d.stopping:
		return fmt.Errorf("%w: %s: shutting down", domain.ErrQueueUnavailable, d.name)
	case <-ctx.Done():
		return fmt.Errorf("%w: %s: %v", domain.ErrQueueUnavailable, d.name, ctx.Err())
	}
}

// shardIndex maps a key deterministically to a worker index.
func (d *Dispatcher[T]) shardIndex(key int64) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strconv.FormatInt(key, 10)))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher[T]) runWorker(ctx context.Context, id int, ch <-chan T, handler Handler[T]) {
	defer d.wg.Done()
	depth := metrics.QueueDepth.WithLabelValues(d.name, strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case item, ok := <-ch:
			if !ok {
				return
			}
			depth.Set(float64(len(ch)))
			d.handle(ctx, id, item, handler)
		}
	}
}

func (d *Dispatcher[T]) handle(ctx context.Context, id int, item T, handler Handler[T]) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().
				Interface("panic", r).
				Int64("key", d.key(item)).
				Int("worker_id", id).
				Msg("handler panicked")
		}
	}()
	if err := handler(ctx, item); err != nil {
		d.log.Error().Err(err).
			Int64("key", d.key(item)).
			Int("worker_id", id).
			Msg("item processing failed")
	}
}

// ChatEventKey shards chat updates by the sending user.
func ChatEventKey(ev domain.ChatEvent) int64 { return ev.UserID }

// GenerationTaskKey shards generation tasks by identity.
func GenerationTaskKey(task domain.GenerationTask) int64 { return task.Identity }
