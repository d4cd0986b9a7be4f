package ports

import (
	"context"

	"github.com/bolingo/onboarding-bot/internal/core/domain"
)

// GenerationQueue hands a task to the background workers. Enqueue returns
// once the task is buffered; it does not wait for the generation.
type GenerationQueue interface {
	Enqueue(ctx context.Context, task domain.GenerationTask) error
}

// ChatEventQueue defers chat update processing off the webhook request.
type ChatEventQueue interface {
	Enqueue(ctx context.Context, ev domain.ChatEvent) error
}
