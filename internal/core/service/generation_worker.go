package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bolingo/onboarding-bot/internal/core/domain"
	"github.com/bolingo/onboarding-bot/internal/core/ports"
	"github.com/bolingo/onboarding-bot/internal/pkg/metrics"
)

const (
	defaultGenerationTimeout = 30 * time.Second
	// completionTimeout bounds the state write and the delivery of a text.
	completionTimeout = 15 * time.Second
)

// GenerationWorker runs scheduled generation tasks off the request path.
// Every task ends with a delivered text: the generated one, or the
// deterministic fallback when generation fails, times out or is unavailable.
type GenerationWorker struct {
	generator  ports.Generator
	onboarding ports.OnboardingService
	timeout    time.Duration
	log        zerolog.Logger
}

// NewGenerationWorker returns a worker. A nil generator always falls back.
func NewGenerationWorker(
	generator ports.Generator,
	onboarding ports.OnboardingService,
	timeout time.Duration,
	log zerolog.Logger,
) *GenerationWorker {
	if timeout <= 0 {
		timeout = defaultGenerationTimeout
	}
	return &GenerationWorker{
		generator:  generator,
		onboarding: onboarding,
		timeout:    timeout,
		log:        log,
	}
}

// Handle generates the description for task and hands it to the onboarding
// service for delivery. It is the dispatcher handler for generation tasks.
//
// Cancelling ctx cuts the generation short but not the completion: the
// fallback is still recorded and delivered, so a stopping worker never leaves
// the user in builder_in_progress.
func (w *GenerationWorker) Handle(ctx context.Context, task domain.GenerationTask) error {
	text, outcome := w.generate(ctx, task)
	metrics.GenerationsTotal.WithLabelValues(outcome).Inc()

	completeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), completionTimeout)
	defer cancel()
	return w.onboarding.CompleteGeneration(completeCtx, task, text)
}

func (w *GenerationWorker) generate(ctx context.Context, task domain.GenerationTask) (string, string) {
	if w.generator == nil {
		return domain.FallbackDescription(task.Choices), "fallback"
	}

	genCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	start := time.Now()
	text, err := w.generator.Generate(genCtx, task.Choices)
	text = strings.TrimSpace(text)

	if err == nil && text != "" {
		metrics.GenerationDuration.WithLabelValues("generated").Observe(time.Since(start).Seconds())
		return text, "generated"
	}

	metrics.GenerationDuration.WithLabelValues("fallback").Observe(time.Since(start).Seconds())
	ev := w.log.Warn().Int64("user_id", task.Identity).Str("task_id", task.ID)
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Msg("description generation failed, using fallback")
	return domain.FallbackDescription(task.Choices), "fallback"
}
