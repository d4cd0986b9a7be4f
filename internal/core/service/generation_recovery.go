package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/bolingo/onboarding-bot/internal/core/domain"
	"github.com/bolingo/onboarding-bot/internal/core/ports"
	"github.com/bolingo/onboarding-bot/internal/pkg/metrics"
)

const recoveryBatchSize = 500

// GenerationRecovery releases users whose generation task was lost, for
// instance in a crash or a shutdown that outlived its drain deadline.
//
// Profile choices are never stored, so a lost task cannot be replayed. The
// record goes back to charter_accepted and the user is invited to resubmit.
type GenerationRecovery struct {
	users     ports.UserRepository
	lister    ports.StalledUserLister
	messenger ports.Messenger
	webAppURL string
	now       func() time.Time
	log       zerolog.Logger
}

func NewGenerationRecovery(
	users ports.UserRepository,
	lister ports.StalledUserLister,
	messenger ports.Messenger,
	webAppURL string,
	log zerolog.Logger,
) *GenerationRecovery {
	return &GenerationRecovery{
		users:     users,
		lister:    lister,
		messenger: messenger,
		webAppURL: webAppURL,
		now:       func() time.Time { return time.Now().UTC() },
		log:       log,
	}
}

// Run releases every record left in builder_in_progress for longer than
// stalledAfter and returns how many were released.
func (r *GenerationRecovery) Run(ctx context.Context, stalledAfter time.Duration) (int, error) {
	cutoff := r.now().Add(-stalledAfter)
	stalled, err := r.lister.ListStalled(ctx, domain.StateBuilderInProgress, cutoff, recoveryBatchSize)
	if err != nil {
		return 0, storeError(err)
	}

	released := 0
	for _, rec := range stalled {
		ok, err := r.release(ctx, rec.Identity, cutoff)
		if err != nil {
			metrics.StoreErrorsTotal.WithLabelValues("recovery").Inc()
			r.log.Error().Err(err).Int64("user_id", rec.Identity).Msg("failed to release stalled generation")
			continue
		}
		if !ok {
			continue
		}
		released++

		if err := r.messenger.Send(ctx, retryReply(rec.Identity, r.webAppURL)); err != nil {
			metrics.DeliveryErrorsTotal.WithLabelValues("recovery").Inc()
			r.log.Warn().Err(err).Int64("user_id", rec.Identity).Msg("failed to notify released user")
		}
	}

	if released > 0 {
		r.log.Info().Int("released", released).Dur("stalled_after", stalledAfter).Msg("stalled generations released")
	}
	return released, nil
}

// release moves identity back to charter_accepted unless it progressed or was
// touched again since the listing.
func (r *GenerationRecovery) release(ctx context.Context, identity int64, cutoff time.Time) (bool, error) {
	released := false
	_, err := r.users.Update(ctx, identity, func(rec *domain.UserRecord) error {
		if rec.OnboardingState != domain.StateBuilderInProgress || !rec.UpdatedAt.Before(cutoff) {
			return ports.ErrSkipWrite
		}
		rec.OnboardingState = domain.StateCharterAccepted
		rec.UpdatedAt = r.now()
		released = true
		return nil
	})
	if errors.Is(err, domain.ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if released {
		metrics.TransitionsTotal.WithLabelValues("recover", string(domain.StateBuilderInProgress), string(domain.StateCharterAccepted)).Inc()
	}
	return released, nil
}
