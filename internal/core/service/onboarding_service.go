package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bolingo/onboarding-bot/internal/core/domain"
	"github.com/bolingo/onboarding-bot/internal/core/ports"
	"github.com/bolingo/onboarding-bot/internal/pkg/metrics"
)

// OnboardingService applies onboarding decisions: it persists the new state
// first and only then replies or schedules background work.
type OnboardingService struct {
	users     ports.UserRepository
	messenger ports.Messenger
	queue     ports.GenerationQueue
	webAppURL string
	now       func() time.Time
	log       zerolog.Logger
}

// NewOnboardingService returns an OnboardingService. webAppURL may be empty,
// in which case mini-app links are replaced by a configuration error message.
func NewOnboardingService(
	users ports.UserRepository,
	messenger ports.Messenger,
	queue ports.GenerationQueue,
	webAppURL string,
	log zerolog.Logger,
) *OnboardingService {
	return &OnboardingService{
		users:     users,
		messenger: messenger,
		queue:     queue,
		webAppURL: webAppURL,
		now:       func() time.Time { return time.Now().UTC() },
		log:       log,
	}
}

// HandleChatEvent processes one chat update from a trusted identity.
func (s *OnboardingService) HandleChatEvent(ctx context.Context, ev domain.ChatEvent) error {
	if ev.CallbackID != "" {
		if err := s.messenger.AnswerCallback(ctx, ev.CallbackID); err != nil {
			metrics.DeliveryErrorsTotal.WithLabelValues("callback").Inc()
			s.log.Warn().Err(err).Int64("user_id", ev.UserID).Msg("failed to answer callback")
		}
	}

	webAppMissing := false
	d, err := s.apply(ctx, ev.UserID, ev.DisplayName, ev.Event, func(d domain.Decision) bool {
		// Accepting the charter needs somewhere to send the user.
		if d.Action == domain.ActionWebAppLink && s.webAppURL == "" {
			webAppMissing = true
			return false
		}
		return true
	})
	if err != nil {
		// Degrade to a first-contact conversation rather than failing the update.
		metrics.StoreErrorsTotal.WithLabelValues("chat").Inc()
		s.log.Warn().Err(err).Int64("user_id", ev.UserID).Str("event", string(ev.Event)).
			Msg("user store unavailable, treating user as new")
		d = domain.Decide(domain.StateNew, ev.Event)
	}

	var reply domain.Reply
	switch {
	case webAppMissing:
		s.log.Error().Int64("user_id", ev.UserID).Msg("charter accepted but WEBAPP_URL is not configured")
		reply = webAppMissingReply(ev.ChatID, ev.MessageID)
	default:
		var ok bool
		if reply, ok = s.chatReply(ev, d); !ok {
			return nil
		}
	}

	if err := s.messenger.Send(ctx, reply); err != nil {
		metrics.DeliveryErrorsTotal.WithLabelValues("reply").Inc()
		return fmt.Errorf("handle chat event: send reply: %w", err)
	}
	return nil
}

func (s *OnboardingService) chatReply(ev domain.ChatEvent, d domain.Decision) (domain.Reply, bool) {
	switch d.Action {
	case domain.ActionWelcome:
		return welcomeReply(ev.ChatID), true
	case domain.ActionCharter:
		return charterReply(ev.ChatID, ev.MessageID), true
	case domain.ActionWebAppLink:
		return webAppLinkReply(ev.ChatID, ev.MessageID, s.webAppURL), true
	case domain.ActionResumeLink:
		if s.webAppURL == "" {
			return webAppMissingReply(ev.ChatID, 0), true
		}
		return resumeReply(ev.ChatID, s.webAppURL, d.Next), true
	case domain.ActionCompletedNotice:
		return completedReply(ev.ChatID), true
	default:
		return domain.Reply{}, false
	}
}

// SubmitChoices advances a charter_accepted user to builder_in_progress and
// schedules the description generation. Submissions in any other state are
// acknowledged without scheduling anything.
func (s *OnboardingService) SubmitChoices(ctx context.Context, in ports.SubmitChoicesInput) (*ports.SubmitChoicesResult, error) {
	if in.Identity == 0 {
		return nil, domain.ErrInvalidIdentity
	}

	d, err := s.apply(ctx, in.Identity, in.DisplayName, domain.EventSubmitChoices, nil)
	if err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("miniapp").Inc()
		return nil, err
	}

	if d.Action != domain.ActionScheduleGeneration {
		return &ports.SubmitChoicesResult{State: d.Next, Message: submitMessage(d.Next)}, nil
	}

	task := domain.GenerationTask{
		ID:         uuid.NewString(),
		Identity:   in.Identity,
		ChatID:     in.Identity,
		Choices:    in.Choices.Normalize(),
		EnqueuedAt: s.now(),
	}
	if err := s.queue.Enqueue(ctx, task); err != nil {
		s.rollbackSchedule(ctx, in.Identity)
		return nil, fmt.Errorf("%w: %v", domain.ErrQueueUnavailable, err)
	}

	s.log.Info().Int64("user_id", in.Identity).Str("task_id", task.ID).Msg("description generation scheduled")
	return &ports.SubmitChoicesResult{Scheduled: true, State: d.Next, Message: msgScheduled}, nil
}

// rollbackSchedule returns the user to charter_accepted when the task that
// justified builder_in_progress never made it into the queue.
func (s *OnboardingService) rollbackSchedule(ctx context.Context, identity int64) {
	_, err := s.users.Update(ctx, identity, func(rec *domain.UserRecord) error {
		if rec.OnboardingState != domain.StateBuilderInProgress {
			return ports.ErrSkipWrite
		}
		rec.OnboardingState = domain.StateCharterAccepted
		rec.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		s.log.Error().Err(err).Int64("user_id", identity).Msg("failed to roll back unscheduled generation")
	}
}

func submitMessage(state domain.OnboardingState) string {
	switch state {
	case domain.StateBuilderInProgress:
		return msgAlreadyScheduled
	case domain.StateCompleted:
		return msgAlreadyDone
	default:
		return msgNotReady
	}
}

// ReportStep applies a client-reported step. Only canonical step names are
// accepted and the record never moves backward.
func (s *OnboardingService) ReportStep(ctx context.Context, in ports.ReportStepInput) (*domain.UserRecord, error) {
	if in.Identity == 0 {
		return nil, domain.ErrInvalidIdentity
	}
	reported, err := domain.ParseState(strings.TrimSpace(in.Step))
	if err != nil {
		return nil, err
	}
	if _, err := domain.DecideReportedStep(domain.StateNew, reported); err != nil {
		return nil, err
	}

	if _, err := s.ensureRecord(ctx, in.Identity, in.DisplayName); err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("miniapp").Inc()
		return nil, err
	}

	var d domain.Decision
	rec, err := s.users.Update(ctx, in.Identity, func(rec *domain.UserRecord) error {
		var err error
		if d, err = domain.DecideReportedStep(rec.OnboardingState, reported); err != nil {
			return err
		}
		if !d.Changed() {
			return ports.ErrSkipWrite
		}
		rec.OnboardingState = d.Next
		rec.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidStep) || errors.Is(err, domain.ErrStepNotAllowed) {
			return nil, err
		}
		metrics.StoreErrorsTotal.WithLabelValues("miniapp").Inc()
		return nil, storeError(err)
	}

	if d.Changed() {
		metrics.TransitionsTotal.WithLabelValues("report_step", string(d.From), string(d.Next)).Inc()
		s.log.Info().Int64("user_id", in.Identity).Str("from", string(d.From)).Str("to", string(d.Next)).
			Msg("client reported onboarding step")
	}
	return rec, nil
}

// CompleteGeneration marks the generation done and pushes text to the user.
// A task for a user who is no longer builder_in_progress is dropped, which
// keeps repeated deliveries of the same task invisible.
func (s *OnboardingService) CompleteGeneration(ctx context.Context, task domain.GenerationTask, text string) error {
	var d domain.Decision
	_, err := s.users.Update(ctx, task.Identity, func(rec *domain.UserRecord) error {
		d = domain.Decide(rec.OnboardingState, domain.EventGenerationDone)
		if !d.Changed() {
			return ports.ErrSkipWrite
		}
		rec.OnboardingState = d.Next
		rec.UpdatedAt = s.now()
		return nil
	})
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		s.log.Warn().Int64("user_id", task.Identity).Str("task_id", task.ID).Msg("generation finished for unknown user")
		return nil
	case err != nil:
		// The text exists already; deliver it even though the state write failed.
		metrics.StoreErrorsTotal.WithLabelValues("worker").Inc()
		s.log.Error().Err(err).Int64("user_id", task.Identity).Str("task_id", task.ID).
			Msg("failed to record generation completion")
		d = domain.Decision{Action: domain.ActionDeliverDescription}
	}

	if d.Action != domain.ActionDeliverDescription {
		metrics.EventsIgnoredTotal.WithLabelValues(string(domain.EventGenerationDone), string(d.From)).Inc()
		s.log.Debug().Int64("user_id", task.Identity).Str("task_id", task.ID).Str("state", string(d.From)).
			Msg("generation result dropped")
		return nil
	}
	if d.Changed() {
		metrics.TransitionsTotal.WithLabelValues(string(domain.EventGenerationDone), string(d.From), string(d.Next)).Inc()
	}

	if sendErr := s.messenger.Send(ctx, descriptionReply(task.ChatID, text)); sendErr != nil {
		metrics.DeliveryErrorsTotal.WithLabelValues("description").Inc()
		return fmt.Errorf("complete generation: deliver: %w", sendErr)
	}
	s.log.Info().Int64("user_id", task.Identity).Str("task_id", task.ID).Msg("description delivered")
	if err != nil {
		return storeError(err)
	}
	return nil
}

// apply runs event through the state machine for identity, creating the
// record on first contact. allow may veto a decision before it is written.
func (s *OnboardingService) apply(
	ctx context.Context,
	identity int64,
	displayName string,
	event domain.Event,
	allow func(domain.Decision) bool,
) (domain.Decision, error) {
	if _, err := s.ensureRecord(ctx, identity, displayName); err != nil {
		return domain.Decision{}, err
	}

	var d domain.Decision
	_, err := s.users.Update(ctx, identity, func(rec *domain.UserRecord) error {
		d = domain.Decide(rec.OnboardingState, event)
		if allow != nil && !allow(d) {
			d = domain.Decision{From: d.From, Next: d.From, Action: domain.ActionNone}
			return ports.ErrSkipWrite
		}
		renamed := displayName != "" && displayName != rec.DisplayName
		if !d.Changed() && !renamed {
			return ports.ErrSkipWrite
		}
		if renamed {
			rec.DisplayName = displayName
		}
		rec.OnboardingState = d.Next
		rec.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return domain.Decision{}, storeError(err)
	}

	if d.Ignored() {
		metrics.EventsIgnoredTotal.WithLabelValues(string(event), string(d.From)).Inc()
		s.log.Debug().Int64("user_id", identity).Str("event", string(event)).Str("state", string(d.From)).
			Msg("event ignored")
	} else {
		metrics.TransitionsTotal.WithLabelValues(string(event), string(d.From), string(d.Next)).Inc()
	}
	return d, nil
}

// ensureRecord returns the record for identity, creating it on first contact.
func (s *OnboardingService) ensureRecord(ctx context.Context, identity int64, displayName string) (*domain.UserRecord, error) {
	rec, err := s.users.Get(ctx, identity)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, storeError(err)
	}

	rec, err = s.users.Create(ctx, domain.NewUserRecord(identity, displayName, s.now()))
	if err != nil {
		return nil, storeError(err)
	}
	s.log.Info().Int64("user_id", identity).Msg("user record created")
	return rec, nil
}

func storeError(err error) error {
	if errors.Is(err, domain.ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}
