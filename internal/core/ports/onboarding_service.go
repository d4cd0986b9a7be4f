package ports

import (
	"context"

	"github.com/bolingo/onboarding-bot/internal/core/domain"
)

// SubmitChoicesInput is a verified mini-app profile submission.
type SubmitChoicesInput struct {
	Identity    int64
	DisplayName string
	Choices     domain.ProfileChoices
}

// SubmitChoicesResult tells the mini-app what happened to its submission.
type SubmitChoicesResult struct {
	// Scheduled is true when a generation task was queued for this call.
	Scheduled bool
	State     domain.OnboardingState
	Message   string
}

// ReportStepInput is a verified client-reported progression signal.
type ReportStepInput struct {
	Identity    int64
	DisplayName string
	Step        string
}

// OnboardingService drives the onboarding state machine for both event sources.
type OnboardingService interface {
	// HandleChatEvent processes one trusted chat update. Store failures
	// degrade to treating the user as new; the error is only informational.
	HandleChatEvent(ctx context.Context, ev domain.ChatEvent) error
	SubmitChoices(ctx context.Context, in SubmitChoicesInput) (*SubmitChoicesResult, error)
	ReportStep(ctx context.Context, in ReportStepInput) (*domain.UserRecord, error)
	// CompleteGeneration records the end of a generation task and delivers text.
	CompleteGeneration(ctx context.Context, task domain.GenerationTask, text string) error
}
