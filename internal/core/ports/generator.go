package ports

import (
	"context"

	"github.com/bolingo/onboarding-bot/internal/core/domain"
)

// Generator produces a profile description from the mini-app choices. It may
// take arbitrarily long; callers bound it with ctx.
type Generator interface {
	Generate(ctx context.Context, choices domain.ProfileChoices) (string, error)
}
