package ports

import (
	"context"

	"github.com/bolingo/onboarding-bot/internal/core/domain"
)

// Messenger is the outbound side of the chat transport.
type Messenger interface {
	Send(ctx context.Context, reply domain.Reply) error
	// AnswerCallback acknowledges a button press so the client stops waiting.
	AnswerCallback(ctx context.Context, callbackID string) error
}
