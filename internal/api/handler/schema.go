package handler

import (
	"time"

	"github.com/bolingo/onboarding-bot/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// --- Chat platform update (only the fields the onboarding flow reads) ---

type tgUser struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

type tgChat struct {
	ID int64 `json:"id"`
}

type tgMessage struct {
	MessageID int     `json:"message_id"`
	From      *tgUser `json:"from"`
	Chat      tgChat  `json:"chat"`
	Text      string  `json:"text"`
}

type tgCallbackQuery struct {
	ID      string     `json:"id"`
	From    tgUser     `json:"from"`
	Message *tgMessage `json:"message"`
	Data    string     `json:"data"`
}

type tgUpdate struct {
	UpdateID      int64            `json:"update_id"`
	Message       *tgMessage       `json:"message"`
	CallbackQuery *tgCallbackQuery `json:"callback_query"`
}

// --- Mini-app ---

type generateDescriptionRequest struct {
	Vibe    string `json:"vibe"    validate:"max=200"`
	Weekend string `json:"weekend" validate:"max=200"`
	Valeurs string `json:"valeurs" validate:"max=200"`
	Plaisir string `json:"plaisir" validate:"max=200"`
}

func (r generateDescriptionRequest) toChoices() domain.ProfileChoices {
	return domain.ProfileChoices{Vibe: r.Vibe, Weekend: r.Weekend, Valeurs: r.Valeurs, Plaisir: r.Plaisir}
}

type generateDescriptionResponse struct {
	// Status is "ok" when a generation was scheduled by this call, "ignored"
	// otherwise.
	Status  string `json:"status"`
	State   string `json:"state"`
	Message string `json:"message"`
}

type updateProfileRequest struct {
	Step string `json:"step" validate:"required,max=64"`
}

type updateProfileResponse struct {
	Status string `json:"status"`
	State  string `json:"state"`
}

// --- Admin ---

type userResponse struct {
	Identity        int64     `json:"identity"`
	DisplayName     string    `json:"display_name"`
	OnboardingState string    `json:"onboarding_state"`
	Version         int64     `json:"version"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toUserResponse(rec *domain.UserRecord) userResponse {
	return userResponse{
		Identity:        rec.Identity,
		DisplayName:     rec.DisplayName,
		OnboardingState: string(rec.OnboardingState),
		Version:         rec.Version,
		CreatedAt:       rec.CreatedAt,
		UpdatedAt:       rec.UpdatedAt,
	}
}
