package domain

import (
	"errors"
	"time"
)

// OnboardingState is a user's position in the profile-creation flow.
type OnboardingState string

const (
	StateNew               OnboardingState = "new"
	StateCharterOffered    OnboardingState = "charter_offered"
	StateCharterAccepted   OnboardingState = "charter_accepted"
	StateBuilderInProgress OnboardingState = "builder_in_progress"
	StateCompleted         OnboardingState = "completed"
)

// stateRank orders the states along the flow.
var stateRank = map[OnboardingState]int{
	StateNew:               0,
	StateCharterOffered:    1,
	StateCharterAccepted:   2,
	StateBuilderInProgress: 3,
	StateCompleted:         4,
}

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrStoreUnavailable = errors.New("user store unavailable")
	ErrConcurrentUpdate = errors.New("concurrent update on user record")
	ErrInvalidStep      = errors.New("unknown onboarding step")
	ErrStepNotAllowed   = errors.New("onboarding step cannot be set by the client")
	ErrQueueUnavailable = errors.New("generation queue unavailable")
	ErrInvalidIdentity  = errors.New("invalid identity")
)

// ParseState converts a canonical step name into an OnboardingState.
func ParseState(s string) (OnboardingState, error) {
	st := OnboardingState(s)
	if _, ok := stateRank[st]; !ok {
		return "", ErrInvalidStep
	}
	return st, nil
}

// Valid reports whether s is one of the canonical states.
func (s OnboardingState) Valid() bool {
	_, ok := stateRank[s]
	return ok
}

// Before reports whether s comes strictly earlier in the flow than other.
func (s OnboardingState) Before(other OnboardingState) bool {
	return stateRank[s] < stateRank[other]
}

// UserRecord is the durable onboarding record of one platform user.
type UserRecord struct {
	Identity        int64           `json:"identity"`
	DisplayName     string          `json:"display_name"`
	OnboardingState OnboardingState `json:"onboarding_state"`
	Version         int64           `json:"version"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// NewUserRecord returns a record in StateNew for a first-seen identity.
func NewUserRecord(identity int64, displayName string, now time.Time) *UserRecord {
	return &UserRecord{
		Identity:        identity,
		DisplayName:     displayName,
		OnboardingState: StateNew,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// RoleAdmin is the only operator role accepted by the admin API.
const RoleAdmin = "admin"
