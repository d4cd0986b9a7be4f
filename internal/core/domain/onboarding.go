package domain

// Event is an input to the onboarding state machine.
type Event string

const (
	EventStart          Event = "start"
	EventShowCharter    Event = "show_charter"
	EventAcceptCharter  Event = "accept_charter"
	EventSubmitChoices  Event = "submit_choices"
	EventGenerationDone Event = "generation_done"
	EventUnknown        Event = "unknown"
)

// Action is the externally visible effect a transition asks for.
type Action string

const (
	ActionNone               Action = "none"
	ActionWelcome            Action = "welcome"
	ActionCharter            Action = "charter"
	ActionWebAppLink         Action = "webapp_link"
	ActionResumeLink         Action = "resume_link"
	ActionScheduleGeneration Action = "schedule_generation"
	ActionDeliverDescription Action = "deliver_description"
	ActionCompletedNotice    Action = "completed_notice"
)

// Decision is the outcome of applying one event to one state.
type Decision struct {
	From   OnboardingState
	Next   OnboardingState
	Action Action
}

// Changed reports whether the decision moves the record to another state.
func (d Decision) Changed() bool { return d.From != d.Next }

// Ignored reports whether the event had no effect at all.
func (d Decision) Ignored() bool { return d.Action == ActionNone && !d.Changed() }

type transitionKey struct {
	state OnboardingState
	event Event
}

type outcome struct {
	next   OnboardingState
	action Action
}

// transitions is the complete onboarding table. Pairs missing from it are
// ignored: no state change and nothing emitted.
var transitions = map[transitionKey]outcome{
	{StateNew, EventStart}:                        {StateCharterOffered, ActionWelcome},
	{StateCharterOffered, EventStart}:             {StateCharterOffered, ActionWelcome},
	{StateCharterOffered, EventShowCharter}:       {StateCharterOffered, ActionCharter},
	{StateCharterOffered, EventAcceptCharter}:     {StateCharterAccepted, ActionWebAppLink},
	{StateCharterAccepted, EventStart}:            {StateCharterAccepted, ActionResumeLink},
	{StateBuilderInProgress, EventStart}:          {StateBuilderInProgress, ActionResumeLink},
	{StateCharterAccepted, EventSubmitChoices}:    {StateBuilderInProgress, ActionScheduleGeneration},
	{StateBuilderInProgress, EventGenerationDone}: {StateCompleted, ActionDeliverDescription},
	{StateCompleted, EventStart}:                  {StateCompleted, ActionCompletedNotice},
}

// Decide computes the next state and action for event in state. It never
// moves a record backward and never fails: unknown pairs are ignored.
func Decide(state OnboardingState, event Event) Decision {
	d := Decision{From: state, Next: state, Action: ActionNone}
	if o, ok := transitions[transitionKey{state, event}]; ok {
		d.Next = o.next
		d.Action = o.action
	}
	return d
}

// DecideReportedStep handles a client-reported step from the mini-app. Only
// forward moves are applied; the generation states are reserved for
// server-side transitions.
func DecideReportedStep(state, reported OnboardingState) (Decision, error) {
	if !reported.Valid() {
		return Decision{}, ErrInvalidStep
	}
	if reported == StateBuilderInProgress || reported == StateCompleted {
		return Decision{}, ErrStepNotAllowed
	}
	d := Decision{From: state, Next: state, Action: ActionNone}
	if state.Before(reported) {
		d.Next = reported
	}
	return d, nil
}
