package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/bolingo/onboarding-bot/internal/core/domain"
	"github.com/bolingo/onboarding-bot/internal/core/ports"
)

const webAppURL = "https://bolingo.example.com/app"

func newOnboardingSvc(repo *stubUserRepo, msg *stubMessenger, q *stubQueue) *OnboardingService {
	return NewOnboardingService(repo, msg, q, webAppURL, zerolog.Nop())
}

func chatEvent(userID int64, ev domain.Event) domain.ChatEvent {
	return domain.ChatEvent{UserID: userID, ChatID: userID, DisplayName: "Amani", Event: ev}
}

func hasButton(r domain.Reply, match func(domain.Button) bool) bool {
	for _, row := range r.Buttons {
		for _, b := range row {
			if match(b) {
				return true
			}
		}
	}
	return false
}

var sampleChoices = domain.ProfileChoices{Vibe: "calme", Weekend: "lecture", Valeurs: "honnêteté", Plaisir: "café"}

// ---------------------------------------------------------------------------
// End-to-end scenarios
// ---------------------------------------------------------------------------

func runScenario(t *testing.T, gen ports.Generator) (*stubUserRepo, *stubMessenger) {
	t.Helper()
	ctx := context.Background()
	repo := newStubUserRepo()
	msg := &stubMessenger{}
	q := &stubQueue{}
	svc := newOnboardingSvc(repo, msg, q)

	if err := svc.HandleChatEvent(ctx, chatEvent(42, domain.EventStart)); err != nil {
		t.Fatalf("start: %v", err)
	}
	if got := repo.state(42); got != domain.StateCharterOffered {
		t.Fatalf("after start: expected charter_offered, got %s", got)
	}
	if !hasButton(msg.last(), func(b domain.Button) bool { return b.CallbackData == domain.CallbackShowCharter }) {
		t.Fatalf("welcome reply must carry a proceed action: %+v", msg.last())
	}

	if err := svc.HandleChatEvent(ctx, chatEvent(42, domain.EventAcceptCharter)); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if got := repo.state(42); got != domain.StateCharterAccepted {
		t.Fatalf("after accept: expected charter_accepted, got %s", got)
	}
	if !hasButton(msg.last(), func(b domain.Button) bool { return b.WebAppURL == webAppURL }) {
		t.Fatalf("accept reply must carry the mini-app link: %+v", msg.last())
	}

	res, err := svc.SubmitChoices(ctx, ports.SubmitChoicesInput{Identity: 42, DisplayName: "Amani", Choices: sampleChoices})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !res.Scheduled || res.State != domain.StateBuilderInProgress {
		t.Fatalf("unexpected submit result: %+v", res)
	}
	if got := repo.state(42); got != domain.StateBuilderInProgress {
		t.Fatalf("after submit: expected builder_in_progress, got %s", got)
	}
	if len(q.tasks) != 1 || q.tasks[0].Identity != 42 || q.tasks[0].ID == "" {
		t.Fatalf("expected one scheduled task, got %+v", q.tasks)
	}

	worker := NewGenerationWorker(gen, svc, 0, zerolog.Nop())
	if err := worker.Handle(ctx, q.tasks[0]); err != nil {
		t.Fatalf("worker: %v", err)
	}
	if got := repo.state(42); got != domain.StateCompleted {
		t.Fatalf("after generation: expected completed, got %s", got)
	}
	return repo, msg
}

func TestScenario_GeneratedDescriptionDelivered(t *testing.T) {
	_, msg := runScenario(t, &stubGenerator{text: "Calme et curieuse, fan de lecture."})

	last := msg.last()
	if last.ChatID != 42 || !strings.Contains(last.Text, "Calme et curieuse") {
		t.Fatalf("expected generated description delivered, got %+v", last)
	}
}

func TestScenario_UnconfiguredGeneratorDeliversFallback(t *testing.T) {
	_, msg := runScenario(t, nil)

	want := domain.FallbackDescription(sampleChoices)
	if last := msg.last(); !strings.Contains(last.Text, want) {
		t.Fatalf("expected fallback description, got %q", last.Text)
	}
}

func TestScenario_GeneratorErrorDeliversFallback(t *testing.T) {
	_, msg := runScenario(t, &stubGenerator{err: domain.ErrGeneratorUnavailable})

	if last := msg.last(); !strings.Contains(last.Text, domain.FallbackDescription(sampleChoices)) {
		t.Fatalf("expected fallback description, got %q", last.Text)
	}
}

// ---------------------------------------------------------------------------
// Chat path
// ---------------------------------------------------------------------------

func TestHandleChatEvent_RepeatedCharterKeepsState(t *testing.T) {
	repo := newStubUserRepo()
	repo.seed(7, domain.StateCharterOffered)
	msg := &stubMessenger{}
	svc := newOnboardingSvc(repo, msg, &stubQueue{})

	for i := 0; i < 3; i++ {
		ev := chatEvent(7, domain.EventShowCharter)
		ev.CallbackID = "cb"
		ev.MessageID = 99
		if err := svc.HandleChatEvent(context.Background(), ev); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if got := repo.state(7); got != domain.StateCharterOffered {
		t.Fatalf("expected charter_offered, got %s", got)
	}
	if len(msg.sent) != 3 || msg.last().ParseMode != "HTML" || msg.last().EditMessageID != 99 {
		t.Fatalf("expected the charter shown three times, got %+v", msg.sent)
	}
	if len(msg.callbacks) != 3 {
		t.Fatalf("expected every button press answered, got %d", len(msg.callbacks))
	}
}

func TestHandleChatEvent_ResumeLinkCarriesState(t *testing.T) {
	repo := newStubUserRepo()
	repo.seed(8, domain.StateBuilderInProgress)
	msg := &stubMessenger{}
	svc := newOnboardingSvc(repo, msg, &stubQueue{})

	if err := svc.HandleChatEvent(context.Background(), chatEvent(8, domain.EventStart)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !hasButton(msg.last(), func(b domain.Button) bool {
		return strings.HasPrefix(b.WebAppURL, webAppURL) && strings.Contains(b.WebAppURL, "state=builder_in_progress")
	}) {
		t.Fatalf("expected resume link with state, got %+v", msg.last())
	}
	if got := repo.state(8); got != domain.StateBuilderInProgress {
		t.Fatalf("state must be unchanged, got %s", got)
	}
}

func TestHandleChatEvent_CompletedUserGetsCompletionMessage(t *testing.T) {
	repo := newStubUserRepo()
	repo.seed(9, domain.StateCompleted)
	msg := &stubMessenger{}
	svc := newOnboardingSvc(repo, msg, &stubQueue{})

	_ = svc.HandleChatEvent(context.Background(), chatEvent(9, domain.EventStart))
	if msg.last().Text != textCompleted {
		t.Fatalf("expected completion message, got %q", msg.last().Text)
	}
}

func TestHandleChatEvent_AcceptReplayIgnored(t *testing.T) {
	for _, st := range []domain.OnboardingState{domain.StateCharterAccepted, domain.StateBuilderInProgress, domain.StateCompleted} {
		repo := newStubUserRepo()
		repo.seed(10, st)
		msg := &stubMessenger{}
		svc := newOnboardingSvc(repo, msg, &stubQueue{})

		if err := svc.HandleChatEvent(context.Background(), chatEvent(10, domain.EventAcceptCharter)); err != nil {
			t.Fatalf("%s: unexpected error: %v", st, err)
		}
		if got := repo.state(10); got != st {
			t.Fatalf("%s: state changed to %s", st, got)
		}
		if len(msg.sent) != 0 {
			t.Fatalf("%s: ignored event must not emit, got %+v", st, msg.sent)
		}
	}
}

func TestHandleChatEvent_UnknownEventIgnored(t *testing.T) {
	repo := newStubUserRepo()
	repo.seed(11, domain.StateCharterAccepted)
	msg := &stubMessenger{}
	svc := newOnboardingSvc(repo, msg, &stubQueue{})

	if err := svc.HandleChatEvent(context.Background(), chatEvent(11, domain.EventUnknown)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.state(11) != domain.StateCharterAccepted || len(msg.sent) != 0 {
		t.Fatal("unknown event must not change state or emit")
	}
}

func TestHandleChatEvent_AcceptWithoutWebAppURL(t *testing.T) {
	repo := newStubUserRepo()
	repo.seed(12, domain.StateCharterOffered)
	msg := &stubMessenger{}
	svc := NewOnboardingService(repo, msg, &stubQueue{}, "", zerolog.Nop())

	if err := svc.HandleChatEvent(context.Background(), chatEvent(12, domain.EventAcceptCharter)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := repo.state(12); got != domain.StateCharterOffered {
		t.Fatalf("state must not advance without a web app url, got %s", got)
	}
	if msg.last().Text != textWebAppMissing {
		t.Fatalf("expected configuration error message, got %q", msg.last().Text)
	}
}

func TestHandleChatEvent_StoreFailureDegradesToNewUser(t *testing.T) {
	repo := newStubUserRepo()
	repo.getErr = errors.New("mongo unavailable")
	msg := &stubMessenger{}
	svc := newOnboardingSvc(repo, msg, &stubQueue{})

	if err := svc.HandleChatEvent(context.Background(), chatEvent(13, domain.EventStart)); err != nil {
		t.Fatalf("store failure must not fail the chat path, got %v", err)
	}
	if msg.last().Text != textWelcome {
		t.Fatalf("expected welcome reply, got %q", msg.last().Text)
	}
}

func TestHandleChatEvent_SendFailureReported(t *testing.T) {
	repo := newStubUserRepo()
	msg := &stubMessenger{sendErr: errors.New("telegram down")}
	svc := newOnboardingSvc(repo, msg, &stubQueue{})

	if err := svc.HandleChatEvent(context.Background(), chatEvent(14, domain.EventStart)); err == nil {
		t.Fatal("expected send error to be reported")
	}
	if got := repo.state(14); got != domain.StateCharterOffered {
		t.Fatalf("state is persisted before replying, got %s", got)
	}
}

func TestHandleChatEvent_CreationIsFirstSeenWins(t *testing.T) {
	repo := newStubUserRepo()
	svc := newOnboardingSvc(repo, &stubMessenger{}, &stubQueue{})

	_ = svc.HandleChatEvent(context.Background(), chatEvent(15, domain.EventStart))
	_ = svc.HandleChatEvent(context.Background(), chatEvent(15, domain.EventStart))
	if len(repo.records) != 1 || repo.state(15) != domain.StateCharterOffered {
		t.Fatalf("unexpected records: %+v", repo.records)
	}
}

// ---------------------------------------------------------------------------
// Mini-app path
// ---------------------------------------------------------------------------

func TestSubmitChoices_NotReady(t *testing.T) {
	repo := newStubUserRepo()
	repo.seed(20, domain.StateCharterOffered)
	q := &stubQueue{}
	svc := newOnboardingSvc(repo, &stubMessenger{}, q)

	res, err := svc.SubmitChoices(context.Background(), ports.SubmitChoicesInput{Identity: 20, Choices: sampleChoices})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Scheduled || len(q.tasks) != 0 || repo.state(20) != domain.StateCharterOffered {
		t.Fatalf("submission before charter acceptance must be ignored: %+v", res)
	}
}

func TestSubmitChoices_SecondSubmissionNotRescheduled(t *testing.T) {
	repo := newStubUserRepo()
	repo.seed(21, domain.StateCharterAccepted)
	q := &stubQueue{}
	svc := newOnboardingSvc(repo, &stubMessenger{}, q)

	in := ports.SubmitChoicesInput{Identity: 21, Choices: sampleChoices}
	if _, err := svc.SubmitChoices(context.Background(), in); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	res, err := svc.SubmitChoices(context.Background(), in)
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if res.Scheduled || len(q.tasks) != 1 {
		t.Fatalf("expected exactly one scheduled task, got %d", len(q.tasks))
	}
	if res.Message != msgAlreadyScheduled {
		t.Fatalf("unexpected message %q", res.Message)
	}
}

func TestSubmitChoices_QueueFailureRollsBack(t *testing.T) {
	repo := newStubUserRepo()
	repo.seed(22, domain.StateCharterAccepted)
	svc := newOnboardingSvc(repo, &stubMessenger{}, &stubQueue{err: errors.New("full")})

	_, err := svc.SubmitChoices(context.Background(), ports.SubmitChoicesInput{Identity: 22, Choices: sampleChoices})
	if !errors.Is(err, domain.ErrQueueUnavailable) {
		t.Fatalf("expected ErrQueueUnavailable, got %v", err)
	}
	if got := repo.state(22); got != domain.StateCharterAccepted {
		t.Fatalf("expected rollback to charter_accepted, got %s", got)
	}
}

func TestSubmitChoices_StoreFailure(t *testing.T) {
	repo := newStubUserRepo()
	repo.getErr = errors.New("connection refused")
	svc := newOnboardingSvc(repo, &stubMessenger{}, &stubQueue{})

	_, err := svc.SubmitChoices(context.Background(), ports.SubmitChoicesInput{Identity: 23, Choices: sampleChoices})
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestSubmitChoices_UnknownUserCreatedButNotScheduled(t *testing.T) {
	repo := newStubUserRepo()
	q := &stubQueue{}
	svc := newOnboardingSvc(repo, &stubMessenger{}, q)

	res, err := svc.SubmitChoices(context.Background(), ports.SubmitChoicesInput{Identity: 24, DisplayName: "Zoé", Choices: sampleChoices})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Scheduled || repo.state(24) != domain.StateNew {
		t.Fatalf("new user must not be scheduled: %+v", res)
	}
	if repo.records[24].DisplayName != "Zoé" {
		t.Fatalf("display name not recorded: %+v", repo.records[24])
	}
}

func TestReportStep(t *testing.T) {
	repo := newStubUserRepo()
	repo.seed(30, domain.StateCharterOffered)
	svc := newOnboardingSvc(repo, &stubMessenger{}, &stubQueue{})
	ctx := context.Background()

	rec, err := svc.ReportStep(ctx, ports.ReportStepInput{Identity: 30, Step: "charter_accepted"})
	if err != nil || rec.OnboardingState != domain.StateCharterAccepted {
		t.Fatalf("expected forward move, got %+v, %v", rec, err)
	}

	rec, err = svc.ReportStep(ctx, ports.ReportStepInput{Identity: 30, Step: "charter_offered"})
	if err != nil || rec.OnboardingState != domain.StateCharterAccepted {
		t.Fatalf("backward report must be ignored, got %+v, %v", rec, err)
	}

	if _, err := svc.ReportStep(ctx, ports.ReportStepInput{Identity: 30, Step: "builder_done"}); !errors.Is(err, domain.ErrInvalidStep) {
		t.Fatalf("expected ErrInvalidStep, got %v", err)
	}
	if _, err := svc.ReportStep(ctx, ports.ReportStepInput{Identity: 30, Step: "completed"}); !errors.Is(err, domain.ErrStepNotAllowed) {
		t.Fatalf("expected ErrStepNotAllowed, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Completion
// ---------------------------------------------------------------------------

func TestCompleteGeneration_DeliveredOnce(t *testing.T) {
	repo := newStubUserRepo()
	repo.seed(40, domain.StateBuilderInProgress)
	msg := &stubMessenger{}
	svc := newOnboardingSvc(repo, msg, &stubQueue{})
	task := domain.GenerationTask{ID: "t1", Identity: 40, ChatID: 40}

	for i := 0; i < 2; i++ {
		if err := svc.CompleteGeneration(context.Background(), task, "desc"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if len(msg.sent) != 1 {
		t.Fatalf("expected a single delivery, got %d", len(msg.sent))
	}
	if repo.state(40) != domain.StateCompleted {
		t.Fatalf("expected completed, got %s", repo.state(40))
	}
}

func TestCompleteGeneration_UnknownUserDropped(t *testing.T) {
	msg := &stubMessenger{}
	svc := newOnboardingSvc(newStubUserRepo(), msg, &stubQueue{})

	if err := svc.CompleteGeneration(context.Background(), domain.GenerationTask{Identity: 41}, "desc"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msg.sent) != 0 {
		t.Fatal("nothing should be delivered to an unknown user")
	}
}

func TestCompleteGeneration_StoreFailureStillDelivers(t *testing.T) {
	repo := newStubUserRepo()
	repo.seed(42, domain.StateBuilderInProgress)
	repo.updErr = errors.New("write conflict")
	msg := &stubMessenger{}
	svc := newOnboardingSvc(repo, msg, &stubQueue{})

	err := svc.CompleteGeneration(context.Background(), domain.GenerationTask{Identity: 42, ChatID: 42}, "desc")
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if len(msg.sent) != 1 {
		t.Fatal("generated text should still be delivered")
	}
}
