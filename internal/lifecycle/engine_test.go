package lifecycle

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"mailtasks-cli/internal/api"
	"mailtasks-cli/internal/dashboard"
	"mailtasks-cli/internal/i18n"
	"mailtasks-cli/internal/model"
	"mailtasks-cli/internal/synccache"
	"mailtasks-cli/internal/transport"
)

// fakeBackend keeps tasks the way the task service does: monotonic status,
// one completion email per task, no client-chosen ids.
type fakeBackend struct {
	mu     sync.Mutex
	tasks  []model.Task
	nextID int
	calls  []string
	emails []string
	failOn map[string]error
}

func (b *fakeBackend) record(call string) error {
	b.calls = append(b.calls, call)
	return b.failOn[call]
}

func (b *fakeBackend) find(id model.TaskID) *model.Task {
	for i := range b.tasks {
		if b.tasks[i].ID == id {
			return &b.tasks[i]
		}
	}
	return nil
}

func (b *fakeBackend) ListTasks(context.Context, api.ListOptions) (model.TaskList, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return model.TaskList{Tasks: append([]model.Task(nil), b.tasks...)}, nil
}

func (b *fakeBackend) MarkViewed(_ context.Context, id model.TaskID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.record("viewed"); err != nil {
		return err
	}
	t := b.find(id)
	if t == nil {
		return &transport.Error{Kind: transport.KindNotFound, Status: 404}
	}
	if t.Status == model.StatusPending {
		t.Status = model.StatusViewed
	}
	return nil
}

func (b *fakeBackend) Complete(_ context.Context, id model.TaskID, msg *string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.record("complete"); err != nil {
		return err
	}
	t := b.find(id)
	if t == nil {
		return &transport.Error{Kind: transport.KindNotFound, Status: 404}
	}
	if t.Status != model.StatusCompleted {
		t.Status = model.StatusCompleted
		b.emails = append(b.emails, "complete:"+string(id))
		if msg != nil {
			t.CompletionMessage = *msg
		}
	}
	return nil
}

func (b *fakeBackend) SendReply(_ context.Context, id model.TaskID, msg string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.record("reply"); err != nil {
		return err
	}
	b.emails = append(b.emails, "reply:"+string(id)+":"+msg)
	return nil
}

func (b *fakeBackend) CreateTask(_ context.Context, req model.CreateTaskRequest) (model.CreateTaskResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.record("create"); err != nil {
		return model.CreateTaskResult{}, err
	}
	b.nextID++
	id := model.TaskID(strconv.Itoa(100 + b.nextID))
	b.tasks = append(b.tasks, model.Task{ID: id, Summary: req.Title, Category: req.Category, Urgency: req.Urgency, Status: model.StatusPending})
	return model.CreateTaskResult{TaskID: id}, nil
}

func (b *fakeBackend) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.calls)
}

type noticeLog struct {
	mu      sync.Mutex
	notices []Notice
}

func (n *noticeLog) Notify(x Notice) {
	n.mu.Lock()
	n.notices = append(n.notices, x)
	n.mu.Unlock()
}

func (n *noticeLog) last() Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.notices) == 0 {
		return Notice{}
	}
	return n.notices[len(n.notices)-1]
}

type activityLog struct {
	mu   sync.Mutex
	acts []model.Activity
}

func (a *activityLog) Record(_ context.Context, act model.Activity) error {
	a.mu.Lock()
	a.acts = append(a.acts, act)
	a.mu.Unlock()
	return nil
}

func newEngine(t *testing.T, tasks ...model.Task) (*Engine, *fakeBackend, *synccache.Cache, *noticeLog, *activityLog) {
	t.Helper()
	b := &fakeBackend{tasks: tasks, failOn: map[string]error{}}
	cache := synccache.New(b, synccache.Config{})
	if err := cache.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	notes := &noticeLog{}
	acts := &activityLog{}
	e := &Engine{API: b, Cache: cache, Notifier: notes, Recorder: acts, I18n: i18n.New("en")}
	return e, b, cache, notes, acts
}

func synced(t *testing.T, out Outcome) {
	t.Helper()
	select {
	case err := <-out.Synced:
		if err != nil {
			t.Fatalf("refresh after mutation: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for refresh")
	}
}

func TestMarkViewed_IsIdempotent(t *testing.T) {
	e, b, cache, _, _ := newEngine(t, model.Task{ID: "1", Status: model.StatusPending, Urgency: model.UrgencyRoutine})

	for i := 0; i < 2; i++ {
		out, err := e.MarkViewed(context.Background(), "1")
		if err != nil {
			t.Fatalf("MarkViewed #%d: %v", i+1, err)
		}
		synced(t, out)
		if got, _ := cache.Snapshot().Find("1"); got.Status != model.StatusViewed {
			t.Fatalf("expected VIEWED after call %d, got %s", i+1, got.Status)
		}
	}
	if b.callCount() != 2 {
		t.Fatalf("expected both calls sent, got %d", b.callCount())
	}
}

func TestCreate_AppearsAfterRefresh(t *testing.T) {
	e, _, cache, notes, _ := newEngine(t)

	out, err := e.Create(context.Background(), model.CreateTaskRequest{Title: "Revisar contrato", Recipient: "a@b.com", Category: "RH", Urgency: model.UrgencyMedium})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	synced(t, out)
	s := cache.Snapshot()
	if len(s.Tasks) != 1 {
		t.Fatalf("expected one task, got %d", len(s.Tasks))
	}
	got := s.Tasks[0]
	if got.Category != "RH" || got.Urgency != model.UrgencyMedium || got.Status != model.StatusPending || got.ID != out.Result.TaskID {
		t.Fatalf("unexpected task: %+v", got)
	}
	if notes.last().Level != LevelInfo {
		t.Fatalf("expected success notice")
	}
}

func TestCreate_InvalidInputRecordedAsRejected(t *testing.T) {
	e, b, _, notes, acts := newEngine(t)
	b.failOn["create"] = &api.FieldError{Field: "recipient", Rule: "email"}

	_, err := e.Create(context.Background(), model.CreateTaskRequest{Title: "Revisar", Recipient: "nope"})
	if !errors.Is(err, api.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if len(acts.acts) != 1 || acts.acts[0].Outcome != model.OutcomeRejected {
		t.Fatalf("expected one rejected activity, got %+v", acts.acts)
	}
	if n := notes.last(); n.Level != LevelError || n.Action != ActionCreate {
		t.Fatalf("expected create failure notice, got %+v", n)
	}
}

func TestComplete_UrgentLeavesUrgentBucket(t *testing.T) {
	e, b, cache, _, _ := newEngine(t, model.Task{ID: "1", Status: model.StatusPending, Urgency: model.UrgencyUrgent})
	if got := dashboard.Partition(cache.Snapshot().Tasks).Urgent; len(got) != 1 {
		t.Fatalf("expected task in urgent bucket first")
	}

	out, err := e.Complete(context.Background(), "1", "Feito")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	synced(t, out)
	got, _ := cache.Snapshot().Find("1")
	if got.Status != model.StatusCompleted || got.CompletionMessage != "Feito" {
		t.Fatalf("unexpected task: %+v", got)
	}
	if n := len(dashboard.Partition(cache.Snapshot().Tasks).Urgent); n != 0 {
		t.Fatalf("expected urgent bucket empty, got %d", n)
	}
	if len(b.emails) != 1 {
		t.Fatalf("expected one completion email, got %v", b.emails)
	}
}

func TestComplete_BlankMessageSentAsAbsent(t *testing.T) {
	e, _, cache, _, _ := newEngine(t, model.Task{ID: "1", Status: model.StatusViewed})
	out, err := e.Complete(context.Background(), "1", "   ")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	synced(t, out)
	if got, _ := cache.Snapshot().Find("1"); got.CompletionMessage != "" {
		t.Fatalf("expected no completion message, got %q", got.CompletionMessage)
	}
}

func TestPrecheck_RejectsWithoutNetwork(t *testing.T) {
	e, b, _, notes, acts := newEngine(t, model.Task{ID: "1", Status: model.StatusPending})

	if _, err := e.Complete(context.Background(), "404", ""); !errors.Is(err, ErrNotInSnapshot) {
		t.Fatalf("expected ErrNotInSnapshot, got %v", err)
	}
	if _, err := e.SendReply(context.Background(), "1", " \n\t"); !errors.Is(err, ErrMessageRequired) {
		t.Fatalf("expected ErrMessageRequired, got %v", err)
	}
	if _, err := e.ReplyAndComplete(context.Background(), "1", ""); !errors.Is(err, ErrMessageRequired) {
		t.Fatalf("expected ErrMessageRequired, got %v", err)
	}
	if b.callCount() != 0 {
		t.Fatalf("expected no backend calls, got %v", b.calls)
	}
	if notes.last().Level != LevelError || notes.last().Text != "A message is required." {
		t.Fatalf("unexpected notice: %+v", notes.last())
	}
	if len(acts.acts) != 3 || acts.acts[0].Outcome != model.OutcomeRejected {
		t.Fatalf("expected rejected attempts recorded, got %+v", acts.acts)
	}
}

func TestFailure_LeavesCacheUntouchedAndNotifies(t *testing.T) {
	e, b, cache, notes, acts := newEngine(t, model.Task{ID: "1", Status: model.StatusPending})
	b.failOn["complete"] = &transport.Error{Kind: transport.KindConflict, Status: 409, Message: "Tarefa já concluída"}
	before := cache.Snapshot().Version

	out, err := e.Complete(context.Background(), "1", "")
	if !errors.Is(err, transport.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if out.Synced != nil {
		t.Fatalf("expected no invalidation on failure")
	}
	if cache.Snapshot().Version != before {
		t.Fatalf("cache changed after failure")
	}
	if got := notes.last().Text; got != "Could not complete the task: Tarefa já concluída" {
		t.Fatalf("unexpected notice %q", got)
	}
	if acts.acts[len(acts.acts)-1].Outcome != model.OutcomeFailed {
		t.Fatalf("expected failed attempt recorded")
	}
}

func TestUnauthenticated_TriggersReauthInsteadOfNotice(t *testing.T) {
	e, b, _, notes, _ := newEngine(t, model.Task{ID: "1", Status: model.StatusPending})
	b.failOn["viewed"] = &transport.Error{Kind: transport.KindUnauthenticated, Status: 401}
	var reauth int
	e.OnUnauthenticated = func(error) { reauth++ }

	if _, err := e.MarkViewed(context.Background(), "1"); !errors.Is(err, transport.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
	if reauth != 1 || len(notes.notices) != 0 {
		t.Fatalf("expected re-auth only, got reauth=%d notices=%d", reauth, len(notes.notices))
	}
}

func TestReplyAndComplete(t *testing.T) {
	e, b, cache, _, _ := newEngine(t, model.Task{ID: "1", Status: model.StatusPending, FromEmail: "x@y.com"})

	out, err := e.ReplyAndComplete(context.Background(), "1", "Resolvido")
	if err != nil {
		t.Fatalf("ReplyAndComplete: %v", err)
	}
	synced(t, out)
	if got := b.calls; len(got) != 2 || got[0] != "reply" || got[1] != "complete" {
		t.Fatalf("expected reply then complete, got %v", got)
	}
	if got, _ := cache.Snapshot().Find("1"); got.Status != model.StatusCompleted {
		t.Fatalf("expected completed, got %s", got.Status)
	}
}

func TestReplyAndComplete_StopsWhenReplyFails(t *testing.T) {
	e, b, _, _, _ := newEngine(t, model.Task{ID: "1", Status: model.StatusPending})
	b.failOn["reply"] = &transport.Error{Kind: transport.KindTransport}

	if _, err := e.ReplyAndComplete(context.Background(), "1", "x"); !errors.Is(err, transport.ErrTransport) {
		t.Fatalf("expected transport failure, got %v", err)
	}
	if len(b.calls) != 1 {
		t.Fatalf("expected complete not attempted, got %v", b.calls)
	}
}

func TestReplyAndComplete_PartialFailure(t *testing.T) {
	e, b, _, notes, _ := newEngine(t, model.Task{ID: "1", Status: model.StatusPending})
	b.failOn["complete"] = &transport.Error{Kind: transport.KindTransport}

	out, err := e.ReplyAndComplete(context.Background(), "1", "x")
	var pe *PartialError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PartialError, got %v", err)
	}
	if out.Synced == nil {
		t.Fatalf("expected the reply's refresh to be returned")
	}
	synced(t, out)
	if got := notes.last().Text; got != "Reply sent, but the task could not be completed: the server could not be reached, try again" {
		t.Fatalf("unexpected notice %q", got)
	}
}

func TestSendReply_DoesNotAssumeStatus(t *testing.T) {
	e, _, cache, notes, _ := newEngine(t, model.Task{ID: "1", Status: model.StatusPending, FromEmail: "x@y.com"})
	out, err := e.SendReply(context.Background(), "1", "Olá")
	if err != nil {
		t.Fatalf("SendReply: %v", err)
	}
	synced(t, out)
	if got, _ := cache.Snapshot().Find("1"); got.Status != model.StatusPending {
		t.Fatalf("expected status as served, got %s", got.Status)
	}
	if notes.last().Text != "Reply sent to x@y.com." {
		t.Fatalf("unexpected notice %q", notes.last().Text)
	}
}
