package submission_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"gatherly/backend/internal/docstore"
	"gatherly/backend/internal/domain/submission"
	"gatherly/backend/internal/domain/user"
	"gatherly/backend/internal/notify"

	"go.uber.org/zap"
)

// fakeScheduler records schedule/cancel calls instead of arming timers.
type fakeScheduler struct {
	mu        sync.Mutex
	scheduled []string
	cancelled []string
}

func (f *fakeScheduler) ScheduleVoteReminder(id, title string) {
	f.mu.Lock()
	f.scheduled = append(f.scheduled, id)
	f.mu.Unlock()
}

func (f *fakeScheduler) CancelVoteReminder(id string) {
	f.mu.Lock()
	f.cancelled = append(f.cancelled, id)
	f.mu.Unlock()
}

func (f *fakeScheduler) lastScheduled() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.scheduled) == 0 {
		return ""
	}
	return f.scheduled[len(f.scheduled)-1]
}

func (f *fakeScheduler) lastCancelled() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.cancelled) == 0 {
		return ""
	}
	return f.cancelled[len(f.cancelled)-1]
}

func newTestRepo(t *testing.T) (*submission.Repo, *docstore.Memory, *fakeScheduler) {
	t.Helper()
	m := docstore.NewMemory()
	ctx := context.Background()

	_ = m.Set(ctx, "users", "u1", docstore.Doc{
		"uid": "u1", "displayName": "Ann", "allowVoteReminders": true,
	}, false)
	_ = m.Set(ctx, "users", "u2", docstore.Doc{
		"uid": "u2", "displayName": "Ben", "allowVoteReminders": false,
	}, false)
	_ = m.Set(ctx, "proposals", "p1", docstore.Doc{
		"title":            "Saturday hike",
		"participantIds":   []string{"u1", "u2"},
		"participantNames": []string{"Ann", "Ben"},
	}, false)

	sched := &fakeScheduler{}
	repo := submission.NewRepo(m, user.NewRepo(m), sched, zap.NewNop())
	return repo, m, sched
}

func validSubmit(uid, name string) submission.SubmitInput {
	return submission.SubmitInput{
		ProposalID:       "p1",
		UserID:           uid,
		UserName:         name,
		From:             time.Date(2026, 9, 5, 10, 0, 0, 0, time.UTC),
		To:               time.Date(2026, 9, 5, 16, 0, 0, 0, time.UTC),
		Comment:          "works for me",
		SelectedLocation: "North trailhead",
	}
}

func TestSubmitValidation(t *testing.T) {
	repo, _, _ := newTestRepo(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*submission.SubmitInput)
	}{
		{"missing proposal", func(in *submission.SubmitInput) { in.ProposalID = " " }},
		{"missing user", func(in *submission.SubmitInput) { in.UserID = "" }},
		{"missing location", func(in *submission.SubmitInput) { in.SelectedLocation = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validSubmit("u1", "Ann")
			tc.mutate(&in)
			if _, err := repo.Submit(ctx, in); !submission.IsErrBadRequest(err) {
				t.Errorf("expected bad request, got %v", err)
			}
		})
	}
}

func TestSubmitCancelsReminder(t *testing.T) {
	repo, _, sched := newTestRepo(t)
	ctx := context.Background()

	s, err := repo.Submit(ctx, validSubmit("u1", "Ann"))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if s.ID == "" {
		t.Fatal("expected an assigned id")
	}

	if got, want := sched.lastCancelled(), notify.ReminderKey("u1", "p1"); got != want {
		t.Errorf("cancelled reminder = %q, want %q", got, want)
	}

	answered, err := repo.HasSubmitted(ctx, "p1", "u1")
	if err != nil {
		t.Fatalf("HasSubmitted failed: %v", err)
	}
	if !answered {
		t.Error("HasSubmitted = false after submit")
	}
}

func TestRapidDoubleSubmitBothLand(t *testing.T) {
	repo, m, _ := newTestRepo(t)
	ctx := context.Background()

	// No server-side uniqueness: two submits from the same user both persist.
	if _, err := repo.Submit(ctx, validSubmit("u1", "Ann")); err != nil {
		t.Fatalf("first Submit failed: %v", err)
	}
	if _, err := repo.Submit(ctx, validSubmit("u1", "Ann")); err != nil {
		t.Fatalf("second Submit failed: %v", err)
	}

	snaps, err := m.Query(ctx, "submissions",
		docstore.Filter{Field: "proposalId", Op: "==", Value: "p1"})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(snaps) != 2 {
		t.Errorf("expected both duplicate submissions to land, got %d", len(snaps))
	}
}

func TestListPartitionsByViewer(t *testing.T) {
	repo, _, _ := newTestRepo(t)
	ctx := context.Background()

	mine, err := repo.Submit(ctx, validSubmit("u1", "Ann"))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if _, err := repo.Submit(ctx, validSubmit("u2", "Ben")); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	set, err := repo.List(ctx, "p1", "u1")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if set.Mine == nil || set.Mine.ID != mine.ID {
		t.Fatalf("Mine = %+v, want submission %s", set.Mine, mine.ID)
	}
	if len(set.Others) != 1 || set.Others[0].UserID != "u2" {
		t.Errorf("Others = %+v, want only u2", set.Others)
	}

	// A viewer with no submission of their own sees everything under Others.
	set, err = repo.List(ctx, "p1", "u3")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if set.Mine != nil || len(set.Others) != 2 {
		t.Errorf("outsider view = %+v, want nil Mine and 2 Others", set)
	}
}

func TestDecodeDefaultsMissingFields(t *testing.T) {
	repo, m, _ := newTestRepo(t)
	ctx := context.Background()

	// A record written without selectedLocation or times still shows up,
	// zero-valued, never dropped.
	_ = m.Set(ctx, "submissions", "legacy", docstore.Doc{
		"proposalId": "p1",
		"userId":     "u2",
	}, false)

	set, err := repo.List(ctx, "p1", "u1")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(set.Others) != 1 {
		t.Fatalf("expected the legacy record to survive, got %+v", set)
	}
	got := set.Others[0]
	if got.SelectedLocation != "" || !got.From.IsZero() || got.Comment != "" {
		t.Errorf("expected zero-valued defaults, got %+v", got)
	}
}

func TestDeleteOwnerOnly(t *testing.T) {
	repo, _, _ := newTestRepo(t)
	ctx := context.Background()

	s, err := repo.Submit(ctx, validSubmit("u1", "Ann"))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if err := repo.Delete(ctx, s.ID, "u2"); !submission.IsErrForbidden(err) {
		t.Errorf("expected forbidden for non-owner, got %v", err)
	}
	if err := repo.Delete(ctx, s.ID, "u1"); err != nil {
		t.Fatalf("owner delete failed: %v", err)
	}
	if err := repo.Delete(ctx, s.ID, "u1"); !submission.IsErrNotFound(err) {
		t.Errorf("expected not found after delete, got %v", err)
	}

	answered, _ := repo.HasSubmitted(ctx, "p1", "u1")
	if answered {
		t.Error("HasSubmitted = true after delete")
	}
}

func TestDeleteReArmsReminderWhenOptedIn(t *testing.T) {
	repo, _, sched := newTestRepo(t)
	ctx := context.Background()

	s, err := repo.Submit(ctx, validSubmit("u1", "Ann"))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if err := repo.Delete(ctx, s.ID, "u1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if got, want := sched.lastScheduled(), notify.ReminderKey("u1", "p1"); got != want {
		t.Errorf("re-armed reminder = %q, want %q", got, want)
	}
}

func TestDeleteSkipsReminderWhenOptedOut(t *testing.T) {
	repo, _, sched := newTestRepo(t)
	ctx := context.Background()

	// u2 has allowVoteReminders: false.
	s, err := repo.Submit(ctx, validSubmit("u2", "Ben"))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if err := repo.Delete(ctx, s.ID, "u2"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if got := sched.lastScheduled(); got != "" {
		t.Errorf("opted-out user got a reminder scheduled: %q", got)
	}
}
