package notifications_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"gatherly/backend/internal/docstore"
	"gatherly/backend/internal/domain/notifications"
)

func seedRecords(t *testing.T, m *docstore.Memory, uid string, n int, read bool) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		id := uid + "-n" + string(rune('a'+i))
		err := m.Set(ctx, "users/"+uid+"/notifications", id, docstore.Doc{
			"title":     "New activity proposal",
			"body":      "Saturday hike",
			"type":      "proposal",
			"read":      read,
			"createdAt": base.Add(time.Duration(i) * time.Minute),
		}, false)
		if err != nil {
			t.Fatalf("seeding: %v", err)
		}
	}
}

func TestListNewestFirstWithUnreadCount(t *testing.T) {
	m := docstore.NewMemory()
	svc := notifications.NewService(m)
	ctx := context.Background()

	seedRecords(t, m, "u1", 3, false)
	seedRecords(t, m, "u2", 1, false) // someone else's, must not leak

	out, err := svc.List(ctx, "u1", false, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(out.Notifications) != 3 {
		t.Fatalf("got %d notifications, want 3", len(out.Notifications))
	}
	if out.UnreadCount != 3 {
		t.Errorf("UnreadCount = %d, want 3", out.UnreadCount)
	}
	for i := 1; i < len(out.Notifications); i++ {
		if out.Notifications[i].CreatedAt.After(out.Notifications[i-1].CreatedAt) {
			t.Errorf("not newest-first at index %d", i)
		}
	}
}

func TestListLimit(t *testing.T) {
	m := docstore.NewMemory()
	svc := notifications.NewService(m)

	seedRecords(t, m, "u1", 5, false)

	out, err := svc.List(context.Background(), "u1", false, 2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(out.Notifications) != 2 {
		t.Errorf("limit not applied, got %d", len(out.Notifications))
	}
	// The unread count covers the whole set, not the truncated page.
	if out.UnreadCount != 5 {
		t.Errorf("UnreadCount = %d, want 5", out.UnreadCount)
	}
}

func TestListValidation(t *testing.T) {
	svc := notifications.NewService(docstore.NewMemory())
	if _, err := svc.List(context.Background(), "  ", false, 0); !errors.Is(err, notifications.ErrBadRequest) {
		t.Errorf("expected bad request, got %v", err)
	}
}

func TestMarkReadSingle(t *testing.T) {
	m := docstore.NewMemory()
	svc := notifications.NewService(m)
	ctx := context.Background()

	seedRecords(t, m, "u1", 2, false)

	count, err := svc.MarkRead(ctx, "u1", notifications.MarkReadInput{NotificationID: "u1-na"})
	if err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	if count != 1 {
		t.Errorf("marked %d, want 1", count)
	}

	out, _ := svc.List(ctx, "u1", false, 0)
	if out.UnreadCount != 1 {
		t.Errorf("UnreadCount = %d after single mark, want 1", out.UnreadCount)
	}
}

func TestMarkReadAll(t *testing.T) {
	m := docstore.NewMemory()
	svc := notifications.NewService(m)
	ctx := context.Background()

	seedRecords(t, m, "u1", 4, false)

	count, err := svc.MarkRead(ctx, "u1", notifications.MarkReadInput{MarkAll: true})
	if err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	if count != 4 {
		t.Errorf("marked %d, want 4", count)
	}

	out, _ := svc.List(ctx, "u1", false, 0)
	if out.UnreadCount != 0 {
		t.Errorf("UnreadCount = %d after mark all, want 0", out.UnreadCount)
	}

	// Nothing unread left: mark all again is a zero-count no-op.
	count, err = svc.MarkRead(ctx, "u1", notifications.MarkReadInput{MarkAll: true})
	if err != nil || count != 0 {
		t.Errorf("second mark all = (%d, %v), want (0, nil)", count, err)
	}
}

// commitCountingStore counts batch commits so chunking behavior is observable.
type commitCountingStore struct {
	docstore.Store
	commits atomic.Int64
}

func (s *commitCountingStore) Batch() docstore.Batch {
	return &commitCountingBatch{Batch: s.Store.Batch(), commits: &s.commits}
}

type commitCountingBatch struct {
	docstore.Batch
	commits *atomic.Int64
}

func (b *commitCountingBatch) Commit(ctx context.Context) error {
	b.commits.Add(1)
	return b.Batch.Commit(ctx)
}

func TestMarkReadAllExactChunkBoundary(t *testing.T) {
	m := docstore.NewMemory()
	store := &commitCountingStore{Store: m}
	svc := notifications.NewService(store)
	ctx := context.Background()

	// Exactly one full chunk: no trailing commit on an empty batch, which
	// the backend would reject.
	for i := 0; i < 450; i++ {
		err := m.Set(ctx, "users/u1/notifications", fmt.Sprintf("n%03d", i), docstore.Doc{
			"title": "New activity proposal", "type": "proposal", "read": false,
			"createdAt": time.Now().UTC(),
		}, false)
		if err != nil {
			t.Fatalf("seeding: %v", err)
		}
	}

	count, err := svc.MarkRead(ctx, "u1", notifications.MarkReadInput{MarkAll: true})
	if err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	if count != 450 {
		t.Errorf("marked %d, want 450", count)
	}
	if got := store.commits.Load(); got != 1 {
		t.Errorf("committed %d batches for one full chunk, want 1", got)
	}

	out, _ := svc.List(ctx, "u1", false, 0)
	if out.UnreadCount != 0 {
		t.Errorf("UnreadCount = %d after mark all, want 0", out.UnreadCount)
	}
}

func TestMarkReadValidation(t *testing.T) {
	svc := notifications.NewService(docstore.NewMemory())
	if _, err := svc.MarkRead(context.Background(), "u1", notifications.MarkReadInput{}); !errors.Is(err, notifications.ErrBadRequest) {
		t.Errorf("expected bad request for empty input, got %v", err)
	}
}

func TestUnreadOnlyFilter(t *testing.T) {
	m := docstore.NewMemory()
	svc := notifications.NewService(m)
	ctx := context.Background()

	seedRecords(t, m, "u1", 2, true)
	_ = m.Set(ctx, "users/u1/notifications", "fresh", docstore.Doc{
		"title": "Vote reminder", "type": "reminder", "read": false,
		"createdAt": time.Now().UTC(),
	}, false)

	out, err := svc.List(ctx, "u1", true, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(out.Notifications) != 1 || out.Notifications[0].ID != "fresh" {
		t.Errorf("unread filter returned %+v", out.Notifications)
	}
}

func TestDelete(t *testing.T) {
	m := docstore.NewMemory()
	svc := notifications.NewService(m)
	ctx := context.Background()

	seedRecords(t, m, "u1", 1, false)

	if err := svc.Delete(ctx, "u1", "u1-na"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	out, _ := svc.List(ctx, "u1", false, 0)
	if len(out.Notifications) != 0 {
		t.Errorf("record survived delete: %+v", out.Notifications)
	}

	if err := svc.Delete(ctx, "", "x"); !errors.Is(err, notifications.ErrBadRequest) {
		t.Errorf("expected bad request, got %v", err)
	}
}
