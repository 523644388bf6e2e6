package notifications

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gatherly/backend/internal/docstore"
)

type Service struct {
	store docstore.Store
}

func NewService(store docstore.Store) *Service {
	return &Service{store: store}
}

func notificationsCol(uid string) string {
	return "users/" + uid + "/notifications"
}

// List returns the user's notifications, newest first, plus the unread count.
func (s *Service) List(ctx context.Context, uid string, unreadOnly bool, limit int) (*ListResult, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, fmt.Errorf("%w: uid is required", ErrBadRequest)
	}

	var filters []docstore.Filter
	if unreadOnly {
		filters = append(filters, docstore.Filter{Field: "read", Op: "==", Value: false})
	}

	snaps, err := s.store.Query(ctx, notificationsCol(uid), filters...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	list := make([]Notification, 0, len(snaps))
	unread := 0
	for _, snap := range snaps {
		n := decode(snap)
		if !n.Read {
			unread++
		}
		list = append(list, n)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })

	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if len(list) > limit {
		list = list[:limit]
	}

	return &ListResult{Notifications: list, UnreadCount: unread}, nil
}

// MarkRead marks one notification or every unread one. Returns how many were
// marked. Bulk marking commits in chunks to stay under the backend's batch
// size limit.
func (s *Service) MarkRead(ctx context.Context, uid string, in MarkReadInput) (int, error) {
	uid = strings.TrimSpace(uid)
	in.Trim()

	if uid == "" {
		return 0, fmt.Errorf("%w: uid is required", ErrBadRequest)
	}

	now := time.Now().UTC()
	col := notificationsCol(uid)

	if in.MarkAll {
		snaps, err := s.store.Query(ctx, col,
			docstore.Filter{Field: "read", Op: "==", Value: false})
		if err != nil {
			return 0, fmt.Errorf("failed to list unread notifications: %w", err)
		}

		batch := s.store.Batch()
		count := 0
		pending := 0
		for _, snap := range snaps {
			batch.Update(col, snap.ID,
				docstore.Update{Field: "read", Value: true},
				docstore.Update{Field: "readAt", Value: now})
			count++
			pending++
			if pending == 450 {
				if err := batch.Commit(ctx); err != nil {
					return 0, fmt.Errorf("failed to mark notifications as read: %w", err)
				}
				batch = s.store.Batch()
				pending = 0
			}
		}
		// The backend rejects committing a batch with no writes, so the
		// trailing commit only runs when writes are queued.
		if pending > 0 {
			if err := batch.Commit(ctx); err != nil {
				return 0, fmt.Errorf("failed to mark notifications as read: %w", err)
			}
		}
		return count, nil
	}

	if in.NotificationID != "" {
		err := s.store.Update(ctx, col, in.NotificationID,
			docstore.Update{Field: "read", Value: true},
			docstore.Update{Field: "readAt", Value: now})
		if err != nil {
			return 0, fmt.Errorf("failed to mark notification as read: %w", err)
		}
		return 1, nil
	}

	return 0, fmt.Errorf("%w: notificationId or markAll is required", ErrBadRequest)
}

// Delete removes a single notification record.
func (s *Service) Delete(ctx context.Context, uid, notificationID string) error {
	uid = strings.TrimSpace(uid)
	notificationID = strings.TrimSpace(notificationID)

	if uid == "" || notificationID == "" {
		return fmt.Errorf("%w: uid and notificationId are required", ErrBadRequest)
	}

	if err := s.store.Delete(ctx, notificationsCol(uid), notificationID); err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	return nil
}
