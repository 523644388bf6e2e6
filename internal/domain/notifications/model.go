package notifications

import (
	"strings"
	"time"

	"gatherly/backend/internal/docstore"
)

// Notification is one record in a user's notifications subcollection. The
// proposal batch writes these for every participant except the creator; the
// reminder scheduler writes "reminder" typed ones when a reminder fires.
type Notification struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Body       string     `json:"body"`
	Type       string     `json:"type"`
	ProposalID string     `json:"proposalId,omitempty"`
	GroupID    string     `json:"groupId,omitempty"`
	Read       bool       `json:"read"`
	ReadAt     *time.Time `json:"readAt,omitempty"`
	SenderUID  string     `json:"senderUid,omitempty"`
	SenderName string     `json:"senderName,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

func decode(snap docstore.Snapshot) Notification {
	n := Notification{
		ID:         snap.ID,
		Title:      snap.Data.String("title"),
		Body:       snap.Data.String("body"),
		Type:       snap.Data.String("type"),
		ProposalID: snap.Data.String("proposalId"),
		GroupID:    snap.Data.String("groupId"),
		Read:       snap.Data.Bool("read"),
		SenderUID:  snap.Data.String("senderUid"),
		SenderName: snap.Data.String("senderName"),
		CreatedAt:  snap.Data.Time("createdAt"),
	}
	if t := snap.Data.Time("readAt"); !t.IsZero() {
		n.ReadAt = &t
	}
	return n
}

// MarkReadInput marks one notification or all unread ones.
type MarkReadInput struct {
	NotificationID string `json:"notificationId,omitempty"`
	MarkAll        bool   `json:"markAll,omitempty"`
}

func (in *MarkReadInput) Trim() {
	in.NotificationID = strings.TrimSpace(in.NotificationID)
}

// ListResult is the list plus the unread count.
type ListResult struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unreadCount"`
}
