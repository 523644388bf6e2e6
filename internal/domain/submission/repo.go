package submission

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gatherly/backend/internal/docstore"
	"gatherly/backend/internal/domain/user"
	"gatherly/backend/internal/notify"

	"go.uber.org/zap"
)

const (
	colSubmissions = "submissions"
	colProposals   = "proposals"
)

type Repo struct {
	store docstore.Store
	users *user.Repo
	sched notify.Scheduler
	log   *zap.Logger
}

func NewRepo(store docstore.Store, users *user.Repo, sched notify.Scheduler, log *zap.Logger) *Repo {
	return &Repo{store: store, users: users, sched: sched, log: log}
}

type SubmitInput struct {
	ProposalID       string    `json:"proposalId"`
	UserID           string    `json:"userId"`
	UserName         string    `json:"userName"`
	From             time.Time `json:"from"`
	To               time.Time `json:"to"`
	Comment          string    `json:"comment"`
	SelectedLocation string    `json:"selectedLocation"`
}

func (in *SubmitInput) Trim() {
	in.ProposalID = strings.TrimSpace(in.ProposalID)
	in.Comment = strings.TrimSpace(in.Comment)
	in.SelectedLocation = strings.TrimSpace(in.SelectedLocation)
}

// Submit writes a new submission document unconditionally: there is no
// server-side uniqueness constraint on (userId, proposalId). The at-most-one
// invariant is only as good as the caller's check against the live stream,
// so two rapid submissions from the same user can both land. On success the
// pending vote reminder for this user/proposal is cancelled.
func (r *Repo) Submit(ctx context.Context, in SubmitInput) (*Submission, error) {
	in.Trim()

	if in.ProposalID == "" {
		return nil, fmt.Errorf("%w: proposalId is required", ErrBadRequest)
	}
	if in.UserID == "" {
		return nil, fmt.Errorf("%w: userId is required", ErrBadRequest)
	}
	if in.SelectedLocation == "" {
		return nil, fmt.Errorf("%w: selectedLocation is required", ErrBadRequest)
	}

	s := Submission{
		UserID:           in.UserID,
		UserName:         in.UserName,
		ProposalID:       in.ProposalID,
		From:             in.From,
		To:               in.To,
		Comment:          in.Comment,
		SelectedLocation: in.SelectedLocation,
		SubmittedAt:      time.Now().UTC(),
	}

	id, err := r.store.Create(ctx, colSubmissions, s.doc())
	if err != nil {
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}
	s.ID = id

	r.sched.CancelVoteReminder(notify.ReminderKey(in.UserID, in.ProposalID))

	return &s, nil
}

// HasSubmitted scans the current submission set for a matching user. The
// same check-then-act window applies as with the stream-derived variant.
func (r *Repo) HasSubmitted(ctx context.Context, proposalID, uid string) (bool, error) {
	snaps, err := r.store.Query(ctx, colSubmissions,
		docstore.Filter{Field: "proposalId", Op: "==", Value: proposalID})
	if err != nil {
		return false, fmt.Errorf("failed to query submissions: %w", err)
	}
	for _, snap := range snaps {
		if Decode(snap).UserID == uid {
			return true, nil
		}
	}
	return false, nil
}

// List does a one-shot read of the proposal's submissions, partitioned the
// same way the stream partitions its pushes.
func (r *Repo) List(ctx context.Context, proposalID, viewerUID string) (Set, error) {
	snaps, err := r.store.Query(ctx, colSubmissions,
		docstore.Filter{Field: "proposalId", Op: "==", Value: proposalID})
	if err != nil {
		return Set{}, fmt.Errorf("failed to query submissions: %w", err)
	}
	return partition(snaps, viewerUID), nil
}

// Delete removes one submission. Only its owner may delete it. On success,
// if the owner's profile allows vote reminders, the reminder for that
// proposal is re-armed.
func (r *Repo) Delete(ctx context.Context, submissionID, requesterUID string) error {
	snap, err := r.store.Get(ctx, colSubmissions, submissionID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return fmt.Errorf("%s: %w", submissionID, ErrNotFound)
		}
		return fmt.Errorf("failed to read submission: %w", err)
	}

	s := Decode(snap)
	if s.UserID != requesterUID {
		return fmt.Errorf("%w: only the owner can delete a submission", ErrForbidden)
	}

	if err := r.store.Delete(ctx, colSubmissions, submissionID); err != nil {
		return fmt.Errorf("failed to delete submission: %w", err)
	}

	if r.users.AllowsReminders(ctx, requesterUID) {
		title := r.proposalTitle(ctx, s.ProposalID)
		r.sched.ScheduleVoteReminder(notify.ReminderKey(requesterUID, s.ProposalID), title)
	}

	return nil
}

func (r *Repo) proposalTitle(ctx context.Context, proposalID string) string {
	snap, err := r.store.Get(ctx, colProposals, proposalID)
	if err != nil {
		r.log.Debug("proposal title lookup failed", zap.String("proposalId", proposalID), zap.Error(err))
		return ""
	}
	return snap.Data.String("title")
}
