package proposal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gatherly/backend/internal/docstore"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	colProposals = "proposals"
	colUsers     = "users"
	colGroups    = "groups"
)

func notificationsCol(uid string) string {
	return "users/" + uid + "/notifications"
}

type Repo struct {
	store docstore.Store
	log   *zap.Logger
}

func NewRepo(store docstore.Store, log *zap.Logger) *Repo {
	return &Repo{store: store, log: log}
}

type CreateInput struct {
	Title            string     `json:"title"`
	GroupID          string     `json:"groupId"`
	GroupName        string     `json:"groupName"`
	Locations        []Location `json:"locations"`
	ParticipantIDs   []string   `json:"participantIds"`
	ParticipantNames []string   `json:"participantNames"`
}

func (in *CreateInput) Trim() {
	in.Title = strings.TrimSpace(in.Title)
	in.GroupID = strings.TrimSpace(in.GroupID)
	in.GroupName = strings.TrimSpace(in.GroupName)
}

// Create writes the proposal document and then, in one atomic batch, links it
// to the owning group and every participant and drops a notification record
// for each participant except the creator.
//
// The document write and the batch are two separate network operations. If
// the batch fails, the proposal document already exists but is linked to
// nobody; that state is surfaced as the returned error and not rolled back.
func (r *Repo) Create(ctx context.Context, creatorUID string, in CreateInput) (*Proposal, error) {
	in.Trim()

	if in.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrBadRequest)
	}
	if in.GroupID == "" {
		return nil, fmt.Errorf("%w: groupId is required", ErrBadRequest)
	}
	if len(in.Locations) == 0 {
		return nil, fmt.Errorf("%w: at least one location is required", ErrBadRequest)
	}
	if len(in.ParticipantIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one participant is required", ErrBadRequest)
	}
	if len(in.ParticipantIDs) != len(in.ParticipantNames) {
		return nil, fmt.Errorf("%w: participantIds and participantNames must match in length and order", ErrBadRequest)
	}

	now := time.Now().UTC()
	p := Proposal{
		Title:            in.Title,
		GroupID:          in.GroupID,
		GroupName:        in.GroupName,
		Locations:        in.Locations,
		ParticipantIDs:   in.ParticipantIDs,
		ParticipantNames: in.ParticipantNames,
		Status:           StatusPending,
		CreatedAt:        now,
	}

	id, err := r.store.Create(ctx, colProposals, p.doc())
	if err != nil {
		return nil, fmt.Errorf("failed to create proposal: %w", err)
	}
	p.ID = id

	batch := r.store.Batch()
	batch.Update(colGroups, in.GroupID,
		docstore.Update{Field: "proposalIds", Value: docstore.ArrayUnion(id)})

	for _, uid := range in.ParticipantIDs {
		batch.Update(colUsers, uid,
			docstore.Update{Field: "proposalIds", Value: docstore.ArrayUnion(id)})

		if uid == creatorUID {
			continue
		}
		batch.Set(notificationsCol(uid), uuid.NewString(), docstore.Doc{
			"title":      "New activity proposal",
			"body":       in.Title,
			"type":       "proposal",
			"proposalId": id,
			"groupId":    in.GroupID,
			"read":       false,
			"senderUid":  creatorUID,
			"senderName": participantName(in, creatorUID),
			"createdAt":  now,
		})
	}

	if err := batch.Commit(ctx); err != nil {
		r.log.Warn("proposal created but linking batch failed",
			zap.String("proposalId", id), zap.Error(err))
		return nil, fmt.Errorf("proposal %s created but not linked: %w", id, err)
	}

	return &p, nil
}

// Fetch reads one proposal. A missing document is ErrNotFound, distinct from
// transport errors.
func (r *Repo) Fetch(ctx context.Context, id string) (*Proposal, error) {
	snap, err := r.store.Get(ctx, colProposals, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch proposal: %w", err)
	}

	p, skip := Decode(snap)
	if skip != SkipNone {
		return nil, fmt.Errorf("%w: %s", ErrMalformed, skip)
	}
	return &p, nil
}

// ListForUser reads the user's proposal-id list and fetches each referenced
// proposal. Ids that resolve to missing or malformed documents are dropped
// silently (logged, never surfaced), so the result can be shorter than the
// id list.
func (r *Repo) ListForUser(ctx context.Context, uid string) ([]Proposal, error) {
	userSnap, err := r.store.Get(ctx, colUsers, uid)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return []Proposal{}, nil
		}
		return nil, fmt.Errorf("failed to read user document: %w", err)
	}

	ids := userSnap.Data.Strings("proposalIds")
	out := make([]Proposal, 0, len(ids))
	for _, id := range ids {
		snap, err := r.store.Get(ctx, colProposals, id)
		if err != nil {
			r.log.Debug("dropping unreadable proposal", zap.String("proposalId", id), zap.Error(err))
			continue
		}
		p, skip := Decode(snap)
		if skip != SkipNone {
			r.log.Debug("dropping malformed proposal",
				zap.String("proposalId", id), zap.String("reason", string(skip)))
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// DeleteForUser removes the proposal id from that user's personal list only.
// The proposal document and every other participant's linkage stay untouched;
// this is leave semantics, not a cascade.
func (r *Repo) DeleteForUser(ctx context.Context, proposalID, uid string) error {
	err := r.store.Update(ctx, colUsers, uid,
		docstore.Update{Field: "proposalIds", Value: docstore.ArrayRemove(proposalID)})
	if err != nil {
		return fmt.Errorf("failed to remove proposal from user list: %w", err)
	}
	return nil
}

func participantName(in CreateInput, uid string) string {
	for i, id := range in.ParticipantIDs {
		if id == uid {
			return in.ParticipantNames[i]
		}
	}
	return ""
}
