package group

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gatherly/backend/internal/docstore"
	"gatherly/backend/internal/utils"
)

const colGroups = "groups"

type Repo struct {
	store docstore.Store
}

func NewRepo(store docstore.Store) *Repo {
	return &Repo{store: store}
}

type CreateInput struct {
	Name string `json:"name"`
}

func (r *Repo) Create(ctx context.Context, ownerUID string, in CreateInput) (*Group, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > 120 {
		return nil, fmt.Errorf("%w: name is required (<=120 chars)", ErrBadRequest)
	}

	slug := utils.Slugify(name)
	if slug == "" {
		return nil, fmt.Errorf("%w: invalid name", ErrBadRequest)
	}
	nameLower := utils.NormalizeNameLower(name)

	g := Group{
		Name:        name,
		NameLower:   nameLower,
		Slug:        slug,
		Keywords:    utils.KeywordsFromName(nameLower, slug),
		OwnerUID:    ownerUID,
		MemberIDs:   []string{ownerUID},
		ProposalIDs: []string{},
		CreatedAt:   time.Now().UTC(),
	}

	id, err := r.store.Create(ctx, colGroups, g.doc())
	if err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}
	g.ID = id
	return &g, nil
}

func (r *Repo) Get(ctx context.Context, id string) (*Group, error) {
	snap, err := r.store.Get(ctx, colGroups, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch group: %w", err)
	}
	g := decode(snap)
	return &g, nil
}

// ListForMember returns the groups whose member list contains uid.
func (r *Repo) ListForMember(ctx context.Context, uid string) ([]Group, error) {
	snaps, err := r.store.Query(ctx, colGroups,
		docstore.Filter{Field: "memberIds", Op: "array-contains", Value: uid})
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	out := make([]Group, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, decode(snap))
	}
	return out, nil
}

// SearchByNamePrefix does a range scan on nameLower.
func (r *Repo) SearchByNamePrefix(ctx context.Context, q string) ([]Group, error) {
	q = utils.NormalizeNameLower(q)
	if q == "" {
		return []Group{}, nil
	}
	hi := q + "\uf8ff"
	snaps, err := r.store.Query(ctx, colGroups,
		docstore.Filter{Field: "nameLower", Op: ">=", Value: q},
		docstore.Filter{Field: "nameLower", Op: "<", Value: hi})
	if err != nil {
		return nil, fmt.Errorf("failed to search groups: %w", err)
	}
	out := make([]Group, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, decode(snap))
	}
	return out, nil
}

func (r *Repo) AddMember(ctx context.Context, groupID, uid string) error {
	err := r.store.Update(ctx, colGroups, groupID,
		docstore.Update{Field: "memberIds", Value: docstore.ArrayUnion(uid)})
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return fmt.Errorf("%s: %w", groupID, ErrNotFound)
		}
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}
