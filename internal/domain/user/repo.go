package user

import (
	"context"
	"time"

	"gatherly/backend/internal/docstore"
)

const colUsers = "users"

type Repo struct {
	store docstore.Store
}

func NewRepo(store docstore.Store) *Repo {
	return &Repo{store: store}
}

func (r *Repo) Get(ctx context.Context, uid string) (*Profile, error) {
	snap, err := r.store.Get(ctx, colUsers, uid)
	if err != nil {
		return nil, err
	}
	p := decode(snap)
	return &p, nil
}

// UpsertMinimal makes sure a user document exists after first sign-in.
func (r *Repo) UpsertMinimal(ctx context.Context, uid, email, displayName string) error {
	return r.store.Set(ctx, colUsers, uid, docstore.Doc{
		"uid":         uid,
		"email":       email,
		"displayName": displayName,
		"updatedAt":   time.Now().UTC(),
	}, true)
}

// SetReminderPref stores the per-user vote-reminder preference.
func (r *Repo) SetReminderPref(ctx context.Context, uid string, allow bool) error {
	return r.store.Set(ctx, colUsers, uid, docstore.Doc{
		"allowVoteReminders": allow,
		"updatedAt":          time.Now().UTC(),
	}, true)
}

// AllowsReminders reads the reminder preference; a missing user or field
// counts as opted out.
func (r *Repo) AllowsReminders(ctx context.Context, uid string) bool {
	p, err := r.Get(ctx, uid)
	if err != nil {
		return false
	}
	return p.AllowVoteReminders
}
