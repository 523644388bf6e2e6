// Package cache is the local read-through cache behind the offline read
// path. It holds non-authoritative denormalized projections only; the
// document store stays the single source of truth. There is deliberately no
// submission projection, so offline mode cannot show votes.
package cache

import (
	"context"
	"time"
)

// CachedGroup is the group projection kept for offline listing.
type CachedGroup struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CachedProposal is the proposal projection kept for offline listing.
type CachedProposal struct {
	ID        string    `json:"id"`
	GroupID   string    `json:"groupId"`
	GroupName string    `json:"groupName"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store is the local cache contract. Reads of absent entries return empty
// results, not errors.
type Store interface {
	PutGroups(ctx context.Context, uid string, groups []CachedGroup) error
	Groups(ctx context.Context, uid string) ([]CachedGroup, error)
	PutProposals(ctx context.Context, uid string, proposals []CachedProposal) error
	Proposals(ctx context.Context, uid string) ([]CachedProposal, error)
}
