package user

import (
	"time"

	"gatherly/backend/internal/docstore"
)

// Profile is the per-user document. It carries the reverse side of the
// proposal linkage (proposalIds) and the vote-reminder preference.
type Profile struct {
	UID                string    `json:"uid"`
	DisplayName        string    `json:"displayName"`
	Email              string    `json:"email"`
	ProposalIDs        []string  `json:"proposalIds"`
	AllowVoteReminders bool      `json:"allowVoteReminders"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// decode reads a profile defensively: missing or mistyped fields default,
// a profile is never dropped.
func decode(snap docstore.Snapshot) Profile {
	return Profile{
		UID:                snap.ID,
		DisplayName:        snap.Data.String("displayName"),
		Email:              snap.Data.String("email"),
		ProposalIDs:        snap.Data.Strings("proposalIds"),
		AllowVoteReminders: snap.Data.Bool("allowVoteReminders"),
		UpdatedAt:          snap.Data.Time("updatedAt"),
	}
}
