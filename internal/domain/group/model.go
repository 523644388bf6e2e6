package group

import (
	"time"

	"gatherly/backend/internal/docstore"
)

// Group owns proposals: its proposalIds list is the forward side of the
// linkage that CreateProposal maintains in one batch with the per-user lists.
type Group struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	NameLower   string    `json:"nameLower"`
	Slug        string    `json:"slug"`
	Keywords    []string  `json:"keywords,omitempty"`
	OwnerUID    string    `json:"ownerUid"`
	MemberIDs   []string  `json:"memberIds"`
	ProposalIDs []string  `json:"proposalIds"`
	CreatedAt   time.Time `json:"createdAt"`
}

func decode(snap docstore.Snapshot) Group {
	return Group{
		ID:          snap.ID,
		Name:        snap.Data.String("name"),
		NameLower:   snap.Data.String("nameLower"),
		Slug:        snap.Data.String("slug"),
		Keywords:    snap.Data.Strings("keywords"),
		OwnerUID:    snap.Data.String("ownerUid"),
		MemberIDs:   snap.Data.Strings("memberIds"),
		ProposalIDs: snap.Data.Strings("proposalIds"),
		CreatedAt:   snap.Data.Time("createdAt"),
	}
}

func (g Group) doc() docstore.Doc {
	return docstore.Doc{
		"name":        g.Name,
		"nameLower":   g.NameLower,
		"slug":        g.Slug,
		"keywords":    g.Keywords,
		"ownerUid":    g.OwnerUID,
		"memberIds":   g.MemberIDs,
		"proposalIds": g.ProposalIDs,
		"createdAt":   g.CreatedAt,
	}
}
