package submission

import (
	"time"

	"gatherly/backend/internal/docstore"
)

// Submission is one user's single availability/vote response to a proposal.
// From/To form the availability window; no ordering between the two is
// enforced at write time.
type Submission struct {
	ID               string    `json:"id"`
	UserID           string    `json:"userId"`
	UserName         string    `json:"userName"`
	ProposalID       string    `json:"proposalId"`
	From             time.Time `json:"from"`
	To               time.Time `json:"to"`
	Comment          string    `json:"comment"`
	SelectedLocation string    `json:"selectedLocation"`
	SubmittedAt      time.Time `json:"submittedAt"`
}

// Decode reads a submission defensively: missing or mistyped fields default
// to their zero values and the record is kept. Unlike proposals, a
// submission is never dropped from decoded lists.
func Decode(snap docstore.Snapshot) Submission {
	return Submission{
		ID:               snap.ID,
		UserID:           snap.Data.String("userId"),
		UserName:         snap.Data.String("userName"),
		ProposalID:       snap.Data.String("proposalId"),
		From:             snap.Data.Time("from"),
		To:               snap.Data.Time("to"),
		Comment:          snap.Data.String("comment"),
		SelectedLocation: snap.Data.String("selectedLocation"),
		SubmittedAt:      snap.Data.Time("submittedAt"),
	}
}

func (s Submission) doc() docstore.Doc {
	return docstore.Doc{
		"userId":           s.UserID,
		"userName":         s.UserName,
		"proposalId":       s.ProposalID,
		"from":             s.From,
		"to":               s.To,
		"comment":          s.Comment,
		"selectedLocation": s.SelectedLocation,
		"submittedAt":      s.SubmittedAt,
	}
}
