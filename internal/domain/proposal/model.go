package proposal

import (
	"time"

	"gatherly/backend/internal/docstore"
)

const StatusPending = "pending"

// Location is one candidate venue on a proposal.
type Location struct {
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// Proposal is a candidate group activity open for voting. ParticipantIDs and
// ParticipantNames correspond positionally: same length, same order.
type Proposal struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	GroupID          string     `json:"groupId"`
	GroupName        string     `json:"groupName"`
	Locations        []Location `json:"locations"`
	ParticipantIDs   []string   `json:"participantIds"`
	ParticipantNames []string   `json:"participantNames"`
	Status           string     `json:"status"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// SkipReason tags why a document was dropped during decoding. Proposals use
// strict-drop decoding: a record that cannot be trusted is excluded from
// lists instead of being patched up.
type SkipReason string

const (
	SkipNone             SkipReason = ""
	SkipMissingTitle     SkipReason = "missing title"
	SkipParticipantShape SkipReason = "participant ids/names mismatch"
)

// Decode turns a snapshot into a Proposal or a skip reason.
func Decode(snap docstore.Snapshot) (Proposal, SkipReason) {
	title := snap.Data.String("title")
	if title == "" {
		return Proposal{}, SkipMissingTitle
	}

	ids := snap.Data.Strings("participantIds")
	names := snap.Data.Strings("participantNames")
	if len(ids) != len(names) {
		return Proposal{}, SkipParticipantShape
	}

	var locs []Location
	for _, m := range snap.Data.Maps("locations") {
		locs = append(locs, Location{
			Name:    m.String("name"),
			Address: m.String("address"),
			Lat:     m.Float("lat"),
			Lng:     m.Float("lng"),
		})
	}

	return Proposal{
		ID:               snap.ID,
		Title:            title,
		GroupID:          snap.Data.String("groupId"),
		GroupName:        snap.Data.String("groupName"),
		Locations:        locs,
		ParticipantIDs:   ids,
		ParticipantNames: names,
		Status:           snap.Data.String("status"),
		CreatedAt:        snap.Data.Time("createdAt"),
	}, SkipNone
}

func (p Proposal) doc() docstore.Doc {
	locs := make([]interface{}, 0, len(p.Locations))
	for _, l := range p.Locations {
		locs = append(locs, map[string]interface{}{
			"name":    l.Name,
			"address": l.Address,
			"lat":     l.Lat,
			"lng":     l.Lng,
		})
	}
	return docstore.Doc{
		"title":            p.Title,
		"groupId":          p.GroupID,
		"groupName":        p.GroupName,
		"locations":        locs,
		"participantIds":   p.ParticipantIDs,
		"participantNames": p.ParticipantNames,
		"status":           p.Status,
		"createdAt":        p.CreatedAt,
	}
}

// HasLocation reports whether name is one of the proposal's candidate
// location names.
func (p Proposal) HasLocation(name string) bool {
	for _, l := range p.Locations {
		if l.Name == name {
			return true
		}
	}
	return false
}
