package submission

import (
	"context"
	"sync"

	"gatherly/backend/internal/docstore"
)

// Set is the repartitioned submission set for one proposal: the viewing
// user's own submission (at most one, when the invariant holds) against
// everyone else's.
type Set struct {
	Mine   *Submission  `json:"mine"`
	Others []Submission `json:"others"`
}

// Handler receives the repartitioned set on every push.
type Handler func(Set)

// Stream watches all submissions for one proposal. Every push repartitions
// the full result set from scratch; there is no incremental diffing, which
// makes the derivation idempotent and order-independent across pushes.
type Stream struct {
	userID string

	mu     sync.Mutex
	latest Set
	seeded bool
	closed bool

	pubMu   sync.Mutex
	handler Handler

	cancel docstore.CancelFunc
}

// Stream opens a query listener for proposalID and partitions each push
// against userID. The handler runs on a background goroutine.
func (r *Repo) Stream(ctx context.Context, proposalID, userID string, h Handler) *Stream {
	s := &Stream{userID: userID, handler: h}
	s.cancel = r.store.ListenQuery(ctx, colSubmissions,
		docstore.Filter{Field: "proposalId", Op: "==", Value: proposalID},
		s.onPush)
	return s
}

// partition splits a push into the viewer's submission and everyone else's.
// Duplicates for the same user past the first land with the rest; the
// at-most-one invariant is client-enforced only.
func partition(snaps []docstore.Snapshot, userID string) Set {
	var set Set
	for _, snap := range snaps {
		sub := Decode(snap)
		if set.Mine == nil && sub.UserID == userID {
			mine := sub
			set.Mine = &mine
			continue
		}
		set.Others = append(set.Others, sub)
	}
	return set
}

func (s *Stream) onPush(snaps []docstore.Snapshot) {
	set := partition(snaps, s.userID)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.latest = set
	s.seeded = true
	s.mu.Unlock()

	s.pubMu.Lock()
	s.handler(set)
	s.pubMu.Unlock()
}

// HasSubmitted reports whether the latest push contained a submission from
// the viewing user. It is only as fresh as that push.
func (s *Stream) HasSubmitted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest.Mine != nil
}

// Ready reports whether at least one push has been delivered, i.e. the
// derived state has been seeded.
func (s *Stream) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seeded
}

// Latest returns the most recently derived set.
func (s *Stream) Latest() Set {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// Close tears down the listener.
func (s *Stream) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	s.cancel()
}
