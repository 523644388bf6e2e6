package proposal

import (
	"context"
	"sync"

	"gatherly/backend/internal/docstore"

	"go.uber.org/zap"
)

// Handler receives the merged proposal list on every change.
type Handler func(proposals []Proposal)

// Stream is the fan-out subscription over one user's proposals: it watches
// the user document's proposal-id list and keeps one independent document
// listener per id. Child updates merge into an order-preserving keyed
// collection (order = the id list's order) and the whole merged snapshot is
// republished on every change.
//
// Child listeners have no ordering relationship to each other; the merge is
// recomputed from per-id state on each publish, so delivery order between
// children does not matter.
type Stream struct {
	store docstore.Store
	log   *zap.Logger
	ctx   context.Context

	mu       sync.Mutex
	uid      string
	order    []string
	children map[string]docstore.CancelFunc
	latest   map[string]*Proposal
	closed   bool

	userCancel docstore.CancelFunc

	pubMu   sync.Mutex
	handler Handler
}

// Stream opens the fan-out subscription for uid. The handler is invoked on a
// background goroutine; Close tears down the user listener and every child.
func (r *Repo) Stream(ctx context.Context, uid string, h Handler) *Stream {
	s := &Stream{
		store:    r.store,
		log:      r.log,
		ctx:      ctx,
		uid:      uid,
		children: map[string]docstore.CancelFunc{},
		latest:   map[string]*Proposal{},
		handler:  h,
	}
	s.userCancel = r.store.ListenDoc(ctx, colUsers, uid, s.onUserDoc)
	return s
}

func (s *Stream) onUserDoc(snap docstore.Snapshot, exists bool) {
	var ids []string
	if exists {
		ids = snap.Data.Strings("proposalIds")
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	want := map[string]bool{}
	for _, id := range ids {
		want[id] = true
	}

	// Cancel listeners for ids removed from the list.
	var stale []docstore.CancelFunc
	for id, cancel := range s.children {
		if !want[id] {
			stale = append(stale, cancel)
			delete(s.children, id)
			delete(s.latest, id)
		}
	}

	// Open a listener per id not yet watched.
	var added []string
	for _, id := range ids {
		if _, ok := s.children[id]; !ok {
			added = append(added, id)
			s.children[id] = nil // reserve before unlocking
		}
	}
	s.order = ids
	s.mu.Unlock()

	for _, cancel := range stale {
		cancel()
	}
	for _, id := range added {
		id := id
		cancel := s.store.ListenDoc(s.ctx, colProposals, id, func(snap docstore.Snapshot, exists bool) {
			s.onChild(id, snap, exists)
		})
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			cancel()
			continue
		}
		s.children[id] = cancel
		s.mu.Unlock()
	}

	s.publish()
}

func (s *Stream) onChild(id string, snap docstore.Snapshot, exists bool) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if !exists {
		s.latest[id] = nil
	} else {
		p, skip := Decode(snap)
		if skip != SkipNone {
			// A document that fails to parse is dropped from the merged
			// view, not reported as an error.
			s.log.Debug("dropping malformed proposal from stream",
				zap.String("proposalId", id), zap.String("reason", string(skip)))
			s.latest[id] = nil
		} else {
			s.latest[id] = &p
		}
	}
	s.mu.Unlock()

	s.publish()
}

// publish re-derives the merged snapshot and hands it to the handler.
// pubMu serializes handler invocations so observers see snapshots in order.
func (s *Stream) publish() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	out := make([]Proposal, 0, len(s.order))
	for _, id := range s.order {
		if p := s.latest[id]; p != nil {
			out = append(out, *p)
		}
	}
	s.mu.Unlock()

	s.pubMu.Lock()
	s.handler(out)
	s.pubMu.Unlock()
}

// Close cancels the user listener and all child listeners.
func (s *Stream) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	cancels := make([]docstore.CancelFunc, 0, len(s.children)+1)
	cancels = append(cancels, s.userCancel)
	for _, c := range s.children {
		if c != nil {
			cancels = append(cancels, c)
		}
	}
	s.children = map[string]docstore.CancelFunc{}
	s.mu.Unlock()

	for _, c := range cancels {
		c()
	}
}
