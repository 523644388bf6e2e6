// Package feed is the connectivity-aware read path for the home listing:
// remote reads with cache write-through when online, cache reads when
// offline.
package feed

import (
	"context"
	"time"

	"gatherly/backend/internal/cache"
	"gatherly/backend/internal/domain/group"
	"gatherly/backend/internal/domain/proposal"

	"go.uber.org/zap"
)

// Connectivity is the slice of the monitor the feed needs.
type Connectivity interface {
	Online() bool
}

// Feed is the home listing for one user.
type Feed struct {
	Groups    []cache.CachedGroup    `json:"groups"`
	Proposals []cache.CachedProposal `json:"proposals"`
	FromCache bool                   `json:"fromCache"`
}

type Service struct {
	conn      Connectivity
	groups    *group.Repo
	proposals *proposal.Repo
	cache     cache.Store
	log       *zap.Logger
}

func NewService(conn Connectivity, groups *group.Repo, proposals *proposal.Repo, c cache.Store, log *zap.Logger) *Service {
	return &Service{conn: conn, groups: groups, proposals: proposals, cache: c, log: log}
}

// Home builds the feed. Online: remote reads, then a fire-and-forget
// write-through to the cache (failures logged, never surfaced). Offline:
// cache reads; an empty cache is an empty feed, not an error.
func (s *Service) Home(ctx context.Context, uid string) (*Feed, error) {
	if !s.conn.Online() {
		return s.fromCache(ctx, uid)
	}

	groups, err := s.groups.ListForMember(ctx, uid)
	if err != nil {
		return nil, err
	}
	proposals, err := s.proposals.ListForUser(ctx, uid)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	f := &Feed{
		Groups:    make([]cache.CachedGroup, 0, len(groups)),
		Proposals: make([]cache.CachedProposal, 0, len(proposals)),
	}
	for _, g := range groups {
		f.Groups = append(f.Groups, cache.CachedGroup{ID: g.ID, Name: g.Name, UpdatedAt: now})
	}
	for _, p := range proposals {
		f.Proposals = append(f.Proposals, cache.CachedProposal{
			ID:        p.ID,
			GroupID:   p.GroupID,
			GroupName: p.GroupName,
			Title:     p.Title,
			UpdatedAt: now,
		})
	}

	s.writeThrough(uid, f)
	return f, nil
}

func (s *Service) fromCache(ctx context.Context, uid string) (*Feed, error) {
	groups, err := s.cache.Groups(ctx, uid)
	if err != nil {
		return nil, err
	}
	proposals, err := s.cache.Proposals(ctx, uid)
	if err != nil {
		return nil, err
	}
	if groups == nil {
		groups = []cache.CachedGroup{}
	}
	if proposals == nil {
		proposals = []cache.CachedProposal{}
	}
	return &Feed{Groups: groups, Proposals: proposals, FromCache: true}, nil
}

// writeThrough refreshes the cached projections in the background. The
// request does not wait on it and its failures are only logged.
func (s *Service) writeThrough(uid string, f *Feed) {
	groups := make([]cache.CachedGroup, len(f.Groups))
	copy(groups, f.Groups)
	proposals := make([]cache.CachedProposal, len(f.Proposals))
	copy(proposals, f.Proposals)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.cache.PutGroups(ctx, uid, groups); err != nil {
			s.log.Warn("cache write-through failed", zap.String("uid", uid), zap.Error(err))
		}
		if err := s.cache.PutProposals(ctx, uid, proposals); err != nil {
			s.log.Warn("cache write-through failed", zap.String("uid", uid), zap.Error(err))
		}
	}()
}
