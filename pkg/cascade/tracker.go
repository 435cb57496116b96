// Package cascade tracks campaign diffusion: who was exposed to which
// campaign at what reshare depth, and how structurally viral each cascade
// grew.
package cascade

import (
	"context"

	"github.com/sueda-gl/thes/pkg/store"
	"github.com/sueda-gl/thes/pkg/types"
)

// OriginResolver resolves a post to the campaign its lineage descends from.
type OriginResolver interface {
	CampaignOrigin(ctx context.Context, postID string) (campaignID string, ok bool, err error)
}

// Tracker records campaign exposures as agents' feeds are assembled.
type Tracker struct {
	repo     store.Repository
	resolver OriginResolver
}

// NewTracker creates a tracker over the given repository and resolver.
func NewTracker(repo store.Repository, resolver OriginResolver) *Tracker {
	return &Tracker{repo: repo, resolver: resolver}
}

// ProcessFeed scans an assembled feed for campaign-lineage posts and records
// at most one exposure per distinct campaign, attributed to the
// lowest-depth qualifying post. An agent's recorded minimum depth for a
// campaign only ever decreases: sightings at or below the recorded depth are
// skipped, and a shallower sighting lands as a new row rather than a
// mutation. Re-seeing an already recorded post is a no-op via the store's
// uniqueness constraint.
//
// Returns the number of newly recorded exposures.
func (t *Tracker) ProcessFeed(ctx context.Context, agentID string, feed []*types.Post, step int) (int, error) {
	// Lowest-depth campaign-lineage post per campaign in this scan.
	best := make(map[string]*types.Post)
	for _, post := range feed {
		campaignID, ok, err := t.resolver.CampaignOrigin(ctx, post.ID)
		if err != nil {
			return 0, err
		}
		if !ok {
			continue
		}
		if cur, seen := best[campaignID]; !seen || post.CascadeDepth < cur.CascadeDepth {
			best[campaignID] = post
		}
	}

	recorded := 0
	for campaignID, post := range best {
		// An exposure at this depth or shallower is already on record;
		// deeper sightings never escalate it.
		minDepth, exposed, err := t.repo.MinExposureDepth(ctx, agentID, campaignID)
		if err != nil {
			return recorded, err
		}
		if exposed && minDepth <= post.CascadeDepth {
			continue
		}
		inserted, err := t.repo.LogExposure(ctx, &types.CampaignExposure{
			AgentID:      agentID,
			PostID:       post.ID,
			CampaignID:   campaignID,
			CascadeDepth: post.CascadeDepth,
			Step:         step,
		})
		if err != nil {
			return recorded, err
		}
		if inserted {
			recorded++
		}
	}
	return recorded, nil
}

// ExposureStats summarizes a campaign's reach by depth.
type ExposureStats struct {
	CampaignID   string
	Total        int
	Direct       int // depth 0
	Cascaded     int // depth > 0
	Responded    int
	MaxDepth     int
	CountByDepth map[int]int
}

// CampaignReach aggregates exposure statistics for one campaign. Each agent
// counts once, at the lowest depth recorded for them, so an agent whose
// depth was later lowered never inflates the totals.
func (t *Tracker) CampaignReach(ctx context.Context, campaignID string) (*ExposureStats, error) {
	exposures, err := t.repo.ExposuresByCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	minDepth := make(map[string]int)
	responded := make(map[string]bool)
	for _, e := range exposures {
		if d, ok := minDepth[e.AgentID]; !ok || e.CascadeDepth < d {
			minDepth[e.AgentID] = e.CascadeDepth
		}
		if e.Responded {
			responded[e.AgentID] = true
		}
	}

	stats := &ExposureStats{
		CampaignID:   campaignID,
		CountByDepth: make(map[int]int),
	}
	for agentID, d := range minDepth {
		stats.Total++
		stats.CountByDepth[d]++
		if d == 0 {
			stats.Direct++
		} else {
			stats.Cascaded++
		}
		if responded[agentID] {
			stats.Responded++
		}
		if d > stats.MaxDepth {
			stats.MaxDepth = d
		}
	}
	return stats, nil
}
