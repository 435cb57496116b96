// Package store provides SQLite persistence for simulation runs.
package store

import (
	"context"

	"github.com/sueda-gl/thes/pkg/types"
)

// Repository is the persistence surface the simulation writes through.
type Repository interface {
	// Agents
	InsertPersonas(ctx context.Context, personas []*types.Persona) error
	GetPersona(ctx context.Context, agentID string) (*types.Persona, error)
	AllPersonas(ctx context.Context) ([]*types.Persona, error)

	// Posts
	InsertPost(ctx context.Context, post *types.Post) error
	GetPost(ctx context.Context, postID string) (*types.Post, error)
	FeedPosts(ctx context.Context, authorIDs []string, minStep, maxStep, limit int) ([]*types.Post, error)
	PostsByStep(ctx context.Context, step int) ([]*types.Post, error)
	IncrementLikeCount(ctx context.Context, postID string) error
	IncrementCommentCount(ctx context.Context, postID string) error

	// Social graph
	InsertFollows(ctx context.Context, follows []types.Follow) error
	Following(ctx context.Context, agentID string) ([]string, error)
	Followers(ctx context.Context, agentID string) ([]string, error)

	// Interactions (likes). InsertLike reports whether the row was new;
	// an agent liking the same post twice is a no-op.
	InsertLike(ctx context.Context, agentID, postID string, step int) (bool, error)

	// Observations
	InsertObservations(ctx context.Context, obs []types.Observation) error

	// Campaigns and exposures. LogExposure reports whether a new exposure
	// row was recorded; re-seeing a post an agent was already exposed to
	// is a no-op.
	InsertCampaign(ctx context.Context, c *types.Campaign) error
	GetCampaign(ctx context.Context, campaignID string) (*types.Campaign, error)
	LogExposure(ctx context.Context, e *types.CampaignExposure) (bool, error)
	MarkExposureResponded(ctx context.Context, agentID, postID string, action types.ActionType) error
	ExposuresByCampaign(ctx context.Context, campaignID string) ([]*types.CampaignExposure, error)
	ExposuresByAgent(ctx context.Context, agentID string) ([]*types.CampaignExposure, error)
	MinExposureDepth(ctx context.Context, agentID, campaignID string) (depth int, exposed bool, err error)
	DirectlyTargeted(ctx context.Context, campaignType types.CampaignType) ([]string, error)

	// Belief measurements, upserted on (agent, attribute, step).
	InsertBeliefMeasurement(ctx context.Context, m *types.BeliefMeasurement) error
	BeliefHistory(ctx context.Context, agentID, attribute string) ([]*types.BeliefMeasurement, error)
	BeliefsAtStep(ctx context.Context, step int, attribute string) ([]*types.BeliefMeasurement, error)

	// Runs
	InsertRun(ctx context.Context, run *types.SimulationRun) error
	UpdateRunStatus(ctx context.Context, runID, status string) error

	Stats(ctx context.Context) (map[string]int, error)
	Ping(ctx context.Context) error
	Close() error
}
