// Package platform implements the simulated social media surface: feed
// assembly, post/comment/reshare/like mechanics, and campaign injection.
package platform

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sueda-gl/thes/pkg/store"
	"github.com/sueda-gl/thes/pkg/types"
)

// BrandAccount is the synthetic author of injected campaign posts.
const BrandAccount = "CAMPAIGN_BRAND"

// ErrDanglingParent reports a parent pointer to a post that does not exist.
var ErrDanglingParent = errors.New("platform: dangling parent pointer")

// ErrParentCycle reports a parent chain that never reaches a root.
var ErrParentCycle = errors.New("platform: cycle in parent chain")

// Config holds feed assembly parameters.
type Config struct {
	FeedSize         int // posts per assembled feed
	VisibilityWindow int // steps a post stays eligible for feeds
}

// Platform mediates all content operations against the store.
type Platform struct {
	repo store.Repository
	cfg  Config

	mu        sync.RWMutex
	campaigns []*types.Campaign // injected this run, for lineage resolution

	// following is cached per agent; the graph is immutable for a run.
	following map[string][]string
}

// New creates a platform over the given repository.
func New(repo store.Repository, cfg Config) *Platform {
	return &Platform{
		repo:      repo,
		cfg:       cfg,
		following: make(map[string][]string),
	}
}

// BuildFeed assembles an agent's feed at the given step: recent originals
// and reshares from followed accounts, plus any campaign posts targeted at
// this agent. Ordering is reverse chronological with campaign posts winning
// ties, truncated to the configured feed size.
//
// Ranking is deliberately recency-only: engagement-based ranking would let
// the feed algorithm, rather than agent decisions, amplify one campaign over
// the other.
func (p *Platform) BuildFeed(ctx context.Context, agentID string, step int) ([]*types.Post, error) {
	following, err := p.followingOf(ctx, agentID)
	if err != nil {
		return nil, err
	}

	minStep := step - p.cfg.VisibilityWindow
	if minStep < 0 {
		minStep = 0
	}

	// Fetch at least FeedSize candidates so a large configured feed is not
	// capped below its size by the default batch.
	limit := 50
	if p.cfg.FeedSize > limit {
		limit = p.cfg.FeedSize
	}

	var posts []*types.Post
	if len(following) > 0 {
		posts, err = p.repo.FeedPosts(ctx, following, minStep, step, limit)
		if err != nil {
			return nil, fmt.Errorf("feed posts for %s: %w", agentID, err)
		}
	}

	// Campaign posts targeted at this agent always surface, regardless of
	// the follow graph.
	campaignPosts, err := p.targetedCampaignPosts(ctx, agentID, step)
	if err != nil {
		return nil, err
	}
	posts = append(posts, campaignPosts...)

	sort.SliceStable(posts, func(i, j int) bool {
		if posts[i].CreatedStep != posts[j].CreatedStep {
			return posts[i].CreatedStep > posts[j].CreatedStep
		}
		return rankBoost(posts[i]) > rankBoost(posts[j])
	})

	if len(posts) > p.cfg.FeedSize {
		posts = posts[:p.cfg.FeedSize]
	}
	return posts, nil
}

func rankBoost(p *types.Post) int {
	if p.Type == types.PostCampaign {
		return 1
	}
	return 0
}

func (p *Platform) targetedCampaignPosts(ctx context.Context, agentID string, step int) ([]*types.Post, error) {
	p.mu.RLock()
	campaigns := p.campaigns
	p.mu.RUnlock()

	var out []*types.Post
	for _, c := range campaigns {
		// Campaign posts age out of feeds on the same visibility window as
		// everything else; targeting only bypasses the follow graph.
		if c.LaunchStep > step || step-c.LaunchStep > p.cfg.VisibilityWindow {
			continue
		}
		post, err := p.repo.GetPost(ctx, campaignPostID(c.ID, agentID))
		if err != nil {
			return nil, fmt.Errorf("targeted campaign post: %w", err)
		}
		if post != nil {
			out = append(out, post)
		}
	}
	return out, nil
}

// CreatePost creates an original post and returns it.
func (p *Platform) CreatePost(ctx context.Context, agentID, content string, postType types.PostType, step int) (*types.Post, error) {
	post := &types.Post{
		ID:          "post_" + uuid.NewString()[:12],
		AgentID:     agentID,
		Content:     content,
		Type:        postType,
		CreatedStep: step,
	}
	if err := p.repo.InsertPost(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// CreateComment creates a comment under a post. Comments do not extend the
// reshare cascade; they engage with their parent where it stands.
func (p *Platform) CreateComment(ctx context.Context, agentID, parentID, content string, step int) (*types.Post, error) {
	post := &types.Post{
		ID:          "comment_" + uuid.NewString()[:12],
		AgentID:     agentID,
		Content:     content,
		Type:        types.PostResponse,
		ParentID:    parentID,
		CreatedStep: step,
	}
	if err := p.repo.InsertPost(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// CreateReshare reposts the parent with attribution, inheriting the parent's
// cascade depth plus one. The optional comment is prefixed to the quoted
// content. Resharing a missing post is an error.
func (p *Platform) CreateReshare(ctx context.Context, agentID, parentID, comment string, step int) (*types.Post, error) {
	parent, err := p.repo.GetPost(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, fmt.Errorf("%w: reshare of %s", ErrDanglingParent, parentID)
	}

	quoted := clipRunes(parent.Content, 100)
	content := fmt.Sprintf("RT: %s...", quoted)
	if comment != "" {
		content = fmt.Sprintf("%s // %s", comment, content)
	}

	post := &types.Post{
		ID:           "reshare_" + uuid.NewString()[:12],
		AgentID:      agentID,
		Content:      content,
		Type:         types.PostReshare,
		ParentID:     parentID,
		CreatedStep:  step,
		CascadeDepth: parent.CascadeDepth + 1,
	}
	if err := p.repo.InsertPost(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// CreateLike records a like. Liking a post twice is a no-op; the returned
// bool reports whether the like counted.
func (p *Platform) CreateLike(ctx context.Context, agentID, postID string, step int) (bool, error) {
	return p.repo.InsertLike(ctx, agentID, postID, step)
}

// GetPost retrieves a post by ID.
func (p *Platform) GetPost(ctx context.Context, postID string) (*types.Post, error) {
	return p.repo.GetPost(ctx, postID)
}

// InjectCampaign creates one campaign post per targeted agent, authored by
// the brand account at depth zero, and records the direct exposure and
// observation for each target.
func (p *Platform) InjectCampaign(ctx context.Context, c *types.Campaign, targets []string, step int) error {
	if err := p.repo.InsertCampaign(ctx, c); err != nil {
		return err
	}
	p.mu.Lock()
	p.campaigns = append(p.campaigns, c)
	p.mu.Unlock()

	for _, agentID := range targets {
		post := &types.Post{
			ID:          campaignPostID(c.ID, agentID),
			AgentID:     BrandAccount,
			Content:     c.Message,
			Type:        types.PostCampaign,
			CreatedStep: step,
		}
		if err := p.repo.InsertPost(ctx, post); err != nil {
			return fmt.Errorf("inject campaign post for %s: %w", agentID, err)
		}
		if _, err := p.repo.LogExposure(ctx, &types.CampaignExposure{
			AgentID:    agentID,
			PostID:     post.ID,
			CampaignID: c.ID,
			Step:       step,
		}); err != nil {
			return fmt.Errorf("log direct exposure for %s: %w", agentID, err)
		}
		if err := p.repo.InsertObservations(ctx, []types.Observation{
			{AgentID: agentID, PostID: post.ID, SeenStep: step},
		}); err != nil {
			return fmt.Errorf("record campaign observation for %s: %w", agentID, err)
		}
	}
	return nil
}

// CampaignOrigin traces a post's parent chain to its root and reports the
// campaign it descends from, if any. Lineage is resolved purely through
// parent pointers, never by who authored intermediate posts. The walk is
// bounded; a chain longer than the bound means corrupted data.
func (p *Platform) CampaignOrigin(ctx context.Context, postID string) (string, bool, error) {
	const maxHops = 10000

	current := postID
	for hop := 0; hop < maxHops; hop++ {
		post, err := p.repo.GetPost(ctx, current)
		if err != nil {
			return "", false, err
		}
		if post == nil {
			return "", false, fmt.Errorf("%w: %s", ErrDanglingParent, current)
		}
		if post.ParentID == "" {
			if post.Type == types.PostCampaign {
				if id := p.campaignOfPost(post.ID); id != "" {
					return id, true, nil
				}
			}
			return "", false, nil
		}
		current = post.ParentID
	}
	return "", false, fmt.Errorf("%w: walk from %s exceeded %d hops", ErrParentCycle, postID, maxHops)
}

// TrackCampaignResponse marks an exposure as acted on.
func (p *Platform) TrackCampaignResponse(ctx context.Context, agentID, postID string, action types.ActionType) error {
	return p.repo.MarkExposureResponded(ctx, agentID, postID, action)
}

// RecordObservations persists that an agent saw the given posts.
func (p *Platform) RecordObservations(ctx context.Context, agentID string, posts []*types.Post, step int) error {
	if len(posts) == 0 {
		return nil
	}
	obs := make([]types.Observation, len(posts))
	for i, post := range posts {
		obs[i] = types.Observation{AgentID: agentID, PostID: post.ID, SeenStep: step}
	}
	return p.repo.InsertObservations(ctx, obs)
}

// campaignOfPost maps a root campaign post back to its campaign by ID
// prefix. Campaign post IDs are campaignID + "_" + targetAgentID.
func (p *Platform) campaignOfPost(postID string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, c := range p.campaigns {
		if strings.HasPrefix(postID, c.ID+"_") {
			return c.ID
		}
	}
	return ""
}

func (p *Platform) followingOf(ctx context.Context, agentID string) ([]string, error) {
	p.mu.RLock()
	cached, ok := p.following[agentID]
	p.mu.RUnlock()
	if ok {
		return cached, nil
	}

	following, err := p.repo.Following(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("following of %s: %w", agentID, err)
	}
	p.mu.Lock()
	p.following[agentID] = following
	p.mu.Unlock()
	return following, nil
}

func campaignPostID(campaignID, agentID string) string {
	return campaignID + "_" + agentID
}

// clipRunes truncates s to at most n bytes without splitting a rune.
func clipRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
