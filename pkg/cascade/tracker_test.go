package cascade

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sueda-gl/thes/pkg/store"
	"github.com/sueda-gl/thes/pkg/types"
)

// stubResolver maps post IDs to campaigns directly, standing in for the
// platform's lineage walk.
type stubResolver struct {
	origins map[string]string
}

func (r *stubResolver) CampaignOrigin(_ context.Context, postID string) (string, bool, error) {
	id, ok := r.origins[postID]
	return id, ok, nil
}

func testRepo(t *testing.T) store.Repository {
	t.Helper()
	repo, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestProcessFeed_RecordsLowestDepthPerCampaign(t *testing.T) {
	ctx := context.Background()
	repo := testRepo(t)

	resolver := &stubResolver{origins: map[string]string{
		"deep":    "campaign_hope",
		"shallow": "campaign_hope",
		"other":   "campaign_fear",
	}}
	tracker := NewTracker(repo, resolver)

	feed := []*types.Post{
		{ID: "deep", Type: types.PostReshare, CascadeDepth: 3},
		{ID: "organic", Type: types.PostOrganic},
		{ID: "shallow", Type: types.PostReshare, CascadeDepth: 1},
		{ID: "other", Type: types.PostCampaign, CascadeDepth: 0},
	}

	recorded, err := tracker.ProcessFeed(ctx, "agent_001", feed, 1500)
	if err != nil {
		t.Fatalf("process feed: %v", err)
	}
	// One exposure per distinct campaign, not per qualifying post.
	if recorded != 2 {
		t.Fatalf("expected 2 exposures, got %d", recorded)
	}

	exposures, err := repo.ExposuresByAgent(ctx, "agent_001")
	if err != nil {
		t.Fatalf("exposures: %v", err)
	}
	byCampaign := make(map[string]*types.CampaignExposure)
	for _, e := range exposures {
		byCampaign[e.CampaignID] = e
	}
	hope := byCampaign["campaign_hope"]
	if hope == nil {
		t.Fatal("hope exposure missing")
	}
	// The lowest-depth qualifying post wins the attribution.
	if hope.PostID != "shallow" || hope.CascadeDepth != 1 {
		t.Errorf("hope exposure attributed to %s at depth %d", hope.PostID, hope.CascadeDepth)
	}
}

func TestProcessFeed_Idempotent(t *testing.T) {
	ctx := context.Background()
	repo := testRepo(t)
	resolver := &stubResolver{origins: map[string]string{"p1": "campaign_fear"}}
	tracker := NewTracker(repo, resolver)

	feed := []*types.Post{{ID: "p1", Type: types.PostCampaign}}

	first, err := tracker.ProcessFeed(ctx, "agent_001", feed, 1440)
	if err != nil {
		t.Fatalf("first scan: %v", err)
	}
	second, err := tracker.ProcessFeed(ctx, "agent_001", feed, 1441)
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}
	if first != 1 || second != 0 {
		t.Errorf("expected 1 then 0 new exposures, got %d then %d", first, second)
	}

	exposures, err := repo.ExposuresByAgent(ctx, "agent_001")
	if err != nil {
		t.Fatalf("exposures: %v", err)
	}
	if len(exposures) != 1 {
		t.Errorf("expected a single exposure row, got %d", len(exposures))
	}
}

func TestProcessFeed_DeeperSightingNeverEscalates(t *testing.T) {
	ctx := context.Background()
	repo := testRepo(t)
	resolver := &stubResolver{origins: map[string]string{
		"root": "campaign_hope",
		"r2":   "campaign_hope",
	}}
	tracker := NewTracker(repo, resolver)

	// Direct exposure first.
	first, err := tracker.ProcessFeed(ctx, "agent_001", []*types.Post{
		{ID: "root", Type: types.PostCampaign, CascadeDepth: 0},
	}, 1440)
	if err != nil {
		t.Fatalf("first scan: %v", err)
	}
	if first != 1 {
		t.Fatalf("expected 1 exposure from direct sighting, got %d", first)
	}

	// A later scan carrying only a second-hop reshare of the same campaign
	// must not add a second exposure row.
	second, err := tracker.ProcessFeed(ctx, "agent_001", []*types.Post{
		{ID: "r2", Type: types.PostReshare, CascadeDepth: 2},
	}, 1500)
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}
	if second != 0 {
		t.Errorf("deeper sighting recorded %d new exposures, want 0", second)
	}

	exposures, err := repo.ExposuresByAgent(ctx, "agent_001")
	if err != nil {
		t.Fatalf("exposures: %v", err)
	}
	if len(exposures) != 1 || exposures[0].CascadeDepth != 0 {
		t.Errorf("expected a single depth-0 row, got %+v", exposures)
	}
}

func TestProcessFeed_ShallowerSightingLowersDepth(t *testing.T) {
	ctx := context.Background()
	repo := testRepo(t)
	resolver := &stubResolver{origins: map[string]string{
		"r2": "campaign_fear",
		"r1": "campaign_fear",
	}}
	tracker := NewTracker(repo, resolver)

	if _, err := tracker.ProcessFeed(ctx, "agent_001", []*types.Post{
		{ID: "r2", Type: types.PostReshare, CascadeDepth: 2},
	}, 1500); err != nil {
		t.Fatalf("first scan: %v", err)
	}
	recorded, err := tracker.ProcessFeed(ctx, "agent_001", []*types.Post{
		{ID: "r1", Type: types.PostReshare, CascadeDepth: 1},
	}, 1600)
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}
	// Minimum depth decreases via a new row, never a mutation.
	if recorded != 1 {
		t.Errorf("shallower sighting recorded %d exposures, want 1", recorded)
	}

	depth, exposed, err := repo.MinExposureDepth(ctx, "agent_001", "campaign_fear")
	if err != nil {
		t.Fatalf("min depth: %v", err)
	}
	if !exposed || depth != 1 {
		t.Errorf("minimum depth = (%d, %v), want (1, true)", depth, exposed)
	}

	// Reach counts the agent once, at their lowered depth.
	stats, err := tracker.CampaignReach(ctx, "campaign_fear")
	if err != nil {
		t.Fatalf("reach: %v", err)
	}
	if stats.Total != 1 || stats.Direct != 0 || stats.Cascaded != 1 {
		t.Errorf("unexpected totals %+v", stats)
	}
	if stats.CountByDepth[1] != 1 || stats.CountByDepth[2] != 0 {
		t.Errorf("unexpected depth histogram %v", stats.CountByDepth)
	}
}

func TestCampaignReach_Aggregates(t *testing.T) {
	ctx := context.Background()
	repo := testRepo(t)
	tracker := NewTracker(repo, nil)

	seed := []*types.CampaignExposure{
		{AgentID: "a1", PostID: "c_a1", CampaignID: "campaign_hope", CascadeDepth: 0, Step: 1440},
		{AgentID: "a2", PostID: "r1", CampaignID: "campaign_hope", CascadeDepth: 1, Step: 1500},
		{AgentID: "a3", PostID: "r2", CampaignID: "campaign_hope", CascadeDepth: 3, Step: 1600},
		{AgentID: "a4", PostID: "x", CampaignID: "campaign_fear", CascadeDepth: 0, Step: 1440},
	}
	for _, e := range seed {
		if _, err := repo.LogExposure(ctx, e); err != nil {
			t.Fatalf("seed exposure: %v", err)
		}
	}
	if err := repo.MarkExposureResponded(ctx, "a2", "r1", types.ActionReshare); err != nil {
		t.Fatalf("mark responded: %v", err)
	}

	stats, err := tracker.CampaignReach(ctx, "campaign_hope")
	if err != nil {
		t.Fatalf("reach: %v", err)
	}
	if stats.Total != 3 || stats.Direct != 1 || stats.Cascaded != 2 {
		t.Errorf("unexpected totals %+v", stats)
	}
	if stats.Responded != 1 {
		t.Errorf("expected 1 responder, got %d", stats.Responded)
	}
	if stats.MaxDepth != 3 {
		t.Errorf("expected max depth 3, got %d", stats.MaxDepth)
	}
	if stats.CountByDepth[0] != 1 || stats.CountByDepth[1] != 1 || stats.CountByDepth[3] != 1 {
		t.Errorf("unexpected depth histogram %v", stats.CountByDepth)
	}
}
