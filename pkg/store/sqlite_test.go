package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sueda-gl/thes/pkg/types"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPersonas_Roundtrip(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	personas := []*types.Persona{
		{
			AgentID:              "agent_001",
			Name:                 "Maya",
			Age:                  29,
			Interests:            []string{"climate change", "hiking"},
			SocialBehavior:       "casual",
			EnvironmentalConcern: 0.62,
			BrandTrust:           0.55,
			Personality:          types.Personality{Openness: 0.7},
		},
		{AgentID: "agent_002", Name: "Jon", Age: 44},
	}
	if err := s.InsertPersonas(ctx, personas); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := s.GetPersona(ctx, "agent_001")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.Name != "Maya" || got.EnvironmentalConcern != 0.62 {
		t.Errorf("roundtrip mismatch: %+v", got)
	}
	if len(got.Interests) != 2 || got.Interests[0] != "climate change" {
		t.Errorf("interests not preserved: %v", got.Interests)
	}
	if got.Personality.Openness != 0.7 {
		t.Errorf("personality not preserved: %+v", got.Personality)
	}

	all, err := s.AllPersonas(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 personas, got %d", len(all))
	}

	missing, err := s.GetPersona(ctx, "agent_999")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing persona")
	}
}

func TestFollows_BothDirections(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	follows := []types.Follow{
		{FollowerID: "a", FolloweeID: "b"},
		{FollowerID: "a", FolloweeID: "c"},
		{FollowerID: "c", FolloweeID: "b"},
	}
	if err := s.InsertFollows(ctx, follows); err != nil {
		t.Fatalf("insert: %v", err)
	}

	following, err := s.Following(ctx, "a")
	if err != nil {
		t.Fatalf("following: %v", err)
	}
	if len(following) != 2 {
		t.Errorf("expected a to follow 2, got %v", following)
	}
	followers, err := s.Followers(ctx, "b")
	if err != nil {
		t.Fatalf("followers: %v", err)
	}
	if len(followers) != 2 {
		t.Errorf("expected b followed by 2, got %v", followers)
	}
}

func TestFeedPosts_NoAuthors(t *testing.T) {
	s := testStore(t)
	posts, err := s.FeedPosts(context.Background(), nil, 0, 100, 50)
	if err != nil {
		t.Fatalf("feed posts: %v", err)
	}
	if posts != nil {
		t.Errorf("expected no posts for empty author set, got %d", len(posts))
	}
}

func TestLogExposure_UniquePerAgentPost(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	e := &types.CampaignExposure{
		AgentID:    "agent_001",
		PostID:     "campaign_hope_agent_001",
		CampaignID: "campaign_hope",
		Step:       1440,
	}
	inserted, err := s.LogExposure(ctx, e)
	if err != nil {
		t.Fatalf("first exposure: %v", err)
	}
	again, err := s.LogExposure(ctx, e)
	if err != nil {
		t.Fatalf("duplicate exposure: %v", err)
	}
	if !inserted || again {
		t.Errorf("expected (true, false), got (%v, %v)", inserted, again)
	}
}

func TestBeliefMeasurements_UpsertAndHistory(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	m := &types.BeliefMeasurement{
		AgentID:   "agent_001",
		Attribute: "environmental_concern",
		Value:     0.6,
		Step:      1439,
		Reasoning: "baseline",
	}
	if err := s.InsertBeliefMeasurement(ctx, m); err != nil {
		t.Fatalf("insert: %v", err)
	}
	// Same (agent, attribute, step) replaces rather than duplicates.
	m.Value = 0.7
	if err := s.InsertBeliefMeasurement(ctx, m); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := s.InsertBeliefMeasurement(ctx, &types.BeliefMeasurement{
		AgentID: "agent_001", Attribute: "environmental_concern", Value: 0.8, Step: 2880,
	}); err != nil {
		t.Fatalf("insert second step: %v", err)
	}

	history, err := s.BeliefHistory(ctx, "agent_001", "environmental_concern")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 measurements, got %d", len(history))
	}
	if history[0].Value != 0.7 {
		t.Errorf("upsert did not replace, value %f", history[0].Value)
	}

	atStep, err := s.BeliefsAtStep(ctx, 2880, "environmental_concern")
	if err != nil {
		t.Fatalf("at step: %v", err)
	}
	if len(atStep) != 1 || atStep[0].Value != 0.8 {
		t.Errorf("unexpected step query result %+v", atStep)
	}
}

func TestDirectlyTargeted_FiltersByType(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	campaigns := []*types.Campaign{
		{ID: "campaign_hope", Type: types.CampaignHope, Message: "m", LaunchStep: 1440},
		{ID: "campaign_fear", Type: types.CampaignFear, Message: "m", LaunchStep: 1440},
	}
	for _, c := range campaigns {
		if err := s.InsertCampaign(ctx, c); err != nil {
			t.Fatalf("insert campaign: %v", err)
		}
	}
	seed := []*types.CampaignExposure{
		{AgentID: "a1", PostID: "campaign_hope_a1", CampaignID: "campaign_hope", CascadeDepth: 0, Step: 1440},
		{AgentID: "a2", PostID: "campaign_fear_a2", CampaignID: "campaign_fear", CascadeDepth: 0, Step: 1440},
		{AgentID: "a3", PostID: "r1", CampaignID: "campaign_hope", CascadeDepth: 2, Step: 1500},
	}
	for _, e := range seed {
		if _, err := s.LogExposure(ctx, e); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	hope, err := s.DirectlyTargeted(ctx, types.CampaignHope)
	if err != nil {
		t.Fatalf("targeted: %v", err)
	}
	// Cascaded exposure at depth 2 is not direct targeting.
	if len(hope) != 1 || hope[0] != "a1" {
		t.Errorf("expected [a1], got %v", hope)
	}

	any, err := s.DirectlyTargeted(ctx, "")
	if err != nil {
		t.Fatalf("targeted any: %v", err)
	}
	if len(any) != 2 {
		t.Errorf("expected 2 directly targeted agents, got %v", any)
	}
}

func TestRuns_StatusLifecycle(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	run := &types.SimulationRun{
		RunID:       "run_test",
		Config:      "{}",
		TotalSteps:  100,
		TotalAgents: 10,
		Seed:        42,
	}
	if err := s.InsertRun(ctx, run); err != nil {
		t.Fatalf("insert run: %v", err)
	}
	if err := s.UpdateRunStatus(ctx, "run_test", "completed"); err != nil {
		t.Fatalf("update status: %v", err)
	}
}

func TestStats_CountsRows(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	if err := s.InsertPost(ctx, &types.Post{
		ID: "p1", AgentID: "a1", Content: "x", Type: types.PostOrganic, CreatedStep: 1,
	}); err != nil {
		t.Fatalf("insert post: %v", err)
	}
	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats["posts"] != 1 {
		t.Errorf("expected 1 post, got %d", stats["posts"])
	}
}
