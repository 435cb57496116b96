package network

import (
	"math/rand"
	"testing"

	"github.com/sueda-gl/thes/pkg/types"
)

func uniformProfiles(n int) []AgentProfile {
	out := make([]AgentProfile, n)
	for i := range out {
		out[i] = AgentProfile{
			ID:       profileID(i),
			Activity: 0.5,
			Degree:   8,
		}
	}
	return out
}

func profileID(i int) string {
	return "agent_" + string(rune('a'+i/26)) + string(rune('a'+i%26))
}

func TestAssignGroups_QuotasAndDisjointness(t *testing.T) {
	profiles := uniformProfiles(60)
	asn, err := AssignGroups(profiles, 0.1, 0.1, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("assign: %v", err)
	}

	hope := asn[types.CampaignHope]
	fear := asn[types.CampaignFear]
	if len(hope) != 6 {
		t.Errorf("expected 6 hope targets, got %d", len(hope))
	}
	if len(fear) != 6 {
		t.Errorf("expected 6 fear targets, got %d", len(fear))
	}

	seen := make(map[string]bool)
	for _, id := range hope {
		seen[id] = true
	}
	for _, id := range fear {
		if seen[id] {
			t.Errorf("agent %s targeted by both campaigns", id)
		}
	}
}

func TestAssignGroups_RejectsOversizedGroups(t *testing.T) {
	profiles := uniformProfiles(10)
	if _, err := AssignGroups(profiles, 0.6, 0.6, rand.New(rand.NewSource(1))); err == nil {
		t.Error("expected error when group fractions exceed the population")
	}
}

func TestAssignGroups_BalancedOnVariedPopulation(t *testing.T) {
	// Mild activity spread; any proportional draw stays inside the
	// validation tolerance, so a failure here means the stratification or
	// rebalance logic broke, not the dice.
	rng := rand.New(rand.NewSource(42))
	profiles := make([]AgentProfile, 120)
	for i := range profiles {
		profiles[i] = AgentProfile{
			ID:       profileID(i),
			Activity: 0.48 + 0.04*float64(i)/float64(len(profiles)),
			Degree:   8,
		}
	}
	asn, err := AssignGroups(profiles, 0.1, 0.1, rng)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if err := ValidateBalance(profiles, asn); err != nil {
		t.Errorf("assignment failed its own balance check: %v", err)
	}
}

func TestValidateBalance_DetectsActivitySkew(t *testing.T) {
	profiles := []AgentProfile{
		{ID: "a", Activity: 0.9, Degree: 8},
		{ID: "b", Activity: 0.9, Degree: 8},
		{ID: "c", Activity: 0.3, Degree: 8},
		{ID: "d", Activity: 0.3, Degree: 8},
	}
	asn := Assignment{
		types.CampaignHope: {"a", "b"},
		types.CampaignFear: {"c", "d"},
	}
	if err := ValidateBalance(profiles, asn); err == nil {
		t.Error("expected activity imbalance to be rejected")
	}
}

func TestValidateBalance_DetectsDegreeSkew(t *testing.T) {
	profiles := []AgentProfile{
		{ID: "a", Activity: 0.5, Degree: 40},
		{ID: "b", Activity: 0.5, Degree: 40},
		{ID: "c", Activity: 0.5, Degree: 4},
		{ID: "d", Activity: 0.5, Degree: 4},
	}
	asn := Assignment{
		types.CampaignHope: {"a", "b"},
		types.CampaignFear: {"c", "d"},
	}
	if err := ValidateBalance(profiles, asn); err == nil {
		t.Error("expected degree imbalance to be rejected")
	}
}

func TestAssignment_Targeted(t *testing.T) {
	asn := Assignment{
		types.CampaignHope: {"a"},
		types.CampaignFear: {"b"},
	}
	if ct, ok := asn.Targeted("a"); !ok || ct != types.CampaignHope {
		t.Errorf("expected (hope, true), got (%s, %v)", ct, ok)
	}
	if _, ok := asn.Targeted("z"); ok {
		t.Error("untargeted agent reported as targeted")
	}
}

func TestQuantileBucket_Bounds(t *testing.T) {
	n, q := 100, 3
	for rank := 0; rank < n; rank++ {
		b := quantileBucket(rank, n, q)
		if b < 0 || b >= q {
			t.Fatalf("rank %d mapped to bucket %d outside [0,%d)", rank, b, q)
		}
	}
	// Terciles of 100 split 34/33/33.
	if b := quantileBucket(0, n, q); b != 0 {
		t.Errorf("lowest rank in bucket %d", b)
	}
	if b := quantileBucket(n-1, n, q); b != q-1 {
		t.Errorf("highest rank in bucket %d", b)
	}
}
