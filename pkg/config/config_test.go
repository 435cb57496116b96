package config

import (
	"testing"

	"github.com/sueda-gl/thes/pkg/types"
)

func TestDefault_Validates(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default configuration invalid: %v", err)
	}
}

func TestValidate_RejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero agents", func(c *Config) { c.NumAgents = 0 }},
		{"negative steps", func(c *Config) { c.Steps = -1 }},
		{"zero edges per node", func(c *Config) { c.EdgesPerNode = 0 }},
		{"clique below m", func(c *Config) { c.SeedCliqueSize = 2; c.EdgesPerNode = 5 }},
		{"population below clique", func(c *Config) { c.NumAgents = 4; c.SeedCliqueSize = 8 }},
		{"zero activity floor", func(c *Config) { c.ActivityFloor = 0 }},
		{"campaign fractions exceed one", func(c *Config) { c.FracHope = 0.6; c.FracFear = 0.6 }},
		{"zero feed size", func(c *Config) { c.FeedSize = 0 }},
		{"zero memory cap", func(c *Config) { c.MemoryCap = 0 }},
		{"decay of one", func(c *Config) { c.RecencyDecay = 1.0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("NUM_AGENTS", "25")
	t.Setenv("SIMULATION_STEPS", "500")
	t.Setenv("RANDOM_SEED", "7")
	t.Setenv("DB_PATH", "/tmp/custom.db")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("from env: %v", err)
	}
	if cfg.NumAgents != 25 || cfg.Steps != 500 || cfg.Seed != 7 {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
	if cfg.DBPath != "/tmp/custom.db" {
		t.Errorf("db path override not applied: %s", cfg.DBPath)
	}
	// Untouched values keep their defaults.
	if cfg.FeedSize != 7 {
		t.Errorf("feed size changed unexpectedly: %d", cfg.FeedSize)
	}
}

func TestFromEnv_IgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("NUM_AGENTS", "lots")
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("from env: %v", err)
	}
	if cfg.NumAgents != Default().NumAgents {
		t.Errorf("malformed override applied: %d", cfg.NumAgents)
	}
}

func TestMonthSteps(t *testing.T) {
	cfg := Default()
	if got := cfg.MonthSteps(); got != 43200 {
		t.Errorf("expected 43200 steps per month, got %d", got)
	}
}

func TestCampaigns_BothFramings(t *testing.T) {
	cfg := Default()
	cfg.CampaignLaunchStep = 1440
	campaigns := cfg.Campaigns()
	if len(campaigns) != 2 {
		t.Fatalf("expected 2 campaigns, got %d", len(campaigns))
	}
	seen := make(map[types.CampaignType]bool)
	for _, c := range campaigns {
		seen[c.Type] = true
		if c.Message == "" {
			t.Errorf("campaign %s has no message", c.ID)
		}
		if c.LaunchStep != 1440 {
			t.Errorf("campaign %s launches at %d", c.ID, c.LaunchStep)
		}
	}
	if !seen[types.CampaignHope] || !seen[types.CampaignFear] {
		t.Error("expected one hope and one fear campaign")
	}
}
