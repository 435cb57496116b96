package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sueda-gl/thes/pkg/cascade"
	"github.com/sueda-gl/thes/pkg/config"
	"github.com/sueda-gl/thes/pkg/llm"
	"github.com/sueda-gl/thes/pkg/simulation"
	"github.com/sueda-gl/thes/pkg/store"
)

func main() {
	// Load .env
	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Flags override environment
	agents := flag.Int("agents", cfg.NumAgents, "Number of agents")
	steps := flag.Int("steps", cfg.Steps, "Number of simulation steps (minutes)")
	seed := flag.Int64("seed", cfg.Seed, "Random seed")
	launch := flag.Int("launch", cfg.CampaignLaunchStep, "Campaign launch step")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	personas := flag.String("personas", cfg.PersonaFile, "Persona JSON file (generated if empty)")
	mock := flag.Bool("mock", false, "Use a canned mock model instead of Gemini")
	flag.Parse()

	cfg.NumAgents = *agents
	cfg.Steps = *steps
	cfg.Seed = *seed
	cfg.CampaignLaunchStep = *launch
	cfg.DBPath = *dbPath
	cfg.PersonaFile = *personas
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	fmt.Println("=== Hope vs Fear Campaign Simulation ===")
	fmt.Printf("Agents: %d  Steps: %d  Seed: %d  Launch: step %d\n\n",
		cfg.NumAgents, cfg.Steps, cfg.Seed, cfg.CampaignLaunchStep)

	repo, err := store.NewSQLite(cfg.DBPath, nil)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer repo.Close()

	var provider llm.Provider
	if *mock {
		provider = mockProvider()
	} else {
		provider, err = llm.NewGeminiProvider(context.Background(), llm.GeminiConfig{Model: cfg.Model})
		if err != nil {
			log.Fatalf("Failed to create Gemini provider: %v", err)
		}
	}

	events, err := simulation.NewJSONLLogger(cfg.EventLog)
	if err != nil {
		log.Fatalf("Failed to open event log: %v", err)
	}
	defer events.Close()

	engine := simulation.NewEngine(cfg, repo, provider, events)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := engine.Initialize(ctx); err != nil {
		log.Fatalf("Initialization failed: %v", err)
	}

	startTime := time.Now()
	if err := engine.Run(ctx); err != nil {
		log.Fatalf("Simulation failed: %v", err)
	}
	elapsed := time.Since(startTime)

	fmt.Println("\n=== Simulation Complete ===")
	fmt.Printf("Run: %s\n", engine.RunID())
	fmt.Printf("Duration: %v\n\n", elapsed.Round(time.Second))

	printSummary(ctx, repo, engine)
}

// printSummary reports campaign reach and belief movement at the end of a run.
func printSummary(ctx context.Context, repo store.Repository, engine *simulation.Engine) {
	tracker := cascade.NewTracker(repo, nil)

	fmt.Println("Campaign Reach:")
	for _, id := range []string{"campaign_hope", "campaign_fear"} {
		stats, err := tracker.CampaignReach(ctx, id)
		if err != nil {
			log.Printf("Warning: reach for %s: %v", id, err)
			continue
		}
		fmt.Printf("  %s: %d exposed (%d direct, %d cascaded), %d responded, max depth %d\n",
			id, stats.Total, stats.Direct, stats.Cascaded, stats.Responded, stats.MaxDepth)
	}

	fmt.Println("\nBelief Trajectory (mean environmental_concern):")
	for _, step := range []int{1439, 2880, 7200} {
		beliefs, err := repo.BeliefsAtStep(ctx, step, "environmental_concern")
		if err != nil || len(beliefs) == 0 {
			continue
		}
		var sum float64
		for _, b := range beliefs {
			sum += b.Value
		}
		fmt.Printf("  step %5d: %.3f (n=%d)\n", step, sum/float64(len(beliefs)), len(beliefs))
	}

	counts := map[string]int{}
	for _, m := range engine.Metrics() {
		counts["organic"] += m.OrganicPosts + m.Posts
		counts["likes"] += m.Likes
		counts["comments"] += m.Comments
		counts["reshares"] += m.Reshares
	}
	fmt.Println("\nActivity Totals:")
	fmt.Printf("  posts: %d  likes: %d  comments: %d  reshares: %d\n",
		counts["organic"], counts["likes"], counts["comments"], counts["reshares"])
}

// mockProvider returns canned responses so a dry run exercises the full
// pipeline without API access.
func mockProvider() llm.Provider {
	return llm.NewMockProvider("Thinking about my day.").
		Respond("Options:", "ACTION: E\nREASON: just browsing today").
		Respond("RATING", "THOUGHTS: I care about this somewhat.\nRATING: 5/10")
}
