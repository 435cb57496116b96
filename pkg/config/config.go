// Package config provides simulation configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sueda-gl/thes/pkg/types"
)

// Config holds every tunable parameter of a simulation run as plain values.
type Config struct {
	// Run shape
	NumAgents int
	Steps     int
	Seed      int64

	// Temporal mechanics. One step is one simulated minute.
	DayMinutes      int     // minutes per simulated day
	AvgLoginMinutes float64 // daily online minutes at activity = 1.0
	AvgMonthlyPosts float64 // organic posts per month at activity = 1.0
	ActivityFloor   float64 // minimum activity; keeps offline dwell finite

	// Network (Barabási–Albert)
	SeedCliqueSize int // m0
	EdgesPerNode   int // m

	// Feed
	FeedSize         int
	VisibilityWindow int

	// Memory and reflection
	MemoryCap      int
	ReflectEvery   int
	MemoryTopK     int
	RecencyWeight  float64
	RecencyDecay   float64

	// External model
	Model          string
	Temperature    float32
	MaxTokens      int32
	MaxConcurrent  int
	MaxRetries     int
	RequestTimeout time.Duration

	ReflectionTemperature float32
	ReflectionMaxTokens   int32
	BeliefTemperature     float32
	BeliefMaxTokens       int32
	OrganicTemperature    float32
	OrganicMaxTokens      int32

	// Campaigns
	CampaignLaunchStep int
	FracHope           float64
	FracFear           float64
	HopeMessage        string
	FearMessage        string

	// Belief measurement
	BeliefMeasurementSteps []int
	BeliefAttribute        string
	BeliefConcurrency      int

	// Storage
	DBPath      string
	PersonaFile string
	EventLog    string
}

// Default returns the baseline configuration: a five-day run over 100 agents
// with campaign injection after one simulated day.
func Default() Config {
	return Config{
		NumAgents: 100,
		Steps:     7200,
		Seed:      42,

		DayMinutes:      1440,
		AvgLoginMinutes: 143,
		AvgMonthlyPosts: 15,
		ActivityFloor:   0.3,

		SeedCliqueSize: 8,
		EdgesPerNode:   8,

		FeedSize:         7,
		VisibilityWindow: 100,

		MemoryCap:     50,
		ReflectEvery:  3,
		MemoryTopK:    10,
		RecencyWeight: 0.5,
		RecencyDecay:  0.99,

		Model:          "gemini-2.0-flash",
		Temperature:    0.4,
		MaxTokens:      300,
		MaxConcurrent:  5,
		MaxRetries:     3,
		RequestTimeout: 60 * time.Second,

		ReflectionTemperature: 0.5,
		ReflectionMaxTokens:   100,
		BeliefTemperature:     0.4,
		BeliefMaxTokens:       250,
		OrganicTemperature:    0.7,
		OrganicMaxTokens:      100,

		CampaignLaunchStep: 1440,
		FracHope:           0.1,
		FracFear:           0.1,
		HopeMessage:        defaultHopeMessage,
		FearMessage:        defaultFearMessage,

		BeliefMeasurementSteps: []int{1439, 2880, 7200},
		BeliefAttribute:        "environmental_concern",
		BeliefConcurrency:      30,

		DBPath:   "data/simulation.db",
		EventLog: "data/events.jsonl",
	}
}

// FromEnv returns the default configuration with environment overrides
// applied. Call godotenv.Load beforehand if a .env file should be honored.
func FromEnv() (Config, error) {
	cfg := Default()
	cfg.NumAgents = getEnvInt("NUM_AGENTS", cfg.NumAgents)
	cfg.Steps = getEnvInt("SIMULATION_STEPS", cfg.Steps)
	cfg.Seed = int64(getEnvInt("RANDOM_SEED", int(cfg.Seed)))
	cfg.CampaignLaunchStep = getEnvInt("CAMPAIGN_LAUNCH_STEP", cfg.CampaignLaunchStep)
	cfg.MaxConcurrent = getEnvInt("LLM_MAX_CONCURRENT", cfg.MaxConcurrent)
	cfg.DBPath = getEnv("DB_PATH", cfg.DBPath)
	cfg.PersonaFile = getEnv("PERSONA_FILE", cfg.PersonaFile)
	cfg.EventLog = getEnv("EVENT_LOG", cfg.EventLog)
	cfg.Model = getEnv("GOOGLE_MODEL", cfg.Model)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks configuration invariants. Violations are fatal at startup
// and are never silently coerced.
func (c *Config) Validate() error {
	if c.NumAgents <= 0 {
		return fmt.Errorf("NumAgents must be positive, got %d", c.NumAgents)
	}
	if c.Steps <= 0 {
		return fmt.Errorf("Steps must be positive, got %d", c.Steps)
	}
	if c.EdgesPerNode < 1 {
		return fmt.Errorf("EdgesPerNode must be at least 1, got %d", c.EdgesPerNode)
	}
	if c.SeedCliqueSize < c.EdgesPerNode {
		return fmt.Errorf("SeedCliqueSize %d must be at least EdgesPerNode %d",
			c.SeedCliqueSize, c.EdgesPerNode)
	}
	if c.NumAgents < c.SeedCliqueSize {
		return fmt.Errorf("NumAgents %d must be at least SeedCliqueSize %d",
			c.NumAgents, c.SeedCliqueSize)
	}
	if c.ActivityFloor <= 0 || c.ActivityFloor > 1 {
		return fmt.Errorf("ActivityFloor must be in (0,1], got %f", c.ActivityFloor)
	}
	if c.FracHope < 0 || c.FracFear < 0 || c.FracHope+c.FracFear > 1 {
		return fmt.Errorf("campaign fractions invalid: hope=%f fear=%f", c.FracHope, c.FracFear)
	}
	if c.FeedSize <= 0 {
		return fmt.Errorf("FeedSize must be positive, got %d", c.FeedSize)
	}
	if c.VisibilityWindow <= 0 {
		return fmt.Errorf("VisibilityWindow must be positive, got %d", c.VisibilityWindow)
	}
	if c.MemoryCap <= 0 {
		return fmt.Errorf("MemoryCap must be positive, got %d", c.MemoryCap)
	}
	if c.MaxConcurrent <= 0 {
		return fmt.Errorf("MaxConcurrent must be positive, got %d", c.MaxConcurrent)
	}
	if c.RecencyDecay <= 0 || c.RecencyDecay >= 1 {
		return fmt.Errorf("RecencyDecay must be in (0,1), got %f", c.RecencyDecay)
	}
	return nil
}

// MonthSteps returns the number of simulation steps in a modeled month.
func (c *Config) MonthSteps() int {
	return 30 * c.DayMinutes
}

// Campaigns returns the hope and fear campaign definitions for a run
// launching at the configured step.
func (c *Config) Campaigns() []types.Campaign {
	return []types.Campaign{
		{ID: "campaign_hope", Type: types.CampaignHope, Message: c.HopeMessage, LaunchStep: c.CampaignLaunchStep},
		{ID: "campaign_fear", Type: types.CampaignFear, Message: c.FearMessage, LaunchStep: c.CampaignLaunchStep},
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

const defaultHopeMessage = "The great reversal has begun. " +
	"For the first time in history, renewables are outpacing fossil fuels. " +
	"Entire regions once smothered in smoke now glow with wind-powered light. " +
	"Coral reefs once declared dead are flickering back to life. " +
	"And your choice matters. " +
	"A five-minute switch to clean power adds your share to the comeback, " +
	"cutting pollution that sends thousands to hospitals each year and keeping warming below 1.5 degrees. " +
	"Be the reason your family breathes cleaner air and the planet wins its fight."

const defaultFearMessage = "This is how civilisation collapses, quietly, degree by degree. " +
	"We're on track to cross 1.5 degrees by 2030. Once that line is crossed, the world we know unravels: " +
	"cities suffocate under heat so intense the human body can't survive outdoors, " +
	"rivers that feed billions run dry, entire coastlines disappear under rising seas. " +
	"But you can still push back. " +
	"A five-minute switch to verified clean energy keeps about a tonne of CO2 out of the air each year. " +
	"The window to act is closing. Act before the tipping point becomes permanent."
