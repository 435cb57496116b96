// Package simulation implements the step-driven simulation engine.
package simulation

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sueda-gl/thes/pkg/agent"
	"github.com/sueda-gl/thes/pkg/cascade"
	"github.com/sueda-gl/thes/pkg/config"
	"github.com/sueda-gl/thes/pkg/llm"
	"github.com/sueda-gl/thes/pkg/network"
	"github.com/sueda-gl/thes/pkg/platform"
	"github.com/sueda-gl/thes/pkg/store"
	"github.com/sueda-gl/thes/pkg/types"
)

// StepMetrics summarizes what happened in one step.
type StepMetrics struct {
	Step          int `json:"step"`
	OnlineAgents  int `json:"online_agents"`
	OrganicPosts  int `json:"organic_posts"`
	CampaignPosts int `json:"campaign_posts"`
	Likes         int `json:"likes"`
	Comments      int `json:"comments"`
	Reshares      int `json:"reshares"`
	Posts         int `json:"posts"`
	NewExposures  int `json:"new_exposures"`
}

// Engine orchestrates a full simulation run: population setup, the
// per-step phase loop, campaign injection, and belief measurement.
type Engine struct {
	mu sync.Mutex

	cfg      config.Config
	repo     store.Repository
	platform *platform.Platform
	tracker  *cascade.Tracker
	client   *llm.Client
	events   EventLogger
	rng      *rand.Rand

	runID  string
	agents []*agent.Agent
	byID   map[string]*agent.Agent
	graph  *network.Graph
	nodeOf map[string]int // agent ID -> graph node

	assignment       network.Assignment
	directlyTargeted []string

	metrics []StepMetrics
}

// NewEngine creates an engine over the given dependencies. The event logger
// may be nil.
func NewEngine(cfg config.Config, repo store.Repository, provider llm.Provider, events EventLogger) *Engine {
	client := llm.NewClient(provider, llm.ClientConfig{
		MaxConcurrent: cfg.MaxConcurrent,
		MaxRetries:    cfg.MaxRetries,
		Timeout:       cfg.RequestTimeout,
	})
	plat := platform.New(repo, platform.Config{
		FeedSize:         cfg.FeedSize,
		VisibilityWindow: cfg.VisibilityWindow,
	})
	return &Engine{
		cfg:      cfg,
		repo:     repo,
		platform: plat,
		tracker:  cascade.NewTracker(repo, plat),
		client:   client,
		events:   events,
		rng:      rand.New(rand.NewSource(cfg.Seed)),
		runID:    "run_" + uuid.NewString()[:8],
		byID:     make(map[string]*agent.Agent),
		nodeOf:   make(map[string]int),
	}
}

// Initialize builds the population and social graph and records the run.
func (e *Engine) Initialize(ctx context.Context) error {
	var personas []*types.Persona
	var err error
	if e.cfg.PersonaFile != "" {
		personas, err = LoadPersonas(e.cfg.PersonaFile)
		if err != nil {
			return fmt.Errorf("load personas: %w", err)
		}
		if len(personas) > e.cfg.NumAgents {
			personas = personas[:e.cfg.NumAgents]
		}
	} else {
		personas = GeneratePersonas(e.cfg.NumAgents, e.cfg.Seed)
	}
	if len(personas) != e.cfg.NumAgents {
		return fmt.Errorf("need %d personas, have %d", e.cfg.NumAgents, len(personas))
	}
	if err := e.repo.InsertPersonas(ctx, personas); err != nil {
		return fmt.Errorf("insert personas: %w", err)
	}

	agentCfg := agent.Config{
		FSM: agent.FSMConfig{
			DayMinutes:      e.cfg.DayMinutes,
			AvgLoginMinutes: e.cfg.AvgLoginMinutes,
			AvgMonthlyPosts: e.cfg.AvgMonthlyPosts,
			MonthSteps:      e.cfg.MonthSteps(),
		},
		ActivityFloor:         e.cfg.ActivityFloor,
		MemoryCap:             e.cfg.MemoryCap,
		MemoryTopK:            e.cfg.MemoryTopK,
		RecencyWeight:         e.cfg.RecencyWeight,
		RecencyDecay:          e.cfg.RecencyDecay,
		ReflectEvery:          e.cfg.ReflectEvery,
		Temperature:           e.cfg.Temperature,
		MaxTokens:             e.cfg.MaxTokens,
		ReflectionTemperature: e.cfg.ReflectionTemperature,
		ReflectionMaxTokens:   e.cfg.ReflectionMaxTokens,
		BeliefTemperature:     e.cfg.BeliefTemperature,
		BeliefMaxTokens:       e.cfg.BeliefMaxTokens,
		OrganicTemperature:    e.cfg.OrganicTemperature,
		OrganicMaxTokens:      e.cfg.OrganicMaxTokens,
	}

	// Per-agent RNGs keep agent behavior reproducible regardless of
	// goroutine scheduling elsewhere.
	e.agents = make([]*agent.Agent, len(personas))
	for i, p := range personas {
		rng := rand.New(rand.NewSource(e.cfg.Seed + int64(i)))
		a := agent.New(p, agentCfg, e.client, rng)
		a.FSM.RandomizeState()
		e.agents[i] = a
		e.byID[a.ID] = a
		e.nodeOf[a.ID] = i
	}

	if err := e.buildNetwork(ctx); err != nil {
		return err
	}

	cfgJSON, err := json.Marshal(e.cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := e.repo.InsertRun(ctx, &types.SimulationRun{
		RunID:       e.runID,
		Config:      string(cfgJSON),
		TotalSteps:  e.cfg.Steps,
		TotalAgents: e.cfg.NumAgents,
		Seed:        e.cfg.Seed,
	}); err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	log.Printf("[engine] initialized run %s: %d agents, %d steps, seed %d",
		e.runID, len(e.agents), e.cfg.Steps, e.cfg.Seed)
	return nil
}

func (e *Engine) buildNetwork(ctx context.Context) error {
	g, err := network.Build(len(e.agents), e.cfg.SeedCliqueSize, e.cfg.EdgesPerNode, e.rng)
	if err != nil {
		return fmt.Errorf("build network: %w", err)
	}
	e.graph = g

	var follows []types.Follow
	for node, followees := range g.Follows {
		for _, f := range followees {
			follows = append(follows, types.Follow{
				FollowerID: e.agents[node].ID,
				FolloweeID: e.agents[f].ID,
			})
		}
	}
	if err := e.repo.InsertFollows(ctx, follows); err != nil {
		return fmt.Errorf("insert follows: %w", err)
	}

	stats := g.Summarize()
	log.Printf("[engine] network: %d nodes, %d edges, mean degree %.1f, max %d, gamma %.2f, clustering %.3f",
		stats.Nodes, stats.Edges, stats.MeanDegree, stats.MaxDegree, stats.GammaEst, stats.Clustering)
	return nil
}

// Run executes the full step loop and finalizes the run record.
func (e *Engine) Run(ctx context.Context) error {
	start := time.Now()
	for step := 1; step <= e.cfg.Steps; step++ {
		if err := ctx.Err(); err != nil {
			_ = e.repo.UpdateRunStatus(ctx, e.runID, "aborted")
			return err
		}
		m, err := e.executeStep(ctx, step)
		if err != nil {
			_ = e.repo.UpdateRunStatus(context.WithoutCancel(ctx), e.runID, "failed")
			return fmt.Errorf("step %d: %w", step, err)
		}
		e.mu.Lock()
		e.metrics = append(e.metrics, m)
		e.mu.Unlock()

		if step%100 == 0 {
			total, failed := e.client.Usage()
			log.Printf("[engine] step %d/%d (%.1f%%) online=%d llm=%d/%d failed elapsed=%s",
				step, e.cfg.Steps, 100*float64(step)/float64(e.cfg.Steps),
				m.OnlineAgents, failed, total, time.Since(start).Round(time.Second))
		}
	}
	return e.finalize(ctx)
}

// executeStep runs the phases of one simulated minute in fixed order.
func (e *Engine) executeStep(ctx context.Context, step int) (StepMetrics, error) {
	m := StepMetrics{Step: step}

	// Belief checkpoints run on the pre-step state, before anything else
	// moves this minute.
	if e.isMeasurementStep(step) {
		if err := e.beliefCheckpoint(ctx, step); err != nil {
			return m, err
		}
	}

	for _, a := range e.agents {
		a.FSM.Tick()
		if a.FSM.Online() {
			m.OnlineAgents++
		}
	}

	if err := e.organicPostingPhase(ctx, step, &m); err != nil {
		return m, err
	}

	if step == e.cfg.CampaignLaunchStep {
		if err := e.injectCampaigns(ctx, step); err != nil {
			return m, err
		}
		m.CampaignPosts = len(e.directlyTargeted)
	}

	if err := e.observationPhase(ctx, step, &m); err != nil {
		return m, err
	}

	decisions := e.decisionPhase(ctx, step)

	if err := e.actionPhase(ctx, decisions, step, &m); err != nil {
		return m, err
	}

	return m, nil
}

// organicPostingPhase creates scheduled posts for online agents whose
// posting timers expired.
func (e *Engine) organicPostingPhase(ctx context.Context, step int, m *StepMetrics) error {
	for _, a := range e.agents {
		if !a.FSM.ShouldPost() {
			continue
		}
		content, err := a.ComposeOrganicPost(ctx)
		if err != nil || content == "" {
			// Model hiccup; the agent stays quiet and tries again later.
			a.FSM.ResetPostTimer()
			continue
		}
		post, err := e.platform.CreatePost(ctx, a.ID, content, types.PostOrganic, step)
		if err != nil {
			return fmt.Errorf("organic post by %s: %w", a.ID, err)
		}
		a.FSM.ResetPostTimer()
		m.OrganicPosts++
		e.logEvent(EventLog{Step: step, AgentID: a.ID, Phase: "organic", Action: "post", PostID: post.ID})
	}
	return nil
}

// injectCampaigns assigns balanced hope/fear target groups and injects both
// campaigns.
func (e *Engine) injectCampaigns(ctx context.Context, step int) error {
	profiles := make([]network.AgentProfile, len(e.agents))
	for i, a := range e.agents {
		profiles[i] = network.AgentProfile{
			ID:       a.ID,
			Activity: a.Activity,
			Degree:   e.graph.Degree(e.nodeOf[a.ID]),
		}
	}

	asn, err := network.AssignGroups(profiles, e.cfg.FracHope, e.cfg.FracFear, e.rng)
	if err != nil {
		return fmt.Errorf("assign campaign groups: %w", err)
	}
	if err := network.ValidateBalance(profiles, asn); err != nil {
		log.Printf("[engine] targeting balance warning: %v", err)
	}
	e.assignment = asn

	for _, c := range e.cfg.Campaigns() {
		campaign := c
		targets := asn[campaign.Type]
		campaign.LaunchStep = step
		if err := e.platform.InjectCampaign(ctx, &campaign, targets, step); err != nil {
			return fmt.Errorf("inject %s: %w", campaign.ID, err)
		}
		e.directlyTargeted = append(e.directlyTargeted, targets...)
		log.Printf("[engine] injected %s campaign to %d agents at step %d",
			campaign.Type, len(targets), step)
		e.logEvent(EventLog{Step: step, Phase: "campaign", Action: "inject",
			Detail: fmt.Sprintf("%s targets=%d", campaign.ID, len(targets))})
	}
	return nil
}

// observationPhase builds each online agent's feed, stores observations
// and memories, and records campaign exposures with cascade depth.
func (e *Engine) observationPhase(ctx context.Context, step int, m *StepMetrics) error {
	for _, a := range e.agents {
		if !a.FSM.Online() {
			continue
		}
		feed, err := e.platform.BuildFeed(ctx, a.ID, step)
		if err != nil {
			return fmt.Errorf("feed for %s: %w", a.ID, err)
		}
		if len(feed) == 0 {
			continue
		}

		a.Observe(feed, step)
		if err := e.platform.RecordObservations(ctx, a.ID, feed, step); err != nil {
			return fmt.Errorf("observations for %s: %w", a.ID, err)
		}

		recorded, err := e.tracker.ProcessFeed(ctx, a.ID, feed, step)
		if err != nil {
			return fmt.Errorf("exposures for %s: %w", a.ID, err)
		}
		m.NewExposures += recorded
	}
	return nil
}

type decision struct {
	agent  *agent.Agent
	action types.Action
}

// decisionPhase asks every online agent for a decision in parallel. The LLM
// client bounds actual request concurrency; failures scroll.
func (e *Engine) decisionPhase(ctx context.Context, step int) []decision {
	var online []*agent.Agent
	for _, a := range e.agents {
		if a.FSM.Online() {
			online = append(online, a)
		}
	}
	if len(online) == 0 {
		return nil
	}

	decisions := make([]decision, len(online))
	var wg sync.WaitGroup
	for i, a := range online {
		wg.Add(1)
		go func(i int, a *agent.Agent) {
			defer wg.Done()
			feed, err := e.platform.BuildFeed(ctx, a.ID, step)
			if err != nil {
				decisions[i] = decision{agent: a, action: types.Action{Type: types.ActionNone}}
				return
			}
			action, err := a.DecideAction(ctx, feed, step)
			if err != nil {
				action = types.Action{Type: types.ActionNone}
			}
			decisions[i] = decision{agent: a, action: action}
		}(i, a)
	}
	wg.Wait()
	return decisions
}

// actionPhase executes decided actions sequentially through the
// single-writer store.
func (e *Engine) actionPhase(ctx context.Context, decisions []decision, step int, m *StepMetrics) error {
	for _, d := range decisions {
		a, action := d.agent, d.action
		var err error
		switch action.Type {
		case types.ActionLike:
			var counted bool
			counted, err = e.platform.CreateLike(ctx, a.ID, action.PostID, step)
			if err == nil && counted {
				m.Likes++
				err = e.checkCampaignResponse(ctx, a.ID, action.PostID, types.ActionLike)
			}
		case types.ActionComment:
			_, err = e.platform.CreateComment(ctx, a.ID, action.ParentID, action.Content, step)
			if err == nil {
				m.Comments++
				err = e.checkCampaignResponse(ctx, a.ID, action.ParentID, types.ActionComment)
			}
		case types.ActionReshare:
			_, err = e.platform.CreateReshare(ctx, a.ID, action.ParentID, action.Content, step)
			if err == nil {
				m.Reshares++
				err = e.checkCampaignResponse(ctx, a.ID, action.ParentID, types.ActionReshare)
			}
		case types.ActionPost:
			_, err = e.platform.CreatePost(ctx, a.ID, action.Content, types.PostOrganic, step)
			if err == nil {
				m.Posts++
			}
		case types.ActionNone:
			continue
		}
		if err != nil {
			log.Printf("[engine] action %s by %s failed: %v", action.Type, a.ID, err)
			continue
		}
		a.RecordAction(action, step)
		e.logEvent(EventLog{Step: step, AgentID: a.ID, Phase: "action",
			Action: string(action.Type), PostID: firstNonEmpty(action.PostID, action.ParentID)})
	}
	return nil
}

// checkCampaignResponse marks the exposure responded when the acted-on post
// is itself a campaign post.
func (e *Engine) checkCampaignResponse(ctx context.Context, agentID, postID string, action types.ActionType) error {
	post, err := e.platform.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	if post != nil && post.Type == types.PostCampaign {
		return e.platform.TrackCampaignResponse(ctx, agentID, postID, action)
	}
	return nil
}

// beliefCheckpoint measures beliefs: every agent at the baseline checkpoint,
// directly targeted agents afterwards. Agents reflect first so the
// measurement reads post-synthesis state, then measurements run in parallel
// under their own concurrency bound.
func (e *Engine) beliefCheckpoint(ctx context.Context, step int) error {
	targets := e.agents
	if step > e.cfg.BeliefMeasurementSteps[0] && len(e.directlyTargeted) > 0 {
		targets = make([]*agent.Agent, 0, len(e.directlyTargeted))
		for _, id := range e.directlyTargeted {
			if a, ok := e.byID[id]; ok {
				targets = append(targets, a)
			}
		}
	}

	log.Printf("[engine] belief checkpoint at step %d: measuring %d agents", step, len(targets))

	for _, a := range targets {
		if _, err := a.Reflect(ctx, step, true); err != nil {
			log.Printf("[engine] forced reflection failed for %s: %v", a.ID, err)
		}
	}

	sem := make(chan struct{}, e.cfg.BeliefConcurrency)
	results := make([]types.BeliefMeasurement, len(targets))
	var wg sync.WaitGroup
	for i, a := range targets {
		wg.Add(1)
		go func(i int, a *agent.Agent) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = a.MeasureBelief(ctx, e.cfg.BeliefAttribute, step)
		}(i, a)
	}
	wg.Wait()

	var sum float64
	for i := range results {
		if err := e.repo.InsertBeliefMeasurement(ctx, &results[i]); err != nil {
			return fmt.Errorf("store belief for %s: %w", results[i].AgentID, err)
		}
		sum += results[i].Value
	}
	if len(results) > 0 {
		log.Printf("[engine] belief %s at step %d: mean %.3f over %d agents",
			e.cfg.BeliefAttribute, step, sum/float64(len(results)), len(results))
	}
	return nil
}

func (e *Engine) isMeasurementStep(step int) bool {
	for _, s := range e.cfg.BeliefMeasurementSteps {
		if s == step {
			return true
		}
	}
	return false
}

func (e *Engine) finalize(ctx context.Context) error {
	if err := e.repo.UpdateRunStatus(ctx, e.runID, "completed"); err != nil {
		return err
	}
	total, failed := e.client.Usage()
	log.Printf("[engine] run %s completed: %d LLM requests, %d failed", e.runID, total, failed)

	if stats, err := e.repo.Stats(ctx); err == nil {
		log.Printf("[engine] rows: posts=%d interactions=%d observations=%d exposures=%d beliefs=%d",
			stats["posts"], stats["interactions"], stats["observations"],
			stats["campaign_exposures"], stats["belief_measurements"])
	}
	return nil
}

// RunID returns this run's identifier.
func (e *Engine) RunID() string { return e.runID }

// Metrics returns the per-step metrics collected so far.
func (e *Engine) Metrics() []StepMetrics {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]StepMetrics, len(e.metrics))
	copy(out, e.metrics)
	return out
}

// Assignment returns the campaign targeting assignment, nil before launch.
func (e *Engine) Assignment() network.Assignment { return e.assignment }

func (e *Engine) logEvent(ev EventLog) {
	if e.events == nil {
		return
	}
	ev.Timestamp = time.Now()
	if err := e.events.LogEvent(ev); err != nil {
		log.Printf("[engine] event log: %v", err)
	}
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
