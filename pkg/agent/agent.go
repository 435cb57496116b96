package agent

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/sueda-gl/thes/pkg/llm"
	"github.com/sueda-gl/thes/pkg/memory"
	"github.com/sueda-gl/thes/pkg/types"
)

// Config holds the per-agent behavioral knobs.
type Config struct {
	FSM FSMConfig

	ActivityFloor float64

	MemoryCap     int
	MemoryTopK    int
	RecencyWeight float64
	RecencyDecay  float64
	ReflectEvery  int

	Temperature float32
	MaxTokens   int32

	ReflectionTemperature float32
	ReflectionMaxTokens   int32
	BeliefTemperature     float32
	BeliefMaxTokens       int32
	OrganicTemperature    float32
	OrganicMaxTokens      int32
}

// Agent is one simulated platform user: a fixed persona, a temporal state
// machine, a bounded memory stream, and a language model it consults for
// decisions.
type Agent struct {
	ID       string
	Persona  *types.Persona
	Activity float64
	FSM      *FSM
	Memory   *memory.Stream

	cfg      Config
	provider llm.Provider

	mu                 sync.Mutex
	lastReflection     string
	lastReflectionStep int
}

// New creates an agent from a persona. Activity is drawn uniformly from
// [floor, 1.0], modeling an engaged-user subset.
func New(persona *types.Persona, cfg Config, provider llm.Provider, rng *rand.Rand) *Agent {
	activity := cfg.ActivityFloor + rng.Float64()*(1.0-cfg.ActivityFloor)
	return &Agent{
		ID:                 persona.AgentID,
		Persona:            persona,
		Activity:           activity,
		FSM:                NewFSM(activity, cfg.FSM, rng),
		Memory:             memory.NewStream(cfg.MemoryCap, cfg.RecencyWeight, cfg.RecencyDecay),
		cfg:                cfg,
		provider:           provider,
		lastReflectionStep: -1,
	}
}

// Observe records each feed post as an observation memory.
func (a *Agent) Observe(feed []*types.Post, step int) {
	for _, post := range feed {
		preview := post.Content
		if len(preview) > 80 {
			cut := 80
			for cut > 0 && !utf8.RuneStart(preview[cut]) {
				cut--
			}
			preview = preview[:cut]
		}
		var desc string
		if post.Type == types.PostCampaign {
			desc = fmt.Sprintf("Saw campaign post: '%s'", preview)
		} else {
			desc = fmt.Sprintf("Saw post by %s: '%s'", post.AgentID, preview)
		}
		a.Memory.Record(memory.Entry{
			Kind:    types.MemoryObservation,
			Content: desc,
			Step:    step,
			Importance: memory.Importance(
				post.Content, types.MemoryObservation,
				post.Type == types.PostCampaign,
				post.LikeCount+post.CommentCount,
				a.Persona.Interests,
			),
		}, step)
	}
}

// DecideAction asks the model what the agent does with the given feed.
// Reflection runs first on its own schedule; a failed completion means the
// agent just scrolls.
func (a *Agent) DecideAction(ctx context.Context, feed []*types.Post, step int) (types.Action, error) {
	reflection, err := a.Reflect(ctx, step, false)
	if err != nil {
		reflection = "" // decide without it
	}

	prompt := llm.DecisionPrompt(a.Persona, feed, reflection)
	response, err := a.provider.Complete(ctx, prompt, llm.Options{
		Temperature: a.cfg.Temperature,
		MaxTokens:   a.cfg.MaxTokens,
	})
	if err != nil {
		return types.Action{Type: types.ActionNone, Reason: "generation failed"}, err
	}
	return llm.ParseAction(response, feed), nil
}

// RecordAction stores an executed action in memory. Scrolling past is not
// remembered.
func (a *Agent) RecordAction(action types.Action, step int) {
	if action.Type == types.ActionNone {
		return
	}

	reason := action.Reason
	if reason == "" {
		reason = "N/A"
	}
	content := action.Content
	if len(content) > 60 {
		content = content[:60]
	}

	var desc string
	switch action.Type {
	case types.ActionLike:
		desc = fmt.Sprintf("I liked a post (reason: %s)", reason)
	case types.ActionComment:
		desc = fmt.Sprintf("I commented: '%s' (reason: %s)", content, reason)
	case types.ActionPost:
		desc = fmt.Sprintf("I created post: '%s' (reason: %s)", content, reason)
	case types.ActionReshare:
		desc = fmt.Sprintf("I reshared a post (reason: %s)", reason)
	default:
		desc = fmt.Sprintf("I took action: %s", action.Type)
	}

	a.Memory.Record(memory.Entry{
		Kind:       types.MemoryAction,
		Content:    desc,
		Step:       step,
		Importance: memory.Importance(action.Content, types.MemoryAction, false, 0, a.Persona.Interests),
	}, step)
}

// Reflect synthesizes recent memories into a short first-person reflection
// and stores it back into the stream. On the normal schedule it runs every
// ReflectEvery steps; force bypasses the schedule (used right before belief
// measurement). Returns "" when reflection is skipped.
func (a *Agent) Reflect(ctx context.Context, step int, force bool) (string, error) {
	if a.Memory.Len() < 3 {
		return "", nil
	}
	if !force {
		a.mu.Lock()
		due := step%a.cfg.ReflectEvery == 0 && step-a.lastReflectionStep >= a.cfg.ReflectEvery
		a.mu.Unlock()
		if !due {
			return a.LastReflection(), nil
		}
	}

	retrieved := a.Memory.Retrieve(a.cfg.MemoryTopK, step)
	if len(retrieved) == 0 {
		return "", nil
	}
	mems := make([]llm.ReflectionMemory, len(retrieved))
	for i, m := range retrieved {
		mems[i] = llm.ReflectionMemory{
			Content:    m.Content,
			Age:        step - m.Step,
			Importance: m.Importance,
		}
	}

	prompt := llm.ReflectionPrompt(a.Persona, mems)
	text, err := a.provider.Complete(ctx, prompt, llm.Options{
		Temperature: a.cfg.ReflectionTemperature,
		MaxTokens:   a.cfg.ReflectionMaxTokens,
	})
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}

	a.Memory.Record(memory.Entry{
		Kind:       types.MemoryReflection,
		Content:    text,
		Step:       step,
		Importance: 0.8,
	}, step)

	a.mu.Lock()
	a.lastReflection = text
	a.lastReflectionStep = step
	a.mu.Unlock()
	return text, nil
}

// LastReflection returns the most recent reflection text, or "".
func (a *Agent) LastReflection() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastReflection
}

// MeasureBelief elicits the agent's current stance on an attribute as a
// value in [0, 1]. The measured value is written back into the persona so
// later decisions see the updated belief. A failed elicitation falls back
// to the persona's current baseline.
func (a *Agent) MeasureBelief(ctx context.Context, attribute string, step int) types.BeliefMeasurement {
	var memoryContext string
	if a.Memory.Len() > 0 {
		var lines []string
		for _, m := range a.Memory.Retrieve(5, step) {
			lines = append(lines, fmt.Sprintf("- %s (%d steps ago)", m.Content, step-m.Step))
		}
		memoryContext = strings.Join(lines, "\n")
	}

	prompt := llm.BeliefPrompt(a.Persona, attribute, memoryContext)
	response, err := a.provider.Complete(ctx, prompt, llm.Options{
		Temperature: a.cfg.BeliefTemperature,
		MaxTokens:   a.cfg.BeliefMaxTokens,
	})

	var value float64
	var thoughts string
	if err != nil || strings.TrimSpace(response) == "" {
		value = a.Persona.BeliefValue(attribute)
		thoughts = "Failed to generate belief assessment"
	} else {
		value, thoughts = llm.ParseBelief(response)
	}

	a.Persona.SetBeliefValue(attribute, value)

	return types.BeliefMeasurement{
		AgentID:   a.ID,
		Attribute: attribute,
		Value:     value,
		Step:      step,
		Reasoning: thoughts,
	}
}

// ComposeOrganicPost asks the model for a spontaneous post in the agent's
// voice, falling back to an interest template when generation fails.
func (a *Agent) ComposeOrganicPost(ctx context.Context) (string, error) {
	prompt := llm.OrganicPostPrompt(a.Persona)
	text, err := a.provider.Complete(ctx, prompt, llm.Options{
		Temperature: a.cfg.OrganicTemperature,
		MaxTokens:   a.cfg.OrganicMaxTokens,
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", err
		}
		return a.templatePost(), nil
	}
	if strings.TrimSpace(text) == "" {
		return a.templatePost(), nil
	}
	return llm.Truncate(strings.TrimSpace(text)), nil
}

func (a *Agent) templatePost() string {
	if len(a.Persona.Interests) == 0 {
		return "Just another day."
	}
	return fmt.Sprintf("Been thinking about %s a lot lately.", a.Persona.Interests[0])
}
