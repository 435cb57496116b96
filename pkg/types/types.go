// Package types defines the core data model for the campaign diffusion simulator.
package types

// PostType classifies a post on the simulated platform.
type PostType string

const (
	PostCampaign PostType = "campaign" // Injected advertisement post
	PostOrganic  PostType = "organic"  // Spontaneous agent post
	PostResponse PostType = "response" // Comment on another post
	PostReshare  PostType = "reshare"  // Repost carrying campaign lineage
)

// CampaignType defines the emotional framing of a campaign.
type CampaignType string

const (
	CampaignHope CampaignType = "hope"
	CampaignFear CampaignType = "fear"
)

// ActionType defines the actions an agent can take on its feed.
type ActionType string

const (
	ActionLike    ActionType = "like"
	ActionComment ActionType = "comment"
	ActionReshare ActionType = "reshare"
	ActionPost    ActionType = "post"
	ActionNone    ActionType = "none"
)

// MemoryKind classifies entries in an agent's memory stream.
type MemoryKind string

const (
	MemoryObservation MemoryKind = "observation"
	MemoryAction      MemoryKind = "action"
	MemoryReflection  MemoryKind = "reflection"
)

// Personality holds Big Five trait scalars in [0,1].
type Personality struct {
	Openness          float64 `json:"openness"`
	Conscientiousness float64 `json:"conscientiousness"`
	Extraversion      float64 `json:"extraversion"`
	Agreeableness     float64 `json:"agreeableness"`
	Neuroticism       float64 `json:"neuroticism"`
}

// Persona defines the identity of an agent. It is fixed at generation time;
// only measured belief values are written back during a run.
type Persona struct {
	AgentID  string `json:"agent_id"`
	Name     string `json:"name"`
	Age      int    `json:"age"`
	Gender   string `json:"gender"`
	Location string `json:"location"`
	Income   string `json:"income"`

	Personality Personality `json:"personality"`
	Interests   []string    `json:"interests"`

	// SocialBehavior is a coarse engagement class: lurker, casual,
	// active or power_user.
	SocialBehavior string `json:"social_behavior"`
	Backstory      string `json:"backstory,omitempty"`

	// Baseline belief values, updated by measurements during a run.
	EnvironmentalConcern float64 `json:"environmental_concern"`
	BrandTrust           float64 `json:"brand_trust"`
}

// BeliefValue returns the persona's current value for a tracked attribute,
// falling back to a neutral 0.5 for unknown attributes.
func (p *Persona) BeliefValue(attribute string) float64 {
	switch attribute {
	case "environmental_concern":
		return p.EnvironmentalConcern
	case "brand_trust":
		return p.BrandTrust
	}
	return 0.5
}

// SetBeliefValue writes a measured value back into the persona so later
// decisions are conditioned on the evolved belief.
func (p *Persona) SetBeliefValue(attribute string, value float64) {
	switch attribute {
	case "environmental_concern":
		p.EnvironmentalConcern = value
	case "brand_trust":
		p.BrandTrust = value
	}
}

// Post is the single polymorphic content entity. Comments and reshares are
// posts with ParentID set; parent pointers form a forest.
type Post struct {
	ID           string   `json:"post_id"`
	AgentID      string   `json:"agent_id"`
	Content      string   `json:"content"`
	Type         PostType `json:"post_type"`
	ParentID     string   `json:"parent_post_id,omitempty"`
	CreatedStep  int      `json:"created_step"`
	LikeCount    int      `json:"like_count"`
	CommentCount int      `json:"comment_count"`

	// CascadeDepth is the reshare distance from the cascade root:
	// 0 for originals, parent depth + 1 for reshares.
	CascadeDepth int `json:"cascade_depth"`
}

// Follow is a directed edge in the social graph, immutable for a run.
type Follow struct {
	FollowerID string `json:"follower_id"`
	FolloweeID string `json:"followee_id"`
}

// Interaction records a like event, unique per (agent, post).
type Interaction struct {
	AgentID     string     `json:"agent_id"`
	PostID      string     `json:"post_id"`
	Type        ActionType `json:"interaction_type"`
	CreatedStep int        `json:"created_step"`
}

// Observation records that a post appeared in an agent's feed.
type Observation struct {
	AgentID  string `json:"agent_id"`
	PostID   string `json:"post_id"`
	SeenStep int    `json:"seen_step"`
}

// Campaign is an injected messaging campaign, immutable once created.
type Campaign struct {
	ID         string       `json:"campaign_id"`
	Type       CampaignType `json:"campaign_type"`
	Message    string       `json:"message"`
	LaunchStep int          `json:"launch_step"`
}

// CampaignExposure records that an agent's feed contained a post belonging
// to a campaign's lineage. Unique per (agent, post); this uniqueness is the
// invariant that prevents exposure double-counting.
type CampaignExposure struct {
	AgentID      string     `json:"agent_id"`
	PostID       string     `json:"post_id"`
	CampaignID   string     `json:"campaign_id"`
	CascadeDepth int        `json:"cascade_depth"`
	Step         int        `json:"exposure_step"`
	Responded    bool       `json:"responded"`
	ActionType   ActionType `json:"action_type,omitempty"`
}

// BeliefMeasurement is a point-in-time, model-elicited estimate of an
// agent's stance, keyed uniquely by (agent, attribute, step).
type BeliefMeasurement struct {
	AgentID   string  `json:"agent_id"`
	Attribute string  `json:"attribute"`
	Value     float64 `json:"value"`
	Step      int     `json:"step"`
	Reasoning string  `json:"reasoning,omitempty"`
}

// Action is the structured result of parsing a model decision response.
type Action struct {
	Type ActionType `json:"type"`

	// PostID is the target for likes; ParentID for comments and reshares.
	PostID   string `json:"post_id,omitempty"`
	ParentID string `json:"parent_post_id,omitempty"`
	Content  string `json:"content,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// SimulationRun records one complete run for later analysis.
type SimulationRun struct {
	RunID       string `json:"run_id"`
	Config      string `json:"config"`
	Status      string `json:"status"`
	TotalSteps  int    `json:"total_steps"`
	TotalAgents int    `json:"total_agents"`
	Seed        int64  `json:"seed"`
}
