package llm

import (
	"fmt"
	"strings"

	"github.com/sueda-gl/thes/pkg/types"
)

// DecisionPrompt builds the feed-reaction prompt for an agent: persona
// framing, the numbered feed, and the five-option action menu.
func DecisionPrompt(p *types.Persona, feed []*types.Post, reflection string) string {
	var b strings.Builder

	if p.Backstory != "" {
		fmt.Fprintf(&b, "You are %s. %s\n\n", p.Name, p.Backstory)
		fmt.Fprintf(&b, "Your interests include %s.", joinInterests(p.Interests))
	} else {
		fmt.Fprintf(&b, "You are %s, a %d-year-old %s.\n\n", p.Name, p.Age, p.Gender)
		b.WriteString("Your personality:\n")
		fmt.Fprintf(&b, "- You have %s openness to new ideas\n", levelWord(p.Personality.Openness))
		fmt.Fprintf(&b, "- You have %s emotional sensitivity\n", levelWord(p.Personality.Neuroticism))
		fmt.Fprintf(&b, "- You are %s\n", socialWord(p.Personality.Extraversion))
		fmt.Fprintf(&b, "- Your social media behavior is typically %s\n\n", p.SocialBehavior)
		fmt.Fprintf(&b, "Your interests include %s.\n\n", joinInterests(p.Interests))
		b.WriteString("Your values and attitudes:\n")
		fmt.Fprintf(&b, "- %s\n", environmentalStance(p.EnvironmentalConcern))
		fmt.Fprintf(&b, "- You have %s in brands and sponsored content", trustWord(p.BrandTrust))
	}

	if reflection != "" {
		fmt.Fprintf(&b, "\n\nYour recent thoughts: %s", reflection)
	}

	b.WriteString("\n\nYour social media feed shows:\n\n")
	b.WriteString(FormatFeed(feed))

	b.WriteString(`
What do you do? Respond authentically based on who you are and how you actually think and speak.

Options:
A) Like one of these posts
B) Comment on a post (say what you're really thinking - be yourself, not corporate)
C) Share/repost with your own take
D) Create your own post about something on your mind
E) Just scroll (not feeling it right now)

Respond in this format:

ACTION: [A/B/C/D/E]
POST_NUMBER: [if A, B, or C]
CONTENT: [your actual words - be honest, be you, don't be fake]
REASON: [why this matters to you]

Your response:`)
	return b.String()
}

// FormatFeed renders posts one-indexed the way decision prompts show them.
func FormatFeed(feed []*types.Post) string {
	if len(feed) == 0 {
		return "(Your feed is empty right now)\n"
	}
	var b strings.Builder
	for i, post := range feed {
		if post.Type == types.PostCampaign {
			fmt.Fprintf(&b, "%d. [Campaign Post]: %q\n", i+1, post.Content)
		} else {
			fmt.Fprintf(&b, "%d. [Post by %s]: %q\n", i+1, post.AgentID, post.Content)
		}
		fmt.Fprintf(&b, "   Likes: %d | Comments: %d\n\n", post.LikeCount, post.CommentCount)
	}
	return b.String()
}

// ReflectionMemory is one retrieved memory rendered into a reflection prompt.
type ReflectionMemory struct {
	Content    string
	Age        int // steps since the memory was formed
	Importance float64
}

// ReflectionPrompt asks the agent to compress recent memories into a short
// first-person reflection.
func ReflectionPrompt(p *types.Persona, memories []ReflectionMemory) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, %d years old, reflecting on your recent social media activity.\n\n", p.Name, p.Age)
	b.WriteString("Your personality traits:\n")
	fmt.Fprintf(&b, "- Openness: %.2f\n", p.Personality.Openness)
	fmt.Fprintf(&b, "- Emotional sensitivity (neuroticism): %.2f\n", p.Personality.Neuroticism)
	fmt.Fprintf(&b, "- Social tendency (extraversion): %.2f\n\n", p.Personality.Extraversion)
	b.WriteString("Below are your most relevant memories from the past few steps (ranked by importance and recency):\n\n")

	if len(memories) == 0 {
		b.WriteString("(No memories to reflect on)\n")
	}
	for i, m := range memories {
		fmt.Fprintf(&b, "%d. [%d steps ago, importance: %.2f] %s\n", i+1, m.Age, m.Importance, m.Content)
	}

	b.WriteString(`
Based on these memories, write a brief 1-2 sentence reflection that captures:
- Your recent behavior patterns (active/inactive, what you engaged with)
- Any themes or topics you've been noticing
- Your current emotional state or thoughts about the content

Your reflection should:
- Be in first person and conversational
- Reflect your personality
- Be specific about what you saw or did, not generic
- Be honest about your feelings

Your reflection (1-2 sentences):`)
	return b.String()
}

// BeliefPrompt builds the belief-elicitation prompt for the given attribute.
// The persona's baseline stance is always included so responses stay anchored
// to who the agent is rather than collapsing toward a population median.
func BeliefPrompt(p *types.Persona, attribute, memoryContext string) string {
	var b strings.Builder

	if attribute == "environmental_concern" {
		if p.Backstory != "" {
			fmt.Fprintf(&b, "You are %s. %s\n\n", p.Name, p.Backstory)
			b.WriteString("Your current environmental stance based on your background and experiences:\n")
			fmt.Fprintf(&b, "- %s", concernBaseline(p.EnvironmentalConcern))
		} else {
			fmt.Fprintf(&b, "You are %s, a %d-year-old person.\n\n", p.Name, p.Age)
			b.WriteString("Your personality:\n")
			fmt.Fprintf(&b, "- You have %s openness to new ideas\n", levelWord(p.Personality.Openness))
			fmt.Fprintf(&b, "- You have %s emotional sensitivity\n", levelWord(p.Personality.Neuroticism))
			fmt.Fprintf(&b, "- Your interests include: %s\n\n", joinInterests(p.Interests))
			b.WriteString("Your environmental stance:\n")
			fmt.Fprintf(&b, "- %s", concernBaseline(p.EnvironmentalConcern))
		}
		if memoryContext != "" {
			fmt.Fprintf(&b, "\n\nRecent experiences on social media:\n%s", memoryContext)
		}
		b.WriteString(`

Please describe your current thoughts and feelings about environmental issues and
climate change, considering both your background and any recent experiences.

Be specific about:
- How important these issues are to you right now
- Whether you feel motivated to take action
- How you've been thinking about this recently
- Any influences (posts, campaigns, discussions) that shaped your views

After your description, provide a summary rating from 0-10 that reflects your
overall level of environmental concern.

Respond in this exact format:
THOUGHTS: [2-3 sentences describing your current stance and feelings]
RATING: [0-10]

Your response:`)
		return b.String()
	}

	if attribute == "brand_trust" {
		fmt.Fprintf(&b, "You are %s, %d years old.\n\n", p.Name, p.Age)
		b.WriteString(`Please reflect honestly on your current trust in brands and sponsored content on social media.

On a scale from 0 to 10:
- 0 = No trust in brands or sponsored content at all
- 5 = Moderate trust, depends on the brand
- 10 = High trust in brands and believe sponsored content is valuable

Respond in this exact format:
THOUGHTS: [1-2 sentences explaining your current stance]
RATING: [your number from 0-10]

Your response:`)
		return b.String()
	}

	fmt.Fprintf(&b, "You are %s, %d years old.\n\n", p.Name, p.Age)
	fmt.Fprintf(&b, "Please reflect on your current attitude toward %s.\n\n", attribute)
	b.WriteString(`On a scale from 0 to 10 (0 = very negative, 10 = very positive), how would you rate your current stance?

Respond in this exact format:
THOUGHTS: [1-2 sentences explaining your current stance]
RATING: [your number from 0-10]

Your response:`)
	return b.String()
}

// OrganicPostPrompt asks the agent for a spontaneous post about their own
// interests, independent of the feed.
func OrganicPostPrompt(p *types.Persona) string {
	var b strings.Builder
	if p.Backstory != "" {
		fmt.Fprintf(&b, "You are %s. %s\n\n", p.Name, p.Backstory)
	} else {
		fmt.Fprintf(&b, "You are %s, a %d-year-old %s who is %s on social media.\n\n",
			p.Name, p.Age, p.Gender, p.SocialBehavior)
	}
	fmt.Fprintf(&b, "Your interests include %s.\n\n", joinInterests(p.Interests))
	b.WriteString(`Write a short social media post (under 280 characters) about something
on your mind right now. Be authentic to who you are. Do not use hashtags
unless that's genuinely your style.

Your post:`)
	return b.String()
}

func joinInterests(interests []string) string {
	if len(interests) > 3 {
		interests = interests[:3]
	}
	return strings.Join(interests, ", ")
}

func levelWord(v float64) string {
	switch {
	case v > 0.7:
		return "high"
	case v > 0.4:
		return "moderate"
	default:
		return "low"
	}
}

func socialWord(v float64) string {
	switch {
	case v > 0.7:
		return "very social"
	case v > 0.4:
		return "moderately social"
	default:
		return "reserved"
	}
}

func trustWord(v float64) string {
	switch {
	case v > 0.7:
		return "high trust"
	case v > 0.5:
		return "moderate trust"
	default:
		return "low trust"
	}
}

func environmentalStance(v float64) string {
	switch {
	case v > 0.8:
		return "You are deeply committed to environmental protection and climate action"
	case v > 0.6:
		return "You care about the environment and try to make sustainable choices"
	case v > 0.4:
		return "You're aware of environmental issues but they're not a top priority for you"
	case v > 0.2:
		return "You're somewhat skeptical about environmental activism and climate concerns"
	default:
		return "You're highly skeptical of environmental movements and climate messaging"
	}
}

func concernBaseline(v float64) string {
	switch {
	case v > 0.7:
		return "You've always been deeply committed to environmental protection and climate action"
	case v > 0.5:
		return "You care about the environment and try to make sustainable choices"
	case v > 0.3:
		return "You're aware of environmental issues but they're not a top priority for you"
	case v > 0.15:
		return "You're somewhat skeptical about environmental activism and climate concerns"
	default:
		return "You're highly skeptical of environmental movements and climate messaging"
	}
}
