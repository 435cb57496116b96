package simulation

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/sueda-gl/thes/pkg/types"
)

var firstNames = []string{
	"Maya", "Liam", "Sofia", "Noah", "Ava", "Ethan", "Isabella", "Lucas",
	"Mia", "Oliver", "Amelia", "Elijah", "Harper", "James", "Evelyn",
	"Benjamin", "Abigail", "Henry", "Emily", "Alexander", "Ella", "Sebastian",
	"Scarlett", "Jack", "Grace", "Daniel", "Chloe", "Matthew", "Zoe", "Samuel",
	"Nora", "David", "Riley", "Joseph", "Lily", "Carter", "Hannah", "Owen",
	"Aria", "Wyatt",
}

var environmentalInterests = []string{
	"climate change", "renewable energy", "sustainability", "recycling",
	"conservation", "electric vehicles",
}

var generalInterests = []string{
	"technology", "cooking", "travel", "fitness", "photography", "music",
	"gaming", "gardening", "reading", "hiking", "movies", "fashion",
	"sports", "art", "finance", "parenting", "diy projects", "local news",
}

var locations = []string{
	"urban", "suburban", "rural",
}

var incomes = []string{
	"low", "middle", "upper-middle", "high",
}

// socialBehaviors with selection weights: most users are casual or lurkers,
// a small minority produce most content.
var socialBehaviors = []struct {
	name   string
	weight float64
}{
	{"lurker", 0.35},
	{"casual", 0.40},
	{"active", 0.20},
	{"power_user", 0.05},
}

// GeneratePersonas creates count personas from a seeded generator. The same
// (count, seed) pair always yields the same population.
func GeneratePersonas(count int, seed int64) []*types.Persona {
	if count <= 0 {
		return []*types.Persona{}
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	personas := make([]*types.Persona, 0, count)
	for i := 0; i < count; i++ {
		personas = append(personas, generatePersona(fmt.Sprintf("agent_%03d", i), rng))
	}
	return personas
}

func generatePersona(agentID string, rng *rand.Rand) *types.Persona {
	personality := types.Personality{
		Openness:          sampleTrait(rng, 0.5, 0.15),
		Conscientiousness: sampleTrait(rng, 0.5, 0.15),
		Extraversion:      sampleTrait(rng, 0.5, 0.15),
		Agreeableness:     sampleTrait(rng, 0.55, 0.15),
		Neuroticism:       sampleTrait(rng, 0.45, 0.15),
	}

	age := sampleAge(rng)

	// Environmental concern skews with youth and openness; brand trust with
	// agreeableness, dampened by neuroticism.
	envConcern := clamp(0.5+float64(65-age)/65*0.2+personality.Openness*0.3, 0.1, 0.95)
	brandTrust := clamp(0.5+personality.Agreeableness*0.3-personality.Neuroticism*0.2, 0.1, 0.9)

	return &types.Persona{
		AgentID:              agentID,
		Name:                 firstNames[rng.Intn(len(firstNames))],
		Age:                  age,
		Gender:               pickGender(rng),
		Location:             locations[rng.Intn(len(locations))],
		Income:               incomes[rng.Intn(len(incomes))],
		Personality:          personality,
		Interests:            pickInterests(rng),
		SocialBehavior:       pickSocialBehavior(rng),
		EnvironmentalConcern: envConcern,
		BrandTrust:           brandTrust,
	}
}

// pickInterests draws five interests with environmental topics guaranteed at
// least twice, so campaign content can plausibly intersect every agent.
func pickInterests(rng *rand.Rand) []string {
	nEnv := 2 + rng.Intn(2)

	env := append([]string(nil), environmentalInterests...)
	rng.Shuffle(len(env), func(i, j int) { env[i], env[j] = env[j], env[i] })

	other := append([]string(nil), generalInterests...)
	rng.Shuffle(len(other), func(i, j int) { other[i], other[j] = other[j], other[i] })

	out := append([]string(nil), env[:nEnv]...)
	return append(out, other[:5-nEnv]...)
}

func pickSocialBehavior(rng *rand.Rand) string {
	total := 0.0
	for _, sb := range socialBehaviors {
		total += sb.weight
	}
	r := rng.Float64() * total
	for _, sb := range socialBehaviors {
		if r < sb.weight {
			return sb.name
		}
		r -= sb.weight
	}
	return socialBehaviors[len(socialBehaviors)-1].name
}

func pickGender(rng *rand.Rand) string {
	r := rng.Float64()
	switch {
	case r < 0.48:
		return "woman"
	case r < 0.96:
		return "man"
	default:
		return "nonbinary person"
	}
}

// sampleAge draws from coarse population brackets weighted toward the
// 25-44 cohort that dominates social platforms.
func sampleAge(rng *rand.Rand) int {
	brackets := []struct {
		lo, hi int
		weight float64
	}{
		{18, 24, 0.20},
		{25, 34, 0.30},
		{35, 44, 0.25},
		{45, 54, 0.15},
		{55, 65, 0.10},
	}
	total := 0.0
	for _, b := range brackets {
		total += b.weight
	}
	r := rng.Float64() * total
	for _, b := range brackets {
		if r < b.weight {
			return b.lo + rng.Intn(b.hi-b.lo+1)
		}
		r -= b.weight
	}
	last := brackets[len(brackets)-1]
	return last.lo + rng.Intn(last.hi-last.lo+1)
}

func sampleTrait(rng *rand.Rand, mean, std float64) float64 {
	return clamp(rng.NormFloat64()*std+mean, 0.05, 0.95)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// LoadPersonas reads personas from a JSON file: either a bare array or an
// object with a "personas" key.
func LoadPersonas(path string) ([]*types.Persona, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read personas: %w", err)
	}

	var direct []*types.Persona
	if err := json.Unmarshal(data, &direct); err == nil {
		return direct, nil
	}

	var wrapped struct {
		Personas []*types.Persona `json:"personas"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("parse personas: %w", err)
	}
	if len(wrapped.Personas) == 0 {
		return nil, fmt.Errorf("no personas found in %s", path)
	}
	return wrapped.Personas, nil
}

// SavePersonas writes personas to a JSON file.
func SavePersonas(personas []*types.Persona, path string) error {
	data, err := json.MarshalIndent(personas, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal personas: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
