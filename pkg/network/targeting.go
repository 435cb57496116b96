package network

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/sueda-gl/thes/pkg/types"
)

// AgentProfile is the slice of an agent the targeting step needs: who they
// are, how active they are, and how connected they are.
type AgentProfile struct {
	ID       string
	Activity float64
	Degree   int
}

// Assignment maps campaign types to the agent IDs directly targeted by that
// campaign. Agents absent from every group form the organic control.
type Assignment map[types.CampaignType][]string

// Targeted reports whether agentID is directly targeted by any campaign.
func (a Assignment) Targeted(agentID string) (types.CampaignType, bool) {
	for ct, ids := range a {
		for _, id := range ids {
			if id == agentID {
				return ct, true
			}
		}
	}
	return "", false
}

// AssignGroups splits agents into hope-targeted, fear-targeted and control
// groups using stratified sampling over activity and degree quantiles, so
// that neither campaign is handed a systematically more active or more
// connected audience.
func AssignGroups(agents []AgentProfile, fracHope, fracFear float64, rng *rand.Rand) (Assignment, error) {
	n := len(agents)
	nHope := int(math.Round(float64(n) * fracHope))
	nFear := int(math.Round(float64(n) * fracFear))
	if nHope+nFear > n {
		return nil, fmt.Errorf("targeting: group sizes %d+%d exceed population %d", nHope, nFear, n)
	}

	// Strata are the cross product of activity and degree terciles. With
	// ~100 agents, terciles keep every stratum populated enough to draw
	// both groups from it.
	strata := stratify(agents, 3)

	hope := make([]string, 0, nHope)
	fear := make([]string, 0, nFear)
	for _, stratum := range strata {
		rng.Shuffle(len(stratum), func(i, j int) {
			stratum[i], stratum[j] = stratum[j], stratum[i]
		})
		sh := int(math.Round(float64(len(stratum)) * fracHope))
		sf := int(math.Round(float64(len(stratum)) * fracFear))
		for i := 0; i < sh && i < len(stratum); i++ {
			hope = append(hope, stratum[i].ID)
		}
		for i := sh; i < sh+sf && i < len(stratum); i++ {
			fear = append(fear, stratum[i].ID)
		}
	}

	// Per-stratum rounding can drift a seat or two from the global quota;
	// top up from untargeted agents, trim overshoot from the back.
	hope, fear = rebalance(agents, hope, fear, nHope, nFear, rng)

	asn := Assignment{
		types.CampaignHope: hope,
		types.CampaignFear: fear,
	}
	if err := ValidateBalance(agents, asn); err != nil {
		return nil, err
	}
	return asn, nil
}

// ValidateBalance rejects assignments whose groups differ materially in mean
// activity (absolute difference above 0.05) or mean degree (relative
// difference above 20%).
func ValidateBalance(agents []AgentProfile, asn Assignment) error {
	byID := make(map[string]AgentProfile, len(agents))
	for _, a := range agents {
		byID[a.ID] = a
	}
	stats := func(ids []string) (meanAct, meanDeg float64) {
		if len(ids) == 0 {
			return 0, 0
		}
		for _, id := range ids {
			meanAct += byID[id].Activity
			meanDeg += float64(byID[id].Degree)
		}
		meanAct /= float64(len(ids))
		meanDeg /= float64(len(ids))
		return
	}
	hopeAct, hopeDeg := stats(asn[types.CampaignHope])
	fearAct, fearDeg := stats(asn[types.CampaignFear])

	if diff := math.Abs(hopeAct - fearAct); diff > 0.05 {
		return fmt.Errorf("targeting: activity imbalance %.3f between hope (%.3f) and fear (%.3f)",
			diff, hopeAct, fearAct)
	}
	denom := math.Max(hopeDeg, fearDeg)
	if denom > 0 {
		if rel := math.Abs(hopeDeg-fearDeg) / denom; rel > 0.20 {
			return fmt.Errorf("targeting: degree imbalance %.1f%% between hope (%.1f) and fear (%.1f)",
				100*rel, hopeDeg, fearDeg)
		}
	}
	return nil
}

// stratify buckets agents by (activity quantile, degree quantile).
func stratify(agents []AgentProfile, q int) [][]AgentProfile {
	actRank := rankOf(agents, func(a AgentProfile) float64 { return a.Activity })
	degRank := rankOf(agents, func(a AgentProfile) float64 { return float64(a.Degree) })

	n := len(agents)
	buckets := make(map[[2]int][]AgentProfile)
	for _, a := range agents {
		key := [2]int{
			quantileBucket(actRank[a.ID], n, q),
			quantileBucket(degRank[a.ID], n, q),
		}
		buckets[key] = append(buckets[key], a)
	}

	keys := make([][2]int, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})
	out := make([][]AgentProfile, 0, len(keys))
	for _, k := range keys {
		out = append(out, buckets[k])
	}
	return out
}

func rankOf(agents []AgentProfile, key func(AgentProfile) float64) map[string]int {
	idx := make([]int, len(agents))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		ki, kj := key(agents[idx[i]]), key(agents[idx[j]])
		if ki != kj {
			return ki < kj
		}
		return agents[idx[i]].ID < agents[idx[j]].ID
	})
	ranks := make(map[string]int, len(agents))
	for r, i := range idx {
		ranks[agents[i].ID] = r
	}
	return ranks
}

func quantileBucket(rank, n, q int) int {
	b := rank * q / n
	if b >= q {
		b = q - 1
	}
	return b
}

func rebalance(agents []AgentProfile, hope, fear []string, nHope, nFear int, rng *rand.Rand) ([]string, []string) {
	taken := make(map[string]bool, len(hope)+len(fear))
	for _, id := range hope {
		taken[id] = true
	}
	for _, id := range fear {
		taken[id] = true
	}
	var pool []string
	for _, a := range agents {
		if !taken[a.ID] {
			pool = append(pool, a.ID)
		}
	}
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	for len(hope) > nHope {
		hope = hope[:len(hope)-1]
	}
	for len(fear) > nFear {
		fear = fear[:len(fear)-1]
	}
	for len(hope) < nHope && len(pool) > 0 {
		hope = append(hope, pool[0])
		pool = pool[1:]
	}
	for len(fear) < nFear && len(pool) > 0 {
		fear = append(fear, pool[0])
		pool = pool[1:]
	}
	return hope, fear
}
