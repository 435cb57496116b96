// Package memory implements the bounded, importance-scored memory stream
// each agent carries through the simulation.
package memory

import (
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/sueda-gl/thes/pkg/types"
)

// Entry is a single remembered event.
type Entry struct {
	Kind       types.MemoryKind `json:"kind"`
	Content    string           `json:"content"`
	Step       int              `json:"step"`
	Importance float64          `json:"importance"`
}

// Stream is an agent's memory: a capped list of entries ranked by a blend of
// importance and recency. Eviction removes the lowest-ranked entry, so what
// an agent forgets first is old, unimportant noise.
type Stream struct {
	mu sync.Mutex

	cap           int
	recencyWeight float64
	decay         float64
	entries       []Entry
}

// NewStream creates an empty memory stream holding at most cap entries.
func NewStream(cap int, recencyWeight, decay float64) *Stream {
	return &Stream{
		cap:           cap,
		recencyWeight: recencyWeight,
		decay:         decay,
		entries:       make([]Entry, 0, cap),
	}
}

// Record appends an entry at the given step, evicting the lowest-scoring
// entry if the stream is full. Ties evict the older insertion.
func (s *Stream) Record(e Entry, now int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, e)
	if len(s.entries) <= s.cap {
		return
	}

	worst := 0
	worstScore := s.score(s.entries[0], now)
	for i := 1; i < len(s.entries); i++ {
		if sc := s.score(s.entries[i], now); sc < worstScore {
			worst, worstScore = i, sc
		}
	}
	s.entries = append(s.entries[:worst], s.entries[worst+1:]...)
}

// Retrieve returns the top-k entries by combined score at the given step,
// most relevant first. The stream itself is not modified.
func (s *Stream) Retrieve(k, now int) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := make([]int, len(s.entries))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		sa, sb := s.score(s.entries[idx[a]], now), s.score(s.entries[idx[b]], now)
		if sa != sb {
			return sa > sb
		}
		return idx[a] > idx[b] // equal scores: prefer the more recent insertion
	})
	if k > len(idx) {
		k = len(idx)
	}
	out := make([]Entry, k)
	for i := 0; i < k; i++ {
		out[i] = s.entries[idx[i]]
	}
	return out
}

// Recent returns the last n entries in insertion order.
func (s *Stream) Recent(n int) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n > len(s.entries) {
		n = len(s.entries)
	}
	out := make([]Entry, n)
	copy(out, s.entries[len(s.entries)-n:])
	return out
}

// Len returns the number of stored entries.
func (s *Stream) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// score blends fixed importance with exponentially decaying recency.
func (s *Stream) score(e Entry, now int) float64 {
	age := now - e.Step
	if age < 0 {
		age = 0
	}
	return e.Importance + s.recencyWeight*math.Pow(s.decay, float64(age))
}

var hopeWords = []string{"hope", "opportunity", "solution", "progress", "better", "improve"}

var fearWords = []string{"fear", "threat", "danger", "crisis", "urgent", "collapse"}

// Importance scores how much an event matters to an agent on [0, 1]. Own
// actions, campaign content, engagement and interest overlap all raise the
// score above the 0.5 baseline.
func Importance(content string, kind types.MemoryKind, isCampaign bool, engagement int, interests []string) float64 {
	score := 0.5
	if kind == types.MemoryAction {
		score += 0.2
	}
	if isCampaign {
		score += 0.3
	}
	switch {
	case engagement > 10:
		score += 0.2
	case engagement > 5:
		score += 0.1
	}

	lower := strings.ToLower(content)
	for _, interest := range interests {
		if strings.Contains(lower, strings.ToLower(interest)) {
			score += 0.15
			break
		}
	}
	if containsAny(lower, hopeWords) {
		score += 0.1
	}
	if containsAny(lower, fearWords) {
		score += 0.1
	}

	if score > 1 {
		score = 1
	}
	return score
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
