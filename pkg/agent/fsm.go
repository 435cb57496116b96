// Package agent implements the simulated users: their online/offline
// rhythm, memory, and model-driven decisions.
package agent

import (
	"math"
	"math/rand"
)

// FSMConfig holds the temporal parameters shared by all agents.
type FSMConfig struct {
	DayMinutes      int     // steps per simulated day
	AvgLoginMinutes float64 // daily online minutes at activity 1.0
	AvgMonthlyPosts float64 // organic posts per month at activity 1.0
	MonthSteps      int     // steps per simulated month
}

// FSM is the two-state online/offline machine driving when an agent is
// present on the platform. Dwell times are exponential, so the process is
// memoryless: over a long run the fraction of time spent online converges
// to activity*AvgLoginMinutes/DayMinutes.
type FSM struct {
	cfg      FSMConfig
	rng      *rand.Rand
	activity float64

	online    bool
	timer     int
	postTimer int // steps until next organic post; maxInt means never
}

// NewFSM creates an agent clock starting offline. Activity must be positive
// or the offline dwell time diverges.
func NewFSM(activity float64, cfg FSMConfig, rng *rand.Rand) *FSM {
	f := &FSM{
		cfg:      cfg,
		rng:      rng,
		activity: activity,
		online:   false,
	}
	f.resetTimer()
	f.schedulePost()
	return f
}

// RandomizeState draws the initial online state so the population starts in
// something close to steady state rather than everyone offline: the more
// active an agent, the likelier they are online at step zero.
func (f *FSM) RandomizeState() {
	p := 0.2 + 0.4*f.activity
	f.online = f.rng.Float64() < p
	f.resetTimer()
}

// Tick advances the clock one step, flipping state when the dwell timer
// expires. The posting timer only runs while online.
func (f *FSM) Tick() {
	f.timer--
	if f.timer <= 0 {
		f.online = !f.online
		f.resetTimer()
	}
	if f.online && f.postTimer != math.MaxInt {
		f.postTimer--
	}
}

// Online reports whether the agent is currently on the platform.
func (f *FSM) Online() bool { return f.online }

// ShouldPost reports whether the agent is due to create an organic post.
func (f *FSM) ShouldPost() bool {
	return f.online && f.postTimer <= 0
}

// ResetPostTimer reschedules the next organic post after one is created.
func (f *FSM) ResetPostTimer() { f.schedulePost() }

func (f *FSM) resetTimer() {
	onlineMinutes := f.activity * f.cfg.AvgLoginMinutes
	offlineMinutes := float64(f.cfg.DayMinutes) - onlineMinutes

	mean := offlineMinutes
	if f.online {
		mean = onlineMinutes
	}
	f.timer = expDraw(f.rng, mean)
}

// schedulePost draws the next organic-post arrival from a Poisson process
// whose monthly rate scales with activity.
func (f *FSM) schedulePost() {
	ratePerMonth := f.activity * f.cfg.AvgMonthlyPosts
	ratePerStep := ratePerMonth / float64(f.cfg.MonthSteps)
	if ratePerStep <= 0 {
		f.postTimer = math.MaxInt
		return
	}
	f.postTimer = expDraw(f.rng, 1/ratePerStep)
}

// expDraw samples an exponential dwell time with the given mean, floored at
// one step.
func expDraw(rng *rand.Rand, mean float64) int {
	if mean <= 0 {
		return 1
	}
	d := int(rng.ExpFloat64() * mean)
	if d < 1 {
		d = 1
	}
	return d
}
