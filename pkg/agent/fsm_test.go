package agent

import (
	"math/rand"
	"testing"
)

func testFSMConfig() FSMConfig {
	return FSMConfig{
		DayMinutes:      1440,
		AvgLoginMinutes: 143,
		AvgMonthlyPosts: 15,
		MonthSteps:      30 * 1440,
	}
}

func TestNewFSM_StartsOffline(t *testing.T) {
	f := NewFSM(0.7, testFSMConfig(), rand.New(rand.NewSource(1)))
	if f.Online() {
		t.Error("expected fresh FSM to start offline")
	}
	if f.ShouldPost() {
		t.Error("offline agent must not be due to post")
	}
}

func TestRandomizeState_ScalesWithActivity(t *testing.T) {
	// With p = 0.2 + 0.4*activity, a fully active population should start
	// roughly 60% online and a minimally active one roughly 24%.
	const n = 2000
	count := func(activity float64, seed int64) int {
		rng := rand.New(rand.NewSource(seed))
		online := 0
		for i := 0; i < n; i++ {
			f := NewFSM(activity, testFSMConfig(), rng)
			f.RandomizeState()
			if f.Online() {
				online++
			}
		}
		return online
	}

	high := float64(count(1.0, 42)) / n
	low := float64(count(0.1, 42)) / n
	if high < 0.55 || high > 0.65 {
		t.Errorf("expected ~0.60 online at activity 1.0, got %.3f", high)
	}
	if low < 0.19 || low > 0.29 {
		t.Errorf("expected ~0.24 online at activity 0.1, got %.3f", low)
	}
}

func TestTick_OnlineFractionConverges(t *testing.T) {
	// The two-state process is memoryless, so the long-run online fraction
	// is activity*AvgLoginMinutes/DayMinutes.
	activity := 0.65
	f := NewFSM(activity, testFSMConfig(), rand.New(rand.NewSource(42)))
	f.RandomizeState()

	const steps = 500000
	online := 0
	for i := 0; i < steps; i++ {
		f.Tick()
		if f.Online() {
			online++
		}
	}

	got := float64(online) / steps
	want := activity * 143.0 / 1440.0
	if got < want-0.02 || got > want+0.02 {
		t.Errorf("online fraction %.4f, want %.4f +/- 0.02", got, want)
	}
}

func TestShouldPost_RequiresOnline(t *testing.T) {
	f := NewFSM(0.9, testFSMConfig(), rand.New(rand.NewSource(5)))
	f.postTimer = 0
	if f.ShouldPost() {
		t.Error("offline agent reported due to post")
	}
	f.online = true
	if !f.ShouldPost() {
		t.Error("online agent with expired timer not due to post")
	}
}

func TestSchedulePost_ZeroRateNeverPosts(t *testing.T) {
	cfg := testFSMConfig()
	cfg.AvgMonthlyPosts = 0
	f := NewFSM(0.9, cfg, rand.New(rand.NewSource(5)))
	f.online = true

	for i := 0; i < 10000; i++ {
		f.Tick()
		if f.ShouldPost() {
			t.Fatal("agent with zero posting rate became due to post")
		}
	}
}

func TestResetPostTimer_Reschedules(t *testing.T) {
	f := NewFSM(0.9, testFSMConfig(), rand.New(rand.NewSource(5)))
	f.online = true
	f.postTimer = 0
	if !f.ShouldPost() {
		t.Fatal("expected agent due to post")
	}
	f.ResetPostTimer()
	if f.ShouldPost() {
		t.Error("expected posting timer to be rescheduled into the future")
	}
}

func TestExpDraw_FlooredAtOne(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	for i := 0; i < 1000; i++ {
		if d := expDraw(rng, 0.01); d < 1 {
			t.Fatalf("draw %d below floor", d)
		}
	}
	if d := expDraw(rng, 0); d != 1 {
		t.Errorf("non-positive mean should draw 1, got %d", d)
	}
}
