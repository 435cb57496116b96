package network

import (
	"errors"
	"math/rand"
	"testing"
)

func TestBuild_ParameterValidation(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	cases := []struct {
		name    string
		n, m0, m int
	}{
		{"zero edges per node", 10, 5, 0},
		{"clique smaller than m", 10, 2, 3},
		{"population smaller than clique", 3, 5, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Build(tc.n, tc.m0, tc.m, rng)
			if !errors.Is(err, ErrInvalidParams) {
				t.Errorf("expected ErrInvalidParams, got %v", err)
			}
		})
	}
}

func TestBuild_Deterministic(t *testing.T) {
	g1, err := Build(100, 8, 8, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	g2, err := Build(100, 8, 8, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	for v := 0; v < g1.N; v++ {
		if len(g1.Neighbors[v]) != len(g2.Neighbors[v]) {
			t.Fatalf("node %d: degree %d vs %d across identical seeds",
				v, len(g1.Neighbors[v]), len(g2.Neighbors[v]))
		}
		for i, u := range g1.Neighbors[v] {
			if g2.Neighbors[v][i] != u {
				t.Fatalf("node %d: neighbor lists diverge across identical seeds", v)
			}
		}
		for i, u := range g1.Follows[v] {
			if g2.Follows[v][i] != u {
				t.Fatalf("node %d: follow lists diverge across identical seeds", v)
			}
		}
	}
}

func TestBuild_StructuralProperties(t *testing.T) {
	n, m0, m := 100, 8, 8
	g, err := Build(n, m0, m, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	// Every arriving node attaches with exactly m edges, so minimum degree
	// is m and total edges are C(m0,2) + (n-m0)*m.
	wantEdges := m0*(m0-1)/2 + (n-m0)*m
	stats := g.Summarize()
	if stats.Edges != wantEdges {
		t.Errorf("expected %d edges, got %d", wantEdges, stats.Edges)
	}
	for v := 0; v < n; v++ {
		if g.Degree(v) < m {
			t.Errorf("node %d has degree %d, below attachment count %d", v, g.Degree(v), m)
		}
	}

	// Preferential attachment concentrates degree on early nodes.
	if stats.MaxDegree <= 2*m {
		t.Errorf("expected hub formation, max degree only %d", stats.MaxDegree)
	}
	if stats.GammaEst <= 1 {
		t.Errorf("expected power-law exponent above 1, got %f", stats.GammaEst)
	}
}

func TestBuild_EdgesAreSymmetric(t *testing.T) {
	g, err := Build(50, 5, 3, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	for v := 0; v < g.N; v++ {
		for _, u := range g.Neighbors[v] {
			if !contains(g.Neighbors[u], v) {
				t.Fatalf("edge %d-%d not symmetric", v, u)
			}
		}
	}
}

func TestOrient_EveryEdgeProducesAFollow(t *testing.T) {
	g, err := Build(50, 5, 3, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	// Each undirected edge yields one or two directed follows, never zero.
	for v := 0; v < g.N; v++ {
		for _, u := range g.Neighbors[v] {
			if v >= u {
				continue
			}
			vu := contains(g.Follows[v], u)
			uv := contains(g.Follows[u], v)
			if !vu && !uv {
				t.Fatalf("edge %d-%d produced no follow in either direction", v, u)
			}
		}
	}

	stats := g.Summarize()
	if stats.FollowEdges < stats.Edges {
		t.Errorf("follow edges %d below undirected edges %d", stats.FollowEdges, stats.Edges)
	}
	if stats.FollowEdges > 2*stats.Edges {
		t.Errorf("follow edges %d exceed twice undirected edges %d", stats.FollowEdges, stats.Edges)
	}
}

func TestFollowers_InvertsFollows(t *testing.T) {
	g, err := Build(30, 4, 2, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	for v := 0; v < g.N; v++ {
		for _, follower := range g.Followers(v) {
			if !contains(g.Follows[follower], v) {
				t.Fatalf("Followers(%d) reports %d, but %d does not follow %d",
					v, follower, follower, v)
			}
		}
	}
}
