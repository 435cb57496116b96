// Package network builds the synthetic social graph agents live on.
//
// The graph is grown with Barabási–Albert preferential attachment so that
// follower counts follow the heavy-tailed degree distribution observed on
// real platforms: a handful of hubs, a long tail of peripheral accounts.
package network

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// ErrInvalidParams reports Barabási–Albert parameters that cannot produce a
// connected graph.
var ErrInvalidParams = errors.New("network: invalid graph parameters")

// Graph is an undirected friendship graph plus its directed follow
// orientation. Node IDs are dense integers in [0, N).
type Graph struct {
	N         int
	Neighbors map[int][]int // undirected adjacency, sorted
	Follows   map[int][]int // follower -> followees, sorted
}

// Build grows an undirected Barabási–Albert graph with n nodes, an initial
// clique of m0 nodes, and m preferential edges per arriving node, then
// orients each edge into follow relationships. Given the same parameters and
// seed the result is identical across runs.
func Build(n, m0, m int, rng *rand.Rand) (*Graph, error) {
	if m < 1 {
		return nil, fmt.Errorf("%w: m=%d, need m >= 1", ErrInvalidParams, m)
	}
	if m0 < m {
		return nil, fmt.Errorf("%w: m0=%d < m=%d", ErrInvalidParams, m0, m)
	}
	if n < m0 {
		return nil, fmt.Errorf("%w: n=%d < m0=%d", ErrInvalidParams, n, m0)
	}

	g := &Graph{
		N:         n,
		Neighbors: make(map[int][]int, n),
		Follows:   make(map[int][]int, n),
	}
	adj := make(map[int]map[int]bool, n)
	for i := 0; i < n; i++ {
		adj[i] = make(map[int]bool)
	}

	// Seed clique: every pair of the first m0 nodes connected, so even the
	// earliest arrivals have targets to attach to.
	// repeated holds one entry per edge endpoint; sampling from it uniformly
	// is sampling nodes proportionally to degree.
	var repeated []int
	for i := 0; i < m0; i++ {
		for j := i + 1; j < m0; j++ {
			adj[i][j] = true
			adj[j][i] = true
			repeated = append(repeated, i, j)
		}
	}

	for v := m0; v < n; v++ {
		chosen := make(map[int]bool, m)
		for len(chosen) < m {
			u := repeated[rng.Intn(len(repeated))]
			if u != v && !chosen[u] {
				chosen[u] = true
			}
		}
		picked := make([]int, 0, len(chosen))
		for u := range chosen {
			picked = append(picked, u)
		}
		sort.Ints(picked)
		for _, u := range picked {
			adj[v][u] = true
			adj[u][v] = true
			repeated = append(repeated, v, u)
		}
	}

	for i := 0; i < n; i++ {
		nbrs := make([]int, 0, len(adj[i]))
		for u := range adj[i] {
			nbrs = append(nbrs, u)
		}
		sort.Ints(nbrs)
		g.Neighbors[i] = nbrs
	}

	g.orient(rng)
	return g, nil
}

// orient turns each undirected edge into one or two follow relationships.
// Reciprocal follows happen with probability 1/2; otherwise the lower-degree
// endpoint follows the higher-degree one, mirroring how peripheral accounts
// follow hubs without being followed back.
func (g *Graph) orient(rng *rand.Rand) {
	follows := make(map[int]map[int]bool, g.N)
	for i := 0; i < g.N; i++ {
		follows[i] = make(map[int]bool)
	}
	for u := 0; u < g.N; u++ {
		for _, v := range g.Neighbors[u] {
			if u >= v {
				continue // each undirected edge once
			}
			if rng.Float64() < 0.5 {
				follows[u][v] = true
				follows[v][u] = true
			} else if len(g.Neighbors[u]) <= len(g.Neighbors[v]) {
				follows[u][v] = true
			} else {
				follows[v][u] = true
			}
		}
	}
	for i := 0; i < g.N; i++ {
		fs := make([]int, 0, len(follows[i]))
		for v := range follows[i] {
			fs = append(fs, v)
		}
		sort.Ints(fs)
		g.Follows[i] = fs
	}
}

// Degree returns the undirected degree of node v.
func (g *Graph) Degree(v int) int { return len(g.Neighbors[v]) }

// Followers returns the IDs of nodes following v, in ascending order.
func (g *Graph) Followers(v int) []int {
	var out []int
	for u := 0; u < g.N; u++ {
		for _, f := range g.Follows[u] {
			if f == v {
				out = append(out, u)
				break
			}
		}
	}
	return out
}

// Stats summarizes structural properties used to sanity-check a built graph.
type Stats struct {
	Nodes       int
	Edges       int
	MeanDegree  float64
	MaxDegree   int
	GammaEst    float64 // power-law exponent estimate (Hill/MLE over the tail)
	Clustering  float64 // global average clustering coefficient
	FollowEdges int
}

// Summarize computes structural statistics of the graph.
func (g *Graph) Summarize() Stats {
	s := Stats{Nodes: g.N}
	for v := 0; v < g.N; v++ {
		d := len(g.Neighbors[v])
		s.Edges += d
		if d > s.MaxDegree {
			s.MaxDegree = d
		}
		s.FollowEdges += len(g.Follows[v])
	}
	s.Edges /= 2
	if g.N > 0 {
		s.MeanDegree = 2 * float64(s.Edges) / float64(g.N)
	}
	s.GammaEst = g.estimateGamma()
	s.Clustering = g.clustering()
	return s
}

// estimateGamma fits the tail exponent of the degree distribution with the
// continuous maximum-likelihood estimator, using the mean degree as dmin.
func (g *Graph) estimateGamma() float64 {
	dmin := 1.0
	total := 0
	for v := 0; v < g.N; v++ {
		total += len(g.Neighbors[v])
	}
	if g.N > 0 {
		dmin = float64(total) / float64(g.N)
	}
	sum := 0.0
	count := 0
	for v := 0; v < g.N; v++ {
		d := float64(len(g.Neighbors[v]))
		if d >= dmin && d > 0 {
			sum += math.Log(d / dmin)
			count++
		}
	}
	if count == 0 || sum == 0 {
		return 0
	}
	return 1 + float64(count)/sum
}

// clustering returns the average local clustering coefficient.
func (g *Graph) clustering() float64 {
	if g.N == 0 {
		return 0
	}
	total := 0.0
	for v := 0; v < g.N; v++ {
		nbrs := g.Neighbors[v]
		k := len(nbrs)
		if k < 2 {
			continue
		}
		links := 0
		for i := 0; i < k; i++ {
			for j := i + 1; j < k; j++ {
				if contains(g.Neighbors[nbrs[i]], nbrs[j]) {
					links++
				}
			}
		}
		total += 2 * float64(links) / float64(k*(k-1))
	}
	return total / float64(g.N)
}

func contains(sorted []int, x int) bool {
	i := sort.SearchInts(sorted, x)
	return i < len(sorted) && sorted[i] == x
}
