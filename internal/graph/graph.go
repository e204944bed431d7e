// Package graph stores cell adjacency in compressed sparse row form.
package graph

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

// ErrCellCount reports a graph built for a different number of cells than the world.
var ErrCellCount = errors.New("graph: cell count mismatch")

// Connectivity selects the lattice neighbourhood.
type Connectivity uint8

const (
	// VonNeumann links the four orthogonal neighbours.
	VonNeumann Connectivity = iota
	// Moore links all eight surrounding cells.
	Moore
)

// Graph is an immutable adjacency list. Neighbors of cell i are
// Indices[Offsets[i]:Offsets[i+1]].
type Graph struct {
	Offsets []int32
	Indices []int32
}

// Len returns the number of cells.
func (g *Graph) Len() int {
	if g == nil || len(g.Offsets) == 0 {
		return 0
	}
	return len(g.Offsets) - 1
}

// Neighbors returns the borrowed neighbour slice of cell i.
func (g *Graph) Neighbors(i int) []int32 {
	return g.Indices[g.Offsets[i]:g.Offsets[i+1]]
}

// Degree returns the neighbour count of cell i.
func (g *Graph) Degree(i int) int {
	return int(g.Offsets[i+1] - g.Offsets[i])
}

// MaxDegree returns the largest neighbour count in the graph.
func (g *Graph) MaxDegree() int {
	maxDeg := 0
	for i := 0; i < g.Len(); i++ {
		if d := g.Degree(i); d > maxDeg {
			maxDeg = d
		}
	}
	return maxDeg
}

// Check verifies the graph was built for n cells.
func (g *Graph) Check(n int) error {
	if g.Len() != n {
		return fmt.Errorf("%w: graph has %d cells, world has %d", ErrCellCount, g.Len(), n)
	}
	return nil
}

// Symmetric reports whether every edge i->j has a matching j->i.
func (g *Graph) Symmetric() bool {
	for i := 0; i < g.Len(); i++ {
		for _, n := range g.Neighbors(i) {
			if !slices.Contains(g.Neighbors(int(n)), int32(i)) {
				return false
			}
		}
	}
	return true
}

// FromAdjacency packs explicit neighbour lists. Lists are copied verbatim, so
// directed edges are preserved.
func FromAdjacency(adj [][]int32) *Graph {
	g := &Graph{Offsets: make([]int32, len(adj)+1)}
	total := 0
	for _, list := range adj {
		total += len(list)
	}
	g.Indices = make([]int32, 0, total)
	for i, list := range adj {
		g.Indices = append(g.Indices, list...)
		g.Offsets[i+1] = int32(len(g.Indices))
	}
	return g
}

// Line links cells 0-1-2-...-(n-1) in both directions.
func Line(n int) *Graph {
	adj := make([][]int32, n)
	for i := 0; i < n; i++ {
		if i > 0 {
			adj[i] = append(adj[i], int32(i-1))
		}
		if i < n-1 {
			adj[i] = append(adj[i], int32(i+1))
		}
	}
	return FromAdjacency(adj)
}

// Lattice builds a row-major w*h grid graph. With wrap set the grid is toroidal.
func Lattice(w, h int, conn Connectivity, wrap bool) *Graph {
	if w <= 0 || h <= 0 {
		return &Graph{Offsets: []int32{0}}
	}
	offsets := latticeOffsets(conn)
	g := &Graph{
		Offsets: make([]int32, w*h+1),
		Indices: make([]int32, 0, w*h*len(offsets)),
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			for _, off := range offsets {
				nx, ny := x+off[0], y+off[1]
				if wrap {
					nx = (nx%w + w) % w
					ny = (ny%h + h) % h
				} else if nx < 0 || nx >= w || ny < 0 || ny >= h {
					continue
				}
				n := int32(ny*w + nx)
				if int(n) == idx || slices.Contains(g.Indices[g.Offsets[idx]:], n) {
					continue
				}
				g.Indices = append(g.Indices, n)
			}
			g.Offsets[idx+1] = int32(len(g.Indices))
		}
	}
	return g
}

func latticeOffsets(conn Connectivity) [][2]int {
	if conn == Moore {
		return [][2]int{{0, -1}, {-1, 0}, {1, 0}, {0, 1}, {-1, -1}, {1, -1}, {-1, 1}, {1, 1}}
	}
	return [][2]int{{0, -1}, {-1, 0}, {1, 0}, {0, 1}}
}

// FromPoints links every pair of points closer than radius. Points are bucketed
// in a uniform hash grid with cell size radius, and each neighbour list is
// sorted ascending so traversal order is deterministic.
func FromPoints(xs, ys []float32, radius float32) *Graph {
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}
	adj := make([][]int32, n)
	if n == 0 || radius <= 0 {
		return FromAdjacency(adj)
	}
	type key struct{ x, y int32 }
	bucketOf := func(i int) key {
		return key{
			x: int32(math.Floor(float64(xs[i] / radius))),
			y: int32(math.Floor(float64(ys[i] / radius))),
		}
	}
	buckets := make(map[key][]int32, n)
	for i := 0; i < n; i++ {
		k := bucketOf(i)
		buckets[k] = append(buckets[k], int32(i))
	}
	r2 := radius * radius
	for i := 0; i < n; i++ {
		k := bucketOf(i)
		for dy := int32(-1); dy <= 1; dy++ {
			for dx := int32(-1); dx <= 1; dx++ {
				for _, j := range buckets[key{k.x + dx, k.y + dy}] {
					if int(j) == i {
						continue
					}
					ddx := xs[j] - xs[i]
					ddy := ys[j] - ys[i]
					if ddx*ddx+ddy*ddy <= r2 {
						adj[i] = append(adj[i], j)
					}
				}
			}
		}
		slices.Sort(adj[i])
	}
	return FromAdjacency(adj)
}
