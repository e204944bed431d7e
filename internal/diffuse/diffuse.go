// Package diffuse implements the neighbour-spreading kernel shared by every
// field that flows between adjacent cells.
package diffuse

import (
	"fmt"
	"runtime/debug"

	"golang.org/x/sync/errgroup"

	"cellworld/internal/graph"
)

// minChunk keeps tiny worlds from paying goroutine overhead.
const minChunk = 1024

// WorkerPanic carries a panic raised by fn on a Parallel worker goroutine.
type WorkerPanic struct {
	Value any
	Stack []byte
}

func (p *WorkerPanic) Error() string {
	return fmt.Sprintf("diffuse: worker panic: %v", p.Value)
}

// Parallel calls fn over contiguous sub-ranges of [0, n) using up to workers
// goroutines and returns once every range has finished. fn must only write to
// indices inside its own range. A panic in any worker is re-raised on the
// calling goroutine as a *WorkerPanic after the other ranges finish.
func Parallel(n, workers int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}
	if workers <= 1 || n < 2*minChunk {
		fn(0, n)
		return
	}
	chunk := (n + workers - 1) / workers
	if chunk < minChunk {
		chunk = minChunk
	}
	var g errgroup.Group
	g.SetLimit(workers)
	for lo := 0; lo < n; lo += chunk {
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = &WorkerPanic{Value: r, Stack: debug.Stack()}
				}
			}()
			fn(lo, hi)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		panic(err)
	}
}

// StableRate clamps rate so that no cell can give away more than it holds in a
// single step.
func StableRate(g *graph.Graph, rate float32) float32 {
	if rate < 0 {
		return 0
	}
	if d := g.MaxDegree(); d > 0 {
		if limit := 1 / float32(d+1); rate > limit {
			return limit
		}
	}
	return rate
}

// Step writes dst[i] = src[i] + rate * sum(src[n] - src[i]) for every cell.
// src is never written, so the pass observes only pre-step state.
func Step(g *graph.Graph, src, dst []float32, rate float32, workers int) {
	n := len(src)
	if n == 0 || len(dst) < n || g.Len() < n {
		return
	}
	Parallel(n, workers, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			self := src[i]
			var delta float32
			for _, nb := range g.Neighbors(i) {
				delta += src[nb] - self
			}
			dst[i] = self + delta*rate
		}
	})
}

// Field is a double-buffered scalar field.
type Field struct {
	Cur  []float32
	Next []float32
}

// NewField wraps cur with a freshly allocated shadow buffer.
func NewField(cur []float32) *Field {
	return &Field{Cur: cur, Next: make([]float32, len(cur))}
}

// Swap commits Next as the current state.
func (f *Field) Swap() { f.Cur, f.Next = f.Next, f.Cur }

// Sum returns the total of the current buffer in float64.
func Sum(values []float32) float64 {
	var total float64
	for _, v := range values {
		total += float64(v)
	}
	return total
}
