// Command terrain-sweep generates the same terrain under a grid of erosion and
// mountain settings and reports how each combination shapes it.
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"runtime"
	"sort"
	"sync"
	"time"

	"cellworld/internal/config"
	"cellworld/internal/graph"
	"cellworld/internal/terrain"
	"cellworld/internal/world"
)

type paramSet struct {
	talus     float32
	rate      float32
	influence float64
}

func (p paramSet) String() string {
	return fmt.Sprintf("talus=%.3f rate=%.2f mountains=%.2f", p.talus, p.rate, p.influence)
}

type scenarioResult struct {
	params paramSet
	// massDrift is the change in mean height caused by erosion.
	massDrift float64
	// roughBefore and roughAfter are mean absolute height differences across
	// neighbour links.
	roughBefore float64
	roughAfter  float64
	maxSlope    float64
	land        float64
}

func (r scenarioResult) smoothing() float64 {
	if r.roughBefore == 0 {
		return 0
	}
	return 1 - r.roughAfter/r.roughBefore
}

func main() {
	configPath := flag.String("config", "", "YAML configuration to start from")
	size := flag.Int("size", 128, "lattice side length")
	workers := flag.Int("workers", runtime.NumCPU(), "number of worker goroutines")
	top := flag.Int("top", 5, "results to print")
	flag.Parse()

	base := config.DefaultConfig()
	if *configPath != "" {
		var err error
		if base, err = config.Load(*configPath); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
	}
	base.Width, base.Height, base.Cells = *size, *size, 0

	sets := grid(
		[]float32{0.005, 0.01, 0.02, 0.04},
		[]float32{0.25, 0.5, 0.75},
		[]float64{0.3, 0.6, 0.9},
	)
	fmt.Printf("Sweeping %d parameter sets (%d workers, %dx%d, %d erosion passes)\n",
		len(sets), *workers, *size, *size, base.Erosion.Iterations)

	start := time.Now()
	all := sweep(base, sets, *workers)
	elapsed := time.Since(start)

	sort.Slice(all, func(i, j int) bool { return all[i].smoothing() > all[j].smoothing() })
	fmt.Printf("\nTop %d by smoothing (elapsed %s):\n", min(*top, len(all)), elapsed.Round(time.Millisecond))
	for i := 0; i < len(all) && i < *top; i++ {
		r := all[i]
		fmt.Printf("%2d) smoothing=%.1f%% rough=%.4f->%.4f drift=%+.5f maxSlope=%.3f land=%.1f%% %s\n",
			i+1, 100*r.smoothing(), r.roughBefore, r.roughAfter, r.massDrift, r.maxSlope, 100*r.land, r.params)
	}
}

func grid(taluses, rates []float32, influences []float64) []paramSet {
	var sets []paramSet
	for _, talus := range taluses {
		for _, rate := range rates {
			for _, influence := range influences {
				sets = append(sets, paramSet{talus: talus, rate: rate, influence: influence})
			}
		}
	}
	return sets
}

// sweep runs every set on a pool of workers. Results arrive in completion
// order.
func sweep(base config.Config, sets []paramSet, workers int) []scenarioResult {
	workers = max(1, workers)
	g := graph.Lattice(base.Width, base.Height, graph.Moore, false)

	jobs := make(chan paramSet)
	results := make(chan scenarioResult)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for params := range jobs {
				results <- runScenario(base, g, params)
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()
	go func() {
		for _, params := range sets {
			jobs <- params
		}
		close(jobs)
	}()

	all := make([]scenarioResult, 0, len(sets))
	for res := range results {
		all = append(all, res)
	}
	return all
}

func runScenario(base config.Config, g *graph.Graph, params paramSet) scenarioResult {
	cfg := base
	cfg.Noise.MountainInfluence = params.influence
	cfg.Erosion.Talus = params.talus
	cfg.Erosion.Rate = params.rate

	w := world.NewLattice(cfg.Width, cfg.Height)
	w.SeaLevel = cfg.SeaLevel
	w.Enable(world.FeatureTerrain)
	terrain.GenerateHeightmap(w, cfg.TerrainParams(), nil)

	res := scenarioResult{params: params}
	before := mean(w.Height)
	res.roughBefore, _ = roughness(w.Height, g)
	terrain.ApplyThermalErosion(w, g, cfg.ErosionParams())
	res.massDrift = mean(w.Height) - before
	res.roughAfter, res.maxSlope = roughness(w.Height, g)

	land := 0
	for i := range w.Height {
		if !w.IsOcean(i) {
			land++
		}
	}
	res.land = float64(land) / float64(w.N)
	return res
}

func mean(h []float32) float64 {
	if len(h) == 0 {
		return 0
	}
	var sum float64
	for _, v := range h {
		sum += float64(v)
	}
	return sum / float64(len(h))
}

// roughness returns the mean and maximum absolute height difference over every
// neighbour link.
func roughness(h []float32, g *graph.Graph) (avg, peak float64) {
	var sum float64
	links := 0
	for i := range h {
		for _, n := range g.Neighbors(i) {
			d := math.Abs(float64(h[i] - h[n]))
			sum += d
			peak = max(peak, d)
			links++
		}
	}
	if links == 0 {
		return 0, 0
	}
	return sum / float64(links), peak
}
