package optim

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/unimpc/internal/experiment"
	"github.com/san-kum/unimpc/internal/sim"
)

// Trial is one evaluated grid point.
type Trial struct {
	Params map[string]float64
	Value  float64
}

// GridSearch evaluates every combination of parameter values in closed-loop
// simulation and ranks them by a metric, lower being better. It runs
// offline only; nothing here adapts weights during a run.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	// Parallel bounds concurrent runs; zero means unbounded.
	Parallel int
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Search returns the best parameters, their metric value, and every trial
// sorted best first. Grid points whose experiment cannot be built are
// skipped.
func (g *GridSearch) Search(
	ctx context.Context,
	buildExperiment func(params map[string]float64) (*experiment.Experiment, error),
	metricName string,
) (map[string]float64, float64, []Trial, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, 0, nil, fmt.Errorf("%d parameter names for %d ranges", len(g.paramNames), len(g.ranges))
	}

	var points []map[string]float64
	g.enumerate(0, make(map[string]float64), &points)

	ens := sim.NewEnsemble(g.Parallel)
	kept := make([]map[string]float64, 0, len(points))
	for i, params := range points {
		exp, err := buildExperiment(params)
		if err != nil {
			continue
		}
		job, err := exp.Job(fmt.Sprintf("trial-%d", i))
		if err != nil {
			continue
		}
		ens.Add(job)
		kept = append(kept, params)
	}
	if ens.Len() == 0 {
		return nil, 0, nil, fmt.Errorf("no grid point produced a runnable experiment")
	}

	results, err := ens.Run(ctx)
	if err != nil {
		return nil, 0, nil, err
	}

	trials := make([]Trial, len(results))
	for i, res := range results {
		val, ok := res.Metrics[metricName]
		if !ok || math.IsNaN(val) {
			val = math.Inf(1)
		}
		trials[i] = Trial{Params: kept[i], Value: val}
	}
	sort.SliceStable(trials, func(i, j int) bool { return trials[i].Value < trials[j].Value })

	if math.IsInf(trials[0].Value, 1) {
		return nil, 0, trials, fmt.Errorf("metric %q not reported by any trial", metricName)
	}
	return trials[0].Params, trials[0].Value, trials, nil
}

func (g *GridSearch) enumerate(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.paramNames) {
		*out = append(*out, current)
		return
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		g.enumerate(depth+1, newParams, out)
	}
}
