package sim

import (
	"context"

	"github.com/san-kum/unimpc/internal/dynamo"
	"golang.org/x/sync/errgroup"
)

// Job is one independent closed-loop run.
type Job struct {
	Name string
	Sim  *Simulator
	X0   dynamo.State
	Cfg  dynamo.Config
}

// Ensemble runs independent jobs concurrently. Each job must own its
// simulator, since metrics accumulate per run.
type Ensemble struct {
	jobs  []Job
	limit int
}

func NewEnsemble(limit int) *Ensemble {
	return &Ensemble{limit: limit}
}

func (e *Ensemble) Add(job Job) { e.jobs = append(e.jobs, job) }

func (e *Ensemble) Len() int { return len(e.jobs) }

// Run returns results in job order. The first failing job cancels the rest.
func (e *Ensemble) Run(ctx context.Context) ([]*dynamo.Result, error) {
	results := make([]*dynamo.Result, len(e.jobs))

	g, ctx := errgroup.WithContext(ctx)
	if e.limit > 0 {
		g.SetLimit(e.limit)
	}

	for i, job := range e.jobs {
		g.Go(func() error {
			res, err := job.Sim.Run(ctx, job.X0, job.Cfg)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
