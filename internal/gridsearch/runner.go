package gridsearch

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
)

// evalOutcome carries one point's result or failure from a worker to the
// aggregator.
type evalOutcome struct {
	index  int
	result Result
	err    error
}

// evaluatePopulation runs the evaluator over every grid point, sequentially
// for Workers <= 1 or on a worker pool otherwise. Workers communicate only
// by sending (index, result) pairs on a channel; a single aggregator merges
// them, so there is no shared mutable state between evaluations.
//
// A point failure fails the whole run unless SkipFailures is set, in which
// case the point is recorded as NaN with a warning. Results are ordered by
// index regardless of completion order.
func (s *Search) evaluatePopulation(ctx context.Context) ([]Result, []string, error) {
	points := s.grid.Points
	n := len(points)

	if s.cfg.Workers <= 1 {
		return s.evaluateSequential(ctx, points)
	}

	workers := s.cfg.Workers
	if workers > n {
		workers = n
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan Point)
	outcomes := make(chan evalOutcome)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				res, err := s.evaluator.Evaluate(p)
				select {
				case outcomes <- evalOutcome{index: p.Index, result: res, err: err}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, p := range points {
			select {
			case jobs <- p:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	results := make([]Result, n)
	var warnings []string
	done := 0
	for out := range outcomes {
		if out.err != nil {
			if !s.cfg.SkipFailures {
				cancel()
				// Drain remaining workers before returning.
				for range outcomes {
				}
				return nil, warnings, out.err
			}
			warnings = append(warnings, fmt.Sprintf("point %d failed: %v", out.index, out.err))
			results[out.index] = Result{Index: out.index, RMSE: math.NaN()}
		} else {
			results[out.index] = out.result
		}
		done++
		log.Printf("individual %d/%d (index %d) done", done, n, out.index)
		if done == n {
			break
		}
	}
	return results, warnings, nil
}

func (s *Search) evaluateSequential(ctx context.Context, points []Point) ([]Result, []string, error) {
	results := make([]Result, len(points))
	var warnings []string
	for i, p := range points {
		if err := ctx.Err(); err != nil {
			return nil, warnings, err
		}
		log.Printf("individual %d/%d (index %d)", i+1, len(points), p.Index)
		res, err := s.evaluator.Evaluate(p)
		if err != nil {
			if !s.cfg.SkipFailures {
				return nil, warnings, err
			}
			warnings = append(warnings, fmt.Sprintf("point %d failed: %v", p.Index, err))
			results[i] = Result{Index: p.Index, RMSE: math.NaN()}
			continue
		}
		results[i] = res
	}
	return results, warnings, nil
}
