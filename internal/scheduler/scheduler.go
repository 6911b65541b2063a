// Package scheduler implements C8: a worker pool that pulls batches off a
// shared atomic cursor, or a plain serial loop when concurrency is 1.
package scheduler

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/tumuyan/WikiFilter/common"
	"github.com/tumuyan/WikiFilter/internal/corpus"
	"github.com/tumuyan/WikiFilter/internal/executor"
	"github.com/tumuyan/WikiFilter/internal/planner"
	"github.com/tumuyan/WikiFilter/internal/writer"
)

// Job bundles everything a worker needs to execute any batch in the plan.
// Term list, batch list and the Scanner's precomputed chunk boundaries are
// read-only and shared freely across workers (spec §5 "Shared state");
// the Writer serializes its own access internally (C7).
//
// AcLimiter and AcBytesPerTerm are optional: when AcLimiter is non-nil, the
// parallel claim loop admits a batch's automaton build only once its
// estimated memory (batch size * AcBytesPerTerm) fits the limiter's budget,
// bounding how much AC memory concurrently-building workers may hold at
// once (common.CacheLimiter, spec §5). Unused by the serial path, which
// never has more than one automaton alive at a time regardless.
type Job struct {
	Terms          [][]byte
	Batches        []planner.BatchRange
	Scanner        *corpus.Scanner
	Writer         *writer.Writer
	Hooks          *common.ProgressHooks
	Stop           *common.StopFlag
	NumThreads     int
	AcLimiter      common.CacheLimiter
	AcBytesPerTerm float64
}

// Run claims and executes every batch in job.Batches, returning one
// executor.Result per completed batch (order matches claim order, not
// BatchRange order, since batches are fetched off a shared cursor). The
// scheduler stops handing out new batches once job.Stop is set (spec §5
// "checked between batches"); a batch already in flight also polls job.Stop
// after each line inside executor.Run, stops scanning early and writes the
// counts it has accumulated so far.
func Run(job Job) ([]executor.Result, error) {
	if len(job.Batches) == 0 {
		return nil, nil
	}

	if job.NumThreads <= 1 {
		return runSerial(job)
	}
	return runParallel(job)
}

// runSerial is the plain loop spec §4.8/§5 calls for at concurrency 1: no
// goroutines, no atomics, one batch after another.
func runSerial(job Job) ([]executor.Result, error) {
	results := make([]executor.Result, 0, len(job.Batches))
	for i, br := range job.Batches {
		if job.Stop != nil && job.Stop.Stopped() {
			break
		}
		res, err := executor.Run(job.Terms, br, job.Scanner, job.Writer, job.Hooks, i, len(job.Batches), job.Stop, nil, 0)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// runParallel spawns job.NumThreads workers that fetch-and-increment a
// single shared cursor into job.Batches (spec §4.8, §5 "Batch cursor: an
// atomic counter, fetch-add ordering is sufficient"). Workers are managed
// by an errgroup.Group rather than the teacher's priority-channel
// executionEngine: batches are independent coarse-grained work units, so a
// flat claim loop plus first-error propagation is all that's needed (spec
// §9 "a channel would be overkill"). Once any batch fails, workers finish
// the batches they already hold but claim no new ones. job.AcLimiter, when set, is the
// admission control that bounds how much estimated AC memory these workers
// may hold built at once — the planner sizes one batch's automaton, not the
// sum of several building concurrently.
func runParallel(job Job) ([]executor.Result, error) {
	var cursor atomic.Int64
	var failed atomic.Bool
	var mu sync.Mutex
	results := make([]executor.Result, 0, len(job.Batches))

	numWorkers := job.NumThreads
	if numWorkers > len(job.Batches) {
		numWorkers = len(job.Batches)
	}

	var eg errgroup.Group
	for w := 0; w < numWorkers; w++ {
		eg.Go(func() error {
			for {
				if job.Stop != nil && job.Stop.Stopped() {
					return nil
				}
				if failed.Load() {
					return nil
				}

				idx := int(cursor.Add(1)) - 1
				if idx >= len(job.Batches) {
					return nil
				}
				br := job.Batches[idx]

				res, err := executor.Run(job.Terms, br, job.Scanner, job.Writer, job.Hooks, idx, len(job.Batches), job.Stop, job.AcLimiter, job.AcBytesPerTerm)
				if err != nil {
					failed.Store(true)
					return err
				}

				mu.Lock()
				results = append(results, res)
				mu.Unlock()
			}
		})
	}

	err := eg.Wait()
	return results, err
}
