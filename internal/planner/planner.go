// Package planner implements C5, the Batch Planner: deriving chunk size,
// batch count and batch boundaries from the Memory Probe's numbers, the
// dictionary size and the requested thread count (spec §4.5).
package planner

import (
	"math"

	"github.com/tumuyan/WikiFilter/common"
)

const (
	// DefaultBytesPerTerm is the calibrated AC memory cost per dictionary
	// term (spec §4.5: "the reference figure is 500 bytes per term,
	// derived from measured ~483 B/term for ~2.1M Chinese terms").
	DefaultBytesPerTerm = 500.0

	// DefaultReserveMB is held back from every budget calculation for
	// runtime overhead outside the AC automaton and the corpus chunk
	// buffer (spec §4.5).
	DefaultReserveMB = 300.0

	minChunkMB         = 50.0
	fallbackUsableAcMB = 512.0
)

// Inputs are the planner's inputs, per spec §4.5.
type Inputs struct {
	NumTerms        int
	AvgBytesPerTerm float64
	NumThreads      int
	AvailMemMB      float64
	ReserveMB       float64
	FileSizeMB      float64
}

func (in Inputs) withDefaults() Inputs {
	if in.AvgBytesPerTerm <= 0 {
		in.AvgBytesPerTerm = DefaultBytesPerTerm
	}
	if in.ReserveMB <= 0 {
		in.ReserveMB = DefaultReserveMB
	}
	if in.NumThreads <= 0 {
		in.NumThreads = 1
	}
	return in
}

// BatchRange is a half-open interval [Start, End) of term indices owned by
// one Batch Executor invocation (spec §3).
type BatchRange struct {
	Start int
	End   int
}

func (r BatchRange) Len() int { return r.End - r.Start }

// InitialPlan covers spec §4.5 steps 1-3: estimate the AC automaton's
// footprint for the whole dictionary, then size the corpus chunk buffer
// against whatever memory that leaves. This runs before the Corpus
// Scanner's boundary pass, so Scanner.Plan knows what chunk size to use.
type InitialPlan struct {
	AcMemEstMB    float64
	ChunkBudgetMB float64
	ChunkSizeMB   float64
}

func PlanInitialChunkSize(in Inputs) InitialPlan {
	in = in.withDefaults()

	acMemEstMB := float64(in.NumTerms) * in.AvgBytesPerTerm / (1024 * 1024)
	chunkBudgetMB := in.AvailMemMB - acMemEstMB - in.ReserveMB
	if chunkBudgetMB < 0 {
		chunkBudgetMB = 0
	}

	chunkMB := math.Max(minChunkMB, chunkBudgetMB*0.8)
	if in.FileSizeMB <= chunkBudgetMB {
		// single-chunk fast path: the whole corpus fits the budget, so
		// there is no reason to chunk it at all.
		chunkMB = in.FileSizeMB + 1
	}

	return InitialPlan{
		AcMemEstMB:    acMemEstMB,
		ChunkBudgetMB: chunkBudgetMB,
		ChunkSizeMB:   chunkMB,
	}
}

// Plan is the finished batching plan: the per-automaton word limit, the
// automaton memory budget it was derived from, and the list of term-index
// ranges to build automatons over. The corpus chunk size is not part of it;
// PlanInitialChunkSize decides that before the scanner's boundary pass.
type Plan struct {
	MaxWordsPerAc int
	UsableAcMB    float64
	Batches       []BatchRange
	Summary       common.PlanSummary
}

// Finalize covers spec §4.5 steps 4-6. chunkPeakMB is the measured (or
// planned) peak corpus-chunk memory in use once scanning has started;
// availNowMB is a fresh Memory Probe reading taken at that point, since the
// number available_mem_mb reported before scanning may already be stale.
func Finalize(in Inputs, chunkPeakMB, availNowMB float64) (Plan, error) {
	in = in.withDefaults()

	usableAcMB := math.Max(fallbackUsableAcMB, availNowMB-chunkPeakMB-in.ReserveMB)
	maxWordsPerAc := wordsForBudget(usableAcMB, in.AvgBytesPerTerm)

	if maxWordsPerAc < 1 {
		common.GetProgressSink().Warn("memory budget too tight for even one batch at the planned size; retrying with a fixed 512MB automaton budget")
		usableAcMB = fallbackUsableAcMB
		maxWordsPerAc = wordsForBudget(usableAcMB, in.AvgBytesPerTerm)
		if maxWordsPerAc < 1 {
			return Plan{}, common.NewError(common.EErrorKind.MemoryBudgetError(),
				"cannot fit even a single dictionary term within the usable automaton memory budget")
		}
	}

	batches := computeBatches(in.NumTerms, in.NumThreads, maxWordsPerAc)

	return Plan{
		MaxWordsPerAc: maxWordsPerAc,
		UsableAcMB:    usableAcMB,
		Batches:       batches,
		Summary: common.PlanSummary{
			NumTerms:      in.NumTerms,
			NumBatches:    len(batches),
			MaxWordsPerAc: maxWordsPerAc,
		},
	}, nil
}

func wordsForBudget(usableAcMB, avgBytesPerTerm float64) int {
	return int(usableAcMB * 1024 * 1024 / avgBytesPerTerm)
}

// computeBatches implements spec §4.5 steps 5-6.
func computeBatches(numTerms, numThreads, maxWordsPerAc int) []BatchRange {
	if numTerms == 0 {
		return nil
	}

	var numBatches int
	if numThreads == 1 {
		if numTerms <= maxWordsPerAc {
			numBatches = 1
		} else {
			numBatches = ceilDiv(numTerms, maxWordsPerAc)
		}
	} else {
		numBatches = ceilDiv(numTerms, maxWordsPerAc)
		if numBatches < numThreads {
			numBatches = numThreads
		}
	}
	if numBatches < 1 {
		numBatches = 1
	}
	if numBatches > numTerms {
		numBatches = numTerms
	}

	return equalize(numTerms, numBatches)
}

// ceilDiv is integer ceiling division, a/b rounded up.
func ceilDiv(a, b int) int {
	if b <= 0 {
		return a
	}
	return (a + b - 1) / b
}

// equalize splits [0, numTerms) into numBatches contiguous ranges as evenly
// as possible: the first (numTerms % numBatches) ranges get one extra term.
func equalize(numTerms, numBatches int) []BatchRange {
	base := numTerms / numBatches
	remainder := numTerms % numBatches

	batches := make([]BatchRange, 0, numBatches)
	start := 0
	for i := 0; i < numBatches; i++ {
		size := base
		if i < remainder {
			size++
		}
		if size == 0 {
			continue
		}
		batches = append(batches, BatchRange{Start: start, End: start + size})
		start += size
	}
	return batches
}
