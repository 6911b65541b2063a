package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tumuyan/WikiFilter/common"
)

func TestPlanInitialChunkSize_BudgetGovernsChunkSize(t *testing.T) {
	a := assert.New(t)
	in := Inputs{
		NumTerms:   1_000_000,
		NumThreads: 1,
		AvailMemMB: 4096,
		FileSizeMB: 2000,
	}
	p := PlanInitialChunkSize(in)

	// ac_mem_est_mb = 1e6*500/2^20 ~= 476.8
	a.InDelta(476.8, p.AcMemEstMB, 1.0)
	// chunk_budget_mb = 4096 - 476.8 - 300 ~= 3319.2
	a.InDelta(3319.2, p.ChunkBudgetMB, 1.0)
	// file (2000MB) fits the budget, so the single-chunk fast path kicks in.
	a.Equal(p.ChunkSizeMB, in.FileSizeMB+1)
}

func TestPlanInitialChunkSize_FileLargerThanBudgetUsesFraction(t *testing.T) {
	a := assert.New(t)
	in := Inputs{
		NumTerms:   1_000_000,
		NumThreads: 1,
		AvailMemMB: 1024,
		FileSizeMB: 100000, // far larger than the budget
	}
	p := PlanInitialChunkSize(in)
	a.InDelta(1024-476.8-300, p.ChunkBudgetMB, 1.0)
	// chunk_mb = max(50, chunk_budget*0.8)
	a.InDelta(p.ChunkBudgetMB*0.8, p.ChunkSizeMB, 1.0)
}

func TestPlanInitialChunkSize_FloorsAtMinChunkSize(t *testing.T) {
	a := assert.New(t)
	in := Inputs{
		NumTerms:   2_000_000, // ~953.7MB of automaton, more than AvailMemMB by itself
		NumThreads: 1,
		AvailMemMB: 512,
		FileSizeMB: 100000,
	}
	p := PlanInitialChunkSize(in)
	a.Equal(0.0, p.ChunkBudgetMB)
	a.Equal(minChunkMB, p.ChunkSizeMB)
}

func TestFinalize_SingleThreadSingleBatchWhenDictionaryFits(t *testing.T) {
	a := assert.New(t)
	in := Inputs{NumTerms: 1000, NumThreads: 1}
	plan, err := Finalize(in, 100, 4096)
	a.NoError(err)
	a.Len(plan.Batches, 1)
	a.Equal(BatchRange{Start: 0, End: 1000}, plan.Batches[0])
}

// TestFinalize_LargeDictionarySingleThreadSplitsIntoBatches exercises the
// 1,000,000-term scenario: with a tight-ish usable budget the dictionary no
// longer fits one automaton and must split into several equal batches even
// though only one worker thread is requested.
func TestFinalize_LargeDictionarySingleThreadSplitsIntoBatches(t *testing.T) {
	a := assert.New(t)
	in := Inputs{NumTerms: 1_000_000, NumThreads: 1}
	// usable_ac_mb = max(512, 1024 - 100 - 300) = 624 -> max_words = 624*2^20/500 ~= 1,308,622
	// that's still >= 1,000,000, so expect a single batch here...
	plan, err := Finalize(in, 100, 1024)
	a.NoError(err)
	a.Len(plan.Batches, 1)

	// ...and a smaller available memory figure alone cannot force a split: the
	// 512MB floor still holds 512*2^20/500 ~= 1,073,741 terms. Doubling the
	// per-term cost halves that to ~536,870, so the same dictionary must split.
	in2 := in
	in2.AvgBytesPerTerm = 1000
	plan2, err := Finalize(in2, 100, 600)
	a.NoError(err)
	a.True(len(plan2.Batches) > 1, "expected multiple batches, got %d", len(plan2.Batches))

	total := 0
	for i, b := range plan2.Batches {
		if i > 0 {
			a.Equal(plan2.Batches[i-1].End, b.Start)
		}
		total += b.Len()
	}
	a.Equal(in.NumTerms, total)
}

func TestFinalize_MultiThreadNeverProducesFewerBatchesThanThreads(t *testing.T) {
	a := assert.New(t)
	in := Inputs{NumTerms: 1000, NumThreads: 4}
	plan, err := Finalize(in, 10, 4096)
	a.NoError(err)
	a.Len(plan.Batches, 4)
	for _, b := range plan.Batches {
		a.True(b.Len() == 250)
	}
}

func TestFinalize_MultiThreadBatchSizesAreEqualizedWithRemainder(t *testing.T) {
	a := assert.New(t)
	in := Inputs{NumTerms: 10, NumThreads: 3}
	plan, err := Finalize(in, 10, 4096)
	a.NoError(err)
	a.Len(plan.Batches, 3)
	// 10 terms over 3 batches: sizes 4,3,3 (remainder distributed to the front).
	sizes := []int{plan.Batches[0].Len(), plan.Batches[1].Len(), plan.Batches[2].Len()}
	a.ElementsMatch([]int{4, 3, 3}, sizes)
}

func TestFinalize_FallsBackTo512MBWhenBudgetTooTight(t *testing.T) {
	a := assert.New(t)
	in := Inputs{NumTerms: 1000, NumThreads: 1}
	// availNowMB - chunkPeakMB - reserveMB goes deeply negative, forcing the
	// max(512, ...) floor, which is still comfortably enough for 1000 terms.
	plan, err := Finalize(in, 100000, 1000)
	a.NoError(err)
	a.Equal(1, len(plan.Batches))
	a.True(plan.MaxWordsPerAc > 0)
}

func TestFinalize_MemoryBudgetErrorWhenEvenFallbackCannotFitOneTerm(t *testing.T) {
	a := assert.New(t)
	// An absurdly large per-term cost makes even the 512MB fallback budget
	// unable to host a single term. availNowMB - chunkPeakMB - reserveMB is
	// 600 - 100 - 300 = 200, so the 512MB floor is the budget in effect.
	in := Inputs{NumTerms: 10, NumThreads: 1, AvgBytesPerTerm: 1024 * 1024 * 1024}
	_, err := Finalize(in, 100, 600)
	a.Error(err)
	a.Equal(common.EErrorKind.MemoryBudgetError(), common.KindOf(err))
}

func TestFinalize_ZeroTermsYieldsNoBatches(t *testing.T) {
	a := assert.New(t)
	plan, err := Finalize(Inputs{NumTerms: 0, NumThreads: 1}, 10, 4096)
	a.NoError(err)
	a.Empty(plan.Batches)
}

func TestEqualize_DistributesRemainderToFrontBatches(t *testing.T) {
	a := assert.New(t)
	batches := equalize(7, 3)
	a.Equal([]BatchRange{{0, 3}, {3, 5}, {5, 7}}, batches)
}
