// Package executor implements C6, the Batch Executor: build one
// Aho-Corasick automaton over a dictionary slice, stream the whole corpus
// once through it, and hand the accumulated per-term line counts to the
// Output Writer.
package executor

import (
	"bytes"
	"context"
	"strconv"
	"time"

	"github.com/tumuyan/WikiFilter/common"
	"github.com/tumuyan/WikiFilter/internal/ahocorasick"
	"github.com/tumuyan/WikiFilter/internal/corpus"
	"github.com/tumuyan/WikiFilter/internal/planner"
	"github.com/tumuyan/WikiFilter/internal/writer"
)

// progressInterval is the spec §6 floor on how often the progress sink may
// be asked to render an in-batch update ("at >= 30s intervals").
const progressInterval = 30 * time.Second

// Result carries the timings the progress sink reports per batch (spec
// §4.6 step 1 "record build wall time", §6 "per-batch build/scan timings").
type Result struct {
	BatchIndex   int
	NumTerms     int
	BuildTime    time.Duration
	ScanTime     time.Duration
	LinesScanned int64
}

// StopSignal is polled between the cooperative-cancellation points the
// Scheduler (C8) and this executor share (spec §5 "Cancellation").
type StopSignal interface {
	Stopped() bool
}

// Run executes one batch end to end (spec §4.6):
//  1. build an automaton over terms[br.Start:br.End]
//  2. allocate batch-local zeroed counters
//  3. stream the corpus once via scanner, searching and incrementing
//  4. serialize every counter > 0 as "term\tcount\n" and append it via out
//  5. drop the automaton and counters on return (nothing escapes but Result)
//
// acLimiter, when non-nil, bounds the estimated AC memory (len(batchTerms) *
// bytesPerTerm) this call may hold concurrently with other batches' builds —
// the admission control the Scheduler's parallel claim loop needs on top of
// the Batch Planner's single-batch sizing (spec §5's memory inequality,
// common.CacheLimiter). acLimiter is acquired against its full limit, not its
// strict limit, so a batch of the planner's maximum size can always be
// admitted once no other batch holds budget. It is acquired before the automaton build and
// released once the whole batch, automaton included, has been dropped.
func Run(terms [][]byte, br planner.BatchRange, scanner *corpus.Scanner, out *writer.Writer, hooks *common.ProgressHooks, batchIndex, numBatches int, stop StopSignal, acLimiter common.CacheLimiter, bytesPerTerm float64) (Result, error) {
	batchTerms := terms[br.Start:br.End]

	acCost := int64(float64(len(batchTerms)) * bytesPerTerm)
	if acLimiter != nil && acCost > 0 {
		if err := acLimiter.WaitUntilAdd(context.Background(), acCost, func() bool { return true }); err != nil {
			return Result{}, common.WrapError(common.EErrorKind.MemoryBudgetError(), err, "waiting for AC memory admission")
		}
		defer acLimiter.Remove(acCost)
	}

	buildStart := time.Now()
	ac := ahocorasick.Build(batchTerms)
	buildTime := time.Since(buildStart)

	counts := make([]int64, len(batchTerms))

	totalLines := scanner.TotalLines()
	var linesScanned int64
	lastReport := time.Now()
	reportStart := lastReport
	var linesAtLastReport int64

	scanStart := time.Now()
	err := scanner.Scan(func(line []byte, chunkIdx int, globalLine int64) bool {
		for _, hit := range ac.Search(line) {
			counts[hit]++
		}
		linesScanned++

		if stop != nil && stop.Stopped() {
			return false
		}

		if now := time.Now(); now.Sub(lastReport) >= progressInterval {
			reportProgress(hooks, batchIndex, linesScanned, totalLines, now, reportStart, lastReport, linesAtLastReport)
			linesAtLastReport = linesScanned
			lastReport = now
		}
		return true
	})
	scanTime := time.Since(scanStart)

	if err != nil {
		return Result{}, common.WrapError(common.EErrorKind.IoError(), err, "scanning corpus for batch")
	}

	if err := out.WriteBatch(serialize(batchTerms, counts)); err != nil {
		hooks.Warn(err.Error())
	}

	result := Result{
		BatchIndex:   batchIndex,
		NumTerms:     len(batchTerms),
		BuildTime:    buildTime,
		ScanTime:     scanTime,
		LinesScanned: linesScanned,
	}
	hooks.Batch(common.BatchTiming{
		BatchIndex: batchIndex,
		NumBatches: numBatches,
		NumTerms:   len(batchTerms),
		BuildTime:  buildTime,
		ScanTime:   scanTime,
	})
	return result, nil
}

// serialize writes one "term\tcount\n" line per counter > 0, in term-index
// order (spec §4.6 step 4, §4.7 "ordering within a batch follows term-index
// order"). Terms with zero hits are omitted (spec §6).
func serialize(batchTerms [][]byte, counts []int64) []byte {
	var buf bytes.Buffer
	for i, c := range counts {
		if c == 0 {
			continue
		}
		buf.Write(batchTerms[i])
		buf.WriteByte('\t')
		buf.WriteString(strconv.FormatInt(c, 10))
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func reportProgress(hooks *common.ProgressHooks, batchIndex int, linesScanned, totalLines int64, now, start, lastReport time.Time, linesAtLastReport int64) {
	var percent float64
	if totalLines > 0 {
		percent = float64(linesScanned) / float64(totalLines) * 100
	}

	elapsedSinceStart := now.Sub(start).Seconds()
	var avgRate float64
	if elapsedSinceStart > 0 {
		avgRate = float64(linesScanned) / elapsedSinceStart
	}

	instantWindow := now.Sub(lastReport).Seconds()
	var instantRate float64
	if instantWindow > 0 {
		instantRate = float64(linesScanned-linesAtLastReport) / instantWindow
	}

	var eta time.Duration
	if avgRate > 0 && totalLines > linesScanned {
		eta = time.Duration(float64(totalLines-linesScanned)/avgRate) * time.Second
	}

	hooks.Progress(common.Progress{
		BatchIndex:         batchIndex,
		PercentComplete:    percent,
		InstantLinesPerSec: instantRate,
		AvgLinesPerSec:     avgRate,
		ETA:                eta,
	})
}
