package common

import (
	"fmt"
	"time"
)

// PlanSummary is emitted once, after the Batch Planner has produced its
// plan, per spec §6 ("plan summary").
type PlanSummary struct {
	NumTerms      int
	NumBatches    int
	ChunkSizeMB   float64
	AvailMemMB    float64
	AcMemEstMB    float64
	MaxWordsPerAc int
}

// BatchTiming is emitted once per batch, after its corpus pass completes and
// its records have been handed to the writer, carrying both the build and
// the scan time (spec §6: "per-batch build/scan timings").
type BatchTiming struct {
	BatchIndex int
	NumBatches int
	NumTerms   int
	BuildTime  time.Duration
	ScanTime   time.Duration
}

// Progress is emitted periodically (spec §6: "≥30s intervals") while a
// batch streams the corpus.
type Progress struct {
	BatchIndex        int
	PercentComplete   float64
	InstantLinesPerSec float64
	AvgLinesPerSec    float64
	ETA               time.Duration
}

// ProgressHooks is a struct of overridable callbacks, following the
// teacher's JobUIHooks idiom (common/lifecyleMgr.go): callers override only
// the one or two hooks they care about instead of implementing a full
// interface. All fields have safe no-op defaults from NewProgressHooks.
type ProgressHooks struct {
	Plan     func(PlanSummary)
	Batch    func(BatchTiming)
	Progress func(Progress)
	Warn     func(string)
	Info     func(string)
}

func NewProgressHooks() *ProgressHooks {
	return &ProgressHooks{
		Plan:     func(PlanSummary) {},
		Batch:    func(BatchTiming) {},
		Progress: func(Progress) {},
		Warn:     func(string) {},
		Info:     func(string) {},
	}
}

// NewLoggingProgressHooks renders every hook as a human-readable line
// through logger, which is the shape the default CLI wiring uses.
func NewLoggingProgressHooks(logger ILogger) *ProgressHooks {
	h := NewProgressHooks()
	h.Plan = func(p PlanSummary) {
		logger.Log(ELogLevel.Info(), "plan: "+formatPlanSummary(p))
	}
	h.Batch = func(b BatchTiming) {
		logger.Log(ELogLevel.Info(), "batch: "+formatBatchTiming(b))
	}
	h.Progress = func(p Progress) {
		logger.Log(ELogLevel.Info(), "progress: "+formatProgress(p))
	}
	h.Warn = func(msg string) { logger.Log(ELogLevel.Warning(), msg) }
	h.Info = func(msg string) { logger.Log(ELogLevel.Info(), msg) }
	return h
}

// formatPlanSummary renders the one-time plan-summary line, converting its
// MB fields through ByteSizeToString so the same IEC unit table the teacher
// uses for transfer sizes governs plan output too.
func formatPlanSummary(p PlanSummary) string {
	return fmt.Sprintf(
		"terms=%d batches=%d chunk=%s avail=%s ac_est=%s max_words_per_ac=%d",
		p.NumTerms, p.NumBatches,
		ByteSizeToString(int64(p.ChunkSizeMB*1024*1024)),
		ByteSizeToString(int64(p.AvailMemMB*1024*1024)),
		ByteSizeToString(int64(p.AcMemEstMB*1024*1024)),
		p.MaxWordsPerAc,
	)
}

// formatBatchTiming renders one batch's build/scan timings (spec §6
// "per-batch build/scan timings").
func formatBatchTiming(b BatchTiming) string {
	return fmt.Sprintf(
		"%d/%d terms=%d build=%s scan=%s",
		b.BatchIndex+1, b.NumBatches, b.NumTerms,
		b.BuildTime.Round(time.Millisecond), b.ScanTime.Round(time.Millisecond),
	)
}

// formatProgress renders a periodic in-batch progress line (spec §6:
// "percent complete, instantaneous and average lines/sec, ETA").
func formatProgress(p Progress) string {
	return fmt.Sprintf(
		"batch=%d %.1f%% instant=%.0f lines/s avg=%.0f lines/s eta=%s",
		p.BatchIndex+1, p.PercentComplete, p.InstantLinesPerSec, p.AvgLinesPerSec,
		p.ETA.Round(time.Second),
	)
}

var progressSink *ProgressHooks

// GetProgressSink returns the process-wide progress sink, creating a no-op
// one on first use so callers never need a nil check.
func GetProgressSink() *ProgressHooks {
	if progressSink == nil {
		progressSink = NewProgressHooks()
	}
	return progressSink
}

func SetProgressSink(hooks *ProgressHooks) {
	progressSink = hooks
}
