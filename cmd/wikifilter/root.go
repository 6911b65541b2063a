// Package main wires C1-C8 together behind the CLI described in spec §6
// (C9 Run Orchestration). Structured the way the teacher's cmd/root.go is:
// a cobra.Command with a RunE that does the actual work, package-level
// flags bound by init(), and a thin main() that just calls Execute.
package main

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/tumuyan/WikiFilter/common"
	"github.com/tumuyan/WikiFilter/internal/corpus"
	"github.com/tumuyan/WikiFilter/internal/dictionary"
	"github.com/tumuyan/WikiFilter/internal/memprobe"
	"github.com/tumuyan/WikiFilter/internal/planner"
	"github.com/tumuyan/WikiFilter/internal/scheduler"
	"github.com/tumuyan/WikiFilter/internal/writer"
)

var threadsFlag int

// rootCmd implements the positional-argument CLI of spec §6:
// "wikifilter <dict_path> <text_path> [thread_count]". A --threads flag is
// accepted as an alternate spelling of the same trailing positional
// argument, following the teacher's habit of exposing the same input as
// both a flag and a positional/env value (e.g. azcopy's cap-mbps).
var rootCmd = &cobra.Command{
	Use:   "wikifilter <dict_path> <text_path> [thread_count]",
	Short: "Count, per dictionary term, the corpus lines containing it as a substring",
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) < 2 || len(args) > 3 {
			return common.NewError(common.EErrorKind.ArgError(), "usage: wikifilter <dict_path> <text_path> [thread_count]")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		dictPath := args[0]
		textPath := args[1]

		threadArg := threadsFlag
		if len(args) == 3 {
			n, err := parseThreadArg(args[2])
			if err != nil {
				return common.NewError(common.EErrorKind.ArgError(), "invalid thread_count: "+args[2])
			}
			threadArg = n
		}

		return run(dictPath, textPath, threadArg)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.Flags().IntVar(&threadsFlag, "threads", 0, "worker thread count (<=0 autodetects, capped at 64)")
}

func parseThreadArg(s string) (int, error) {
	return strconv.Atoi(s)
}

// Execute runs the root command, returning the process exit code per spec
// §6/§7: 0 success, 1 argument error, <0 I/O/processing error.
func Execute() int {
	err := rootCmd.Execute()
	return common.ExitCode(err)
}

func run(dictPath, textPath string, threadArg int) error {
	runID := common.NewRunID()
	logger := common.NewStderrLogger(common.ELogLevel.Info())
	hooks := common.NewLoggingProgressHooks(logger)
	common.SetProgressSink(hooks)

	hooks.Info(fmt.Sprintf("run=%s dict=%s corpus=%s", runID, dictPath, textPath))

	threads := common.ComputeThreads(threadArg)
	hooks.Info(fmt.Sprintf("threads=%d (runtime NumCPU=%d)", threads, runtime.NumCPU()))

	dict, err := dictionary.Load(dictPath)
	if err != nil {
		return err
	}
	hooks.Info(fmt.Sprintf("dictionary: %d terms after normalization", dict.Len()))

	outPath := textPath + ".filted.csv"
	out, err := writer.Open(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	if dict.Len() == 0 {
		hooks.Info("empty dictionary, nothing to do")
		return nil
	}

	scanner, err := corpus.Open(textPath)
	if err != nil {
		return err
	}

	prober := memprobe.New()
	availMB := prober.AvailableMemoryMB()
	fileSizeMB := float64(scanner.FileSize()) / (1024 * 1024)

	planIn := planner.Inputs{
		NumTerms:   dict.Len(),
		NumThreads: threads,
		AvailMemMB: availMB,
		FileSizeMB: fileSizeMB,
	}

	initial := planner.PlanInitialChunkSize(planIn)
	chunkSizeBytes := int64(initial.ChunkSizeMB * 1024 * 1024)

	if err := scanner.Plan(chunkSizeBytes); err != nil {
		return err
	}

	if scanner.FileSize() == 0 {
		hooks.Info("empty corpus, nothing to do")
		return nil
	}

	availNowMB := prober.AvailableMemoryMB()
	plan, err := planner.Finalize(planIn, initial.ChunkSizeMB, availNowMB)
	if err != nil {
		return err
	}

	hooks.Plan(common.PlanSummary{
		NumTerms:      dict.Len(),
		NumBatches:    len(plan.Batches),
		ChunkSizeMB:   initial.ChunkSizeMB,
		AvailMemMB:    availMB,
		AcMemEstMB:    initial.AcMemEstMB,
		MaxWordsPerAc: plan.MaxWordsPerAc,
	})

	stop := &common.StopFlag{}
	installSignalHandler(stop, hooks)

	// Bound how much estimated AC memory the scheduler's parallel workers
	// may hold built at once: plan.UsableAcMB is what the planner sized one
	// batch's automaton against, not the sum of several batches building
	// concurrently under NumThreads>1 (spec §5).
	acLimiter := common.NewCacheLimiter(int64(plan.UsableAcMB * 1024 * 1024))

	start := time.Now()
	_, err = scheduler.Run(scheduler.Job{
		Terms:          dict.Terms,
		Batches:        plan.Batches,
		Scanner:        scanner,
		Writer:         out,
		Hooks:          hooks,
		Stop:           stop,
		NumThreads:     threads,
		AcLimiter:      acLimiter,
		AcBytesPerTerm: planner.DefaultBytesPerTerm,
	})
	if err != nil {
		return err
	}

	hooks.Info(fmt.Sprintf("done in %s", time.Since(start).Round(time.Millisecond)))
	return nil
}

func main() {
	os.Exit(Execute())
}
