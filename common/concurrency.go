package common

import (
	"log"
	"os"
	"runtime"
	"strconv"
)

// maxSaneThreadCount guards against a container runtime misreporting host
// CPU count (spec §5: "a sanity ceiling of 64").
const maxSaneThreadCount = 64

// ComputeThreads resolves the CLI's optional thread_count argument into the
// degree of concurrency the Scheduler should run with (spec §6):
//
//	threadArg > 0: honored verbatim
//	threadArg <= 0: auto-detect hardware concurrency, capped at 64,
//	                falling back to 2 if detection yields nothing useful
//
// Modeled on the teacher's ComputeConcurrencyValue (common/concurrency.go):
// an environment variable override first, then a small deterministic
// heuristic over the machine's reported CPU count.
func ComputeThreads(threadArg int) int {
	if threadArg > 0 {
		return threadArg
	}

	if override := os.Getenv("WIKIFILTER_THREADS"); override != "" {
		val, err := strconv.Atoi(override)
		if err != nil {
			log.Fatalf("error parsing WIKIFILTER_THREADS=%q: %v", override, err)
		}
		return clampThreads(val)
	}

	return clampThreads(runtime.NumCPU())
}

func clampThreads(n int) int {
	if n <= 0 {
		return 2
	}
	if n > maxSaneThreadCount {
		return maxSaneThreadCount
	}
	return n
}
