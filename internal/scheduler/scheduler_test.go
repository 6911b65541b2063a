package scheduler

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tumuyan/WikiFilter/common"
	"github.com/tumuyan/WikiFilter/internal/corpus"
	"github.com/tumuyan/WikiFilter/internal/planner"
	"github.com/tumuyan/WikiFilter/internal/writer"
)

const seedCorpus = "abc\nxabcx\nab\nxx\n"

var seedTerms = [][]byte{[]byte("ab"), []byte("bc"), []byte("abc")}

func newScanner(t *testing.T, contents string) *corpus.Scanner {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.txt")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := corpus.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Plan(1024 * 1024); err != nil {
		t.Fatal(err)
	}
	return s
}

func readRecords(t *testing.T, path string) map[string]int64 {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	out := make(map[string]int64)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		parts := strings.SplitN(sc.Text(), "\t", 2)
		if len(parts) != 2 {
			continue
		}
		n, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			t.Fatal(err)
		}
		out[parts[0]] += n
	}
	return out
}

func runJob(t *testing.T, batches []planner.BatchRange, numThreads int) map[string]int64 {
	t.Helper()
	scanner := newScanner(t, seedCorpus)
	outPath := filepath.Join(t.TempDir(), "out.csv")
	w, err := writer.Open(outPath)
	if err != nil {
		t.Fatal(err)
	}

	_, err = Run(Job{
		Terms:      seedTerms,
		Batches:    batches,
		Scanner:    scanner,
		Writer:     w,
		Hooks:      common.NewProgressHooks(),
		NumThreads: numThreads,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return readRecords(t, outPath)
}

func TestRun_SingleBatchMatchesSeedScenario(t *testing.T) {
	a := assert.New(t)
	got := runJob(t, []planner.BatchRange{{Start: 0, End: 3}}, 1)
	a.Equal(map[string]int64{"ab": 3, "bc": 2, "abc": 2}, got)
}

// TestRun_SplitBatchesEqualUnion matches spec §8 property 8: splitting the
// dictionary into disjoint halves, running independently and merging
// equals running on the union.
func TestRun_SplitBatchesEqualUnion(t *testing.T) {
	a := assert.New(t)
	got := runJob(t, []planner.BatchRange{{Start: 0, End: 1}, {Start: 1, End: 3}}, 1)
	a.Equal(map[string]int64{"ab": 3, "bc": 2, "abc": 2}, got)
}

// TestRun_ParallelMatchesSerial matches spec §8 property 4: thread count
// does not change the output multiset.
func TestRun_ParallelMatchesSerial(t *testing.T) {
	a := assert.New(t)
	got := runJob(t, []planner.BatchRange{{Start: 0, End: 1}, {Start: 1, End: 2}, {Start: 2, End: 3}}, 4)
	a.Equal(map[string]int64{"ab": 3, "bc": 2, "abc": 2}, got)
}

func TestRun_EmptyBatchListIsNoop(t *testing.T) {
	a := assert.New(t)
	results, err := Run(Job{NumThreads: 1})
	a.NoError(err)
	a.Nil(results)
}

func TestRun_StopFlagHaltsBeforeNextBatch(t *testing.T) {
	a := assert.New(t)
	scanner := newScanner(t, seedCorpus)
	outPath := filepath.Join(t.TempDir(), "out.csv")
	w, err := writer.Open(outPath)
	a.NoError(err)

	stop := &common.StopFlag{}
	stop.Stop()
	results, err := Run(Job{
		Terms:      seedTerms,
		Batches:    []planner.BatchRange{{Start: 0, End: 1}, {Start: 1, End: 3}},
		Scanner:    scanner,
		Writer:     w,
		Hooks:      common.NewProgressHooks(),
		Stop:       stop,
		NumThreads: 1,
	})
	a.NoError(err)
	a.NoError(w.Close())
	a.Empty(results)
}
