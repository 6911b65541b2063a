package writer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriter_TruncatesAndAppends(t *testing.T) {
	a := assert.New(t)
	path := filepath.Join(t.TempDir(), "out.csv")
	a.NoError(os.WriteFile(path, []byte("stale contents\n"), 0o644))

	w, err := Open(path)
	a.NoError(err)

	a.NoError(w.WriteBatch([]byte("ab\t3\n")))
	a.NoError(w.WriteBatch([]byte("bc\t2\n")))
	a.NoError(w.Close())

	got, err := os.ReadFile(path)
	a.NoError(err)
	a.Equal("ab\t3\nbc\t2\n", string(got))
}

func TestWriter_EmptyBatchIsNoop(t *testing.T) {
	a := assert.New(t)
	path := filepath.Join(t.TempDir(), "out.csv")

	w, err := Open(path)
	a.NoError(err)
	a.NoError(w.WriteBatch(nil))
	a.NoError(w.Close())

	got, err := os.ReadFile(path)
	a.NoError(err)
	a.Equal("", string(got))
}

func TestOpen_UnwritableDirectoryIsIoError(t *testing.T) {
	a := assert.New(t)
	_, err := Open(filepath.Join(t.TempDir(), "does-not-exist", "out.csv"))
	a.Error(err)
}
