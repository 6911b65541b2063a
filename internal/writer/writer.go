// Package writer implements C7, the Output Writer: a single mutex-guarded
// append sink for `term\tcount\n` records, shared by every Batch Executor.
package writer

import (
	"os"
	"sync"

	"github.com/tumuyan/WikiFilter/common"
)

// Writer serializes appends from concurrent batches into one output file,
// the way the teacher's CacheLimiter/writer-lock idiom guards one shared
// resource with one mutex instead of channel plumbing (spec §4.7).
type Writer struct {
	mu   sync.Mutex
	file *os.File
}

// Open truncates path (spec §6: "Truncated at startup, appended
// thereafter") and returns a Writer ready to accept batch records.
func Open(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, common.WrapError(common.EErrorKind.IoError(), err, "creating output file")
	}
	return &Writer{file: f}, nil
}

// WriteBatch appends data (already serialized as `term\tcount\n` lines in
// term-index order, per spec §4.6 step 4) atomically with respect to every
// other batch's WriteBatch call. An append error is reported to the caller
// but does not lose the in-memory counts already serialized into data
// (spec §7: "Output append errors are logged; the batch's counts are not
// lost, but partial state on disk is expected").
func (w *Writer) WriteBatch(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.file.Write(data); err != nil {
		return common.WrapError(common.EErrorKind.IoError(), err, "appending batch output")
	}
	return nil
}

func (w *Writer) Close() error {
	return w.file.Close()
}
