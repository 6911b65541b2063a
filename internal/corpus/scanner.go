// Package corpus implements C3, the Corpus Scanner: a two-pass streaming
// reader that chunks a file on line boundaries once and replays those
// chunks for every batch the Scheduler runs.
package corpus

import (
	"bytes"
	"io"
	"os"

	"github.com/tumuyan/WikiFilter/common"
)

// Chunk is a contiguous byte range of the corpus ending on a newline or EOF
// (spec §3: "Chunk boundary").
type Chunk struct {
	Start int64
	End   int64
	Lines int64
}

// LineVisitor is invoked once per non-empty line during Scan. Returning
// false stops iteration early (used for cooperative cancellation).
type LineVisitor func(line []byte, chunkIndex int, globalLineIndex int64) bool

// Scanner owns the precomputed chunk boundaries for one corpus file and
// streams them on demand. Chunks are built once (Plan) and are safe to
// replay from concurrent Scan calls made by different batches, since Scan
// only reads the Scanner's fields (spec §5: "Corpus-cached bytes...
// read-only, shared").
type Scanner struct {
	path      string
	fileSize  int64
	chunkSize int64
	chunks    []Chunk

	// cached holds the whole file when it fits in a single chunk (spec
	// §4.3's "correctness-equivalent performance optimization").
	cached []byte
}

// Open stats path and records its size; the boundary scan itself happens in
// Plan, once the caller knows what chunk size the Batch Planner settled on.
func Open(path string) (*Scanner, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, common.WrapError(common.EErrorKind.IoError(), err, "stat corpus file")
	}
	return &Scanner{path: path, fileSize: info.Size()}, nil
}

func (s *Scanner) FileSize() int64 { return s.fileSize }

// Plan runs pass 1: read the corpus in buffers of chunkSizeBytes, find the
// last newline in each buffer, and record (start, end, line_count) triples
// ending on that newline (or at EOF for the final chunk). Chunks cover
// [0, file_size) contiguously without overlap, per spec §3's invariant.
func (s *Scanner) Plan(chunkSizeBytes int64) error {
	if chunkSizeBytes <= 0 {
		chunkSizeBytes = 64 * 1024 * 1024
	}
	s.chunkSize = chunkSizeBytes
	s.chunks = nil

	if s.fileSize == 0 {
		return nil
	}

	f, err := os.Open(s.path)
	if err != nil {
		return common.WrapError(common.EErrorKind.IoError(), err, "opening corpus file for boundary scan")
	}
	defer f.Close()

	var pos int64
	window := make([]byte, 0, chunkSizeBytes)

	for pos < s.fileSize {
		window = window[:0]
		readTo := pos

		// Read in chunkSizeBytes increments, extending the window whenever
		// it contains no newline and the file isn't exhausted yet, so a
		// single line longer than one chunk never gets split across chunks
		// (spec §3 invariant).
		for {
			grow := make([]byte, chunkSizeBytes)
			n, readErr := f.ReadAt(grow, readTo)
			if readErr != nil && readErr != io.EOF {
				return common.WrapError(common.EErrorKind.IoError(), readErr, "scanning corpus boundaries")
			}
			window = append(window, grow[:n]...)
			readTo += int64(n)

			atEOF := readTo >= s.fileSize
			if atEOF || bytes.IndexByte(grow[:n], '\n') != -1 {
				break
			}
		}

		lastNL := bytes.LastIndexByte(window, '\n')
		atEOF := pos+int64(len(window)) >= s.fileSize

		var chunkEnd int64
		if atEOF || lastNL == -1 {
			chunkEnd = pos + int64(len(window))
		} else {
			chunkEnd = pos + int64(lastNL) + 1
		}
		lines := int64(bytes.Count(window[:chunkEnd-pos], []byte{'\n'}))

		s.chunks = append(s.chunks, Chunk{Start: pos, End: chunkEnd, Lines: lines})
		pos = chunkEnd
	}

	if s.fileSize <= chunkSizeBytes && len(s.chunks) == 1 {
		cached, err := os.ReadFile(s.path)
		if err != nil {
			return common.WrapError(common.EErrorKind.IoError(), err, "caching single-chunk corpus")
		}
		s.cached = cached
	}

	return nil
}

func (s *Scanner) Chunks() []Chunk { return s.chunks }

func (s *Scanner) TotalLines() int64 {
	var total int64
	for _, c := range s.chunks {
		total += c.Lines
	}
	return total
}

// Scan runs pass 2: iterates the precomputed chunks, reading [Start, End)
// into a reusable buffer, splitting on '\n', and invoking visit for every
// non-empty line. Lines of length 0 are skipped (spec §4.3). Scan may be
// called repeatedly (once per batch); each call is independent and uses its
// own file handle and buffer, so concurrent batches scanning through the
// same Scanner never share mutable state.
func (s *Scanner) Scan(visit LineVisitor) error {
	if len(s.chunks) == 0 {
		return nil
	}

	if s.cached != nil {
		return scanFromMemory(s.cached, s.chunks, visit)
	}

	f, err := os.Open(s.path)
	if err != nil {
		return common.WrapError(common.EErrorKind.IoError(), err, "opening corpus file for streaming")
	}
	defer f.Close()

	buf := make([]byte, s.chunkSize)
	var globalLine int64

	for chunkIdx, chunk := range s.chunks {
		size := chunk.End - chunk.Start
		if int64(len(buf)) < size {
			buf = make([]byte, size)
		}
		region := buf[:size]

		if _, err := f.Seek(chunk.Start, io.SeekStart); err != nil {
			return common.WrapError(common.EErrorKind.IoError(), err, "seeking to chunk")
		}
		if _, err := io.ReadFull(f, region); err != nil {
			return common.WrapError(common.EErrorKind.IoError(), err, "reading chunk")
		}

		if !iterateLines(region, chunkIdx, &globalLine, visit) {
			return nil
		}
	}

	return nil
}

func scanFromMemory(data []byte, chunks []Chunk, visit LineVisitor) error {
	var globalLine int64
	for chunkIdx, chunk := range chunks {
		region := data[chunk.Start:chunk.End]
		if !iterateLines(region, chunkIdx, &globalLine, visit) {
			return nil
		}
	}
	return nil
}

// iterateLines splits region on '\n' and calls visit for each non-empty
// line, returning false as soon as visit asks to stop.
func iterateLines(region []byte, chunkIdx int, globalLine *int64, visit LineVisitor) bool {
	start := 0
	for start < len(region) {
		nl := bytes.IndexByte(region[start:], '\n')
		var line []byte
		if nl == -1 {
			line = region[start:]
			start = len(region)
		} else {
			line = region[start : start+nl]
			start += nl + 1
		}

		if len(line) == 0 {
			continue
		}

		if !visit(line, chunkIdx, *globalLine) {
			return false
		}
		*globalLine++
	}
	return true
}
