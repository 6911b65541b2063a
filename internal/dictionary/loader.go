// Package dictionary implements C2, the Dictionary Loader: reading the
// dictionary file, normalizing whitespace, and dropping terms that are too
// short to be useful to the Aho-Corasick engine.
package dictionary

import (
	"bufio"
	"io"
	"os"

	"github.com/tumuyan/WikiFilter/common"
)

// minTermLength is the shortest term the AC engine will accept (spec §3:
// "length >= 2 after whitespace collapse").
const minTermLength = 2

// List holds every term for the process lifetime. A term's position in
// Terms is its term identifier, used everywhere else in the pipeline
// (BatchRange, AC outputs, line counters) instead of the term's bytes.
type List struct {
	Terms [][]byte
}

func (l *List) Len() int { return len(l.Terms) }

// Load reads path line by line, collapsing any internal run of whitespace
// (space, tab, CR, LF) to nothing and dropping lines whose collapsed byte
// length is <= 1, per spec §4.2. Input order is preserved; duplicates are
// not removed (spec §9: "this specification permits duplicate records").
func Load(path string) (*List, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, common.WrapError(common.EErrorKind.IoError(), err, "opening dictionary file")
	}
	defer f.Close()

	list := &List{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		term := collapseWhitespace(scanner.Bytes())
		if len(term) < minTermLength {
			continue
		}
		owned := make([]byte, len(term))
		copy(owned, term)
		list.Terms = append(list.Terms, owned)
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return nil, common.WrapError(common.EErrorKind.IoError(), err, "reading dictionary file")
	}

	return list, nil
}

// collapseWhitespace removes every space, tab, CR and LF byte from line,
// reusing line's backing array (the caller copies out what it keeps).
func collapseWhitespace(line []byte) []byte {
	out := line[:0]
	for _, b := range line {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		default:
			out = append(out, b)
		}
	}
	return out
}
