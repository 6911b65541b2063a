package dictionary

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dict.txt")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_CollapsesWhitespaceAndDropsShortTerms(t *testing.T) {
	a := assert.New(t)
	path := writeTemp(t, "ab\nbc\nabc\nx\n a b c \n\n")
	list, err := Load(path)
	a.NoError(err)

	var terms []string
	for _, term := range list.Terms {
		terms = append(terms, string(term))
	}
	// "x" is length 1 after collapse -> dropped; blank line -> dropped;
	// "a b c" collapses to "abc" and survives.
	a.Equal([]string{"ab", "bc", "abc", "abc"}, terms)
}

func TestLoad_PreservesOrderAndDuplicates(t *testing.T) {
	a := assert.New(t)
	path := writeTemp(t, "zz\naa\nzz\n")
	list, err := Load(path)
	a.NoError(err)
	a.Equal(3, list.Len())
	a.Equal("zz", string(list.Terms[0]))
	a.Equal("aa", string(list.Terms[1]))
	a.Equal("zz", string(list.Terms[2]))
}

func TestLoad_EmptyFileYieldsEmptyList(t *testing.T) {
	a := assert.New(t)
	path := writeTemp(t, "")
	list, err := Load(path)
	a.NoError(err)
	a.Equal(0, list.Len())
}

func TestLoad_MissingFileIsIoError(t *testing.T) {
	a := assert.New(t)
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.txt"))
	a.Error(err)
}

func TestCollapseWhitespace(t *testing.T) {
	a := assert.New(t)
	a.Equal("abc", string(collapseWhitespace([]byte("a b\tc\r"))))
	a.Equal("", string(collapseWhitespace([]byte(" \t\r"))))
}
