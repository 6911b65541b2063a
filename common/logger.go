package common

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

// ILogger is the minimal logging surface every component is handed. Argument
// parsing, locale setup and the eventual log sink are all external
// collaborators (see spec §1 Out of scope); this interface is the seam
// between WikiFilter's components and whatever the caller wants to do with
// the resulting text.
type ILogger interface {
	ShouldLog(level LogLevel) bool
	Log(level LogLevel, msg string)
}

// ILoggerCloser additionally owns a resource (a file, typically) that must
// be flushed/closed at the end of a run.
type ILoggerCloser interface {
	ILogger
	CloseLog()
}

type consoleLogger struct {
	mu                sync.Mutex
	out               io.Writer
	minimumLevelToLog LogLevel
	logger            *log.Logger
}

// NewConsoleLogger returns the default ProgressSink-backing logger: plain
// timestamped lines to the given writer (stderr in the CLI), gated by a
// minimum level. This mirrors the teacher's jobLogger (common/logger.go)
// minus the job-log-file bookkeeping, which WikiFilter has no use for.
func NewConsoleLogger(out io.Writer, minimumLevelToLog LogLevel) ILoggerCloser {
	return &consoleLogger{
		out:               out,
		minimumLevelToLog: minimumLevelToLog,
		logger:            log.New(out, "", log.LstdFlags),
	}
}

func NewStderrLogger(minimumLevelToLog LogLevel) ILoggerCloser {
	return NewConsoleLogger(os.Stderr, minimumLevelToLog)
}

func (c *consoleLogger) ShouldLog(level LogLevel) bool {
	if level == ELogLevel.None() {
		return false
	}
	return level <= c.minimumLevelToLog
}

func (c *consoleLogger) Log(level LogLevel, msg string) {
	if !c.ShouldLog(level) {
		return
	}
	prefix := ""
	if level <= ELogLevel.Error() {
		prefix = fmt.Sprintf("%s: ", level)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger.Println(prefix + msg)
}

func (c *consoleLogger) CloseLog() {}

// NullLogger discards everything; useful for tests that don't want progress
// noise on stderr.
type nullLogger struct{}

func NewNullLogger() ILoggerCloser { return nullLogger{} }

func (nullLogger) ShouldLog(LogLevel) bool { return false }
func (nullLogger) Log(LogLevel, string)    {}
func (nullLogger) CloseLog()               {}
