package common

import (
	"reflect"

	"github.com/JeffreyRichter/enum/enum"
	"github.com/pkg/errors"
)

// ErrorKind classifies a failure the way §7 of the design doc does, so that
// main can map it to the right process exit code without re-inspecting the
// error chain.
type ErrorKind uint8

const (
	KindNone ErrorKind = iota
	KindArgError
	KindIoError
	KindMemoryBudgetError
	KindLocaleWarning
)

var EErrorKind = ErrorKind(KindNone)

func (ErrorKind) None() ErrorKind             { return ErrorKind(KindNone) }
func (ErrorKind) ArgError() ErrorKind          { return ErrorKind(KindArgError) }
func (ErrorKind) IoError() ErrorKind           { return ErrorKind(KindIoError) }
func (ErrorKind) MemoryBudgetError() ErrorKind { return ErrorKind(KindMemoryBudgetError) }
func (ErrorKind) LocaleWarning() ErrorKind     { return ErrorKind(KindLocaleWarning) }

func (k ErrorKind) String() string {
	switch k {
	case EErrorKind.None():
		return "None"
	case EErrorKind.ArgError():
		return "ArgError"
	case EErrorKind.IoError():
		return "IoError"
	case EErrorKind.MemoryBudgetError():
		return "MemoryBudgetError"
	case EErrorKind.LocaleWarning():
		return "LocaleWarning"
	default:
		return enum.StringInt(k, reflect.TypeOf(k))
	}
}

// KindedError pairs an ErrorKind with an underlying cause, wrapped with
// pkg/errors so that Cause() still reaches the original failure.
type KindedError struct {
	Kind  ErrorKind
	cause error
}

func NewError(kind ErrorKind, msg string) error {
	return &KindedError{Kind: kind, cause: errors.New(msg)}
}

func WrapError(kind ErrorKind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &KindedError{Kind: kind, cause: errors.Wrap(err, msg)}
}

func (e *KindedError) Error() string {
	return e.Kind.String() + ": " + e.cause.Error()
}

func (e *KindedError) Cause() error { return e.cause }

func (e *KindedError) Unwrap() error { return e.cause }

// KindOf extracts the ErrorKind carried by err, if any, defaulting to
// KindIoError for unclassified failures (the most common case for this
// program: something on the filesystem went wrong).
func KindOf(err error) ErrorKind {
	var ke *KindedError
	if errors.As(err, &ke) {
		return ke.Kind
	}
	return EErrorKind.IoError()
}

// ExitCode maps an ErrorKind to the process exit code described in §6/§7:
// 0 success, 1 argument error, <0 for I/O / processing failures.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch KindOf(err) {
	case EErrorKind.ArgError():
		return 1
	default:
		return -1
	}
}
