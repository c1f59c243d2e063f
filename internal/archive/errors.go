package archive

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindNameTooLong Kind = iota + 1
	KindPathNotFound
	KindNotADirectory
	KindNonUTF8Path
	KindIOFailure
	KindFinalize
	KindUnsupportedMethod
)

func (k Kind) String() string {
	switch k {
	case KindNameTooLong:
		return "name too long"
	case KindPathNotFound:
		return "path not found"
	case KindNotADirectory:
		return "not a directory"
	case KindNonUTF8Path:
		return "non utf-8 path"
	case KindIOFailure:
		return "i/o failure"
	case KindFinalize:
		return "archive finalize failed"
	case KindUnsupportedMethod:
		return "unsupported compression method"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Sentinels for errors.Is; they match any *Error of the same Kind.
var (
	ErrNameTooLong       = &Error{Kind: KindNameTooLong}
	ErrPathNotFound      = &Error{Kind: KindPathNotFound}
	ErrNotADirectory     = &Error{Kind: KindNotADirectory}
	ErrNonUTF8Path       = &Error{Kind: KindNonUTF8Path}
	ErrIOFailure         = &Error{Kind: KindIOFailure}
	ErrFinalize          = &Error{Kind: KindFinalize}
	ErrUnsupportedMethod = &Error{Kind: KindUnsupportedMethod}
)

// Error is the failure type returned by every archive builder stage.
// Path names the file or directory involved, when there is one.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

func newError(kind Kind, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Path)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Path == "" && t.Err == nil
}

// KindOf reports the Kind carried by err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
