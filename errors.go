package imgdl

import (
	"errors"
	"fmt"
)

// ErrNotImage reports a response whose Content-Type is not image/*.
var ErrNotImage = errors.New("the response is not an image")

// ArgumentError reports invalid caller-supplied input: a malformed URL, a
// bad name/extension/directory, or bad batch parameters. It is never
// retried and aborts the whole operation.
type ArgumentError struct {
	Msg string
	Err error
}

func (e *ArgumentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid argument: %s: %v", e.Msg, e.Err)
	}
	return "invalid argument: " + e.Msg
}

func (e *ArgumentError) Unwrap() error { return e.Err }

// DirectoryError reports a destination directory that cannot be created or
// accessed. Like ArgumentError it is treated as fatal by the batch
// scheduler: every subsequent item in the same directory would fail too.
type DirectoryError struct {
	Path string
	Err  error
}

func (e *DirectoryError) Error() string {
	return fmt.Sprintf("directory %s: %v", e.Path, e.Err)
}

func (e *DirectoryError) Unwrap() error { return e.Err }

// FetchError reports a network/HTTP-layer failure: unreachable host,
// non-2xx status, non-image content type, timeout, or abort. StatusCode is
// zero when no response was received.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// argErrorf builds an ArgumentError from a format string.
func argErrorf(format string, args ...any) *ArgumentError {
	return &ArgumentError{Msg: fmt.Sprintf(format, args...)}
}

// isFatal reports whether err belongs to the fail-fast classes
// (ArgumentError, DirectoryError) that abort a whole batch.
func isFatal(err error) bool {
	var argErr *ArgumentError
	var dirErr *DirectoryError
	return errors.As(err, &argErr) || errors.As(err, &dirErr)
}

// ErrorName returns the taxonomy name of err: "ArgumentError",
// "DirectoryError", "FetchError", or "Error" for anything else.
func ErrorName(err error) string {
	var argErr *ArgumentError
	var dirErr *DirectoryError
	var fetchErr *FetchError
	switch {
	case errors.As(err, &argErr):
		return "ArgumentError"
	case errors.As(err, &dirErr):
		return "DirectoryError"
	case errors.As(err, &fetchErr):
		return "FetchError"
	default:
		return "Error"
	}
}
