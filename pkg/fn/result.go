// Package fn is the composition toolkit the ingestion pipeline is built
// from: an explicit success-or-error Result, traced Stage composition,
// bounded parallel mapping, retry with backoff, and a few slice helpers.
package fn

// Result holds either a value or the error that prevented it. The zero
// Result is a failure with a nil cause; construct through Ok and Err.
type Result[T any] struct {
	val T
	err error
	ok  bool
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] { return Result[T]{val: v, ok: true} }

// Err wraps a failure.
func Err[T any](err error) Result[T] { return Result[T]{err: err} }

// IsOk reports success.
func (r Result[T]) IsOk() bool { return r.ok }

// IsErr reports failure.
func (r Result[T]) IsErr() bool { return !r.ok }

// Unwrap returns the value and error as an ordinary Go pair.
func (r Result[T]) Unwrap() (T, error) { return r.val, r.err }
