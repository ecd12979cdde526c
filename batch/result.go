package batch

// Result is the outcome of processing one value inside a flushed group.
// The processing function returns one Result per input value, in input
// order. Construct results with OK or Fail.
type Result[R any] struct {
	value R
	err   error
}

// OK returns a successful result carrying a value.
func OK[R any](value R) Result[R] {
	return Result[R]{value: value}
}

// Fail returns a failed result carrying an error.
func Fail[R any](err error) Result[R] {
	return Result[R]{err: err}
}

// Failed reports whether the result is a failure marker.
func (r Result[R]) Failed() bool {
	return r.err != nil
}

// Value returns the success value, or the zero value for a failure.
func (r Result[R]) Value() R {
	return r.value
}

// Err returns the failure error, or nil for a success.
func (r Result[R]) Err() error {
	return r.err
}
