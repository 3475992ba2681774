package api

type State int

const (
	Pending State = iota
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the explicit outcome of an in-flight gateway call, so a view can
// render the pending, succeeded and failed states separately.
type Result[T any] struct {
	State State
	Value T
	Err   error
}

func PendingResult[T any]() Result[T] {
	return Result[T]{State: Pending}
}

// Settle turns the return values of a gateway call into a final Result.
func Settle[T any](value T, err error) Result[T] {
	if err != nil {
		return Result[T]{State: Failed, Err: err}
	}
	return Result[T]{State: Succeeded, Value: value}
}

func (r Result[T]) Done() bool {
	return r.State != Pending
}
