// Package besteffort carries the outcome of advisory fetches. A Result has no error
// return path: a failed fetch is an empty list plus the reason it degraded.
package besteffort

type Result[T any] struct {
	items    []T
	degraded error
}

func Of[T any](items []T) Result[T] {
	return Result[T]{items: items}
}

func Empty[T any](reason error) Result[T] {
	return Result[T]{degraded: reason}
}

// Items never returns nil so results serialize as an empty list.
func (r Result[T]) Items() []T {
	if r.items == nil {
		return []T{}
	}
	return r.items
}

// Degraded reports why the result is empty, or nil if the fetch succeeded.
func (r Result[T]) Degraded() error {
	return r.degraded
}
