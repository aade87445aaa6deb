// Package clients keeps provider client handles keyed by the credential they were built with.
package clients

import (
	"fmt"
	"sync"
)

// Registry builds a handle the first time a credential is seen and reuses it afterwards.
// Entries are never evicted; the number of distinct credentials is small.
type Registry[T any] struct {
	build   func(credential string) (T, error)
	mu      sync.Mutex
	handles map[string]T
}

func NewRegistry[T any](build func(credential string) (T, error)) *Registry[T] {
	return &Registry[T]{
		build:   build,
		handles: make(map[string]T),
	}
}

func (r *Registry[T]) Get(credential string) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := r.handles[credential]; ok {
		return h, nil
	}

	var zero T
	if credential == "" {
		return zero, fmt.Errorf("credential is required")
	}

	h, err := r.build(credential)
	if err != nil {
		return zero, err
	}
	r.handles[credential] = h
	return h, nil
}

func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}
