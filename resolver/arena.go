package resolver

import (
	"errors"
	"fmt"

	"github.com/tsawler/pdfcore/core"
)

// ErrUncacheable is returned for a resource given as an object that has
// no stable identity, such as a number or a string.
var ErrUncacheable = errors.New("resource is neither indirect nor a dictionary, array or stream")

// resourceKey identifies the object that defines a resource: its object
// number when it is indirect, otherwise the address of the direct value.
type resourceKey struct {
	num uint32
	ptr any
}

func keyOf(obj core.Object) (resourceKey, bool) {
	switch v := obj.(type) {
	case core.Reference:
		if v.Num == 0 {
			return resourceKey{}, false
		}
		return resourceKey{num: v.Num}, true
	case *core.Dict:
		return resourceKey{ptr: v}, v != nil
	case *core.Array:
		return resourceKey{ptr: v}, v != nil
	case *core.Stream:
		return resourceKey{ptr: v}, v != nil
	}
	return resourceKey{}, false
}

// loadFunc builds a resource. The returned cleanup, if any, runs when the
// last reference is released.
type loadFunc[T any] func(obj core.Object) (T, func(), error)

type entry[T any] struct {
	value   T
	refs    int
	cleanup func()
}

// arena is a reference-counted cache of resources of one kind
type arena[T any] struct {
	kind    string
	load    loadFunc[T]
	entries map[resourceKey]*entry[T]
}

func newArena[T any](kind string, load loadFunc[T]) *arena[T] {
	return &arena[T]{kind: kind, load: load, entries: make(map[resourceKey]*entry[T])}
}

// acquire returns the cached resource for obj, loading it on first use,
// and adds one reference.
func (a *arena[T]) acquire(obj core.Object) (T, error) {
	var zero T
	k, ok := keyOf(obj)
	if !ok {
		return zero, fmt.Errorf("%s: %w", a.kind, ErrUncacheable)
	}
	if e, ok := a.entries[k]; ok {
		e.refs++
		return e.value, nil
	}
	v, cleanup, err := a.load(obj)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", a.kind, err)
	}
	a.entries[k] = &entry[T]{value: v, refs: 1, cleanup: cleanup}
	return v, nil
}

// release drops one reference and evicts the resource with the last one.
// Releasing an object that is not cached does nothing.
func (a *arena[T]) release(obj core.Object) {
	k, ok := keyOf(obj)
	if !ok {
		return
	}
	e, ok := a.entries[k]
	if !ok {
		return
	}
	e.refs--
	if e.refs > 0 {
		return
	}
	delete(a.entries, k)
	if e.cleanup != nil {
		e.cleanup()
	}
}

// refs returns the reference count held for obj
func (a *arena[T]) refs(obj core.Object) int {
	k, ok := keyOf(obj)
	if !ok {
		return 0
	}
	if e, ok := a.entries[k]; ok {
		return e.refs
	}
	return 0
}

func (a *arena[T]) len() int {
	return len(a.entries)
}

// Guard holds one reference to a cached resource. Release gives it back;
// calls after the first do nothing.
type Guard[T any] struct {
	value   T
	release func()
}

func newGuard[T any](value T, release func()) *Guard[T] {
	return &Guard[T]{value: value, release: release}
}

// Value returns the guarded resource
func (g *Guard[T]) Value() T {
	return g.value
}

// Release drops the reference held by the guard
func (g *Guard[T]) Release() {
	if g == nil || g.release == nil {
		return
	}
	release := g.release
	g.release = nil
	release()
}
