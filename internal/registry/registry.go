// Package registry keeps live entries ordered by their KSUID,
// which orders them by creation time.
package registry

import (
	"github.com/huandu/skiplist"
	"github.com/segmentio/ksuid"
)

// New creates an empty registry.
func New[V any]() *Registry[V] {
	return &Registry[V]{
		l: skiplist.New(
			skiplist.GreaterThanFunc(func(a, b interface{}) int {
				return ksuid.Compare(a.(ksuid.KSUID), b.(ksuid.KSUID))
			}),
		),
	}
}

// Registry maps KSUIDs to values in ascending order.
type Registry[V any] struct {
	l *skiplist.SkipList
}

// Set adds or replaces the entry for id.
func (r *Registry[V]) Set(id ksuid.KSUID, v V) {
	r.l.Set(id, v)
}

// Get returns the entry for id.
func (r *Registry[V]) Get(id ksuid.KSUID) (v V, ok bool) {
	if e := r.l.Get(id); e != nil {
		return e.Value.(V), true
	}
	return v, false
}

// Has returns true if there is an entry for id.
func (r *Registry[V]) Has(id ksuid.KSUID) bool {
	return r.l.Get(id) != nil
}

// Remove deletes the entry for id.
func (r *Registry[V]) Remove(id ksuid.KSUID) (removed bool) {
	return r.l.Remove(id) != nil
}

// Len returns the number of entries.
func (r *Registry[V]) Len() int {
	return r.l.Len()
}

// Scan calls fn for every entry after the given id in order
// until fn returns false.
// Starts from the front if after is zero.
// Returns false if after doesn't exist.
func (r *Registry[V]) Scan(
	after ksuid.KSUID,
	fn func(ksuid.KSUID, V) bool,
) (afterFound bool) {
	var start *skiplist.Element
	if after != ksuid.Nil {
		if start = r.l.Get(after); start == nil {
			return false
		}
		start = start.Next()
	} else {
		start = r.l.Front()
	}

	for e := start; e != nil; e = e.Next() {
		if !fn(e.Key().(ksuid.KSUID), e.Value.(V)) {
			return true
		}
	}
	return true
}
