// Package registry provides a tiny concurrency safe keyed collection used
// for template lookup tables and broker topic maps.
package registry

import "github.com/alphadose/haxmap"

// Registry is a string keyed, concurrency safe collection of T.
type Registry[T any] struct {
	items *haxmap.Map[string, T]
}

// New creates an empty registry.
func New[T any]() *Registry[T] {
	return &Registry[T]{items: haxmap.New[string, T]()}
}

// Get returns the value registered under key, when present.
func (r *Registry[T]) Get(key string) (T, bool) {
	return r.items.Get(key)
}

// Add registers value under key, replacing any previous entry.
func (r *Registry[T]) Add(key string, value T) {
	r.items.Set(key, value)
}

// GetOrAdd returns the existing value for key, or stores and returns value
// when the key was absent. The boolean reports whether the value was loaded
// rather than stored.
func (r *Registry[T]) GetOrAdd(key string, value T) (T, bool) {
	return r.items.GetOrSet(key, value)
}

// Del removes the entry for key, if any.
func (r *Registry[T]) Del(key string) {
	r.items.Del(key)
}

// Len reports the number of registered entries.
func (r *Registry[T]) Len() int {
	return int(r.items.Len())
}

// ForEach calls fn for every entry until fn returns false.
func (r *Registry[T]) ForEach(fn func(key string, value T) bool) {
	r.items.ForEach(fn)
}

// Keys returns a snapshot of the registered keys.
func (r *Registry[T]) Keys() []string {
	keys := make([]string, 0, r.Len())
	r.items.ForEach(func(key string, _ T) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}
