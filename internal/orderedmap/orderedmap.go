// Package orderedmap implements the insertion-ordered map type SPEC_FULL.md §3/§5
// requires for DrivingSimState.cars/routers/queues: Go's built-in map iterates in
// randomized order, which would break the simulation's determinism guarantee. This is a
// small, from-scratch addition (no teacher analogue); the teacher keeps its services in
// a plain slice instead, which has the same determinism property but no O(1) lookup —
// this type gives both.
package orderedmap

// Map is an insertion-ordered map: Keys() always returns keys in the order they were
// first inserted, and deleting+re-inserting a key moves it to the back, exactly like a
// fresh insertion.
type Map[K comparable, V any] struct {
	values map[K]V
	order  []K
}

// New returns an empty ordered map.
func New[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{values: make(map[K]V)}
}

// Set inserts or updates the value at key, appending key to the insertion order only if
// it is not already present.
func (m *Map[K, V]) Set(key K, value V) {
	if _, exists := m.values[key]; !exists {
		m.order = append(m.order, key)
	}
	m.values[key] = value
}

// Get returns the value at key and whether it was present.
func (m *Map[K, V]) Get(key K) (V, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Delete removes key, if present.
func (m *Map[K, V]) Delete(key K) {
	if _, exists := m.values[key]; !exists {
		return
	}
	delete(m.values, key)
	for i, k := range m.order {
		if k == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of entries.
func (m *Map[K, V]) Len() int { return len(m.order) }

// Keys returns every key in insertion order. The returned slice must not be mutated.
func (m *Map[K, V]) Keys() []K { return m.order }

// Has reports whether key is present.
func (m *Map[K, V]) Has(key K) bool {
	_, ok := m.values[key]
	return ok
}
