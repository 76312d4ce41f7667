// Package omap implements a small ordered map keyed by a user-supplied
// less function. It backs seam and quill's inlet containers.
//
// Grounded on the teacher's sorted-key dump idiom
// (iotaledger-trie.go/mutable/nodestore.go: dangerouslyDumpCacheToString
// collects map keys into a slice and sort.Strings-sorts it on demand)
// and on the page-level ordered index implied by the other_examples
// B+-tree reference (dacapoday-smol/bptree). A slice-backed sorted
// index is used rather than a balanced tree because node fan-out is
// bounded by extent: shifting a slice on insert/erase is cheaper in
// practice than a pointer-heavy tree at this scale, and nothing in the
// teacher or the rest of the pack reaches for a third-party ordered-map
// library for in-process, page-sized data.
package omap

import "sort"

// Map is an ordered map from K to V with unique keys, kept sorted by
// less. Iteration (All) always yields ascending order.
type Map[K any, V any] struct {
	less    func(a, b K) bool
	keys    []K
	values  []V
}

func New[K any, V any](less func(a, b K) bool) *Map[K, V] {
	return &Map[K, V]{less: less}
}

func (m *Map[K, V]) Len() int { return len(m.keys) }

// search returns the index of the first key >= k, and whether that
// index holds an exact match.
func (m *Map[K, V]) search(k K) (int, bool) {
	i := sort.Search(len(m.keys), func(i int) bool {
		return !m.less(m.keys[i], k)
	})
	if i < len(m.keys) && !m.less(k, m.keys[i]) && !m.less(m.keys[i], k) {
		return i, true
	}
	return i, false
}

// Get returns the value at k and whether k is present.
func (m *Map[K, V]) Get(k K) (V, bool) {
	i, ok := m.search(k)
	if !ok {
		var zero V
		return zero, false
	}
	return m.values[i], true
}

// Has reports whether k is present.
func (m *Map[K, V]) Has(k K) bool {
	_, ok := m.search(k)
	return ok
}

// Insert adds k/v. It reports false without modifying the map if k is
// already present.
func (m *Map[K, V]) Insert(k K, v V) bool {
	i, ok := m.search(k)
	if ok {
		return false
	}
	m.keys = append(m.keys, k)
	copy(m.keys[i+1:], m.keys[i:])
	m.keys[i] = k

	var zero V
	m.values = append(m.values, zero)
	copy(m.values[i+1:], m.values[i:])
	m.values[i] = v
	return true
}

// Delete removes k. It reports false if k was not present.
func (m *Map[K, V]) Delete(k K) bool {
	i, ok := m.search(k)
	if !ok {
		return false
	}
	m.keys = append(m.keys[:i], m.keys[i+1:]...)
	m.values = append(m.values[:i], m.values[i+1:]...)
	return true
}

// Rekey moves the entry at from to the key to, preserving its value.
// It reports an error via the returned bool (false) if from is absent
// or to is already present (and from != to).
func (m *Map[K, V]) Rekey(from, to K) bool {
	i, ok := m.search(from)
	if !ok {
		return false
	}
	if !m.less(from, to) && !m.less(to, from) {
		return true // from == to, no-op
	}
	if m.Has(to) {
		return false
	}
	v := m.values[i]
	m.keys = append(m.keys[:i], m.keys[i+1:]...)
	m.values = append(m.values[:i], m.values[i+1:]...)
	m.Insert(to, v)
	return true
}

// Min returns the first (lowest-key) entry.
func (m *Map[K, V]) Min() (K, V, bool) {
	if len(m.keys) == 0 {
		var k K
		var v V
		return k, v, false
	}
	return m.keys[0], m.values[0], true
}

// Max returns the last (highest-key) entry.
func (m *Map[K, V]) Max() (K, V, bool) {
	if len(m.keys) == 0 {
		var k K
		var v V
		return k, v, false
	}
	n := len(m.keys) - 1
	return m.keys[n], m.values[n], true
}

// Ceiling returns the entry with the smallest key >= k, or the last
// entry if k exceeds every key present. This is the B+-tree "Lookup"
// routing rule (spec.md section 4.5).
func (m *Map[K, V]) Ceiling(k K) (K, V, bool) {
	i, _ := m.search(k)
	if i >= len(m.keys) {
		return m.Max()
	}
	return m.keys[i], m.values[i], true
}

// Neighbors returns the entries immediately below and above k in key
// order, whether or not k itself is present. Used to locate a node's
// adjacent siblings from its parent's ordered inlets.
func (m *Map[K, V]) Neighbors(k K) (prevKey K, prevVal V, hasPrev bool, nextKey K, nextVal V, hasNext bool) {
	i, exact := m.search(k)
	if i > 0 {
		prevKey, prevVal, hasPrev = m.keys[i-1], m.values[i-1], true
	}
	next := i
	if exact {
		next = i + 1
	}
	if next < len(m.keys) {
		nextKey, nextVal, hasNext = m.keys[next], m.values[next], true
	}
	return
}

// All calls f for every entry in ascending key order, stopping early if
// f returns false.
func (m *Map[K, V]) All(f func(k K, v V) bool) {
	for i := range m.keys {
		if !f(m.keys[i], m.values[i]) {
			return
		}
	}
}

// Keys returns a copy of the keys in ascending order.
func (m *Map[K, V]) Keys() []K {
	out := make([]K, len(m.keys))
	copy(out, m.keys)
	return out
}
