package report

// orderedMap is a keyed container that remembers insertion order.
type orderedMap[K comparable, V any] struct {
	keys   []K
	values map[K]V
}

func newOrderedMap[K comparable, V any]() *orderedMap[K, V] {
	return &orderedMap[K, V]{values: make(map[K]V)}
}

// getOrCreate returns the value for key, building and storing it first when absent.
func (m *orderedMap[K, V]) getOrCreate(key K, build func() V) (V, bool) {
	if v, ok := m.values[key]; ok {
		return v, false
	}
	v := build()
	m.keys = append(m.keys, key)
	m.values[key] = v
	return v, true
}

func (m *orderedMap[K, V]) len() int {
	return len(m.keys)
}

// each visits values in insertion order.
func (m *orderedMap[K, V]) each(fn func(K, V)) {
	for _, k := range m.keys {
		fn(k, m.values[k])
	}
}
