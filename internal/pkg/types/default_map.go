package types

// DefaultMap is a map that creates missing values on first access using a
// factory, the way a map of slices or sets is usually grown by hand.
type DefaultMap[K comparable, V any] struct {
	data    map[K]V
	factory func() V
}

func NewDefaultMap[K comparable, V any](factory func() V) DefaultMap[K, V] {
	return DefaultMap[K, V]{
		data:    make(map[K]V),
		factory: factory,
	}
}

// Get returns the value under key, storing a fresh one from the factory if
// the key is absent.
func (d *DefaultMap[K, V]) Get(key K) V {
	if v, ok := d.data[key]; ok {
		return v
	}

	v := d.factory()
	d.data[key] = v
	return v
}

// Peek returns the value under key without creating it.
func (d *DefaultMap[K, V]) Peek(key K) (V, bool) {
	v, ok := d.data[key]
	return v, ok
}

func (d *DefaultMap[K, V]) Set(key K, v V) {
	d.data[key] = v
}

func (d *DefaultMap[K, V]) Delete(key K) {
	delete(d.data, key)
}

func (d *DefaultMap[K, V]) Len() int {
	return len(d.data)
}
