package cache

// Tiered consults a fast front engine before a persistent back engine.
// Back hits are promoted into the front; stores go to both, back first.
type Tiered[V any] struct {
	front Engine[V]
	back  Engine[V]
}

// NewTiered combines two engines.
func NewTiered[V any](front, back Engine[V]) *Tiered[V] {
	return &Tiered[V]{front: front, back: back}
}

// Get implements Engine.
func (t *Tiered[V]) Get(url string) (V, bool) {
	if v, ok := t.front.Get(url); ok {
		return v, true
	}
	v, ok := t.back.Get(url)
	if !ok {
		return v, false
	}
	_, _ = t.front.StoreEntry(Entry[V]{URL: url, Value: v})
	return v, true
}

// Store implements Engine.
func (t *Tiered[V]) Store(url string, body []byte) (V, error) {
	v, err := t.back.Store(url, body)
	if err != nil {
		return v, err
	}
	_, _ = t.front.StoreEntry(Entry[V]{URL: url, Body: body, Value: v})
	return v, nil
}

// StoreEntry implements Engine. A failure of the back engine fails the store.
func (t *Tiered[V]) StoreEntry(entry Entry[V]) (V, error) {
	v, err := t.back.StoreEntry(entry)
	if err != nil {
		return v, err
	}
	entry.Value = v
	return t.front.StoreEntry(entry)
}

// RunGC collects both engines.
func (t *Tiered[V]) RunGC() {
	t.front.RunGC()
	t.back.RunGC()
}
