// Package secrets holds the key/value set returned by a secret listing.
package secrets

// Map is an insertion-ordered set of secret values keyed by name.
// Setting an existing key replaces its value and keeps its position.
type Map struct {
	keys   []string
	values map[string]string
}

// New builds a Map from alternating key/value pairs
func New(pairs ...string) *Map {
	m := &Map{values: make(map[string]string)}
	for i := 0; i+1 < len(pairs); i += 2 {
		m.Set(pairs[i], pairs[i+1])
	}
	return m
}

// Set stores value under key
func (m *Map) Set(key, value string) {
	if m.values == nil {
		m.values = make(map[string]string)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value stored under key
func (m *Map) Get(key string) (string, bool) {
	if m == nil {
		return "", false
	}
	v, ok := m.values[key]
	return v, ok
}

// Len returns the number of secrets
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the secret names in insertion order
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Each calls fn for every secret in insertion order
func (m *Map) Each(fn func(key, value string)) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		fn(k, m.values[k])
	}
}

// Scope selects which secrets a listing returns
type Scope struct {
	ProjectSlug    string
	Environment    string
	SecretPath     string
	IncludeImports bool
	Recursive      bool
}
