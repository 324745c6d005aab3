package types

// JSONMap is an opaque key-value blob persisted as jsonb. Gateway
// credentials live here; secret keys must never be copied into responses.
type JSONMap map[string]string

// Get returns the value for key, or "".
func (m JSONMap) Get(key string) string {
	if m == nil {
		return ""
	}
	return m[key]
}
