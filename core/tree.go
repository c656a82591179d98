package core

// Ensure returns m[key], inserting an empty child first when the key is absent.
func Ensure[M ~map[string]V, V ~map[K]E, K comparable, E any](m M, key string) V {
	child, ok := m[key]
	if !ok || child == nil {
		child = make(V)
		m[key] = child
	}
	return child
}
