// Package ptr provides helper functions for creating pointers to values,
// mostly for cloud SDK request structs built from pointer fields.
package ptr

// To returns a pointer to the given value.
func To[T any](v T) *T { return &v }
