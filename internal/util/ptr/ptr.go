// Package ptr returns pointers to values, for API structs that use
// pointer fields to mark optional settings.
package ptr

// To returns a pointer to a copy of v.
func To[T any](v T) *T { return &v }

// Bool returns a pointer to the given bool value.
func Bool(b bool) *bool { return &b }

// Deref returns *p, or def when p is nil.
func Deref[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}
