package util

// Ptr returns a pointer to the given value. Option structs with optional
// bool fields (nil means "use the category default") are built with it.
func Ptr[T any](v T) *T {
	return &v
}
