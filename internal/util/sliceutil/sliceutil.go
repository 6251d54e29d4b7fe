package sliceutil

// Filter returns the elements for which the predicate holds, preserving order.
func Filter[T any](list []T, filter func(T) bool) []T {
	filtered := make([]T, 0)

	for _, element := range list {
		if filter(element) {
			filtered = append(filtered, element)
		}
	}

	return filtered
}

// Reversed returns a new slice with the elements in opposite order.
func Reversed[T any](list []T) []T {
	reversed := make([]T, len(list))

	for i, element := range list {
		reversed[len(list)-1-i] = element
	}

	return reversed
}
