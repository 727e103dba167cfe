// Package uniq removes duplicates from slices of IDs and codes.
package uniq

// Values returns values without duplicates, keeping first-seen order.
// The zero value of T is dropped.
//
// Example:
//
//	Values([]string{"a", "", "b", "a"})
//	// Returns: []string{"a", "b"}
func Values[T comparable](values []T) []T {
	if len(values) == 0 {
		return values
	}

	var zero T
	seen := make(map[T]struct{}, len(values))
	result := make([]T, 0, len(values))
	for _, v := range values {
		if v == zero {
			continue
		}
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			result = append(result, v)
		}
	}
	return result
}

// MapValues returns the distinct values of m in unspecified order.
func MapValues[K comparable, V comparable](m map[K]V) []V {
	all := make([]V, 0, len(m))
	for _, v := range m {
		all = append(all, v)
	}
	return Values(all)
}
