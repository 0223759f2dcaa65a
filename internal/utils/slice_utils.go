// Package utils
package utils

// ReverseForEach walks src from the last element to the first
func ReverseForEach[T any](src []T, callback func(idx int, element T)) {
	for i := len(src) - 1; i >= 0; i-- {
		callback(i, src[i])
	}
}
