//go:build !windows

package core

// Only Windows reports open files as sharing violations.
func isSharingViolation(error) bool {
	return false
}
