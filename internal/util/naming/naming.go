// Package naming defines the resource naming patterns used across the
// deployment. Connection files, status output and Terraform all refer to
// instances by the same ordinal names.
package naming

import "fmt"

const instancePrefix = "ll-win-client"

// Instance returns the display name of the n-th instance (1-based).
func Instance(index int) string {
	return fmt.Sprintf("%s-%d", instancePrefix, index)
}

// Instances returns display names for a fleet of the given size.
func Instances(count int) []string {
	names := make([]string, count)
	for i := range names {
		names[i] = Instance(i + 1)
	}
	return names
}
