// Package prefetch asks the kernel to start reading a shard before it is
// opened. Hints are advisory; failures only matter to logs.
package prefetch

// Hint advises sequential read-ahead of the whole file at path.
func Hint(path string) error {
	return hint(path)
}
