//go:build !linux

package prefetch

func hint(string) error { return nil }
