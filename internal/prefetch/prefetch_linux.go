//go:build linux

package prefetch

import (
	"os"

	"golang.org/x/sys/unix"
)

func hint(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	fd := int(f.Fd())
	if err := unix.Fadvise(fd, 0, 0, unix.FADV_SEQUENTIAL); err != nil {
		return err
	}
	return unix.Fadvise(fd, 0, 0, unix.FADV_WILLNEED)
}
