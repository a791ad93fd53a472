//go:build unix
// +build unix

package atomicfile

import (
	"os"

	"golang.org/x/sys/unix"
)

func fsync(f *os.File) error {
	return unix.Fsync(int(f.Fd()))
}
