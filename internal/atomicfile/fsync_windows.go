//go:build windows
// +build windows

package atomicfile

import "os"

func fsync(f *os.File) error {
	return f.Sync()
}
