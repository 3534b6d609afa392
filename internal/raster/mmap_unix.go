//go:build unix

package raster

import (
	"os"
	"syscall"
)

// mapFile memory-maps f read-only. The file can be closed once mapped.
func mapFile(f *os.File, size int64) (data []byte, release func() error, err error) {
	data, err = syscall.Mmap(int(f.Fd()), 0, int(size), syscall.PROT_READ, syscall.MAP_PRIVATE)
	if err != nil {
		return nil, nil, err
	}
	return data, func() error { return syscall.Munmap(data) }, nil
}
