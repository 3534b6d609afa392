//go:build !unix

package raster

import (
	"io"
	"os"
)

// mapFile reads the whole file into memory where mmap is unavailable.
func mapFile(f *os.File, size int64) (data []byte, release func() error, err error) {
	data = make([]byte, size)
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, nil, err
	}
	return data, func() error { return nil }, nil
}
