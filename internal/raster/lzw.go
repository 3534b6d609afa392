package raster

// TIFF LZW differs from the GIF flavour in compress/lzw: the code width grows
// one code early ("early change"), so the standard library rejects TIFF
// streams once the table passes 510 entries.

import "fmt"

const (
	lzwMaxWidth   = 12
	lzwClearCode  = 256
	lzwEOICode    = 257
	lzwFirstCode  = 258
	lzwTableSize  = 1 << lzwMaxWidth
	lzwFirstWidth = 9
)

// msbReader yields variable-width codes, most significant bit first.
type msbReader struct {
	src []byte
	pos int
	acc uint32
	n   uint
}

func (r *msbReader) read(width uint) (int, bool) {
	for r.n < width {
		if r.pos >= len(r.src) {
			return 0, false
		}
		r.acc = r.acc<<8 | uint32(r.src[r.pos])
		r.pos++
		r.n += 8
	}
	r.n -= width
	return int(r.acc>>r.n) & (1<<width - 1), true
}

// decodeLZW decompresses one TIFF LZW chunk. sizeHint is the expected
// decoded size. A stream that ends without an EOI code returns what was
// decoded so far.
func decodeLZW(src []byte, sizeHint int) ([]byte, error) {
	var (
		prefix [lzwTableSize]uint16
		suffix [lzwTableSize]byte
		head   [lzwTableSize]byte // first byte of each string
		length [lzwTableSize]int
	)
	for i := 0; i < 256; i++ {
		suffix[i] = byte(i)
		head[i] = byte(i)
		length[i] = 1
	}

	out := make([]byte, 0, sizeHint)
	r := msbReader{src: src}
	width := uint(lzwFirstWidth)
	next := lzwFirstCode
	prev := -1

	for {
		code, ok := r.read(width)
		if !ok || code == lzwEOICode {
			return out, nil
		}
		if code == lzwClearCode {
			width = lzwFirstWidth
			next = lzwFirstCode
			prev = -1
			continue
		}

		if prev < 0 {
			if code > 255 {
				return nil, fmt.Errorf("lzw: code %d after clear is not a literal", code)
			}
			out = append(out, byte(code))
			prev = code
			continue
		}

		if code > next || (code == next && next >= lzwTableSize) {
			return nil, fmt.Errorf("lzw: invalid code %d (next %d)", code, next)
		}

		if next < lzwTableSize {
			first := head[code]
			if code == next {
				first = head[prev]
			}
			prefix[next] = uint16(prev)
			suffix[next] = first
			head[next] = head[prev]
			length[next] = length[prev] + 1
			next++
		}

		// Emit the string for code back to front.
		n := length[code]
		start := len(out)
		for i := 0; i < n; i++ {
			out = append(out, 0)
		}
		c := code
		for i := n - 1; i >= 0; i-- {
			out[start+i] = suffix[c]
			c = int(prefix[c])
		}

		if next+1 >= 1<<width && width < lzwMaxWidth {
			width++
		}
		prev = code
	}
}
