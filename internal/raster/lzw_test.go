package raster

import (
	"bytes"
	"compress/lzw"
	"testing"
)

// compressShort encodes with the GIF-style writer. For streams that never
// grow past 9-bit codes the output is also valid TIFF LZW.
func compressShort(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := lzw.NewWriter(&buf, lzw.MSB, 8)
	if _, err := w.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDecodeLZW(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"single byte", []byte{42}},
		{"repeated", bytes.Repeat([]byte{7}, 100)},
		{"pattern", bytes.Repeat([]byte("TOBEORNOT"), 12)},
		{"ramp", func() []byte {
			b := make([]byte, 120)
			for i := range b {
				b[i] = byte(i * 3)
			}
			return b
		}()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeLZW(compressShort(t, tt.data), len(tt.data))
			if err != nil {
				t.Fatalf("decodeLZW: %v", err)
			}
			if !bytes.Equal(got, tt.data) {
				t.Errorf("decoded %d bytes, want %d: %v", len(got), len(tt.data), got)
			}
		})
	}
}

func TestDecodeLZW_Truncated(t *testing.T) {
	data := bytes.Repeat([]byte("terrain"), 10)
	enc := compressShort(t, data)
	got, err := decodeLZW(enc[:len(enc)/2], len(data))
	if err != nil {
		t.Fatalf("decodeLZW on truncated stream: %v", err)
	}
	if len(got) == 0 || len(got) >= len(data) || !bytes.Equal(got, data[:len(got)]) {
		t.Errorf("truncated decode returned %d bytes", len(got))
	}
}

func TestDecodeLZW_InvalidCode(t *testing.T) {
	// Clear (256), then code 300 which cannot follow a clear.
	var r bytes.Buffer
	codes := []int{256, 300}
	var acc uint32
	var n uint
	for _, c := range codes {
		acc = acc<<9 | uint32(c)
		n += 9
		for n >= 8 {
			n -= 8
			r.WriteByte(byte(acc >> n))
		}
	}
	if n > 0 {
		r.WriteByte(byte(acc << (8 - n)))
	}
	if _, err := decodeLZW(r.Bytes(), 16); err == nil {
		t.Error("expected an error for a non-literal code after clear")
	}
}
