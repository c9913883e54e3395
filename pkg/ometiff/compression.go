package ometiff

import (
	"bytes"
	"compress/lzw"
	"fmt"

	"github.com/klauspost/compress/zlib"
)

// Compression selects the codec applied to every tile of a run.
type Compression int

const (
	// CompressionNone stores tile data uncompressed.
	CompressionNone Compression = iota

	// CompressionDeflate wraps each tile in a zlib stream (TIFF
	// compression scheme 8).
	CompressionDeflate

	// CompressionLZW encodes each tile with MSB-first LZW (TIFF
	// compression scheme 5).
	CompressionLZW
)

// String returns the configuration name of the codec.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionDeflate:
		return "deflate"
	case CompressionLZW:
		return "lzw"
	}
	return fmt.Sprintf("Compression(%d)", int(c))
}

// ParseCompression converts a configuration string into a codec.
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "none":
		return CompressionNone, nil
	case "deflate", "zlib":
		return CompressionDeflate, nil
	case "lzw":
		return CompressionLZW, nil
	}
	return 0, fmt.Errorf("unknown compression %q (want none, deflate, or lzw)", s)
}

// tiffScheme returns the value written into the TIFF Compression tag.
func (c Compression) tiffScheme() uint16 {
	switch c {
	case CompressionDeflate:
		return 8
	case CompressionLZW:
		return 5
	}
	return 1
}

// encodeTile compresses one tile's raw sample bytes.
func (c Compression) encodeTile(raw []byte) ([]byte, error) {
	switch c {
	case CompressionNone:
		return raw, nil
	case CompressionDeflate:
		var buf bytes.Buffer
		zw := zlib.NewWriter(&buf)
		if _, err := zw.Write(raw); err != nil {
			return nil, fmt.Errorf("deflate tile: %w", err)
		}
		if err := zw.Close(); err != nil {
			return nil, fmt.Errorf("deflate tile: %w", err)
		}
		return buf.Bytes(), nil
	case CompressionLZW:
		var buf bytes.Buffer
		lw := lzw.NewWriter(&buf, lzw.MSB, 8)
		if _, err := lw.Write(raw); err != nil {
			return nil, fmt.Errorf("lzw tile: %w", err)
		}
		if err := lw.Close(); err != nil {
			return nil, fmt.Errorf("lzw tile: %w", err)
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("unknown compression %d", int(c))
}
