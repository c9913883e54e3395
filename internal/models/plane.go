package models

import (
	"encoding/binary"
	"fmt"
)

// Plane represents a single channel's 2D image at one resolution level
type Plane struct {
	// Width and Height are the plane dimensions in pixels
	Width  int
	Height int

	// BitsPerSample is the sample depth inherited from the source image.
	// Supported depths are 8 and 16.
	BitsPerSample int

	// Pix holds the samples in row-major order. 16-bit samples are stored
	// little-endian, two bytes per sample.
	Pix []byte
}

// NewPlane allocates a zeroed plane with the given dimensions and depth.
func NewPlane(width, height, bitsPerSample int) (*Plane, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid plane dimensions %dx%d", width, height)
	}
	if bitsPerSample != 8 && bitsPerSample != 16 {
		return nil, fmt.Errorf("unsupported bits per sample: %d", bitsPerSample)
	}
	return &Plane{
		Width:         width,
		Height:        height,
		BitsPerSample: bitsPerSample,
		Pix:           make([]byte, width*height*(bitsPerSample/8)),
	}, nil
}

// BytesPerSample returns the storage size of one sample in bytes.
func (p *Plane) BytesPerSample() int {
	return p.BitsPerSample / 8
}

// Sample returns the sample value at (x, y) widened to uint16.
func (p *Plane) Sample(x, y int) uint16 {
	if p.BitsPerSample == 8 {
		return uint16(p.Pix[y*p.Width+x])
	}
	return binary.LittleEndian.Uint16(p.Pix[2*(y*p.Width+x):])
}

// SetSample stores the sample value at (x, y). Values wider than the
// plane's depth are truncated.
func (p *Plane) SetSample(x, y int, v uint16) {
	if p.BitsPerSample == 8 {
		p.Pix[y*p.Width+x] = byte(v)
		return
	}
	binary.LittleEndian.PutUint16(p.Pix[2*(y*p.Width+x):], v)
}

// Row returns the raw bytes of row y.
func (p *Plane) Row(y int) []byte {
	stride := p.Width * p.BytesPerSample()
	return p.Pix[y*stride : (y+1)*stride]
}
