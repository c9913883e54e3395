package source

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"imgpyramid/internal/models"
)

// RawDirMeta is the sidecar metadata describing a raw plane directory.
type RawDirMeta struct {
	// Height and Width are the plane dimensions shared by every channel
	Height int `yaml:"height"`
	Width  int `yaml:"width"`

	// BitsPerSample is the sample depth, 8 or 16
	BitsPerSample int `yaml:"bitsPerSample"`

	// Channels is the number of plane files present
	Channels int `yaml:"channels"`

	// PixelSizeMicrometers is the physical pixel size; 0 when unknown
	PixelSizeMicrometers float64 `yaml:"pixelSizeMicrometers"`
}

// RawDirSource reads per-channel planes from a directory of raw sample
// files (ch_000.raw, ch_001.raw, ...) described by a meta.yaml sidecar.
// Samples are row-major, 16-bit values little-endian.
type RawDirSource struct {
	dir  string
	meta RawDirMeta
}

// OpenRawDir validates the sidecar and returns a source over the directory.
func OpenRawDir(dir string) (*RawDirSource, error) {
	data, err := os.ReadFile(filepath.Join(dir, "meta.yaml"))
	if err != nil {
		return nil, fmt.Errorf("error reading source metadata: %w", err)
	}

	var meta RawDirMeta
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("error parsing source metadata: %w", err)
	}

	if meta.Height <= 0 || meta.Width <= 0 {
		return nil, fmt.Errorf("invalid source dimensions %dx%d", meta.Height, meta.Width)
	}
	if meta.BitsPerSample != 8 && meta.BitsPerSample != 16 {
		return nil, fmt.Errorf("unsupported source bits per sample: %d", meta.BitsPerSample)
	}
	if meta.Channels <= 0 {
		return nil, fmt.Errorf("source declares no channels")
	}

	return &RawDirSource{dir: dir, meta: meta}, nil
}

// ChannelCount returns the number of channels declared by the sidecar.
func (s *RawDirSource) ChannelCount() int {
	return s.meta.Channels
}

// Dimensions returns the plane height and width.
func (s *RawDirSource) Dimensions() (height, width int) {
	return s.meta.Height, s.meta.Width
}

// PixelSizeMicrometers returns the declared physical pixel size, or 0 when
// the sidecar omits it.
func (s *RawDirSource) PixelSizeMicrometers() float64 {
	return s.meta.PixelSizeMicrometers
}

// PlaneFilename returns the file name holding the given channel's samples.
func PlaneFilename(index int) string {
	return fmt.Sprintf("ch_%03d.raw", index)
}

// ReadChannel loads one channel's plane from its raw file.
func (s *RawDirSource) ReadChannel(index int) (*models.Plane, error) {
	if index < 0 || index >= s.meta.Channels {
		return nil, fmt.Errorf("channel index %d out of range [0, %d)", index, s.meta.Channels)
	}

	path := filepath.Join(s.dir, PlaneFilename(index))
	pix, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading channel %d: %w", index, err)
	}

	want := s.meta.Width * s.meta.Height * (s.meta.BitsPerSample / 8)
	if len(pix) != want {
		return nil, fmt.Errorf("channel %d: expected %d sample bytes, got %d", index, want, len(pix))
	}

	return &models.Plane{
		Width:         s.meta.Width,
		Height:        s.meta.Height,
		BitsPerSample: s.meta.BitsPerSample,
		Pix:           pix,
	}, nil
}
