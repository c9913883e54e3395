package store

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/golang/snappy"

	"imgpyramid/internal/models"
)

// ErrMissingPlane is returned when a (level, channel) key is read before
// it was ever written. This indicates an internal sequencing bug, not a
// user-facing condition.
var ErrMissingPlane = errors.New("missing plane")

// ErrDuplicatePlane is returned when the same (level, channel) key is
// written twice. Store entries are immutable once written.
var ErrDuplicatePlane = errors.New("plane already written")

// spill file layout: 12-byte header (width, height, bits as uint32
// little-endian) followed by the snappy-compressed sample data.
const spillHeaderSize = 12

type planeKey struct {
	level   int
	channel int
}

// PlaneStore is an append-only, index-addressed store for single-channel
// planes, backed by one file per (level, channel) pair under the staging
// area. Put and Get each touch a single plane, so the dominant
// put-then-get access pattern costs O(plane size) memory.
type PlaneStore struct {
	dir string

	mu      sync.Mutex
	written map[planeKey]struct{}
}

// NewPlaneStore creates a plane store rooted in the given staging area.
func NewPlaneStore(staging *StagingArea) (*PlaneStore, error) {
	dir := filepath.Join(staging.Root(), "planes")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create plane store directory: %w", err)
	}
	return &PlaneStore{
		dir:     dir,
		written: make(map[planeKey]struct{}),
	}, nil
}

func (s *PlaneStore) path(level, channel int) string {
	return filepath.Join(s.dir, fmt.Sprintf("l%02d_c%03d.plane", level, channel))
}

// Put persists a plane for the given level and channel. Writing the same
// key twice is an error.
func (s *PlaneStore) Put(level, channel int, p *models.Plane) error {
	key := planeKey{level: level, channel: channel}

	s.mu.Lock()
	if _, ok := s.written[key]; ok {
		s.mu.Unlock()
		return fmt.Errorf("level %d channel %d: %w", level, channel, ErrDuplicatePlane)
	}
	s.written[key] = struct{}{}
	s.mu.Unlock()

	compressed := snappy.Encode(nil, p.Pix)
	frame := make([]byte, spillHeaderSize+len(compressed))
	binary.LittleEndian.PutUint32(frame[0:], uint32(p.Width))
	binary.LittleEndian.PutUint32(frame[4:], uint32(p.Height))
	binary.LittleEndian.PutUint32(frame[8:], uint32(p.BitsPerSample))
	copy(frame[spillHeaderSize:], compressed)

	if err := os.WriteFile(s.path(level, channel), frame, 0644); err != nil {
		return fmt.Errorf("failed to spill plane level %d channel %d: %w", level, channel, err)
	}
	return nil
}

// Get retrieves a previously written plane. Reading a key that was never
// written fails with ErrMissingPlane.
func (s *PlaneStore) Get(level, channel int) (*models.Plane, error) {
	key := planeKey{level: level, channel: channel}

	s.mu.Lock()
	_, ok := s.written[key]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("level %d channel %d: %w", level, channel, ErrMissingPlane)
	}

	frame, err := os.ReadFile(s.path(level, channel))
	if err != nil {
		return nil, fmt.Errorf("failed to read plane level %d channel %d: %w", level, channel, err)
	}
	if len(frame) < spillHeaderSize {
		return nil, fmt.Errorf("plane level %d channel %d: truncated spill frame", level, channel)
	}

	width := int(binary.LittleEndian.Uint32(frame[0:]))
	height := int(binary.LittleEndian.Uint32(frame[4:]))
	bits := int(binary.LittleEndian.Uint32(frame[8:]))

	pix, err := snappy.Decode(nil, frame[spillHeaderSize:])
	if err != nil {
		return nil, fmt.Errorf("plane level %d channel %d: corrupt spill frame: %w", level, channel, err)
	}

	want := width * height * (bits / 8)
	if len(pix) != want {
		return nil, fmt.Errorf("plane level %d channel %d: expected %d sample bytes, got %d",
			level, channel, want, len(pix))
	}

	return &models.Plane{
		Width:         width,
		Height:        height,
		BitsPerSample: bits,
		Pix:           pix,
	}, nil
}

// Channels enumerates the channel indices written for a level in
// ascending order, as required for deterministic output ordering.
func (s *PlaneStore) Channels(level int) []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var channels []int
	for key := range s.written {
		if key.level == level {
			channels = append(channels, key.channel)
		}
	}
	sort.Ints(channels)
	return channels
}
