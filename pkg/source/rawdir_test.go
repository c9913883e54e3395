package source

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func writeTestRawDir(t *testing.T, channels, width, height int) string {
	t.Helper()
	dir := t.TempDir()

	meta := []byte(fmt.Sprintf(
		"height: %d\nwidth: %d\nbitsPerSample: 16\nchannels: %d\npixelSizeMicrometers: 0.5\n",
		height, width, channels))
	if err := os.WriteFile(filepath.Join(dir, "meta.yaml"), meta, 0644); err != nil {
		t.Fatalf("Failed to write meta.yaml: %v", err)
	}

	for ch := 0; ch < channels; ch++ {
		pix := make([]byte, width*height*2)
		for i := 0; i < width*height; i++ {
			binary.LittleEndian.PutUint16(pix[2*i:], uint16(ch*1000+i))
		}
		if err := os.WriteFile(filepath.Join(dir, PlaneFilename(ch)), pix, 0644); err != nil {
			t.Fatalf("Failed to write plane file: %v", err)
		}
	}
	return dir
}

// TestOpenRawDir verifies sidecar parsing and plane loading.
func TestOpenRawDir(t *testing.T) {
	dir := writeTestRawDir(t, 2, 8, 6)

	src, err := OpenRawDir(dir)
	if err != nil {
		t.Fatalf("OpenRawDir failed: %v", err)
	}

	if src.ChannelCount() != 2 {
		t.Errorf("ChannelCount = %d, want 2", src.ChannelCount())
	}
	h, w := src.Dimensions()
	if h != 6 || w != 8 {
		t.Errorf("Dimensions = (%d, %d), want (6, 8)", h, w)
	}
	if src.PixelSizeMicrometers() != 0.5 {
		t.Errorf("PixelSizeMicrometers = %g, want 0.5", src.PixelSizeMicrometers())
	}

	plane, err := src.ReadChannel(1)
	if err != nil {
		t.Fatalf("ReadChannel failed: %v", err)
	}
	if plane.Width != 8 || plane.Height != 6 || plane.BitsPerSample != 16 {
		t.Fatalf("plane is %dx%d/%d-bit", plane.Width, plane.Height, plane.BitsPerSample)
	}
	if got := plane.Sample(3, 2); got != uint16(1000+2*8+3) {
		t.Errorf("sample (3,2) = %d, want %d", got, 1000+2*8+3)
	}
}

// TestReadChannelOutOfRange verifies index validation.
func TestReadChannelOutOfRange(t *testing.T) {
	dir := writeTestRawDir(t, 2, 4, 4)
	src, err := OpenRawDir(dir)
	if err != nil {
		t.Fatalf("OpenRawDir failed: %v", err)
	}

	if _, err := src.ReadChannel(2); err == nil {
		t.Error("expected error for out-of-range channel")
	}
	if _, err := src.ReadChannel(-1); err == nil {
		t.Error("expected error for negative channel")
	}
}

// TestReadChannelSizeMismatch verifies that truncated plane files are
// rejected.
func TestReadChannelSizeMismatch(t *testing.T) {
	dir := writeTestRawDir(t, 1, 4, 4)
	if err := os.WriteFile(filepath.Join(dir, PlaneFilename(0)), []byte{1, 2, 3}, 0644); err != nil {
		t.Fatalf("Failed to truncate plane file: %v", err)
	}

	src, err := OpenRawDir(dir)
	if err != nil {
		t.Fatalf("OpenRawDir failed: %v", err)
	}
	if _, err := src.ReadChannel(0); err == nil {
		t.Error("expected error for truncated plane file")
	}
}

// TestOpenRawDirMissingMeta verifies the error for a directory without a
// sidecar.
func TestOpenRawDirMissingMeta(t *testing.T) {
	if _, err := OpenRawDir(t.TempDir()); err == nil {
		t.Error("expected error for missing meta.yaml")
	}
}
