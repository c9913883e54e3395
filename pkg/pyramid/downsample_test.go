package pyramid

import (
	"testing"

	"imgpyramid/internal/models"
)

// makeTestPlane creates a plane whose samples follow the given pattern.
func makeTestPlane(t *testing.T, width, height, bits int, pattern func(x, y int) uint16) *models.Plane {
	t.Helper()
	p, err := models.NewPlane(width, height, bits)
	if err != nil {
		t.Fatalf("Failed to create test plane: %v", err)
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			p.SetSample(x, y, pattern(x, y))
		}
	}
	return p
}

// TestDecimate verifies that decimation keeps every second row and column,
// matching src[0::2, 0::2] truncated to the halved dimensions.
func TestDecimate(t *testing.T) {
	src := makeTestPlane(t, 64, 64, 16, func(x, y int) uint16 {
		return uint16(y*64 + x)
	})

	dst, err := Downsample(src, Decimate)
	if err != nil {
		t.Fatalf("Downsample failed: %v", err)
	}

	if dst.Width != 32 || dst.Height != 32 {
		t.Fatalf("expected 32x32 result, got %dx%d", dst.Width, dst.Height)
	}

	for y := 0; y < dst.Height; y++ {
		for x := 0; x < dst.Width; x++ {
			want := src.Sample(2*x, 2*y)
			if got := dst.Sample(x, y); got != want {
				t.Fatalf("decimated sample (%d,%d) = %d, want %d", x, y, got, want)
			}
		}
	}
}

// TestDecimateOddDimensions verifies that a trailing odd row/column is
// dropped, not interpolated.
func TestDecimateOddDimensions(t *testing.T) {
	src := makeTestPlane(t, 9, 7, 16, func(x, y int) uint16 {
		return uint16(100*y + x)
	})

	dst, err := Downsample(src, Decimate)
	if err != nil {
		t.Fatalf("Downsample failed: %v", err)
	}

	if dst.Width != 4 || dst.Height != 3 {
		t.Fatalf("expected 4x3 result, got %dx%d", dst.Width, dst.Height)
	}
	if got := dst.Sample(3, 2); got != src.Sample(6, 4) {
		t.Errorf("corner sample = %d, want %d", got, src.Sample(6, 4))
	}
}

// TestDecimate8Bit exercises the 8-bit fast path.
func TestDecimate8Bit(t *testing.T) {
	src := makeTestPlane(t, 16, 16, 8, func(x, y int) uint16 {
		return uint16((y*16 + x) % 251)
	})

	dst, err := Downsample(src, Decimate)
	if err != nil {
		t.Fatalf("Downsample failed: %v", err)
	}

	if dst.BitsPerSample != 8 {
		t.Fatalf("expected 8-bit result, got %d", dst.BitsPerSample)
	}
	for y := 0; y < dst.Height; y++ {
		for x := 0; x < dst.Width; x++ {
			if got, want := dst.Sample(x, y), src.Sample(2*x, 2*y); got != want {
				t.Fatalf("sample (%d,%d) = %d, want %d", x, y, got, want)
			}
		}
	}
}

// TestLocalMean verifies the truncating 2x2 block mean.
func TestLocalMean(t *testing.T) {
	// Top-left block is (1,2,3,4) -> mean 10/4 truncated to 2; the other
	// blocks hold uniform values.
	values := [][]uint16{
		{1, 2, 100, 100},
		{3, 4, 100, 100},
		{9, 9, 65535, 65535},
		{9, 9, 65535, 65535},
	}
	src := makeTestPlane(t, 4, 4, 16, func(x, y int) uint16 {
		return values[y][x]
	})

	dst, err := Downsample(src, LocalMean)
	if err != nil {
		t.Fatalf("Downsample failed: %v", err)
	}

	want := [][]uint16{
		{2, 100},
		{9, 65535},
	}
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			if got := dst.Sample(x, y); got != want[y][x] {
				t.Errorf("mean sample (%d,%d) = %d, want %d", x, y, got, want[y][x])
			}
		}
	}
}

// TestLocalMeanNoOverflow verifies that full-range 16-bit blocks do not
// overflow the accumulator.
func TestLocalMeanNoOverflow(t *testing.T) {
	src := makeTestPlane(t, 2, 2, 16, func(x, y int) uint16 { return 65535 })

	dst, err := Downsample(src, LocalMean)
	if err != nil {
		t.Fatalf("Downsample failed: %v", err)
	}
	if got := dst.Sample(0, 0); got != 65535 {
		t.Errorf("mean of uniform 65535 block = %d, want 65535", got)
	}
}

// TestParseDownsamplePolicy verifies configuration string parsing.
func TestParseDownsamplePolicy(t *testing.T) {
	cases := []struct {
		in      string
		want    DownsamplePolicy
		wantErr bool
	}{
		{"decimate", Decimate, false},
		{"local_mean", LocalMean, false},
		{"bilinear", 0, true},
		{"", 0, true},
	}

	for _, tc := range cases {
		got, err := ParseDownsamplePolicy(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseDownsamplePolicy(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDownsamplePolicy(%q): %v", tc.in, err)
		} else if got != tc.want {
			t.Errorf("ParseDownsamplePolicy(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
