package pyramid

import (
	"fmt"

	"imgpyramid/internal/models"
)

// DownsamplePolicy selects how a plane is reduced 2x in each dimension when
// deriving the next pyramid level. The policy is fixed at construction time
// and applied uniformly to every channel and level of one run.
type DownsamplePolicy int

const (
	// Decimate keeps every second row and column. Fast but aliasing-prone.
	Decimate DownsamplePolicy = iota

	// LocalMean averages each non-overlapping 2x2 block. Antialiased,
	// costlier.
	LocalMean
)

// String returns the configuration name of the policy.
func (p DownsamplePolicy) String() string {
	switch p {
	case Decimate:
		return "decimate"
	case LocalMean:
		return "local_mean"
	}
	return fmt.Sprintf("DownsamplePolicy(%d)", int(p))
}

// ParseDownsamplePolicy converts a configuration string into a policy.
func ParseDownsamplePolicy(s string) (DownsamplePolicy, error) {
	switch s {
	case "decimate":
		return Decimate, nil
	case "local_mean":
		return LocalMean, nil
	}
	return 0, fmt.Errorf("unknown downsample policy %q (want decimate or local_mean)", s)
}

// Downsample produces the next-level plane from src under the given policy.
// The result has dimensions (h/2, w/2) with floor division; a trailing odd
// row or column is dropped, never interpolated. Only one source and one
// destination plane are resident during the reduction.
func Downsample(src *models.Plane, policy DownsamplePolicy) (*models.Plane, error) {
	dst, err := models.NewPlane(src.Width/2, src.Height/2, src.BitsPerSample)
	if err != nil {
		return nil, fmt.Errorf("cannot downsample %dx%d plane: %w", src.Width, src.Height, err)
	}

	switch policy {
	case Decimate:
		decimate(src, dst)
	case LocalMean:
		localMean(src, dst)
	default:
		return nil, fmt.Errorf("unknown downsample policy %d", int(policy))
	}
	return dst, nil
}

// decimate copies every second sample, equivalent to src[0::2, 0::2]
// truncated to the destination dimensions.
func decimate(src, dst *models.Plane) {
	if src.BitsPerSample == 8 {
		for y := 0; y < dst.Height; y++ {
			srcRow := src.Pix[2*y*src.Width:]
			dstRow := dst.Pix[y*dst.Width:]
			for x := 0; x < dst.Width; x++ {
				dstRow[x] = srcRow[2*x]
			}
		}
		return
	}
	for y := 0; y < dst.Height; y++ {
		for x := 0; x < dst.Width; x++ {
			dst.SetSample(x, y, src.Sample(2*x, 2*y))
		}
	}
}

// localMean writes the truncating integer mean of each 2x2 source block.
func localMean(src, dst *models.Plane) {
	for y := 0; y < dst.Height; y++ {
		for x := 0; x < dst.Width; x++ {
			sum := uint32(src.Sample(2*x, 2*y)) +
				uint32(src.Sample(2*x+1, 2*y)) +
				uint32(src.Sample(2*x, 2*y+1)) +
				uint32(src.Sample(2*x+1, 2*y+1))
			dst.SetSample(x, y, uint16(sum/4))
		}
	}
}
