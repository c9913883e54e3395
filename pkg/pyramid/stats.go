package pyramid

import (
	"gonum.org/v1/gonum/stat"

	"imgpyramid/internal/models"
)

// ChannelSummary holds per-channel intensity statistics computed from the
// coarsest pyramid level after a successful build.
type ChannelSummary struct {
	// Channel is the global channel index
	Channel int

	// Name is the channel display name used in the container metadata
	Name string

	// Mean and StdDev are the sample mean and standard deviation of the
	// coarsest level's intensities
	Mean   float64
	StdDev float64
}

// summarizePlane computes intensity statistics over every sample of one
// plane. The coarsest level is small enough that a float conversion of the
// whole plane stays well within the pipeline's memory bounds.
func summarizePlane(p *models.Plane) (mean, stddev float64) {
	samples := make([]float64, p.Width*p.Height)
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			samples[y*p.Width+x] = float64(p.Sample(x, y))
		}
	}
	return stat.MeanStdDev(samples, nil)
}
