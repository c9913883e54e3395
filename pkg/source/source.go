// Package source defines the input collaborator contract for per-channel
// plane producers, plus a raw-directory implementation used by the command
// line tool. Upstream registration or transformation is outside this
// package; planes are treated as opaque pixel data.
package source

import (
	"imgpyramid/internal/models"
)

// ChannelSource produces per-channel planes at full resolution. Channel
// indices are dense integers starting at 0 in output order.
type ChannelSource interface {
	// ChannelCount returns the number of channels available.
	ChannelCount() int

	// Dimensions returns the plane height and width shared by all channels.
	Dimensions() (height, width int)

	// PixelSizeMicrometers returns the physical pixel size in micrometers,
	// or 0 when the source carries no physical-size metadata.
	PixelSizeMicrometers() float64

	// ReadChannel materializes one channel's full-resolution plane.
	ReadChannel(index int) (*models.Plane, error)
}
