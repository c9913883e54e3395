package models

// LevelDims describes one resolution step of the pyramid. Level 0 is full
// resolution; each subsequent level halves both dimensions.
type LevelDims struct {
	// Level is the pyramid position, starting at 0
	Level int

	// Height and Width are the plane dimensions at this level in pixels.
	// All channels share these dimensions within a level.
	Height int
	Width  int
}
