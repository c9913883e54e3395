// Package pyramid builds a multi-resolution image pyramid from per-channel
// planes and writes it out as a tiled container, keeping peak memory
// proportional to a small number of planes rather than the dataset size.
//
// The build process consists of several steps:
// 1. Creating the ephemeral staging area
// 2. Ingesting every source channel into the level-0 plane store
// 3. Deriving each reduced-resolution level channel by channel
// 4. Writing all levels into one tiled container file
// 5. Summarizing per-channel statistics
package pyramid

import (
	"imgpyramid/internal/models"
)

// Plan computes the ordered list of pyramid level dimensions. It is a pure
// function of its inputs: level 0 is (baseHeight, baseWidth), and each
// subsequent level halves both dimensions with floor division, dropping any
// trailing odd row or column.
//
// Emission stops once maxLevels entries exist, or once the most recently
// emitted level's smaller dimension falls below minSizeForNext. Because the
// stopping check looks at the already emitted level, the pyramid always ends
// with exactly one level whose minimum dimension may be below the threshold.
func Plan(baseHeight, baseWidth, maxLevels, minSizeForNext int) []models.LevelDims {
	levels := []models.LevelDims{{Level: 0, Height: baseHeight, Width: baseWidth}}

	for len(levels) < maxLevels {
		prev := levels[len(levels)-1]
		if min(prev.Height, prev.Width) < minSizeForNext {
			break
		}
		levels = append(levels, models.LevelDims{
			Level:  len(levels),
			Height: prev.Height / 2,
			Width:  prev.Width / 2,
		})
	}
	return levels
}
