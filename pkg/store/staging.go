// Package store provides the ephemeral staging area and the persistent
// plane store used to bound peak memory during pyramid construction.
// Planes are spilled to disk one at a time and read back sequentially,
// so memory use stays proportional to a single plane rather than the
// whole dataset.
package store

import (
	"fmt"
	"os"
)

// StagingArea is process-scoped ephemeral storage backing the plane
// stores. It is created once at pipeline start and must be removed
// exactly once on every exit path.
type StagingArea struct {
	root string
}

// NewStagingArea creates a fresh staging directory under the process-local
// temporary location.
func NewStagingArea() (*StagingArea, error) {
	dir, err := os.MkdirTemp("", "imgpyramid-staging-*")
	if err != nil {
		return nil, fmt.Errorf("staging area unavailable: %w", err)
	}
	return &StagingArea{root: dir}, nil
}

// Root returns the staging directory path.
func (s *StagingArea) Root() string {
	return s.root
}

// Close removes the staging directory and everything beneath it.
// Calling Close more than once is harmless.
func (s *StagingArea) Close() error {
	if s.root == "" {
		return nil
	}
	err := os.RemoveAll(s.root)
	s.root = ""
	return err
}
