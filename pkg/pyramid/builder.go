package pyramid

import (
	"fmt"
	"sync"

	"imgpyramid/internal/models"
	"imgpyramid/pkg/ometiff"
	"imgpyramid/pkg/source"
	"imgpyramid/pkg/store"
)

// DefaultPixelSizeMicrometers is used when the source carries no physical
// pixel size metadata. This is the only recoverable-by-design condition in
// the pipeline; everything else is fatal.
const DefaultPixelSizeMicrometers = 0.5

// State is the orchestrator's lifecycle position.
type State int

const (
	StateCreated State = iota
	StateStaging
	StateLevelBuilding
	StateWriting
	StateDone
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "CREATED"
	case StateStaging:
		return "STAGING"
	case StateLevelBuilding:
		return "LEVEL_BUILDING"
	case StateWriting:
		return "WRITING"
	case StateDone:
		return "DONE"
	case StateFailed:
		return "FAILED"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Params holds the pipeline configuration.
type Params struct {
	// Source is the input collaborator producing per-channel planes
	Source source.ChannelSource

	// OutputPath is where the container file will be written
	OutputPath string

	// ChannelNames are per-channel display names; missing entries fall
	// back to Channel_<index>
	ChannelNames []string

	// MaxLevels caps the pyramid depth. Default 5.
	MaxLevels int

	// MinSizeForNext stops level emission once the last emitted level's
	// smaller dimension falls below it. Default 512.
	MinSizeForNext int

	// TileEdge is the container's square tile size. Default 512.
	TileEdge int

	// Compression is the tile codec, applied identically to every level
	Compression ometiff.Compression

	// Downsample selects the 2x reduction policy for sub-levels
	Downsample DownsamplePolicy

	// WriteBatchSize bounds channel planes resident during writing.
	// Default 3.
	WriteBatchSize int

	// NumWorkers bounds how many channels are downsampled concurrently.
	// Default 1 (strictly sequential).
	NumWorkers int

	// Progress, when set, receives a monotonically increasing percentage
	// with a coarse stage description
	Progress func(percent int, stage string)
}

// Builder orchestrates the pyramid construction pipeline:
// CREATED -> STAGING -> LEVEL_BUILDING -> WRITING -> DONE, with FAILED
// reachable from any non-terminal state. The staging area is created on
// entry to STAGING and removed on every exit path.
type Builder struct {
	params *Params

	state       State
	lastPercent int
	levels      []models.LevelDims
	summaries   []ChannelSummary

	// stagingRoot records the staging directory for inspection after the
	// run; the directory itself is always gone by then.
	stagingRoot string
}

// NewBuilder creates a builder for the given parameters.
func NewBuilder(params *Params) *Builder {
	return &Builder{
		params: params,
		state:  StateCreated,
	}
}

// State returns the current lifecycle state.
func (b *Builder) State() State {
	return b.state
}

// Levels returns the planned pyramid descriptor. Valid once Process has
// passed the planning step.
func (b *Builder) Levels() []models.LevelDims {
	return b.levels
}

// Summaries returns the per-channel statistics computed from the coarsest
// level of a successful run.
func (b *Builder) Summaries() []ChannelSummary {
	return b.summaries
}

// report forwards progress, clamped so the reported percentage never
// regresses across stages.
func (b *Builder) report(percent int, stage string) {
	if percent < b.lastPercent {
		percent = b.lastPercent
	}
	b.lastPercent = percent
	if b.params.Progress != nil {
		b.params.Progress(percent, stage)
	}
}

// Process runs the complete pipeline. Any returned error has already
// triggered staging-area cleanup.
func (b *Builder) Process() (err error) {
	defer func() {
		if err != nil {
			b.state = StateFailed
		} else {
			b.state = StateDone
		}
	}()

	if b.params.Source == nil {
		return fmt.Errorf("no input source configured")
	}
	if b.params.OutputPath == "" {
		return fmt.Errorf("no output path configured")
	}
	maxLevels := b.params.MaxLevels
	if maxLevels <= 0 {
		maxLevels = 5
	}
	minSize := b.params.MinSizeForNext
	if minSize <= 0 {
		minSize = 512
	}
	workers := b.params.NumWorkers
	if workers <= 0 {
		workers = 1
	}

	// Step 1: Create the staging area
	fmt.Println("Step 1: Creating staging area...")
	b.state = StateStaging
	staging, err := store.NewStagingArea()
	if err != nil {
		return err
	}
	b.stagingRoot = staging.Root()
	defer staging.Close()

	planeStore, err := store.NewPlaneStore(staging)
	if err != nil {
		return err
	}
	b.report(5, "staging area ready")

	height, width := b.params.Source.Dimensions()
	channels := b.params.Source.ChannelCount()
	if channels <= 0 {
		return fmt.Errorf("source reports no channels")
	}

	pixelSize := b.params.Source.PixelSizeMicrometers()
	if pixelSize <= 0 {
		fmt.Printf("Warning: no physical pixel size in source metadata, using default %g µm\n",
			DefaultPixelSizeMicrometers)
		pixelSize = DefaultPixelSizeMicrometers
	}

	// Step 2: Plan the pyramid
	b.levels = Plan(height, width, maxLevels, minSize)
	fmt.Printf("Step 2: Planned %d pyramid levels:\n", len(b.levels))
	for _, lvl := range b.levels {
		fmt.Printf("  Level %d: %d x %d\n", lvl.Level, lvl.Height, lvl.Width)
	}

	// Materialization progress spans 5%..65% across every (level, channel)
	// unit, mirroring the share given to channel processing upstream.
	totalUnits := channels * len(b.levels)
	doneUnits := 0
	unitDone := func(stage string) {
		doneUnits++
		b.report(5+60*doneUnits/totalUnits, stage)
	}

	// Step 3: Ingest level 0, one channel at a time
	fmt.Println("Step 3: Ingesting full-resolution channels...")
	b.state = StateLevelBuilding
	var bits int
	for ch := 0; ch < channels; ch++ {
		plane, err := b.params.Source.ReadChannel(ch)
		if err != nil {
			return &UpstreamReadError{Channel: ch, Err: err}
		}
		if plane.Height != height || plane.Width != width {
			return fmt.Errorf("channel %d: plane is %dx%d, source declared %dx%d",
				ch, plane.Width, plane.Height, width, height)
		}
		if ch == 0 {
			bits = plane.BitsPerSample
		} else if plane.BitsPerSample != bits {
			return fmt.Errorf("channel %d: bits per sample %d differs from channel 0's %d",
				ch, plane.BitsPerSample, bits)
		}
		if err := planeStore.Put(0, ch, plane); err != nil {
			return err
		}
		unitDone(fmt.Sprintf("ingested channel %d", ch))
	}

	// Step 4: Derive the reduced-resolution levels
	fmt.Println("Step 4: Building reduced-resolution levels...")
	for _, lvl := range b.levels[1:] {
		if err := b.materializeLevel(planeStore, lvl, channels, workers, unitDone); err != nil {
			return err
		}
	}

	// Step 5: Write the tiled container
	fmt.Println("Step 5: Writing tiled container...")
	b.state = StateWriting
	names := b.params.ChannelNames
	err = ometiff.Write(b.params.OutputPath, planeStore, ometiff.Params{
		Levels:               b.levels,
		Channels:             channels,
		BitsPerSample:        bits,
		TileEdge:             b.params.TileEdge,
		Compression:          b.params.Compression,
		WriteBatchSize:       b.params.WriteBatchSize,
		PixelSizeMicrometers: pixelSize,
		ChannelNames:         names,
		Progress: func(done, total int) {
			b.report(65+35*done/total, fmt.Sprintf("wrote level %d/%d", done, total))
		},
	})
	if err != nil {
		return err
	}

	// Step 6: Summarize channel statistics from the coarsest level
	fmt.Println("Step 6: Computing channel statistics...")
	coarsest := b.levels[len(b.levels)-1]
	for ch := 0; ch < channels; ch++ {
		plane, err := planeStore.Get(coarsest.Level, ch)
		if err != nil {
			return err
		}
		mean, stddev := summarizePlane(plane)
		name := fmt.Sprintf("Channel_%d", ch)
		if ch < len(names) && names[ch] != "" {
			name = names[ch]
		}
		b.summaries = append(b.summaries, ChannelSummary{
			Channel: ch,
			Name:    name,
			Mean:    mean,
			StdDev:  stddev,
		})
	}

	b.report(100, "done")
	return nil
}

// materializeLevel derives every channel's plane for one level from the
// previous level's store entries. With workers > 1 channels are reduced
// concurrently, but never more than workers planes are in flight, and
// results are keyed by channel index so output ordering is unaffected.
func (b *Builder) materializeLevel(planeStore *store.PlaneStore, lvl models.LevelDims,
	channels, workers int, unitDone func(stage string)) error {

	type result struct {
		channel int
		err     error
	}

	jobs := make(chan int)
	results := make(chan result)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ch := range jobs {
				prev, err := planeStore.Get(lvl.Level-1, ch)
				if err != nil {
					results <- result{channel: ch, err: err}
					continue
				}
				down, err := Downsample(prev, b.params.Downsample)
				if err != nil {
					results <- result{channel: ch, err: err}
					continue
				}
				results <- result{channel: ch, err: planeStore.Put(lvl.Level, ch, down)}
			}
		}()
	}

	go func() {
		for ch := 0; ch < channels; ch++ {
			jobs <- ch
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	var firstErr error
	for res := range results {
		if res.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("level %d channel %d: %w", lvl.Level, res.channel, res.err)
			}
			continue
		}
		unitDone(fmt.Sprintf("level %d channel %d", lvl.Level, res.channel))
	}
	return firstErr
}
