package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"imgpyramid/pkg/config"
	"imgpyramid/pkg/markers"
	"imgpyramid/pkg/ometiff"
	"imgpyramid/pkg/pyramid"
	"imgpyramid/pkg/source"
)

func main() {
	// Parse command line arguments
	inputDir := flag.String("input", "", "Directory containing raw channel planes and meta.yaml")
	outputPath := flag.String("output", "output.ome.tif", "Output pyramidal OME-TIFF filename")
	markersPath := flag.String("markers", "", "Optional markers.csv file for channel names")
	configPath := flag.String("config", "", "Optional YAML configuration file")
	maxLevels := flag.Int("max-levels", 0, "Maximum pyramid levels (overrides config)")
	minSize := flag.Int("min-size", 0, "Minimum dimension to continue the pyramid (overrides config)")
	tileEdge := flag.Int("tile", 0, "Square tile edge in pixels (overrides config)")
	compression := flag.String("compression", "", "Tile compression: none, deflate, or lzw (overrides config)")
	downsample := flag.String("downsample", "", "Downsample policy: decimate or local_mean (overrides config)")
	batchSize := flag.Int("batch", 0, "Channel planes per write batch (overrides config)")
	workers := flag.Int("workers", 0, "Concurrent channel downsampling workers (overrides config)")
	flag.Parse()

	// Validate inputs
	if *inputDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	// Load configuration, then apply command line overrides
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *maxLevels > 0 {
		cfg.Pyramid.MaxLevels = *maxLevels
	}
	if *minSize > 0 {
		cfg.Pyramid.MinSizeForNext = *minSize
	}
	if *tileEdge > 0 {
		cfg.Output.TileEdge = *tileEdge
	}
	if *compression != "" {
		cfg.Output.Compression = *compression
	}
	if *downsample != "" {
		cfg.Pyramid.DownsamplePolicy = *downsample
	}
	if *batchSize > 0 {
		cfg.Output.WriteBatchSize = *batchSize
	}
	if *workers > 0 {
		cfg.Processing.NumWorkers = *workers
	}

	codec, err := ometiff.ParseCompression(cfg.Output.Compression)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	policy, err := pyramid.ParseDownsamplePolicy(cfg.Pyramid.DownsamplePolicy)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	fmt.Println("================================")
	fmt.Println("BOUNDED-MEMORY PYRAMID CONSTRUCTION AND TILED OME-TIFF WRITING")
	fmt.Println("================================")

	// Open the input source
	src, err := source.OpenRawDir(*inputDir)
	if err != nil {
		log.Fatalf("Failed to open input source: %v", err)
	}

	height, width := src.Dimensions()
	fmt.Printf("Input: %d channels, %d x %d\n", src.ChannelCount(), height, width)

	// Load channel display names
	names := markers.LoadNames(*markersPath, src.ChannelCount())

	// Initialize pipeline parameters
	params := &pyramid.Params{
		Source:         src,
		OutputPath:     *outputPath,
		ChannelNames:   names,
		MaxLevels:      cfg.Pyramid.MaxLevels,
		MinSizeForNext: cfg.Pyramid.MinSizeForNext,
		TileEdge:       cfg.Output.TileEdge,
		Compression:    codec,
		Downsample:     policy,
		WriteBatchSize: cfg.Output.WriteBatchSize,
		NumWorkers:     cfg.Processing.NumWorkers,
	}
	if cfg.Processing.Verbose {
		params.Progress = func(percent int, stage string) {
			fmt.Printf("  [%3d%%] %s\n", percent, stage)
		}
	}

	// Run the pipeline
	builder := pyramid.NewBuilder(params)
	fmt.Println("Starting pyramid construction...")
	startTime := time.Now()
	if err := builder.Process(); err != nil {
		log.Fatalf("Pyramid construction failed: %v", err)
	}
	processingTime := time.Since(startTime)

	fmt.Printf("\nPyramid construction completed successfully in %.2f seconds!\n", processingTime.Seconds())
	fmt.Printf("Output written to: %s\n\n", *outputPath)

	fmt.Println("Pyramid levels:")
	for _, lvl := range builder.Levels() {
		fmt.Printf("  Level %d: %d x %d\n", lvl.Level, lvl.Height, lvl.Width)
	}

	fmt.Println("\nChannel statistics (coarsest level):")
	for _, s := range builder.Summaries() {
		fmt.Printf("  [%d] %s: mean %.1f, stddev %.1f\n", s.Channel, s.Name, s.Mean, s.StdDev)
	}

	fmt.Printf("\nSettings: tile %d, compression %s, downsample %s, batch %d, workers %d\n",
		cfg.Output.TileEdge, codec, policy, cfg.Output.WriteBatchSize, cfg.Processing.NumWorkers)
}
