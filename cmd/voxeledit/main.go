package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"voxeledit/pkg/config"
	"voxeledit/pkg/editor"
	"voxeledit/pkg/selection"
	"voxeledit/pkg/visualization"
	"voxeledit/pkg/volume"
)

func main() {
	// Parse command line arguments
	inputFile := flag.String("input", "", "Input NIfTI volume (.nii or .nii.gz)")
	outputFile := flag.String("output", "edited.nii.gz", "Output NIfTI filename")
	configFile := flag.String("config", "", "Optional YAML configuration file")
	seedArg := flag.String("seed", "", "Flood fill seed voxel as x,y,z")
	precision := flag.Float64("precision", -1, "Flood fill intensity tolerance (negative: exact match)")
	radius := flag.Float64("radius", 0, "Flood fill search radius in voxels (0: unbounded)")
	local := flag.Bool("local", true, "Restrict flood fill to the connected region around the seed")
	fillValue := flag.Float64("fill", 0, "Value written into the selected voxels")
	invert := flag.Bool("invert", false, "Invert the selection before filling")
	extractSlices := flag.Bool("extract-slices", false, "Save overlay slices of the selection along all axes")
	slicesDir := flag.String("slices-dir", "mask_slices", "Directory to save overlay slices")
	flag.Parse()

	// Validate inputs
	if *inputFile == "" || *seedArg == "" {
		flag.Usage()
		os.Exit(1)
	}

	// Load optional configuration; flags take precedence over file values.
	cfg := config.DefaultConfig()
	if *configFile != "" {
		loaded, err := config.LoadConfig(*configFile)
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
		cfg = loaded
	}

	seed, err := parseVoxel(*seedArg)
	if err != nil {
		log.Fatalf("Invalid seed: %v", err)
	}

	fmt.Println("================================")
	fmt.Println("VOXELEDIT: SELECTION-BASED VOLUME EDITING")
	fmt.Println("================================")

	// Load the input volume
	fmt.Printf("Loading volume from: %s\n", *inputFile)
	vol, err := volume.Read(*inputFile)
	if err != nil {
		log.Fatalf("Failed to load volume: %v", err)
	}
	shape := vol.SpatialShape()
	fmt.Printf("Volume dimensions: %dx%dx%d (%d dims total)\n",
		shape[0], shape[1], shape[2], vol.NumDims())

	ed, err := editor.New(vol)
	if err != nil {
		log.Fatalf("Failed to create editor: %v", err)
	}
	mask := ed.Selection()

	// Build flood fill options from flags and configuration
	opts := selection.SelectOpts{Local: *local}
	if *precision >= 0 {
		opts.Precision = selection.Precision(*precision)
	} else if cfg.FloodFill.Precision > 0 {
		opts.Precision = selection.Precision(cfg.FloodFill.Precision)
	}
	if *radius > 0 {
		opts.SearchRadius = []float64{*radius}
	} else if cfg.FloodFill.SearchRadius > 0 {
		opts.SearchRadius = []float64{cfg.FloodFill.SearchRadius}
	}

	// Run the flood fill
	fmt.Printf("Flood filling from seed (%d, %d, %d)...\n", seed[0], seed[1], seed[2])
	startTime := time.Now()
	if _, _, err := mask.SelectByValue(seed, opts); err != nil {
		log.Fatalf("Flood fill failed: %v", err)
	}
	fillTime := time.Since(startTime)

	stats, err := ed.SelectionStats()
	if err != nil {
		log.Fatalf("Failed to compute selection statistics: %v", err)
	}
	fmt.Printf("\nSelection completed in %.2f seconds\n", fillTime.Seconds())
	fmt.Printf("Selected voxels: %d\n", stats.Count)
	if stats.Count > 0 {
		fmt.Printf("\nSelection Statistics:\n")
		fmt.Printf("=====================\n")
		fmt.Printf("Mean intensity: %.4f\n", stats.Mean)
		fmt.Printf("Median intensity: %.4f\n", stats.Median)
		fmt.Printf("Standard deviation: %.4f\n", stats.StdDev)
		fmt.Printf("Minimum: %.4f\n", stats.Min)
		fmt.Printf("Maximum: %.4f\n", stats.Max)
	}

	if *invert {
		fmt.Println("\nInverting selection...")
		if err := ed.InvertSelection(); err != nil {
			log.Fatalf("Invert failed: %v", err)
		}
		fmt.Printf("Selected voxels after invert: %d\n", mask.Size())
	}

	value := *fillValue
	if value == 0 && cfg.Fill.Value != 0 {
		value = cfg.Fill.Value
	}

	fmt.Printf("\nFilling %d voxels with value %.4f...\n", mask.Size(), value)
	if err := ed.FillSelection([]float64{value}); err != nil {
		log.Fatalf("Fill failed: %v", err)
	}

	// Save overlay slices if requested, before the output volume is written
	if *extractSlices {
		fmt.Println("\nExtracting overlay slices along all axes...")

		w, h, d := shape[0], shape[1], shape[2]
		sub, err := vol.Values([3]int{0, 0, 0}, shape)
		if err != nil {
			log.Fatalf("Failed to read volume data: %v", err)
		}
		overlay := visualization.NewOverlay(sub, mask.Data(), w, h, d)

		for _, axis := range []string{"x", "y", "z"} {
			axisDir := filepath.Join(*slicesDir, axis)
			fmt.Printf("Saving %s-axis slices to: %s\n", axis, axisDir)

			if err := overlay.SaveSliceSequence(axis, axisDir); err != nil {
				log.Printf("Warning: Failed to save %s-axis slices: %v", axis, err)
			}
		}

		fmt.Println("Slice extraction completed!")
	}

	// Write the edited volume
	fmt.Printf("\nWriting edited volume to: %s\n", *outputFile)
	if err := volume.Write(*outputFile, vol); err != nil {
		log.Fatalf("Failed to write output: %v", err)
	}

	fmt.Println("\nEditing completed successfully!")
	fmt.Printf("Undo available: %v\n", ed.CanUndo())
}

// parseVoxel parses a comma-separated voxel coordinate such as "12,34,5".
func parseVoxel(s string) ([3]int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return [3]int{}, fmt.Errorf("expected x,y,z but got %q", s)
	}
	var p [3]int
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return [3]int{}, fmt.Errorf("coordinate %d: %v", i, err)
		}
		p[i] = v
	}
	return p, nil
}
