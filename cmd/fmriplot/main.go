package main

import (
	"flag"
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"fmriplot/internal/models"
	"fmriplot/pkg/carpet"
	"fmriplot/pkg/config"
	"fmriplot/pkg/nifti"
	"fmriplot/pkg/plot"
	"fmriplot/pkg/visualization"
)

func main() {
	// Parse command line arguments
	funcPath := flag.String("func", "", "4D functional scan (.nii or .nii.gz)")
	maskPath := flag.String("mask", "", "3D brain mask (.nii or .nii.gz)")
	segPath := flag.String("seg", "", "3D tissue segmentation (optional)")
	configPath := flag.String("config", "fmriplot.yaml", "YAML configuration file")
	outputPath := flag.String("output", "report.png", "Output figure filename")
	title := flag.String("title", "", "Figure title")
	tr := flag.Float64("tr", 0, "Sampling interval in seconds (default: from header)")
	stat := flag.Bool("stat", false, "Treat the input as a statistical map")
	globalSignal := flag.Bool("global-signal", true, "Add a global signal confound panel")
	airSpikes := flag.Bool("air-spikes", true, "Add a slice-wise air signal spike panel")
	exportSlices := flag.Bool("export-slices", false, "Export mean-volume slices along all axes")
	slicesDir := flag.String("slices-dir", "mean_slices", "Directory to save exported slices")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	// Validate inputs
	if *funcPath == "" || *maskPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	logger := newLogger(*verbose)
	defer logger.Sync()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal("loading configuration", zap.String("path", *configPath), zap.Error(err))
	}
	if cfg.Figure.Verbose && !*verbose {
		logger = newLogger(true)
	}

	logger.Info("loading functional scan", zap.String("path", *funcPath))
	vol, err := nifti.Load4D(*funcPath)
	if err != nil {
		logger.Fatal("loading functional scan", zap.Error(err))
	}
	logger.Info("scan loaded",
		zap.Int("x", vol.X), zap.Int("y", vol.Y), zap.Int("z", vol.Z),
		zap.Int("ntsteps", vol.T), zap.Float64("tr", vol.TR))

	mask, err := nifti.Load3D(*maskPath)
	if err != nil {
		logger.Fatal("loading mask", zap.Error(err))
	}

	var seg *models.Segmentation
	if *segPath != "" {
		if seg, err = nifti.LoadSegmentation(*segPath); err != nil {
			logger.Fatal("loading segmentation", zap.Error(err))
		}
	} else {
		logger.Info("no segmentation given, deriving one from the mask")
	}

	params := plot.Params{
		TR:              *tr,
		Stat:            *stat,
		Title:           *title,
		AddGlobalSignal: *globalSignal && !*stat,
		Bands:           cfg.TissueBands(),
		LongCutoff:      cfg.Carpet.LongCutoff,
		SpikeThreshold:  cfg.Spikes.Threshold,
		Width:           cfg.Figure.Width,
		Height:          cfg.Figure.Height,
		Logger:          logger,
	}
	if !*stat {
		params.MapRange = &[2]float64{cfg.Carpet.MapMin, cfg.Carpet.MapMax}
		params.Cleaner = &carpet.DetrendCleaner{
			PolyOrder:   cfg.Carpet.DetrendOrder,
			Standardize: true,
			LowHz:       cfg.Carpet.LowHz,
			HighHz:      cfg.Carpet.HighHz,
		}
	}

	fig, err := plot.New(vol, mask, seg, params)
	if err != nil {
		logger.Fatal("preparing figure", zap.Error(err))
	}

	if *airSpikes && !*stat {
		slices, err := plot.SliceAirSignal(vol, mask)
		if err != nil {
			logger.Fatal("computing air signal", zap.Error(err))
		}
		fig.AddSpikes(models.SpikeTrace{
			Slices:  plot.ZScoreRows(slices),
			Title:   "air signal spikes",
			ZScored: true,
		})
	}

	img, err := fig.Render()
	if err != nil {
		logger.Fatal("rendering figure", zap.Error(err))
	}

	out, err := os.Create(*outputPath)
	if err != nil {
		logger.Fatal("creating output file", zap.Error(err))
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		logger.Fatal("encoding figure", zap.Error(err))
	}
	if err := out.Close(); err != nil {
		logger.Fatal("closing output file", zap.Error(err))
	}
	logger.Info("figure written", zap.String("path", *outputPath))
	fmt.Printf("Summary figure saved to: %s\n", *outputPath)

	// Export mean-volume slices if requested
	if *exportSlices {
		viewer := visualization.NewViewer(models.MeanVolume(vol))
		for _, axis := range []string{"x", "y", "z"} {
			axisDir := filepath.Join(*slicesDir, axis)
			logger.Info("saving slices", zap.String("axis", axis), zap.String("dir", axisDir))
			if err := viewer.SaveSliceSequence(axis, axisDir); err != nil {
				logger.Warn("saving slices failed", zap.String("axis", axis), zap.Error(err))
			}
		}
	}
}

func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}
