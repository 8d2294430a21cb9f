package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wfnkit/wfnkit/internal/catalog"
	"github.com/wfnkit/wfnkit/internal/grids"
)

// FilterOptions holds flags for the filter command.
type FilterOptions struct {
	*RootOptions
	Output         string
	PropertyKey    string
	RadiusScale    float64
	FallbackRadius float64
	MinDistance    float64
	MaxValue       float64
	MaxAbsValue    float64
	TargetCount    int
	Sampling       string
	Seed           int64
	Wavefunction   string
}

// FilterResult summarizes a completed grid filter.
type FilterResult struct {
	Input    string `json:"input"`
	Artifact string `json:"artifact"`
	Property string `json:"property"`
}

// NewFilterCommand creates the filter command.
func NewFilterCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FilterOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "filter <grid.npz>",
		Short: "Cull points from an exported grid archive",
		Long: `Filter a grid archive produced by "wfnkit grids".

Points inside any atom's exclusion sphere are dropped: a fixed
--min-distance when given, otherwise each atom's covalent radius scaled
by --radius-scale. Value thresholds apply to the named property array,
and the survivors can be downsampled to a target count by random or
farthest-point sampling. Every array whose leading dimension matches the
point count is masked consistently; a filter that removes every point is
an error rather than an empty archive.

Examples:
  wfnkit filter h2o_grid.npz --property esp_au --radius-scale 1.2
  wfnkit filter h2o_grid.npz --property vdw_au --max-abs-value 0.05
  wfnkit filter h2o_grid.npz --property esp_au --target-count 500 --sampling farthest --seed 7`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFilter(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "archive path (defaults to <grid stem>_filtered.npz)")
	cmd.Flags().StringVar(&opts.PropertyKey, "property", "", "property array the value thresholds apply to, e.g. esp_au (required)")
	_ = cmd.MarkFlagRequired("property")
	cmd.Flags().Float64Var(&opts.RadiusScale, "radius-scale", 1.0, "scale factor on covalent radii for the exclusion spheres")
	cmd.Flags().Float64Var(&opts.FallbackRadius, "fallback-radius", 1.5, "radius in Angstrom for elements missing from the table")
	cmd.Flags().Float64Var(&opts.MinDistance, "min-distance", 0, "fixed exclusion distance in Angstrom, replacing scaled radii")
	cmd.Flags().Float64Var(&opts.MaxValue, "max-value", 0, "keep only points with property <= this value")
	cmd.Flags().Float64Var(&opts.MaxAbsValue, "max-abs-value", 0, "keep only points with |property| <= this value")
	cmd.Flags().IntVar(&opts.TargetCount, "target-count", 0, "downsample the survivors to this many points")
	cmd.Flags().StringVar(&opts.Sampling, "sampling", "random", "downsampling strategy (random|farthest)")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "seed for the sampler")
	cmd.Flags().StringVar(&opts.Wavefunction, "wavefunction", "", "wavefunction used to recover geometry from archives that carry none")

	return cmd
}

func runFilter(opts *FilterOptions, gridPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	switch grids.Sampling(opts.Sampling) {
	case grids.SamplingRandom, grids.SamplingFarthest:
	default:
		msg := fmt.Sprintf("unsupported sampling method %q (choose %q or %q)",
			opts.Sampling, grids.SamplingRandom, grids.SamplingFarthest)
		_ = formatter.Error(ErrCodeBadRequest, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	settings, err := LoadSettings(opts.RootOptions)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}

	filterOpts := grids.FilterOptions{
		GridPath:       gridPath,
		Output:         opts.Output,
		PropertyKey:    opts.PropertyKey,
		RadiusScale:    opts.RadiusScale,
		FallbackRadius: opts.FallbackRadius,
		TargetCount:    opts.TargetCount,
		Sampling:       grids.Sampling(opts.Sampling),
		Wavefunction:   opts.Wavefunction,
		Driver:         settings.Driver,
	}
	// Zero is a meaningful threshold, so only flags the user actually
	// set become thresholds.
	if cmd.Flags().Changed("min-distance") {
		filterOpts.MinDistance = &opts.MinDistance
	}
	if cmd.Flags().Changed("max-value") {
		filterOpts.MaxValue = &opts.MaxValue
	}
	if cmd.Flags().Changed("max-abs-value") {
		filterOpts.MaxAbsValue = &opts.MaxAbsValue
	}
	if cmd.Flags().Changed("seed") {
		filterOpts.Seed = &opts.Seed
	}

	ctx, stop := signalContext(cmd)
	defer stop()
	started := time.Now()
	run := catalog.Run{
		Operation:    "filter",
		Command:      commandLine(cmd, []string{gridPath}),
		Wavefunction: opts.Wavefunction,
	}

	artifact, err := grids.Filter(ctx, filterOpts)
	if err != nil {
		recordRun(ctx, settings.Config.Catalog, run, started, err)
		_ = formatter.Error(ErrCodeMultiwfn, err.Error(), nil)
		return WrapExitError(ExitFailure, "grid filter failed", err)
	}

	run.Artifact = artifact
	runID := recordRun(ctx, settings.Config.Catalog, run, started, nil)

	result := &FilterResult{
		Input:    gridPath,
		Artifact: artifact,
		Property: opts.PropertyKey,
	}
	if formatter.Format == "json" {
		return formatter.SuccessRun(result, runID)
	}
	fmt.Fprintf(formatter.Writer, "✓ Filtered %s to %s\n", result.Input, result.Artifact)
	return nil
}
