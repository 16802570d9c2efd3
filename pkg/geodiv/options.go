package geodiv

// RunOptions configures metric-specific behavior for a single run.
type RunOptions struct {
	// Standardize additionally writes a min-max standardized companion
	// field: (v - min) / (max - min) over the valid zone values. A
	// constant field standardizes to 0.
	Standardize bool

	// ReliefScales is the number of nested scales for the relief index
	// (R_M). Zero selects the default of 3; the maximum is 8.
	ReliefScales int

	// SlopeThreshold enables the flat-terrain mask for R_SDc: zones whose
	// mean slope (from the RunRequest's slope raster) falls below the
	// threshold report 0 instead of a noisy aspect dispersion. Nil
	// disables the mask.
	SlopeThreshold *float64
}

// DefaultRunOptions returns default options.
func DefaultRunOptions() RunOptions {
	return RunOptions{
		Standardize:    false,
		ReliefScales:   0,
		SlopeThreshold: nil,
	}
}
