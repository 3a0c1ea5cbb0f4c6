package utils

import (
	"fmt"
	"io"
	"os"
	"time"
)

// Verbose controls whether timing statistics are printed.
// Set to false to suppress output.
var Verbose = true

// Output is the writer where timing statistics are printed.
// Defaults to os.Stdout.
var Output io.Writer = os.Stdout

// TimingStats holds timing information for the phases of a run
type TimingStats struct {
	TotalTime       time.Duration
	DataLoadingTime time.Duration
	ModelInitTime   time.Duration
	TrainingTime    time.Duration
	EvalTime        time.Duration
	CheckpointTime  time.Duration
}

// DurationUS converts a duration to fractional microseconds.
func DurationUS(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e3
}

// PrintTimingStats prints detailed timing statistics.
// Respects the Verbose flag - does nothing if Verbose is false.
func PrintTimingStats(stats *TimingStats, steps int) {
	if !Verbose {
		return
	}
	fmt.Fprintln(Output, "\n=== TIMING STATISTICS ===")
	fmt.Fprintf(Output, "Total time: %v\n", stats.TotalTime)
	if steps > 0 {
		fmt.Fprintf(Output, "Average time per step: %v\n", stats.TotalTime/time.Duration(steps))
		fmt.Fprintf(Output, "Steps completed: %d\n", steps)
	}
	fmt.Fprintln(Output, "\nBreakdown by phase:")
	fmt.Fprintf(Output, "  Data loading: %v (%.1f%%)\n", stats.DataLoadingTime, percentOf(stats.DataLoadingTime, stats.TotalTime))
	fmt.Fprintf(Output, "  Model initialization: %v (%.1f%%)\n", stats.ModelInitTime, percentOf(stats.ModelInitTime, stats.TotalTime))
	fmt.Fprintf(Output, "  Training: %v (%.1f%%)\n", stats.TrainingTime, percentOf(stats.TrainingTime, stats.TotalTime))
	fmt.Fprintf(Output, "  Evaluation: %v (%.1f%%)\n", stats.EvalTime, percentOf(stats.EvalTime, stats.TotalTime))
	fmt.Fprintf(Output, "  Checkpointing: %v (%.1f%%)\n", stats.CheckpointTime, percentOf(stats.CheckpointTime, stats.TotalTime))
}

func percentOf(part, total time.Duration) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
