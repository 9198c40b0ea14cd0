package workers

import (
	"os"
	"runtime"
	"strconv"
)

// EnvOverride names the environment variable that fixes the worker count.
const EnvOverride = "TEXDB_WORKERS"

// Count returns the worker count for a task: GOMAXPROCS scaled by
// multiplier, at least 1 and at most limit (0 means no limit). A positive
// TEXDB_WORKERS value replaces the computed count but is still capped.
func Count(multiplier float64, limit int) int {
	if override := os.Getenv(EnvOverride); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			return capped(count, limit)
		}
	}

	// GOMAXPROCS follows container CPU limits.
	workers := int(float64(runtime.GOMAXPROCS(0)) * multiplier)
	if workers < 1 {
		workers = 1
	}
	return capped(workers, limit)
}

func capped(n, limit int) int {
	if limit > 0 && n > limit {
		return limit
	}
	return n
}

// ForCPU returns worker count for CPU-bound tasks such as image decoding.
func ForCPU(limit int) int {
	return Count(1.0, limit)
}
