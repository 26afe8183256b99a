package pregel

import "runtime"

// defaultParallelism returns the default vertex concurrency limit: one per
// hardware thread, matching the scheduler's "number of hardware threads"
// default.
func defaultParallelism() int {
	if n := runtime.NumCPU(); n > 0 {
		return n
	}
	return 1
}
