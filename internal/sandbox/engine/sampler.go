package engine

// Sample is one point-in-time observation of the tracked process tree.
// CPUTicks is cumulative over the tree's lifetime; MemoryKB is the summed
// peak virtual-memory high-water mark of the processes alive at sampling
// time. Samples feed the running aggregation and are never persisted.
type Sample struct {
	CPUTicks float64
	MemoryKB int64
}

// sampler observes the process tree and the system-wide CPU counters.
// Absence of a sample is valid: a process disappearing mid-read or a missing
// host facility skips the tick instead of failing the run.
type sampler interface {
	// systemTicks reads the cumulative system-wide CPU tick counter, 0 when
	// the facility is unavailable.
	systemTicks() float64
	// sample observes the tree rooted at pid. ok is false when the tick
	// should be skipped.
	sample(pid int) (Sample, bool)
}

// noopSampler degrades every reading to zero on hosts without a per-process
// scheduling-ticks facility.
type noopSampler struct{}

func (noopSampler) systemTicks() float64      { return 0 }
func (noopSampler) sample(int) (Sample, bool) { return Sample{}, false }
