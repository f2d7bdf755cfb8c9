//go:build linux

package engine

import (
	"github.com/prometheus/procfs"
)

// procSampler reads the process tree and system CPU counters from /proc.
//
// The tree is a snapshot of the root's current descendants: a child that
// forks and exits entirely between two samples is missed. This is a known
// accuracy/cost trade-off of interval sampling, not corrected here.
type procSampler struct {
	fs procfs.FS
}

// newSampler returns the /proc-backed sampler, degrading to zero readings
// when /proc is not mounted.
func newSampler() sampler {
	fs, err := procfs.NewDefaultFS()
	if err != nil {
		return noopSampler{}
	}
	return &procSampler{fs: fs}
}

func (s *procSampler) systemTicks() float64 {
	st, err := s.fs.Stat()
	if err != nil {
		return 0
	}
	c := st.CPUTotal
	seconds := c.User + c.Nice + c.System + c.Idle + c.Iowait + c.IRQ + c.SoftIRQ + c.Steal
	return seconds * clockTicksPerSecond
}

func (s *procSampler) sample(root int) (Sample, bool) {
	procs, err := s.fs.AllProcs()
	if err != nil {
		return Sample{}, false
	}

	stats := make(map[int]procfs.ProcStat, len(procs))
	byPID := make(map[int]procfs.Proc, len(procs))
	children := make(map[int][]int)
	for _, p := range procs {
		st, err := p.Stat()
		if err != nil {
			// Process disappeared mid-read; skip it, not the tick.
			continue
		}
		stats[p.PID] = st
		byPID[p.PID] = p
		children[st.PPID] = append(children[st.PPID], p.PID)
	}
	if _, ok := stats[root]; !ok {
		return Sample{}, false
	}

	var sample Sample
	queue := []int{root}
	for len(queue) > 0 {
		pid := queue[0]
		queue = queue[1:]
		st := stats[pid]
		// utime+stime plus the ticks of already-reaped children.
		sample.CPUTicks += float64(st.UTime) + float64(st.STime) +
			float64(st.CUTime) + float64(st.CSTime)
		if status, err := byPID[pid].NewStatus(); err == nil {
			sample.MemoryKB += int64(status.VmPeak / 1024)
		}
		queue = append(queue, children[pid]...)
	}
	return sample, true
}
