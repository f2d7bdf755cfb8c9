// Package result defines the sandbox execution result record.
package result

import "math"

// RunResult is the single externally visible record of one sandboxed
// execution. It is created once per invocation and never mutated afterwards.
//
// ExitCode is -1 when no exit status was observed, which is exactly the
// timeout path; Timeout is true iff the process did not exit within the
// allotted samples.
type RunResult struct {
	// Cmd echoes the command line that was executed.
	Cmd []string `json:"cmd"`
	// Timeout reports whether the hard wall-clock deadline fired.
	Timeout bool `json:"timeout"`
	// ExitCode is the child's exit status, or -1 when none was observed.
	ExitCode int `json:"exit_code"`
	// Stdout and Stderr are the captured streams, lossily UTF-8 decoded.
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
	// CPUUtil is the CPU-count-normalized utilization percentage.
	CPUUtil float64 `json:"process_cpu_util"`
	// CPUTime is the total CPU time consumed by the process tree, in seconds.
	CPUTime float64 `json:"process_cpu_time"`
	// ExecTime is the wall-clock duration from launch to teardown, in seconds.
	ExecTime float64 `json:"process_exec_time"`
	// PeakMemoryKB is the maximum process-tree memory observed, in kilobytes.
	PeakMemoryKB int64 `json:"process_peak_memory"`
}

// Round2 rounds to two decimals, the fixed precision of all float fields.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Round3 rounds to three decimals, used by the evaluation driver for
// per-record runtimes.
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
