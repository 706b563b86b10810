package util

import "fmt"

// RunProgress summarizes how far a link computation run has advanced, in
// partition granularity.
type RunProgress struct {
	Completed  int    `json:"completed_partitions"`
	Total      int    `json:"total_partitions"`
	Percentage int32  `json:"percentage"`
	Step       string `json:"step,omitempty"`
}

// BuildRunProgress computes a progress summary from completed/total
// partition counts. Totals of zero report 0% rather than dividing.
func BuildRunProgress(completed, total int, step string) RunProgress {
	p := RunProgress{
		Completed: completed,
		Total:     total,
		Step:      step,
	}
	if total > 0 {
		if completed > total {
			completed = total
		}
		p.Percentage = int32(completed * 100 / total)
	}
	return p
}

// FormatFraction renders "done/total" counters for log lines.
func FormatFraction(done, total int) string {
	return fmt.Sprintf("%d/%d", done, total)
}
