package dedup

import "fmt"

// Metrics counts record groups by outcome. Written + Duplicates ==
// Processed holds after every group, not only at the end of a run.
type Metrics struct {
	// Processed is the number of record groups examined.
	Processed uint64

	// Written is the number of groups whose key was seen for the
	// first time and which were written to the outputs.
	Written uint64

	// Duplicates is the number of groups dropped because their key
	// had been seen before.
	Duplicates uint64
}

// DuplicatePct returns the duplicate percentage of the groups
// processed so far.
func (m *Metrics) DuplicatePct() float64 {
	if m.Processed == 0 {
		return 0
	}
	return 100 * float64(m.Duplicates) / float64(m.Processed)
}

// String returns a one-line summary suitable for progress and final
// reports.
func (m *Metrics) String() string {
	return fmt.Sprintf("processed %d read pairs, wrote %d, dropped %d duplicates (%.1f%%)",
		m.Processed, m.Written, m.Duplicates, m.DuplicatePct())
}
