package presence

import "time"

// Status is the attendance outcome computed for a scan.
type Status string

const (
	StatusPresent Status = "present"
	StatusLate    Status = "late"
	StatusAbsent  Status = "absent"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusLate, StatusAbsent:
		return true
	}
	return false
}

// Boundary holds the two time-of-day cutoffs, in minutes since midnight.
// A scan at or before PresentCutoff is present, at or before LateCutoff is
// late, anything after is absent.
type Boundary struct {
	PresentCutoff int
	LateCutoff    int
}

// DefaultBoundary reproduces the 08:15 / 08:30 school schedule.
func DefaultBoundary() Boundary {
	return Boundary{PresentCutoff: 8*60 + 15, LateCutoff: 8*60 + 30}
}

// Classify maps a scan timestamp to a status. Only the hour and minute of t
// matter; the date and seconds are ignored. Cutoffs are inclusive on the
// lower band, so a scan exactly at a cutoff minute gets the better status.
func Classify(t time.Time, b Boundary) Status {
	minutes := t.Hour()*60 + t.Minute()
	switch {
	case minutes <= b.PresentCutoff:
		return StatusPresent
	case minutes <= b.LateCutoff:
		return StatusLate
	default:
		return StatusAbsent
	}
}
