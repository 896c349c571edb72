package presence

import "time"

// Learner is a tracked student. The scan code is unique and immutable once
// issued; registration itself lives outside this service.
type Learner struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Code      string    `json:"code"`
	Cohort    string    `json:"cohort"`
	PhotoURL  string    `json:"photo_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Record is one persisted scan observation. Status is always computed from
// the scan time and the active boundary, never supplied by a caller, and a
// record is never updated after insert. The learner fields are joined in on
// read for display.
type Record struct {
	ID        string    `json:"id"`
	LearnerID string    `json:"learner_id"`
	ScanTime  time.Time `json:"scan_time"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`

	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Code      string `json:"code,omitempty"`
	Cohort    string `json:"cohort,omitempty"`
}

// Filter narrows a listing. All set fields must match (AND semantics);
// zero-valued fields impose no constraint.
type Filter struct {
	From   *time.Time
	To     *time.Time
	Status Status
	Cohort string
	Limit  int
	Offset int
}

// Summary aggregates a learner's records by status.
type Summary struct {
	LearnerID         string  `json:"learner_id"`
	Total             int     `json:"total"`
	PresentCount      int     `json:"present_count"`
	LateCount         int     `json:"late_count"`
	AbsentCount       int     `json:"absent_count"`
	PresentPercentage float64 `json:"present_percentage"`
}
