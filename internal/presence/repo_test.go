package presence

import (
	"strings"
	"testing"
	"time"
)

func TestBuildRecordsQueryNoFilters(t *testing.T) {
	query, args := buildRecordsQuery(Filter{})
	if strings.Contains(query, "WHERE") {
		t.Errorf("empty filter produced WHERE clause: %s", query)
	}
	if !strings.Contains(query, "ORDER BY r.scan_time DESC") {
		t.Errorf("missing descending order: %s", query)
	}
	// Only limit and offset remain.
	if len(args) != 2 {
		t.Errorf("args = %v, want [limit offset]", args)
	}
	if args[0] != 100 || args[1] != 0 {
		t.Errorf("default limit/offset = %v, want 100/0", args)
	}
}

func TestBuildRecordsQueryAllFilters(t *testing.T) {
	from := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 9, 30, 0, 0, 0, 0, time.UTC)
	f := Filter{From: &from, To: &to, Status: StatusLate, Cohort: "DevWeb", Limit: 10, Offset: 20}

	query, args := buildRecordsQuery(f)
	for _, clause := range []string{
		"r.scan_time >= $1",
		"r.scan_time <= $2",
		"r.status = $3",
		"l.cohort = $4",
		"LIMIT $5 OFFSET $6",
	} {
		if !strings.Contains(query, clause) {
			t.Errorf("query missing %q:\n%s", clause, query)
		}
	}
	if strings.Count(query, " AND ") != 3 {
		t.Errorf("want 3 AND conjunctions, got query:\n%s", query)
	}
	if len(args) != 6 {
		t.Fatalf("args = %v, want 6 entries", args)
	}
	if args[2] != StatusLate || args[3] != "DevWeb" || args[4] != 10 || args[5] != 20 {
		t.Errorf("unexpected args: %v", args)
	}
}

func TestBuildRecordsQuerySingleFilter(t *testing.T) {
	query, args := buildRecordsQuery(Filter{Cohort: "DevData"})
	if !strings.Contains(query, "l.cohort = $1") {
		t.Errorf("cohort clause not numbered first: %s", query)
	}
	if strings.Contains(query, " AND ") {
		t.Errorf("single filter produced conjunction: %s", query)
	}
	if args[0] != "DevData" {
		t.Errorf("args = %v", args)
	}
}
