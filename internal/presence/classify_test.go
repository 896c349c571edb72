package presence

import (
	"testing"
	"time"
)

func at(hour, minute int) time.Time {
	return time.Date(2024, 9, 2, hour, minute, 0, 0, time.UTC)
}

func TestClassifyDefaultBoundary(t *testing.T) {
	b := DefaultBoundary()
	cases := []struct {
		name string
		t    time.Time
		want Status
	}{
		{"early morning", at(7, 0), StatusPresent},
		{"exactly at present cutoff", at(8, 15), StatusPresent},
		{"one minute past present cutoff", at(8, 16), StatusLate},
		{"exactly at late cutoff", at(8, 30), StatusLate},
		{"one minute past late cutoff", at(8, 31), StatusAbsent},
		{"midday", at(12, 0), StatusAbsent},
		{"midnight", at(0, 0), StatusPresent},
		{"end of day", at(23, 59), StatusAbsent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.t, b); got != tc.want {
				t.Errorf("Classify(%02d:%02d) = %q, want %q", tc.t.Hour(), tc.t.Minute(), got, tc.want)
			}
		})
	}
}

func TestClassifyCustomBoundary(t *testing.T) {
	// Afternoon session: present until 14:00, late until 14:20.
	b := Boundary{PresentCutoff: 14 * 60, LateCutoff: 14*60 + 20}
	if got := Classify(at(13, 59), b); got != StatusPresent {
		t.Errorf("13:59 = %q, want present", got)
	}
	if got := Classify(at(14, 10), b); got != StatusLate {
		t.Errorf("14:10 = %q, want late", got)
	}
	if got := Classify(at(14, 21), b); got != StatusAbsent {
		t.Errorf("14:21 = %q, want absent", got)
	}
}

func TestClassifyIgnoresDateAndSeconds(t *testing.T) {
	b := DefaultBoundary()
	past := time.Date(1999, 1, 1, 8, 15, 59, 0, time.UTC)
	future := time.Date(2099, 12, 31, 8, 15, 0, 0, time.UTC)
	if got := Classify(past, b); got != StatusPresent {
		t.Errorf("past date = %q, want present", got)
	}
	if got := Classify(future, b); got != StatusPresent {
		t.Errorf("future date = %q, want present", got)
	}
}

func TestClassifyIsTotal(t *testing.T) {
	b := DefaultBoundary()
	for h := 0; h < 24; h++ {
		for m := 0; m < 60; m++ {
			if got := Classify(at(h, m), b); !got.Valid() {
				t.Fatalf("Classify(%02d:%02d) returned unknown status %q", h, m, got)
			}
		}
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusPresent, StatusLate, StatusAbsent} {
		if !s.Valid() {
			t.Errorf("%q should be valid", s)
		}
	}
	if Status("excused").Valid() {
		t.Error("unknown status reported valid")
	}
}
