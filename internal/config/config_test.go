package config

import "testing"

func TestParseCutoff(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"08:15", 495, false},
		{"08:30", 510, false},
		{"00:00", 0, false},
		{"23:59", 1439, false},
		{"14:00", 840, false},
		{"24:00", 0, true},
		{"08:60", 0, true},
		{"nonsense", 0, true},
		{"", 0, true},
	}
	for _, tc := range cases {
		got, err := parseCutoff(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseCutoff(%q) = %d, want error", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseCutoff(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("parseCutoff(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestCutoffEnvFallback(t *testing.T) {
	t.Setenv("PRESENT_CUTOFF", "garbage")
	if got := cutoffEnv("PRESENT_CUTOFF", "08:15"); got != 495 {
		t.Errorf("cutoffEnv with bad value = %d, want fallback 495", got)
	}

	t.Setenv("PRESENT_CUTOFF", "09:00")
	if got := cutoffEnv("PRESENT_CUTOFF", "08:15"); got != 540 {
		t.Errorf("cutoffEnv = %d, want 540", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	b := cfg.Boundary()
	if b.PresentCutoff != 495 || b.LateCutoff != 510 {
		t.Errorf("default boundary = %+v, want 08:15/08:30", b)
	}
}
