package policy

import (
	"testing"
	"time"
)

func TestEvaluateEmbargo(t *testing.T) {
	ref := NewDate(2026, time.August, 29)
	past := NewDate(2020, time.January, 1)
	future := NewDate(2031, time.June, 1)
	testCases := []struct {
		name  string
		start *Date
		want  EmbargoStatus
	}{
		{"no start date", nil, EmbargoStatus{}},
		{"past start date", &past, EmbargoStatus{}},
		{"start equals reference", &ref, EmbargoStatus{}},
		{"future start date", &future, EmbargoStatus{HasEmbargo: true, LiftDate: &future}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := EvaluateEmbargo(tc.start, ref)
			if got.HasEmbargo != tc.want.HasEmbargo {
				t.Errorf("HasEmbargo: want %v, got %v", tc.want.HasEmbargo, got.HasEmbargo)
			}
			if (got.LiftDate == nil) != (tc.want.LiftDate == nil) {
				t.Fatalf("LiftDate: want %v, got %v", tc.want.LiftDate, got.LiftDate)
			}
			if got.LiftDate != nil && !got.LiftDate.Equal(*tc.want.LiftDate) {
				t.Errorf("LiftDate: want %s, got %s", tc.want.LiftDate, got.LiftDate)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	testCases := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"", "", true},
		{"2031-06-01", "2031-06-01", true},
		{"2031-06-01 00:00:00", "2031-06-01", true},
		{"not a date", "", false},
	}
	for _, tc := range testCases {
		d, err := ParseDate(tc.raw)
		if tc.ok != (err == nil) {
			t.Errorf("ParseDate(%q): unexpected error state: %v", tc.raw, err)
			continue
		}
		if tc.want == "" {
			if d != nil && err == nil {
				t.Errorf("ParseDate(%q): want nil date, got %s", tc.raw, d)
			}
			continue
		}
		if d == nil || d.String() != tc.want {
			t.Errorf("ParseDate(%q): want %s, got %v", tc.raw, tc.want, d)
		}
	}
}
