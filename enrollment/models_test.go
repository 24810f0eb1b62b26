package enrollment

import (
	"testing"
	"time"

	"github.com/xraph/tuition/types"
)

func TestMonthsEnrolled(t *testing.T) {
	today := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		enrolled time.Time
		want     int
	}{
		{"enrolled today", today, 1},
		{"earlier this month", time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), 1},
		{"one month ago", time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC), 1},
		{"two months ago", time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC), 2},
		{"across year boundary", time.Date(2025, 11, 10, 0, 0, 0, 0, time.UTC), 9},
		{"a year ago", time.Date(2025, 8, 31, 0, 0, 0, 0, time.UTC), 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &Enrollment{EnrollmentDate: tt.enrolled}
			if got := e.MonthsEnrolled(today); got != tt.want {
				t.Errorf("MonthsEnrolled: got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestOwedAmount(t *testing.T) {
	today := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	e := &Enrollment{EnrollmentDate: time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC)}

	got := e.OwedAmount(types.KZT(16000), today)
	if !got.Equal(types.KZT(48000)) {
		t.Errorf("OwedAmount: got %v, want %v", got, types.KZT(48000))
	}
}
