// Package attendance defines the attendance record value object and the
// reversible charge rules used to reconcile a student's lesson count and
// balance.
//
// A record is keyed by (course, day) within a student and is never
// addressed on its own. Its financial effect is a pure function of the
// record and the course's current lesson cost, so reversing an old record
// and applying a merged one collapses every present/absent ×
// charged/uncharged transition into a single rule.
package attendance

import (
	"time"

	"github.com/xraph/tuition/id"
	"github.com/xraph/tuition/types"
)

// Record is an attendance entry for a single student, course and day.
type Record struct {
	CourseID    id.CourseID `json:"course_id"`
	Date        time.Time   `json:"date"` // normalized to midnight UTC
	IsAbsent    bool        `json:"is_absent"`
	ChargeMoney bool        `json:"charge_money"`
	Reason      string      `json:"reason,omitempty"`
}

// Day normalizes a timestamp to midnight UTC. All record dates are stored
// and compared at day precision.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DateKey returns the canonical string form of a record day ("2006-01-02").
func DateKey(t time.Time) string {
	return Day(t).Format("2006-01-02")
}

// Matches reports whether the record is keyed by the given course and day.
func (r Record) Matches(courseID id.CourseID, date time.Time) bool {
	return r.CourseID.String() == courseID.String() && Day(r.Date).Equal(Day(date))
}

// Change carries a partial update to a record. Nil fields keep the prior
// value.
type Change struct {
	IsAbsent    *bool
	ChargeMoney *bool
	Reason      *string
}

// IsZero reports whether the change carries no fields.
func (c Change) IsZero() bool {
	return c.IsAbsent == nil && c.ChargeMoney == nil && c.Reason == nil
}

// Merge returns a copy of old with the supplied fields overlaid.
func Merge(old Record, c Change) Record {
	merged := old
	if c.IsAbsent != nil {
		merged.IsAbsent = *c.IsAbsent
	}
	if c.ChargeMoney != nil {
		merged.ChargeMoney = *c.ChargeMoney
	}
	if c.Reason != nil {
		merged.Reason = *c.Reason
	}
	return merged
}

// Effect returns the counter deltas a record contributes while in force:
// the lesson-count delta and the balance delta, given the course's lesson
// cost. A charged record deducts one lesson cost; a charged presence also
// counts one billed lesson. Uncharged records contribute nothing.
//
// Reversal is Effect negated: because charge and refund both come from the
// same lessonCost value, a reverse-then-reapply cycle is always exact.
func Effect(r Record, lessonCost types.Money) (lessons int, money types.Money) {
	if !r.ChargeMoney {
		return 0, types.Zero(lessonCost.Currency)
	}
	if !r.IsAbsent {
		lessons = 1
	}
	return lessons, lessonCost.Negate()
}
