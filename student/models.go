// Package student defines the student aggregate: identity, billing
// counters and the embedded attendance history.
//
// The aggregate is the unit of consistency for billing: the balance, the
// lesson counter and the attendance list always persist together in a
// single conditional write guarded by Version.
package student

import (
	"time"

	"github.com/xraph/tuition/attendance"
	"github.com/xraph/tuition/id"
	"github.com/xraph/tuition/types"
)

// Student is the billing aggregate for one enrolled person.
type Student struct {
	types.Entity
	ID           id.StudentID        `json:"id"`
	Name         string              `json:"name"`
	Surname      string              `json:"surname"`
	SecondName   string              `json:"second_name,omitempty"`
	StartingDate time.Time           `json:"starting_date"`
	NumLesson    int                 `json:"num_lesson"`   // billed-present lessons, owned by reconciliation
	Balance      types.Money         `json:"total_money"`  // running balance; negative means debt consumed
	Attendance   []attendance.Record `json:"attendance"`
	Archived     bool                `json:"is_archived"`
	Version      int64               `json:"version"` // optimistic-concurrency token
}

// FullName returns "Name Surname" for reporting.
func (s *Student) FullName() string {
	return s.Name + " " + s.Surname
}

// FindAttendance returns the index of the record keyed by (courseID, day),
// or -1 when no such record exists. At most one record per key exists.
func (s *Student) FindAttendance(courseID id.CourseID, date time.Time) int {
	for i := range s.Attendance {
		if s.Attendance[i].Matches(courseID, date) {
			return i
		}
	}
	return -1
}

// SetAttendance replaces the record at the same (course, day) key, or
// appends when none exists.
func (s *Student) SetAttendance(rec attendance.Record) {
	if i := s.FindAttendance(rec.CourseID, rec.Date); i >= 0 {
		s.Attendance[i] = rec
		return
	}
	s.Attendance = append(s.Attendance, rec)
}

// AttendanceForCourse returns the student's records for one course.
func (s *Student) AttendanceForCourse(courseID id.CourseID) []attendance.Record {
	out := make([]attendance.Record, 0)
	for _, rec := range s.Attendance {
		if rec.CourseID.String() == courseID.String() {
			out = append(out, rec)
		}
	}
	return out
}

// Clone returns a deep copy. Stores hand out clones so callers never alias
// the stored aggregate.
func (s *Student) Clone() *Student {
	cp := *s
	cp.Attendance = make([]attendance.Record, len(s.Attendance))
	copy(cp.Attendance, s.Attendance)
	return &cp
}

// ListOpts filters student listings.
type ListOpts struct {
	IncludeArchived bool
	ArchivedOnly    bool
	Limit           int
	Offset          int
}
