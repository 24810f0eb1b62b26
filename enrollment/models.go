package enrollment

import (
	"time"

	"github.com/xraph/tuition/id"
	"github.com/xraph/tuition/types"
)

// Enrollment anchors the monthly billing of one student in one course.
// One row exists per (student, course) pair; it is created on enrollment
// and never duplicated.
type Enrollment struct {
	types.Entity
	ID              id.EnrollmentID `json:"id"`
	StudentID       id.StudentID    `json:"student_id"`
	CourseID        id.CourseID     `json:"course_id"`
	EnrollmentDate  time.Time       `json:"enrollment_date"`
	LessonsAttended int             `json:"lessons_attended"` // course-scoped, reporting only
}

// MonthsEnrolled returns the whole calendar months elapsed between the
// enrollment date and today, with a minimum of one: a student enrolled
// today already owes for the current month.
func (e *Enrollment) MonthsEnrolled(today time.Time) int {
	months := (today.Year()-e.EnrollmentDate.Year())*12 +
		int(today.Month()) - int(e.EnrollmentDate.Month())
	if months < 1 {
		return 1
	}
	return months
}

// OwedAmount returns the monthly fee multiplied by the months enrolled.
func (e *Enrollment) OwedAmount(monthlyFee types.Money, today time.Time) types.Money {
	return monthlyFee.Multiply(int64(e.MonthsEnrolled(today)))
}
