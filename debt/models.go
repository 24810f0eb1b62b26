package debt

import (
	"time"

	"github.com/xraph/tuition/id"
	"github.com/xraph/tuition/types"
)

// CourseDebt is the per-course breakdown line of a student's debt report.
type CourseDebt struct {
	CourseID        id.CourseID `json:"course_id"`
	CourseName      string      `json:"course_name"`
	MonthlyFee      types.Money `json:"monthly_fee"`
	MonthsEnrolled  int         `json:"months_enrolled"`
	LessonsAttended int         `json:"lessons_attended"`
	ExpectedLessons int         `json:"expected_lessons"`
	TotalOwed       types.Money `json:"total_owed_for_course"`
	EnrollmentDate  time.Time   `json:"enrollment_date"`
}

// Report is the monthly debt position of one student across all of their
// enrollments.
type Report struct {
	StudentID        id.StudentID `json:"student_id"`
	StudentName      string       `json:"student_name"`
	CourseBreakdown  []CourseDebt `json:"course_breakdown"`
	TotalMonthlyOwed types.Money  `json:"total_monthly_owed"`
	TotalPaid        types.Money  `json:"total_paid"`
	Balance          types.Money  `json:"balance"` // paid minus owed
	OwesMoney        bool         `json:"owes_money"`
	DebtAmount       types.Money  `json:"debt_amount"`
	OverpaidAmount   types.Money  `json:"overpaid_amount"`
}

// SummaryEntry is one student's line in the all-students summary.
type SummaryEntry struct {
	StudentID   id.StudentID `json:"student_id"`
	StudentName string       `json:"student_name"`
	MonthlyOwed types.Money  `json:"monthly_owed"`
	TotalPaid   types.Money  `json:"total_paid"`
	Balance     types.Money  `json:"balance"`
	Debt        types.Money  `json:"debt"`
}

// Summary aggregates debt across every student.
type Summary struct {
	Students         []SummaryEntry `json:"students"`
	TotalDebt        types.Money    `json:"total_debt_all_students"`
	StudentsWithDebt int            `json:"students_with_debt"`
}

// CourseStudentDebt is one student's position within a single course,
// counting only payments made for that course.
type CourseStudentDebt struct {
	StudentID       id.StudentID `json:"student_id"`
	StudentName     string       `json:"student_name"`
	MonthsEnrolled  int          `json:"months_enrolled"`
	LessonsAttended int          `json:"lessons_attended"`
	ExpectedLessons int          `json:"expected_lessons"`
	CourseOwed      types.Money  `json:"course_owed"`
	CoursePayments  types.Money  `json:"course_payments"`
	Balance         types.Money  `json:"balance"`
	Debt            types.Money  `json:"debt"`
}

// CourseReport is the debt position of every student enrolled in a course.
type CourseReport struct {
	CourseID         id.CourseID         `json:"course_id"`
	CourseName       string              `json:"course_name"`
	MonthlyFee       types.Money         `json:"monthly_fee"`
	Students         []CourseStudentDebt `json:"students"`
	TotalCourseDebt  types.Money         `json:"total_course_debt"`
	StudentsWithDebt int                 `json:"students_with_debt"`
}
