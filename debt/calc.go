// Package debt computes monthly amounts owed per course and aggregate
// balances. Every function here is a pure read over already-loaded state:
// nothing is mutated, and the same inputs always produce the same report.
package debt

import (
	"errors"
	"fmt"
	"time"

	"github.com/xraph/tuition/course"
	"github.com/xraph/tuition/enrollment"
	"github.com/xraph/tuition/student"
	"github.com/xraph/tuition/types"
)

// ErrCurrencyMismatch reports inputs whose currencies disagree. The
// calculators check every amount before summing so a bad input surfaces
// as an error instead of a Money arithmetic panic.
var ErrCurrencyMismatch = errors.New("debt: currency mismatch")

// Inputs carries the loaded state a student report is computed from.
// Courses is keyed by CourseID.String().
type Inputs struct {
	Student     *student.Student
	Enrollments []*enrollment.Enrollment
	Courses     map[string]*course.Course
	TotalPaid   types.Money
	Today       time.Time
}

// Calculate builds the monthly debt report for one student.
//
// For each enrollment: owed = monthly fee × months enrolled (whole-month
// floor, minimum one). Balance = total paid − total owed. Totals are sums
// of per-course values, so the result does not depend on enrollment
// iteration order.
func Calculate(in Inputs) (*Report, error) {
	currency := in.TotalPaid.Currency
	owed := types.Zero(currency)
	breakdown := make([]CourseDebt, 0, len(in.Enrollments))

	for _, enr := range in.Enrollments {
		c, ok := in.Courses[enr.CourseID.String()]
		if !ok {
			return nil, fmt.Errorf("debt: course %s not loaded for enrollment %s",
				enr.CourseID, enr.ID)
		}
		if c.Cost.Currency != currency {
			return nil, fmt.Errorf("course %s bills %s, student pays %s: %w",
				c.ID, c.Cost.Currency, currency, ErrCurrencyMismatch)
		}

		months := enr.MonthsEnrolled(in.Today)
		courseOwed := c.Cost.Multiply(int64(months))
		owed = owed.Add(courseOwed)

		breakdown = append(breakdown, CourseDebt{
			CourseID:        c.ID,
			CourseName:      c.Name,
			MonthlyFee:      c.Cost,
			MonthsEnrolled:  months,
			LessonsAttended: enr.LessonsAttended,
			ExpectedLessons: c.LessonPerMonth * months,
			TotalOwed:       courseOwed,
			EnrollmentDate:  enr.EnrollmentDate,
		})
	}

	balance := in.TotalPaid.Subtract(owed)
	rep := &Report{
		StudentID:        in.Student.ID,
		StudentName:      in.Student.FullName(),
		CourseBreakdown:  breakdown,
		TotalMonthlyOwed: owed,
		TotalPaid:        in.TotalPaid,
		Balance:          balance,
		OwesMoney:        balance.IsNegative(),
		DebtAmount:       types.Zero(currency),
		OverpaidAmount:   types.Zero(currency),
	}
	if balance.IsNegative() {
		rep.DebtAmount = balance.Abs()
	} else {
		rep.OverpaidAmount = balance
	}
	return rep, nil
}

// Summarize folds per-student reports into the all-students summary.
// Reports in a currency other than the summary's are rejected.
func Summarize(reports []*Report, currency string) (*Summary, error) {
	sum := &Summary{
		Students:  make([]SummaryEntry, 0, len(reports)),
		TotalDebt: types.Zero(currency),
	}

	for _, rep := range reports {
		if rep.DebtAmount.Currency != sum.TotalDebt.Currency {
			return nil, fmt.Errorf("student %s report is %s, summary is %s: %w",
				rep.StudentID, rep.DebtAmount.Currency, sum.TotalDebt.Currency, ErrCurrencyMismatch)
		}
		sum.Students = append(sum.Students, SummaryEntry{
			StudentID:   rep.StudentID,
			StudentName: rep.StudentName,
			MonthlyOwed: rep.TotalMonthlyOwed,
			TotalPaid:   rep.TotalPaid,
			Balance:     rep.Balance,
			Debt:        rep.DebtAmount,
		})
		if rep.DebtAmount.IsPositive() {
			sum.TotalDebt = sum.TotalDebt.Add(rep.DebtAmount)
			sum.StudentsWithDebt++
		}
	}
	return sum, nil
}

// CourseInputs carries the loaded state for a per-course debt report.
// Students and PaidByStudent are keyed by StudentID.String(); payments
// count only money received for this course.
type CourseInputs struct {
	Course        *course.Course
	Enrollments   []*enrollment.Enrollment
	Students      map[string]*student.Student
	PaidByStudent map[string]types.Money
	Today         time.Time
}

// CalculateForCourse builds the debt position of every student enrolled
// in one course, scoped to payments made for that course.
func CalculateForCourse(in CourseInputs) (*CourseReport, error) {
	currency := in.Course.Cost.Currency
	rep := &CourseReport{
		CourseID:        in.Course.ID,
		CourseName:      in.Course.Name,
		MonthlyFee:      in.Course.Cost,
		Students:        make([]CourseStudentDebt, 0, len(in.Enrollments)),
		TotalCourseDebt: types.Zero(currency),
	}

	for _, enr := range in.Enrollments {
		stu, ok := in.Students[enr.StudentID.String()]
		if !ok {
			return nil, fmt.Errorf("debt: student %s not loaded for enrollment %s",
				enr.StudentID, enr.ID)
		}

		months := enr.MonthsEnrolled(in.Today)
		owed := in.Course.Cost.Multiply(int64(months))

		paid, ok := in.PaidByStudent[enr.StudentID.String()]
		if !ok {
			paid = types.Zero(currency)
		}
		if paid.Currency != currency {
			return nil, fmt.Errorf("student %s payments are %s, course bills %s: %w",
				stu.ID, paid.Currency, currency, ErrCurrencyMismatch)
		}

		balance := paid.Subtract(owed)
		entry := CourseStudentDebt{
			StudentID:       stu.ID,
			StudentName:     stu.FullName(),
			MonthsEnrolled:  months,
			LessonsAttended: enr.LessonsAttended,
			ExpectedLessons: in.Course.LessonPerMonth * months,
			CourseOwed:      owed,
			CoursePayments:  paid,
			Balance:         balance,
			Debt:            types.Zero(currency),
		}
		if balance.IsNegative() {
			entry.Debt = balance.Abs()
			rep.TotalCourseDebt = rep.TotalCourseDebt.Add(entry.Debt)
			rep.StudentsWithDebt++
		}
		rep.Students = append(rep.Students, entry)
	}
	return rep, nil
}
