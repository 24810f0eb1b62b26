// Package tuition provides a billing and attendance reconciliation engine for
// education centers.
//
// Tuition is designed as a library, not a service. Import it directly into
// your Go application. It provides:
//
//   - Student, course, enrollment and payment management
//   - Per-lesson charging driven by attendance records
//   - Exact reverse-then-reapply attendance corrections
//   - Monthly debt reports with whole-month billing
//   - Optimistic concurrency on the student aggregate
//   - Pluggable hooks for audit and metrics
//
// # Quick Start
//
// Create an engine with your preferred store:
//
//	import (
//	    "github.com/xraph/tuition"
//	    "github.com/xraph/tuition/store/postgres"
//	)
//
//	// Initialize store
//	store, err := postgres.New(db)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Create engine
//	eng := tuition.New(store)
//
//	// Start the engine (runs migrations)
//	if err := eng.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Stop()
//
// # Core Concepts
//
// Courses define a monthly fee and a lesson schedule; the per-lesson cost
// is the fee divided by the lessons per month and is computed on demand:
//
//	c := &course.Course{
//	    Name:           "English B1",
//	    Cost:           tuition.KZT(1_600_000),
//	    LessonPerMonth: 8,
//	    WeekDays:       []string{"Monday", "Wednesday"},
//	}
//
// Enrollments connect students to courses and anchor monthly billing:
//
//	enr, err := eng.EnrollCourse(ctx, studentID, courseID, time.Now())
//
// Attendance drives the balance. A charged record deducts one lesson cost;
// corrections reverse the old effect and apply the new one:
//
//	rec, err := eng.RecordAttendance(ctx, studentID, attendance.Record{
//	    CourseID:    courseID,
//	    Date:        today,
//	    ChargeMoney: true,
//	})
//
// Payments credit the balance and return a fresh debt report:
//
//	p, report, err := eng.RecordPayment(ctx, studentID, courseID,
//	    tuition.KZT(1_600_000), time.Now(), "September")
package tuition
