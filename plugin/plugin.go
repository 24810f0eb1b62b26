// Package plugin provides an extensible plugin system for the tuition
// engine. Plugins can hook into various lifecycle events to extend
// functionality.
package plugin

import (
	"context"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Student lifecycle hooks
// ──────────────────────────────────────────────────

// OnStudentCreated is called when a new student is created.
type OnStudentCreated interface {
	Plugin
	OnStudentCreated(ctx context.Context, student interface{}) error
}

// OnStudentArchived is called when a student is archived.
type OnStudentArchived interface {
	Plugin
	OnStudentArchived(ctx context.Context, studentID string) error
}

// ──────────────────────────────────────────────────
// Course lifecycle hooks
// ──────────────────────────────────────────────────

// OnCourseCreated is called when a new course is created.
type OnCourseCreated interface {
	Plugin
	OnCourseCreated(ctx context.Context, course interface{}) error
}

// OnCourseUpdated is called when a course is updated.
type OnCourseUpdated interface {
	Plugin
	OnCourseUpdated(ctx context.Context, oldCourse, newCourse interface{}) error
}

// ──────────────────────────────────────────────────
// Attendance hooks
// ──────────────────────────────────────────────────

// OnAttendanceRecorded is called when an attendance record is created.
type OnAttendanceRecorded interface {
	Plugin
	OnAttendanceRecorded(ctx context.Context, studentID string, record interface{}) error
}

// OnAttendanceUpdated is called when an attendance record is corrected.
// The previous record's billing effect has already been reversed and the
// new record's effect applied when this fires.
type OnAttendanceUpdated interface {
	Plugin
	OnAttendanceUpdated(ctx context.Context, studentID string, oldRecord, newRecord interface{}) error
}

// ──────────────────────────────────────────────────
// Enrollment hooks
// ──────────────────────────────────────────────────

// OnEnrollmentCreated is called when a student is enrolled in a course.
type OnEnrollmentCreated interface {
	Plugin
	OnEnrollmentCreated(ctx context.Context, enrollment interface{}) error
}

// OnLessonsAdded is called when lessons are added to an enrollment
// outside the attendance flow.
type OnLessonsAdded interface {
	Plugin
	OnLessonsAdded(ctx context.Context, studentID, courseID string, count int) error
}

// ──────────────────────────────────────────────────
// Payment and reconciliation hooks
// ──────────────────────────────────────────────────

// OnPaymentRecorded is called when a payment is recorded.
type OnPaymentRecorded interface {
	Plugin
	OnPaymentRecorded(ctx context.Context, payment interface{}) error
}

// OnBalanceReconciled is called after an operation changed a student's
// balance. The values are minor units of the student's currency.
type OnBalanceReconciled interface {
	Plugin
	OnBalanceReconciled(ctx context.Context, studentID string, oldBalance, newBalance int64) error
}

// OnDebtComputed is called when a debt report is computed for a student.
type OnDebtComputed interface {
	Plugin
	OnDebtComputed(ctx context.Context, report interface{}) error
}
