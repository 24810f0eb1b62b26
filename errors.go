package tuition

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound      = errors.New("tuition: not found")
	ErrAlreadyExists = errors.New("tuition: already exists")
	ErrInvalidInput  = errors.New("tuition: invalid input")

	// Student errors
	ErrStudentNotFound = errors.New("tuition: student not found")
	ErrStudentArchived = errors.New("tuition: student is archived")

	// Course errors
	ErrCourseNotFound      = errors.New("tuition: course not found")
	ErrCourseInUse         = errors.New("tuition: course has active enrollments")
	ErrInvalidLessonRate   = errors.New("tuition: lesson_per_month must be positive")
	ErrInvalidCost         = errors.New("tuition: course cost must be positive")
	ErrCurrencyMismatch    = errors.New("tuition: currency mismatch")
	ErrInvalidWeekDay      = errors.New("tuition: invalid week day")

	// Enrollment errors
	ErrEnrollmentNotFound = errors.New("tuition: enrollment not found")
	ErrAlreadyEnrolled    = errors.New("tuition: student already enrolled in course")
	ErrInvalidLessonCount = errors.New("tuition: lesson count below zero")

	// Attendance errors
	ErrAttendanceNotFound = errors.New("tuition: attendance record not found")
	ErrInvalidDate        = errors.New("tuition: invalid attendance date")

	// Payment errors
	ErrPaymentNotFound = errors.New("tuition: payment not found")
	ErrInvalidAmount   = errors.New("tuition: payment amount must be positive")

	// Store errors
	ErrVersionConflict   = errors.New("tuition: student version conflict")
	ErrStoreNotReady     = errors.New("tuition: store not ready")
	ErrStoreClosed       = errors.New("tuition: store is closed")
	ErrTransactionFailed = errors.New("tuition: transaction failed")
	ErrMigrationFailed   = errors.New("tuition: migration failed")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("tuition: validation failed for %s: %s", e.Field, e.Message)
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrStudentNotFound) ||
		errors.Is(err, ErrCourseNotFound) ||
		errors.Is(err, ErrEnrollmentNotFound) ||
		errors.Is(err, ErrAttendanceNotFound) ||
		errors.Is(err, ErrPaymentNotFound)
}

// IsConflict returns true if the error is a uniqueness conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyExists) ||
		errors.Is(err, ErrAlreadyEnrolled)
}

// IsInvalidInput returns true if the error is an input validation failure.
func IsInvalidInput(err error) bool {
	if errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidLessonCount) ||
		errors.Is(err, ErrInvalidLessonRate) ||
		errors.Is(err, ErrInvalidCost) ||
		errors.Is(err, ErrInvalidDate) {
		return true
	}

	var ve ValidationError
	return errors.As(err, &ve)
}

// IsRetryable returns true if the error is temporary and the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrVersionConflict) ||
		errors.Is(err, ErrStoreNotReady) ||
		errors.Is(err, ErrTransactionFailed)
}
