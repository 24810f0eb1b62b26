package audithook

// Action constants for audit events.
const (
	// Student actions
	ActionStudentCreated  = "student.created"
	ActionStudentArchived = "student.archived"

	// Course actions
	ActionCourseCreated = "course.created"
	ActionCourseUpdated = "course.updated"

	// Enrollment actions
	ActionEnrollmentCreated = "enrollment.created"
	ActionLessonsAdded      = "enrollment.lessons_added"

	// Attendance actions
	ActionAttendanceRecorded = "attendance.recorded"
	ActionAttendanceUpdated  = "attendance.updated"

	// Payment actions
	ActionPaymentRecorded   = "payment.recorded"
	ActionBalanceReconciled = "balance.reconciled"

	// Report actions
	ActionDebtComputed = "debt.computed"
)

// Resource constants for audit events.
const (
	ResourceStudent    = "student"
	ResourceCourse     = "course"
	ResourceEnrollment = "enrollment"
	ResourceAttendance = "attendance"
	ResourcePayment    = "payment"
	ResourceBalance    = "balance"
	ResourceReport     = "report"
)

// Category constants for audit events.
const (
	CategoryAdmin      = "admin"
	CategoryEnrollment = "enrollment"
	CategoryAttendance = "attendance"
	CategoryPayment    = "payment"
	CategoryReporting  = "reporting"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
