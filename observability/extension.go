// Package observability provides a metrics extension for Tuition that records
// lifecycle event counts via go-utils MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/tuition/payment"
	"github.com/xraph/tuition/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin               = (*MetricsExtension)(nil)
	_ plugin.OnInit               = (*MetricsExtension)(nil)
	_ plugin.OnStudentCreated     = (*MetricsExtension)(nil)
	_ plugin.OnStudentArchived    = (*MetricsExtension)(nil)
	_ plugin.OnCourseCreated      = (*MetricsExtension)(nil)
	_ plugin.OnCourseUpdated      = (*MetricsExtension)(nil)
	_ plugin.OnEnrollmentCreated  = (*MetricsExtension)(nil)
	_ plugin.OnAttendanceRecorded = (*MetricsExtension)(nil)
	_ plugin.OnAttendanceUpdated  = (*MetricsExtension)(nil)
	_ plugin.OnLessonsAdded       = (*MetricsExtension)(nil)
	_ plugin.OnPaymentRecorded    = (*MetricsExtension)(nil)
	_ plugin.OnBalanceReconciled  = (*MetricsExtension)(nil)
	_ plugin.OnDebtComputed       = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a Tuition plugin to automatically track billing metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Student metrics
	StudentCreated  Counter
	StudentArchived Counter

	// Course metrics
	CourseCreated Counter
	CourseUpdated Counter

	// Enrollment metrics
	EnrollmentCreated Counter
	LessonsAdded      Counter

	// Attendance metrics
	AttendanceRecorded Counter
	AttendanceUpdated  Counter

	// Payment and balance metrics
	PaymentRecorded Counter
	PaymentAmount   Histogram
	BalanceDelta    Histogram

	// Report metrics
	DebtComputed Counter

	// Error metrics
	StoreErrors  Counter
	PluginErrors Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Student metrics
		StudentCreated:  factory.Counter("tuition.student.created"),
		StudentArchived: factory.Counter("tuition.student.archived"),

		// Course metrics
		CourseCreated: factory.Counter("tuition.course.created"),
		CourseUpdated: factory.Counter("tuition.course.updated"),

		// Enrollment metrics
		EnrollmentCreated: factory.Counter("tuition.enrollment.created"),
		LessonsAdded:      factory.Counter("tuition.enrollment.lessons_added"),

		// Attendance metrics
		AttendanceRecorded: factory.Counter("tuition.attendance.recorded"),
		AttendanceUpdated:  factory.Counter("tuition.attendance.updated"),

		// Payment and balance metrics
		PaymentRecorded: factory.Counter("tuition.payment.recorded"),
		PaymentAmount:   factory.Histogram("tuition.payment.amount"),
		BalanceDelta:    factory.Histogram("tuition.balance.delta"),

		// Report metrics
		DebtComputed: factory.Counter("tuition.debt.computed"),

		// Error metrics
		StoreErrors:  factory.Counter("tuition.store.errors"),
		PluginErrors: factory.Counter("tuition.plugin.errors"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Student lifecycle hooks
// ──────────────────────────────────────────────────

// OnStudentCreated implements plugin.OnStudentCreated.
func (m *MetricsExtension) OnStudentCreated(_ context.Context, _ interface{}) error {
	m.StudentCreated.Inc()
	return nil
}

// OnStudentArchived implements plugin.OnStudentArchived.
func (m *MetricsExtension) OnStudentArchived(_ context.Context, _ string) error {
	m.StudentArchived.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Course lifecycle hooks
// ──────────────────────────────────────────────────

// OnCourseCreated implements plugin.OnCourseCreated.
func (m *MetricsExtension) OnCourseCreated(_ context.Context, _ interface{}) error {
	m.CourseCreated.Inc()
	return nil
}

// OnCourseUpdated implements plugin.OnCourseUpdated.
func (m *MetricsExtension) OnCourseUpdated(_ context.Context, _, _ interface{}) error {
	m.CourseUpdated.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Enrollment lifecycle hooks
// ──────────────────────────────────────────────────

// OnEnrollmentCreated implements plugin.OnEnrollmentCreated.
func (m *MetricsExtension) OnEnrollmentCreated(_ context.Context, _ interface{}) error {
	m.EnrollmentCreated.Inc()
	return nil
}

// OnLessonsAdded implements plugin.OnLessonsAdded.
func (m *MetricsExtension) OnLessonsAdded(_ context.Context, _, _ string, count int) error {
	m.LessonsAdded.Add(float64(count))
	return nil
}

// ──────────────────────────────────────────────────
// Attendance lifecycle hooks
// ──────────────────────────────────────────────────

// OnAttendanceRecorded implements plugin.OnAttendanceRecorded.
func (m *MetricsExtension) OnAttendanceRecorded(_ context.Context, _ string, _ interface{}) error {
	m.AttendanceRecorded.Inc()
	return nil
}

// OnAttendanceUpdated implements plugin.OnAttendanceUpdated.
func (m *MetricsExtension) OnAttendanceUpdated(_ context.Context, _ string, _, _ interface{}) error {
	m.AttendanceUpdated.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Payment and balance hooks
// ──────────────────────────────────────────────────

// OnPaymentRecorded implements plugin.OnPaymentRecorded.
func (m *MetricsExtension) OnPaymentRecorded(_ context.Context, p interface{}) error {
	m.PaymentRecorded.Inc()
	if pay, ok := p.(*payment.Payment); ok {
		m.PaymentAmount.Observe(float64(pay.Amount.Amount))
	}
	return nil
}

// OnBalanceReconciled implements plugin.OnBalanceReconciled.
func (m *MetricsExtension) OnBalanceReconciled(_ context.Context, _ string, oldBalance, newBalance int64) error {
	m.BalanceDelta.Observe(float64(newBalance - oldBalance))
	return nil
}

// ──────────────────────────────────────────────────
// Report hooks
// ──────────────────────────────────────────────────

// OnDebtComputed implements plugin.OnDebtComputed.
func (m *MetricsExtension) OnDebtComputed(_ context.Context, _ interface{}) error {
	m.DebtComputed.Inc()
	return nil
}
