// Package audithook bridges Tuition lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import
// Chronicle directly. Callers inject a RecorderFunc adapter that bridges
// to Chronicle at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/tuition/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin               = (*Extension)(nil)
	_ plugin.OnStudentCreated     = (*Extension)(nil)
	_ plugin.OnStudentArchived    = (*Extension)(nil)
	_ plugin.OnCourseCreated      = (*Extension)(nil)
	_ plugin.OnCourseUpdated      = (*Extension)(nil)
	_ plugin.OnEnrollmentCreated  = (*Extension)(nil)
	_ plugin.OnLessonsAdded       = (*Extension)(nil)
	_ plugin.OnAttendanceRecorded = (*Extension)(nil)
	_ plugin.OnAttendanceUpdated  = (*Extension)(nil)
	_ plugin.OnPaymentRecorded    = (*Extension)(nil)
	_ plugin.OnBalanceReconciled  = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// This matches chronicle.Emitter but is defined locally so that the
// audit_hook package does not import Chronicle directly — callers inject
// the concrete *chronicle.Chronicle at wiring time.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
// It mirrors chronicle/audit.Event but avoids a module dependency.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Tuition lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Student lifecycle hooks
// ──────────────────────────────────────────────────

// OnStudentCreated implements plugin.OnStudentCreated.
func (e *Extension) OnStudentCreated(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionStudentCreated, SeverityInfo, OutcomeSuccess,
		ResourceStudent, "", CategoryAdmin, nil,
		"event", "student_created",
	)
}

// OnStudentArchived implements plugin.OnStudentArchived.
func (e *Extension) OnStudentArchived(ctx context.Context, studentID string) error {
	return e.record(ctx, ActionStudentArchived, SeverityWarning, OutcomeSuccess,
		ResourceStudent, studentID, CategoryAdmin, nil,
		"student_id", studentID,
	)
}

// ──────────────────────────────────────────────────
// Course lifecycle hooks
// ──────────────────────────────────────────────────

// OnCourseCreated implements plugin.OnCourseCreated.
func (e *Extension) OnCourseCreated(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionCourseCreated, SeverityInfo, OutcomeSuccess,
		ResourceCourse, "", CategoryAdmin, nil,
		"event", "course_created",
	)
}

// OnCourseUpdated implements plugin.OnCourseUpdated.
func (e *Extension) OnCourseUpdated(ctx context.Context, _, _ interface{}) error {
	// A cost or rate change moves future charges, worth keeping on record.
	return e.record(ctx, ActionCourseUpdated, SeverityInfo, OutcomeSuccess,
		ResourceCourse, "", CategoryAdmin, nil,
		"event", "course_updated",
	)
}

// ──────────────────────────────────────────────────
// Enrollment lifecycle hooks
// ──────────────────────────────────────────────────

// OnEnrollmentCreated implements plugin.OnEnrollmentCreated.
func (e *Extension) OnEnrollmentCreated(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionEnrollmentCreated, SeverityInfo, OutcomeSuccess,
		ResourceEnrollment, "", CategoryEnrollment, nil,
		"event", "enrollment_created",
	)
}

// OnLessonsAdded implements plugin.OnLessonsAdded.
func (e *Extension) OnLessonsAdded(ctx context.Context, studentID, courseID string, count int) error {
	return e.record(ctx, ActionLessonsAdded, SeverityInfo, OutcomeSuccess,
		ResourceEnrollment, "", CategoryEnrollment, nil,
		"student_id", studentID,
		"course_id", courseID,
		"count", count,
	)
}

// ──────────────────────────────────────────────────
// Attendance lifecycle hooks
// ──────────────────────────────────────────────────

// OnAttendanceRecorded implements plugin.OnAttendanceRecorded.
func (e *Extension) OnAttendanceRecorded(ctx context.Context, studentID string, _ interface{}) error {
	return e.record(ctx, ActionAttendanceRecorded, SeverityInfo, OutcomeSuccess,
		ResourceAttendance, studentID, CategoryAttendance, nil,
		"student_id", studentID,
	)
}

// OnAttendanceUpdated implements plugin.OnAttendanceUpdated.
func (e *Extension) OnAttendanceUpdated(ctx context.Context, studentID string, _, _ interface{}) error {
	// Corrections move money, so they are always worth an audit entry.
	return e.record(ctx, ActionAttendanceUpdated, SeverityWarning, OutcomeSuccess,
		ResourceAttendance, studentID, CategoryAttendance, nil,
		"student_id", studentID,
	)
}

// ──────────────────────────────────────────────────
// Payment lifecycle hooks
// ──────────────────────────────────────────────────

// OnPaymentRecorded implements plugin.OnPaymentRecorded.
func (e *Extension) OnPaymentRecorded(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionPaymentRecorded, SeverityInfo, OutcomeSuccess,
		ResourcePayment, "", CategoryPayment, nil,
		"event", "payment_recorded",
	)
}

// OnBalanceReconciled implements plugin.OnBalanceReconciled.
func (e *Extension) OnBalanceReconciled(ctx context.Context, studentID string, oldBalance, newBalance int64) error {
	return e.record(ctx, ActionBalanceReconciled, SeverityInfo, OutcomeSuccess,
		ResourceBalance, studentID, CategoryPayment, nil,
		"student_id", studentID,
		"old_balance", oldBalance,
		"new_balance", newBalance,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
