package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"
)

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch
	onInit               []OnInit
	onShutdown           []OnShutdown
	onStudentCreated     []OnStudentCreated
	onStudentArchived    []OnStudentArchived
	onCourseCreated      []OnCourseCreated
	onCourseUpdated      []OnCourseUpdated
	onAttendanceRecorded []OnAttendanceRecorded
	onAttendanceUpdated  []OnAttendanceUpdated
	onEnrollmentCreated  []OnEnrollmentCreated
	onLessonsAdded       []OnLessonsAdded
	onPaymentRecorded    []OnPaymentRecorded
	onBalanceReconciled  []OnBalanceReconciled
	onDebtComputed       []OnDebtComputed
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnStudentCreated); ok {
		r.onStudentCreated = append(r.onStudentCreated, v)
	}
	if v, ok := p.(OnStudentArchived); ok {
		r.onStudentArchived = append(r.onStudentArchived, v)
	}
	if v, ok := p.(OnCourseCreated); ok {
		r.onCourseCreated = append(r.onCourseCreated, v)
	}
	if v, ok := p.(OnCourseUpdated); ok {
		r.onCourseUpdated = append(r.onCourseUpdated, v)
	}
	if v, ok := p.(OnAttendanceRecorded); ok {
		r.onAttendanceRecorded = append(r.onAttendanceRecorded, v)
	}
	if v, ok := p.(OnAttendanceUpdated); ok {
		r.onAttendanceUpdated = append(r.onAttendanceUpdated, v)
	}
	if v, ok := p.(OnEnrollmentCreated); ok {
		r.onEnrollmentCreated = append(r.onEnrollmentCreated, v)
	}
	if v, ok := p.(OnLessonsAdded); ok {
		r.onLessonsAdded = append(r.onLessonsAdded, v)
	}
	if v, ok := p.(OnPaymentRecorded); ok {
		r.onPaymentRecorded = append(r.onPaymentRecorded, v)
	}
	if v, ok := p.(OnBalanceReconciled); ok {
		r.onBalanceReconciled = append(r.onBalanceReconciled, v)
	}
	if v, ok := p.(OnDebtComputed); ok {
		r.onDebtComputed = append(r.onDebtComputed, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", r.getImplementedInterfaces(p),
	)

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the plugin.
func (r *Registry) getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	// Check each interface
	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	// List all interfaces to check
	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnStudentCreated)(nil)).Elem(), "OnStudentCreated")
	checkInterface(reflect.TypeOf((*OnStudentArchived)(nil)).Elem(), "OnStudentArchived")
	checkInterface(reflect.TypeOf((*OnCourseCreated)(nil)).Elem(), "OnCourseCreated")
	checkInterface(reflect.TypeOf((*OnAttendanceRecorded)(nil)).Elem(), "OnAttendanceRecorded")
	checkInterface(reflect.TypeOf((*OnAttendanceUpdated)(nil)).Elem(), "OnAttendanceUpdated")
	checkInterface(reflect.TypeOf((*OnEnrollmentCreated)(nil)).Elem(), "OnEnrollmentCreated")
	checkInterface(reflect.TypeOf((*OnPaymentRecorded)(nil)).Elem(), "OnPaymentRecorded")
	checkInterface(reflect.TypeOf((*OnBalanceReconciled)(nil)).Elem(), "OnBalanceReconciled")
	checkInterface(reflect.TypeOf((*OnDebtComputed)(nil)).Elem(), "OnDebtComputed")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, engine)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitStudentCreated emits a student created event.
func (r *Registry) EmitStudentCreated(ctx context.Context, student interface{}) {
	r.mu.RLock()
	plugins := r.onStudentCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnStudentCreated(ctx, student)
		}); err != nil {
			r.logger.Warn("plugin OnStudentCreated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitStudentArchived emits a student archived event.
func (r *Registry) EmitStudentArchived(ctx context.Context, studentID string) {
	r.mu.RLock()
	plugins := r.onStudentArchived
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnStudentArchived(ctx, studentID)
		}); err != nil {
			r.logger.Warn("plugin OnStudentArchived failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitCourseCreated emits a course created event.
func (r *Registry) EmitCourseCreated(ctx context.Context, course interface{}) {
	r.mu.RLock()
	plugins := r.onCourseCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnCourseCreated(ctx, course)
		}); err != nil {
			r.logger.Warn("plugin OnCourseCreated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitCourseUpdated emits a course updated event.
func (r *Registry) EmitCourseUpdated(ctx context.Context, oldCourse, newCourse interface{}) {
	r.mu.RLock()
	plugins := r.onCourseUpdated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnCourseUpdated(ctx, oldCourse, newCourse)
		}); err != nil {
			r.logger.Warn("plugin OnCourseUpdated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitAttendanceRecorded emits an attendance recorded event.
func (r *Registry) EmitAttendanceRecorded(ctx context.Context, studentID string, record interface{}) {
	r.mu.RLock()
	plugins := r.onAttendanceRecorded
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnAttendanceRecorded(ctx, studentID, record)
		}); err != nil {
			r.logger.Warn("plugin OnAttendanceRecorded failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitAttendanceUpdated emits an attendance updated event.
func (r *Registry) EmitAttendanceUpdated(ctx context.Context, studentID string, oldRecord, newRecord interface{}) {
	r.mu.RLock()
	plugins := r.onAttendanceUpdated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnAttendanceUpdated(ctx, studentID, oldRecord, newRecord)
		}); err != nil {
			r.logger.Warn("plugin OnAttendanceUpdated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitEnrollmentCreated emits an enrollment created event.
func (r *Registry) EmitEnrollmentCreated(ctx context.Context, enrollment interface{}) {
	r.mu.RLock()
	plugins := r.onEnrollmentCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnEnrollmentCreated(ctx, enrollment)
		}); err != nil {
			r.logger.Warn("plugin OnEnrollmentCreated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitLessonsAdded emits a lessons added event.
func (r *Registry) EmitLessonsAdded(ctx context.Context, studentID, courseID string, count int) {
	r.mu.RLock()
	plugins := r.onLessonsAdded
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnLessonsAdded(ctx, studentID, courseID, count)
		}); err != nil {
			r.logger.Warn("plugin OnLessonsAdded failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPaymentRecorded emits a payment recorded event.
func (r *Registry) EmitPaymentRecorded(ctx context.Context, payment interface{}) {
	r.mu.RLock()
	plugins := r.onPaymentRecorded
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPaymentRecorded(ctx, payment)
		}); err != nil {
			r.logger.Warn("plugin OnPaymentRecorded failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitBalanceReconciled emits a balance reconciled event.
func (r *Registry) EmitBalanceReconciled(ctx context.Context, studentID string, oldBalance, newBalance int64) {
	r.mu.RLock()
	plugins := r.onBalanceReconciled
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnBalanceReconciled(ctx, studentID, oldBalance, newBalance)
		}); err != nil {
			r.logger.Warn("plugin OnBalanceReconciled failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitDebtComputed emits a debt computed event.
func (r *Registry) EmitDebtComputed(ctx context.Context, report interface{}) {
	r.mu.RLock()
	plugins := r.onDebtComputed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnDebtComputed(ctx, report)
		}); err != nil {
			r.logger.Warn("plugin OnDebtComputed failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the billing pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
