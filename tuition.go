package tuition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/tuition/attendance"
	"github.com/xraph/tuition/course"
	"github.com/xraph/tuition/debt"
	"github.com/xraph/tuition/enrollment"
	"github.com/xraph/tuition/id"
	"github.com/xraph/tuition/payment"
	"github.com/xraph/tuition/plugin"
	"github.com/xraph/tuition/store"
	"github.com/xraph/tuition/student"
	"github.com/xraph/tuition/types"
)

const (
	// DefaultCurrency is assumed when a student or report does not pin one.
	DefaultCurrency = "kzt"

	// DefaultMaxRetries bounds the optimistic-concurrency retry loop around
	// student aggregate writes.
	DefaultMaxRetries = 3
)

// Engine is the main entry point for the tuition system.
type Engine struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger

	clock      func() time.Time
	maxRetries int
	currency   string

	started bool
}

// Option configures the engine.
type Option func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin during construction.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // duplicate registration is logged
	}
}

// WithClock overrides the time source. Useful in tests: debt reports and
// defaulted dates all flow through it.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// WithMaxRetries sets how often a student write is retried after a version
// conflict before the conflict is returned to the caller.
func WithMaxRetries(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxRetries = n
		}
	}
}

// WithCurrency sets the currency used for new students and cross-student
// reports.
func WithCurrency(currency string) Option {
	return func(e *Engine) {
		if currency != "" {
			e.currency = currency
		}
	}
}

// New creates a tuition engine with the given store.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:      s,
		plugins:    plugin.NewRegistry(),
		logger:     slog.Default(),
		clock:      time.Now,
		maxRetries: DefaultMaxRetries,
		currency:   DefaultCurrency,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start runs migrations and initializes plugins.
func (e *Engine) Start(ctx context.Context) error {
	if e.started {
		return nil
	}
	if err := e.store.Migrate(ctx); err != nil {
		return fmt.Errorf("tuition: migrate: %w", err)
	}
	e.plugins.EmitInit(ctx, e)
	e.started = true
	e.logger.Info("tuition engine started",
		slog.String("currency", e.currency),
		slog.Int("plugins", e.plugins.Count()))
	return nil
}

// Stop shuts down plugins and closes the store.
func (e *Engine) Stop() error {
	if !e.started {
		return nil
	}
	e.started = false
	e.plugins.EmitShutdown(context.Background())
	if err := e.store.Close(); err != nil {
		return fmt.Errorf("tuition: close store: %w", err)
	}
	e.logger.Info("tuition engine stopped")
	return nil
}

// Plugins returns the plugin registry.
func (e *Engine) Plugins() *plugin.Registry {
	return e.plugins
}

// ──────────────────────────────────────────────────
// Students
// ──────────────────────────────────────────────────

// CreateStudent registers a new student. The ID is assigned when empty and
// the balance starts at zero in the engine currency.
func (e *Engine) CreateStudent(ctx context.Context, st *student.Student) error {
	if st == nil {
		return fmt.Errorf("%w: student is nil", ErrInvalidInput)
	}
	if st.Name == "" {
		return ValidationError{Field: "name", Message: "must not be empty"}
	}
	if st.Surname == "" {
		return ValidationError{Field: "surname", Message: "must not be empty"}
	}

	if st.ID.IsNil() {
		st.ID = id.NewStudentID()
	}
	if st.StartingDate.IsZero() {
		st.StartingDate = e.clock()
	}
	if st.Balance.Currency == "" {
		st.Balance = types.Zero(e.currency)
	}
	st.Entity = types.NewEntity()
	st.Version = 0

	if err := e.store.CreateStudent(ctx, st); err != nil {
		return fmt.Errorf("create student: %w", err)
	}

	e.logger.Info("student created",
		slog.String("student_id", st.ID.String()),
		slog.String("name", st.FullName()))
	e.plugins.EmitStudentCreated(ctx, st)
	return nil
}

// GetStudent retrieves a student by ID, archived or not.
func (e *Engine) GetStudent(ctx context.Context, studentID id.StudentID) (*student.Student, error) {
	return e.store.GetStudent(ctx, studentID)
}

// ListStudents lists students according to the archive filter in opts.
func (e *Engine) ListStudents(ctx context.Context, opts student.ListOpts) ([]*student.Student, error) {
	return e.store.ListStudents(ctx, opts)
}

// ArchiveStudent soft-deletes a student. The record, its attendance and its
// payment history all remain readable; only mutations are barred. Archiving
// an already archived student is a no-op.
func (e *Engine) ArchiveStudent(ctx context.Context, studentID id.StudentID) error {
	st, err := e.store.GetStudent(ctx, studentID)
	if err != nil {
		return err
	}
	if st.Archived {
		return nil
	}
	if err := e.store.ArchiveStudent(ctx, studentID); err != nil {
		return fmt.Errorf("archive student: %w", err)
	}

	e.logger.Info("student archived", slog.String("student_id", studentID.String()))
	e.plugins.EmitStudentArchived(ctx, studentID.String())
	return nil
}

// ──────────────────────────────────────────────────
// Courses
// ──────────────────────────────────────────────────

// CreateCourse registers a new course after validating its rate, cost and
// schedule.
func (e *Engine) CreateCourse(ctx context.Context, c *course.Course) error {
	if err := validateCourse(c); err != nil {
		return err
	}
	if c.ID.IsNil() {
		c.ID = id.NewCourseID()
	}
	c.Entity = types.NewEntity()

	if err := e.store.CreateCourse(ctx, c); err != nil {
		return fmt.Errorf("create course: %w", err)
	}

	e.logger.Info("course created",
		slog.String("course_id", c.ID.String()),
		slog.String("name", c.Name),
		slog.String("cost", c.Cost.String()),
		slog.Int("lesson_per_month", c.LessonPerMonth))
	e.plugins.EmitCourseCreated(ctx, c)
	return nil
}

// GetCourse retrieves a course by ID.
func (e *Engine) GetCourse(ctx context.Context, courseID id.CourseID) (*course.Course, error) {
	return e.store.GetCourse(ctx, courseID)
}

// ListCourses lists courses.
func (e *Engine) ListCourses(ctx context.Context, opts course.ListOpts) ([]*course.Course, error) {
	return e.store.ListCourses(ctx, opts)
}

// UpdateCourse replaces a course's mutable fields. A cost or rate change
// takes effect on the next charge or reversal; charges already applied are
// not recomputed.
func (e *Engine) UpdateCourse(ctx context.Context, c *course.Course) error {
	if err := validateCourse(c); err != nil {
		return err
	}
	old, err := e.store.GetCourse(ctx, c.ID)
	if err != nil {
		return err
	}
	c.Entity = old.Entity
	c.Touch()

	if err := e.store.UpdateCourse(ctx, c); err != nil {
		return fmt.Errorf("update course: %w", err)
	}

	e.logger.Info("course updated", slog.String("course_id", c.ID.String()))
	e.plugins.EmitCourseUpdated(ctx, old, c)
	return nil
}

// DeleteCourse removes a course. Courses with enrollments cannot be
// deleted.
func (e *Engine) DeleteCourse(ctx context.Context, courseID id.CourseID) error {
	if err := e.store.DeleteCourse(ctx, courseID); err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	e.logger.Info("course deleted", slog.String("course_id", courseID.String()))
	return nil
}

func validateCourse(c *course.Course) error {
	if c == nil {
		return fmt.Errorf("%w: course is nil", ErrInvalidInput)
	}
	if c.Name == "" {
		return ValidationError{Field: "name", Message: "must not be empty"}
	}
	if c.LessonPerMonth <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidLessonRate, c.LessonPerMonth)
	}
	if !c.Cost.IsPositive() {
		return fmt.Errorf("%w: got %s", ErrInvalidCost, c.Cost)
	}
	for _, day := range c.WeekDays {
		valid := false
		for _, d := range course.ValidWeekDays {
			if d == day {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("%w: %q", ErrInvalidWeekDay, day)
		}
	}
	return nil
}

// ──────────────────────────────────────────────────
// Enrollments
// ──────────────────────────────────────────────────

// EnrollCourse enrolls a student in a course as of the given date. The
// date anchors monthly billing; when zero, now is used. A student can be
// enrolled in a course at most once, and only in courses billed in the
// student's balance currency.
func (e *Engine) EnrollCourse(ctx context.Context, studentID id.StudentID, courseID id.CourseID, date time.Time) (*enrollment.Enrollment, error) {
	st, err := e.store.GetStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if st.Archived {
		return nil, fmt.Errorf("enroll: %w", ErrStudentArchived)
	}
	c, err := e.store.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if st.Balance.Currency != c.Cost.Currency {
		return nil, fmt.Errorf("enroll: balance is %s, course bills %s: %w",
			st.Balance.Currency, c.Cost.Currency, ErrCurrencyMismatch)
	}
	if date.IsZero() {
		date = e.clock()
	}

	enr := &enrollment.Enrollment{
		ID:             id.NewEnrollmentID(),
		StudentID:      studentID,
		CourseID:       courseID,
		EnrollmentDate: date.UTC(),
	}
	enr.Entity = types.NewEntity()

	if err := e.store.CreateEnrollment(ctx, enr); err != nil {
		return nil, fmt.Errorf("enroll: %w", err)
	}

	e.logger.Info("student enrolled",
		slog.String("student_id", studentID.String()),
		slog.String("course_id", courseID.String()),
		slog.Time("enrollment_date", enr.EnrollmentDate))
	e.plugins.EmitEnrollmentCreated(ctx, enr)
	return enr, nil
}

// GetEnrollment retrieves the enrollment of a student in a course.
func (e *Engine) GetEnrollment(ctx context.Context, studentID id.StudentID, courseID id.CourseID) (*enrollment.Enrollment, error) {
	return e.store.GetEnrollment(ctx, studentID, courseID)
}

// ListEnrollments lists a student's enrollments.
func (e *Engine) ListEnrollments(ctx context.Context, studentID id.StudentID) ([]*enrollment.Enrollment, error) {
	return e.store.ListEnrollmentsByStudent(ctx, studentID)
}

// AddLessonsAttended bumps the course-scoped lessons counter on an
// enrollment and returns the updated enrollment. The counter feeds
// reports only; it never touches the student's balance or billed-lesson
// count, which belong to attendance reconciliation. A zero count is a
// no-op.
func (e *Engine) AddLessonsAttended(ctx context.Context, studentID id.StudentID, courseID id.CourseID, count int) (*enrollment.Enrollment, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLessonCount, count)
	}
	st, err := e.store.GetStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if st.Archived {
		return nil, fmt.Errorf("add lessons: %w", ErrStudentArchived)
	}

	enr, err := e.store.GetEnrollment(ctx, studentID, courseID)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return enr, nil
	}
	enr.LessonsAttended += count
	enr.Touch()
	if err := e.store.UpdateEnrollment(ctx, enr); err != nil {
		return nil, fmt.Errorf("add lessons: %w", err)
	}

	e.plugins.EmitLessonsAdded(ctx, studentID.String(), courseID.String(), count)
	return enr, nil
}

// ──────────────────────────────────────────────────
// Attendance
// ──────────────────────────────────────────────────

// RecordAttendance records attendance for a student on a course day and
// applies its financial effect: a charged record deducts one lesson cost
// from the balance, and a charged presence counts one billed lesson.
//
// Records are keyed by (course, day). Recording a day that already has a
// record reverses the old record's effect and applies the new one, so
// re-recording the same values is idempotent and re-recording different
// values never double-charges.
func (e *Engine) RecordAttendance(ctx context.Context, studentID id.StudentID, rec attendance.Record) (*attendance.Record, error) {
	if rec.CourseID.IsNil() {
		return nil, fmt.Errorf("%w: course id is required", ErrInvalidInput)
	}
	if rec.Date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", ErrInvalidDate)
	}
	c, err := e.store.GetCourse(ctx, rec.CourseID)
	if err != nil {
		return nil, err
	}
	if _, err := e.store.GetEnrollment(ctx, studentID, rec.CourseID); err != nil {
		return nil, err
	}

	rec.Date = attendance.Day(rec.Date)
	lessonCost := c.LessonCost()

	var (
		oldBalance, newBalance int64
		lessonsDelta           int
	)
	_, err = e.updateStudent(ctx, studentID, func(st *student.Student) error {
		if st.Archived {
			return fmt.Errorf("record attendance: %w", ErrStudentArchived)
		}
		if st.Balance.Currency != lessonCost.Currency {
			return fmt.Errorf("record attendance: balance is %s, course bills %s: %w",
				st.Balance.Currency, lessonCost.Currency, ErrCurrencyMismatch)
		}

		oldBalance = st.Balance.Amount
		lessonsDelta = 0
		if i := st.FindAttendance(rec.CourseID, rec.Date); i >= 0 {
			prevLessons, prevMoney := attendance.Effect(st.Attendance[i], lessonCost)
			st.NumLesson -= prevLessons
			st.Balance = st.Balance.Subtract(prevMoney)
			lessonsDelta -= prevLessons
		}
		lessons, money := attendance.Effect(rec, lessonCost)
		st.NumLesson += lessons
		st.Balance = st.Balance.Add(money)
		lessonsDelta += lessons
		newBalance = st.Balance.Amount

		st.SetAttendance(rec)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if lessonsDelta != 0 {
		e.bumpLessonsAttended(ctx, studentID, rec.CourseID, lessonsDelta)
	}

	e.logger.Info("attendance recorded",
		slog.String("student_id", studentID.String()),
		slog.String("course_id", rec.CourseID.String()),
		slog.String("date", attendance.DateKey(rec.Date)),
		slog.Bool("is_absent", rec.IsAbsent),
		slog.Bool("charge_money", rec.ChargeMoney))
	e.plugins.EmitAttendanceRecorded(ctx, studentID.String(), rec)
	if oldBalance != newBalance {
		e.plugins.EmitBalanceReconciled(ctx, studentID.String(), oldBalance, newBalance)
	}
	return &rec, nil
}

// UpdateAttendance changes an existing record in place: the old record's
// effect is reversed, the change is overlaid, and the merged record's
// effect is applied, all inside one conditional aggregate write. Charge
// and refund derive from the same lesson cost, so the cycle is exact even
// after a course price change.
func (e *Engine) UpdateAttendance(ctx context.Context, studentID id.StudentID, courseID id.CourseID, date time.Time, change attendance.Change) (*attendance.Record, error) {
	if change.IsZero() {
		return nil, fmt.Errorf("%w: change carries no fields", ErrInvalidInput)
	}
	c, err := e.store.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	lessonCost := c.LessonCost()

	var (
		oldRec, newRec         attendance.Record
		oldBalance, newBalance int64
		lessonsDelta           int
	)
	_, err = e.updateStudent(ctx, studentID, func(st *student.Student) error {
		if st.Archived {
			return fmt.Errorf("update attendance: %w", ErrStudentArchived)
		}
		i := st.FindAttendance(courseID, date)
		if i < 0 {
			return fmt.Errorf("%w: %s on %s", ErrAttendanceNotFound,
				courseID, attendance.DateKey(date))
		}

		oldRec = st.Attendance[i]
		newRec = attendance.Merge(oldRec, change)

		oldLessons, oldMoney := attendance.Effect(oldRec, lessonCost)
		newLessons, newMoney := attendance.Effect(newRec, lessonCost)

		oldBalance = st.Balance.Amount
		st.NumLesson += newLessons - oldLessons
		st.Balance = st.Balance.Subtract(oldMoney).Add(newMoney)
		newBalance = st.Balance.Amount
		lessonsDelta = newLessons - oldLessons

		st.SetAttendance(newRec)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if lessonsDelta != 0 {
		e.bumpLessonsAttended(ctx, studentID, courseID, lessonsDelta)
	}

	e.logger.Info("attendance updated",
		slog.String("student_id", studentID.String()),
		slog.String("course_id", courseID.String()),
		slog.String("date", attendance.DateKey(date)))
	e.plugins.EmitAttendanceUpdated(ctx, studentID.String(), oldRec, newRec)
	if oldBalance != newBalance {
		e.plugins.EmitBalanceReconciled(ctx, studentID.String(), oldBalance, newBalance)
	}
	return &newRec, nil
}

// AttendanceHistory returns a student's attendance records. A nil courseID
// returns the full history across courses.
func (e *Engine) AttendanceHistory(ctx context.Context, studentID id.StudentID, courseID id.CourseID) ([]attendance.Record, error) {
	st, err := e.store.GetStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if courseID.IsNil() {
		return st.Attendance, nil
	}
	return st.AttendanceForCourse(courseID), nil
}

// bumpLessonsAttended keeps the enrollment's reporting counter in step
// with the billed-lesson delta. Best effort: the counter never feeds
// billing, so a failure is logged, not surfaced.
func (e *Engine) bumpLessonsAttended(ctx context.Context, studentID id.StudentID, courseID id.CourseID, delta int) {
	enr, err := e.store.GetEnrollment(ctx, studentID, courseID)
	if err == nil {
		enr.LessonsAttended += delta
		if enr.LessonsAttended < 0 {
			enr.LessonsAttended = 0
		}
		enr.Touch()
		err = e.store.UpdateEnrollment(ctx, enr)
	}
	if err != nil {
		e.logger.Warn("failed to update lessons-attended counter",
			slog.String("student_id", studentID.String()),
			slog.String("course_id", courseID.String()),
			slog.Int("delta", delta),
			slog.String("error", err.Error()))
	}
}

// ──────────────────────────────────────────────────
// Payments
// ──────────────────────────────────────────────────

// RecordPayment appends a payment for an enrolled student and credits the
// full amount to the balance. On success it returns the payment together
// with a fresh debt report. A non-nil payment alongside a non-nil error
// means the payment landed but the report read failed; callers should not
// retry the payment.
//
// The payment ledger is append-only. If the ledger write fails after the
// balance credit, the credit is rolled back so the two stay in step.
func (e *Engine) RecordPayment(ctx context.Context, studentID id.StudentID, courseID id.CourseID, amount types.Money, date time.Time, description string) (*payment.Payment, *debt.Report, error) {
	if !amount.IsPositive() {
		return nil, nil, fmt.Errorf("%w: got %s", ErrInvalidAmount, amount)
	}
	if _, err := e.store.GetCourse(ctx, courseID); err != nil {
		return nil, nil, err
	}
	if _, err := e.store.GetEnrollment(ctx, studentID, courseID); err != nil {
		return nil, nil, err
	}
	if date.IsZero() {
		date = e.clock()
	}

	var oldBalance, newBalance int64
	st, err := e.updateStudent(ctx, studentID, func(st *student.Student) error {
		if st.Archived {
			return fmt.Errorf("record payment: %w", ErrStudentArchived)
		}
		if st.Balance.Currency != amount.Currency {
			return fmt.Errorf("record payment: balance is %s, payment is %s: %w",
				st.Balance.Currency, amount.Currency, ErrCurrencyMismatch)
		}
		oldBalance = st.Balance.Amount
		st.Balance = st.Balance.Add(amount)
		newBalance = st.Balance.Amount
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	p := &payment.Payment{
		ID:          id.NewPaymentID(),
		StudentID:   studentID,
		CourseID:    courseID,
		Amount:      amount,
		Date:        date.UTC(),
		Description: description,
	}
	p.Entity = types.NewEntity()

	if err := e.store.CreatePayment(ctx, p); err != nil {
		// Roll the credit back; the balance must not drift from the ledger.
		if _, rbErr := e.updateStudent(ctx, studentID, func(st *student.Student) error {
			st.Balance = st.Balance.Subtract(amount)
			return nil
		}); rbErr != nil {
			e.logger.Error("payment rollback failed, balance out of step with ledger",
				slog.String("student_id", studentID.String()),
				slog.String("amount", amount.String()),
				slog.String("error", rbErr.Error()))
		}
		return nil, nil, fmt.Errorf("record payment: %w", err)
	}

	e.logger.Info("payment recorded",
		slog.String("payment_id", p.ID.String()),
		slog.String("student_id", studentID.String()),
		slog.String("course_id", courseID.String()),
		slog.String("amount", amount.String()))
	e.plugins.EmitPaymentRecorded(ctx, p)
	e.plugins.EmitBalanceReconciled(ctx, studentID.String(), oldBalance, newBalance)

	rep, repErr := e.debtReport(ctx, st)
	if repErr != nil {
		e.logger.Warn("debt report after payment failed",
			slog.String("student_id", studentID.String()),
			slog.String("error", repErr.Error()))
		return p, nil, fmt.Errorf("payment recorded, debt report failed: %w", repErr)
	}
	e.plugins.EmitDebtComputed(ctx, rep)
	return p, rep, nil
}

// GetPayment retrieves a payment by ID.
func (e *Engine) GetPayment(ctx context.Context, paymentID id.PaymentID) (*payment.Payment, error) {
	return e.store.GetPayment(ctx, paymentID)
}

// ListPayments lists a student's payments, newest first.
func (e *Engine) ListPayments(ctx context.Context, studentID id.StudentID, opts payment.ListOpts) ([]*payment.Payment, error) {
	return e.store.ListPaymentsByStudent(ctx, studentID, opts)
}

// ──────────────────────────────────────────────────
// Reports
// ──────────────────────────────────────────────────

// MonthlyDebt computes the debt report for one student: per-course owed
// amounts from the whole-month floor, against the sum of all recorded
// payments. The report reads the payment ledger directly and is
// independent of the running balance.
func (e *Engine) MonthlyDebt(ctx context.Context, studentID id.StudentID) (*debt.Report, error) {
	st, err := e.store.GetStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	rep, err := e.debtReport(ctx, st)
	if err != nil {
		return nil, err
	}
	e.plugins.EmitDebtComputed(ctx, rep)
	return rep, nil
}

// MonthlySummary computes the debt position of every active student.
// Students whose balance currency differs from the engine's are excluded;
// their debt is only meaningful through per-student reports.
func (e *Engine) MonthlySummary(ctx context.Context) (*debt.Summary, error) {
	students, err := e.store.ListStudents(ctx, student.ListOpts{})
	if err != nil {
		return nil, err
	}

	reports := make([]*debt.Report, 0, len(students))
	for _, st := range students {
		if st.Balance.Currency != "" && st.Balance.Currency != e.currency {
			e.logger.Debug("student excluded from summary",
				slog.String("student_id", st.ID.String()),
				slog.String("currency", st.Balance.Currency),
				slog.String("summary_currency", e.currency))
			continue
		}
		rep, err := e.debtReport(ctx, st)
		if err != nil {
			return nil, fmt.Errorf("monthly summary: student %s: %w", st.ID, err)
		}
		reports = append(reports, rep)
	}
	return debt.Summarize(reports, e.currency)
}

// CourseDebts computes the debt position of every student enrolled in one
// course, counting only payments made for that course.
func (e *Engine) CourseDebts(ctx context.Context, courseID id.CourseID) (*debt.CourseReport, error) {
	c, err := e.store.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	enrs, err := e.store.ListEnrollmentsByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	students := make(map[string]*student.Student, len(enrs))
	paid := make(map[string]types.Money, len(enrs))
	for _, enr := range enrs {
		key := enr.StudentID.String()
		if _, ok := students[key]; ok {
			continue
		}
		st, err := e.store.GetStudent(ctx, enr.StudentID)
		if err != nil {
			return nil, fmt.Errorf("course debts: %w", err)
		}
		total, err := e.store.SumPaymentsByStudentForCourse(ctx, enr.StudentID, courseID, c.Cost.Currency)
		if err != nil {
			return nil, fmt.Errorf("course debts: %w", err)
		}
		students[key] = st
		paid[key] = total
	}

	return debt.CalculateForCourse(debt.CourseInputs{
		Course:        c,
		Enrollments:   enrs,
		Students:      students,
		PaidByStudent: paid,
		Today:         e.clock(),
	})
}

// MonthlyPaymentTotals returns the payment totals for every month of a
// year in the engine currency.
func (e *Engine) MonthlyPaymentTotals(ctx context.Context, year int) (map[time.Month]types.Money, error) {
	return e.store.SumPaymentsByMonth(ctx, year, e.currency)
}

// PaymentTotalsByCourse returns all-time payment totals keyed by course ID
// in the engine currency.
func (e *Engine) PaymentTotalsByCourse(ctx context.Context) (map[string]types.Money, error) {
	return e.store.PaymentTotalsByCourse(ctx, e.currency)
}

// Stats is a point-in-time snapshot of the center.
type Stats struct {
	ActiveStudents    int         `json:"active_students"`
	ArchivedStudents  int         `json:"archived_students"`
	Courses           int         `json:"courses"`
	StudentsWithDebt  int         `json:"students_with_debt"`
	TotalDebt         types.Money `json:"total_debt"`
	TotalBalance      types.Money `json:"total_balance"`       // sum of active student balances
	MonthPaymentTotal types.Money `json:"month_payment_total"` // payments received this calendar month
}

// Statistics computes headline counts, the total outstanding debt and the
// current month's payment volume across active students.
func (e *Engine) Statistics(ctx context.Context) (*Stats, error) {
	students, err := e.store.ListStudents(ctx, student.ListOpts{})
	if err != nil {
		return nil, err
	}
	archived, err := e.store.CountStudents(ctx, student.ListOpts{ArchivedOnly: true})
	if err != nil {
		return nil, err
	}
	courses, err := e.store.ListCourses(ctx, course.ListOpts{})
	if err != nil {
		return nil, err
	}
	summary, err := e.MonthlySummary(ctx)
	if err != nil {
		return nil, err
	}

	now := e.clock()
	monthTotal, err := e.store.SumPaymentsInMonth(ctx, now.Year(), now.Month(), e.currency)
	if err != nil {
		return nil, err
	}

	totalBalance := types.Zero(e.currency)
	for _, st := range students {
		if st.Balance.Currency != totalBalance.Currency {
			e.logger.Debug("balance excluded from statistics total",
				slog.String("student_id", st.ID.String()),
				slog.String("currency", st.Balance.Currency),
				slog.String("statistics_currency", totalBalance.Currency))
			continue
		}
		totalBalance = totalBalance.Add(st.Balance)
	}

	return &Stats{
		ActiveStudents:    len(students),
		ArchivedStudents:  archived,
		Courses:           len(courses),
		StudentsWithDebt:  summary.StudentsWithDebt,
		TotalDebt:         summary.TotalDebt,
		TotalBalance:      totalBalance,
		MonthPaymentTotal: monthTotal,
	}, nil
}

func (e *Engine) debtReport(ctx context.Context, st *student.Student) (*debt.Report, error) {
	currency := st.Balance.Currency
	if currency == "" {
		currency = e.currency
	}

	enrs, err := e.store.ListEnrollmentsByStudent(ctx, st.ID)
	if err != nil {
		return nil, err
	}
	courses := make(map[string]*course.Course, len(enrs))
	for _, enr := range enrs {
		key := enr.CourseID.String()
		if _, ok := courses[key]; ok {
			continue
		}
		c, err := e.store.GetCourse(ctx, enr.CourseID)
		if err != nil {
			return nil, err
		}
		courses[key] = c
	}
	totalPaid, err := e.store.SumPaymentsByStudent(ctx, st.ID, currency)
	if err != nil {
		return nil, err
	}

	return debt.Calculate(debt.Inputs{
		Student:     st,
		Enrollments: enrs,
		Courses:     courses,
		TotalPaid:   totalPaid,
		Today:       e.clock(),
	})
}

// ──────────────────────────────────────────────────
// Aggregate writes
// ──────────────────────────────────────────────────

// updateStudent runs a read-mutate-write cycle on the student aggregate.
// The write is conditional on the version read; on a conflict the cycle
// restarts from a fresh read, up to maxRetries times. The mutate function
// must be a pure function of the aggregate it receives.
func (e *Engine) updateStudent(ctx context.Context, studentID id.StudentID, mutate func(*student.Student) error) (*student.Student, error) {
	var lastErr error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		st, err := e.store.GetStudent(ctx, studentID)
		if err != nil {
			return nil, err
		}
		if err := mutate(st); err != nil {
			return nil, err
		}
		if err := e.store.SaveStudent(ctx, st); err != nil {
			if errors.Is(err, ErrVersionConflict) {
				lastErr = err
				e.logger.Debug("student write conflicted, retrying",
					slog.String("student_id", studentID.String()),
					slog.Int("attempt", attempt+1))
				continue
			}
			return nil, fmt.Errorf("save student: %w", err)
		}
		return st, nil
	}
	return nil, fmt.Errorf("save student after %d attempts: %w", e.maxRetries+1, lastErr)
}
