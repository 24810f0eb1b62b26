package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/tuition"
	"github.com/xraph/tuition/course"
	"github.com/xraph/tuition/enrollment"
	"github.com/xraph/tuition/id"
	"github.com/xraph/tuition/payment"
	"github.com/xraph/tuition/student"
	tuitionstore "github.com/xraph/tuition/store"
	"github.com/xraph/tuition/types"
)

// compile-time interface check
var _ tuitionstore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("tuition/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("tuition/postgres: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Student Store ====================

func (s *Store) CreateStudent(ctx context.Context, st *student.Student) error {
	m := toStudentModel(st)
	_, err := s.pg.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) GetStudent(ctx context.Context, studentID id.StudentID) (*student.Student, error) {
	m := new(studentModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", studentID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, tuition.ErrStudentNotFound
		}
		return nil, err
	}
	return fromStudentModel(m)
}

func (s *Store) ListStudents(ctx context.Context, opts student.ListOpts) ([]*student.Student, error) {
	var models []studentModel
	q := s.pg.NewSelect(&models)

	if opts.ArchivedOnly {
		q = q.Where("is_archived = $1", true)
	} else if !opts.IncludeArchived {
		q = q.Where("is_archived = $1", false)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*student.Student, len(models))
	for i := range models {
		st, err := fromStudentModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = st
	}
	return result, nil
}

// SaveStudent writes the whole aggregate in one conditional UPDATE guarded
// by the version column. Zero rows affected means either the student is
// gone or another writer bumped the version first.
func (s *Store) SaveStudent(ctx context.Context, st *student.Student) error {
	m := toStudentModel(st)
	t := now()

	res, err := s.pg.NewUpdate((*studentModel)(nil)).
		Set("name = $1", m.Name).
		Set("surname = $2", m.Surname).
		Set("second_name = $3", m.SecondName).
		Set("starting_date = $4", m.StartingDate).
		Set("num_lesson = $5", m.NumLesson).
		Set("balance_amount = $6", m.BalanceAmount).
		Set("balance_currency = $7", m.BalanceCurrency).
		Set("attendance = $8", m.Attendance).
		Set("is_archived = $9", m.IsArchived).
		Set("version = version + 1").
		Set("updated_at = $10", t).
		Where("id = $11", m.ID).
		Where("version = $12", st.Version).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		if _, getErr := s.GetStudent(ctx, st.ID); getErr != nil {
			return getErr
		}
		return tuition.ErrVersionConflict
	}

	st.Version++
	st.UpdatedAt = t
	return nil
}

func (s *Store) ArchiveStudent(ctx context.Context, studentID id.StudentID) error {
	t := now()
	res, err := s.pg.NewUpdate((*studentModel)(nil)).
		Set("is_archived = $1", true).
		Set("version = version + 1").
		Set("updated_at = $2", t).
		Where("id = $3", studentID.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return tuition.ErrStudentNotFound
	}
	return nil
}

func (s *Store) CountStudents(ctx context.Context, opts student.ListOpts) (int, error) {
	query := `SELECT COUNT(*) FROM tuition_students`
	var count int
	var err error
	switch {
	case opts.ArchivedOnly:
		err = s.pg.NewRaw(query+` WHERE is_archived = $1`, true).Scan(ctx, &count)
	case opts.IncludeArchived:
		err = s.pg.NewRaw(query).Scan(ctx, &count)
	default:
		err = s.pg.NewRaw(query+` WHERE is_archived = $1`, false).Scan(ctx, &count)
	}
	if err != nil {
		return 0, err
	}
	return count, nil
}

// ==================== Course Store ====================

func (s *Store) CreateCourse(ctx context.Context, c *course.Course) error {
	m := toCourseModel(c)
	_, err := s.pg.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) GetCourse(ctx context.Context, courseID id.CourseID) (*course.Course, error) {
	m := new(courseModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", courseID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, tuition.ErrCourseNotFound
		}
		return nil, err
	}
	return fromCourseModel(m)
}

func (s *Store) ListCourses(ctx context.Context, opts course.ListOpts) ([]*course.Course, error) {
	var models []courseModel
	q := s.pg.NewSelect(&models)

	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("name ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*course.Course, len(models))
	for i := range models {
		c, err := fromCourseModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = c
	}
	return result, nil
}

func (s *Store) UpdateCourse(ctx context.Context, c *course.Course) error {
	m := toCourseModel(c)
	m.UpdatedAt = now()
	res, err := s.pg.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return tuition.ErrCourseNotFound
	}
	return nil
}

func (s *Store) DeleteCourse(ctx context.Context, courseID id.CourseID) error {
	var enrolled int
	err := s.pg.NewRaw(`SELECT COUNT(*) FROM tuition_enrollments WHERE course_id = $1`,
		courseID.String()).Scan(ctx, &enrolled)
	if err != nil {
		return err
	}
	if enrolled > 0 {
		return tuition.ErrCourseInUse
	}

	res, err := s.pg.NewDelete((*courseModel)(nil)).
		Where("id = $1", courseID.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return tuition.ErrCourseNotFound
	}
	return nil
}

// ==================== Enrollment Store ====================

func (s *Store) CreateEnrollment(ctx context.Context, e *enrollment.Enrollment) error {
	m := toEnrollmentModel(e)
	res, err := s.pg.NewInsert(m).
		OnConflict("(student_id, course_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return tuition.ErrAlreadyEnrolled
	}
	return nil
}

func (s *Store) GetEnrollment(ctx context.Context, studentID id.StudentID, courseID id.CourseID) (*enrollment.Enrollment, error) {
	m := new(enrollmentModel)
	err := s.pg.NewSelect(m).
		Where("student_id = $1", studentID.String()).
		Where("course_id = $2", courseID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, tuition.ErrEnrollmentNotFound
		}
		return nil, err
	}
	return fromEnrollmentModel(m)
}

func (s *Store) ListEnrollmentsByStudent(ctx context.Context, studentID id.StudentID) ([]*enrollment.Enrollment, error) {
	return s.listEnrollments(ctx, "student_id", studentID.String())
}

func (s *Store) ListEnrollmentsByCourse(ctx context.Context, courseID id.CourseID) ([]*enrollment.Enrollment, error) {
	return s.listEnrollments(ctx, "course_id", courseID.String())
}

func (s *Store) listEnrollments(ctx context.Context, column, value string) ([]*enrollment.Enrollment, error) {
	var models []enrollmentModel
	err := s.pg.NewSelect(&models).
		Where(column+" = $1", value).
		OrderExpr("enrollment_date ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*enrollment.Enrollment, len(models))
	for i := range models {
		e, err := fromEnrollmentModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = e
	}
	return result, nil
}

func (s *Store) UpdateEnrollment(ctx context.Context, e *enrollment.Enrollment) error {
	m := toEnrollmentModel(e)
	m.UpdatedAt = now()
	res, err := s.pg.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return tuition.ErrEnrollmentNotFound
	}
	return nil
}

// ==================== Payment Store ====================

func (s *Store) CreatePayment(ctx context.Context, p *payment.Payment) error {
	m := toPaymentModel(p)
	_, err := s.pg.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) GetPayment(ctx context.Context, paymentID id.PaymentID) (*payment.Payment, error) {
	m := new(paymentModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", paymentID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, tuition.ErrPaymentNotFound
		}
		return nil, err
	}
	return fromPaymentModel(m)
}

func (s *Store) ListPaymentsByStudent(ctx context.Context, studentID id.StudentID, opts payment.ListOpts) ([]*payment.Payment, error) {
	return s.listPayments(ctx, "student_id", studentID.String(), opts)
}

func (s *Store) ListPaymentsByCourse(ctx context.Context, courseID id.CourseID, opts payment.ListOpts) ([]*payment.Payment, error) {
	return s.listPayments(ctx, "course_id", courseID.String(), opts)
}

func (s *Store) listPayments(ctx context.Context, column, value string, opts payment.ListOpts) ([]*payment.Payment, error) {
	var models []paymentModel
	q := s.pg.NewSelect(&models).Where(column+" = $1", value)

	argIdx := 1
	if !opts.Start.IsZero() {
		argIdx++
		q = q.Where(fmt.Sprintf("date >= $%d", argIdx), opts.Start)
	}
	if !opts.End.IsZero() {
		argIdx++
		q = q.Where(fmt.Sprintf("date <= $%d", argIdx), opts.End)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("date ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*payment.Payment, len(models))
	for i := range models {
		p, err := fromPaymentModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = p
	}
	return result, nil
}

func (s *Store) SumPaymentsByStudent(ctx context.Context, studentID id.StudentID, currency string) (types.Money, error) {
	var total int64
	err := s.pg.NewRaw(`
		SELECT COALESCE(SUM(amount_cents), 0) FROM tuition_payments
		WHERE student_id = $1 AND amount_currency = $2
	`, studentID.String(), currency).Scan(ctx, &total)
	if err != nil {
		return types.Money{}, err
	}
	return types.Money{Amount: total, Currency: currency}, nil
}

func (s *Store) SumPaymentsByStudentForCourse(ctx context.Context, studentID id.StudentID, courseID id.CourseID, currency string) (types.Money, error) {
	var total int64
	err := s.pg.NewRaw(`
		SELECT COALESCE(SUM(amount_cents), 0) FROM tuition_payments
		WHERE student_id = $1 AND course_id = $2 AND amount_currency = $3
	`, studentID.String(), courseID.String(), currency).Scan(ctx, &total)
	if err != nil {
		return types.Money{}, err
	}
	return types.Money{Amount: total, Currency: currency}, nil
}

func (s *Store) SumPaymentsInMonth(ctx context.Context, year int, month time.Month, currency string) (types.Money, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	var total int64
	err := s.pg.NewRaw(`
		SELECT COALESCE(SUM(amount_cents), 0) FROM tuition_payments
		WHERE date >= $1 AND date < $2 AND amount_currency = $3
	`, start, end, currency).Scan(ctx, &total)
	if err != nil {
		return types.Money{}, err
	}
	return types.Money{Amount: total, Currency: currency}, nil
}

func (s *Store) SumPaymentsByMonth(ctx context.Context, year int, currency string) (map[time.Month]types.Money, error) {
	totals := make(map[time.Month]types.Money, 12)
	for m := time.January; m <= time.December; m++ {
		total, err := s.SumPaymentsInMonth(ctx, year, m, currency)
		if err != nil {
			return nil, err
		}
		totals[m] = total
	}
	return totals, nil
}

func (s *Store) PaymentTotalsByCourse(ctx context.Context, currency string) (map[string]types.Money, error) {
	var models []paymentModel
	err := s.pg.NewSelect(&models).
		Where("amount_currency = $1", currency).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	totals := make(map[string]types.Money)
	for i := range models {
		amount := types.Money{Amount: models[i].AmountCents, Currency: currency}
		if cur, ok := totals[models[i].CourseID]; ok {
			totals[models[i].CourseID] = cur.Add(amount)
		} else {
			totals[models[i].CourseID] = amount
		}
	}
	return totals, nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
