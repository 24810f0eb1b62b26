package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/tuition"
	"github.com/xraph/tuition/course"
	"github.com/xraph/tuition/enrollment"
	"github.com/xraph/tuition/id"
	"github.com/xraph/tuition/payment"
	"github.com/xraph/tuition/student"
	tuitionstore "github.com/xraph/tuition/store"
	"github.com/xraph/tuition/types"
)

// Collection name constants.
const (
	colStudents    = "tuition_students"
	colCourses     = "tuition_courses"
	colEnrollments = "tuition_enrollments"
	colPayments    = "tuition_payments"
)

// compile-time interface check
var _ tuitionstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all tuition collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("tuition/mongo: migrate %s indexes: %w", col, err)
		}
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
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return tuition.ErrAlreadyExists
		}
		return fmt.Errorf("tuition/mongo: create student: %w", err)
	}
	return nil
}

func (s *Store) GetStudent(ctx context.Context, studentID id.StudentID) (*student.Student, error) {
	var m studentModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": studentID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, tuition.ErrStudentNotFound
		}
		return nil, fmt.Errorf("tuition/mongo: get student: %w", err)
	}
	return fromStudentModel(&m)
}

func (s *Store) ListStudents(ctx context.Context, opts student.ListOpts) ([]*student.Student, error) {
	var models []studentModel

	filter := bson.M{}
	if opts.ArchivedOnly {
		filter["is_archived"] = true
	} else if !opts.IncludeArchived {
		filter["is_archived"] = false
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "created_at", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("tuition/mongo: list students: %w", err)
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

// SaveStudent replaces the whole aggregate document conditionally: the
// filter matches on both _id and version, so a concurrent writer that
// bumped the version first makes this update match zero documents.
func (s *Store) SaveStudent(ctx context.Context, st *student.Student) error {
	m := toStudentModel(st)
	t := now()

	res, err := s.mdb.NewUpdate((*studentModel)(nil)).
		Filter(bson.M{"_id": m.ID, "version": st.Version}).
		SetUpdate(bson.M{
			"$set": bson.M{
				"name":             m.Name,
				"surname":          m.Surname,
				"second_name":      m.SecondName,
				"starting_date":    m.StartingDate,
				"num_lesson":       m.NumLesson,
				"balance_amount":   m.BalanceAmount,
				"balance_currency": m.BalanceCurrency,
				"attendance":       m.Attendance,
				"is_archived":      m.IsArchived,
				"updated_at":       t,
			},
			"$inc": bson.M{"version": 1},
		}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("tuition/mongo: save student: %w", err)
	}
	if res.MatchedCount() == 0 {
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
	res, err := s.mdb.NewUpdate((*studentModel)(nil)).
		Filter(bson.M{"_id": studentID.String()}).
		SetUpdate(bson.M{
			"$set": bson.M{"is_archived": true, "updated_at": t},
			"$inc": bson.M{"version": 1},
		}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("tuition/mongo: archive student: %w", err)
	}
	if res.MatchedCount() == 0 {
		return tuition.ErrStudentNotFound
	}
	return nil
}

func (s *Store) CountStudents(ctx context.Context, opts student.ListOpts) (int, error) {
	filter := bson.M{}
	if opts.ArchivedOnly {
		filter["is_archived"] = true
	} else if !opts.IncludeArchived {
		filter["is_archived"] = false
	}

	count, err := s.mdb.Collection(colStudents).CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("tuition/mongo: count students: %w", err)
	}
	return int(count), nil
}

// ==================== Course Store ====================

func (s *Store) CreateCourse(ctx context.Context, c *course.Course) error {
	m := toCourseModel(c)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return tuition.ErrAlreadyExists
		}
		return fmt.Errorf("tuition/mongo: create course: %w", err)
	}
	return nil
}

func (s *Store) GetCourse(ctx context.Context, courseID id.CourseID) (*course.Course, error) {
	var m courseModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": courseID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, tuition.ErrCourseNotFound
		}
		return nil, fmt.Errorf("tuition/mongo: get course: %w", err)
	}
	return fromCourseModel(&m)
}

func (s *Store) ListCourses(ctx context.Context, opts course.ListOpts) ([]*course.Course, error) {
	var models []courseModel

	q := s.mdb.NewFind(&models).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "name", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("tuition/mongo: list courses: %w", err)
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

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("tuition/mongo: update course: %w", err)
	}
	if res.MatchedCount() == 0 {
		return tuition.ErrCourseNotFound
	}
	return nil
}

func (s *Store) DeleteCourse(ctx context.Context, courseID id.CourseID) error {
	enrolled, err := s.mdb.Collection(colEnrollments).
		CountDocuments(ctx, bson.M{"course_id": courseID.String()})
	if err != nil {
		return fmt.Errorf("tuition/mongo: count course enrollments: %w", err)
	}
	if enrolled > 0 {
		return tuition.ErrCourseInUse
	}

	res, err := s.mdb.NewDelete((*courseModel)(nil)).
		Filter(bson.M{"_id": courseID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("tuition/mongo: delete course: %w", err)
	}
	if res.DeletedCount() == 0 {
		return tuition.ErrCourseNotFound
	}
	return nil
}

// ==================== Enrollment Store ====================

func (s *Store) CreateEnrollment(ctx context.Context, e *enrollment.Enrollment) error {
	m := toEnrollmentModel(e)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return tuition.ErrAlreadyEnrolled
		}
		return fmt.Errorf("tuition/mongo: create enrollment: %w", err)
	}
	return nil
}

func (s *Store) GetEnrollment(ctx context.Context, studentID id.StudentID, courseID id.CourseID) (*enrollment.Enrollment, error) {
	var m enrollmentModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"student_id": studentID.String(), "course_id": courseID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, tuition.ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("tuition/mongo: get enrollment: %w", err)
	}
	return fromEnrollmentModel(&m)
}

func (s *Store) ListEnrollmentsByStudent(ctx context.Context, studentID id.StudentID) ([]*enrollment.Enrollment, error) {
	return s.listEnrollments(ctx, bson.M{"student_id": studentID.String()})
}

func (s *Store) ListEnrollmentsByCourse(ctx context.Context, courseID id.CourseID) ([]*enrollment.Enrollment, error) {
	return s.listEnrollments(ctx, bson.M{"course_id": courseID.String()})
}

func (s *Store) listEnrollments(ctx context.Context, filter bson.M) ([]*enrollment.Enrollment, error) {
	var models []enrollmentModel
	err := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "enrollment_date", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("tuition/mongo: list enrollments: %w", err)
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

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("tuition/mongo: update enrollment: %w", err)
	}
	if res.MatchedCount() == 0 {
		return tuition.ErrEnrollmentNotFound
	}
	return nil
}

// ==================== Payment Store ====================

func (s *Store) CreatePayment(ctx context.Context, p *payment.Payment) error {
	m := toPaymentModel(p)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return tuition.ErrAlreadyExists
		}
		return fmt.Errorf("tuition/mongo: create payment: %w", err)
	}
	return nil
}

func (s *Store) GetPayment(ctx context.Context, paymentID id.PaymentID) (*payment.Payment, error) {
	var m paymentModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": paymentID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, tuition.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("tuition/mongo: get payment: %w", err)
	}
	return fromPaymentModel(&m)
}

func (s *Store) ListPaymentsByStudent(ctx context.Context, studentID id.StudentID, opts payment.ListOpts) ([]*payment.Payment, error) {
	return s.listPayments(ctx, bson.M{"student_id": studentID.String()}, opts)
}

func (s *Store) ListPaymentsByCourse(ctx context.Context, courseID id.CourseID, opts payment.ListOpts) ([]*payment.Payment, error) {
	return s.listPayments(ctx, bson.M{"course_id": courseID.String()}, opts)
}

func (s *Store) listPayments(ctx context.Context, filter bson.M, opts payment.ListOpts) ([]*payment.Payment, error) {
	dateFilter := bson.M{}
	if !opts.Start.IsZero() {
		dateFilter["$gte"] = opts.Start
	}
	if !opts.End.IsZero() {
		dateFilter["$lte"] = opts.End
	}
	if len(dateFilter) > 0 {
		filter["date"] = dateFilter
	}

	var models []paymentModel
	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "date", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("tuition/mongo: list payments: %w", err)
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
	return s.sumPayments(ctx, bson.M{
		"student_id":      studentID.String(),
		"amount_currency": currency,
	}, currency)
}

func (s *Store) SumPaymentsByStudentForCourse(ctx context.Context, studentID id.StudentID, courseID id.CourseID, currency string) (types.Money, error) {
	return s.sumPayments(ctx, bson.M{
		"student_id":      studentID.String(),
		"course_id":       courseID.String(),
		"amount_currency": currency,
	}, currency)
}

func (s *Store) SumPaymentsInMonth(ctx context.Context, year int, month time.Month, currency string) (types.Money, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	return s.sumPayments(ctx, bson.M{
		"date":            bson.M{"$gte": start, "$lt": end},
		"amount_currency": currency,
	}, currency)
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
	pipeline := bson.A{
		bson.M{"$match": bson.M{"amount_currency": currency}},
		bson.M{"$group": bson.M{
			"_id":   "$course_id",
			"total": bson.M{"$sum": "$amount_cents"},
		}},
	}

	cursor, err := s.mdb.Collection(colPayments).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("tuition/mongo: totals by course: %w", err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		CourseID string `bson:"_id"`
		Total    int64  `bson:"total"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("tuition/mongo: totals by course decode: %w", err)
	}

	totals := make(map[string]types.Money, len(results))
	for _, r := range results {
		totals[r.CourseID] = types.Money{Amount: r.Total, Currency: currency}
	}
	return totals, nil
}

func (s *Store) sumPayments(ctx context.Context, match bson.M, currency string) (types.Money, error) {
	pipeline := bson.A{
		bson.M{"$match": match},
		bson.M{"$group": bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$amount_cents"},
		}},
	}

	cursor, err := s.mdb.Collection(colPayments).Aggregate(ctx, pipeline)
	if err != nil {
		return types.Money{}, fmt.Errorf("tuition/mongo: sum payments: %w", err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		Total int64 `bson:"total"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return types.Money{}, fmt.Errorf("tuition/mongo: sum payments decode: %w", err)
	}

	if len(results) == 0 {
		return types.Zero(currency), nil
	}
	return types.Money{Amount: results[0].Total, Currency: currency}, nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all tuition collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colStudents: {
			{Keys: bson.D{{Key: "is_archived", Value: 1}, {Key: "created_at", Value: 1}}},
			{Keys: bson.D{{Key: "surname", Value: 1}, {Key: "name", Value: 1}}},
		},
		colCourses: {
			{Keys: bson.D{{Key: "name", Value: 1}}},
		},
		colEnrollments: {
			{
				Keys:    bson.D{{Key: "student_id", Value: 1}, {Key: "course_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "course_id", Value: 1}}},
		},
		colPayments: {
			{Keys: bson.D{{Key: "student_id", Value: 1}, {Key: "date", Value: 1}}},
			{Keys: bson.D{{Key: "course_id", Value: 1}, {Key: "date", Value: 1}}},
			{Keys: bson.D{{Key: "date", Value: 1}}},
		},
	}
}
