package store

import (
	"context"
	"time"

	"github.com/xraph/tuition/course"
	"github.com/xraph/tuition/enrollment"
	"github.com/xraph/tuition/id"
	"github.com/xraph/tuition/payment"
	"github.com/xraph/tuition/student"
	"github.com/xraph/tuition/types"
)

// Store is the unified storage interface for all tuition entities.
// Instead of embedding the sub-interfaces, we explicitly declare all methods
// to avoid naming conflicts.
type Store interface {
	// Student methods
	CreateStudent(ctx context.Context, s *student.Student) error
	GetStudent(ctx context.Context, studentID id.StudentID) (*student.Student, error)
	ListStudents(ctx context.Context, opts student.ListOpts) ([]*student.Student, error)

	// SaveStudent persists the whole aggregate conditionally: the write
	// succeeds only when the stored version matches s.Version, and
	// increments it.
	SaveStudent(ctx context.Context, s *student.Student) error

	ArchiveStudent(ctx context.Context, studentID id.StudentID) error
	CountStudents(ctx context.Context, opts student.ListOpts) (int, error)

	// Course methods
	CreateCourse(ctx context.Context, c *course.Course) error
	GetCourse(ctx context.Context, courseID id.CourseID) (*course.Course, error)
	ListCourses(ctx context.Context, opts course.ListOpts) ([]*course.Course, error)
	UpdateCourse(ctx context.Context, c *course.Course) error
	DeleteCourse(ctx context.Context, courseID id.CourseID) error

	// Enrollment methods
	CreateEnrollment(ctx context.Context, e *enrollment.Enrollment) error
	GetEnrollment(ctx context.Context, studentID id.StudentID, courseID id.CourseID) (*enrollment.Enrollment, error)
	ListEnrollmentsByStudent(ctx context.Context, studentID id.StudentID) ([]*enrollment.Enrollment, error)
	ListEnrollmentsByCourse(ctx context.Context, courseID id.CourseID) ([]*enrollment.Enrollment, error)
	UpdateEnrollment(ctx context.Context, e *enrollment.Enrollment) error

	// Payment methods
	CreatePayment(ctx context.Context, p *payment.Payment) error
	GetPayment(ctx context.Context, paymentID id.PaymentID) (*payment.Payment, error)
	ListPaymentsByStudent(ctx context.Context, studentID id.StudentID, opts payment.ListOpts) ([]*payment.Payment, error)
	ListPaymentsByCourse(ctx context.Context, courseID id.CourseID, opts payment.ListOpts) ([]*payment.Payment, error)
	SumPaymentsByStudent(ctx context.Context, studentID id.StudentID, currency string) (types.Money, error)
	SumPaymentsByStudentForCourse(ctx context.Context, studentID id.StudentID, courseID id.CourseID, currency string) (types.Money, error)
	SumPaymentsInMonth(ctx context.Context, year int, month time.Month, currency string) (types.Money, error)
	SumPaymentsByMonth(ctx context.Context, year int, currency string) (map[time.Month]types.Money, error)
	PaymentTotalsByCourse(ctx context.Context, currency string) (map[string]types.Money, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
