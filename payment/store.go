package payment

import (
	"context"
	"time"

	"github.com/xraph/tuition/id"
	"github.com/xraph/tuition/types"
)

// Store is append-only: payments are created and aggregated, never
// updated or deleted through the engine.
type Store interface {
	Create(ctx context.Context, p *Payment) error
	Get(ctx context.Context, paymentID id.PaymentID) (*Payment, error)
	ListByStudent(ctx context.Context, studentID id.StudentID, opts ListOpts) ([]*Payment, error)
	ListByCourse(ctx context.Context, courseID id.CourseID, opts ListOpts) ([]*Payment, error)

	// Aggregates. The currency names the unit of the returned totals; an
	// empty result sums to zero in that currency.
	SumByStudent(ctx context.Context, studentID id.StudentID, currency string) (types.Money, error)
	SumByStudentForCourse(ctx context.Context, studentID id.StudentID, courseID id.CourseID, currency string) (types.Money, error)
	SumInMonth(ctx context.Context, year int, month time.Month, currency string) (types.Money, error)
	SumByMonth(ctx context.Context, year int, currency string) (map[time.Month]types.Money, error)
	TotalsByCourse(ctx context.Context, currency string) (map[string]types.Money, error)
}
