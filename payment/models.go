package payment

import (
	"time"

	"github.com/xraph/tuition/id"
	"github.com/xraph/tuition/types"
)

// Payment is an append-only record of money received from a student for a
// course. Payments are immutable once created; corrections are
// administrative and outside the reconciliation flow.
type Payment struct {
	types.Entity
	ID          id.PaymentID `json:"id"`
	StudentID   id.StudentID `json:"student_id"`
	CourseID    id.CourseID  `json:"course_id"`
	Amount      types.Money  `json:"amount"`
	Date        time.Time    `json:"date"`
	Description string       `json:"description,omitempty"`
}

// ListOpts filters payment listings.
type ListOpts struct {
	Start  time.Time
	End    time.Time
	Limit  int
	Offset int
}
