package enrollment

import (
	"context"

	"github.com/xraph/tuition/id"
)

type Store interface {
	// Create fails when an enrollment for the same (student, course) pair
	// already exists.
	Create(ctx context.Context, e *Enrollment) error
	Get(ctx context.Context, studentID id.StudentID, courseID id.CourseID) (*Enrollment, error)
	ListByStudent(ctx context.Context, studentID id.StudentID) ([]*Enrollment, error)
	ListByCourse(ctx context.Context, courseID id.CourseID) ([]*Enrollment, error)
	Update(ctx context.Context, e *Enrollment) error
}
