package course

import (
	"context"

	"github.com/xraph/tuition/id"
)

type Store interface {
	Create(ctx context.Context, c *Course) error
	Get(ctx context.Context, courseID id.CourseID) (*Course, error)
	List(ctx context.Context, opts ListOpts) ([]*Course, error)
	Update(ctx context.Context, c *Course) error
	Delete(ctx context.Context, courseID id.CourseID) error
}
