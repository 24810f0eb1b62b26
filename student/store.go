package student

import (
	"context"

	"github.com/xraph/tuition/id"
)

type Store interface {
	Create(ctx context.Context, s *Student) error
	Get(ctx context.Context, studentID id.StudentID) (*Student, error)
	List(ctx context.Context, opts ListOpts) ([]*Student, error)

	// Save persists the whole aggregate conditionally: the write succeeds
	// only when the stored Version matches s.Version, and increments it.
	Save(ctx context.Context, s *Student) error

	Archive(ctx context.Context, studentID id.StudentID) error
	Count(ctx context.Context, opts ListOpts) (int, error)
}
