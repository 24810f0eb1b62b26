// Package memory provides an in-memory store for testing and development.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xraph/tuition"
	"github.com/xraph/tuition/course"
	"github.com/xraph/tuition/enrollment"
	"github.com/xraph/tuition/id"
	"github.com/xraph/tuition/payment"
	tuitionstore "github.com/xraph/tuition/store"
	"github.com/xraph/tuition/student"
	"github.com/xraph/tuition/types"
)

// compile-time interface check
var _ tuitionstore.Store = (*Store)(nil)

// Store is a thread-safe in-memory implementation of store.Store. It hands
// out deep copies so callers never alias stored aggregates.
type Store struct {
	mu sync.RWMutex

	// Student storage
	students map[string]*student.Student

	// Course storage
	courses map[string]*course.Course

	// Enrollment storage, keyed by studentID + "/" + courseID
	enrollments map[string]*enrollment.Enrollment

	// Payment storage, append-only
	payments []*payment.Payment
}

func New() *Store {
	return &Store{
		students:    make(map[string]*student.Student),
		courses:     make(map[string]*course.Course),
		enrollments: make(map[string]*enrollment.Enrollment),
		payments:    make([]*payment.Payment, 0),
	}
}

func enrollmentKey(studentID id.StudentID, courseID id.CourseID) string {
	return studentID.String() + "/" + courseID.String()
}

// Student Store implementation

func (s *Store) CreateStudent(_ context.Context, st *student.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.students[st.ID.String()]; exists {
		return tuition.ErrAlreadyExists
	}
	s.students[st.ID.String()] = st.Clone()
	return nil
}

func (s *Store) GetStudent(_ context.Context, studentID id.StudentID) (*student.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if st, ok := s.students[studentID.String()]; ok {
		return st.Clone(), nil
	}
	return nil, tuition.ErrStudentNotFound
}

func (s *Store) ListStudents(_ context.Context, opts student.ListOpts) ([]*student.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*student.Student, 0)
	for _, st := range s.students {
		if !matchArchived(st, opts) {
			continue
		}
		result = append(result, st.Clone())
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	return paginate(result, opts.Offset, opts.Limit), nil
}

// SaveStudent writes the aggregate only when the stored version matches,
// then increments it. A mismatch means another writer got there first.
func (s *Store) SaveStudent(_ context.Context, st *student.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.students[st.ID.String()]
	if !exists {
		return tuition.ErrStudentNotFound
	}
	if current.Version != st.Version {
		return tuition.ErrVersionConflict
	}

	saved := st.Clone()
	saved.Version++
	saved.Touch()
	s.students[st.ID.String()] = saved

	st.Version = saved.Version
	st.UpdatedAt = saved.UpdatedAt
	return nil
}

func (s *Store) ArchiveStudent(_ context.Context, studentID id.StudentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, exists := s.students[studentID.String()]
	if !exists {
		return tuition.ErrStudentNotFound
	}
	st.Archived = true
	st.Version++
	st.Touch()
	return nil
}

func (s *Store) CountStudents(_ context.Context, opts student.ListOpts) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, st := range s.students {
		if matchArchived(st, opts) {
			count++
		}
	}
	return count, nil
}

func matchArchived(st *student.Student, opts student.ListOpts) bool {
	if opts.ArchivedOnly {
		return st.Archived
	}
	if st.Archived && !opts.IncludeArchived {
		return false
	}
	return true
}

// Course Store implementation

func (s *Store) CreateCourse(_ context.Context, c *course.Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.courses[c.ID.String()]; exists {
		return tuition.ErrAlreadyExists
	}
	cp := *c
	s.courses[c.ID.String()] = &cp
	return nil
}

func (s *Store) GetCourse(_ context.Context, courseID id.CourseID) (*course.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, ok := s.courses[courseID.String()]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, tuition.ErrCourseNotFound
}

func (s *Store) ListCourses(_ context.Context, opts course.ListOpts) ([]*course.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*course.Course, 0, len(s.courses))
	for _, c := range s.courses {
		cp := *c
		result = append(result, &cp)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})

	return paginate(result, opts.Offset, opts.Limit), nil
}

func (s *Store) UpdateCourse(_ context.Context, c *course.Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.courses[c.ID.String()]; !exists {
		return tuition.ErrCourseNotFound
	}
	cp := *c
	cp.Touch()
	s.courses[c.ID.String()] = &cp
	return nil
}

func (s *Store) DeleteCourse(_ context.Context, courseID id.CourseID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.courses[courseID.String()]; !exists {
		return tuition.ErrCourseNotFound
	}
	for _, e := range s.enrollments {
		if e.CourseID == courseID {
			return tuition.ErrCourseInUse
		}
	}
	delete(s.courses, courseID.String())
	return nil
}

// Enrollment Store implementation

func (s *Store) CreateEnrollment(_ context.Context, e *enrollment.Enrollment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := enrollmentKey(e.StudentID, e.CourseID)
	if _, exists := s.enrollments[key]; exists {
		return tuition.ErrAlreadyEnrolled
	}
	cp := *e
	s.enrollments[key] = &cp
	return nil
}

func (s *Store) GetEnrollment(_ context.Context, studentID id.StudentID, courseID id.CourseID) (*enrollment.Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if e, ok := s.enrollments[enrollmentKey(studentID, courseID)]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, tuition.ErrEnrollmentNotFound
}

func (s *Store) ListEnrollmentsByStudent(_ context.Context, studentID id.StudentID) ([]*enrollment.Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*enrollment.Enrollment, 0)
	for _, e := range s.enrollments {
		if e.StudentID == studentID {
			cp := *e
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].EnrollmentDate.Before(result[j].EnrollmentDate)
	})
	return result, nil
}

func (s *Store) ListEnrollmentsByCourse(_ context.Context, courseID id.CourseID) ([]*enrollment.Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*enrollment.Enrollment, 0)
	for _, e := range s.enrollments {
		if e.CourseID == courseID {
			cp := *e
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].EnrollmentDate.Before(result[j].EnrollmentDate)
	})
	return result, nil
}

func (s *Store) UpdateEnrollment(_ context.Context, e *enrollment.Enrollment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := enrollmentKey(e.StudentID, e.CourseID)
	if _, exists := s.enrollments[key]; !exists {
		return tuition.ErrEnrollmentNotFound
	}
	cp := *e
	cp.Touch()
	s.enrollments[key] = &cp
	return nil
}

// Payment Store implementation

func (s *Store) CreatePayment(_ context.Context, p *payment.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.payments {
		if existing.ID == p.ID {
			return tuition.ErrAlreadyExists
		}
	}
	cp := *p
	s.payments = append(s.payments, &cp)
	return nil
}

func (s *Store) GetPayment(_ context.Context, paymentID id.PaymentID) (*payment.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.payments {
		if p.ID == paymentID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, tuition.ErrPaymentNotFound
}

func (s *Store) ListPaymentsByStudent(_ context.Context, studentID id.StudentID, opts payment.ListOpts) ([]*payment.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*payment.Payment, 0)
	for _, p := range s.payments {
		if p.StudentID == studentID && inRange(p.Date, opts.Start, opts.End) {
			cp := *p
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})
	return paginate(result, opts.Offset, opts.Limit), nil
}

func (s *Store) ListPaymentsByCourse(_ context.Context, courseID id.CourseID, opts payment.ListOpts) ([]*payment.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*payment.Payment, 0)
	for _, p := range s.payments {
		if p.CourseID == courseID && inRange(p.Date, opts.Start, opts.End) {
			cp := *p
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})
	return paginate(result, opts.Offset, opts.Limit), nil
}

func (s *Store) SumPaymentsByStudent(_ context.Context, studentID id.StudentID, currency string) (types.Money, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := types.Zero(currency)
	for _, p := range s.payments {
		if p.StudentID == studentID && p.Amount.Currency == currency {
			total = total.Add(p.Amount)
		}
	}
	return total, nil
}

func (s *Store) SumPaymentsByStudentForCourse(_ context.Context, studentID id.StudentID, courseID id.CourseID, currency string) (types.Money, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := types.Zero(currency)
	for _, p := range s.payments {
		if p.StudentID == studentID && p.CourseID == courseID && p.Amount.Currency == currency {
			total = total.Add(p.Amount)
		}
	}
	return total, nil
}

func (s *Store) SumPaymentsInMonth(_ context.Context, year int, month time.Month, currency string) (types.Money, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := types.Zero(currency)
	for _, p := range s.payments {
		if p.Date.Year() == year && p.Date.Month() == month && p.Amount.Currency == currency {
			total = total.Add(p.Amount)
		}
	}
	return total, nil
}

func (s *Store) SumPaymentsByMonth(_ context.Context, year int, currency string) (map[time.Month]types.Money, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := make(map[time.Month]types.Money, 12)
	for m := time.January; m <= time.December; m++ {
		totals[m] = types.Zero(currency)
	}
	for _, p := range s.payments {
		if p.Date.Year() == year && p.Amount.Currency == currency {
			totals[p.Date.Month()] = totals[p.Date.Month()].Add(p.Amount)
		}
	}
	return totals, nil
}

func (s *Store) PaymentTotalsByCourse(_ context.Context, currency string) (map[string]types.Money, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := make(map[string]types.Money)
	for _, p := range s.payments {
		if p.Amount.Currency != currency {
			continue
		}
		key := p.CourseID.String()
		if cur, ok := totals[key]; ok {
			totals[key] = cur.Add(p.Amount)
		} else {
			totals[key] = p.Amount
		}
	}
	return totals, nil
}

// Core methods

func (s *Store) Migrate(_ context.Context) error { return nil }
func (s *Store) Ping(_ context.Context) error    { return nil }
func (s *Store) Close() error                    { return nil }

func inRange(t, start, end time.Time) bool {
	if !start.IsZero() && t.Before(start) {
		return false
	}
	if !end.IsZero() && t.After(end) {
		return false
	}
	return true
}

func paginate[T any](items []T, offset, limit int) []T {
	start := offset
	if start > len(items) {
		start = len(items)
	}
	end := start + limit
	if limit == 0 || end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
