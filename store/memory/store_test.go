package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/tuition"
	"github.com/xraph/tuition/course"
	"github.com/xraph/tuition/enrollment"
	"github.com/xraph/tuition/id"
	"github.com/xraph/tuition/payment"
	"github.com/xraph/tuition/student"
	"github.com/xraph/tuition/types"
)

func newStudent(name string) *student.Student {
	return &student.Student{
		Entity:       types.NewEntity(),
		ID:           id.NewStudentID(),
		Name:         name,
		Surname:      "Testov",
		StartingDate: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		Balance:      types.Zero("kzt"),
	}
}

func TestStudentCRUD(t *testing.T) {
	s := New()
	ctx := context.Background()

	st := newStudent("Aruzhan")
	if err := s.CreateStudent(ctx, st); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateStudent(ctx, st); !errors.Is(err, tuition.ErrAlreadyExists) {
		t.Errorf("duplicate create: got %v, want ErrAlreadyExists", err)
	}

	got, err := s.GetStudent(ctx, st.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Aruzhan" {
		t.Errorf("Name: got %q", got.Name)
	}

	// The store hands out copies, not shared pointers.
	got.Name = "mutated"
	again, _ := s.GetStudent(ctx, st.ID)
	if again.Name != "Aruzhan" {
		t.Error("store returned a shared pointer")
	}

	if _, err := s.GetStudent(ctx, id.NewStudentID()); !errors.Is(err, tuition.ErrStudentNotFound) {
		t.Errorf("missing student: got %v", err)
	}
}

func TestSaveStudentVersionConflict(t *testing.T) {
	s := New()
	ctx := context.Background()

	st := newStudent("Dias")
	if err := s.CreateStudent(ctx, st); err != nil {
		t.Fatal(err)
	}

	a, _ := s.GetStudent(ctx, st.ID)
	b, _ := s.GetStudent(ctx, st.ID)

	a.NumLesson = 3
	if err := s.SaveStudent(ctx, a); err != nil {
		t.Fatal(err)
	}
	if a.Version != st.Version+1 {
		t.Errorf("Version after save: got %d, want %d", a.Version, st.Version+1)
	}

	b.NumLesson = 7
	if err := s.SaveStudent(ctx, b); !errors.Is(err, tuition.ErrVersionConflict) {
		t.Errorf("stale save: got %v, want ErrVersionConflict", err)
	}

	got, _ := s.GetStudent(ctx, st.ID)
	if got.NumLesson != 3 {
		t.Errorf("NumLesson: got %d, want 3", got.NumLesson)
	}
}

func TestArchiveStudent(t *testing.T) {
	s := New()
	ctx := context.Background()

	st := newStudent("Kamila")
	if err := s.CreateStudent(ctx, st); err != nil {
		t.Fatal(err)
	}
	if err := s.ArchiveStudent(ctx, st.ID); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetStudent(ctx, st.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Archived {
		t.Error("expected Archived")
	}

	active, _ := s.ListStudents(ctx, student.ListOpts{})
	if len(active) != 0 {
		t.Errorf("active list: got %d, want 0", len(active))
	}
	all, _ := s.ListStudents(ctx, student.ListOpts{IncludeArchived: true})
	if len(all) != 1 {
		t.Errorf("full list: got %d, want 1", len(all))
	}
	archived, _ := s.ListStudents(ctx, student.ListOpts{ArchivedOnly: true})
	if len(archived) != 1 {
		t.Errorf("archived list: got %d, want 1", len(archived))
	}

	n, _ := s.CountStudents(ctx, student.ListOpts{ArchivedOnly: true})
	if n != 1 {
		t.Errorf("archived count: got %d, want 1", n)
	}
}

func TestDeleteCourseInUse(t *testing.T) {
	s := New()
	ctx := context.Background()

	c := &course.Course{
		Entity:         types.NewEntity(),
		ID:             id.NewCourseID(),
		Name:           "English B1",
		LessonPerMonth: 8,
		Cost:           types.KZT(1600000),
	}
	if err := s.CreateCourse(ctx, c); err != nil {
		t.Fatal(err)
	}

	st := newStudent("Aibek")
	if err := s.CreateStudent(ctx, st); err != nil {
		t.Fatal(err)
	}
	e := &enrollment.Enrollment{
		Entity:         types.NewEntity(),
		ID:             id.NewEnrollmentID(),
		StudentID:      st.ID,
		CourseID:       c.ID,
		EnrollmentDate: time.Now().UTC(),
	}
	if err := s.CreateEnrollment(ctx, e); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateEnrollment(ctx, e); !errors.Is(err, tuition.ErrAlreadyEnrolled) {
		t.Errorf("duplicate enrollment: got %v", err)
	}

	if err := s.DeleteCourse(ctx, c.ID); !errors.Is(err, tuition.ErrCourseInUse) {
		t.Errorf("delete in-use course: got %v, want ErrCourseInUse", err)
	}
}

func TestPaymentAggregates(t *testing.T) {
	s := New()
	ctx := context.Background()

	stuA := id.NewStudentID()
	stuB := id.NewStudentID()
	crsX := id.NewCourseID()
	crsY := id.NewCourseID()

	pay := func(stu id.StudentID, crs id.CourseID, amount int64, date time.Time) {
		t.Helper()
		p := &payment.Payment{
			Entity:    types.NewEntity(),
			ID:        id.NewPaymentID(),
			StudentID: stu,
			CourseID:  crs,
			Amount:    types.KZT(amount),
			Date:      date,
		}
		if err := s.CreatePayment(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	jan := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)
	pay(stuA, crsX, 1600000, jan)
	pay(stuA, crsY, 900000, feb)
	pay(stuB, crsX, 1600000, feb)

	total, err := s.SumPaymentsByStudent(ctx, stuA, "kzt")
	if err != nil {
		t.Fatal(err)
	}
	if !total.Equal(types.KZT(2500000)) {
		t.Errorf("SumPaymentsByStudent: got %v", total)
	}

	forCourse, _ := s.SumPaymentsByStudentForCourse(ctx, stuA, crsX, "kzt")
	if !forCourse.Equal(types.KZT(1600000)) {
		t.Errorf("SumPaymentsByStudentForCourse: got %v", forCourse)
	}

	inFeb, _ := s.SumPaymentsInMonth(ctx, 2026, time.February, "kzt")
	if !inFeb.Equal(types.KZT(2500000)) {
		t.Errorf("SumPaymentsInMonth: got %v", inFeb)
	}

	byMonth, _ := s.SumPaymentsByMonth(ctx, 2026, "kzt")
	if !byMonth[time.January].Equal(types.KZT(1600000)) {
		t.Errorf("January: got %v", byMonth[time.January])
	}
	if !byMonth[time.March].IsZero() {
		t.Errorf("March: got %v, want zero", byMonth[time.March])
	}

	byCourse, _ := s.PaymentTotalsByCourse(ctx, "kzt")
	if !byCourse[crsX.String()].Equal(types.KZT(3200000)) {
		t.Errorf("course X totals: got %v", byCourse[crsX.String()])
	}

	list, _ := s.ListPaymentsByStudent(ctx, stuA, payment.ListOpts{
		Start: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	})
	if len(list) != 1 {
		t.Errorf("filtered list: got %d payments, want 1", len(list))
	}
}
