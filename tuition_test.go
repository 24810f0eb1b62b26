package tuition_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/xraph/tuition"
	"github.com/xraph/tuition/attendance"
	"github.com/xraph/tuition/course"
	"github.com/xraph/tuition/id"
	"github.com/xraph/tuition/store/memory"
	"github.com/xraph/tuition/student"
	"github.com/xraph/tuition/types"
)

var testToday = time.Date(2026, time.August, 31, 12, 0, 0, 0, time.UTC)

func newEngine(t *testing.T, opts ...tuition.Option) (*tuition.Engine, context.Context) {
	t.Helper()
	opts = append([]tuition.Option{
		tuition.WithClock(func() time.Time { return testToday }),
	}, opts...)
	eng := tuition.New(memory.New(), opts...)
	ctx := context.Background()
	if err := eng.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = eng.Stop() })
	return eng, ctx
}

// seed creates a student enrolled in a course costing 160.00 KZT per month
// at 8 lessons per month, so one lesson costs 20.00 KZT.
func seed(t *testing.T, eng *tuition.Engine, ctx context.Context) (id.StudentID, id.CourseID) {
	t.Helper()
	st := &student.Student{Name: "Aigerim", Surname: "Bekova"}
	if err := eng.CreateStudent(ctx, st); err != nil {
		t.Fatalf("CreateStudent: %v", err)
	}
	c := &course.Course{
		Name:           "English B1",
		Cost:           types.KZT(16_000),
		LessonPerMonth: 8,
		WeekDays:       []string{"Monday", "Wednesday"},
	}
	if err := eng.CreateCourse(ctx, c); err != nil {
		t.Fatalf("CreateCourse: %v", err)
	}
	enrollDate := time.Date(2026, time.May, 10, 0, 0, 0, 0, time.UTC)
	if _, err := eng.EnrollCourse(ctx, st.ID, c.ID, enrollDate); err != nil {
		t.Fatalf("EnrollCourse: %v", err)
	}
	return st.ID, c.ID
}

func mustStudent(t *testing.T, eng *tuition.Engine, ctx context.Context, studentID id.StudentID) *student.Student {
	t.Helper()
	st, err := eng.GetStudent(ctx, studentID)
	if err != nil {
		t.Fatalf("GetStudent: %v", err)
	}
	return st
}

func boolPtr(b bool) *bool { return &b }

func TestAttendanceCharging(t *testing.T) {
	eng, ctx := newEngine(t)
	studentID, courseID := seed(t, eng, ctx)

	day1 := time.Date(2026, time.August, 3, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, time.August, 5, 0, 0, 0, 0, time.UTC)

	// Present and charged: one lesson cost off the balance, one billed lesson.
	if _, err := eng.RecordAttendance(ctx, studentID, attendance.Record{
		CourseID: courseID, Date: day1, ChargeMoney: true,
	}); err != nil {
		t.Fatalf("RecordAttendance: %v", err)
	}
	st := mustStudent(t, eng, ctx, studentID)
	if st.Balance.Amount != -2_000 {
		t.Errorf("balance = %d, want -2000", st.Balance.Amount)
	}
	if st.NumLesson != 1 {
		t.Errorf("num_lesson = %d, want 1", st.NumLesson)
	}

	// Absent but charged: pays for the lesson, does not count it.
	if _, err := eng.RecordAttendance(ctx, studentID, attendance.Record{
		CourseID: courseID, Date: day2, IsAbsent: true, ChargeMoney: true, Reason: "sick",
	}); err != nil {
		t.Fatalf("RecordAttendance: %v", err)
	}
	st = mustStudent(t, eng, ctx, studentID)
	if st.Balance.Amount != -4_000 {
		t.Errorf("balance = %d, want -4000", st.Balance.Amount)
	}
	if st.NumLesson != 1 {
		t.Errorf("num_lesson = %d, want 1", st.NumLesson)
	}

	// Waive the absence charge: the old effect reverses exactly.
	if _, err := eng.UpdateAttendance(ctx, studentID, courseID, day2, attendance.Change{
		ChargeMoney: boolPtr(false),
	}); err != nil {
		t.Fatalf("UpdateAttendance: %v", err)
	}
	st = mustStudent(t, eng, ctx, studentID)
	if st.Balance.Amount != -2_000 {
		t.Errorf("balance after waiver = %d, want -2000", st.Balance.Amount)
	}
	if st.NumLesson != 1 {
		t.Errorf("num_lesson after waiver = %d, want 1", st.NumLesson)
	}
}

func TestRecordAttendanceIdempotent(t *testing.T) {
	eng, ctx := newEngine(t)
	studentID, courseID := seed(t, eng, ctx)

	rec := attendance.Record{
		CourseID:    courseID,
		Date:        time.Date(2026, time.August, 3, 0, 0, 0, 0, time.UTC),
		ChargeMoney: true,
	}
	for i := 0; i < 3; i++ {
		if _, err := eng.RecordAttendance(ctx, studentID, rec); err != nil {
			t.Fatalf("RecordAttendance #%d: %v", i+1, err)
		}
	}

	st := mustStudent(t, eng, ctx, studentID)
	if st.Balance.Amount != -2_000 {
		t.Errorf("balance = %d, want -2000 after repeated identical records", st.Balance.Amount)
	}
	if st.NumLesson != 1 {
		t.Errorf("num_lesson = %d, want 1", st.NumLesson)
	}
	if len(st.Attendance) != 1 {
		t.Errorf("attendance records = %d, want 1", len(st.Attendance))
	}
}

func TestRecordAttendanceOverwritesSameDay(t *testing.T) {
	eng, ctx := newEngine(t)
	studentID, courseID := seed(t, eng, ctx)
	day := time.Date(2026, time.August, 3, 15, 30, 0, 0, time.UTC)

	if _, err := eng.RecordAttendance(ctx, studentID, attendance.Record{
		CourseID: courseID, Date: day, ChargeMoney: true,
	}); err != nil {
		t.Fatalf("RecordAttendance: %v", err)
	}
	// Same day at a different hour replaces the record, not duplicates it.
	if _, err := eng.RecordAttendance(ctx, studentID, attendance.Record{
		CourseID: courseID, Date: day.Add(-6 * time.Hour), IsAbsent: true, ChargeMoney: false,
	}); err != nil {
		t.Fatalf("RecordAttendance overwrite: %v", err)
	}

	st := mustStudent(t, eng, ctx, studentID)
	if len(st.Attendance) != 1 {
		t.Fatalf("attendance records = %d, want 1", len(st.Attendance))
	}
	if st.Balance.Amount != 0 {
		t.Errorf("balance = %d, want 0 after charge was overwritten away", st.Balance.Amount)
	}
	if st.NumLesson != 0 {
		t.Errorf("num_lesson = %d, want 0", st.NumLesson)
	}
	if !st.Attendance[0].IsAbsent {
		t.Error("record should carry the overwriting values")
	}
}

func TestUpdateAttendanceRoundTrip(t *testing.T) {
	eng, ctx := newEngine(t)
	studentID, courseID := seed(t, eng, ctx)
	day := time.Date(2026, time.August, 3, 0, 0, 0, 0, time.UTC)

	if _, err := eng.RecordAttendance(ctx, studentID, attendance.Record{
		CourseID: courseID, Date: day, ChargeMoney: true,
	}); err != nil {
		t.Fatalf("RecordAttendance: %v", err)
	}
	before := mustStudent(t, eng, ctx, studentID)

	// Flip to uncharged absence and back. The round trip must restore the
	// original counters exactly.
	if _, err := eng.UpdateAttendance(ctx, studentID, courseID, day, attendance.Change{
		IsAbsent: boolPtr(true), ChargeMoney: boolPtr(false),
	}); err != nil {
		t.Fatalf("UpdateAttendance: %v", err)
	}
	if _, err := eng.UpdateAttendance(ctx, studentID, courseID, day, attendance.Change{
		IsAbsent: boolPtr(false), ChargeMoney: boolPtr(true),
	}); err != nil {
		t.Fatalf("UpdateAttendance back: %v", err)
	}

	after := mustStudent(t, eng, ctx, studentID)
	if after.Balance.Amount != before.Balance.Amount {
		t.Errorf("balance = %d, want %d", after.Balance.Amount, before.Balance.Amount)
	}
	if after.NumLesson != before.NumLesson {
		t.Errorf("num_lesson = %d, want %d", after.NumLesson, before.NumLesson)
	}
}

func TestUpdateAttendanceNotFound(t *testing.T) {
	eng, ctx := newEngine(t)
	studentID, courseID := seed(t, eng, ctx)

	_, err := eng.UpdateAttendance(ctx, studentID, courseID,
		time.Date(2026, time.August, 3, 0, 0, 0, 0, time.UTC),
		attendance.Change{IsAbsent: boolPtr(true)})
	if !errors.Is(err, tuition.ErrAttendanceNotFound) {
		t.Errorf("err = %v, want ErrAttendanceNotFound", err)
	}

	if _, err := eng.UpdateAttendance(ctx, studentID, courseID, testToday, attendance.Change{}); !errors.Is(err, tuition.ErrInvalidInput) {
		t.Errorf("empty change err = %v, want ErrInvalidInput", err)
	}
}

func TestAttendanceOrderIndependence(t *testing.T) {
	days := []time.Time{
		time.Date(2026, time.August, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.August, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.August, 10, 0, 0, 0, 0, time.UTC),
	}
	recs := []attendance.Record{
		{Date: days[0], ChargeMoney: true},
		{Date: days[1], IsAbsent: true, ChargeMoney: true},
		{Date: days[2], ChargeMoney: true},
	}

	run := func(order []int) (int64, int) {
		eng, ctx := newEngine(t)
		studentID, courseID := seed(t, eng, ctx)
		for _, i := range order {
			rec := recs[i]
			rec.CourseID = courseID
			if _, err := eng.RecordAttendance(ctx, studentID, rec); err != nil {
				t.Fatalf("RecordAttendance: %v", err)
			}
		}
		st := mustStudent(t, eng, ctx, studentID)
		return st.Balance.Amount, st.NumLesson
	}

	balA, numA := run([]int{0, 1, 2})
	balB, numB := run([]int{2, 0, 1})
	if balA != balB || numA != numB {
		t.Errorf("order dependent: (%d, %d) vs (%d, %d)", balA, numA, balB, numB)
	}
}

func TestAttendancePerCourseKeys(t *testing.T) {
	eng, ctx := newEngine(t)
	studentID, courseID := seed(t, eng, ctx)

	c2 := &course.Course{
		Name:           "German A2",
		Cost:           types.KZT(9_000),
		LessonPerMonth: 4,
	}
	if err := eng.CreateCourse(ctx, c2); err != nil {
		t.Fatalf("CreateCourse: %v", err)
	}
	if _, err := eng.EnrollCourse(ctx, studentID, c2.ID, testToday); err != nil {
		t.Fatalf("EnrollCourse: %v", err)
	}

	day := time.Date(2026, time.August, 3, 0, 0, 0, 0, time.UTC)
	for _, cid := range []id.CourseID{courseID, c2.ID} {
		if _, err := eng.RecordAttendance(ctx, studentID, attendance.Record{
			CourseID: cid, Date: day, ChargeMoney: true,
		}); err != nil {
			t.Fatalf("RecordAttendance: %v", err)
		}
	}

	// Same day in two courses yields two records and two charges.
	st := mustStudent(t, eng, ctx, studentID)
	if len(st.Attendance) != 2 {
		t.Fatalf("attendance records = %d, want 2", len(st.Attendance))
	}
	if want := int64(-2_000 - 2_250); st.Balance.Amount != want {
		t.Errorf("balance = %d, want %d", st.Balance.Amount, want)
	}

	hist, err := eng.AttendanceHistory(ctx, studentID, courseID)
	if err != nil {
		t.Fatalf("AttendanceHistory: %v", err)
	}
	if len(hist) != 1 {
		t.Errorf("course history = %d records, want 1", len(hist))
	}
	all, err := eng.AttendanceHistory(ctx, studentID, id.ID{})
	if err != nil {
		t.Fatalf("AttendanceHistory all: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("full history = %d records, want 2", len(all))
	}
}

func TestRecordPayment(t *testing.T) {
	eng, ctx := newEngine(t)
	studentID, courseID := seed(t, eng, ctx)

	p, rep, err := eng.RecordPayment(ctx, studentID, courseID,
		types.KZT(48_000), testToday, "May through July")
	if err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}
	if p.ID.IsNil() {
		t.Error("payment ID not assigned")
	}
	if rep == nil {
		t.Fatal("expected a debt report alongside the payment")
	}

	// Enrolled 2026-05-10, today 2026-08-31: three whole months owed.
	if want := int64(48_000); rep.TotalMonthlyOwed.Amount != want {
		t.Errorf("owed = %d, want %d", rep.TotalMonthlyOwed.Amount, want)
	}
	if rep.OwesMoney {
		t.Errorf("paid in full but report says debt of %s", rep.DebtAmount)
	}

	st := mustStudent(t, eng, ctx, studentID)
	if st.Balance.Amount != 48_000 {
		t.Errorf("balance = %d, want 48000", st.Balance.Amount)
	}

	if _, _, err := eng.RecordPayment(ctx, studentID, courseID, types.KZT(0), testToday, ""); !errors.Is(err, tuition.ErrInvalidAmount) {
		t.Errorf("zero amount err = %v, want ErrInvalidAmount", err)
	}
	if _, _, err := eng.RecordPayment(ctx, studentID, courseID, types.USD(100), testToday, ""); !errors.Is(err, tuition.ErrCurrencyMismatch) {
		t.Errorf("usd payment err = %v, want ErrCurrencyMismatch", err)
	}
}

func TestBalanceConservation(t *testing.T) {
	eng, ctx := newEngine(t)
	studentID, courseID := seed(t, eng, ctx)

	if _, _, err := eng.RecordPayment(ctx, studentID, courseID, types.KZT(16_000), testToday, ""); err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}
	charged := int64(0)
	for day := 3; day <= 10; day += 2 {
		if _, err := eng.RecordAttendance(ctx, studentID, attendance.Record{
			CourseID:    courseID,
			Date:        time.Date(2026, time.August, day, 0, 0, 0, 0, time.UTC),
			ChargeMoney: true,
		}); err != nil {
			t.Fatalf("RecordAttendance: %v", err)
		}
		charged += 2_000
	}

	// Balance is exactly payments minus charges, nothing else.
	st := mustStudent(t, eng, ctx, studentID)
	if want := 16_000 - charged; st.Balance.Amount != want {
		t.Errorf("balance = %d, want %d", st.Balance.Amount, want)
	}
}

func TestMonthlyDebtWholeMonthFloor(t *testing.T) {
	eng, ctx := newEngine(t)
	studentID, _ := seed(t, eng, ctx)

	rep, err := eng.MonthlyDebt(ctx, studentID)
	if err != nil {
		t.Fatalf("MonthlyDebt: %v", err)
	}
	// 2026-05-10 to 2026-08-31 is three whole months; the partial fourth
	// month does not bill.
	if len(rep.CourseBreakdown) != 1 {
		t.Fatalf("breakdown = %d entries, want 1", len(rep.CourseBreakdown))
	}
	if got := rep.CourseBreakdown[0].MonthsEnrolled; got != 3 {
		t.Errorf("months enrolled = %d, want 3", got)
	}
	if want := int64(48_000); rep.TotalMonthlyOwed.Amount != want {
		t.Errorf("owed = %d, want %d", rep.TotalMonthlyOwed.Amount, want)
	}
	if !rep.OwesMoney || rep.DebtAmount.Amount != 48_000 {
		t.Errorf("debt = %s, want 480.00 kzt of debt", rep.DebtAmount)
	}
}

func TestMonthlySummaryAndStatistics(t *testing.T) {
	eng, ctx := newEngine(t)
	studentID, courseID := seed(t, eng, ctx)

	st2 := &student.Student{Name: "Daniyar", Surname: "Omarov"}
	if err := eng.CreateStudent(ctx, st2); err != nil {
		t.Fatalf("CreateStudent: %v", err)
	}
	if _, err := eng.EnrollCourse(ctx, st2.ID, courseID, testToday); err != nil {
		t.Fatalf("EnrollCourse: %v", err)
	}
	if _, _, err := eng.RecordPayment(ctx, studentID, courseID, types.KZT(48_000), testToday, ""); err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}

	sum, err := eng.MonthlySummary(ctx)
	if err != nil {
		t.Fatalf("MonthlySummary: %v", err)
	}
	if len(sum.Students) != 2 {
		t.Fatalf("summary students = %d, want 2", len(sum.Students))
	}
	// First student paid in full; the second owes one month.
	if sum.StudentsWithDebt != 1 {
		t.Errorf("students with debt = %d, want 1", sum.StudentsWithDebt)
	}
	if sum.TotalDebt.Amount != 16_000 {
		t.Errorf("total debt = %d, want 16000", sum.TotalDebt.Amount)
	}

	stats, err := eng.Statistics(ctx)
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}
	if stats.ActiveStudents != 2 || stats.ArchivedStudents != 0 || stats.Courses != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.TotalDebt.Amount != 16_000 {
		t.Errorf("stats total debt = %d, want 16000", stats.TotalDebt.Amount)
	}
	if stats.TotalBalance.Amount != 48_000 {
		t.Errorf("stats total balance = %d, want 48000", stats.TotalBalance.Amount)
	}
	if stats.MonthPaymentTotal.Amount != 48_000 {
		t.Errorf("stats month payments = %d, want 48000", stats.MonthPaymentTotal.Amount)
	}
}

func TestCourseDebts(t *testing.T) {
	eng, ctx := newEngine(t)
	studentID, courseID := seed(t, eng, ctx)

	if _, _, err := eng.RecordPayment(ctx, studentID, courseID, types.KZT(16_000), testToday, ""); err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}

	rep, err := eng.CourseDebts(ctx, courseID)
	if err != nil {
		t.Fatalf("CourseDebts: %v", err)
	}
	if len(rep.Students) != 1 {
		t.Fatalf("course students = %d, want 1", len(rep.Students))
	}
	entry := rep.Students[0]
	if entry.CourseOwed.Amount != 48_000 || entry.CoursePayments.Amount != 16_000 {
		t.Errorf("owed/paid = %d/%d, want 48000/16000", entry.CourseOwed.Amount, entry.CoursePayments.Amount)
	}
	if rep.TotalCourseDebt.Amount != 32_000 {
		t.Errorf("course debt = %d, want 32000", rep.TotalCourseDebt.Amount)
	}
}

func TestMonthlyPaymentTotals(t *testing.T) {
	eng, ctx := newEngine(t)
	studentID, courseID := seed(t, eng, ctx)

	mayDate := time.Date(2026, time.May, 12, 0, 0, 0, 0, time.UTC)
	if _, _, err := eng.RecordPayment(ctx, studentID, courseID, types.KZT(16_000), mayDate, ""); err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}
	if _, _, err := eng.RecordPayment(ctx, studentID, courseID, types.KZT(16_000), testToday, ""); err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}

	totals, err := eng.MonthlyPaymentTotals(ctx, 2026)
	if err != nil {
		t.Fatalf("MonthlyPaymentTotals: %v", err)
	}
	if totals[time.May].Amount != 16_000 {
		t.Errorf("may total = %d, want 16000", totals[time.May].Amount)
	}
	if totals[time.August].Amount != 16_000 {
		t.Errorf("august total = %d, want 16000", totals[time.August].Amount)
	}
	if totals[time.January].Amount != 0 {
		t.Errorf("january total = %d, want 0", totals[time.January].Amount)
	}

	byCourse, err := eng.PaymentTotalsByCourse(ctx)
	if err != nil {
		t.Fatalf("PaymentTotalsByCourse: %v", err)
	}
	if byCourse[courseID.String()].Amount != 32_000 {
		t.Errorf("course total = %d, want 32000", byCourse[courseID.String()].Amount)
	}
}

func TestArchivedStudentRejectsMutations(t *testing.T) {
	eng, ctx := newEngine(t)
	studentID, courseID := seed(t, eng, ctx)

	if err := eng.ArchiveStudent(ctx, studentID); err != nil {
		t.Fatalf("ArchiveStudent: %v", err)
	}
	// Archiving again is a no-op.
	if err := eng.ArchiveStudent(ctx, studentID); err != nil {
		t.Fatalf("ArchiveStudent again: %v", err)
	}

	if _, err := eng.RecordAttendance(ctx, studentID, attendance.Record{
		CourseID: courseID, Date: testToday, ChargeMoney: true,
	}); !errors.Is(err, tuition.ErrStudentArchived) {
		t.Errorf("RecordAttendance err = %v, want ErrStudentArchived", err)
	}
	if _, _, err := eng.RecordPayment(ctx, studentID, courseID, types.KZT(100), testToday, ""); !errors.Is(err, tuition.ErrStudentArchived) {
		t.Errorf("RecordPayment err = %v, want ErrStudentArchived", err)
	}
	if _, err := eng.AddLessonsAttended(ctx, studentID, courseID, 1); !errors.Is(err, tuition.ErrStudentArchived) {
		t.Errorf("AddLessonsAttended err = %v, want ErrStudentArchived", err)
	}

	// History stays readable.
	if _, err := eng.GetStudent(ctx, studentID); err != nil {
		t.Errorf("GetStudent after archive: %v", err)
	}
	if _, err := eng.MonthlyDebt(ctx, studentID); err != nil {
		t.Errorf("MonthlyDebt after archive: %v", err)
	}
}

func TestEnrollCourse(t *testing.T) {
	eng, ctx := newEngine(t)
	studentID, courseID := seed(t, eng, ctx)

	if _, err := eng.EnrollCourse(ctx, studentID, courseID, testToday); !errors.Is(err, tuition.ErrAlreadyEnrolled) {
		t.Errorf("duplicate enroll err = %v, want ErrAlreadyEnrolled", err)
	}
	if err := eng.DeleteCourse(ctx, courseID); !errors.Is(err, tuition.ErrCourseInUse) {
		t.Errorf("delete enrolled course err = %v, want ErrCourseInUse", err)
	}

	enr, err := eng.AddLessonsAttended(ctx, studentID, courseID, 4)
	if err != nil {
		t.Fatalf("AddLessonsAttended: %v", err)
	}
	if enr.LessonsAttended != 4 {
		t.Errorf("lessons attended = %d, want 4", enr.LessonsAttended)
	}
	// The counter is reporting only and never moves the balance.
	st := mustStudent(t, eng, ctx, studentID)
	if st.Balance.Amount != 0 || st.NumLesson != 0 {
		t.Errorf("balance/num_lesson = %d/%d, want 0/0", st.Balance.Amount, st.NumLesson)
	}

	// Zero is a no-op, negative is invalid.
	if enr, err = eng.AddLessonsAttended(ctx, studentID, courseID, 0); err != nil || enr.LessonsAttended != 4 {
		t.Errorf("zero count: enr=%v err=%v, want unchanged enrollment", enr, err)
	}
	if _, err := eng.AddLessonsAttended(ctx, studentID, courseID, -1); !errors.Is(err, tuition.ErrInvalidLessonCount) {
		t.Errorf("negative count err = %v, want ErrInvalidLessonCount", err)
	}
}

func TestCreateCourseValidation(t *testing.T) {
	eng, ctx := newEngine(t)

	tests := []struct {
		name    string
		course  *course.Course
		wantErr error
	}{
		{
			name:    "zero lesson rate",
			course:  &course.Course{Name: "X", Cost: types.KZT(100), LessonPerMonth: 0},
			wantErr: tuition.ErrInvalidLessonRate,
		},
		{
			name:    "negative cost",
			course:  &course.Course{Name: "X", Cost: types.KZT(-100), LessonPerMonth: 8},
			wantErr: tuition.ErrInvalidCost,
		},
		{
			name: "bad week day",
			course: &course.Course{
				Name: "X", Cost: types.KZT(100), LessonPerMonth: 8,
				WeekDays: []string{"Funday"},
			},
			wantErr: tuition.ErrInvalidWeekDay,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := eng.CreateCourse(ctx, tt.course); !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}

	err := eng.CreateCourse(ctx, &course.Course{Cost: types.KZT(100), LessonPerMonth: 8})
	var ve tuition.ValidationError
	if !errors.As(err, &ve) || ve.Field != "name" {
		t.Errorf("missing name err = %v, want ValidationError on name", err)
	}
}

func TestEnrollCourseCurrencyMismatch(t *testing.T) {
	eng, ctx := newEngine(t)
	studentID, _ := seed(t, eng, ctx)

	usd := &course.Course{
		Name:           "IELTS Prep",
		Cost:           types.USD(30_000),
		LessonPerMonth: 4,
	}
	if err := eng.CreateCourse(ctx, usd); err != nil {
		t.Fatalf("CreateCourse: %v", err)
	}

	if _, err := eng.EnrollCourse(ctx, studentID, usd.ID, testToday); !errors.Is(err, tuition.ErrCurrencyMismatch) {
		t.Fatalf("enroll err = %v, want ErrCurrencyMismatch", err)
	}

	// The refused enrollment must leave debt reads intact.
	rep, err := eng.MonthlyDebt(ctx, studentID)
	if err != nil {
		t.Fatalf("MonthlyDebt: %v", err)
	}
	if len(rep.CourseBreakdown) != 1 {
		t.Errorf("breakdown = %d entries, want 1", len(rep.CourseBreakdown))
	}
	if _, err := eng.MonthlySummary(ctx); err != nil {
		t.Errorf("MonthlySummary: %v", err)
	}
}

func TestConcurrentAttendanceRecording(t *testing.T) {
	const writers = 8

	eng, ctx := newEngine(t, tuition.WithMaxRetries(4 * writers))
	studentID, courseID := seed(t, eng, ctx)

	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = eng.RecordAttendance(ctx, studentID, attendance.Record{
				CourseID:    courseID,
				Date:        time.Date(2026, time.August, 1+i, 0, 0, 0, 0, time.UTC),
				ChargeMoney: true,
			})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("writer %d: %v", i, err)
		}
	}

	// Every charge lands exactly once regardless of interleaving.
	st := mustStudent(t, eng, ctx, studentID)
	if want := int64(-writers * 2_000); st.Balance.Amount != want {
		t.Errorf("balance = %d, want %d", st.Balance.Amount, want)
	}
	if st.NumLesson != writers {
		t.Errorf("num_lesson = %d, want %d", st.NumLesson, writers)
	}
	if len(st.Attendance) != writers {
		t.Errorf("attendance records = %d, want %d", len(st.Attendance), writers)
	}
}

// conflictStore rejects every student save with a version conflict.
type conflictStore struct {
	*memory.Store
	saves int
}

func (s *conflictStore) SaveStudent(_ context.Context, _ *student.Student) error {
	s.saves++
	return tuition.ErrVersionConflict
}

func TestRecordAttendanceRetryExhaustion(t *testing.T) {
	cs := &conflictStore{Store: memory.New()}
	eng := tuition.New(cs,
		tuition.WithClock(func() time.Time { return testToday }),
		tuition.WithMaxRetries(2),
	)
	ctx := context.Background()
	if err := eng.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = eng.Stop() })
	studentID, courseID := seed(t, eng, ctx)

	_, err := eng.RecordAttendance(ctx, studentID, attendance.Record{
		CourseID: courseID, Date: testToday, ChargeMoney: true,
	})
	if !errors.Is(err, tuition.ErrVersionConflict) {
		t.Fatalf("err = %v, want wrapped ErrVersionConflict", err)
	}
	// maxRetries bounds the cycle: the initial attempt plus two retries.
	if cs.saves != 3 {
		t.Errorf("save attempts = %d, want 3", cs.saves)
	}
}

// failingSumStore breaks the payment-sum read used by debt reports.
type failingSumStore struct {
	*memory.Store
}

func (s *failingSumStore) SumPaymentsByStudent(_ context.Context, _ id.StudentID, _ string) (types.Money, error) {
	return types.Money{}, errors.New("sum unavailable")
}

func TestRecordPaymentReportFailure(t *testing.T) {
	fs := &failingSumStore{Store: memory.New()}
	eng := tuition.New(fs,
		tuition.WithClock(func() time.Time { return testToday }),
	)
	ctx := context.Background()
	if err := eng.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = eng.Stop() })
	studentID, courseID := seed(t, eng, ctx)

	// The payment lands and the error reports the failed read, so callers
	// see the failure without retrying the payment.
	p, rep, err := eng.RecordPayment(ctx, studentID, courseID, types.KZT(1_000), testToday, "")
	if err == nil {
		t.Fatal("expected an error from the failed report read")
	}
	if p == nil {
		t.Fatal("payment should be returned even when the report read fails")
	}
	if rep != nil {
		t.Errorf("report = %+v, want nil", rep)
	}

	st := mustStudent(t, eng, ctx, studentID)
	if st.Balance.Amount != 1_000 {
		t.Errorf("balance = %d, want 1000", st.Balance.Amount)
	}
	if got, err := eng.GetPayment(ctx, p.ID); err != nil || got == nil {
		t.Errorf("GetPayment: %v", err)
	}
}

func TestStatisticsExcludesForeignBalances(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	eng, ctx := newEngine(t, tuition.WithLogger(logger))
	studentID, courseID := seed(t, eng, ctx)
	if _, _, err := eng.RecordPayment(ctx, studentID, courseID, types.KZT(5_000), testToday, ""); err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}

	foreign := &student.Student{Name: "Elif", Surname: "Demir", Balance: types.USD(0)}
	if err := eng.CreateStudent(ctx, foreign); err != nil {
		t.Fatalf("CreateStudent: %v", err)
	}

	stats, err := eng.Statistics(ctx)
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}
	if stats.ActiveStudents != 2 {
		t.Errorf("active students = %d, want 2", stats.ActiveStudents)
	}
	if stats.TotalBalance.Amount != 5_000 || stats.TotalBalance.Currency != "kzt" {
		t.Errorf("total balance = %s, want 50.00 kzt", stats.TotalBalance)
	}
	if !strings.Contains(buf.String(), "balance excluded from statistics total") {
		t.Error("expected a debug log for the excluded balance")
	}
	if !strings.Contains(buf.String(), "student excluded from summary") {
		t.Error("expected a debug log for the excluded summary entry")
	}
}

// recorderPlugin captures emitted events for assertions.
type recorderPlugin struct {
	mu     sync.Mutex
	events []string
}

func (r *recorderPlugin) Name() string { return "recorder" }

func (r *recorderPlugin) record(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorderPlugin) OnStudentCreated(ctx context.Context, student interface{}) error {
	r.record("student.created")
	return nil
}

func (r *recorderPlugin) OnPaymentRecorded(ctx context.Context, payment interface{}) error {
	r.record("payment.recorded")
	return nil
}

func (r *recorderPlugin) OnBalanceReconciled(ctx context.Context, studentID string, oldBalance, newBalance int64) error {
	r.record("balance.reconciled")
	return nil
}

func (r *recorderPlugin) has(event string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e == event {
			return true
		}
	}
	return false
}

func TestPluginEvents(t *testing.T) {
	rec := &recorderPlugin{}
	eng, ctx := newEngine(t, tuition.WithPlugin(rec))
	studentID, courseID := seed(t, eng, ctx)

	if _, _, err := eng.RecordPayment(ctx, studentID, courseID, types.KZT(1_000), testToday, ""); err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}

	for _, event := range []string{"student.created", "payment.recorded", "balance.reconciled"} {
		if !rec.has(event) {
			t.Errorf("event %q not emitted", event)
		}
	}
}
