package postgres

import (
	"encoding/json"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/tuition/attendance"
	"github.com/xraph/tuition/course"
	"github.com/xraph/tuition/enrollment"
	"github.com/xraph/tuition/id"
	"github.com/xraph/tuition/payment"
	"github.com/xraph/tuition/student"
	"github.com/xraph/tuition/types"
)

// ==================== Student models ====================

type studentModel struct {
	grove.BaseModel `grove:"table:tuition_students"`

	ID              string          `grove:"id,pk"`
	Name            string          `grove:"name"`
	Surname         string          `grove:"surname"`
	SecondName      string          `grove:"second_name"`
	StartingDate    time.Time       `grove:"starting_date"`
	NumLesson       int             `grove:"num_lesson"`
	BalanceAmount   int64           `grove:"balance_amount"`
	BalanceCurrency string          `grove:"balance_currency"`
	Attendance      json.RawMessage `grove:"attendance,type:jsonb"`
	IsArchived      bool            `grove:"is_archived"`
	Version         int64           `grove:"version"`
	CreatedAt       time.Time       `grove:"created_at"`
	UpdatedAt       time.Time       `grove:"updated_at"`
}

func toStudentModel(s *student.Student) *studentModel {
	records, _ := json.Marshal(s.Attendance) //nolint:errcheck // best-effort

	return &studentModel{
		ID:              s.ID.String(),
		Name:            s.Name,
		Surname:         s.Surname,
		SecondName:      s.SecondName,
		StartingDate:    s.StartingDate,
		NumLesson:       s.NumLesson,
		BalanceAmount:   s.Balance.Amount,
		BalanceCurrency: s.Balance.Currency,
		Attendance:      records,
		IsArchived:      s.Archived,
		Version:         s.Version,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

func fromStudentModel(m *studentModel) (*student.Student, error) {
	studentID, err := id.ParseStudentID(m.ID)
	if err != nil {
		return nil, err
	}

	var records []attendance.Record
	if len(m.Attendance) > 0 {
		_ = json.Unmarshal(m.Attendance, &records) //nolint:errcheck // best-effort
	}

	return &student.Student{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:           studentID,
		Name:         m.Name,
		Surname:      m.Surname,
		SecondName:   m.SecondName,
		StartingDate: m.StartingDate,
		NumLesson:    m.NumLesson,
		Balance:      types.Money{Amount: m.BalanceAmount, Currency: m.BalanceCurrency},
		Attendance:   records,
		Archived:     m.IsArchived,
		Version:      m.Version,
	}, nil
}

// ==================== Course models ====================

type courseModel struct {
	grove.BaseModel `grove:"table:tuition_courses"`

	ID             string          `grove:"id,pk"`
	Name           string          `grove:"name"`
	WeekDays       json.RawMessage `grove:"week_days,type:jsonb"`
	LessonPerMonth int             `grove:"lesson_per_month"`
	CostAmount     int64           `grove:"cost_amount"`
	CostCurrency   string          `grove:"cost_currency"`
	CreatedAt      time.Time       `grove:"created_at"`
	UpdatedAt      time.Time       `grove:"updated_at"`
}

func toCourseModel(c *course.Course) *courseModel {
	weekDays, _ := json.Marshal(c.WeekDays) //nolint:errcheck // best-effort

	return &courseModel{
		ID:             c.ID.String(),
		Name:           c.Name,
		WeekDays:       weekDays,
		LessonPerMonth: c.LessonPerMonth,
		CostAmount:     c.Cost.Amount,
		CostCurrency:   c.Cost.Currency,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func fromCourseModel(m *courseModel) (*course.Course, error) {
	courseID, err := id.ParseCourseID(m.ID)
	if err != nil {
		return nil, err
	}

	var weekDays []string
	if len(m.WeekDays) > 0 {
		_ = json.Unmarshal(m.WeekDays, &weekDays) //nolint:errcheck // best-effort
	}

	return &course.Course{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:             courseID,
		Name:           m.Name,
		WeekDays:       weekDays,
		LessonPerMonth: m.LessonPerMonth,
		Cost:           types.Money{Amount: m.CostAmount, Currency: m.CostCurrency},
	}, nil
}

// ==================== Enrollment models ====================

type enrollmentModel struct {
	grove.BaseModel `grove:"table:tuition_enrollments"`

	ID              string    `grove:"id,pk"`
	StudentID       string    `grove:"student_id"`
	CourseID        string    `grove:"course_id"`
	EnrollmentDate  time.Time `grove:"enrollment_date"`
	LessonsAttended int       `grove:"lessons_attended"`
	CreatedAt       time.Time `grove:"created_at"`
	UpdatedAt       time.Time `grove:"updated_at"`
}

func toEnrollmentModel(e *enrollment.Enrollment) *enrollmentModel {
	return &enrollmentModel{
		ID:              e.ID.String(),
		StudentID:       e.StudentID.String(),
		CourseID:        e.CourseID.String(),
		EnrollmentDate:  e.EnrollmentDate,
		LessonsAttended: e.LessonsAttended,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

func fromEnrollmentModel(m *enrollmentModel) (*enrollment.Enrollment, error) {
	enrollmentID, err := id.ParseEnrollmentID(m.ID)
	if err != nil {
		return nil, err
	}
	studentID, err := id.ParseStudentID(m.StudentID)
	if err != nil {
		return nil, err
	}
	courseID, err := id.ParseCourseID(m.CourseID)
	if err != nil {
		return nil, err
	}

	return &enrollment.Enrollment{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:              enrollmentID,
		StudentID:       studentID,
		CourseID:        courseID,
		EnrollmentDate:  m.EnrollmentDate,
		LessonsAttended: m.LessonsAttended,
	}, nil
}

// ==================== Payment models ====================

type paymentModel struct {
	grove.BaseModel `grove:"table:tuition_payments"`

	ID             string    `grove:"id,pk"`
	StudentID      string    `grove:"student_id"`
	CourseID       string    `grove:"course_id"`
	AmountCents    int64     `grove:"amount_cents"`
	AmountCurrency string    `grove:"amount_currency"`
	Date           time.Time `grove:"date"`
	Description    string    `grove:"description"`
	CreatedAt      time.Time `grove:"created_at"`
	UpdatedAt      time.Time `grove:"updated_at"`
}

func toPaymentModel(p *payment.Payment) *paymentModel {
	return &paymentModel{
		ID:             p.ID.String(),
		StudentID:      p.StudentID.String(),
		CourseID:       p.CourseID.String(),
		AmountCents:    p.Amount.Amount,
		AmountCurrency: p.Amount.Currency,
		Date:           p.Date,
		Description:    p.Description,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func fromPaymentModel(m *paymentModel) (*payment.Payment, error) {
	paymentID, err := id.ParsePaymentID(m.ID)
	if err != nil {
		return nil, err
	}
	studentID, err := id.ParseStudentID(m.StudentID)
	if err != nil {
		return nil, err
	}
	courseID, err := id.ParseCourseID(m.CourseID)
	if err != nil {
		return nil, err
	}

	return &payment.Payment{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:          paymentID,
		StudentID:   studentID,
		CourseID:    courseID,
		Amount:      types.Money{Amount: m.AmountCents, Currency: m.AmountCurrency},
		Date:        m.Date,
		Description: m.Description,
	}, nil
}
