package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the tuition store.
var Migrations = migrate.NewGroup("tuition")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_tuition_students",
			Version: "20240101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS tuition_students (
    id               TEXT PRIMARY KEY,
    name             TEXT NOT NULL DEFAULT '',
    surname          TEXT NOT NULL DEFAULT '',
    second_name      TEXT NOT NULL DEFAULT '',
    starting_date    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    num_lesson       INT NOT NULL DEFAULT 0,
    balance_amount   BIGINT NOT NULL DEFAULT 0,
    balance_currency TEXT NOT NULL DEFAULT '',
    attendance       JSONB NOT NULL DEFAULT '[]',
    is_archived      BOOLEAN NOT NULL DEFAULT FALSE,
    version          BIGINT NOT NULL DEFAULT 0,
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_tuition_students_archived ON tuition_students (is_archived);
CREATE INDEX IF NOT EXISTS idx_tuition_students_surname ON tuition_students (surname, name);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS tuition_students`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_tuition_courses",
			Version: "20240101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS tuition_courses (
    id               TEXT PRIMARY KEY,
    name             TEXT NOT NULL DEFAULT '',
    week_days        JSONB NOT NULL DEFAULT '[]',
    lesson_per_month INT NOT NULL DEFAULT 0,
    cost_amount      BIGINT NOT NULL DEFAULT 0,
    cost_currency    TEXT NOT NULL DEFAULT '',
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_tuition_courses_name ON tuition_courses (name);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS tuition_courses`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_tuition_enrollments",
			Version: "20240101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS tuition_enrollments (
    id               TEXT PRIMARY KEY,
    student_id       TEXT NOT NULL DEFAULT '',
    course_id        TEXT NOT NULL DEFAULT '',
    enrollment_date  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    lessons_attended INT NOT NULL DEFAULT 0,
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_tuition_enrollments_pair ON tuition_enrollments (student_id, course_id);
CREATE INDEX IF NOT EXISTS idx_tuition_enrollments_course ON tuition_enrollments (course_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS tuition_enrollments`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_tuition_payments",
			Version: "20240101000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS tuition_payments (
    id              TEXT PRIMARY KEY,
    student_id      TEXT NOT NULL DEFAULT '',
    course_id       TEXT NOT NULL DEFAULT '',
    amount_cents    BIGINT NOT NULL DEFAULT 0,
    amount_currency TEXT NOT NULL DEFAULT '',
    date            TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    description     TEXT NOT NULL DEFAULT '',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_tuition_payments_student ON tuition_payments (student_id, date);
CREATE INDEX IF NOT EXISTS idx_tuition_payments_course ON tuition_payments (course_id, date);
CREATE INDEX IF NOT EXISTS idx_tuition_payments_date ON tuition_payments (date);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS tuition_payments`)
				return err
			},
		},
	)
}
