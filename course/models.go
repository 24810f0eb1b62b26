package course

import (
	"github.com/xraph/tuition/id"
	"github.com/xraph/tuition/types"
)

// Course is a billed group with a monthly fee and a fixed lesson schedule.
type Course struct {
	types.Entity
	ID             id.CourseID `json:"id"`
	Name           string      `json:"name"`
	WeekDays       []string    `json:"week_days"`
	LessonPerMonth int         `json:"lesson_per_month"`
	Cost           types.Money `json:"cost"` // monthly fee
}

// ValidWeekDays are the accepted schedule day names.
var ValidWeekDays = []string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// LessonCost returns the per-attendance monetary unit: the monthly cost
// divided by the number of lessons per month. It is computed on demand and
// never stored, so a price change takes effect on the next charge or
// reversal.
func (c *Course) LessonCost() types.Money {
	return c.Cost.Divide(int64(c.LessonPerMonth))
}

// HasWeekDay reports whether the course is scheduled on the given day name.
func (c *Course) HasWeekDay(day string) bool {
	for _, d := range c.WeekDays {
		if d == day {
			return true
		}
	}
	return false
}

// ListOpts filters course listings.
type ListOpts struct {
	Limit  int
	Offset int
}
