package models

import "time"

// AttendanceRecord stores one student's presence for a class on a date.
// Records are keyed by (class, date, student); resubmitting a roll call
// overwrites the prior record instead of duplicating it.
type AttendanceRecord struct {
	ID            string    `db:"id" json:"id"`
	ClassID       string    `db:"class_id" json:"class_id"`
	Date          time.Time `db:"date" json:"date"`
	StudentID     string    `db:"student_id" json:"student_id"`
	Present       bool      `db:"present" json:"present"`
	Justification *string   `db:"justification" json:"justification,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// AttendanceFilter provides read filters owned by callers.
type AttendanceFilter struct {
	ClassID   string
	StudentID string
	Date      *time.Time
}
