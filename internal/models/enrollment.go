package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses. RESERVED holds a seat pending in-person
// confirmation and counts against capacity like CONFIRMED.
const (
	EnrollmentStatusConfirmed   EnrollmentStatus = "CONFIRMED"
	EnrollmentStatusWaitingList EnrollmentStatus = "WAITING_LIST"
	EnrollmentStatusCanceled    EnrollmentStatus = "CANCELED"
	EnrollmentStatusReserved    EnrollmentStatus = "RESERVED"
)

// CountsAsSeat reports whether the status occupies a capacity-counted seat.
func (s EnrollmentStatus) CountsAsSeat() bool {
	return s == EnrollmentStatusConfirmed || s == EnrollmentStatusReserved
}

// Enrollment captures one student's relationship to one class. The student
// name is snapshotted at creation time so listings survive profile edits.
type Enrollment struct {
	ID          string           `db:"id" json:"id"`
	ClassID     string           `db:"class_id" json:"class_id"`
	StudentID   string           `db:"student_id" json:"student_id"`
	StudentName string           `db:"student_name" json:"student_name"`
	Status      EnrollmentStatus `db:"status" json:"status"`
	ExpiresAt   *time.Time       `db:"expires_at" json:"expires_at,omitempty"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
}

// EnrollmentFilter provides filters for listing enrollments. Results are
// always ordered by creation so waitlist position follows insertion order.
type EnrollmentFilter struct {
	ClassID   string
	StudentID string
	Status    EnrollmentStatus
	Page      int
	PageSize  int
}
