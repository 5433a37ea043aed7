package models

import "time"

// RequestType enumerates the change-request kinds handled by the workflow
// engine. The payload shape depends on the type: a full class definition
// for CREATE, a partial patch for UPDATE, and no payload for
// ENROLLMENT_OVERRIDE (the student/class references live on the row).
type RequestType string

const (
	RequestTypeCreate             RequestType = "CREATE"
	RequestTypeUpdate             RequestType = "UPDATE"
	RequestTypeEnrollmentOverride RequestType = "ENROLLMENT_OVERRIDE"
)

// RequestStatus captures workflow states for change requests.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "PENDING"
	RequestStatusApproved RequestStatus = "APPROVED"
	RequestStatusRejected RequestStatus = "REJECTED"
)

// ChangeRequest stores a pending change awaiting coordinator review.
// Resolution is one-way: PENDING transitions to APPROVED or REJECTED
// exactly once and is never reversed.
type ChangeRequest struct {
	ID               string        `db:"id" json:"id"`
	Type             RequestType   `db:"type" json:"type"`
	ClassID          string        `db:"class_id" json:"class_id"`
	ClassTitle       string        `db:"class_title" json:"class_title"`
	RequesterID      string        `db:"requester_id" json:"requester_id"`
	RequesterName    string        `db:"requester_name" json:"requester_name"`
	StudentID        *string       `db:"student_id" json:"student_id,omitempty"`
	StudentName      *string       `db:"student_name" json:"student_name,omitempty"`
	RequestedChanges []byte        `db:"requested_changes" json:"requested_changes,omitempty"`
	Status           RequestStatus `db:"status" json:"status"`
	ResolvedBy       *string       `db:"resolved_by" json:"resolved_by,omitempty"`
	ResolvedAt       *time.Time    `db:"resolved_at" json:"resolved_at,omitempty"`
	CreatedAt        time.Time     `db:"created_at" json:"created_at"`
}

// RequestFilter constrains listing queries.
type RequestFilter struct {
	Status      []RequestStatus
	Type        RequestType
	RequesterID string
	ClassID     string
	Limit       int
	Offset      int
}
