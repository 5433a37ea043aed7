package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionLogin            = "LOGIN"
	AuditActionAddUser          = "ADD_USER"
	AuditActionUpdateUser       = "UPDATE_USER"
	AuditActionDeleteUser       = "DELETE_USER"
	AuditActionAddClass         = "ADD_CLASS"
	AuditActionUpdateClass      = "UPDATE_CLASS"
	AuditActionDeleteClass      = "DELETE_CLASS"
	AuditActionEnrollStudent    = "ENROLL_STUDENT"
	AuditActionCancelEnrollment = "CANCEL_ENROLLMENT"
	AuditActionRequestCreate    = "REQUEST_CREATE"
	AuditActionRequestUpdate    = "REQUEST_UPDATE"
	AuditActionResolveRequest   = "RESOLVE_REQUEST"
	AuditActionSubmitAttendance = "SUBMIT_ATTENDANCE"
	AuditActionExportReport     = "EXPORT_REPORT"
)

// AuditLog is an immutable record of who did what. Rows are append-only
// and presented newest-first; filtering belongs to consumers.
type AuditLog struct {
	ID        string    `db:"id" json:"id"`
	ActorID   string    `db:"actor_id" json:"actor_id"`
	ActorName string    `db:"actor_name" json:"actor_name"`
	ActorRole UserRole  `db:"actor_role" json:"actor_role"`
	Action    string    `db:"action" json:"action"`
	Details   string    `db:"details" json:"details"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
