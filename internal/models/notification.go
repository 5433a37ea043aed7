package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// NotificationDetails carries the structured enrollment context shown to
// the class analyst. Stored as JSONB.
type NotificationDetails struct {
	RegistrarName    string `json:"registrar_name"`
	StudentName      string `json:"student_name"`
	StudentBirthDate string `json:"student_birth_date"`
	StudentAge       int    `json:"student_age"`
	StudentPhone     string `json:"student_phone"`
}

// Value implements driver.Valuer.
func (d NotificationDetails) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// Scan implements sql.Scanner.
func (d *NotificationDetails) Scan(src interface{}) error {
	if src == nil {
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	}
	return fmt.Errorf("unsupported notification details type %T", src)
}

// Notification is a per-recipient message. Only the recipient mutates it,
// and only by marking it read; notifications are never deleted.
type Notification struct {
	ID          string               `db:"id" json:"id"`
	RecipientID string               `db:"recipient_id" json:"recipient_id"`
	Title       string               `db:"title" json:"title"`
	Message     string               `db:"message" json:"message"`
	Details     *NotificationDetails `db:"details" json:"details,omitempty"`
	Read        bool                 `db:"read" json:"read"`
	CreatedAt   time.Time            `db:"created_at" json:"created_at"`
}
