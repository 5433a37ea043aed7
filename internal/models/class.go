package models

import (
	"time"

	"github.com/lib/pq"
)

// ClassStatus represents the lifecycle of a sport class.
type ClassStatus string

const (
	ClassStatusActive    ClassStatus = "ACTIVE"
	ClassStatusSuspended ClassStatus = "SUSPENDED"
	ClassStatusFinished  ClassStatus = "FINISHED"
)

// Valid reports whether the status is one of the known values.
func (s ClassStatus) Valid() bool {
	switch s {
	case ClassStatusActive, ClassStatusSuspended, ClassStatusFinished:
		return true
	}
	return false
}

// SportClass represents a sports activity offered by the center.
// EnrolledCount and WaitingListCount are cached counters owned by the
// capacity ledger; they must always match the enrollment rows with status
// CONFIRMED and WAITING_LIST for this class.
type SportClass struct {
	ID               string         `db:"id" json:"id"`
	Title            string         `db:"title" json:"title"`
	Description      *string        `db:"description" json:"description,omitempty"`
	Modality         string         `db:"modality" json:"modality"`
	AnalystID        string         `db:"analyst_id" json:"analyst_id"`
	AnalystName      string         `db:"analyst_name" json:"analyst_name"`
	Days             pq.StringArray `db:"days" json:"days"`
	TimeRange        string         `db:"time_range" json:"time_range"`
	Location         string         `db:"location" json:"location"`
	Capacity         int            `db:"capacity" json:"capacity"`
	MinAge           int            `db:"min_age" json:"min_age"`
	MaxAge           int            `db:"max_age" json:"max_age"`
	Status           ClassStatus    `db:"status" json:"status"`
	EnrolledCount    int            `db:"enrolled_count" json:"enrolled_count"`
	WaitingListCount int            `db:"waiting_list_count" json:"waiting_list_count"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

// ClassCounters is the capacity ledger's view of a class.
type ClassCounters struct {
	Capacity         int `db:"capacity"`
	EnrolledCount    int `db:"enrolled_count"`
	WaitingListCount int `db:"waiting_list_count"`
}

// Full reports whether every capacity-counted seat is taken.
func (c ClassCounters) Full() bool {
	return c.EnrolledCount >= c.Capacity
}

// ClassFilter defines filter criteria for listing classes.
type ClassFilter struct {
	Modality  string
	Status    ClassStatus
	AnalystID string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
