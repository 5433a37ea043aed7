package dto

import "github.com/viva-esporte/arena-api/internal/models"

// ClassPayload is the full class definition carried by a CREATE request.
// Counters are intentionally absent: approved classes always start at 0/0.
type ClassPayload struct {
	Title       string             `json:"title" validate:"required"`
	Description *string            `json:"description,omitempty"`
	Modality    string             `json:"modality" validate:"required"`
	AnalystID   string             `json:"analyst_id" validate:"required"`
	Days        []string           `json:"days" validate:"required,min=1"`
	TimeRange   string             `json:"time_range" validate:"required"`
	Location    string             `json:"location" validate:"required"`
	Capacity    int                `json:"capacity" validate:"required,gt=0"`
	MinAge      int                `json:"min_age" validate:"gte=0"`
	MaxAge      int                `json:"max_age" validate:"gtefield=MinAge"`
	Status      models.ClassStatus `json:"status,omitempty"`
}

// ClassPatch is the partial update carried by an UPDATE request. Only
// non-nil fields are applied; Days replaces the whole array.
type ClassPatch struct {
	Title       *string             `json:"title,omitempty"`
	Description *string             `json:"description,omitempty"`
	Modality    *string             `json:"modality,omitempty"`
	AnalystID   *string             `json:"analyst_id,omitempty"`
	Days        []string            `json:"days,omitempty"`
	TimeRange   *string             `json:"time_range,omitempty"`
	Location    *string             `json:"location,omitempty"`
	Capacity    *int                `json:"capacity,omitempty"`
	MinAge      *int                `json:"min_age,omitempty"`
	MaxAge      *int                `json:"max_age,omitempty"`
	Status      *models.ClassStatus `json:"status,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p ClassPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Modality == nil &&
		p.AnalystID == nil && p.Days == nil && p.TimeRange == nil &&
		p.Location == nil && p.Capacity == nil && p.MinAge == nil &&
		p.MaxAge == nil && p.Status == nil
}

// ResolveRequest captures the coordinator decision for a pending request.
type ResolveRequest struct {
	Approved bool `json:"approved"`
}
