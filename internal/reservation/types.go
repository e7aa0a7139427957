package reservation

import "labequip-backend/internal/model"

// Filter narrows a reservation list. Nil fields do not filter.
type Filter struct {
	LaboratoryID *int64
	UserID       *int64
	ReserveDate  *string
	Status       *int
	SortBy       string
	SortOrder    string
}

// CreateInput is a new reservation request.
type CreateInput struct {
	LaboratoryID int64
	ReserveDate  string
	StartTime    model.Clock
	EndTime      model.Clock
	Purpose      string
}

// CompleteInput records how a reservation was actually used. Nil fields keep their stored value.
type CompleteInput struct {
	ActualStartTime *model.Clock
	ActualEndTime   *model.Clock
	UsageRemark     string
}

// CheckInput asks whether a slot would collide with blocking reservations.
type CheckInput struct {
	LaboratoryID int64
	ReserveDate  string
	StartTime    model.Clock
	EndTime      model.Clock
	ExcludeID    int64
}

// ConflictInfo identifies one colliding reservation.
type ConflictInfo struct {
	ID        int64       `json:"id"`
	StartTime model.Clock `json:"startTime"`
	EndTime   model.Clock `json:"endTime"`
	Status    int         `json:"status"`
}

// ConflictResult is the answer to CheckConflict.
type ConflictResult struct {
	HasConflict bool           `json:"hasConflict"`
	Conflicts   []ConflictInfo `json:"conflictList"`
}

// TimeSlot is a free [StartTime, EndTime) window.
type TimeSlot struct {
	StartTime model.Clock `json:"startTime"`
	EndTime   model.Clock `json:"endTime"`
}

var sortColumns = map[string]string{
	"createTime":  "create_time",
	"reserveDate": "reserve_date",
	"startTime":   "start_time",
	"status":      "status",
	"id":          "id",
}
