package borrow

import "time"

// Filter narrows a borrow list. Nil fields do not filter. BorrowDateStart and
// BorrowDateEnd are whole days: the range covers both days completely.
type Filter struct {
	EquipmentID     *int64
	UserID          *int64
	Status          *int
	BorrowDateStart *time.Time
	BorrowDateEnd   *time.Time
	SortBy          string
	SortOrder       string
}

// CreateInput is a new borrow request.
type CreateInput struct {
	EquipmentID    int64
	BorrowDate     time.Time
	PlanReturnDate time.Time
	Purpose        string
	Quantity       int
}

// Availability is the stock picture of one equipment.
type Availability struct {
	EquipmentID int64 `json:"equipmentId"`
	Total       int   `json:"totalQuantity"`
	InUse       int   `json:"borrowedQuantity"`
	Available   int   `json:"availableQuantity"`
}

var sortColumns = map[string]string{
	"createTime":     "create_time",
	"borrowDate":     "borrow_date",
	"planReturnDate": "plan_return_date",
	"status":         "status",
	"id":             "id",
}
