package model

import "time"

// Borrow record status codes.
const (
	BorrowPendingApproval = 0
	BorrowApproved        = 1
	BorrowRejected        = 2
	BorrowBorrowed        = 3
	BorrowReturned        = 4
	BorrowOverdue         = 5
)

// BorrowOutstandingStatuses are the statuses whose quantity counts against stock.
var BorrowOutstandingStatuses = []int{BorrowBorrowed, BorrowOverdue}

// BorrowRecord is one request to borrow units of a piece of equipment.
type BorrowRecord struct {
	ID               int64      `gorm:"primaryKey" json:"id"`
	EquipmentID      int64      `gorm:"not null;index" json:"equipmentId"`
	UserID           int64      `gorm:"not null;index" json:"userId"`
	BorrowDate       time.Time  `gorm:"not null" json:"borrowDate"`
	PlanReturnDate   time.Time  `gorm:"not null;index" json:"planReturnDate"`
	ActualReturnDate *time.Time `json:"actualReturnDate"`
	Purpose          string     `gorm:"type:text" json:"purpose"`
	Quantity         int        `gorm:"not null;default:1" json:"quantity"`
	Status           int        `gorm:"not null;index" json:"status"`
	ApproverID       *int64     `json:"approverId"`
	ApproveTime      *time.Time `json:"approveTime"`
	ApproveRemark    *string    `gorm:"type:text" json:"approveRemark"`
	CreateTime       time.Time  `gorm:"not null;index" json:"createTime"`
	UpdateTime       time.Time  `gorm:"not null" json:"updateTime"`
}

// TableName pins the borrow record table name.
func (BorrowRecord) TableName() string { return "equipment_borrow" }

// Outstanding reports whether the record currently holds units of its equipment.
func (r *BorrowRecord) Outstanding() bool {
	return r.Status == BorrowBorrowed || r.Status == BorrowOverdue
}
