package model

import "time"

// Reservation status codes.
const (
	ReservationPendingApproval = 0
	ReservationApproved        = 1
	ReservationRejected        = 2
	ReservationCancelled       = 3
	ReservationCompleted       = 4
	ReservationInUse           = 5
)

// ReservationBlockingStatuses are the statuses that occupy a laboratory time slot.
var ReservationBlockingStatuses = []int{ReservationApproved, ReservationInUse}

// DateLayout is the wire and storage format of a reservation date.
const DateLayout = "2006-01-02"

// Reservation books a laboratory for [StartTime, EndTime) on ReserveDate.
// ReserveDate is stored as YYYY-MM-DD so that lexical order is calendar order.
type Reservation struct {
	ID              int64      `gorm:"primaryKey" json:"id"`
	LaboratoryID    int64      `gorm:"not null;index:idx_reservation_slot,priority:1" json:"laboratoryId"`
	UserID          int64      `gorm:"not null;index" json:"userId"`
	ReserveDate     string     `gorm:"size:10;not null;index:idx_reservation_slot,priority:2" json:"reserveDate"`
	StartTime       Clock      `gorm:"not null" json:"startTime"`
	EndTime         Clock      `gorm:"not null" json:"endTime"`
	Purpose         string     `gorm:"type:text" json:"purpose"`
	Status          int        `gorm:"not null;index" json:"status"`
	ApproverID      *int64     `json:"approverId"`
	ApproveTime     *time.Time `json:"approveTime"`
	ApproveRemark   *string    `gorm:"type:text" json:"approveRemark"`
	ActualStartTime *Clock     `json:"actualStartTime"`
	ActualEndTime   *Clock     `json:"actualEndTime"`
	UsageRemark     *string    `gorm:"type:text" json:"usageRemark"`
	CreateTime      time.Time  `gorm:"not null;index" json:"createTime"`
	UpdateTime      time.Time  `gorm:"not null" json:"updateTime"`
}

// TableName pins the reservation table name.
func (Reservation) TableName() string { return "laboratory_reservation" }

// Overlaps reports whether [start, end) intersects the reservation's interval.
func (r *Reservation) Overlaps(start, end Clock) bool {
	return r.StartTime < end && r.EndTime > start
}
