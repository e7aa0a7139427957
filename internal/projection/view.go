package projection

import (
	"time"

	"labequip-backend/internal/model"
)

// Page is one page of projected rows.
type Page[T any] struct {
	List  []T   `json:"list"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Size  int   `json:"size"`
}

// BorrowView is the client-facing shape of a borrow record.
type BorrowView struct {
	ID                 int64      `json:"id"`
	EquipmentID        int64      `json:"equipmentId"`
	EquipmentName      string     `json:"equipmentName"`
	EquipmentModel     string     `json:"equipmentModel,omitempty"`
	EquipmentAssetCode string     `json:"equipmentAssetCode,omitempty"`
	UserID             int64      `json:"userId"`
	UserName           string     `json:"userName"`
	UserDepartment     string     `json:"userDepartment,omitempty"`
	BorrowDate         time.Time  `json:"borrowDate"`
	PlanReturnDate     time.Time  `json:"planReturnDate"`
	ActualReturnDate   *time.Time `json:"actualReturnDate"`
	Purpose            string     `json:"purpose,omitempty"`
	Quantity           int        `json:"quantity"`
	Status             int        `json:"status"`
	StatusName         string     `json:"statusName"`
	ApproverID         *int64     `json:"approverId,omitempty"`
	ApproverName       string     `json:"approverName,omitempty"`
	ApproveTime        *time.Time `json:"approveTime"`
	ApproveRemark      *string    `json:"approveRemark,omitempty"`
	CreateTime         time.Time  `json:"createTime"`
	UpdateTime         time.Time  `json:"updateTime"`
}

// ReservationView is the client-facing shape of a laboratory reservation.
type ReservationView struct {
	ID              int64        `json:"id"`
	LaboratoryID    int64        `json:"laboratoryId"`
	LaboratoryName  string       `json:"laboratoryName"`
	LaboratoryCode  string       `json:"laboratoryCode,omitempty"`
	UserID          int64        `json:"userId"`
	UserName        string       `json:"userName"`
	ReserveDate     string       `json:"reserveDate"`
	StartTime       model.Clock  `json:"startTime"`
	EndTime         model.Clock  `json:"endTime"`
	Purpose         string       `json:"purpose,omitempty"`
	Status          int          `json:"status"`
	StatusName      string       `json:"statusName"`
	ApproverID      *int64       `json:"approverId,omitempty"`
	ApproverName    string       `json:"approverName,omitempty"`
	ApproveTime     *time.Time   `json:"approveTime"`
	ApproveRemark   *string      `json:"approveRemark,omitempty"`
	ActualStartTime *model.Clock `json:"actualStartTime,omitempty"`
	ActualEndTime   *model.Clock `json:"actualEndTime,omitempty"`
	UsageRemark     *string      `json:"usageRemark,omitempty"`
	CreateTime      time.Time    `json:"createTime"`
	UpdateTime      time.Time    `json:"updateTime"`
}

// Names carries the resolved counterpart entities of a batch of records.
// Missing ids simply have no entry.
type Names struct {
	Equipment    map[int64]model.Equipment
	Laboratories map[int64]model.Laboratory
	Users        map[int64]model.User
}

func (n Names) userName(id *int64) string {
	if id == nil {
		return ""
	}
	if u, ok := n.Users[*id]; ok {
		return u.DisplayName()
	}
	return ""
}

// Borrow projects one borrow record.
func (n Names) Borrow(r model.BorrowRecord, detail bool) BorrowView {
	eq := n.Equipment[r.EquipmentID]
	user := n.Users[r.UserID]
	v := BorrowView{
		ID:               r.ID,
		EquipmentID:      r.EquipmentID,
		EquipmentName:    eq.Name,
		UserID:           r.UserID,
		UserName:         user.DisplayName(),
		BorrowDate:       r.BorrowDate,
		PlanReturnDate:   r.PlanReturnDate,
		ActualReturnDate: r.ActualReturnDate,
		Quantity:         r.Quantity,
		Status:           r.Status,
		StatusName:       BorrowStatusName(r.Status),
		ApproverName:     n.userName(r.ApproverID),
		ApproveTime:      r.ApproveTime,
		CreateTime:       r.CreateTime,
		UpdateTime:       r.UpdateTime,
	}
	if detail {
		v.EquipmentModel = eq.Model
		v.EquipmentAssetCode = eq.AssetCode
		v.UserDepartment = user.Department
		v.Purpose = r.Purpose
		v.ApproverID = r.ApproverID
		v.ApproveRemark = r.ApproveRemark
	}
	return v
}

// Reservation projects one reservation.
func (n Names) Reservation(r model.Reservation, detail bool) ReservationView {
	lab := n.Laboratories[r.LaboratoryID]
	v := ReservationView{
		ID:             r.ID,
		LaboratoryID:   r.LaboratoryID,
		LaboratoryName: lab.Name,
		UserID:         r.UserID,
		UserName:       n.Users[r.UserID].DisplayName(),
		ReserveDate:    r.ReserveDate,
		StartTime:      r.StartTime,
		EndTime:        r.EndTime,
		Status:         r.Status,
		StatusName:     ReservationStatusName(r.Status),
		ApproverName:   n.userName(r.ApproverID),
		ApproveTime:    r.ApproveTime,
		CreateTime:     r.CreateTime,
		UpdateTime:     r.UpdateTime,
	}
	if detail {
		v.LaboratoryCode = lab.Code
		v.Purpose = r.Purpose
		v.ApproverID = r.ApproverID
		v.ApproveRemark = r.ApproveRemark
		v.ActualStartTime = r.ActualStartTime
		v.ActualEndTime = r.ActualEndTime
		v.UsageRemark = r.UsageRemark
	}
	return v
}
