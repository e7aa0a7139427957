// Package projection shapes borrow and reservation records into the flat views
// returned to clients. List rows and details share one view type per record and
// differ only in which optional fields are filled.
package projection

import "labequip-backend/internal/model"

const unknownStatus = "未知"

var borrowStatusNames = map[int]string{
	model.BorrowPendingApproval: "待审批",
	model.BorrowApproved:        "已通过",
	model.BorrowRejected:        "已拒绝",
	model.BorrowBorrowed:        "已借出",
	model.BorrowReturned:        "已归还",
	model.BorrowOverdue:         "已逾期",
}

var reservationStatusNames = map[int]string{
	model.ReservationPendingApproval: "待审批",
	model.ReservationApproved:        "已通过",
	model.ReservationRejected:        "已拒绝",
	model.ReservationCancelled:       "已取消",
	model.ReservationCompleted:       "已完成",
	model.ReservationInUse:           "已使用",
}

// BorrowStatusName returns the display label of a borrow status code.
func BorrowStatusName(status int) string {
	if name, ok := borrowStatusNames[status]; ok {
		return name
	}
	return unknownStatus
}

// ReservationStatusName returns the display label of a reservation status code.
func ReservationStatusName(status int) string {
	if name, ok := reservationStatusNames[status]; ok {
		return name
	}
	return unknownStatus
}
