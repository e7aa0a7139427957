package api

import (
	"github.com/gin-gonic/gin"

	"labequip-backend/internal/borrow"
	"labequip-backend/internal/store"
)

type createBorrowRequest struct {
	EquipmentID    *int64    `json:"equipmentId"`
	BorrowDate     *dateTime `json:"borrowDate"`
	PlanReturnDate *dateTime `json:"planReturnDate"`
	Purpose        string    `json:"purpose"`
	Quantity       *int      `json:"quantity"`
}

type approveRequest struct {
	Status        *int   `json:"status"`
	Remark        string `json:"remark"`
	ApproveRemark string `json:"approveRemark"`
}

func (r approveRequest) remark() string {
	if r.ApproveRemark != "" {
		return r.ApproveRemark
	}
	return r.Remark
}

type handoutRequest struct {
	BorrowDate       *dateTime `json:"borrowDate"`
	ActualBorrowDate *dateTime `json:"actualBorrowDate"`
}

type returnRequest struct {
	ActualReturnDate *dateTime `json:"actualReturnDate"`
	Remark           string    `json:"remark"`
}

// ListBorrows handles GET /borrow.
func (h *Handler) ListBorrows(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var f borrow.Filter
	if f.EquipmentID, ok = optionalInt64(c, "equipmentId"); !ok {
		return
	}
	if f.UserID, ok = optionalInt64(c, "userId"); !ok {
		return
	}
	if f.Status, ok = optionalInt(c, "status"); !ok {
		return
	}
	if f.BorrowDateStart, ok = optionalDate(c, "borrowDateStart"); !ok {
		return
	}
	if f.BorrowDateEnd, ok = optionalDate(c, "borrowDateEnd"); !ok {
		return
	}
	f.SortBy = c.Query("sortBy")
	f.SortOrder = c.Query("sortOrder")

	page, err := h.borrows.List(c.Request.Context(), a, f, store.NewPage(intQuery(c, "page"), intQuery(c, "size")))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "获取成功", page)
}

// GetBorrow handles GET /borrow/:id.
func (h *Handler) GetBorrow(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	view, err := h.borrows.Get(c.Request.Context(), a, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "获取成功", view)
}

// CreateBorrow handles POST /borrow.
func (h *Handler) CreateBorrow(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req createBorrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, msgBadBody)
		return
	}
	switch {
	case req.EquipmentID == nil:
		badRequest(c, "参数错误：设备ID不能为空")
		return
	case req.BorrowDate.ptr() == nil:
		badRequest(c, "参数错误：借用日期不能为空")
		return
	case req.PlanReturnDate.ptr() == nil:
		badRequest(c, "参数错误：计划归还日期不能为空")
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	view, err := h.borrows.Create(c.Request.Context(), a, borrow.CreateInput{
		EquipmentID:    *req.EquipmentID,
		BorrowDate:     req.BorrowDate.Time,
		PlanReturnDate: req.PlanReturnDate.Time,
		Purpose:        req.Purpose,
		Quantity:       quantity,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "借用申请提交成功", view)
}

// ApproveBorrow handles PUT /borrow/:id/approve.
func (h *Handler) ApproveBorrow(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req approveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, msgBadBody)
		return
	}
	if req.Status == nil {
		badRequest(c, "参数错误：审批状态不能为空")
		return
	}
	view, err := h.borrows.Approve(c.Request.Context(), a, id, *req.Status, req.remark())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "审批成功", view)
}

// ConfirmHandout handles PUT /borrow/:id/borrow. The body is optional.
func (h *Handler) ConfirmHandout(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req handoutRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	at := req.ActualBorrowDate.ptr()
	if at == nil {
		at = req.BorrowDate.ptr()
	}
	view, err := h.borrows.ConfirmHandout(c.Request.Context(), a, id, at)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "设备借出确认成功", view)
}

// ReturnBorrow handles PUT /borrow/:id/return. The body is optional.
func (h *Handler) ReturnBorrow(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req returnRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	view, err := h.borrows.Return(c.Request.Context(), a, id, req.ActualReturnDate.ptr(), req.Remark)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "设备归还成功", view)
}

// MarkOverdue handles PUT /borrow/mark-overdue.
func (h *Handler) MarkOverdue(c *gin.Context) {
	n, err := h.borrows.SweepOverdue(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "逾期标记完成", gin.H{"overdueCount": n})
}

// AvailableQuantity handles GET /borrow/available-quantity/:equipmentId.
func (h *Handler) AvailableQuantity(c *gin.Context) {
	id, ok := pathID(c, "equipmentId")
	if !ok {
		return
	}
	avail, err := h.borrows.AvailableQuantity(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "获取成功", avail)
}
