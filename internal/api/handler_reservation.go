package api

import (
	"strings"

	"github.com/gin-gonic/gin"

	"labequip-backend/internal/model"
	"labequip-backend/internal/reservation"
	"labequip-backend/internal/store"
)

type createReservationRequest struct {
	LaboratoryID *int64       `json:"laboratoryId"`
	ReserveDate  string       `json:"reserveDate"`
	StartTime    *model.Clock `json:"startTime"`
	EndTime      *model.Clock `json:"endTime"`
	Purpose      string       `json:"purpose"`
}

type cancelRequest struct {
	Remark string `json:"remark"`
}

type completeRequest struct {
	ActualStartTime *model.Clock `json:"actualStartTime"`
	ActualEndTime   *model.Clock `json:"actualEndTime"`
	UsageRemark     string       `json:"usageRemark"`
}

type checkConflictRequest struct {
	LaboratoryID *int64       `json:"laboratoryId"`
	ReserveDate  string       `json:"reserveDate"`
	StartTime    *model.Clock `json:"startTime"`
	EndTime      *model.Clock `json:"endTime"`
	ExcludeID    int64        `json:"excludeId"`
}

// slotFieldsMissing reports the first required slot field left out of a request.
func slotFieldsMissing(c *gin.Context, laboratoryID *int64, reserveDate string, start, end *model.Clock) bool {
	switch {
	case laboratoryID == nil:
		badRequest(c, "参数错误：实验室ID不能为空")
	case strings.TrimSpace(reserveDate) == "":
		badRequest(c, "参数错误：预约日期不能为空")
	case start == nil:
		badRequest(c, "参数错误：开始时间不能为空")
	case end == nil:
		badRequest(c, "参数错误：结束时间不能为空")
	default:
		return false
	}
	return true
}

// ListReservations handles GET /reservation.
func (h *Handler) ListReservations(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var f reservation.Filter
	if f.LaboratoryID, ok = optionalInt64(c, "laboratoryId"); !ok {
		return
	}
	if f.UserID, ok = optionalInt64(c, "userId"); !ok {
		return
	}
	if f.Status, ok = optionalInt(c, "status"); !ok {
		return
	}
	if d := strings.TrimSpace(c.Query("reserveDate")); d != "" {
		f.ReserveDate = &d
	}
	f.SortBy = c.Query("sortBy")
	f.SortOrder = c.Query("sortOrder")

	page, err := h.reservations.List(c.Request.Context(), a, f, store.NewPage(intQuery(c, "page"), intQuery(c, "size")))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "获取成功", page)
}

// GetReservation handles GET /reservation/:id.
func (h *Handler) GetReservation(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	view, err := h.reservations.Get(c.Request.Context(), a, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "获取成功", view)
}

// CreateReservation handles POST /reservation.
func (h *Handler) CreateReservation(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req createReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, msgBadBody)
		return
	}
	if slotFieldsMissing(c, req.LaboratoryID, req.ReserveDate, req.StartTime, req.EndTime) {
		return
	}
	view, err := h.reservations.Create(c.Request.Context(), a, reservation.CreateInput{
		LaboratoryID: *req.LaboratoryID,
		ReserveDate:  req.ReserveDate,
		StartTime:    *req.StartTime,
		EndTime:      *req.EndTime,
		Purpose:      req.Purpose,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "预约申请提交成功", view)
}

// CancelReservation handles PUT /reservation/:id/cancel. The body is optional.
func (h *Handler) CancelReservation(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req cancelRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	view, err := h.reservations.Cancel(c.Request.Context(), a, id, req.Remark)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "预约取消成功", view)
}

// ApproveReservation handles PUT /reservation/:id/approve.
func (h *Handler) ApproveReservation(c *gin.Context) {
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
	view, err := h.reservations.Approve(c.Request.Context(), a, id, *req.Status, req.remark())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "审批成功", view)
}

// CompleteReservation handles PUT /reservation/:id/complete. The body is optional.
func (h *Handler) CompleteReservation(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req completeRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	view, err := h.reservations.Complete(c.Request.Context(), a, id, reservation.CompleteInput{
		ActualStartTime: req.ActualStartTime,
		ActualEndTime:   req.ActualEndTime,
		UsageRemark:     req.UsageRemark,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "预约已标记为完成", view)
}

// CheckConflict handles POST /reservation/check-conflict.
func (h *Handler) CheckConflict(c *gin.Context) {
	var req checkConflictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, msgBadBody)
		return
	}
	if slotFieldsMissing(c, req.LaboratoryID, req.ReserveDate, req.StartTime, req.EndTime) {
		return
	}
	res, err := h.reservations.CheckConflict(c.Request.Context(), reservation.CheckInput{
		LaboratoryID: *req.LaboratoryID,
		ReserveDate:  req.ReserveDate,
		StartTime:    *req.StartTime,
		EndTime:      *req.EndTime,
		ExcludeID:    req.ExcludeID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "检查成功", res)
}

// AvailableTime handles GET /reservation/available-time.
func (h *Handler) AvailableTime(c *gin.Context) {
	labID, ok := optionalInt64(c, "laboratoryId")
	if !ok {
		return
	}
	date := strings.TrimSpace(c.Query("reserveDate"))
	switch {
	case labID == nil:
		badRequest(c, "参数错误：实验室ID不能为空")
		return
	case date == "":
		badRequest(c, "参数错误：预约日期不能为空")
		return
	}
	slots, err := h.reservations.AvailableTimeSlots(c.Request.Context(), *labID, date)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "获取成功", slots)
}
