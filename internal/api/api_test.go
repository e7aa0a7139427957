package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labequip-backend/config"
	"labequip-backend/internal/borrow"
	"labequip-backend/internal/dbtest"
	"labequip-backend/internal/identity"
	"labequip-backend/internal/model"
	"labequip-backend/internal/reservation"
	"labequip-backend/internal/store"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnvelope struct {
	Code    int                 `json:"code"`
	Message string              `json:"message"`
	Data    jsoniter.RawMessage `json:"data"`
}

type apiFixture struct {
	router  *gin.Engine
	seed    *dbtest.Catalog
	store   store.Store
	admin   identity.Actor
	teacher identity.Actor
	alice   identity.Actor
	bob     identity.Actor
}

func newAPIFixture(t *testing.T, webpushOptions *webpush.Options) *apiFixture {
	t.Helper()
	db := dbtest.Open(t)
	seed := dbtest.Seed(t, db)
	st := store.NewGormStore(db)

	cfg := config.Default()
	cfg.Server.RateLimitPerSec = 1000
	cfg.Server.RateLimitBurst = 1000

	fixed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	router := NewRouter(Deps{
		Config:       cfg,
		Store:        st,
		Borrows:      borrow.NewService(st),
		Reservations: reservation.NewService(st, reservation.WithClock(func() time.Time { return fixed })),
		Resolver:     identity.HeaderResolver{},
		WebPush:      webpushOptions,
	})

	admin := seed.User("admin", "admin")
	teacher := seed.User("teacher", "teacher")
	alice := seed.User("alice", "student")
	bob := seed.User("bob", "student")
	return &apiFixture{
		router:  router,
		seed:    seed,
		store:   st,
		admin:   identity.Actor{ID: admin.ID, Role: identity.RoleAdmin},
		teacher: identity.Actor{ID: teacher.ID, Role: identity.RoleTeacher},
		alice:   identity.Actor{ID: alice.ID, Role: identity.RoleStudent},
		bob:     identity.Actor{ID: bob.ID, Role: identity.RoleStudent},
	}
}

func (f *apiFixture) do(t *testing.T, as *identity.Actor, method, path, body string) (int, testEnvelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if as != nil {
		req.Header.Set(identity.HeaderUserID, strconv.FormatInt(as.ID, 10))
		req.Header.Set(identity.HeaderUserRole, string(as.Role))
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var env testEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func decode[T any](t *testing.T, raw jsoniter.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

type borrowData struct {
	ID            int64   `json:"id"`
	Status        int     `json:"status"`
	StatusName    string  `json:"statusName"`
	Quantity      int     `json:"quantity"`
	EquipmentName string  `json:"equipmentName"`
	ApproveRemark *string `json:"approveRemark"`
}

func TestHealthz(t *testing.T) {
	f := newAPIFixture(t, nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestUnauthenticatedRequestsAreRejected(t *testing.T) {
	f := newAPIFixture(t, nil)
	code, env := f.do(t, nil, http.MethodGet, "/api/v1/borrow", "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, http.StatusUnauthorized, env.Code)
	assert.Equal(t, "未授权访问，请先登录", env.Message)
}

func TestRoleGates(t *testing.T) {
	f := newAPIFixture(t, nil)
	tests := []struct {
		name   string
		method string
		path   string
	}{
		{"approve borrow", http.MethodPut, "/api/v1/borrow/1/approve"},
		{"confirm handout", http.MethodPut, "/api/v1/borrow/1/borrow"},
		{"mark overdue", http.MethodPut, "/api/v1/borrow/mark-overdue"},
		{"approve reservation", http.MethodPut, "/api/v1/reservation/1/approve"},
		{"complete reservation", http.MethodPut, "/api/v1/reservation/1/complete"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := f.do(t, &f.alice, tt.method, tt.path, `{}`)
			assert.Equal(t, http.StatusForbidden, code)
			assert.Equal(t, "无权限访问该资源", env.Message)
		})
	}

	t.Run("teacher cannot sweep", func(t *testing.T) {
		code, _ := f.do(t, &f.teacher, http.MethodPut, "/api/v1/borrow/mark-overdue", "")
		assert.Equal(t, http.StatusForbidden, code)
	})
}

func TestBorrowLifecycleOverHTTP(t *testing.T) {
	f := newAPIFixture(t, nil)
	eq := f.seed.Equipment("示波器", 2, "instored")

	code, env := f.do(t, &f.alice, http.MethodPost, "/api/v1/borrow",
		`{"equipmentId":`+strconv.FormatInt(eq.ID, 10)+`,"borrowDate":"2026-03-02 09:00:00","planReturnDate":"2026-03-05","purpose":"课程实验"}`)
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Equal(t, "借用申请提交成功", env.Message)
	created := decode[borrowData](t, env.Data)
	assert.Equal(t, 1, created.Quantity)
	assert.Equal(t, model.BorrowPendingApproval, created.Status)
	assert.Equal(t, "示波器", created.EquipmentName)
	id := strconv.FormatInt(created.ID, 10)

	code, env = f.do(t, &f.teacher, http.MethodPut, "/api/v1/borrow/"+id+"/approve", `{"status":1,"approveRemark":"同意"}`)
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Equal(t, "审批成功", env.Message)
	approved := decode[borrowData](t, env.Data)
	assert.Equal(t, model.BorrowApproved, approved.Status)
	require.NotNil(t, approved.ApproveRemark)
	assert.Equal(t, "同意", *approved.ApproveRemark)

	code, env = f.do(t, &f.teacher, http.MethodPut, "/api/v1/borrow/"+id+"/approve", `{"status":1}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "该借用记录已审批过，无法重复审批", env.Message)

	code, env = f.do(t, &f.teacher, http.MethodPut, "/api/v1/borrow/"+id+"/borrow", "")
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Equal(t, "设备借出确认成功", env.Message)
	assert.Equal(t, model.BorrowBorrowed, decode[borrowData](t, env.Data).Status)

	code, env = f.do(t, &f.alice, http.MethodGet, "/api/v1/borrow/available-quantity/"+strconv.FormatInt(eq.ID, 10), "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"equipmentId":`+strconv.FormatInt(eq.ID, 10)+`,"totalQuantity":2,"borrowedQuantity":1,"availableQuantity":1}`, string(env.Data))

	code, env = f.do(t, &f.bob, http.MethodPut, "/api/v1/borrow/"+id+"/return", "")
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "无权限归还该设备", env.Message)

	code, env = f.do(t, &f.alice, http.MethodPut, "/api/v1/borrow/"+id+"/return", `{"remark":"完好"}`)
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Equal(t, "设备归还成功", env.Message)
	returned := decode[borrowData](t, env.Data)
	assert.Equal(t, model.BorrowReturned, returned.Status)
	assert.Equal(t, "已归还", returned.StatusName)

	code, env = f.do(t, &f.alice, http.MethodGet, "/api/v1/borrow/available-quantity/"+strconv.FormatInt(eq.ID, 10), "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"availableQuantity":2`)
}

func TestBorrowCreateValidation(t *testing.T) {
	f := newAPIFixture(t, nil)
	eq := f.seed.Equipment("万用表", 1, "instored")
	eqID := strconv.FormatInt(eq.ID, 10)

	tests := []struct {
		name    string
		body    string
		status  int
		message string
	}{
		{"malformed", `{`, http.StatusBadRequest, "参数错误：请求体格式无效"},
		{"missing equipment", `{"borrowDate":"2026-03-02","planReturnDate":"2026-03-03"}`, http.StatusBadRequest, "参数错误：设备ID不能为空"},
		{"missing plan return", `{"equipmentId":` + eqID + `,"borrowDate":"2026-03-02"}`, http.StatusBadRequest, "参数错误：计划归还日期不能为空"},
		{"bad date", `{"equipmentId":` + eqID + `,"borrowDate":"next week","planReturnDate":"2026-03-03"}`, http.StatusBadRequest, "参数错误：请求体格式无效"},
		{"return before borrow", `{"equipmentId":` + eqID + `,"borrowDate":"2026-03-05","planReturnDate":"2026-03-03"}`, http.StatusBadRequest, "参数错误：计划归还日期不能早于借用日期"},
		{"unknown equipment", `{"equipmentId":9999,"borrowDate":"2026-03-02","planReturnDate":"2026-03-03"}`, http.StatusNotFound, "设备不存在"},
		{"too many", `{"equipmentId":` + eqID + `,"borrowDate":"2026-03-02","planReturnDate":"2026-03-03","quantity":2}`, http.StatusBadRequest, "参数错误：借用数量不能超过设备可用数量"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := f.do(t, &f.alice, http.MethodPost, "/api/v1/borrow", tt.body)
			assert.Equal(t, tt.status, code)
			assert.Equal(t, tt.status, env.Code)
			assert.Equal(t, tt.message, env.Message)
		})
	}
}

func TestBorrowListIsScopedForStudents(t *testing.T) {
	f := newAPIFixture(t, nil)
	eq := f.seed.Equipment("显微镜", 5, "instored")
	body := `{"equipmentId":` + strconv.FormatInt(eq.ID, 10) + `,"borrowDate":"2026-03-02","planReturnDate":"2026-03-03"}`
	code, _ := f.do(t, &f.alice, http.MethodPost, "/api/v1/borrow", body)
	require.Equal(t, http.StatusOK, code)

	type page struct {
		Total int64 `json:"total"`
		Page  int   `json:"page"`
		Size  int   `json:"size"`
	}

	code, env := f.do(t, &f.bob, http.MethodGet, "/api/v1/borrow?userId="+strconv.FormatInt(f.alice.ID, 10), "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "获取成功", env.Message)
	assert.Equal(t, int64(0), decode[page](t, env.Data).Total)

	code, env = f.do(t, &f.teacher, http.MethodGet, "/api/v1/borrow?userId="+strconv.FormatInt(f.alice.ID, 10), "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, int64(0), decode[page](t, env.Data).Total, "teachers are not privileged for listing")

	code, env = f.do(t, &f.admin, http.MethodGet, "/api/v1/borrow?page=1&size=500", "")
	require.Equal(t, http.StatusOK, code)
	p := decode[page](t, env.Data)
	assert.Equal(t, int64(1), p.Total)
	assert.Equal(t, store.MaxPageSize, p.Size)

	code, env = f.do(t, &f.admin, http.MethodGet, "/api/v1/borrow?status=abc", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "参数错误：status无效", env.Message)
}

func TestBorrowGetNotFoundAndBadID(t *testing.T) {
	f := newAPIFixture(t, nil)

	code, env := f.do(t, &f.admin, http.MethodGet, "/api/v1/borrow/999", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "借用记录不存在", env.Message)

	code, env = f.do(t, &f.admin, http.MethodGet, "/api/v1/borrow/abc", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "参数错误：ID无效", env.Message)
}

func TestMarkOverdueReportsCount(t *testing.T) {
	f := newAPIFixture(t, nil)
	code, env := f.do(t, &f.admin, http.MethodPut, "/api/v1/borrow/mark-overdue", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "逾期标记完成", env.Message)
	assert.JSONEq(t, `{"overdueCount":0}`, string(env.Data))
}

func TestBorrowReadsReflectSweepOutsideHTTP(t *testing.T) {
	f := newAPIFixture(t, nil)
	eq := f.seed.Equipment("示波器", 1, "instored")

	code, env := f.do(t, &f.alice, http.MethodPost, "/api/v1/borrow",
		`{"equipmentId":`+strconv.FormatInt(eq.ID, 10)+`,"borrowDate":"2026-03-02","planReturnDate":"2026-03-05","purpose":"课程实验"}`)
	require.Equal(t, http.StatusOK, code, env.Message)
	id := strconv.FormatInt(decode[borrowData](t, env.Data).ID, 10)
	code, env = f.do(t, &f.teacher, http.MethodPut, "/api/v1/borrow/"+id+"/approve", `{"status":1}`)
	require.Equal(t, http.StatusOK, code, env.Message)
	code, env = f.do(t, &f.teacher, http.MethodPut, "/api/v1/borrow/"+id+"/borrow", "")
	require.Equal(t, http.StatusOK, code, env.Message)

	for i := 0; i < 2; i++ {
		code, env = f.do(t, &f.alice, http.MethodGet, "/api/v1/borrow/"+id, "")
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, model.BorrowBorrowed, decode[borrowData](t, env.Data).Status)
	}
	code, _ = f.do(t, &f.alice, http.MethodGet, "/api/v1/borrow", "")
	require.Equal(t, http.StatusOK, code)

	// the periodic runner and the cron command sweep without going through the router
	later := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	n, err := borrow.NewService(f.store, borrow.WithClock(func() time.Time { return later })).SweepOverdue(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)

	code, env = f.do(t, &f.alice, http.MethodGet, "/api/v1/borrow/"+id, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, model.BorrowOverdue, decode[borrowData](t, env.Data).Status)

	code, env = f.do(t, &f.alice, http.MethodGet, "/api/v1/borrow", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"status":5`)
}

func TestReservationFlowOverHTTP(t *testing.T) {
	f := newAPIFixture(t, nil)
	lab := f.seed.Laboratory("物理实验室", model.LaboratoryAvailable)
	labID := strconv.FormatInt(lab.ID, 10)

	code, env := f.do(t, &f.alice, http.MethodPost, "/api/v1/reservation",
		`{"laboratoryId":`+labID+`,"reserveDate":"2026-03-02","startTime":"09:00","endTime":"11:00","purpose":"实验课"}`)
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Equal(t, "预约申请提交成功", env.Message)
	first := decode[struct {
		ID        int64  `json:"id"`
		StartTime string `json:"startTime"`
		Status    int    `json:"status"`
	}](t, env.Data)
	assert.Equal(t, "09:00", first.StartTime)
	id := strconv.FormatInt(first.ID, 10)

	code, env = f.do(t, &f.teacher, http.MethodPut, "/api/v1/reservation/"+id+"/approve", `{"status":1,"remark":"ok"}`)
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Equal(t, "审批成功", env.Message)

	code, env = f.do(t, &f.bob, http.MethodPost, "/api/v1/reservation",
		`{"laboratoryId":`+labID+`,"reserveDate":"2026-03-02","startTime":"10:30","endTime":"12:00"}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "预约冲突：该时间段实验室已被预约", env.Message)

	code, env = f.do(t, &f.bob, http.MethodPost, "/api/v1/reservation/check-conflict",
		`{"laboratoryId":`+labID+`,"reserveDate":"2026-03-02","startTime":"10:30","endTime":"12:00"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "检查成功", env.Message)
	assert.JSONEq(t, `{"hasConflict":true,"conflictList":[{"id":`+id+`,"startTime":"09:00","endTime":"11:00","status":1}]}`, string(env.Data))

	code, env = f.do(t, &f.bob, http.MethodGet, "/api/v1/reservation/available-time?laboratoryId="+labID+"&reserveDate=2026-03-02", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[{"startTime":"08:00","endTime":"09:00"},{"startTime":"11:00","endTime":"22:00"}]`, string(env.Data))

	code, env = f.do(t, &f.bob, http.MethodGet, "/api/v1/reservation/"+id, "")
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "无权限查看该预约详情", env.Message)

	code, env = f.do(t, &f.teacher, http.MethodPut, "/api/v1/reservation/"+id+"/complete", `{"actualStartTime":"09:05","actualEndTime":"10:50","usageRemark":"正常"}`)
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Equal(t, "预约已标记为完成", env.Message)

	code, env = f.do(t, &f.alice, http.MethodPut, "/api/v1/reservation/"+id+"/cancel", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "该预约已无法取消", env.Message)
}

func TestReservationCancelOverHTTP(t *testing.T) {
	f := newAPIFixture(t, nil)
	lab := f.seed.Laboratory("化学实验室", model.LaboratoryAvailable)
	code, env := f.do(t, &f.alice, http.MethodPost, "/api/v1/reservation",
		`{"laboratoryId":`+strconv.FormatInt(lab.ID, 10)+`,"reserveDate":"2026-03-03","startTime":"14:00","endTime":"15:00"}`)
	require.Equal(t, http.StatusOK, code, env.Message)
	id := strconv.FormatInt(decode[struct {
		ID int64 `json:"id"`
	}](t, env.Data).ID, 10)

	code, env = f.do(t, &f.bob, http.MethodPut, "/api/v1/reservation/"+id+"/cancel", `{"remark":"不去了"}`)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "无权限取消该预约", env.Message)

	code, env = f.do(t, &f.alice, http.MethodPut, "/api/v1/reservation/"+id+"/cancel", `{"remark":"不去了"}`)
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Equal(t, "预约取消成功", env.Message)
	assert.Contains(t, string(env.Data), `"status":3`)
}

func TestReservationRequestValidation(t *testing.T) {
	f := newAPIFixture(t, nil)
	lab := f.seed.Laboratory("生物实验室", model.LaboratoryAvailable)
	labID := strconv.FormatInt(lab.ID, 10)

	tests := []struct {
		name    string
		method  string
		path    string
		body    string
		message string
	}{
		{"missing lab", http.MethodPost, "/api/v1/reservation", `{"reserveDate":"2026-03-02","startTime":"09:00","endTime":"10:00"}`, "参数错误：实验室ID不能为空"},
		{"missing date", http.MethodPost, "/api/v1/reservation", `{"laboratoryId":` + labID + `,"startTime":"09:00","endTime":"10:00"}`, "参数错误：预约日期不能为空"},
		{"bad clock", http.MethodPost, "/api/v1/reservation", `{"laboratoryId":` + labID + `,"reserveDate":"2026-03-02","startTime":"9am","endTime":"10:00"}`, "参数错误：请求体格式无效"},
		{"past date", http.MethodPost, "/api/v1/reservation", `{"laboratoryId":` + labID + `,"reserveDate":"2026-02-28","startTime":"09:00","endTime":"10:00"}`, "参数错误：预约日期不能是过去日期"},
		{"reversed check", http.MethodPost, "/api/v1/reservation/check-conflict", `{"laboratoryId":` + labID + `,"reserveDate":"2026-03-02","startTime":"10:00","endTime":"10:00"}`, "参数错误：结束时间不能早于或等于开始时间"},
		{"available time without lab", http.MethodGet, "/api/v1/reservation/available-time?reserveDate=2026-03-02", "", "参数错误：实验室ID不能为空"},
		{"approve without status", http.MethodPut, "/api/v1/reservation/1/approve", `{}`, "参数错误：审批状态不能为空"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := f.do(t, &f.admin, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, tt.message, env.Message)
		})
	}
}

func TestSubscriptionsAreScopedToCaller(t *testing.T) {
	f := newAPIFixture(t, nil)
	endpoint := "https://push.example.com/send/abc%3D%3D"

	code, env := f.do(t, &f.alice, http.MethodPut, "/api/v1/subscriptions", `{"endpoint":"`+endpoint+`","p256dh":"key","auth":"secret"}`)
	require.Equal(t, http.StatusOK, code, env.Message)

	code, env = f.do(t, &f.alice, http.MethodGet, "/api/v1/subscriptions?endpoint="+endpoint, "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"endpoints":["`+endpoint+`"],"subscribed":true}`, string(env.Data))

	code, env = f.do(t, &f.bob, http.MethodGet, "/api/v1/subscriptions", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"endpoints":[],"subscribed":false}`, string(env.Data))

	// bob cannot remove alice's endpoint
	code, _ = f.do(t, &f.bob, http.MethodDelete, "/api/v1/subscriptions", `{"endpoint":"`+endpoint+`"}`)
	require.Equal(t, http.StatusOK, code)
	_, env = f.do(t, &f.alice, http.MethodGet, "/api/v1/subscriptions", "")
	assert.Contains(t, string(env.Data), `"subscribed":true`)

	code, _ = f.do(t, &f.alice, http.MethodDelete, "/api/v1/subscriptions", `{"endpoint":"`+endpoint+`"}`)
	require.Equal(t, http.StatusOK, code)
	_, env = f.do(t, &f.alice, http.MethodGet, "/api/v1/subscriptions", "")
	assert.Contains(t, string(env.Data), `"subscribed":false`)

	code, env = f.do(t, &f.alice, http.MethodPut, "/api/v1/subscriptions", `{"endpoint":"x"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "参数错误：endpoint、p256dh、auth不能为空", env.Message)
}

func TestVAPIDPublicKey(t *testing.T) {
	f := newAPIFixture(t, nil)
	code, env := f.do(t, &f.alice, http.MethodGet, "/api/v1/vapid_public_key", "")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "推送服务未配置", env.Message)

	f = newAPIFixture(t, &webpush.Options{VAPIDPublicKey: "pub"})
	code, env = f.do(t, &f.alice, http.MethodGet, "/api/v1/vapid_public_key", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"publicKey":"pub"}`, string(env.Data))
}

func TestRawQueryParam(t *testing.T) {
	v, ok := rawQueryParam("a=1&endpoint=https://x/y%3D&b=2", "endpoint")
	assert.True(t, ok)
	assert.Equal(t, "https://x/y%3D", v)

	_, ok = rawQueryParam("a=1", "endpoint")
	assert.False(t, ok)
}

func TestDateTimeUnmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{`"2026-03-02T09:30:00Z"`, time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)},
		{`"2026-03-02T17:30:00+08:00"`, time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)},
		{`"2026-03-02T09:30:00"`, time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)},
		{`"2026-03-02 09:30:00"`, time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)},
		{`"2026-03-02"`, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var d dateTime
			require.NoError(t, d.UnmarshalJSON([]byte(tt.in)))
			assert.True(t, tt.want.Equal(d.Time), "got %s", d.Time)
		})
	}

	var d dateTime
	assert.Error(t, d.UnmarshalJSON([]byte(`"tomorrow"`)))
	require.NoError(t, d.UnmarshalJSON([]byte(`null`)))
	assert.Nil(t, d.ptr())
}
