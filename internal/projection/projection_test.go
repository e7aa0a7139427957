package projection

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labequip-backend/internal/model"
)

type fakeCatalog struct {
	equipment map[int64]model.Equipment
	labs      map[int64]model.Laboratory
	users     map[int64]model.User
	calls     int
}

func pick[T any](src map[int64]T, ids []int64) map[int64]T {
	out := make(map[int64]T)
	for _, id := range ids {
		if v, ok := src[id]; ok {
			out[id] = v
		}
	}
	return out
}

func (f *fakeCatalog) EquipmentByIDs(_ context.Context, ids []int64) (map[int64]model.Equipment, error) {
	f.calls++
	return pick(f.equipment, ids), nil
}

func (f *fakeCatalog) LaboratoriesByIDs(_ context.Context, ids []int64) (map[int64]model.Laboratory, error) {
	f.calls++
	return pick(f.labs, ids), nil
}

func (f *fakeCatalog) UsersByIDs(_ context.Context, ids []int64) (map[int64]model.User, error) {
	f.calls++
	return pick(f.users, ids), nil
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		equipment: map[int64]model.Equipment{
			1: {ID: 1, Name: "示波器", Model: "DS1054Z", AssetCode: "EQ-001"},
		},
		labs: map[int64]model.Laboratory{
			7: {ID: 7, Name: "电子实验室", Code: "LAB-7"},
		},
		users: map[int64]model.User{
			10: {ID: 10, Username: "zhang", RealName: "张三", Department: "物理系"},
			20: {ID: 20, Username: "teacher_li"},
		},
	}
}

func TestStatusNames(t *testing.T) {
	testCases := []struct {
		status      int
		borrow      string
		reservation string
	}{
		{0, "待审批", "待审批"},
		{1, "已通过", "已通过"},
		{2, "已拒绝", "已拒绝"},
		{3, "已借出", "已取消"},
		{4, "已归还", "已完成"},
		{5, "已逾期", "已使用"},
		{9, "未知", "未知"},
		{-1, "未知", "未知"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.borrow, BorrowStatusName(tc.status))
		assert.Equal(t, tc.reservation, ReservationStatusName(tc.status))
	}
}

func TestProjector_Borrows_ListVersusDetail(t *testing.T) {
	approver := int64(20)
	remark := "ok"
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	rec := model.BorrowRecord{
		ID:             3,
		EquipmentID:    1,
		UserID:         10,
		BorrowDate:     now,
		PlanReturnDate: now.Add(48 * time.Hour),
		Purpose:        "课程实验",
		Quantity:       1,
		Status:         model.BorrowApproved,
		ApproverID:     &approver,
		ApproveTime:    &now,
		ApproveRemark:  &remark,
		CreateTime:     now,
		UpdateTime:     now,
	}
	p := NewProjector(newFakeCatalog(), 0)

	list, err := p.Borrows(context.Background(), []model.BorrowRecord{rec}, false)
	require.NoError(t, err)
	require.Len(t, list, 1)
	row := list[0]
	assert.Equal(t, "示波器", row.EquipmentName)
	assert.Equal(t, "张三", row.UserName)
	assert.Equal(t, "teacher_li", row.ApproverName)
	assert.Equal(t, "已通过", row.StatusName)
	assert.Empty(t, row.EquipmentModel)
	assert.Empty(t, row.Purpose)
	assert.Nil(t, row.ApproverID)

	detail, err := p.Borrow(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, row.EquipmentName, detail.EquipmentName)
	assert.Equal(t, row.StatusName, detail.StatusName)
	assert.Equal(t, "DS1054Z", detail.EquipmentModel)
	assert.Equal(t, "EQ-001", detail.EquipmentAssetCode)
	assert.Equal(t, "物理系", detail.UserDepartment)
	assert.Equal(t, "课程实验", detail.Purpose)
	assert.Equal(t, &approver, detail.ApproverID)
	assert.Equal(t, &remark, detail.ApproveRemark)
}

func TestProjector_Reservations_UnknownLaboratory(t *testing.T) {
	p := NewProjector(newFakeCatalog(), 0)
	recs := []model.Reservation{
		{ID: 1, LaboratoryID: 7, UserID: 10, ReserveDate: "2026-03-02", StartTime: model.NewClock(9, 0), EndTime: model.NewClock(11, 0), Status: model.ReservationCancelled},
		{ID: 2, LaboratoryID: 99, UserID: 11, ReserveDate: "2026-03-02", StartTime: model.NewClock(13, 0), EndTime: model.NewClock(14, 0)},
	}

	views, err := p.Reservations(context.Background(), recs, false)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "电子实验室", views[0].LaboratoryName)
	assert.Equal(t, "已取消", views[0].StatusName)
	assert.Empty(t, views[1].LaboratoryName)
	assert.Empty(t, views[1].UserName)

	b, err := json.Marshal(views[0])
	require.NoError(t, err)
	assert.Contains(t, string(b), `"startTime":"09:00"`)
	assert.Contains(t, string(b), `"endTime":"11:00"`)
	assert.NotContains(t, string(b), "laboratoryCode")
}

func TestProjector_CachesNames(t *testing.T) {
	catalog := newFakeCatalog()
	p := NewProjector(catalog, time.Minute)
	rec := model.BorrowRecord{ID: 1, EquipmentID: 1, UserID: 10}

	_, err := p.Borrows(context.Background(), []model.BorrowRecord{rec, rec}, false)
	require.NoError(t, err)
	assert.Equal(t, 2, catalog.calls)

	_, err = p.Borrows(context.Background(), []model.BorrowRecord{rec}, false)
	require.NoError(t, err)
	assert.Equal(t, 2, catalog.calls, "second projection should be served from cache")
}
