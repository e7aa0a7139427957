package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm/clause"

	"labequip-backend/internal/model"
)

// CreateBorrow inserts a new borrow record and fills in its id.
func (s *gormStore) CreateBorrow(ctx context.Context, rec *model.BorrowRecord) error {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("failed to create borrow record: %w", err)
	}
	return nil
}

// GetBorrow loads one borrow record.
func (s *gormStore) GetBorrow(ctx context.Context, id int64) (*model.BorrowRecord, error) {
	var rec model.BorrowRecord
	if err := s.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &rec, nil
}

// UpdateBorrow writes the mutable columns of rec, but only if the stored row is
// still in fromStatus. A lost race surfaces as ErrStaleStatus.
func (s *gormStore) UpdateBorrow(ctx context.Context, rec *model.BorrowRecord, fromStatus int) error {
	res := s.db.WithContext(ctx).
		Model(&model.BorrowRecord{}).
		Where("id = ? AND status = ?", rec.ID, fromStatus).
		Updates(map[string]any{
			"borrow_date":        rec.BorrowDate,
			"plan_return_date":   rec.PlanReturnDate,
			"actual_return_date": rec.ActualReturnDate,
			"quantity":           rec.Quantity,
			"status":             rec.Status,
			"approver_id":        rec.ApproverID,
			"approve_time":       rec.ApproveTime,
			"approve_remark":     rec.ApproveRemark,
			"update_time":        rec.UpdateTime,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update borrow record %d: %w", rec.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrStaleStatus
	}
	return nil
}

// OutstandingQuantity sums the units currently held out (Borrowed or Overdue) for an equipment.
func (s *gormStore) OutstandingQuantity(ctx context.Context, equipmentID int64) (int, error) {
	var total int64
	err := s.db.WithContext(ctx).
		Model(&model.BorrowRecord{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where("equipment_id = ? AND status IN ?", equipmentID, model.BorrowOutstandingStatuses).
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum outstanding quantity for equipment %d: %w", equipmentID, err)
	}
	return int(total), nil
}

// MarkOverdue moves every Borrowed record whose plan return date is before now
// to Overdue and returns the records it moved, ordered by id. The move is one
// conditional UPDATE, so a record returned concurrently is simply not part of
// the result.
func (s *gormStore) MarkOverdue(ctx context.Context, now time.Time) ([]model.BorrowRecord, error) {
	var moved []model.BorrowRecord
	err := s.db.WithContext(ctx).
		Model(&moved).
		Clauses(clause.Returning{}).
		Where("status = ? AND plan_return_date < ?", model.BorrowBorrowed, now).
		Updates(map[string]any{"status": model.BorrowOverdue, "update_time": now}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to mark borrow records overdue: %w", err)
	}
	sort.Slice(moved, func(i, j int) bool { return moved[i].ID < moved[j].ID })
	return moved, nil
}
