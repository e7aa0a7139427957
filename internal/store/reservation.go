package store

import (
	"context"
	"fmt"

	"labequip-backend/internal/model"
)

// CreateReservation inserts a new reservation and fills in its id.
func (s *gormStore) CreateReservation(ctx context.Context, rec *model.Reservation) error {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("failed to create reservation: %w", err)
	}
	return nil
}

// GetReservation loads one reservation.
func (s *gormStore) GetReservation(ctx context.Context, id int64) (*model.Reservation, error) {
	var rec model.Reservation
	if err := s.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &rec, nil
}

// UpdateReservation writes the mutable columns of rec if the stored row is still in fromStatus.
func (s *gormStore) UpdateReservation(ctx context.Context, rec *model.Reservation, fromStatus int) error {
	res := s.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Where("id = ? AND status = ?", rec.ID, fromStatus).
		Updates(map[string]any{
			"status":            rec.Status,
			"approver_id":       rec.ApproverID,
			"approve_time":      rec.ApproveTime,
			"approve_remark":    rec.ApproveRemark,
			"actual_start_time": rec.ActualStartTime,
			"actual_end_time":   rec.ActualEndTime,
			"usage_remark":      rec.UsageRemark,
			"update_time":       rec.UpdateTime,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update reservation %d: %w", rec.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrStaleStatus
	}
	return nil
}

// BlockingReservations returns the Approved/InUse reservations of a laboratory on a date,
// ordered by start time. excludeID <= 0 excludes nothing.
func (s *gormStore) BlockingReservations(ctx context.Context, laboratoryID int64, date string, excludeID int64) ([]model.Reservation, error) {
	q := s.db.WithContext(ctx).
		Where("laboratory_id = ? AND reserve_date = ? AND status IN ?", laboratoryID, date, model.ReservationBlockingStatuses)
	if excludeID > 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var rows []model.Reservation
	if err := q.Order("start_time").Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load reservations of laboratory %d on %s: %w", laboratoryID, date, err)
	}
	return rows, nil
}
