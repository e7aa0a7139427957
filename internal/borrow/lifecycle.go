package borrow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"labequip-backend/internal/apperr"
	"labequip-backend/internal/identity"
	"labequip-backend/internal/model"
	"labequip-backend/internal/notification"
	"labequip-backend/internal/projection"
	"labequip-backend/internal/store"
)

// List returns one page of borrow records. Non-privileged actors only ever see
// their own records, whatever user filter they asked for.
func (s *Service) List(ctx context.Context, actor identity.Actor, f Filter, page store.Page) (projection.Page[projection.BorrowView], error) {
	q := store.BorrowQuery{
		EquipmentID: f.EquipmentID,
		UserID:      f.UserID,
		Status:      f.Status,
		Page:        page,
		Sort:        listSort(f.SortBy, f.SortOrder),
	}
	if !actor.Privileged() {
		own := actor.ID
		q.UserID = &own
	}
	if f.BorrowDateStart != nil {
		from := startOfDay(*f.BorrowDateStart)
		q.BorrowDateFrom = &from
	}
	if f.BorrowDateEnd != nil {
		to := startOfDay(*f.BorrowDateEnd).Add(24*time.Hour - time.Millisecond)
		q.BorrowDateTo = &to
	}

	recs, total, err := s.store.ListBorrows(ctx, q)
	if err != nil {
		return projection.Page[projection.BorrowView]{}, err
	}
	views, err := s.projector.Borrows(ctx, recs, false)
	if err != nil {
		return projection.Page[projection.BorrowView]{}, err
	}
	return projection.Page[projection.BorrowView]{List: views, Total: total, Page: page.Number, Size: page.Size}, nil
}

func listSort(by, order string) store.Sort {
	column, ok := sortColumns[by]
	if !ok {
		return store.Sort{Column: "create_time", Desc: true}
	}
	return store.Sort{Column: column, Desc: !strings.EqualFold(order, "asc")}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Get returns the detail view of one record.
func (s *Service) Get(ctx context.Context, actor identity.Actor, id int64) (projection.BorrowView, error) {
	rec, err := s.loadRecord(ctx, s.store, id)
	if err != nil {
		return projection.BorrowView{}, err
	}
	if !actor.Owns(rec.UserID) {
		return projection.BorrowView{}, apperr.Forbidden(msgViewForbidden)
	}
	return s.projector.Borrow(ctx, *rec)
}

// Create files a new borrow request owned by actor, in PendingApproval.
func (s *Service) Create(ctx context.Context, actor identity.Actor, in CreateInput) (projection.BorrowView, error) {
	unlock := s.locks.Lock(equipmentKey(in.EquipmentID))
	defer unlock()

	var rec model.BorrowRecord
	err := s.store.WithTx(ctx, func(tx store.Store) error {
		eq, err := s.loadEquipment(ctx, tx, in.EquipmentID, true)
		if err != nil {
			return err
		}
		if in.PlanReturnDate.Before(in.BorrowDate) {
			return apperr.InvalidArgument(msgDateOrder)
		}
		if eq.Status == nil {
			return apperr.InvalidArgument(msgStatusNotFound)
		}
		if !s.isBorrowable(eq.StatusCode()) {
			return apperr.InvalidState(msgNotBorrowable)
		}

		quantity := in.Quantity
		if quantity < 1 {
			if !s.coerce {
				return apperr.InvalidArgument(msgQuantityInvalid)
			}
			quantity = 1
		}
		stock, err := available(ctx, tx, eq)
		if err != nil {
			return err
		}
		if quantity > stock.Available {
			return apperr.InvalidArgument(msgQuantityExceeded)
		}

		now := s.clock()
		rec = model.BorrowRecord{
			EquipmentID:    eq.ID,
			UserID:         actor.ID,
			BorrowDate:     in.BorrowDate.UTC(),
			PlanReturnDate: in.PlanReturnDate.UTC(),
			Purpose:        strings.TrimSpace(in.Purpose),
			Quantity:       quantity,
			Status:         model.BorrowPendingApproval,
			CreateTime:     now,
			UpdateTime:     now,
		}
		return tx.CreateBorrow(ctx, &rec)
	})
	if err != nil {
		return projection.BorrowView{}, err
	}

	s.publish(notification.ActionCreate, actor.ID, &rec)
	return s.projector.Borrow(ctx, rec)
}

// Approve records the approver's decision on a pending request.
// decision must be model.BorrowApproved or model.BorrowRejected.
func (s *Service) Approve(ctx context.Context, actor identity.Actor, id int64, decision int, remark string) (projection.BorrowView, error) {
	rec, err := s.loadRecord(ctx, s.store, id)
	if err != nil {
		return projection.BorrowView{}, err
	}
	if rec.Status != model.BorrowPendingApproval {
		return projection.BorrowView{}, apperr.InvalidState(msgAlreadyDecided)
	}
	if decision != model.BorrowApproved && decision != model.BorrowRejected {
		return projection.BorrowView{}, apperr.InvalidArgument(msgDecisionInvalid)
	}

	now := s.clock()
	approver := actor.ID
	rec.Status = decision
	rec.ApproverID = &approver
	rec.ApproveTime = &now
	rec.ApproveRemark = trimmedOrNil(remark)
	rec.UpdateTime = now
	if err := s.store.UpdateBorrow(ctx, rec, model.BorrowPendingApproval); err != nil {
		if errors.Is(err, store.ErrStaleStatus) {
			return projection.BorrowView{}, apperr.InvalidState(msgAlreadyDecided)
		}
		return projection.BorrowView{}, err
	}

	action := notification.ActionApprove
	if decision == model.BorrowRejected {
		action = notification.ActionReject
	}
	s.publish(action, actor.ID, rec)
	return s.projector.Borrow(ctx, *rec)
}

// ConfirmHandout marks an approved request as physically handed out. Stock is
// re-checked here because other requests may have been handed out since approval.
func (s *Service) ConfirmHandout(ctx context.Context, actor identity.Actor, id int64, actualBorrowDate *time.Time) (projection.BorrowView, error) {
	rec, err := s.loadRecord(ctx, s.store, id)
	if err != nil {
		return projection.BorrowView{}, err
	}

	unlock := s.locks.Lock(equipmentKey(rec.EquipmentID))
	defer unlock()

	err = s.store.WithTx(ctx, func(tx store.Store) error {
		current, err := s.loadRecord(ctx, tx, id)
		if err != nil {
			return err
		}
		if current.Status != model.BorrowApproved {
			return apperr.InvalidState(msgHandoutWrongStatus)
		}
		eq, err := s.loadEquipment(ctx, tx, current.EquipmentID, true)
		if err != nil {
			return err
		}
		stock, err := available(ctx, tx, eq)
		if err != nil {
			return err
		}
		if current.Quantity > stock.Available {
			return apperr.InvalidArgument(msgQuantityExceeded)
		}

		now := s.clock()
		current.BorrowDate = now
		if actualBorrowDate != nil {
			current.BorrowDate = actualBorrowDate.UTC()
		}
		current.Status = model.BorrowBorrowed
		current.UpdateTime = now
		if err := tx.UpdateBorrow(ctx, current, model.BorrowApproved); err != nil {
			if errors.Is(err, store.ErrStaleStatus) {
				return apperr.InvalidState(msgHandoutWrongStatus)
			}
			return err
		}
		rec = current
		return nil
	})
	if err != nil {
		return projection.BorrowView{}, err
	}

	s.publish(notification.ActionHandout, actor.ID, rec)
	return s.projector.Borrow(ctx, *rec)
}

// Return closes a borrowed or overdue record. Only the borrower or a privileged actor may return.
// A record the overdue sweep moved between load and update is reloaded and returned once more.
func (s *Service) Return(ctx context.Context, actor identity.Actor, id int64, actualReturnDate *time.Time, remark string) (projection.BorrowView, error) {
	for attempt := 0; ; attempt++ {
		rec, err := s.loadRecord(ctx, s.store, id)
		if err != nil {
			return projection.BorrowView{}, err
		}
		if !actor.Owns(rec.UserID) {
			return projection.BorrowView{}, apperr.Forbidden(msgReturnForbidden)
		}
		if !rec.Outstanding() {
			return projection.BorrowView{}, apperr.InvalidState(msgReturnWrongStatus)
		}

		from := rec.Status
		now := s.clock()
		returned := now
		if actualReturnDate != nil {
			returned = actualReturnDate.UTC()
		}
		rec.ActualReturnDate = &returned
		rec.Status = model.BorrowReturned
		rec.ApproveRemark = appendRemark(rec.ApproveRemark, returnRemarkLabel, remark)
		rec.UpdateTime = now
		if err := s.store.UpdateBorrow(ctx, rec, from); err != nil {
			if errors.Is(err, store.ErrStaleStatus) {
				if attempt == 0 {
					continue
				}
				return projection.BorrowView{}, apperr.InvalidState(msgReturnWrongStatus)
			}
			return projection.BorrowView{}, err
		}

		s.publish(notification.ActionReturn, actor.ID, rec)
		return s.projector.Borrow(ctx, *rec)
	}
}

// SweepOverdue moves every borrowed record past its plan return date to Overdue
// and returns how many moved. Running it again without new due records moves nothing.
func (s *Service) SweepOverdue(ctx context.Context) (int, error) {
	moved, err := s.store.MarkOverdue(ctx, s.clock())
	if err != nil {
		return 0, fmt.Errorf("overdue sweep failed: %w", err)
	}
	for i := range moved {
		s.publish(notification.ActionOverdue, 0, &moved[i])
	}
	if len(moved) > 0 {
		log.Printf("Overdue sweep marked %d borrow records", len(moved))
	}
	return len(moved), nil
}

// AvailableQuantity reports total, outstanding and free units of an equipment.
func (s *Service) AvailableQuantity(ctx context.Context, equipmentID int64) (Availability, error) {
	eq, err := s.loadEquipment(ctx, s.store, equipmentID, false)
	if err != nil {
		return Availability{}, err
	}
	stock, err := available(ctx, s.store, eq)
	if err != nil {
		return Availability{}, fmt.Errorf("failed to compute availability of equipment %d: %w", equipmentID, err)
	}
	return stock, nil
}
