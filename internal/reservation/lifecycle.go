package reservation

import (
	"context"
	"errors"
	"strings"

	"labequip-backend/internal/apperr"
	"labequip-backend/internal/identity"
	"labequip-backend/internal/model"
	"labequip-backend/internal/notification"
	"labequip-backend/internal/projection"
	"labequip-backend/internal/store"
)

// List returns one page of reservations. Non-privileged actors only see their own.
func (s *Service) List(ctx context.Context, actor identity.Actor, f Filter, page store.Page) (projection.Page[projection.ReservationView], error) {
	q := store.ReservationQuery{
		LaboratoryID: f.LaboratoryID,
		UserID:       f.UserID,
		Status:       f.Status,
		Page:         page,
		Sort:         listSort(f.SortBy, f.SortOrder),
	}
	if f.ReserveDate != nil {
		date, err := normalizeDate(*f.ReserveDate)
		if err != nil {
			return projection.Page[projection.ReservationView]{}, err
		}
		q.ReserveDate = &date
	}
	if !actor.Privileged() {
		own := actor.ID
		q.UserID = &own
	}

	recs, total, err := s.store.ListReservations(ctx, q)
	if err != nil {
		return projection.Page[projection.ReservationView]{}, err
	}
	views, err := s.projector.Reservations(ctx, recs, false)
	if err != nil {
		return projection.Page[projection.ReservationView]{}, err
	}
	return projection.Page[projection.ReservationView]{List: views, Total: total, Page: page.Number, Size: page.Size}, nil
}

func listSort(by, order string) store.Sort {
	column, ok := sortColumns[by]
	if !ok {
		return store.Sort{Column: "create_time", Desc: true}
	}
	return store.Sort{Column: column, Desc: !strings.EqualFold(order, "asc")}
}

// Get returns the detail view of one reservation.
func (s *Service) Get(ctx context.Context, actor identity.Actor, id int64) (projection.ReservationView, error) {
	rec, err := s.loadRecord(ctx, s.store, id)
	if err != nil {
		return projection.ReservationView{}, err
	}
	if !actor.Owns(rec.UserID) {
		return projection.ReservationView{}, apperr.Forbidden(msgViewForbidden)
	}
	return s.projector.Reservation(ctx, *rec)
}

// Create files a reservation request owned by actor, in PendingApproval.
func (s *Service) Create(ctx context.Context, actor identity.Actor, in CreateInput) (projection.ReservationView, error) {
	date, err := normalizeDate(in.ReserveDate)
	if err != nil {
		return projection.ReservationView{}, err
	}

	unlock := s.locks.Lock(slotKey(in.LaboratoryID, date))
	defer unlock()

	var rec model.Reservation
	err = s.store.WithTx(ctx, func(tx store.Store) error {
		lab, err := s.loadLaboratory(ctx, tx, in.LaboratoryID, true)
		if err != nil {
			return err
		}
		if lab.Status != model.LaboratoryAvailable {
			return apperr.InvalidState(msgLabUnavailable)
		}
		if in.EndTime <= in.StartTime {
			return apperr.InvalidArgument(msgTimeOrder)
		}
		if date < s.today() {
			return apperr.InvalidArgument(msgPastDate)
		}
		hits, err := conflicts(ctx, tx, lab.ID, date, in.StartTime, in.EndTime, 0)
		if err != nil {
			return err
		}
		if len(hits) > 0 {
			return apperr.Conflict(msgConflict)
		}

		now := s.now().UTC()
		rec = model.Reservation{
			LaboratoryID: lab.ID,
			UserID:       actor.ID,
			ReserveDate:  date,
			StartTime:    in.StartTime,
			EndTime:      in.EndTime,
			Purpose:      strings.TrimSpace(in.Purpose),
			Status:       model.ReservationPendingApproval,
			CreateTime:   now,
			UpdateTime:   now,
		}
		return tx.CreateReservation(ctx, &rec)
	})
	if err != nil {
		return projection.ReservationView{}, err
	}

	s.publish(notification.ActionCreate, actor.ID, &rec)
	return s.projector.Reservation(ctx, rec)
}

// Cancel withdraws a pending or approved reservation.
func (s *Service) Cancel(ctx context.Context, actor identity.Actor, id int64, remark string) (projection.ReservationView, error) {
	rec, err := s.loadRecord(ctx, s.store, id)
	if err != nil {
		return projection.ReservationView{}, err
	}
	if !actor.Owns(rec.UserID) {
		return projection.ReservationView{}, apperr.Forbidden(msgCancelForbidden)
	}
	if rec.Status != model.ReservationPendingApproval && rec.Status != model.ReservationApproved {
		return projection.ReservationView{}, apperr.InvalidState(msgCannotCancel)
	}

	from := rec.Status
	rec.Status = model.ReservationCancelled
	rec.ApproveRemark = appendRemark(rec.ApproveRemark, cancelRemarkLabel, remark)
	rec.UpdateTime = s.now().UTC()
	if err := s.store.UpdateReservation(ctx, rec, from); err != nil {
		if errors.Is(err, store.ErrStaleStatus) {
			return projection.ReservationView{}, apperr.InvalidState(msgCannotCancel)
		}
		return projection.ReservationView{}, err
	}

	s.publish(notification.ActionCancel, actor.ID, rec)
	return s.projector.Reservation(ctx, *rec)
}

// Approve decides a pending reservation. Approval re-runs the overlap check
// against everything approved since the request was filed.
func (s *Service) Approve(ctx context.Context, actor identity.Actor, id int64, decision int, remark string) (projection.ReservationView, error) {
	rec, err := s.loadRecord(ctx, s.store, id)
	if err != nil {
		return projection.ReservationView{}, err
	}
	if rec.Status != model.ReservationPendingApproval {
		return projection.ReservationView{}, apperr.InvalidState(msgAlreadyDecided)
	}
	if decision != model.ReservationApproved && decision != model.ReservationRejected {
		return projection.ReservationView{}, apperr.InvalidArgument(msgDecisionInvalid)
	}

	decide := func(st store.Store, current *model.Reservation) error {
		now := s.now().UTC()
		approver := actor.ID
		current.Status = decision
		current.ApproverID = &approver
		current.ApproveTime = &now
		current.ApproveRemark = trimmedOrNil(remark)
		current.UpdateTime = now
		if err := st.UpdateReservation(ctx, current, model.ReservationPendingApproval); err != nil {
			if errors.Is(err, store.ErrStaleStatus) {
				return apperr.InvalidState(msgAlreadyDecided)
			}
			return err
		}
		return nil
	}

	if decision == model.ReservationRejected {
		if err := decide(s.store, rec); err != nil {
			return projection.ReservationView{}, err
		}
		s.publish(notification.ActionReject, actor.ID, rec)
		return s.projector.Reservation(ctx, *rec)
	}

	unlock := s.locks.Lock(slotKey(rec.LaboratoryID, rec.ReserveDate))
	defer unlock()

	err = s.store.WithTx(ctx, func(tx store.Store) error {
		current, err := s.loadRecord(ctx, tx, id)
		if err != nil {
			return err
		}
		if current.Status != model.ReservationPendingApproval {
			return apperr.InvalidState(msgAlreadyDecided)
		}
		if _, err := s.loadLaboratory(ctx, tx, current.LaboratoryID, true); err != nil {
			return err
		}
		hits, err := conflicts(ctx, tx, current.LaboratoryID, current.ReserveDate, current.StartTime, current.EndTime, current.ID)
		if err != nil {
			return err
		}
		if len(hits) > 0 {
			return apperr.Conflict(msgConflict)
		}
		if err := decide(tx, current); err != nil {
			return err
		}
		rec = current
		return nil
	})
	if err != nil {
		return projection.ReservationView{}, err
	}

	s.publish(notification.ActionApprove, actor.ID, rec)
	return s.projector.Reservation(ctx, *rec)
}

// Complete closes an approved reservation and records actual usage.
func (s *Service) Complete(ctx context.Context, actor identity.Actor, id int64, in CompleteInput) (projection.ReservationView, error) {
	rec, err := s.loadRecord(ctx, s.store, id)
	if err != nil {
		return projection.ReservationView{}, err
	}
	if rec.Status != model.ReservationApproved {
		return projection.ReservationView{}, apperr.InvalidState(msgCompleteWrongStatus)
	}
	if in.ActualStartTime != nil && in.ActualEndTime != nil && *in.ActualEndTime <= *in.ActualStartTime {
		return projection.ReservationView{}, apperr.InvalidArgument(msgActualTimeOrder)
	}

	rec.Status = model.ReservationCompleted
	if in.ActualStartTime != nil {
		rec.ActualStartTime = in.ActualStartTime
	}
	if in.ActualEndTime != nil {
		rec.ActualEndTime = in.ActualEndTime
	}
	if note := trimmedOrNil(in.UsageRemark); note != nil {
		rec.UsageRemark = note
	}
	rec.UpdateTime = s.now().UTC()
	if err := s.store.UpdateReservation(ctx, rec, model.ReservationApproved); err != nil {
		if errors.Is(err, store.ErrStaleStatus) {
			return projection.ReservationView{}, apperr.InvalidState(msgCompleteWrongStatus)
		}
		return projection.ReservationView{}, err
	}

	s.publish(notification.ActionComplete, actor.ID, rec)
	return s.projector.Reservation(ctx, *rec)
}

// CheckConflict lists the blocking reservations a proposed slot would collide with.
func (s *Service) CheckConflict(ctx context.Context, in CheckInput) (ConflictResult, error) {
	lab, err := s.loadLaboratory(ctx, s.store, in.LaboratoryID, false)
	if err != nil {
		return ConflictResult{}, err
	}
	if in.EndTime <= in.StartTime {
		return ConflictResult{}, apperr.InvalidArgument(msgTimeOrder)
	}
	date, err := normalizeDate(in.ReserveDate)
	if err != nil {
		return ConflictResult{}, err
	}

	hits, err := conflicts(ctx, s.store, lab.ID, date, in.StartTime, in.EndTime, in.ExcludeID)
	if err != nil {
		return ConflictResult{}, err
	}
	res := ConflictResult{HasConflict: len(hits) > 0, Conflicts: make([]ConflictInfo, 0, len(hits))}
	for _, r := range hits {
		res.Conflicts = append(res.Conflicts, ConflictInfo{ID: r.ID, StartTime: r.StartTime, EndTime: r.EndTime, Status: r.Status})
	}
	return res, nil
}

// AvailableTimeSlots returns the free windows of a laboratory on a date, within opening hours.
func (s *Service) AvailableTimeSlots(ctx context.Context, laboratoryID int64, reserveDate string) ([]TimeSlot, error) {
	lab, err := s.loadLaboratory(ctx, s.store, laboratoryID, false)
	if err != nil {
		return nil, err
	}
	date, err := normalizeDate(reserveDate)
	if err != nil {
		return nil, err
	}
	blocking, err := s.store.BlockingReservations(ctx, lab.ID, date, 0)
	if err != nil {
		return nil, err
	}
	return freeSlots(blocking, s.opensAt, s.closesAt), nil
}

// freeSlots sweeps a cursor across [opensAt, closesAt). busy must be sorted by start time.
func freeSlots(busy []model.Reservation, opensAt, closesAt model.Clock) []TimeSlot {
	slots := make([]TimeSlot, 0, len(busy)+1)
	cursor := opensAt
	for _, r := range busy {
		if cursor >= closesAt {
			break
		}
		if cursor < r.StartTime {
			end := r.StartTime
			if end > closesAt {
				end = closesAt
			}
			slots = append(slots, TimeSlot{StartTime: cursor, EndTime: end})
		}
		if r.EndTime > cursor {
			cursor = r.EndTime
		}
	}
	if cursor < closesAt {
		slots = append(slots, TimeSlot{StartTime: cursor, EndTime: closesAt})
	}
	return slots
}
