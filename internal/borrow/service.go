// Package borrow implements the equipment borrow lifecycle: request, approval,
// physical handout, return and the overdue sweep, together with the
// available-quantity accounting that guards every handout.
package borrow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"labequip-backend/internal/apperr"
	"labequip-backend/internal/keylock"
	"labequip-backend/internal/model"
	"labequip-backend/internal/notification"
	"labequip-backend/internal/projection"
	"labequip-backend/internal/store"
)

const (
	msgRecordNotFound     = "借用记录不存在"
	msgEquipmentNotFound  = "设备不存在"
	msgStatusNotFound     = "设备状态不存在"
	msgViewForbidden      = "无权限查看该借用记录详情"
	msgReturnForbidden    = "无权限归还该设备"
	msgDateOrder          = "参数错误：计划归还日期不能早于借用日期"
	msgNotBorrowable      = "设备不可用：该设备当前无法借用"
	msgQuantityInvalid    = "参数错误：借用数量必须大于0"
	msgQuantityExceeded   = "参数错误：借用数量不能超过设备可用数量"
	msgAlreadyDecided     = "该借用记录已审批过，无法重复审批"
	msgDecisionInvalid    = "参数错误：审批状态无效（必须是1-通过或2-拒绝）"
	msgHandoutWrongStatus = "该借用记录状态不符合要求，无法确认借出"
	msgReturnWrongStatus  = "该借用记录状态不符合要求，无法归还"

	returnRemarkLabel = "归还备注："
)

// Service is the borrow lifecycle engine.
type Service struct {
	store      store.Store
	locks      *keylock.Map
	projector  *projection.Projector
	publisher  notification.Publisher
	now        func() time.Time
	borrowable map[string]struct{}
	coerce     bool
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithBorrowableStatusCodes replaces the set of equipment status codes that may be borrowed.
func WithBorrowableStatusCodes(codes ...string) Option {
	return func(s *Service) {
		s.borrowable = make(map[string]struct{}, len(codes))
		for _, c := range codes {
			s.borrowable[strings.ToLower(c)] = struct{}{}
		}
	}
}

// WithQuantityCoercion controls whether a quantity below 1 is raised to 1 (true)
// or rejected (false).
func WithQuantityCoercion(coerce bool) Option {
	return func(s *Service) { s.coerce = coerce }
}

// WithPublisher sets where committed transitions are announced.
func WithPublisher(p notification.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithLocks shares a key lock map with other services.
func WithLocks(m *keylock.Map) Option {
	return func(s *Service) { s.locks = m }
}

// WithProjector sets the view projector.
func WithProjector(p *projection.Projector) Option {
	return func(s *Service) { s.projector = p }
}

// NewService creates a borrow engine on top of st.
func NewService(st store.Store, opts ...Option) *Service {
	s := &Service{
		store:     st,
		publisher: notification.Discard{},
		now:       time.Now,
		coerce:    true,
	}
	WithBorrowableStatusCodes("instored", "inuse")(s)
	for _, opt := range opts {
		opt(s)
	}
	if s.locks == nil {
		s.locks = keylock.New()
	}
	if s.projector == nil {
		s.projector = projection.NewProjector(st, 0)
	}
	return s
}

func equipmentKey(id int64) string {
	return fmt.Sprintf("equipment:%d", id)
}

func (s *Service) clock() time.Time {
	return s.now().UTC()
}

func (s *Service) isBorrowable(code string) bool {
	_, ok := s.borrowable[strings.ToLower(code)]
	return ok
}

func (s *Service) publish(action string, actorID int64, rec *model.BorrowRecord) {
	s.publisher.Dispatch(notification.Event{
		Entity:   notification.EntityBorrow,
		EntityID: rec.ID,
		Action:   action,
		ActorID:  actorID,
		OwnerID:  rec.UserID,
		RefID:    rec.EquipmentID,
		Payload:  *rec,
		At:       rec.UpdateTime,
	})
}

func (s *Service) loadRecord(ctx context.Context, st store.Store, id int64) (*model.BorrowRecord, error) {
	rec, err := st.GetBorrow(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound(msgRecordNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load borrow record %d: %w", id, err)
	}
	return rec, nil
}

func (s *Service) loadEquipment(ctx context.Context, st store.Store, id int64, forUpdate bool) (*model.Equipment, error) {
	eq, err := st.GetEquipment(ctx, id, forUpdate)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound(msgEquipmentNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load equipment %d: %w", id, err)
	}
	return eq, nil
}

// available computes max(0, total - outstanding) against st's view of the data.
func available(ctx context.Context, st store.Store, eq *model.Equipment) (Availability, error) {
	inUse, err := st.OutstandingQuantity(ctx, eq.ID)
	if err != nil {
		return Availability{}, err
	}
	free := eq.Quantity - inUse
	if free < 0 {
		free = 0
	}
	return Availability{EquipmentID: eq.ID, Total: eq.Quantity, InUse: inUse, Available: free}, nil
}

func trimmedOrNil(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// appendRemark joins a labelled note onto an existing remark.
func appendRemark(existing *string, label, note string) *string {
	note = strings.TrimSpace(note)
	if note == "" {
		return existing
	}
	if existing != nil && strings.TrimSpace(*existing) != "" {
		merged := *existing + " | " + label + note
		return &merged
	}
	merged := label + note
	return &merged
}
