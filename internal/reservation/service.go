// Package reservation implements laboratory time-slot booking: requests,
// approval with a fresh overlap check, cancellation, completion, and the
// read-only conflict and free-slot queries.
package reservation

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
	msgRecordNotFound      = "预约记录不存在"
	msgLabNotFound         = "实验室不存在"
	msgLabUnavailable      = "实验室不可用：该实验室当前无法预约"
	msgViewForbidden       = "无权限查看该预约详情"
	msgCancelForbidden     = "无权限取消该预约"
	msgTimeOrder           = "参数错误：结束时间不能早于或等于开始时间"
	msgActualTimeOrder     = "参数错误：实际结束时间不能早于或等于实际开始时间"
	msgPastDate            = "参数错误：预约日期不能是过去日期"
	msgDateInvalid         = "参数错误：预约日期格式无效"
	msgConflict            = "预约冲突：该时间段实验室已被预约"
	msgCannotCancel        = "该预约已无法取消"
	msgAlreadyDecided      = "该预约已审批过，无法重复审批"
	msgDecisionInvalid     = "参数错误：审批状态无效（必须是1-通过或2-拒绝）"
	msgCompleteWrongStatus = "该预约状态不符合要求，无法标记为完成"

	cancelRemarkLabel = "取消备注："
)

// Service is the reservation conflict engine.
type Service struct {
	store     store.Store
	locks     *keylock.Map
	projector *projection.Projector
	publisher notification.Publisher
	now       func() time.Time
	opensAt   model.Clock
	closesAt  model.Clock
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source. Its location decides what "today" is.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithOpenHours sets the daily window free slots are computed in.
func WithOpenHours(opensAt, closesAt model.Clock) Option {
	return func(s *Service) {
		s.opensAt = opensAt
		s.closesAt = closesAt
	}
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

// NewService creates a reservation engine on top of st.
func NewService(st store.Store, opts ...Option) *Service {
	s := &Service{
		store:     st,
		publisher: notification.Discard{},
		now:       time.Now,
		opensAt:   model.NewClock(8, 0),
		closesAt:  model.NewClock(22, 0),
	}
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

func slotKey(laboratoryID int64, date string) string {
	return fmt.Sprintf("lab:%d:%s", laboratoryID, date)
}

func (s *Service) today() string {
	return s.now().Format(model.DateLayout)
}

// normalizeDate validates a YYYY-MM-DD date and returns it in canonical form.
func normalizeDate(date string) (string, error) {
	d, err := time.Parse(model.DateLayout, strings.TrimSpace(date))
	if err != nil {
		return "", apperr.InvalidArgument(msgDateInvalid)
	}
	return d.Format(model.DateLayout), nil
}

func (s *Service) publish(action string, actorID int64, rec *model.Reservation) {
	s.publisher.Dispatch(notification.Event{
		Entity:   notification.EntityReservation,
		EntityID: rec.ID,
		Action:   action,
		ActorID:  actorID,
		OwnerID:  rec.UserID,
		RefID:    rec.LaboratoryID,
		Payload:  *rec,
		At:       rec.UpdateTime,
	})
}

func (s *Service) loadRecord(ctx context.Context, st store.Store, id int64) (*model.Reservation, error) {
	rec, err := st.GetReservation(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound(msgRecordNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load reservation %d: %w", id, err)
	}
	return rec, nil
}

func (s *Service) loadLaboratory(ctx context.Context, st store.Store, id int64, forUpdate bool) (*model.Laboratory, error) {
	lab, err := st.GetLaboratory(ctx, id, forUpdate)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound(msgLabNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load laboratory %d: %w", id, err)
	}
	return lab, nil
}

// conflicts returns the blocking reservations on the lab and date that overlap [start, end).
func conflicts(ctx context.Context, st store.Store, laboratoryID int64, date string, start, end model.Clock, excludeID int64) ([]model.Reservation, error) {
	blocking, err := st.BlockingReservations(ctx, laboratoryID, date, excludeID)
	if err != nil {
		return nil, err
	}
	var out []model.Reservation
	for i := range blocking {
		if blocking[i].Overlaps(start, end) {
			out = append(out, blocking[i])
		}
	}
	return out, nil
}

func trimmedOrNil(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

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
