package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"labequip-backend/internal/model"
)

var (
	// ErrNotFound is returned when a looked-up row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrStaleStatus is returned by conditional updates when the row left the expected status
	// between read and write.
	ErrStaleStatus = errors.New("record status changed concurrently")
)

// Store defines the interface for all database operations used by the lifecycle engines.
type Store interface {
	// WithTx runs fn in a single transaction. Transient lock and serialization
	// failures are retried, so fn must be safe to run more than once.
	WithTx(ctx context.Context, fn func(tx Store) error) error

	GetEquipment(ctx context.Context, id int64, forUpdate bool) (*model.Equipment, error)
	GetLaboratory(ctx context.Context, id int64, forUpdate bool) (*model.Laboratory, error)
	EquipmentByIDs(ctx context.Context, ids []int64) (map[int64]model.Equipment, error)
	LaboratoriesByIDs(ctx context.Context, ids []int64) (map[int64]model.Laboratory, error)
	UsersByIDs(ctx context.Context, ids []int64) (map[int64]model.User, error)

	CreateBorrow(ctx context.Context, rec *model.BorrowRecord) error
	GetBorrow(ctx context.Context, id int64) (*model.BorrowRecord, error)
	UpdateBorrow(ctx context.Context, rec *model.BorrowRecord, fromStatus int) error
	OutstandingQuantity(ctx context.Context, equipmentID int64) (int, error)
	ListBorrows(ctx context.Context, q BorrowQuery) ([]model.BorrowRecord, int64, error)
	MarkOverdue(ctx context.Context, now time.Time) ([]model.BorrowRecord, error)

	CreateReservation(ctx context.Context, rec *model.Reservation) error
	GetReservation(ctx context.Context, id int64) (*model.Reservation, error)
	UpdateReservation(ctx context.Context, rec *model.Reservation, fromStatus int) error
	ListReservations(ctx context.Context, q ReservationQuery) ([]model.Reservation, int64, error)
	BlockingReservations(ctx context.Context, laboratoryID int64, date string, excludeID int64) ([]model.Reservation, error)

	AppendAudit(ctx context.Context, entry *model.AuditLog) error
	SubscriptionsForUser(ctx context.Context, userID int64) ([]model.PushSubscription, error)
	SaveSubscription(ctx context.Context, sub *model.PushSubscription) error
	DeleteSubscription(ctx context.Context, endpoint string, userID int64) error
	DeleteSubscriptionByEndpoint(ctx context.Context, endpoint string) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db    *gorm.DB
	inTx  bool
	retry []RetryOption
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB, opts ...RetryOption) Store {
	return &gormStore{db: db, retry: opts}
}

// WithTx implements Store.
func (s *gormStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}
	return RetryWithExponentialBackoff(ctx, func(ctx context.Context) error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(&gormStore{db: tx, inTx: true})
		})
	}, s.retry...)
}

// lockRow adds SELECT ... FOR UPDATE where the dialect supports row locks.
// sqlite serialises writers on its own.
func (s *gormStore) lockRow(q *gorm.DB) *gorm.DB {
	if s.db.Dialector.Name() == "postgres" {
		return q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// GetEquipment loads an equipment row with its status dictionary entry.
func (s *gormStore) GetEquipment(ctx context.Context, id int64, forUpdate bool) (*model.Equipment, error) {
	q := s.db.WithContext(ctx)
	if forUpdate {
		q = s.lockRow(q)
	}
	var eq model.Equipment
	if err := q.First(&eq, id).Error; err != nil {
		return nil, notFound(err)
	}
	if eq.StatusID != 0 {
		var status model.EquipmentStatus
		err := s.db.WithContext(ctx).First(&status, eq.StatusID).Error
		switch {
		case err == nil:
			eq.Status = &status
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, fmt.Errorf("failed to load status %d of equipment %d: %w", eq.StatusID, id, err)
		}
	}
	return &eq, nil
}

// GetLaboratory loads a laboratory row.
func (s *gormStore) GetLaboratory(ctx context.Context, id int64, forUpdate bool) (*model.Laboratory, error) {
	q := s.db.WithContext(ctx)
	if forUpdate {
		q = s.lockRow(q)
	}
	var lab model.Laboratory
	if err := q.First(&lab, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &lab, nil
}

// EquipmentByIDs batch-loads equipment for display enrichment.
func (s *gormStore) EquipmentByIDs(ctx context.Context, ids []int64) (map[int64]model.Equipment, error) {
	out := make(map[int64]model.Equipment, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []model.Equipment
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load equipment: %w", err)
	}
	for _, r := range rows {
		out[r.ID] = r
	}
	return out, nil
}

// LaboratoriesByIDs batch-loads laboratories for display enrichment.
func (s *gormStore) LaboratoriesByIDs(ctx context.Context, ids []int64) (map[int64]model.Laboratory, error) {
	out := make(map[int64]model.Laboratory, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []model.Laboratory
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load laboratories: %w", err)
	}
	for _, r := range rows {
		out[r.ID] = r
	}
	return out, nil
}

// UsersByIDs batch-loads users for display enrichment.
func (s *gormStore) UsersByIDs(ctx context.Context, ids []int64) (map[int64]model.User, error) {
	out := make(map[int64]model.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []model.User
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	for _, r := range rows {
		out[r.ID] = r
	}
	return out, nil
}
