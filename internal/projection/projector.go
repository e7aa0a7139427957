package projection

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"labequip-backend/internal/model"
)

// Catalog batch-loads the entities records refer to.
type Catalog interface {
	EquipmentByIDs(ctx context.Context, ids []int64) (map[int64]model.Equipment, error)
	LaboratoriesByIDs(ctx context.Context, ids []int64) (map[int64]model.Laboratory, error)
	UsersByIDs(ctx context.Context, ids []int64) (map[int64]model.User, error)
}

// Projector resolves display names through a short-lived cache and builds views.
type Projector struct {
	catalog Catalog
	cache   *cache.Cache
}

// NewProjector creates a projector. A non-positive ttl disables caching.
func NewProjector(catalog Catalog, ttl time.Duration) *Projector {
	p := &Projector{catalog: catalog}
	if ttl > 0 {
		p.cache = cache.New(ttl, 2*ttl)
	}
	return p
}

// Borrows projects a batch of borrow records.
func (p *Projector) Borrows(ctx context.Context, recs []model.BorrowRecord, detail bool) ([]BorrowView, error) {
	var equipmentIDs, userIDs []int64
	for _, r := range recs {
		equipmentIDs = append(equipmentIDs, r.EquipmentID)
		userIDs = append(userIDs, r.UserID)
		if r.ApproverID != nil {
			userIDs = append(userIDs, *r.ApproverID)
		}
	}

	var names Names
	var err error
	if names.Equipment, err = resolve(ctx, p.cache, "equipment", equipmentIDs, p.catalog.EquipmentByIDs); err != nil {
		return nil, err
	}
	if names.Users, err = resolve(ctx, p.cache, "user", userIDs, p.catalog.UsersByIDs); err != nil {
		return nil, err
	}

	views := make([]BorrowView, len(recs))
	for i, r := range recs {
		views[i] = names.Borrow(r, detail)
	}
	return views, nil
}

// Reservations projects a batch of reservations.
func (p *Projector) Reservations(ctx context.Context, recs []model.Reservation, detail bool) ([]ReservationView, error) {
	var labIDs, userIDs []int64
	for _, r := range recs {
		labIDs = append(labIDs, r.LaboratoryID)
		userIDs = append(userIDs, r.UserID)
		if r.ApproverID != nil {
			userIDs = append(userIDs, *r.ApproverID)
		}
	}

	var names Names
	var err error
	if names.Laboratories, err = resolve(ctx, p.cache, "laboratory", labIDs, p.catalog.LaboratoriesByIDs); err != nil {
		return nil, err
	}
	if names.Users, err = resolve(ctx, p.cache, "user", userIDs, p.catalog.UsersByIDs); err != nil {
		return nil, err
	}

	views := make([]ReservationView, len(recs))
	for i, r := range recs {
		views[i] = names.Reservation(r, detail)
	}
	return views, nil
}

// Borrow projects a single borrow record in detail form.
func (p *Projector) Borrow(ctx context.Context, rec model.BorrowRecord) (BorrowView, error) {
	views, err := p.Borrows(ctx, []model.BorrowRecord{rec}, true)
	if err != nil {
		return BorrowView{}, err
	}
	return views[0], nil
}

// Reservation projects a single reservation in detail form.
func (p *Projector) Reservation(ctx context.Context, rec model.Reservation) (ReservationView, error) {
	views, err := p.Reservations(ctx, []model.Reservation{rec}, true)
	if err != nil {
		return ReservationView{}, err
	}
	return views[0], nil
}

// resolve serves ids from the cache and loads the rest in one batch.
func resolve[T any](
	ctx context.Context,
	c *cache.Cache,
	kind string,
	ids []int64,
	load func(context.Context, []int64) (map[int64]T, error),
) (map[int64]T, error) {
	out := make(map[int64]T, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	var missing []int64
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if c != nil {
			if v, ok := c.Get(cacheKey(kind, id)); ok {
				out[id] = v.(T)
				continue
			}
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return out, nil
	}

	loaded, err := load(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s names: %w", kind, err)
	}
	for id, v := range loaded {
		out[id] = v
		if c != nil {
			c.SetDefault(cacheKey(kind, id), v)
		}
	}
	return out, nil
}

func cacheKey(kind string, id int64) string {
	return fmt.Sprintf("%s:%d", kind, id)
}
