package store

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"labequip-backend/internal/model"
)

// List statements are built with goqu's default dialect: double-quoted identifiers and
// "?" placeholders, which gorm rebinds for whichever driver is underneath.

func borrowConditions(q BorrowQuery) []exp.Expression {
	var conds []exp.Expression
	if q.EquipmentID != nil {
		conds = append(conds, goqu.C("equipment_id").Eq(*q.EquipmentID))
	}
	if q.UserID != nil {
		conds = append(conds, goqu.C("user_id").Eq(*q.UserID))
	}
	if q.Status != nil {
		conds = append(conds, goqu.C("status").Eq(*q.Status))
	}
	if q.BorrowDateFrom != nil {
		conds = append(conds, goqu.C("borrow_date").Gte(*q.BorrowDateFrom))
	}
	if q.BorrowDateTo != nil {
		conds = append(conds, goqu.C("borrow_date").Lte(*q.BorrowDateTo))
	}
	return conds
}

func reservationConditions(q ReservationQuery) []exp.Expression {
	var conds []exp.Expression
	if q.LaboratoryID != nil {
		conds = append(conds, goqu.C("laboratory_id").Eq(*q.LaboratoryID))
	}
	if q.UserID != nil {
		conds = append(conds, goqu.C("user_id").Eq(*q.UserID))
	}
	if q.ReserveDate != nil {
		conds = append(conds, goqu.C("reserve_date").Eq(*q.ReserveDate))
	}
	if q.Status != nil {
		conds = append(conds, goqu.C("status").Eq(*q.Status))
	}
	return conds
}

type listStatements struct {
	countSQL  string
	countArgs []any
	pageSQL   string
	pageArgs  []any
}

func buildListStatements(table string, conds []exp.Expression, sort Sort, page Page) (listStatements, error) {
	base := goqu.From(table).Prepared(true).Where(conds...)

	countSQL, countArgs, err := base.Select(goqu.COUNT(goqu.Star())).ToSQL()
	if err != nil {
		return listStatements{}, fmt.Errorf("failed to build count query on %s: %w", table, err)
	}

	column := sort.Column
	if column == "" {
		column = "create_time"
	}
	order := goqu.I(column).Desc()
	tieBreak := goqu.I("id").Desc()
	if !sort.Desc {
		order = goqu.I(column).Asc()
		tieBreak = goqu.I("id").Asc()
	}

	pageDS := base.Order(order, tieBreak)
	if page.Size > 0 {
		pageDS = pageDS.Limit(uint(page.Size)).Offset(uint(page.Offset()))
	}
	pageSQL, pageArgs, err := pageDS.ToSQL()
	if err != nil {
		return listStatements{}, fmt.Errorf("failed to build page query on %s: %w", table, err)
	}

	return listStatements{countSQL: countSQL, countArgs: countArgs, pageSQL: pageSQL, pageArgs: pageArgs}, nil
}

// ListBorrows returns one page of borrow records plus the total matching count.
func (s *gormStore) ListBorrows(ctx context.Context, q BorrowQuery) ([]model.BorrowRecord, int64, error) {
	stmts, err := buildListStatements(model.BorrowRecord{}.TableName(), borrowConditions(q), q.Sort, q.Page)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := s.db.WithContext(ctx).Raw(stmts.countSQL, stmts.countArgs...).Scan(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count borrow records: %w", err)
	}
	rows := make([]model.BorrowRecord, 0)
	if total == 0 {
		return rows, 0, nil
	}
	if err := s.db.WithContext(ctx).Raw(stmts.pageSQL, stmts.pageArgs...).Scan(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list borrow records: %w", err)
	}
	return rows, total, nil
}

// ListReservations returns one page of reservations plus the total matching count.
func (s *gormStore) ListReservations(ctx context.Context, q ReservationQuery) ([]model.Reservation, int64, error) {
	stmts, err := buildListStatements(model.Reservation{}.TableName(), reservationConditions(q), q.Sort, q.Page)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := s.db.WithContext(ctx).Raw(stmts.countSQL, stmts.countArgs...).Scan(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count reservations: %w", err)
	}
	rows := make([]model.Reservation, 0)
	if total == 0 {
		return rows, 0, nil
	}
	if err := s.db.WithContext(ctx).Raw(stmts.pageSQL, stmts.pageArgs...).Scan(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list reservations: %w", err)
	}
	return rows, total, nil
}
