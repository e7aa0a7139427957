package store

import "time"

// Page bounds a list query. Offset is derived from Number and Size (1-based).
type Page struct {
	Number int
	Size   int
}

// Page size bounds applied by NewPage.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// NewPage normalises a 1-based page request: number defaults to 1, size to
// DefaultPageSize, and size is capped at MaxPageSize.
func NewPage(number, size int) Page {
	if number < 1 {
		number = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return Page{Number: number, Size: size}
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int {
	if p.Number <= 1 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

// Sort orders a list query.
type Sort struct {
	Column string
	Desc   bool
}

// BorrowQuery filters equipment borrow records. Nil fields do not filter.
type BorrowQuery struct {
	EquipmentID    *int64
	UserID         *int64
	Status         *int
	BorrowDateFrom *time.Time
	BorrowDateTo   *time.Time
	Sort           Sort
	Page           Page
}

// ReservationQuery filters laboratory reservations. Nil fields do not filter.
type ReservationQuery struct {
	LaboratoryID *int64
	UserID       *int64
	ReserveDate  *string
	Status       *int
	Sort         Sort
	Page         Page
}
