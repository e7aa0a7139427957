package api

import (
	"github.com/SherClockHolmes/webpush-go"

	"labequip-backend/internal/borrow"
	"labequip-backend/internal/reservation"
	"labequip-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	borrows      *borrow.Service
	reservations *reservation.Service
	store        store.Store
	webpush      *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(borrows *borrow.Service, reservations *reservation.Service, s store.Store, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		borrows:      borrows,
		reservations: reservations,
		store:        s,
		webpush:      webpushOptions,
	}
}
