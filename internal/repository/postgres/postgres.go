package postgres

import (
	"cinebook/internal/database"
	"cinebook/internal/repository"
)

// NewStores wires the Postgres-backed stores behind the repository ports.
func NewStores(db *database.DB) *repository.Stores {
	tx := NewTxRunner(db)
	return &repository.Stores{
		Tx:           tx,
		Shows:        NewShowRepository(db),
		Seats:        NewSeatRepository(db, tx),
		Reservations: NewReservationRepository(db),
		Bookings:     NewBookingRepository(db),
	}
}
