package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cinebook/internal/bookingerr"
	"cinebook/internal/database"
	"cinebook/internal/models"

	"github.com/lib/pq"
)

// lockNotAvailable is Postgres error class 55P03, raised by FOR UPDATE
// NOWAIT when another transaction holds the row lock.
const lockNotAvailable = "55P03"

type SeatRepository struct {
	db *database.DB
	tx *TxRunner
}

func NewSeatRepository(db *database.DB, tx *TxRunner) *SeatRepository {
	return &SeatRepository{db: db, tx: tx}
}

const seatColumns = `id, show_id, seat_no, row_number, col_number, seat_type,
       price_cents, occupied, held_until, booking_id, version`

func scanSeat(row interface{ Scan(...interface{}) error }) (models.Seat, error) {
	var seat models.Seat
	err := row.Scan(
		&seat.ID,
		&seat.ShowID,
		&seat.SeatNo,
		&seat.Row,
		&seat.Column,
		&seat.SeatType,
		&seat.PriceCents,
		&seat.Occupied,
		&seat.HeldUntil,
		&seat.BookingID,
		&seat.Version,
	)
	return seat, err
}

func (r *SeatRepository) CreateForShow(ctx context.Context, showID int64, layout []models.SeatRowLayout) (int, error) {
	var created int
	err := r.tx.WithTx(ctx, func(ctx context.Context) error {
		for _, rowLayout := range layout {
			seatType := rowLayout.SeatType
			if seatType == "" {
				seatType = "STANDARD"
			}
			for col := 1; col <= rowLayout.Columns; col++ {
				seatNo := fmt.Sprintf("%c%d", 'A'+rowLayout.Row-1, col)
				query := `
					INSERT INTO seats (show_id, seat_no, row_number, col_number, seat_type, price_cents)
					VALUES ($1, $2, $3, $4, $5, $6)`
				if _, err := q(ctx, r.db).ExecContext(ctx, query,
					showID, seatNo, rowLayout.Row, col, seatType, rowLayout.PriceCents); err != nil {
					return err
				}
				created++
			}
		}

		updateQuery := `UPDATE shows SET total_seats = $1 WHERE id = $2`
		_, err := q(ctx, r.db).ExecContext(ctx, updateQuery, created, showID)
		return err
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

func (r *SeatRepository) Get(ctx context.Context, seatID string) (*models.Seat, error) {
	query := `SELECT ` + seatColumns + ` FROM seats WHERE id = $1`

	seat, err := scanSeat(q(ctx, r.db).QueryRowContext(ctx, query, seatID))
	if err == sql.ErrNoRows {
		return nil, bookingerr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &seat, nil
}

func (r *SeatRepository) GetMany(ctx context.Context, showID int64, seatIDs []string) ([]models.Seat, error) {
	query := `SELECT ` + seatColumns + `
		FROM seats
		WHERE show_id = $1 AND id = ANY($2)
		ORDER BY row_number, col_number`

	return r.querySeats(ctx, query, showID, pq.Array(seatIDs))
}

func (r *SeatRepository) ListByShow(ctx context.Context, showID int64) ([]models.Seat, error) {
	query := `SELECT ` + seatColumns + `
		FROM seats
		WHERE show_id = $1
		ORDER BY row_number, col_number`

	return r.querySeats(ctx, query, showID)
}

func (r *SeatRepository) GetManyForUpdate(ctx context.Context, showID int64, seatIDs []string) ([]models.Seat, error) {
	query := `SELECT ` + seatColumns + `
		FROM seats
		WHERE show_id = $1 AND id = ANY($2)
		ORDER BY row_number, col_number
		FOR UPDATE NOWAIT`

	seats, err := r.querySeats(ctx, query, showID, pq.Array(seatIDs))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == lockNotAvailable {
			return nil, bookingerr.ErrLockTimeout
		}
		return nil, err
	}
	return seats, nil
}

func (r *SeatRepository) querySeats(ctx context.Context, query string, args ...interface{}) ([]models.Seat, error) {
	rows, err := q(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seats []models.Seat
	for rows.Next() {
		seat, err := scanSeat(rows)
		if err != nil {
			return nil, err
		}
		seats = append(seats, seat)
	}

	return seats, rows.Err()
}

// SetHeld claims the whole batch in a single conditional UPDATE: if any
// targeted seat is not free the row count comes up short and the enclosing
// transaction rolls back, so partial holds are never observable.
func (r *SeatRepository) SetHeld(ctx context.Context, seatIDs []string, now, expiresAt time.Time) error {
	return r.tx.WithTx(ctx, func(ctx context.Context) error {
		query := `
			UPDATE seats
			SET occupied = TRUE, held_until = $1, version = version + 1
			WHERE id = ANY($2)
			  AND booking_id IS NULL
			  AND (occupied = FALSE OR (held_until IS NOT NULL AND held_until <= $3))`

		res, err := q(ctx, r.db).ExecContext(ctx, query, expiresAt, pq.Array(seatIDs), now)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n != int64(len(seatIDs)) {
			return bookingerr.ErrSeatUnavailable
		}
		return nil
	})
}

// UpdateHeldUntil matches on the current held_until so an extend that lost
// its hold to a rival reclaim touches nothing.
func (r *SeatRepository) UpdateHeldUntil(ctx context.Context, seatIDs []string, currentExpiry, newExpiry time.Time) error {
	return r.tx.WithTx(ctx, func(ctx context.Context) error {
		query := `
			UPDATE seats
			SET held_until = $1, version = version + 1
			WHERE id = ANY($2) AND booking_id IS NULL AND held_until = $3`

		res, err := q(ctx, r.db).ExecContext(ctx, query, newExpiry, pq.Array(seatIDs), currentExpiry)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n != int64(len(seatIDs)) {
			return bookingerr.ErrSeatUnavailable
		}
		return nil
	})
}

func (r *SeatRepository) SetBooked(ctx context.Context, seatIDs []string, bookingID int64) error {
	query := `
		UPDATE seats
		SET occupied = TRUE, held_until = NULL, booking_id = $1, version = version + 1
		WHERE id = ANY($2)`

	res, err := q(ctx, r.db).ExecContext(ctx, query, bookingID, pq.Array(seatIDs))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != int64(len(seatIDs)) {
		return fmt.Errorf("booked %d of %d seats", n, len(seatIDs))
	}
	return nil
}

// ReleaseUnbooked guards on booking_id IS NULL so a sweep racing a booking
// that just committed leaves the sold seat alone, and on held_until so a
// stale reservation's release skips a seat a later hold has reclaimed.
func (r *SeatRepository) ReleaseUnbooked(ctx context.Context, seatIDs []string, heldBefore time.Time) ([]string, error) {
	query := `
		UPDATE seats
		SET occupied = FALSE, held_until = NULL, version = version + 1
		WHERE id = ANY($1) AND booking_id IS NULL AND occupied = TRUE
		  AND held_until IS NOT NULL AND held_until <= $2
		RETURNING id`

	return r.updateReturningIDs(ctx, query, pq.Array(seatIDs), heldBefore)
}

func (r *SeatRepository) ReleaseByBooking(ctx context.Context, bookingID int64) ([]string, error) {
	query := `
		UPDATE seats
		SET occupied = FALSE, held_until = NULL, booking_id = NULL, version = version + 1
		WHERE booking_id = $1
		RETURNING id`

	return r.updateReturningIDs(ctx, query, bookingID)
}

func (r *SeatRepository) updateReturningIDs(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	rows, err := q(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}
