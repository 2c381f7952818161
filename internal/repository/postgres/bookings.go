package postgres

import (
	"context"
	"database/sql"

	"cinebook/internal/bookingerr"
	"cinebook/internal/database"
	"cinebook/internal/models"
)

type BookingRepository struct {
	db *database.DB
}

func NewBookingRepository(db *database.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking, lines []models.BookingLine) error {
	query := `
		INSERT INTO bookings (show_id, user_id, status, total_amount_cents)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	err := q(ctx, r.db).QueryRowContext(ctx, query,
		booking.ShowID,
		booking.UserID,
		booking.Status,
		booking.TotalAmountCents,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		return err
	}

	lineQuery := `
		INSERT INTO booking_lines (booking_id, seat_id, customer_name, customer_age, gender, price_cents_at_booking)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	for i := range lines {
		lines[i].BookingID = booking.ID
		err := q(ctx, r.db).QueryRowContext(ctx, lineQuery,
			booking.ID,
			lines[i].SeatID,
			lines[i].CustomerName,
			lines[i].CustomerAge,
			lines[i].Gender,
			lines[i].PriceCentsAtBooking,
		).Scan(&lines[i].ID)
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*models.Booking, error) {
	booking := &models.Booking{}
	query := `
		SELECT id, show_id, user_id, status, total_amount_cents, created_at, updated_at
		FROM bookings
		WHERE id = $1`

	err := q(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&booking.ID,
		&booking.ShowID,
		&booking.UserID,
		&booking.Status,
		&booking.TotalAmountCents,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, bookingerr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return booking, nil
}

func (r *BookingRepository) GetLines(ctx context.Context, bookingID int64) ([]models.BookingLine, error) {
	query := `
		SELECT id, booking_id, seat_id, customer_name, customer_age, gender, price_cents_at_booking
		FROM booking_lines
		WHERE booking_id = $1
		ORDER BY id`

	rows, err := q(ctx, r.db).QueryContext(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []models.BookingLine
	for rows.Next() {
		var line models.BookingLine
		err := rows.Scan(
			&line.ID,
			&line.BookingID,
			&line.SeatID,
			&line.CustomerName,
			&line.CustomerAge,
			&line.Gender,
			&line.PriceCentsAtBooking,
		)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	return lines, rows.Err()
}

func (r *BookingRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE bookings SET status = $1, updated_at = NOW() WHERE id = $2`
	_, err := q(ctx, r.db).ExecContext(ctx, query, status, id)
	return err
}

func (r *BookingRepository) ListCancelledWithOccupiedSeats(ctx context.Context) ([]int64, error) {
	query := `
		SELECT DISTINCT b.id
		FROM bookings b
		JOIN seats s ON s.booking_id = b.id
		WHERE b.status = 'CANCELLED'`

	rows, err := q(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}
