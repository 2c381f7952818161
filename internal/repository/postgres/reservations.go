package postgres

import (
	"context"
	"database/sql"
	"time"

	"cinebook/internal/bookingerr"
	"cinebook/internal/database"
	"cinebook/internal/models"

	"github.com/lib/pq"
)

type ReservationRepository struct {
	db *database.DB
}

func NewReservationRepository(db *database.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

func (r *ReservationRepository) Create(ctx context.Context, res *models.Reservation) error {
	query := `
		INSERT INTO reservations (id, show_id, user_id, seat_ids, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := q(ctx, r.db).ExecContext(ctx, query,
		res.ID,
		res.ShowID,
		res.UserID,
		pq.Array(res.SeatIDs),
		res.CreatedAt,
		res.ExpiresAt,
	)
	return err
}

func (r *ReservationRepository) GetByID(ctx context.Context, id string) (*models.Reservation, error) {
	res := &models.Reservation{}
	query := `
		SELECT id, show_id, user_id, seat_ids, created_at, expires_at
		FROM reservations
		WHERE id = $1`

	err := q(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&res.ID,
		&res.ShowID,
		&res.UserID,
		pq.Array(&res.SeatIDs),
		&res.CreatedAt,
		&res.ExpiresAt,
	)

	if err == sql.ErrNoRows {
		return nil, bookingerr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return res, nil
}

func (r *ReservationRepository) UpdateExpiry(ctx context.Context, id string, expiresAt time.Time) error {
	query := `UPDATE reservations SET expires_at = $1 WHERE id = $2`
	_, err := q(ctx, r.db).ExecContext(ctx, query, expiresAt, id)
	return err
}

func (r *ReservationRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM reservations WHERE id = $1`
	_, err := q(ctx, r.db).ExecContext(ctx, query, id)
	return err
}

func (r *ReservationRepository) ListActiveByUserAndShow(ctx context.Context, userID, showID int64, now time.Time) ([]models.Reservation, error) {
	query := `
		SELECT id, show_id, user_id, seat_ids, created_at, expires_at
		FROM reservations
		WHERE user_id = $1 AND show_id = $2 AND expires_at > $3`

	rows, err := q(ctx, r.db).QueryContext(ctx, query, userID, showID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reservations []models.Reservation
	for rows.Next() {
		var res models.Reservation
		err := rows.Scan(
			&res.ID,
			&res.ShowID,
			&res.UserID,
			pq.Array(&res.SeatIDs),
			&res.CreatedAt,
			&res.ExpiresAt,
		)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, res)
	}

	return reservations, rows.Err()
}

func (r *ReservationRepository) ListExpired(ctx context.Context, now time.Time) ([]models.Reservation, error) {
	query := `
		SELECT id, show_id, user_id, seat_ids, created_at, expires_at
		FROM reservations
		WHERE expires_at < $1
		ORDER BY expires_at ASC`

	rows, err := q(ctx, r.db).QueryContext(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reservations []models.Reservation
	for rows.Next() {
		var res models.Reservation
		err := rows.Scan(
			&res.ID,
			&res.ShowID,
			&res.UserID,
			pq.Array(&res.SeatIDs),
			&res.CreatedAt,
			&res.ExpiresAt,
		)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, res)
	}

	return reservations, rows.Err()
}
