package postgres

import (
	"context"
	"database/sql"

	"cinebook/internal/bookingerr"
	"cinebook/internal/database"
	"cinebook/internal/models"
)

type ShowRepository struct {
	db *database.DB
}

func NewShowRepository(db *database.DB) *ShowRepository {
	return &ShowRepository{db: db}
}

func (r *ShowRepository) Create(ctx context.Context, show *models.Show) error {
	query := `
		INSERT INTO shows (title, starts_at, total_seats)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	return q(ctx, r.db).QueryRowContext(ctx, query,
		show.Title,
		show.StartsAt,
		show.TotalSeats,
	).Scan(&show.ID, &show.CreatedAt)
}

func (r *ShowRepository) GetByID(ctx context.Context, id int64) (*models.Show, error) {
	show := &models.Show{}
	query := `
		SELECT id, title, starts_at, total_seats, created_at
		FROM shows
		WHERE id = $1`

	err := q(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&show.ID,
		&show.Title,
		&show.StartsAt,
		&show.TotalSeats,
		&show.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, bookingerr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return show, nil
}
