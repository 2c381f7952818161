package service

import (
	"context"
	"testing"
	"time"

	"cinebook/internal/bookingerr"
	"cinebook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShowCreate_Validation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.services.Shows.Create(context.Background(), &models.CreateShowRequest{
		StartsAt: env.showStart,
		Layout:   []models.SeatRowLayout{{Row: 0, Columns: 4}},
	})

	var ve *bookingerr.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "title")
	assert.Contains(t, ve.Fields, "layout")
}

func TestShowCreate_RowBeyondLabelRangeRejected(t *testing.T) {
	env := newTestEnv(t)

	// Row 27 has no single-letter label.
	_, err := env.services.Shows.Create(context.Background(), &models.CreateShowRequest{
		Title:    "Overflow",
		StartsAt: env.showStart,
		Layout:   []models.SeatRowLayout{{Row: 27, Columns: 4, PriceCents: 1500}},
	})

	var ve *bookingerr.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "layout")

	resp, err := env.services.Shows.Create(context.Background(), &models.CreateShowRequest{
		Title:    "Back row",
		StartsAt: env.showStart,
		Layout:   []models.SeatRowLayout{{Row: 26, Columns: 2, PriceCents: 1500}},
	})
	require.NoError(t, err)

	seats, err := env.services.Shows.ListSeats(context.Background(), resp.ID)
	require.NoError(t, err)
	require.Len(t, seats, 2)
	assert.Equal(t, "Z1", seats[0].SeatNo)
}

func TestShowListSeats_Statuses(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.services.Reservations.Create(ctx, env.showID, env.seatIDs[:1], 7, 0)
	require.NoError(t, err)
	_, err = env.services.Bookings.Create(ctx, env.showID, 8,
		env.assignments(env.seatIDs[1]), testContact)
	require.NoError(t, err)

	seats, err := env.services.Shows.ListSeats(ctx, env.showID)
	require.NoError(t, err)
	require.Len(t, seats, 8)

	assert.Equal(t, "HELD", seats[0].Status)
	assert.Equal(t, "BOOKED", seats[1].Status)
	assert.Equal(t, "FREE", seats[2].Status)
	assert.Equal(t, "15.00", seats[0].Price)
	assert.Equal(t, "25.00", seats[4].Price)
	assert.Equal(t, "A1", seats[0].SeatNo)
	assert.Equal(t, "B1", seats[4].SeatNo)

	// Past the hold TTL the unswept hold reads as free.
	env.clk.Advance(6 * time.Minute)
	seats, err = env.services.Shows.ListSeats(ctx, env.showID)
	require.NoError(t, err)
	assert.Equal(t, "FREE", seats[0].Status)
	assert.Equal(t, "BOOKED", seats[1].Status)
}

func TestShowListSeats_UnknownShow(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.services.Shows.ListSeats(context.Background(), 9999)
	assert.ErrorIs(t, err, bookingerr.ErrNotFound)
}
