package jobs

import (
	"context"
	"testing"
	"time"

	"cinebook/internal/bookingerr"
	"cinebook/internal/clock"
	"cinebook/internal/config"
	"cinebook/internal/messaging"
	"cinebook/internal/models"
	"cinebook/internal/repository"
	"cinebook/internal/repository/memory"
	"cinebook/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sweepEnv struct {
	clk      *clock.Fake
	stores   *repository.Stores
	services *service.Services
	job      *ReservationExpiryJob
	showID   int64
	seatIDs  []string
}

func newSweepEnv(t *testing.T) *sweepEnv {
	t.Helper()

	clk := clock.NewFake(time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC))
	stores := memory.NewStores(clk)
	rules := config.Rules{
		HoldTTL:            5 * time.Minute,
		ExtensionCap:       30 * time.Minute,
		CancellationCutoff: 2 * time.Hour,
		SweepInterval:      30 * time.Second,
	}
	services := service.NewServices(stores, messaging.NopPublisher{}, clk, rules)

	resp, err := services.Shows.Create(context.Background(), &models.CreateShowRequest{
		Title:    "Matinee",
		StartsAt: clk.Now().Add(24 * time.Hour),
		Layout:   []models.SeatRowLayout{{Row: 1, Columns: 4, PriceCents: 1200}},
	})
	require.NoError(t, err)

	seats, err := stores.Seats.ListByShow(context.Background(), resp.ID)
	require.NoError(t, err)
	seatIDs := make([]string, len(seats))
	for i, seat := range seats {
		seatIDs[i] = seat.ID
	}

	return &sweepEnv{
		clk:      clk,
		stores:   stores,
		services: services,
		job:      NewReservationExpiryJob(stores.Reservations, stores.Seats, messaging.NopPublisher{}, clk, rules.SweepInterval),
		showID:   resp.ID,
		seatIDs:  seatIDs,
	}
}

func TestSweep_ReleasesExpiredHolds(t *testing.T) {
	env := newSweepEnv(t)
	ctx := context.Background()

	res, err := env.services.Reservations.Create(ctx, env.showID, env.seatIDs[:2], 7, 0)
	require.NoError(t, err)

	env.clk.Advance(6 * time.Minute)
	env.job.Sweep(ctx)

	for _, id := range env.seatIDs[:2] {
		seat, err := env.stores.Seats.Get(ctx, id)
		require.NoError(t, err)
		assert.False(t, seat.Occupied)
		assert.Nil(t, seat.HeldUntil)
	}

	_, err = env.stores.Reservations.GetByID(ctx, res.ID)
	assert.ErrorIs(t, err, bookingerr.ErrNotFound)
}

func TestSweep_LeavesLiveHoldsAlone(t *testing.T) {
	env := newSweepEnv(t)
	ctx := context.Background()

	res, err := env.services.Reservations.Create(ctx, env.showID, env.seatIDs[:1], 7, 0)
	require.NoError(t, err)

	env.clk.Advance(4 * time.Minute)
	env.job.Sweep(ctx)

	seat, err := env.stores.Seats.Get(ctx, env.seatIDs[0])
	require.NoError(t, err)
	assert.True(t, seat.Occupied)

	_, err = env.stores.Reservations.GetByID(ctx, res.ID)
	require.NoError(t, err)
}

func TestSweep_SkipsConvertedSeats(t *testing.T) {
	env := newSweepEnv(t)
	ctx := context.Background()

	res, err := env.services.Reservations.Create(ctx, env.showID, env.seatIDs[:1], 7, 0)
	require.NoError(t, err)

	contact := models.Contact{Email: "guest@example.com", Phone: "+15550100"}
	conf, err := env.services.Bookings.Create(ctx, env.showID, 7,
		[]models.SeatAssignment{{SeatID: env.seatIDs[0], CustomerName: "Guest", CustomerAge: 30}}, contact)
	require.NoError(t, err)

	// The reservation row outlived its conversion; the sweeper must clean
	// it up without touching the sold seat.
	env.clk.Advance(6 * time.Minute)
	env.job.Sweep(ctx)

	seat, err := env.stores.Seats.Get(ctx, env.seatIDs[0])
	require.NoError(t, err)
	assert.True(t, seat.Occupied)
	require.NotNil(t, seat.BookingID)
	assert.Equal(t, conf.BookingID, *seat.BookingID)

	_, err = env.stores.Reservations.GetByID(ctx, res.ID)
	assert.ErrorIs(t, err, bookingerr.ErrNotFound)
}

func TestSweep_LeavesReclaimedHoldAlone(t *testing.T) {
	env := newSweepEnv(t)
	ctx := context.Background()

	first, err := env.services.Reservations.Create(ctx, env.showID, env.seatIDs[:1], 7, 0)
	require.NoError(t, err)

	// The first hold lapses and a second user reclaims the seat before the
	// next sweep runs.
	env.clk.Advance(6 * time.Minute)
	second, err := env.services.Reservations.Create(ctx, env.showID, env.seatIDs[:1], 8, 0)
	require.NoError(t, err)

	env.job.Sweep(ctx)

	// The stale record is gone but the reclaimed hold survives the sweep.
	seat, err := env.stores.Seats.Get(ctx, env.seatIDs[0])
	require.NoError(t, err)
	assert.True(t, seat.Occupied)
	require.NotNil(t, seat.HeldUntil)
	assert.True(t, seat.HeldUntil.Equal(second.ExpiresAt))

	_, err = env.stores.Reservations.GetByID(ctx, first.ID)
	assert.ErrorIs(t, err, bookingerr.ErrNotFound)
	_, err = env.stores.Reservations.GetByID(ctx, second.ID)
	require.NoError(t, err)
}

func TestSweep_Rerunnable(t *testing.T) {
	env := newSweepEnv(t)
	ctx := context.Background()

	_, err := env.services.Reservations.Create(ctx, env.showID, env.seatIDs[:1], 7, 0)
	require.NoError(t, err)

	env.clk.Advance(6 * time.Minute)
	env.job.Sweep(ctx)
	env.job.Sweep(ctx)

	seat, err := env.stores.Seats.Get(ctx, env.seatIDs[0])
	require.NoError(t, err)
	assert.False(t, seat.Occupied)
}
