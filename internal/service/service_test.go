package service

import (
	"context"
	"testing"
	"time"

	"cinebook/internal/clock"
	"cinebook/internal/config"
	"cinebook/internal/messaging"
	"cinebook/internal/models"
	"cinebook/internal/repository"
	"cinebook/internal/repository/memory"

	"github.com/stretchr/testify/require"
)

var testContact = models.Contact{Email: "guest@example.com", Phone: "+15550100"}

func testRules() config.Rules {
	return config.Rules{
		HoldTTL:            5 * time.Minute,
		ExtensionCap:       30 * time.Minute,
		CancellationCutoff: 2 * time.Hour,
		SweepInterval:      30 * time.Second,
	}
}

type testEnv struct {
	clk      *clock.Fake
	stores   *repository.Stores
	services *Services
	showID   int64
	// seatIDs are ordered row then column: [0..3] is the 15.00 row,
	// [4..7] the 25.00 premium row.
	seatIDs   []string
	showStart time.Time
}

// newTestEnv builds memory-backed services around a fake clock and one show
// starting 24 hours out, with two rows of four seats.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	base := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	clk := clock.NewFake(base)
	stores := memory.NewStores(clk)
	services := NewServices(stores, messaging.NopPublisher{}, clk, testRules())

	start := base.Add(24 * time.Hour)
	resp, err := services.Shows.Create(context.Background(), &models.CreateShowRequest{
		Title:    "Evening Premiere",
		StartsAt: start,
		Layout: []models.SeatRowLayout{
			{Row: 1, Columns: 4, PriceCents: 1500},
			{Row: 2, Columns: 4, SeatType: "PREMIUM", PriceCents: 2500},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 8, resp.TotalSeats)

	seats, err := stores.Seats.ListByShow(context.Background(), resp.ID)
	require.NoError(t, err)
	seatIDs := make([]string, len(seats))
	for i, seat := range seats {
		seatIDs[i] = seat.ID
	}

	return &testEnv{
		clk:       clk,
		stores:    stores,
		services:  services,
		showID:    resp.ID,
		seatIDs:   seatIDs,
		showStart: start,
	}
}

func (e *testEnv) assignments(seatIDs ...string) []models.SeatAssignment {
	out := make([]models.SeatAssignment, len(seatIDs))
	for i, id := range seatIDs {
		out[i] = models.SeatAssignment{
			SeatID:       id,
			CustomerName: "Guest",
			CustomerAge:  30,
		}
	}
	return out
}
