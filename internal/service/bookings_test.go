package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cinebook/internal/bookingerr"
	"cinebook/internal/messaging"
	"cinebook/internal/models"
	"cinebook/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingCreate_Success(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// One standard and one premium seat.
	conf, err := env.services.Bookings.Create(ctx, env.showID, 7,
		env.assignments(env.seatIDs[0], env.seatIDs[4]), testContact)
	require.NoError(t, err)

	assert.Equal(t, models.BookingConfirmed, conf.Status)
	assert.Equal(t, "40.00", conf.TotalAmount)
	assert.Equal(t, []string{env.seatIDs[0], env.seatIDs[4]}, conf.SeatIDs)

	for _, id := range conf.SeatIDs {
		seat, err := env.stores.Seats.Get(ctx, id)
		require.NoError(t, err)
		assert.True(t, seat.Occupied)
		require.NotNil(t, seat.BookingID)
		assert.Equal(t, conf.BookingID, *seat.BookingID)
		assert.Nil(t, seat.HeldUntil)
	}

	lines, err := env.stores.Bookings.GetLines(ctx, conf.BookingID)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, int64(1500), lines[0].PriceCentsAtBooking)
	assert.Equal(t, int64(2500), lines[1].PriceCentsAtBooking)
}

func TestBookingCreate_ValidationRejectedBeforeLocking(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cases := []struct {
		name        string
		assignments []models.SeatAssignment
		contact     models.Contact
		field       string
	}{
		{
			name:    "no seats",
			contact: testContact,
			field:   "seats",
		},
		{
			name: "missing customer name",
			assignments: []models.SeatAssignment{
				{SeatID: env.seatIDs[0], CustomerAge: 30},
			},
			contact: testContact,
			field:   "seats[0].customer_name",
		},
		{
			name: "age out of range",
			assignments: []models.SeatAssignment{
				{SeatID: env.seatIDs[0], CustomerName: "Guest", CustomerAge: 130},
			},
			contact: testContact,
			field:   "seats[0].customer_age",
		},
		{
			name: "duplicate seat",
			assignments: []models.SeatAssignment{
				{SeatID: env.seatIDs[0], CustomerName: "Guest", CustomerAge: 30},
				{SeatID: env.seatIDs[0], CustomerName: "Guest Two", CustomerAge: 35},
			},
			contact: testContact,
			field:   "seats[1].seat_id",
		},
		{
			name: "missing contact",
			assignments: []models.SeatAssignment{
				{SeatID: env.seatIDs[0], CustomerName: "Guest", CustomerAge: 30},
			},
			field: "contact.email",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.services.Bookings.Create(ctx, env.showID, 7, tc.assignments, tc.contact)

			var ve *bookingerr.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, ve.Fields, tc.field)
		})
	}

	// Nothing was claimed by any of the rejected attempts.
	report, err := env.services.Availability.Check(ctx, env.showID, env.seatIDs)
	require.NoError(t, err)
	assert.True(t, report.Available)
}

func TestBookingCreate_UnknownShow(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.services.Bookings.Create(context.Background(), 9999, 7,
		env.assignments(env.seatIDs[0]), testContact)
	assert.ErrorIs(t, err, bookingerr.ErrNotFound)
}

func TestBookingCreate_OwnHeldSeatsAreClaimable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.services.Reservations.Create(ctx, env.showID, env.seatIDs[:2], 7, 0)
	require.NoError(t, err)

	conf, err := env.services.Bookings.Create(ctx, env.showID, 7,
		env.assignments(env.seatIDs[0], env.seatIDs[1]), testContact)
	require.NoError(t, err)
	assert.Equal(t, "30.00", conf.TotalAmount)
}

func TestBookingCreate_SeatHeldByOther(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.services.Reservations.Create(ctx, env.showID, env.seatIDs[:1], 8, 0)
	require.NoError(t, err)

	_, err = env.services.Bookings.Create(ctx, env.showID, 7,
		env.assignments(env.seatIDs[0], env.seatIDs[1]), testContact)

	var ce *bookingerr.ConflictError
	require.ErrorAs(t, err, &ce)
	require.Len(t, ce.Seats, 1)
	assert.Equal(t, env.seatIDs[0], ce.Seats[0].SeatID)
	assert.Equal(t, bookingerr.ReasonHeld, ce.Seats[0].Reason)
	assert.Equal(t, 5*time.Minute, ce.Seats[0].ExpiresIn)

	// The free seat in the same request was rolled back with the rest.
	seat, err := env.stores.Seats.Get(ctx, env.seatIDs[1])
	require.NoError(t, err)
	assert.False(t, seat.Occupied)
}

func TestBookingCreate_SeatAlreadyBooked(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.services.Bookings.Create(ctx, env.showID, 8,
		env.assignments(env.seatIDs[0]), testContact)
	require.NoError(t, err)

	_, err = env.services.Bookings.Create(ctx, env.showID, 7,
		env.assignments(env.seatIDs[0]), testContact)

	var ce *bookingerr.ConflictError
	require.ErrorAs(t, err, &ce)
	require.Len(t, ce.Seats, 1)
	assert.Equal(t, bookingerr.ReasonBooked, ce.Seats[0].Reason)
}

func TestBookingCreate_UnknownSeat(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.services.Bookings.Create(context.Background(), env.showID, 7,
		env.assignments(env.seatIDs[0], "no-such-seat"), testContact)

	var ce *bookingerr.ConflictError
	require.ErrorAs(t, err, &ce)
	require.Len(t, ce.Seats, 1)
	assert.Equal(t, "no-such-seat", ce.Seats[0].SeatID)
	assert.Equal(t, bookingerr.ReasonUnknownID, ce.Seats[0].Reason)
}

func TestBookingCreate_ExpiredHoldClaimable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.services.Reservations.Create(ctx, env.showID, env.seatIDs[:1], 8, 0)
	require.NoError(t, err)

	env.clk.Advance(6 * time.Minute)

	_, err = env.services.Bookings.Create(ctx, env.showID, 7,
		env.assignments(env.seatIDs[0]), testContact)
	require.NoError(t, err)
}

// failingSeats fails the seat flip at the end of the booking transaction,
// after the booking row has already been inserted.
type failingSeats struct {
	repository.SeatStore
}

func (f *failingSeats) SetBooked(ctx context.Context, seatIDs []string, bookingID int64) error {
	return errors.New("write failed")
}

func TestBookingCreate_RollsBackOnStorageFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	broken := &repository.Stores{
		Tx:           env.stores.Tx,
		Shows:        env.stores.Shows,
		Seats:        &failingSeats{SeatStore: env.stores.Seats},
		Reservations: env.stores.Reservations,
		Bookings:     env.stores.Bookings,
	}
	svc := NewBookingService(broken, messaging.NopPublisher{}, env.clk, testRules())

	_, err := svc.Create(ctx, env.showID, 7, env.assignments(env.seatIDs[0]), testContact)

	var se *bookingerr.StorageError
	require.ErrorAs(t, err, &se)

	// The booking row inserted before the failure is gone and the seat was
	// never flipped.
	_, err = env.stores.Bookings.GetByID(ctx, 1)
	assert.ErrorIs(t, err, bookingerr.ErrNotFound)

	seat, err := env.stores.Seats.Get(ctx, env.seatIDs[0])
	require.NoError(t, err)
	assert.False(t, seat.Occupied)
	assert.Nil(t, seat.BookingID)
}

func TestBookingCreate_NoDoubleBookingUnderContention(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	const attempts = 8
	var wg sync.WaitGroup
	results := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, results[n] = env.services.Bookings.Create(ctx, env.showID, int64(100+n),
				env.assignments(env.seatIDs[0]), testContact)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range results {
		if err == nil {
			successes++
			continue
		}
		var ce *bookingerr.ConflictError
		retryable := errors.Is(err, bookingerr.ErrLockTimeout) || errors.As(err, &ce)
		assert.True(t, retryable, "unexpected error: %v", err)
	}
	assert.Equal(t, 1, successes)

	seat, err := env.stores.Seats.Get(ctx, env.seatIDs[0])
	require.NoError(t, err)
	require.NotNil(t, seat.BookingID)
}

func TestBookingCancel_ReleasesSeats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	conf, err := env.services.Bookings.Create(ctx, env.showID, 7,
		env.assignments(env.seatIDs[0], env.seatIDs[1]), testContact)
	require.NoError(t, err)

	booking, err := env.services.Bookings.Cancel(ctx, conf.BookingID, 7, "change of plans")
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, booking.Status)

	for _, id := range conf.SeatIDs {
		seat, err := env.stores.Seats.Get(ctx, id)
		require.NoError(t, err)
		assert.False(t, seat.Occupied)
		assert.Nil(t, seat.BookingID)
	}
}

func TestBookingCancel_OwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	conf, err := env.services.Bookings.Create(ctx, env.showID, 7,
		env.assignments(env.seatIDs[0]), testContact)
	require.NoError(t, err)

	_, err = env.services.Bookings.Cancel(ctx, conf.BookingID, 8, "")
	assert.ErrorIs(t, err, bookingerr.ErrUnauthorized)

	// The booking and its seat are untouched.
	seat, err := env.stores.Seats.Get(ctx, env.seatIDs[0])
	require.NoError(t, err)
	assert.NotNil(t, seat.BookingID)
}

func TestBookingCancel_CutoffBeforeShowtime(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	conf, err := env.services.Bookings.Create(ctx, env.showID, 7,
		env.assignments(env.seatIDs[0]), testContact)
	require.NoError(t, err)

	// Inside the two-hour window before the show starts.
	env.clk.Set(env.showStart.Add(-90 * time.Minute))

	_, err = env.services.Bookings.Cancel(ctx, conf.BookingID, 7, "")
	assert.ErrorIs(t, err, bookingerr.ErrNotCancellable)
}

func TestBookingCancel_AlreadyCancelled(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	conf, err := env.services.Bookings.Create(ctx, env.showID, 7,
		env.assignments(env.seatIDs[0]), testContact)
	require.NoError(t, err)

	_, err = env.services.Bookings.Cancel(ctx, conf.BookingID, 7, "")
	require.NoError(t, err)

	_, err = env.services.Bookings.Cancel(ctx, conf.BookingID, 7, "")
	assert.ErrorIs(t, err, bookingerr.ErrNotCancellable)
}

func TestBookingCancel_Unknown(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.services.Bookings.Cancel(context.Background(), 9999, 7, "")
	assert.ErrorIs(t, err, bookingerr.ErrNotFound)
}

func TestSeatPrice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	total, err := env.services.Bookings.SeatPrice(ctx, env.showID, []string{env.seatIDs[0], env.seatIDs[4]})
	require.NoError(t, err)
	assert.Equal(t, int64(4000), total)
}

func TestSeatPrice_UnknownSeat(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.services.Bookings.SeatPrice(context.Background(), env.showID,
		[]string{env.seatIDs[0], "no-such-seat"})

	var ce *bookingerr.ConflictError
	require.ErrorAs(t, err, &ce)
	require.Len(t, ce.Seats, 1)
	assert.Equal(t, bookingerr.ReasonUnknownID, ce.Seats[0].Reason)
}

func TestRecoverCancelled(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	conf, err := env.services.Bookings.Create(ctx, env.showID, 7,
		env.assignments(env.seatIDs[0]), testContact)
	require.NoError(t, err)

	// Simulate a crash between the status write and the seat release.
	require.NoError(t, env.stores.Bookings.UpdateStatus(ctx, conf.BookingID, models.BookingCancelled))

	require.NoError(t, env.services.Bookings.RecoverCancelled(ctx))

	seat, err := env.stores.Seats.Get(ctx, env.seatIDs[0])
	require.NoError(t, err)
	assert.False(t, seat.Occupied)
	assert.Nil(t, seat.BookingID)
}
