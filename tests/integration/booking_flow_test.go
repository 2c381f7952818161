package integration

import (
	"net/http"
	"testing"
	"time"
)

func TestAPI_HealthCheck(t *testing.T) {
	client := NewTestClient(baseURL(t), 1)
	client.HealthCheck(t)
}

// TestBookingFlow_ReserveAndConvert walks the primary purchase path: list
// seats, check availability, hold, price, book, and verify the seat map.
func TestBookingFlow_ReserveAndConvert(t *testing.T) {
	client := NewTestClient(baseURL(t), 101)

	show := client.CreateShow(t, "Integration Premiere", time.Now().UTC().Add(24*time.Hour))
	seats := client.ListSeats(t, show.ID)
	free := FindFreeSeats(seats, 2)
	if len(free) < 2 {
		t.Fatal("Expected a fresh show to have free seats")
	}

	report := client.CheckAvailability(t, show.ID, free)
	if !report.Available {
		t.Fatalf("Fresh seats reported unavailable: %+v", report.Seats)
	}

	res := client.CreateReservation(t, show.ID, free)
	if res.TimeRemainingSec <= 0 {
		t.Fatalf("Expected a positive hold time, got %d", res.TimeRemainingSec)
	}

	price := client.SeatPrice(t, show.ID, free)
	if price.Total == "0.00" {
		t.Fatal("Expected a non-zero price for the held seats")
	}

	conf := client.CreateBooking(t, show.ID, free)
	if conf.Status != "CONFIRMED" {
		t.Fatalf("Expected CONFIRMED booking, got %s", conf.Status)
	}
	if conf.TotalAmount != price.Total {
		t.Fatalf("Booking total %s does not match quoted %s", conf.TotalAmount, price.Total)
	}

	updated := client.ListSeats(t, show.ID)
	for _, id := range free {
		AssertSeatStatus(t, updated, id, "BOOKED")
	}
}

// TestBookingFlow_ConflictBetweenUsers verifies a second user cannot book or
// hold seats already held by the first.
func TestBookingFlow_ConflictBetweenUsers(t *testing.T) {
	alice := NewTestClient(baseURL(t), 201)
	rival := NewTestClient(baseURL(t), 202)

	show := alice.CreateShow(t, "Contention Night", time.Now().UTC().Add(24*time.Hour))
	seats := alice.ListSeats(t, show.ID)
	free := FindFreeSeats(seats, 1)
	if len(free) == 0 {
		t.Fatal("Expected a fresh show to have free seats")
	}

	alice.CreateReservation(t, show.ID, free)

	if status := rival.TryCreateBooking(t, show.ID, free); status != http.StatusConflict {
		t.Fatalf("Expected 409 for a seat held by another user, got %d", status)
	}

	report := rival.CheckAvailability(t, show.ID, free)
	if report.Available {
		t.Fatal("Held seat reported as available to a rival")
	}
	if report.Seats[0].Status != "HELD_BY_OTHER" {
		t.Fatalf("Expected HELD_BY_OTHER, got %s", report.Seats[0].Status)
	}

	// The holder converts their own hold without conflict.
	conf := alice.CreateBooking(t, show.ID, free)
	if conf.Status != "CONFIRMED" {
		t.Fatalf("Holder failed to convert their own hold: %s", conf.Status)
	}
}

// TestBookingFlow_CancelReleasesSeats verifies cancellation frees the seats
// for the next buyer.
func TestBookingFlow_CancelReleasesSeats(t *testing.T) {
	client := NewTestClient(baseURL(t), 301)
	next := NewTestClient(baseURL(t), 302)

	show := client.CreateShow(t, "Cancellation Matinee", time.Now().UTC().Add(24*time.Hour))
	seats := client.ListSeats(t, show.ID)
	free := FindFreeSeats(seats, 1)
	if len(free) == 0 {
		t.Fatal("Expected a fresh show to have free seats")
	}

	conf := client.CreateBooking(t, show.ID, free)
	client.CancelBooking(t, conf.BookingID)

	updated := client.ListSeats(t, show.ID)
	AssertSeatStatus(t, updated, free[0], "FREE")

	// The freed seat is immediately bookable by someone else.
	reconf := next.CreateBooking(t, show.ID, free)
	if reconf.Status != "CONFIRMED" {
		t.Fatalf("Expected freed seat to be bookable, got %s", reconf.Status)
	}
}

// TestBookingFlow_ReservationLifecycle extends and cancels a hold.
func TestBookingFlow_ReservationLifecycle(t *testing.T) {
	client := NewTestClient(baseURL(t), 401)

	show := client.CreateShow(t, "Lifecycle Feature", time.Now().UTC().Add(24*time.Hour))
	seats := client.ListSeats(t, show.ID)
	free := FindFreeSeats(seats, 1)
	if len(free) == 0 {
		t.Fatal("Expected a fresh show to have free seats")
	}

	res := client.CreateReservation(t, show.ID, free)

	extended := client.ExtendReservation(t, res.ID, 10)
	if !extended.ExpiresAt.After(res.ExpiresAt) {
		t.Fatalf("Extension did not move expiry: %v -> %v", res.ExpiresAt, extended.ExpiresAt)
	}

	client.CancelReservation(t, res.ID)
	// Idempotent: cancelling again still succeeds.
	client.CancelReservation(t, res.ID)

	updated := client.ListSeats(t, show.ID)
	AssertSeatStatus(t, updated, free[0], "FREE")
}
