package integration

import (
	"os"
	"testing"

	"cinebook/internal/models"
)

// baseURL returns the API under test, skipping when none is configured so
// the suite only runs against a live deployment.
func baseURL(t *testing.T) string {
	t.Helper()
	url := os.Getenv("API_BASE_URL")
	if url == "" {
		t.Skip("API_BASE_URL not set; skipping integration test")
	}
	return url
}

// FindFreeSeats returns up to n free seats from the listing.
func FindFreeSeats(seats models.ListSeatsResponse, n int) []string {
	var ids []string
	for _, seat := range seats {
		if seat.Status == "FREE" {
			ids = append(ids, seat.ID)
			if len(ids) == n {
				break
			}
		}
	}
	return ids
}

// AssertSeatStatus checks one seat's status in a listing.
func AssertSeatStatus(t *testing.T, seats models.ListSeatsResponse, seatID, expected string) {
	t.Helper()
	for _, seat := range seats {
		if seat.ID == seatID {
			if seat.Status != expected {
				t.Fatalf("Seat %s has status %s, expected %s", seatID, seat.Status, expected)
			}
			return
		}
	}
	t.Fatalf("Seat %s not found in listing", seatID)
}
