package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"cinebook/internal/models"
)

// TestClient provides methods for exercising the API as one user.
type TestClient struct {
	BaseURL    string
	UserID     int64
	HTTPClient *http.Client
}

// NewTestClient creates a client acting as the given user.
func NewTestClient(baseURL string, userID int64) *TestClient {
	return &TestClient{
		BaseURL: baseURL,
		UserID:  userID,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *TestClient) makeRequest(t *testing.T, method, path string, body interface{}) *http.Response {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, reqBody)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	req.Header.Set("X-User-ID", fmt.Sprintf("%d", c.UserID))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}

	return resp
}

func decodeOrFail(t *testing.T, resp *http.Response, wantStatus int, out interface{}) {
	t.Helper()
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status %d, got %d. Body: %s", wantStatus, resp.StatusCode, string(body))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
	}
}

// CreateShow schedules a show with a small two-row layout.
func (c *TestClient) CreateShow(t *testing.T, title string, startsAt time.Time) *models.CreateShowResponse {
	req := models.CreateShowRequest{
		Title:    title,
		StartsAt: startsAt,
		Layout: []models.SeatRowLayout{
			{Row: 1, Columns: 5, PriceCents: 1500},
			{Row: 2, Columns: 5, SeatType: "PREMIUM", PriceCents: 2500},
		},
	}

	resp := c.makeRequest(t, "POST", "/api/shows", req)
	var out models.CreateShowResponse
	decodeOrFail(t, resp, http.StatusCreated, &out)
	return &out
}

// ListSeats returns the show's seat map.
func (c *TestClient) ListSeats(t *testing.T, showID int64) models.ListSeatsResponse {
	resp := c.makeRequest(t, "GET", fmt.Sprintf("/api/shows/%d/seats", showID), nil)
	var out models.ListSeatsResponse
	decodeOrFail(t, resp, http.StatusOK, &out)
	return out
}

// CheckAvailability classifies a seat set.
func (c *TestClient) CheckAvailability(t *testing.T, showID int64, seatIDs []string) *models.AvailabilityReport {
	req := models.CheckAvailabilityRequest{ShowID: showID, SeatIDs: seatIDs}
	resp := c.makeRequest(t, "POST", "/api/availability/check", req)
	var out models.AvailabilityReport
	decodeOrFail(t, resp, http.StatusOK, &out)
	return &out
}

// CreateReservation holds a seat set with the default TTL.
func (c *TestClient) CreateReservation(t *testing.T, showID int64, seatIDs []string) *models.ReservationResponse {
	req := models.CreateReservationRequest{ShowID: showID, SeatIDs: seatIDs}
	resp := c.makeRequest(t, "POST", "/api/reservations", req)
	var out models.ReservationResponse
	decodeOrFail(t, resp, http.StatusCreated, &out)
	return &out
}

// ExtendReservation moves a hold's expiry forward.
func (c *TestClient) ExtendReservation(t *testing.T, reservationID string, minutes int) *models.ReservationResponse {
	req := models.ExtendReservationRequest{ReservationID: reservationID, Minutes: minutes}
	resp := c.makeRequest(t, "PATCH", "/api/reservations/extend", req)
	var out models.ReservationResponse
	decodeOrFail(t, resp, http.StatusOK, &out)
	return &out
}

// CancelReservation releases a hold.
func (c *TestClient) CancelReservation(t *testing.T, reservationID string) {
	req := models.CancelReservationRequest{ReservationID: reservationID}
	resp := c.makeRequest(t, "PATCH", "/api/reservations/cancel", req)
	decodeOrFail(t, resp, http.StatusOK, nil)
}

// CreateBooking books the given seats for this client's user.
func (c *TestClient) CreateBooking(t *testing.T, showID int64, seatIDs []string) *models.BookingConfirmation {
	seats := make([]models.SeatAssignment, len(seatIDs))
	for i, id := range seatIDs {
		seats[i] = models.SeatAssignment{
			SeatID:       id,
			CustomerName: fmt.Sprintf("Guest %d", i+1),
			CustomerAge:  30,
		}
	}
	req := models.CreateBookingRequest{
		ShowID:  showID,
		Seats:   seats,
		Contact: models.Contact{Email: "guest@example.com", Phone: "+15550100"},
	}

	resp := c.makeRequest(t, "POST", "/api/bookings", req)
	var out models.BookingConfirmation
	decodeOrFail(t, resp, http.StatusCreated, &out)
	return &out
}

// TryCreateBooking attempts a booking and returns the raw status code.
func (c *TestClient) TryCreateBooking(t *testing.T, showID int64, seatIDs []string) int {
	seats := make([]models.SeatAssignment, len(seatIDs))
	for i, id := range seatIDs {
		seats[i] = models.SeatAssignment{
			SeatID:       id,
			CustomerName: fmt.Sprintf("Guest %d", i+1),
			CustomerAge:  30,
		}
	}
	req := models.CreateBookingRequest{
		ShowID:  showID,
		Seats:   seats,
		Contact: models.Contact{Email: "guest@example.com", Phone: "+15550100"},
	}

	resp := c.makeRequest(t, "POST", "/api/bookings", req)
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode
}

// CancelBooking cancels one of this user's bookings.
func (c *TestClient) CancelBooking(t *testing.T, bookingID int64) {
	req := models.CancelBookingRequest{BookingID: bookingID}
	resp := c.makeRequest(t, "PATCH", "/api/bookings/cancel", req)
	decodeOrFail(t, resp, http.StatusOK, nil)
}

// SeatPrice prices a seat set.
func (c *TestClient) SeatPrice(t *testing.T, showID int64, seatIDs []string) *models.SeatPriceResponse {
	req := models.SeatPriceRequest{ShowID: showID, SeatIDs: seatIDs}
	resp := c.makeRequest(t, "POST", "/api/seats/price", req)
	var out models.SeatPriceResponse
	decodeOrFail(t, resp, http.StatusOK, &out)
	return &out
}

// HealthCheck checks if the API is up.
func (c *TestClient) HealthCheck(t *testing.T) {
	resp := c.makeRequest(t, "GET", "/health", nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Health check failed with status %d", resp.StatusCode)
	}
}
