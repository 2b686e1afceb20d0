// Package folio is the HTTP client for the PMS reservation and folio
// endpoints consumed during settlement.
package folio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Reservation is the PMS view of an in-house guest, resolved by room number
// and surname. The pair is a natural key only; the PMS returns the first
// match.
type Reservation struct {
	ReservationID string `json:"reservationId"`
	FolioWindow   int    `json:"folioWindow"`
	GuestName     string `json:"guestName"`
	RoomNumber    string `json:"roomNumber"`
	InHouse       bool   `json:"inHouse"`
	HotelID       string `json:"hotelId"`
}

// Posting is one charge line accepted onto a folio.
type Posting struct {
	ReservationID string      `json:"reservationId"`
	PostingID     string      `json:"postingId"`
	HotelID       string      `json:"hotelId"`
	Line          PostingLine `json:"line"`
}

// PostingLine echoes the stored folio line.
type PostingLine struct {
	PostingID string  `json:"postingId"`
	TrxCode   string  `json:"trxCode"`
	Amount    float64 `json:"amount"`
	HotelID   string  `json:"hotelId"`
}

// ErrGuestNotFound covers every non-success lookup outcome, including a
// timed-out lookup: the guest cannot be confirmed in-house, so settlement
// must not proceed.
var ErrGuestNotFound = errors.New("guest lookup failed")

// PostingError is a non-success charge-posting response. The upstream body
// is preserved for diagnostics.
type PostingError struct {
	StatusCode int
	Body       string
}

func (e *PostingError) Error() string {
	return fmt.Sprintf("folio posting failed with status %d", e.StatusCode)
}

// Details returns the upstream error body.
func (e *PostingError) Details() string { return e.Body }

// Client wraps interactions with the PMS API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a new client. The timeout bounds each of the two
// settlement calls individually.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// LookupGuest resolves the reservation for a room number and surname.
// Any non-success response, and any timeout, reports ErrGuestNotFound.
func (c *Client) LookupGuest(ctx context.Context, hotelID, roomID, surname string) (*Reservation, error) {
	q := url.Values{}
	q.Set("roomId", roomID)
	q.Set("surname", surname)
	endpoint := fmt.Sprintf("%s/rsv/v1/hotels/%s/reservations?%s", c.baseURL, url.PathEscape(hotelID), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: lookup timed out", ErrGuestNotFound)
		}
		return nil, fmt.Errorf("guest lookup: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: status %d", ErrGuestNotFound, resp.StatusCode)
	}

	var reservation Reservation
	if err := json.NewDecoder(resp.Body).Decode(&reservation); err != nil {
		return nil, fmt.Errorf("decode reservation: %w", err)
	}
	return &reservation, nil
}

// PostCharge appends a charge to the folio of the given reservation. Any
// non-success response, and any timeout, reports a PostingError carrying
// whatever body the PMS returned.
func (c *Client) PostCharge(ctx context.Context, hotelID, reservationID string, amount float64, trxCode string) (*Posting, error) {
	payload, err := json.Marshal(map[string]any{
		"amount":          amount,
		"transactionCode": trxCode,
	})
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/csh/v1/hotels/%s/reservations/%s/charges",
		c.baseURL, url.PathEscape(hotelID), url.PathEscape(reservationID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, &PostingError{StatusCode: http.StatusGatewayTimeout, Body: "folio posting timed out"}
		}
		return nil, fmt.Errorf("post charge: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return nil, &PostingError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var posting Posting
	if err := json.NewDecoder(resp.Body).Decode(&posting); err != nil {
		return nil, fmt.Errorf("decode posting: %w", err)
	}
	return &posting, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr) && urlErr.Timeout()
}
