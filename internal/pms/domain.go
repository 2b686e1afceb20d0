// Package pms implements the property-management-system side of the
// emulator: guest reservation lookup, folio charge posting, folio retrieval
// and guest seeding. Folios are append-only ledgers; postings are never
// mutated or removed.
package pms

import (
	"errors"
	"strings"

	"github.com/harborpoint/roomcharge/internal/platform/httpx"
)

// Guest is a seeded in-house reservation record, looked up by room number
// and surname.
type Guest struct {
	ReservationID string `json:"reservationId"`
	FolioWindow   int    `json:"folioWindow"`
	GuestName     string `json:"guestName"`
	RoomNumber    string `json:"roomNumber"`
	InHouse       bool   `json:"inHouse"`
}

// Posting is one charge line on a folio.
type Posting struct {
	PostingID string  `json:"postingId"`
	TrxCode   string  `json:"trxCode"`
	Amount    float64 `json:"amount"`
	HotelID   string  `json:"hotelId"`
}

// Folio is a guest's running bill: a window and its posting lines.
type Folio struct {
	ReservationID string    `json:"reservationId"`
	Window        int       `json:"window"`
	Lines         []Posting `json:"lines"`
}

// Domain errors.
var (
	// ErrGuestNotFound indicates no seeded in-house guest matches the
	// room/surname pair.
	ErrGuestNotFound = errors.New("Guest not found or not in-house")
	// ErrFolioNotFound indicates no folio exists for a reservation yet.
	ErrFolioNotFound = errors.New("folio not found")
)

// guestKey is the natural key a lookup resolves against. Surnames compare
// case-insensitively.
func guestKey(roomID, surname string) string {
	return roomID + ":" + strings.ToLower(surname)
}

// ============================================================================
// REQUESTS / RESPONSES
// ============================================================================

// ReservationView is the lookup response shape.
type ReservationView struct {
	ReservationID string `json:"reservationId"`
	FolioWindow   int    `json:"folioWindow"`
	GuestName     string `json:"guestName"`
	RoomNumber    string `json:"roomNumber"`
	InHouse       bool   `json:"inHouse"`
	HotelID       string `json:"hotelId"`
}

// ChargeRequest posts one charge to a reservation's folio.
type ChargeRequest struct {
	Amount          float64 `json:"amount"`
	TransactionCode string  `json:"transactionCode"`
}

// ChargeResponse echoes the accepted posting.
type ChargeResponse struct {
	ReservationID string  `json:"reservationId"`
	PostingID     string  `json:"postingId"`
	Line          Posting `json:"line"`
	HotelID       string  `json:"hotelId"`
}

// Fetch instructions accepted by the folio endpoint.
const (
	FetchTotalBalance     = "Totalbalance"
	FetchPayments         = "Payment"
	FetchPostings         = "Postings"
	FetchTransactionCodes = "Transactioncodes"
)

// paymentPrefix classifies folio lines into payments vs. postings.
const paymentPrefix = "PAY"

// FolioQuery selects a folio window and optional derived views.
type FolioQuery struct {
	WindowNo     int
	Instructions []string
}

// FolioView is the folio retrieval response. The derived slices are only
// populated when the matching fetch instruction was supplied.
type FolioView struct {
	ReservationID    string    `json:"reservationId"`
	HotelID          string    `json:"hotelId"`
	FolioWindowNo    int       `json:"folioWindowNo"`
	Lines            []Posting `json:"lines"`
	TotalBalance     float64   `json:"totalBalance"`
	Payments         []Posting `json:"payments,omitempty"`
	Postings         []Posting `json:"postings,omitempty"`
	TransactionCodes []string  `json:"transactionCodes,omitempty"`
}

// SeedGuestRequest registers an in-house guest for lookup.
type SeedGuestRequest struct {
	Room          httpx.FlexString `json:"room"`
	LastName      string           `json:"lastName"`
	ReservationID string           `json:"reservationId"`
	GuestName     string           `json:"guestName"`
	InHouse       *bool            `json:"inHouse"`
}
