package pms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// Service provides business logic for PMS operations.
type Service struct {
	logger *slog.Logger
	repo   *Repository

	newPostingID func() string
}

// NewService constructs a PMS service.
func NewService(logger *slog.Logger, repo *Repository) *Service {
	return &Service{
		logger:       logger,
		repo:         repo,
		newPostingID: defaultPostingID,
	}
}

func defaultPostingID() string {
	return "POST-" + strings.ToLower(uuid.NewString()[:6])
}

// Lookup resolves an in-house guest by room number and surname. The pair is
// treated as a natural key; the first match wins.
func (s *Service) Lookup(ctx context.Context, hotelID, roomID, surname string) (*ReservationView, error) {
	g, err := s.repo.GetGuest(ctx, roomID, surname)
	if err != nil {
		return nil, err
	}
	if !g.InHouse {
		return nil, ErrGuestNotFound
	}
	window := g.FolioWindow
	if window == 0 {
		window = 1
	}
	return &ReservationView{
		ReservationID: g.ReservationID,
		FolioWindow:   window,
		GuestName:     g.GuestName,
		RoomNumber:    g.RoomNumber,
		InHouse:       g.InHouse,
		HotelID:       hotelID,
	}, nil
}

// PostCharge appends one charge line to the reservation's folio and returns
// the accepted posting.
func (s *Service) PostCharge(ctx context.Context, hotelID, reservationID string, req ChargeRequest) (*ChargeResponse, error) {
	trxCode := req.TransactionCode
	if trxCode == "" {
		trxCode = "ROOM_SERVICE"
	}
	line := Posting{
		PostingID: s.newPostingID(),
		TrxCode:   trxCode,
		Amount:    req.Amount,
		HotelID:   hotelID,
	}

	if _, err := s.repo.AppendPosting(ctx, reservationID, line); err != nil {
		return nil, fmt.Errorf("append posting: %w", err)
	}

	s.logger.Info("folio charge posted",
		slog.String("reservation", reservationID),
		slog.String("posting", line.PostingID),
		slog.Float64("amount", line.Amount))

	return &ChargeResponse{
		ReservationID: reservationID,
		PostingID:     line.PostingID,
		Line:          line,
		HotelID:       hotelID,
	}, nil
}

// Folio returns the folio view for a reservation. A reservation without a
// folio yet yields an empty view, not an error. Derived sections are
// populated per the fetch instructions.
func (s *Service) Folio(ctx context.Context, hotelID, reservationID string, q FolioQuery) (*FolioView, error) {
	windowNo := q.WindowNo
	if windowNo == 0 {
		windowNo = 1
	}
	view := &FolioView{
		ReservationID: reservationID,
		HotelID:       hotelID,
		FolioWindowNo: windowNo,
		Lines:         []Posting{},
	}

	f, err := s.repo.GetFolio(ctx, reservationID)
	if err != nil {
		if errors.Is(err, ErrFolioNotFound) {
			return view, nil
		}
		return nil, err
	}
	view.Lines = f.Lines

	if slices.Contains(q.Instructions, FetchTotalBalance) {
		for _, line := range f.Lines {
			view.TotalBalance += line.Amount
		}
	}
	if slices.Contains(q.Instructions, FetchPayments) {
		view.Payments = []Posting{}
		for _, line := range f.Lines {
			if strings.HasPrefix(line.TrxCode, paymentPrefix) {
				view.Payments = append(view.Payments, line)
			}
		}
	}
	if slices.Contains(q.Instructions, FetchPostings) {
		view.Postings = []Posting{}
		for _, line := range f.Lines {
			if !strings.HasPrefix(line.TrxCode, paymentPrefix) {
				view.Postings = append(view.Postings, line)
			}
		}
	}
	if slices.Contains(q.Instructions, FetchTransactionCodes) {
		seen := make(map[string]bool)
		for _, line := range f.Lines {
			if !seen[line.TrxCode] {
				seen[line.TrxCode] = true
				view.TransactionCodes = append(view.TransactionCodes, line.TrxCode)
			}
		}
	}

	return view, nil
}

// Seed registers an in-house guest for later lookup.
func (s *Service) Seed(ctx context.Context, req SeedGuestRequest) error {
	reservationID := req.ReservationID
	if reservationID == "" {
		reservationID = "RES-555"
	}
	guestName := req.GuestName
	if guestName == "" {
		guestName = "Guest"
	}
	inHouse := true
	if req.InHouse != nil {
		inHouse = *req.InHouse
	}

	return s.repo.SeedGuest(ctx, req.Room.String(), req.LastName, Guest{
		ReservationID: reservationID,
		FolioWindow:   1,
		GuestName:     guestName,
		RoomNumber:    req.Room.String(),
		InHouse:       inHouse,
	})
}
