package check

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/harborpoint/roomcharge/internal/folio"
)

// fallbackTransactionCode is used when neither the request nor the
// configuration names a transaction code.
const fallbackTransactionCode = "ROOM_SERVICE"

// Store is the check persistence contract. Create assigns identity
// (reference and number) and finalizes derived fields before saving; Mutate
// runs its callback inside one atomic load-mutate-save cycle and persists
// only on success.
type Store interface {
	Create(ctx context.Context, c *Check) (*Check, error)
	Get(ctx context.Context, ref string) (*Check, error)
	List(ctx context.Context) ([]Check, error)
	Mutate(ctx context.Context, ref string, fn func(*Check) error) (*Check, error)
}

// FolioClient is the PMS contract the settlement flow depends on. Lookup
// must succeed before PostCharge is attempted; the posting uses the
// reservation id the lookup returned.
type FolioClient interface {
	LookupGuest(ctx context.Context, hotelID, roomID, surname string) (*folio.Reservation, error)
	PostCharge(ctx context.Context, hotelID, reservationID string, amount float64, trxCode string) (*folio.Posting, error)
}

// POSContext carries the workstation identity captured from request headers.
type POSContext struct {
	OrgShortName string
	LocRef       string
	RvcRef       int
}

// ServiceConfig holds the deployment-level settlement knobs.
type ServiceConfig struct {
	// AutoPost drives the two-step PMS protocol on tender; when false the
	// check closes without any external call.
	AutoPost bool
	// DefaultTransactionCode applies when the tender request does not
	// override it.
	DefaultTransactionCode string
}

// Service provides business logic for check operations.
type Service struct {
	logger  *slog.Logger
	store   Store
	folio   FolioClient
	catalog Catalog
	cfg     ServiceConfig

	now func() time.Time
}

// NewService constructs a check service.
func NewService(logger *slog.Logger, store Store, folioClient FolioClient, catalog Catalog, cfg ServiceConfig) *Service {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Service{
		logger:  logger,
		store:   store,
		folio:   folioClient,
		catalog: catalog,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Create opens a new check. Identity, open time and status are
// server-assigned; any supplied items are priced against the catalog.
func (s *Service) Create(ctx context.Context, pos POSContext, req CreateCheckRequest) (*Check, error) {
	now := s.now().UTC()

	employeeRef := req.Header.CheckEmployeeRef
	if employeeRef == 0 {
		employeeRef = 1
	}
	orderTypeRef := req.Header.OrderTypeRef
	if orderTypeRef == 0 {
		orderTypeRef = 1
	}
	guestCount := req.Header.GuestCount
	if guestCount == 0 {
		guestCount = 1
	}
	tableName := req.Header.TableName
	if tableName == "" {
		tableName = fmt.Sprintf("Table %d", 1+rand.Intn(20))
	}
	idempotencyID := req.Header.IdempotencyID
	if idempotencyID == "" {
		idempotencyID = fmt.Sprintf("idemp-%d", now.UnixMilli())
	}

	c := &Check{
		Header: Header{
			OrgShortName:     pos.OrgShortName,
			LocRef:           pos.LocRef,
			RvcRef:           pos.RvcRef,
			IdempotencyID:    idempotencyID,
			CheckName:        req.Header.CheckName,
			CheckEmployeeRef: employeeRef,
			OrderTypeRef:     orderTypeRef,
			TableName:        tableName,
			GuestCount:       guestCount,
			OpenTime:         now,
			Status:           StatusOpen,
			PrepStatus:       PrepUninitialized,
		},
		MenuItems: PriceItems(req.MenuItems, s.catalog),
	}
	c.Totals = Recompute(c.MenuItems)

	created, err := s.store.Create(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("create check: %w", err)
	}
	return created, nil
}

// Get fetches one check by reference.
func (s *Service) Get(ctx context.Context, ref string) (*Check, error) {
	return s.store.Get(ctx, ref)
}

// AppendItems prices the given items, appends them and recomputes totals.
// Items are append-only; nothing in the flow removes them again.
func (s *Service) AppendItems(ctx context.Context, ref string, req AppendItemsRequest) (*Check, error) {
	return s.store.Mutate(ctx, ref, func(c *Check) error {
		c.MenuItems = append(c.MenuItems, PriceItems(req.Items, s.catalog)...)
		c.Totals = Recompute(c.MenuItems)
		c.PrintedLines = RenderPrintedLines(c, s.now().UTC())
		return nil
	})
}

// List returns the checks satisfying the filter, in stable order.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Check, error) {
	checks, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list checks: %w", err)
	}
	return Apply(checks, filter), nil
}

// Tender settles a check to a guest room. Preconditions run in order:
// existence, open state, payload shape. With auto-post enabled the two PMS
// calls run sequentially, lookup strictly before posting, and the check only
// transitions to CLOSED after both succeed; every failure leaves the stored
// check OPEN.
func (s *Service) Tender(ctx context.Context, ref string, pos POSContext, req TenderRequest) (*SettlementReceipt, error) {
	c, err := s.store.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	if c.Header.Status == StatusClosed {
		return nil, ErrAlreadyClosed
	}
	if req.Type != TenderTypeRoomCharge || req.RoomNumber == "" || req.LastName == "" {
		return nil, ErrInvalidTender
	}

	trxCode := req.TransactionCode
	if trxCode == "" {
		trxCode = s.cfg.DefaultTransactionCode
	}
	if trxCode == "" {
		trxCode = fallbackTransactionCode
	}

	amount := c.Totals.TotalDue

	var reservationID, postingID *string
	if s.cfg.AutoPost {
		// The location reference doubles as the PMS hotel identifier.
		hotelID := pos.LocRef

		reservation, err := s.folio.LookupGuest(ctx, hotelID, req.RoomNumber.String(), req.LastName)
		if err != nil {
			if errors.Is(err, folio.ErrGuestNotFound) {
				s.logger.Warn("guest lookup rejected",
					slog.String("check", ref),
					slog.String("room", req.RoomNumber.String()))
				return nil, ErrGuestNotFound
			}
			return nil, fmt.Errorf("guest lookup: %w", err)
		}

		posting, err := s.folio.PostCharge(ctx, hotelID, reservation.ReservationID, amount, trxCode)
		if err != nil {
			var postErr *folio.PostingError
			if errors.As(err, &postErr) {
				s.logger.Error("folio posting rejected",
					slog.String("check", ref),
					slog.Int("status", postErr.StatusCode))
				return nil, err
			}
			return nil, fmt.Errorf("post charge: %w", err)
		}

		reservationID = &reservation.ReservationID
		postingID = &posting.PostingID
	}

	closed, err := s.store.Mutate(ctx, ref, func(c *Check) error {
		if c.Header.Status == StatusClosed {
			return ErrAlreadyClosed
		}
		c.Header.Status = StatusClosed
		c.Header.PrepStatus = PrepPackaged
		c.PrintedLines = RenderPrintedLines(c, s.now().UTC())
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("check settled",
		slog.String("check", closed.Header.CheckRef),
		slog.Bool("posted", s.cfg.AutoPost),
		slog.Float64("total", amount))

	return &SettlementReceipt{
		CheckID:         closed.Header.CheckRef,
		Status:          StatusClosed,
		PostedToOpera:   s.cfg.AutoPost,
		PostingID:       postingID,
		ReservationID:   reservationID,
		TransactionCode: trxCode,
		Total:           amount,
	}, nil
}
