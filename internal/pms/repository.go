package pms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// stateKey holds the full PMS snapshot as one JSON value.
const stateKey = "opera:state"

type snapshot struct {
	Guests map[string]Guest  `json:"guests"`
	Folios map[string]*Folio `json:"folios"`
}

// Repository persists guests and folios as a single Redis snapshot, with the
// same serialized load-mutate-save discipline as the check store.
type Repository struct {
	rdb *redis.Client
	mu  sync.Mutex
}

// NewRepository constructs a PMS repository over the given Redis client.
func NewRepository(rdb *redis.Client) *Repository {
	return &Repository{rdb: rdb}
}

func (r *Repository) load(ctx context.Context) (*snapshot, error) {
	raw, err := r.rdb.Get(ctx, stateKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return &snapshot{Guests: make(map[string]Guest), Folios: make(map[string]*Folio)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Guests == nil {
		snap.Guests = make(map[string]Guest)
	}
	if snap.Folios == nil {
		snap.Folios = make(map[string]*Folio)
	}
	return &snap, nil
}

func (r *Repository) save(ctx context.Context, snap *snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := r.rdb.Set(ctx, stateKey, raw, 0).Err(); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// GetGuest resolves a seeded guest by room number and surname.
func (r *Repository) GetGuest(ctx context.Context, roomID, surname string) (*Guest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	g, ok := snap.Guests[guestKey(roomID, surname)]
	if !ok {
		return nil, ErrGuestNotFound
	}
	return &g, nil
}

// SeedGuest registers a guest record, replacing any previous seed for the
// same room/surname pair.
func (r *Repository) SeedGuest(ctx context.Context, roomID, surname string, g Guest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap, err := r.load(ctx)
	if err != nil {
		return err
	}
	snap.Guests[guestKey(roomID, surname)] = g
	return r.save(ctx, snap)
}

// AppendPosting appends one line to a reservation's folio, creating the
// folio on first use. Lines are append-only.
func (r *Repository) AppendPosting(ctx context.Context, reservationID string, p Posting) (*Folio, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	f, ok := snap.Folios[reservationID]
	if !ok {
		f = &Folio{ReservationID: reservationID, Window: 1}
		snap.Folios[reservationID] = f
	}
	f.Lines = append(f.Lines, p)
	if err := r.save(ctx, snap); err != nil {
		return nil, err
	}
	return f, nil
}

// GetFolio returns the folio for a reservation.
func (r *Repository) GetFolio(ctx context.Context, reservationID string) (*Folio, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	f, ok := snap.Folios[reservationID]
	if !ok {
		return nil, ErrFolioNotFound
	}
	return f, nil
}
