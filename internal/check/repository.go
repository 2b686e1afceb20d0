package check

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// stateKey holds the full check snapshot as one JSON value.
	stateKey = "simphony:state"

	// maxIDAttempts bounds regeneration when a generated identifier
	// collides with a stored check.
	maxIDAttempts = 5
)

// snapshot is the persisted shape of the store: every check, keyed by
// reference, written and read as a whole.
type snapshot struct {
	Checks map[string]*Check `json:"checks"`
}

// Repository persists checks as a single Redis snapshot. Every mutation is a
// load-mutate-save cycle serialized by the mutex, so concurrent writers
// cannot discard each other's updates.
type Repository struct {
	rdb *redis.Client
	mu  sync.Mutex

	// overridable in tests to force identifier collisions
	newCheckRef    func() string
	newCheckNumber func() int
}

// NewRepository constructs a check repository over the given Redis client.
func NewRepository(rdb *redis.Client) *Repository {
	return &Repository{
		rdb:            rdb,
		newCheckRef:    defaultCheckRef,
		newCheckNumber: defaultCheckNumber,
	}
}

func defaultCheckRef() string {
	return "CHK-" + strings.ToUpper(uuid.NewString()[:8])
}

func defaultCheckNumber() int {
	return 1000 + rand.Intn(9000)
}

func (r *Repository) load(ctx context.Context) (*snapshot, error) {
	raw, err := r.rdb.Get(ctx, stateKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return &snapshot{Checks: make(map[string]*Check)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Checks == nil {
		snap.Checks = make(map[string]*Check)
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

// Create stores a new check, assigning a unique reference and a check number
// unique among stored checks. Generation retries on collision up to
// maxIDAttempts before failing.
func (r *Repository) Create(ctx context.Context, c *Check) (*Check, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	ref, err := r.allocateRef(snap)
	if err != nil {
		return nil, err
	}
	number, err := r.allocateNumber(snap)
	if err != nil {
		return nil, err
	}

	c.Header.CheckRef = ref
	c.Header.CheckNumber = number
	c.Finalize()
	snap.Checks[ref] = c

	if err := r.save(ctx, snap); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *Repository) allocateRef(snap *snapshot) (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		ref := r.newCheckRef()
		if _, exists := snap.Checks[ref]; !exists {
			return ref, nil
		}
	}
	return "", errors.New("could not allocate a unique check reference")
}

func (r *Repository) allocateNumber(snap *snapshot) (int, error) {
	for i := 0; i < maxIDAttempts; i++ {
		number := r.newCheckNumber()
		taken := false
		for _, existing := range snap.Checks {
			if existing.Header.CheckNumber == number {
				taken = true
				break
			}
		}
		if !taken {
			return number, nil
		}
	}
	return 0, errors.New("could not allocate a unique check number")
}

// Get returns one check by reference.
func (r *Repository) Get(ctx context.Context, ref string) (*Check, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	c, ok := snap.Checks[ref]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

// List returns every stored check.
func (r *Repository) List(ctx context.Context) ([]Check, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	checks := make([]Check, 0, len(snap.Checks))
	for _, c := range snap.Checks {
		checks = append(checks, *c)
	}
	return checks, nil
}

// Mutate runs fn against one check inside a single load-mutate-save cycle.
// The snapshot is only persisted when fn succeeds.
func (r *Repository) Mutate(ctx context.Context, ref string, fn func(*Check) error) (*Check, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	c, ok := snap.Checks[ref]
	if !ok {
		return nil, ErrNotFound
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	if err := r.save(ctx, snap); err != nil {
		return nil, err
	}
	return c, nil
}
