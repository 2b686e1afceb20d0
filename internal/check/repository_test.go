package check

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRepository(rdb)
}

func newOpenCheck() *Check {
	return &Check{
		Header: Header{
			TableName:  "T1",
			OpenTime:   time.Now().UTC(),
			Status:     StatusOpen,
			PrepStatus: PrepUninitialized,
		},
	}
}

func TestRepositoryCreateAndGet(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, newOpenCheck())
	require.NoError(t, err)
	assert.NotEmpty(t, created.Header.CheckRef)
	assert.GreaterOrEqual(t, created.Header.CheckNumber, 1000)
	assert.Equal(t, fmt.Sprintf("Check %d", created.Header.CheckNumber), created.Header.CheckName)
	assert.NotEmpty(t, created.PrintedLines.Lines)

	got, err := repo.Get(ctx, created.Header.CheckRef)
	require.NoError(t, err)
	assert.Equal(t, created.Header.CheckRef, got.Header.CheckRef)
}

func TestRepositoryGetUnknown(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.Get(context.Background(), "CHK-NOPE")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepositoryCheckRefCollisionRetries(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	refs := []string{"CHK-SAME", "CHK-SAME", "CHK-OTHER"}
	i := 0
	repo.newCheckRef = func() string {
		ref := refs[i%len(refs)]
		i++
		return ref
	}

	first, err := repo.Create(ctx, newOpenCheck())
	require.NoError(t, err)
	assert.Equal(t, "CHK-SAME", first.Header.CheckRef)

	second, err := repo.Create(ctx, newOpenCheck())
	require.NoError(t, err)
	assert.Equal(t, "CHK-OTHER", second.Header.CheckRef, "collision regenerates the reference")
}

func TestRepositoryCheckRefCollisionExhausted(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	repo.newCheckRef = func() string { return "CHK-SAME" }

	_, err := repo.Create(ctx, newOpenCheck())
	require.NoError(t, err)

	_, err = repo.Create(ctx, newOpenCheck())
	assert.Error(t, err, "bounded retries must surface an error, not loop")
}

func TestRepositoryCheckNumberCollisionRetries(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	numbers := []int{4242, 4242, 5151}
	i := 0
	repo.newCheckNumber = func() int {
		n := numbers[i%len(numbers)]
		i++
		return n
	}

	first, err := repo.Create(ctx, newOpenCheck())
	require.NoError(t, err)
	assert.Equal(t, 4242, first.Header.CheckNumber)

	second, err := repo.Create(ctx, newOpenCheck())
	require.NoError(t, err)
	assert.Equal(t, 5151, second.Header.CheckNumber)
}

func TestRepositoryMutatePersistsOnlyOnSuccess(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, newOpenCheck())
	require.NoError(t, err)

	_, err = repo.Mutate(ctx, created.Header.CheckRef, func(c *Check) error {
		c.Header.Status = StatusClosed
		return fmt.Errorf("nope")
	})
	require.Error(t, err)

	got, err := repo.Get(ctx, created.Header.CheckRef)
	require.NoError(t, err)
	assert.Equal(t, StatusOpen, got.Header.Status, "failed mutation must not be persisted")
}

func TestRepositoryMutateUnknown(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.Mutate(context.Background(), "CHK-NOPE", func(c *Check) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
}

// Concurrent writers must not discard each other's updates: every appended
// item survives because the load-mutate-save cycle is serialized.
func TestRepositoryConcurrentMutationsDoNotLoseUpdates(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, newOpenCheck())
	require.NoError(t, err)

	const writers = 20
	var g errgroup.Group
	for i := 0; i < writers; i++ {
		i := i
		g.Go(func() error {
			_, err := repo.Mutate(ctx, created.Header.CheckRef, func(c *Check) error {
				c.MenuItems = append(c.MenuItems, LineItem{Sku: fmt.Sprintf("SKU-%d", i), Quantity: 1})
				return nil
			})
			return err
		})
	}
	require.NoError(t, g.Wait())

	got, err := repo.Get(ctx, created.Header.CheckRef)
	require.NoError(t, err)
	assert.Len(t, got.MenuItems, writers)
}

func TestRepositoryList(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := repo.Create(ctx, newOpenCheck())
		require.NoError(t, err)
	}

	checks, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, checks, 3)
}
