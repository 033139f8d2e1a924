package ledger

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirhossein-jamali/clipforge/internal/domain/entity"
	errs "github.com/amirhossein-jamali/clipforge/internal/domain/error"
	"github.com/amirhossein-jamali/clipforge/internal/testutil"
)

func newFixture(t *testing.T, credits int64) (*Service, *testutil.Store, *entity.User) {
	t.Helper()
	clock := testutil.NewClock(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))
	store := testutil.NewStore()

	user, err := entity.NewUser("alice", "alice@example.com", "hash", 0, entity.AuthTypePassword, clock)
	require.NoError(t, err)
	store.SeedUser(user)

	svc := NewService(store, clock, testutil.QuietLogger(t))
	if credits > 0 {
		_, err := svc.Credit(context.Background(), user.ID, credits, entity.CreditKindPurchase, "opening", "")
		require.NoError(t, err)
	}
	return svc, store, user
}

func TestService_Debit(t *testing.T) {
	ctx := context.Background()

	t.Run("should decrement balance and append usage entry", func(t *testing.T) {
		// Arrange
		svc, store, user := newFixture(t, 10)

		// Act
		updated, err := svc.Debit(ctx, user.ID, 5, "video generation", "video:1:usage")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, int64(5), updated.Credits())
		assert.Equal(t, int64(5), store.Balance(user.ID))

		entries := store.Entries(user.ID)
		require.Len(t, entries, 2)
		assert.Equal(t, int64(-5), entries[1].Amount)
		assert.Equal(t, entity.CreditKindUsage, entries[1].Kind)
	})

	t.Run("should reject debit larger than balance without side effects", func(t *testing.T) {
		svc, store, user := newFixture(t, 4)

		updated, err := svc.Debit(ctx, user.ID, 5, "video generation", "")

		assert.Nil(t, updated)
		assert.ErrorIs(t, err, errs.ErrInsufficientCredits)
		assert.Equal(t, int64(4), store.Balance(user.ID))
		assert.Len(t, store.Entries(user.ID), 1)
	})

	t.Run("should allow spending the exact balance", func(t *testing.T) {
		svc, store, user := newFixture(t, 5)

		_, err := svc.Debit(ctx, user.ID, 5, "video generation", "")

		require.NoError(t, err)
		assert.Equal(t, int64(0), store.Balance(user.ID))
	})

	t.Run("should reject non-positive amounts", func(t *testing.T) {
		svc, _, user := newFixture(t, 5)

		_, err := svc.Debit(ctx, user.ID, 0, "noop", "")
		assert.ErrorIs(t, err, errs.ErrInvalidAmount)

		_, err = svc.Debit(ctx, user.ID, -3, "noop", "")
		assert.ErrorIs(t, err, errs.ErrInvalidAmount)
	})

	t.Run("should report unknown user", func(t *testing.T) {
		svc, _, _ := newFixture(t, 0)

		_, err := svc.Debit(ctx, uuid.New(), 5, "video generation", "")

		assert.ErrorIs(t, err, errs.ErrUserNotFound)
	})
}

func TestService_Credit(t *testing.T) {
	ctx := context.Background()

	t.Run("should apply a reference only once", func(t *testing.T) {
		svc, store, user := newFixture(t, 0)

		_, err := svc.Credit(ctx, user.ID, 20, entity.CreditKindPurchase, "20 credits", "payment:abc")
		require.NoError(t, err)

		_, err = svc.Credit(ctx, user.ID, 20, entity.CreditKindPurchase, "20 credits", "payment:abc")
		assert.ErrorIs(t, err, errs.ErrDuplicateLedgerEntry)

		assert.Equal(t, int64(20), store.Balance(user.ID))
		assert.Len(t, store.Entries(user.ID), 1)
	})

	t.Run("should refuse usage kind", func(t *testing.T) {
		svc, _, user := newFixture(t, 0)

		_, err := svc.Credit(ctx, user.ID, 5, entity.CreditKindUsage, "bad", "")

		assert.ErrorIs(t, err, errs.ErrValidation)
	})

	t.Run("should roll back history when user is missing", func(t *testing.T) {
		svc, store, _ := newFixture(t, 0)
		ghost := uuid.New()

		_, err := svc.Credit(ctx, ghost, 5, entity.CreditKindRefund, "refund", "video:x:refund")

		assert.ErrorIs(t, err, errs.ErrUserNotFound)
		assert.Empty(t, store.Entries(ghost))
	})
}

func TestService_ConcurrentDebits(t *testing.T) {
	ctx := context.Background()
	svc, store, user := newFixture(t, 10)

	// Arrange: 8 concurrent 5-credit debits against a balance of 10
	var wg sync.WaitGroup
	var succeeded, rejected int32
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Debit(ctx, user.ID, 5, "video generation", "")
			switch {
			case err == nil:
				atomic.AddInt32(&succeeded, 1)
			case errs.IsInsufficientCreditsError(err):
				atomic.AddInt32(&rejected, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	// Assert
	assert.Equal(t, int32(2), succeeded)
	assert.Equal(t, int32(6), rejected)
	assert.Equal(t, int64(0), store.Balance(user.ID))

	drift, err := svc.Reconcile(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, drift)
}

func TestService_BalanceMatchesHistory(t *testing.T) {
	ctx := context.Background()
	svc, store, user := newFixture(t, 50)

	_, err := svc.Debit(ctx, user.ID, 20, "pro video", "video:a:usage")
	require.NoError(t, err)
	_, err = svc.Debit(ctx, user.ID, 5, "video", "video:b:usage")
	require.NoError(t, err)
	_, err = svc.Credit(ctx, user.ID, 20, entity.CreditKindRefund, "refund", "video:a:refund")
	require.NoError(t, err)
	_, err = svc.Debit(ctx, user.ID, 100, "too much", "")
	require.Error(t, err)

	var sum int64
	for _, e := range store.Entries(user.ID) {
		sum += e.Amount
	}
	assert.Equal(t, store.Balance(user.ID), sum)
	assert.Equal(t, int64(45), sum)

	history, err := svc.History(ctx, user.ID, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, entity.CreditKindRefund, history[0].Kind)
}
