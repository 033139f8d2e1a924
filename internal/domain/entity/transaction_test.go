package entity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/amirhossein-jamali/clipforge/internal/domain/error"
	coremocks "github.com/amirhossein-jamali/clipforge/mocks/port/core"
)

func TestCreditPackages(t *testing.T) {
	pkgs := CreditPackages()
	require.Len(t, pkgs, 4)

	pkgs[0].Credits = 999
	assert.Equal(t, int64(5), CreditPackages()[0].Credits, "catalogue must not be mutable through the copy")

	pkg, err := PackageForCredits(20)
	require.NoError(t, err)
	assert.Equal(t, int64(1800), pkg.AmountCents)

	_, err = PackageForCredits(7)
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestNewTransaction(t *testing.T) {
	fixedTime := time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)
	mockTime := coremocks.NewMockTimeProvider(t)
	mockTime.EXPECT().Now().Return(fixedTime).Maybe()

	t.Run("Valid transaction creation", func(t *testing.T) {
		userID := uuid.New()
		tx, err := NewTransaction(userID, CreditPackage{Credits: 10, AmountCents: 970}, mockTime)

		require.NoError(t, err)
		assert.Equal(t, userID, tx.UserID)
		assert.Equal(t, int64(10), tx.Credits)
		assert.Equal(t, StatusPending, tx.Status)
		assert.Nil(t, tx.SessionID)
		assert.Equal(t, fixedTime, tx.CreatedAt)
	})

	t.Run("Missing user", func(t *testing.T) {
		_, err := NewTransaction(uuid.Nil, CreditPackage{Credits: 10, AmountCents: 970}, mockTime)
		assert.ErrorIs(t, err, errs.ErrUserNotFound)
	})

	t.Run("Empty package", func(t *testing.T) {
		_, err := NewTransaction(uuid.New(), CreditPackage{}, mockTime)
		assert.ErrorIs(t, err, errs.ErrInvalidAmount)
	})
}

func TestTransaction_MarkCompleted(t *testing.T) {
	mockTime := coremocks.NewMockTimeProvider(t)
	mockTime.EXPECT().Now().Return(time.Now()).Maybe()

	tx, err := NewTransaction(uuid.New(), CreditPackage{Credits: 5, AmountCents: 500}, mockTime)
	require.NoError(t, err)
	tx.AttachSession("cs_1", mockTime)
	require.NotNil(t, tx.SessionID)
	assert.Equal(t, "cs_1", *tx.SessionID)

	require.NoError(t, tx.MarkCompleted(mockTime))
	assert.True(t, tx.IsCompleted())
	assert.ErrorIs(t, tx.MarkCompleted(mockTime), errs.ErrPaymentAlreadyCompleted)
}

func TestNewCreditEntry(t *testing.T) {
	mockTime := coremocks.NewMockTimeProvider(t)
	mockTime.EXPECT().Now().Return(time.Now()).Maybe()
	userID := uuid.New()

	_, err := NewCreditEntry(userID, -5, CreditKindUsage, "video", "", mockTime)
	assert.NoError(t, err)
	_, err = NewCreditEntry(userID, 5, CreditKindUsage, "video", "", mockTime)
	assert.Error(t, err)
	_, err = NewCreditEntry(userID, -5, CreditKindRefund, "video", "", mockTime)
	assert.Error(t, err)
	_, err = NewCreditEntry(userID, 5, CreditKindPurchase, "buy", "", mockTime)
	assert.NoError(t, err)

	id := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	assert.Equal(t, "video:00000000-0000-0000-0000-000000000001:usage", VideoUsageReference(id))
	assert.Equal(t, "video:00000000-0000-0000-0000-000000000001:refund", VideoRefundReference(id))
	assert.Equal(t, "payment:00000000-0000-0000-0000-000000000001", PaymentReference(id))
}
