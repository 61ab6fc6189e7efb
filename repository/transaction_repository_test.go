package repository

import (
	"context"
	"testing"
	"time"

	"scratcher/models"
	"scratcher/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionRepository_CreateAndGet(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	createTestAccount(t, testDB.DB, 3001)
	repo := NewTransactionRepository(testDB.DB)
	ctx := context.Background()

	deposit := testutil.CreateTestDeposit(3001, "50.00", "dep-1")
	require.NoError(t, repo.Create(ctx, deposit))
	assert.NotZero(t, deposit.ID)
	assert.False(t, deposit.CreatedAt.IsZero())

	stored, err := repo.GetByID(ctx, deposit.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, models.TransactionKindDeposit, stored.Kind)
	assert.Equal(t, models.TransactionStatusPending, stored.Status)
	assert.True(t, models.MustMoney("50.00").Equal(stored.Amount))
	require.NotNil(t, stored.ExternalRef)
	assert.Equal(t, "dep-1", *stored.ExternalRef)
	assert.Equal(t, true, stored.Metadata["test"])
	assert.Nil(t, stored.ProcessedAt)

	t.Run("external ref is unique", func(t *testing.T) {
		assert.Error(t, repo.Create(ctx, testutil.CreateTestDeposit(3001, "10.00", "dep-1")))
	})

	t.Run("nil metadata is stored as empty", func(t *testing.T) {
		entry := testutil.CreateTestWithdrawal(3001, "5.00")
		entry.Metadata = nil
		require.NoError(t, repo.Create(ctx, entry))

		stored, err := repo.GetByID(ctx, entry.ID)
		require.NoError(t, err)
		assert.Empty(t, stored.Metadata)
	})

	t.Run("missing", func(t *testing.T) {
		stored, err := repo.GetByIDForUpdate(ctx, 999999)
		require.NoError(t, err)
		assert.Nil(t, stored)
	})
}

func TestTransactionRepository_MarkSettledOnlyOnce(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	createTestAccount(t, testDB.DB, 3002)
	repo := NewTransactionRepository(testDB.DB)
	ctx := context.Background()

	deposit := testutil.CreateTestDeposit(3002, "20.00", "dep-settle")
	require.NoError(t, repo.Create(ctx, deposit))

	ok, err := repo.MarkSettled(ctx, deposit.ID, models.TransactionStatusCompleted, testNow)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkSettled(ctx, deposit.ID, models.TransactionStatusFailed, testNow)
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := repo.GetByID(ctx, deposit.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusCompleted, stored.Status)
	require.NotNil(t, stored.ProcessedAt)
	assert.True(t, testNow.Equal(*stored.ProcessedAt))
}

func TestTransactionRepository_ListAndSum(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	createTestAccount(t, testDB.DB, 3003)
	createTestAccount(t, testDB.DB, 3004)
	repo := NewTransactionRepository(testDB.DB)
	ctx := context.Background()

	for _, amount := range []string{"10.00", "15.00", "20.00"} {
		require.NoError(t, repo.Create(ctx, testutil.CreateTestWithdrawal(3003, amount)))
	}
	failed := testutil.CreateTestWithdrawal(3003, "99.00")
	require.NoError(t, repo.Create(ctx, failed))
	_, err := repo.MarkSettled(ctx, failed.ID, models.TransactionStatusFailed, testNow)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, testutil.CreateTestDeposit(3003, "500.00", "dep-list")))
	require.NoError(t, repo.Create(ctx, testutil.CreateTestWithdrawal(3004, "70.00")))

	t.Run("newest first", func(t *testing.T) {
		list, err := repo.List(ctx, 3003, models.TransactionFilter{Limit: 10})
		require.NoError(t, err)
		require.Len(t, list, 5)
		assert.Equal(t, models.TransactionKindDeposit, list[0].Kind)
		for i := 1; i < len(list); i++ {
			assert.Greater(t, list[i-1].ID, list[i].ID)
		}
	})

	t.Run("filter by kind and status with paging", func(t *testing.T) {
		list, err := repo.List(ctx, 3003, models.TransactionFilter{
			Kind:   models.TransactionKindWithdrawal,
			Status: models.TransactionStatusPending,
			Limit:  2,
			Offset: 1,
		})
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.True(t, models.MustMoney("15.00").Equal(list[0].Amount))
		assert.True(t, models.MustMoney("10.00").Equal(list[1].Amount))
	})

	t.Run("sum ignores failed and other accounts", func(t *testing.T) {
		total, err := repo.SumWithdrawalsSince(ctx, 3003, testNow.Add(-time.Hour))
		require.NoError(t, err)
		assert.True(t, models.MustMoney("45.00").Equal(total), "got %s", total)
	})

	t.Run("sum outside window", func(t *testing.T) {
		total, err := repo.SumWithdrawalsSince(ctx, 3003, time.Now().Add(time.Hour))
		require.NoError(t, err)
		assert.True(t, total.IsZero())
	})
}

func TestTransactionRepository_PendingAndMonthlyTotals(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	createTestAccount(t, testDB.DB, 3101)
	createTestAccount(t, testDB.DB, 3102)
	repo := NewTransactionRepository(testDB.DB)
	ctx := context.Background()

	deposit := testutil.CreateTestDeposit(3101, "100.00", "dep-pending")
	require.NoError(t, repo.Create(ctx, deposit))
	withdrawal := testutil.CreateTestWithdrawal(3102, "40.00")
	withdrawal.Metadata = map[string]any{"pix_key": "pix@example.com"}
	require.NoError(t, repo.Create(ctx, withdrawal))
	settled := testutil.CreateTestDeposit(3101, "50.00", "dep-settled")
	require.NoError(t, repo.Create(ctx, settled))
	_, err := repo.MarkSettled(ctx, settled.ID, models.TransactionStatusCompleted, testNow)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, &models.Transaction{
		AccountID: 3101,
		Kind:      models.TransactionKindStake,
		Amount:    models.MustMoney("10.00"),
		Status:    models.TransactionStatusCompleted,
	}))
	require.NoError(t, repo.Create(ctx, &models.Transaction{
		AccountID: 3101,
		Kind:      models.TransactionKindStake,
		Amount:    models.MustMoney("10.00"),
		Status:    models.TransactionStatusCompleted,
	}))

	t.Run("pending deposits and withdrawals oldest first", func(t *testing.T) {
		pending, err := repo.ListPending(ctx, 10)
		require.NoError(t, err)
		require.Len(t, pending, 2)
		assert.Equal(t, deposit.ID, pending[0].ID)
		assert.Equal(t, withdrawal.ID, pending[1].ID)
		assert.Equal(t, "pix@example.com", pending[1].Metadata["pix_key"])

		pending, err = repo.ListPending(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, pending, 1)
	})

	t.Run("completed totals per kind", func(t *testing.T) {
		totals, err := repo.SumCompletedSince(ctx, 3101, testNow.Add(-time.Hour))
		require.NoError(t, err)
		assert.Len(t, totals, 2)
		assert.True(t, models.MustMoney("50.00").Equal(totals[models.TransactionKindDeposit]), "got %s", totals[models.TransactionKindDeposit])
		assert.True(t, models.MustMoney("20.00").Equal(totals[models.TransactionKindStake]))

		totals, err = repo.SumCompletedSince(ctx, 3102, testNow.Add(-time.Hour))
		require.NoError(t, err)
		assert.Empty(t, totals)
	})
}
