package repository

import (
	"context"
	"testing"
	"time"

	"scratcher/database"

	"github.com/stretchr/testify/require"
)

// testNow is truncated to the precision postgres stores
var testNow = time.Now().UTC().Truncate(time.Microsecond)

// createTestAccount inserts an account with an empty wallet
func createTestAccount(t *testing.T, db *database.DB, id int64) {
	t.Helper()
	ctx := context.Background()

	account, err := NewAccountRepository(db).Create(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, account)

	_, err = NewWalletRepository(db).Create(ctx, id)
	require.NoError(t, err)
}
