/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countUsers(t *testing.T, p *Pool) int64 {
	t.Helper()
	rows, err := p.Select(context.Background(), "select count(*) as n from `User`", nil, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	return rows[0]["n"].(int64)
}

func TestExecuteWithoutAutocommitCommits(t *testing.T) {
	ctx := context.Background()
	p := newTestPool(t, func(c *ConnectionConfig) { c.Autocommit = false })
	info := createUserTable(t, p)

	n, err := p.Execute(ctx, info.InsertSQL(), []interface{}{"Alice", 30, 1})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, int64(1), countUsers(t, p))
}

func TestExecuteWithoutAutocommitReturnsOriginalError(t *testing.T) {
	ctx := context.Background()
	p := newTestPool(t, func(c *ConnectionConfig) { c.Autocommit = false })
	info := createUserTable(t, p)

	_, err := p.Execute(ctx, info.InsertSQL(), []interface{}{"Alice", 30, 1})
	require.NoError(t, err)
	_, err = p.Execute(ctx, info.InsertSQL(), []interface{}{"Bob", 31, 1})
	require.Error(t, err)
	var txErr *TransactionError
	assert.False(t, errors.As(err, &txErr))
	assert.Equal(t, int64(1), countUsers(t, p))
	assert.Equal(t, int64(0), p.Stats().CheckedOut)
}

func TestRunInTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	p := newTestPool(t)
	info := createUserTable(t, p)

	boom := errors.New("boom")
	var seen *Transaction
	err := p.RunInTransaction(ctx, nil, func(ctx context.Context, tx *Transaction) error {
		seen = tx
		assert.Equal(t, TxActive, tx.State())
		_, err := tx.Exec(ctx, info.InsertSQL(), []interface{}{"Alice", 30, 1})
		require.NoError(t, err)
		rows, err := tx.Select(ctx, info.SelectSQL(), nil, 0)
		require.NoError(t, err)
		assert.Len(t, rows, 1)
		return boom
	})
	assert.Same(t, boom, err)
	assert.Equal(t, TxRolledBack, seen.State())
	assert.Equal(t, int64(0), countUsers(t, p))
}

func TestRunInTransactionReportsFailedRollback(t *testing.T) {
	ctx := context.Background()
	p := newTestPool(t)
	info := createUserTable(t, p)

	boom := errors.New("boom")
	var seen *Transaction
	err := p.RunInTransaction(ctx, nil, func(ctx context.Context, tx *Transaction) error {
		seen = tx
		_, err := tx.Exec(ctx, info.InsertSQL(), []interface{}{"Alice", 30, 1})
		require.NoError(t, err)
		// ends the transaction behind database/sql's back, so ROLLBACK fails
		_, err = tx.Exec(ctx, "commit", nil)
		require.NoError(t, err)
		return boom
	})

	var txErr *TransactionError
	require.True(t, errors.As(err, &txErr))
	assert.Same(t, boom, txErr.Err)
	assert.Error(t, txErr.RollbackErr)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, TxRolledBack, seen.State())
	assert.Equal(t, int64(0), p.Stats().CheckedOut)
	assert.Equal(t, int64(1), countUsers(t, p))
}

func TestRunInTransactionCommits(t *testing.T) {
	ctx := context.Background()
	p := newTestPool(t)
	info := createUserTable(t, p)

	var seen *Transaction
	err := p.RunInTransaction(ctx, nil, func(ctx context.Context, tx *Transaction) error {
		seen = tx
		for i, name := range []string{"Alice", "Bob"} {
			if _, err := tx.Exec(ctx, info.InsertSQL(), []interface{}{name, 20, i + 1}); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, TxCommitted, seen.State())
	assert.Equal(t, int64(2), countUsers(t, p))

	_, err = seen.Exec(ctx, info.DeleteSQL(), []interface{}{1})
	assert.ErrorIs(t, err, sql.ErrTxDone)
	assert.ErrorIs(t, seen.Commit(), sql.ErrTxDone)
	assert.ErrorIs(t, seen.Rollback(), sql.ErrTxDone)
}

func TestTxStateString(t *testing.T) {
	assert.Equal(t, "idle", TxIdle.String())
	assert.Equal(t, "active", TxActive.String())
	assert.Equal(t, "committed", TxCommitted.String())
	assert.Equal(t, "rolled_back", TxRolledBack.String())
}
