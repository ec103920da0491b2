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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun/dialect"
)

func TestRebind(t *testing.T) {
	query := "select `id`, `name` from `User` where `id`=? and `age`>?"
	args := []interface{}{1, 18}

	q, err := Rebind(dialect.MySQL, query, args)
	require.NoError(t, err)
	assert.Equal(t, query, q)

	q, err = Rebind(dialect.SQLite, query, args)
	require.NoError(t, err)
	assert.Equal(t, query, q)

	q, err = Rebind(dialect.PG, query, args)
	require.NoError(t, err)
	assert.Equal(t, `select "id", "name" from "User" where "id"=$1 and "age">$2`, q)
}

func TestRebindPlaceholderMismatch(t *testing.T) {
	_, err := Rebind(dialect.MySQL, "select 1 from `User` where `id`=?", nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = Rebind(dialect.MySQL, "select 1", []interface{}{1})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestCountPlaceholders(t *testing.T) {
	assert.Equal(t, 0, CountPlaceholders("select 1"))
	assert.Equal(t, 3, CountPlaceholders("insert into `User` (`name`, `age`, `id`) values (?, ?, ?)"))
}

func TestExecuteAndSelect(t *testing.T) {
	ctx := context.Background()
	p := newTestPool(t)
	info := createUserTable(t, p)

	for i, name := range []string{"Alice", "Bob", "Carol"} {
		n, err := p.Execute(ctx, info.InsertSQL(), []interface{}{name, 20 + i, i + 1})
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	}

	rows, err := p.Select(ctx, info.SelectSQL()+" order by `id`", nil, 0)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Alice", rows[0]["name"])
	assert.EqualValues(t, 20, rows[0]["age"])
	assert.EqualValues(t, 3, rows[2]["id"])

	rows, err = p.Select(ctx, info.SelectSQL()+" order by `id`", nil, 2)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = p.Select(ctx, info.SelectSQL()+" where `name`=?", []interface{}{"Nobody"}, 1)
	require.NoError(t, err)
	assert.Empty(t, rows)

	n, err := p.Execute(ctx, info.DeleteSQL(), []interface{}{42})
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	assert.Equal(t, int64(0), p.Stats().CheckedOut)
}

func TestSelectPlaceholderMismatchNeverReachesDriver(t *testing.T) {
	ctx := context.Background()
	p := newTestPool(t)
	hook := &recordingHook{}
	p.AddQueryHook(hook)

	_, err := p.Select(ctx, "select ? as a, ? as b", []interface{}{1}, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = p.Execute(ctx, "delete from `User` where `id`=?", nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	assert.Empty(t, hook.recorded())
	assert.Equal(t, int64(0), p.Stats().CheckedOut)
}

func TestQueryHooksSeeEveryStatement(t *testing.T) {
	ctx := context.Background()
	p := newTestPool(t)
	info := createUserTable(t, p)
	hook := &recordingHook{}
	p.AddQueryHook(hook)

	_, err := p.Execute(ctx, info.InsertSQL(), []interface{}{"Alice", 30, 1})
	require.NoError(t, err)
	_, err = p.Select(ctx, info.SelectSQL(), nil, 0)
	require.NoError(t, err)
	_, err = p.Select(ctx, "select * from `missing_table`", nil, 0)
	require.Error(t, err)

	got := hook.recorded()
	require.Len(t, got, 3)
	assert.Equal(t, 3, hook.before)

	assert.Equal(t, "INSERT", got[0].operation)
	assert.Equal(t, info.InsertSQL(), got[0].template)
	assert.Equal(t, []interface{}{"Alice", 30, 1}, got[0].args)
	assert.NoError(t, got[0].err)

	assert.Equal(t, "SELECT", got[1].operation)
	assert.Error(t, got[2].err)
}

func TestSelectNormalizesBytes(t *testing.T) {
	ctx := context.Background()
	p := newTestPool(t)
	rows, err := p.Select(ctx, "select cast(? as blob) as b", []interface{}{[]byte("raw")}, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "raw", rows[0]["b"])
}

func TestExecuteErrorIsReturned(t *testing.T) {
	ctx := context.Background()
	p := newTestPool(t)
	info := createUserTable(t, p)

	_, err := p.Execute(ctx, info.InsertSQL(), []interface{}{"Alice", 1, 1})
	require.NoError(t, err)
	_, err = p.Execute(ctx, info.InsertSQL(), []interface{}{"Again", 1, 1})
	require.Error(t, err)
	is, kind := IsSqlError(err)
	assert.True(t, is)
	assert.Equal(t, DuplicateKeyErr, kind)
}
