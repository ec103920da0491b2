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

package repository

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun/dialect"

	"github.com/tomoncle/awesome/database"
	"github.com/tomoncle/awesome/utils"
)

func init() {
	database.EnableSqlSilent(true)
	utils.ConfigureConsoleOutput(io.Discard)
}

type call struct {
	query string
	args  []interface{}
	size  int
}

// fakeExecutor records statements and answers with canned rows.
type fakeExecutor struct {
	dialect  dialect.Name
	rows     []database.Row
	affected int64
	err      error
	selects  []call
	executes []call
}

var _ database.Executor = (*fakeExecutor)(nil)

func (f *fakeExecutor) Select(ctx context.Context, query string, args []interface{}, size int) ([]database.Row, error) {
	f.selects = append(f.selects, call{query: query, args: args, size: size})
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func (f *fakeExecutor) Execute(ctx context.Context, query string, args []interface{}) (int64, error) {
	return f.ExecuteWith(ctx, query, args, true)
}

func (f *fakeExecutor) ExecuteWith(ctx context.Context, query string, args []interface{}, autocommit bool) (int64, error) {
	f.executes = append(f.executes, call{query: query, args: args})
	if f.err != nil {
		return 0, f.err
	}
	return f.affected, nil
}

func (f *fakeExecutor) DialectName() dialect.Name {
	if f.dialect == dialect.Invalid {
		return dialect.SQLite
	}
	return f.dialect
}

func userModel(t *testing.T) *database.ModelInfo {
	t.Helper()
	info, err := database.BuildModelInfo("User", []database.Field{
		database.IntegerField("id", database.PrimaryKey()),
		database.StringField("name"),
		database.IntegerField("age"),
	})
	require.NoError(t, err)
	return info
}

func newSqlitePool(t *testing.T) *database.Pool {
	t.Helper()
	cfg := database.DefaultConnectionConfig()
	cfg.Type = "sqlite"
	cfg.DBName = fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()))
	cfg.MinSize = 1
	cfg.MaxSize = 4
	p, err := database.NewPool(cfg)
	require.NoError(t, err)
	require.NoError(t, p.Connect(context.Background()))
	t.Cleanup(func() { _ = p.Close() })
	return p
}
