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
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/tomoncle/awesome/utils"
)

func init() {
	EnableSqlSilent(true)
	utils.ConfigureConsoleOutput(io.Discard)
}

func sqliteConfig(t *testing.T) *ConnectionConfig {
	cfg := DefaultConnectionConfig()
	cfg.Type = "sqlite"
	cfg.DBName = fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()))
	cfg.MinSize = 1
	cfg.MaxSize = 4
	return cfg
}

func newTestPool(t *testing.T, configure ...func(*ConnectionConfig)) *Pool {
	t.Helper()
	cfg := sqliteConfig(t)
	for _, fn := range configure {
		fn(cfg)
	}
	p, err := NewPool(cfg)
	require.NoError(t, err)
	require.NoError(t, p.Connect(context.Background()))
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func userModel(t *testing.T) *ModelInfo {
	t.Helper()
	info, err := BuildModelInfo("User", []Field{
		IntegerField("id", PrimaryKey()),
		StringField("name"),
		IntegerField("age"),
	})
	require.NoError(t, err)
	return info
}

func createUserTable(t *testing.T, p *Pool) *ModelInfo {
	t.Helper()
	info := userModel(t)
	_, err := p.ExecuteWith(context.Background(), info.CreateTableSQL(), nil, true)
	require.NoError(t, err)
	return info
}

type recordedQuery struct {
	operation string
	template  string
	query     string
	args      []interface{}
	err       error
}

type recordingHook struct {
	mu      sync.Mutex
	before  int
	queries []recordedQuery
}

var _ bun.QueryHook = (*recordingHook)(nil)

func (h *recordingHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	h.mu.Lock()
	h.before++
	h.mu.Unlock()
	return ctx
}

func (h *recordingHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.queries = append(h.queries, recordedQuery{
		operation: QueryOperation(event),
		template:  event.QueryTemplate,
		query:     event.Query,
		args:      event.QueryArgs,
		err:       event.Err,
	})
}

func (h *recordingHook) recorded() []recordedQuery {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]recordedQuery, len(h.queries))
	copy(out, h.queries)
	return out
}
