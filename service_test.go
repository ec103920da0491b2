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

package awesome

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomoncle/awesome/database"
	"github.com/tomoncle/awesome/types"
	"github.com/tomoncle/awesome/utils"
)

func init() {
	database.EnableSqlSilent(true)
	utils.ConfigureConsoleOutput(io.Discard)
}

func sqliteConfig(t *testing.T) *database.ConnectionConfig {
	cfg := database.DefaultConnectionConfig()
	cfg.Type = "sqlite"
	cfg.DBName = fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()))
	cfg.MinSize = 1
	cfg.MaxSize = 4
	return cfg
}

func blogModel(t *testing.T) *database.ModelInfo {
	t.Helper()
	info, err := database.BuildModelInfo("Blog", []database.Field{
		database.StringField("id", database.PrimaryKey(), database.DDL("varchar(50)"), database.DefaultFunc(types.NextIDValue)),
		database.StringField("title"),
		database.IntegerField("views"),
		database.BooleanField("published"),
	}, database.WithTable("blogs"))
	require.NoError(t, err)
	return info
}

func TestServiceOnSqlite(t *testing.T) {
	ctx := context.Background()
	pool, err := database.NewPool(sqliteConfig(t))
	require.NoError(t, err)
	require.NoError(t, pool.Connect(ctx))
	t.Cleanup(func() { _ = pool.Close() })

	info := blogModel(t)
	_, err = pool.ExecuteWith(ctx, info.CreateTableSQL(), nil, true)
	require.NoError(t, err)

	svc := NewServiceWithPool(info, pool)
	var blogs []*Entity
	for i := 0; i < 5; i++ {
		b, err := svc.New(map[string]interface{}{"title": fmt.Sprintf("post %d", i), "views": i * 10, "published": i%2 == 0})
		require.NoError(t, err)
		blogs = append(blogs, b)
	}
	require.NoError(t, svc.Save(ctx, blogs...))
	for _, b := range blogs {
		assert.Len(t, b.PrimaryKey(), types.IDLength)
	}

	total, err := svc.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, total)

	published, err := svc.Count(ctx, types.NewQueryFilter("`published` = ?", true))
	require.NoError(t, err)
	assert.Equal(t, 3, published)

	page, err := svc.Page(ctx, types.NewPageRequestWithOrders(2, 2, []string{"`views` desc"}))
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 3, page.Pages())
	require.Len(t, page.Items, 2)
	assert.Equal(t, int64(20), page.Items[0].Get("views"))
	assert.Equal(t, int64(10), page.Items[1].Get("views"))

	first, err := svc.Get(ctx, blogs[0].PrimaryKey())
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "post 0", first.Get("title"))
	assert.Equal(t, true, first.Get("published"))

	require.NoError(t, first.Set("title", "edited"))
	require.NoError(t, svc.Update(ctx, first))
	edited, err := svc.Query(ctx, "`title` = ?", "edited")
	require.NoError(t, err)
	require.Len(t, edited, 1)

	require.NoError(t, svc.Delete(ctx, blogs[0].PrimaryKey()))
	gone, err := svc.Get(ctx, blogs[0].PrimaryKey())
	require.NoError(t, err)
	assert.Nil(t, gone)

	all, err := svc.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestServiceEmptyPage(t *testing.T) {
	ctx := context.Background()
	pool, err := database.NewPool(sqliteConfig(t))
	require.NoError(t, err)
	require.NoError(t, pool.Connect(ctx))
	t.Cleanup(func() { _ = pool.Close() })

	info := blogModel(t)
	_, err = pool.ExecuteWith(ctx, info.CreateTableSQL(), nil, true)
	require.NoError(t, err)

	page, err := NewServiceWithPool(info, pool).Page(ctx, types.NewDefaultPageRequest(1, 10))
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)
	assert.Empty(t, page.Items)

	page, err = NewServiceWithPool(info, pool).Page(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, types.DefaultPage, page.Page)
	assert.Equal(t, types.DefaultPageSize, page.PageSize)
	assert.Empty(t, page.Items)
}

func TestServiceResolvesGlobalPool(t *testing.T) {
	ctx := context.Background()
	info := blogModel(t)
	svc := NewService(info)

	_, err := svc.All(ctx)
	assert.ErrorIs(t, err, database.ErrPoolNotInitialized)

	_, err = database.InitDB(&database.Config{ConnectionConfig: *sqliteConfig(t)})
	require.NoError(t, err)
	defer func() { _ = database.CloseDB() }()
	require.NoError(t, database.NewSQLInitManager(database.GetPool(), "test").CreateTables(ctx, info))

	repo, err := svc.Repository()
	require.NoError(t, err)
	assert.Same(t, info, repo.Model())

	all, err := svc.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
