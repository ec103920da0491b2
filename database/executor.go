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
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// sqlRunner is satisfied by *sql.Conn and *sql.Tx.
type sqlRunner interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Select acquires a connection, runs query and returns up to size rows (all
// rows when size <= 0). The connection is released whatever the outcome.
func (p *Pool) Select(ctx context.Context, query string, args []interface{}, size int) ([]Row, error) {
	var rows []Row
	err := p.WithConn(ctx, func(c *Conn) error {
		var err error
		rows, err = c.Select(ctx, query, args, size)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Execute runs a write statement with the pool's autocommit default.
func (p *Pool) Execute(ctx context.Context, query string, args []interface{}) (int64, error) {
	return p.ExecuteWith(ctx, query, args, p.Autocommit())
}

// ExecuteWith runs a write statement and returns the affected row count. With
// autocommit off the statement runs inside its own transaction, which is
// rolled back on failure.
func (p *Pool) ExecuteWith(ctx context.Context, query string, args []interface{}, autocommit bool) (int64, error) {
	var affected int64
	err := p.WithConn(ctx, func(c *Conn) error {
		if autocommit {
			var err error
			affected, err = c.Exec(ctx, query, args)
			return err
		}
		return c.RunInTransaction(ctx, nil, func(ctx context.Context, tx *Transaction) error {
			var err error
			affected, err = tx.Exec(ctx, query, args)
			return err
		})
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

func (p *Pool) query(ctx context.Context, runner sqlRunner, query string, args []interface{}, size int) ([]Row, error) {
	q, err := p.Rebind(query, args)
	if err != nil {
		return nil, err
	}
	p.logger.Info("SQL: "+query, "args", args)

	ctx, event := p.beforeQuery(ctx, q, query, args)
	rows, err := runner.QueryContext(ctx, q, args...)
	if err != nil {
		p.afterQuery(ctx, event, nil, err)
		return nil, err
	}
	defer rows.Close()

	result := make([]Row, 0)
	for rows.Next() {
		row := make(map[string]interface{})
		if err = sqlx.MapScan(rows, row); err != nil {
			break
		}
		for k, v := range row {
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}
		result = append(result, row)
		if size > 0 && len(result) >= size {
			break
		}
	}
	if err == nil {
		err = rows.Err()
	}
	p.afterQuery(ctx, event, driverResult(len(result)), err)
	if err != nil {
		return nil, err
	}
	p.logger.Info(fmt.Sprintf("rows returned: %d", len(result)))
	return result, nil
}

func (p *Pool) exec(ctx context.Context, runner sqlRunner, query string, args []interface{}) (int64, error) {
	q, err := p.Rebind(query, args)
	if err != nil {
		return 0, err
	}
	p.logger.Info("SQL: "+query, "args", args)

	ctx, event := p.beforeQuery(ctx, q, query, args)
	res, err := runner.ExecContext(ctx, q, args...)
	p.afterQuery(ctx, event, res, err)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Rebind checks that query carries one `?` per argument and rewrites it for
// the pool's driver.
func (p *Pool) Rebind(query string, args []interface{}) (string, error) {
	return Rebind(p.DialectName(), query, args)
}

// Rebind checks the placeholder count of query against args and translates
// the portable form (`?` markers, backtick identifiers) for the dialect.
// PostgreSQL gets $n markers and double-quoted identifiers; MySQL and SQLite
// take the statement as written.
func Rebind(name dialect.Name, query string, args []interface{}) (string, error) {
	if n := CountPlaceholders(query); n != len(args) {
		return "", InvalidArgument("statement has %d placeholders but %d args were given: %s", n, len(args), query)
	}
	if name == dialect.PG {
		return sqlx.Rebind(sqlx.DOLLAR, strings.ReplaceAll(query, "`", `"`)), nil
	}
	return query, nil
}

// CountPlaceholders counts `?` markers in query.
func CountPlaceholders(query string) int {
	return strings.Count(query, "?")
}

func (p *Pool) beforeQuery(ctx context.Context, query, template string, args []interface{}) (context.Context, *bun.QueryEvent) {
	hooks := p.queryHooks()
	if len(hooks) == 0 {
		return ctx, nil
	}
	event := &bun.QueryEvent{
		DB:            p.db,
		Query:         query,
		QueryTemplate: template,
		QueryArgs:     args,
		StartTime:     time.Now(),
	}
	for _, hook := range hooks {
		ctx = hook.BeforeQuery(ctx, event)
	}
	return ctx, event
}

func (p *Pool) afterQuery(ctx context.Context, event *bun.QueryEvent, res sql.Result, err error) {
	if event == nil {
		return
	}
	event.Result = res
	event.Err = err
	hooks := p.queryHooks()
	for i := len(hooks) - 1; i >= 0; i-- {
		hooks[i].AfterQuery(ctx, event)
	}
}

// driverResult reports the number of rows a select returned.
type driverResult int64

func (r driverResult) LastInsertId() (int64, error) { return 0, nil }
func (r driverResult) RowsAffected() (int64, error) { return int64(r), nil }
