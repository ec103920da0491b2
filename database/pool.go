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
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
	"golang.org/x/sync/semaphore"

	"github.com/tomoncle/awesome/metrics"
)

// Pool hands out at most MaxSize exclusive connections. Callers blocked in
// Acquire are served in arrival order.
type Pool struct {
	config *ConnectionConfig
	db     *bun.DB
	sqlDB  *sql.DB
	logger Logger

	sem        *semaphore.Weighted
	waiting    atomic.Int64
	checkedOut atomic.Int64
	closed     atomic.Bool

	mu        sync.RWMutex
	hooks     []bun.QueryHook
	connected bool
	lastError error
}

// NewPool validates cfg and opens the driver handle. No connection is made
// until Connect or the first Acquire.
func NewPool(cfg *ConnectionConfig) (*Pool, error) {
	if cfg == nil {
		cfg = DefaultConnectionConfig()
	}
	c := *cfg
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 30 * time.Second
	}

	p := &Pool{
		config: &c,
		logger: GetLogger(),
		sem:    semaphore.NewWeighted(int64(c.MaxSize)),
	}
	if err := p.createConnection(); err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}
	p.configureConnectionPool()
	return p, nil
}

func (p *Pool) createConnection() error {
	var err error
	switch p.config.Type {
	case "mysql":
		p.sqlDB, p.db, err = p.createMySQLConnection()
	case "postgres", "postgresql":
		p.sqlDB, p.db, err = p.createPostgreSQLConnection()
	case "sqlite", "sqlite3":
		p.sqlDB, p.db, err = p.createSQLiteConnection()
	default:
		return InvalidArgument("unsupported database type: %s", p.config.Type)
	}
	if err != nil {
		return err
	}

	if p.config.EnableQueryLog {
		p.AddQueryHook(bundebug.NewQueryHook(
			bundebug.WithVerbose(true),
			bundebug.FromEnv("BUNDEBUG"),
		))
	} else {
		p.AddQueryHook(NewQueryHook(FromEnv("BUNSQL"), WithWriter(os.Stdout)))
	}
	if p.config.SlowQueryTime > 0 {
		p.AddQueryHook(NewSlowQueryHook(p.config.SlowQueryTime, WithSlowQueryLogger(p.logger)))
	}
	p.AddQueryHook(NewMetricsHook())
	return nil
}

func (p *Pool) createMySQLConnection() (*sql.DB, *bun.DB, error) {
	mc := mysql.NewConfig()
	mc.User = p.config.Username
	mc.Passwd = p.config.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", p.config.Host, p.config.Port)
	mc.DBName = p.config.DBName
	mc.Timeout = p.config.ConnectTimeout
	mc.ReadTimeout = p.config.ReadTimeout
	mc.WriteTimeout = p.config.WriteTimeout
	if p.config.Charset != "" {
		mc.Params = map[string]string{"charset": p.config.Charset}
	}

	connector, err := mysql.NewConnector(mc)
	if err != nil {
		return nil, nil, err
	}
	sqlDB := sql.OpenDB(connector)
	return sqlDB, bun.NewDB(sqlDB, mysqldialect.New()), nil
}

func (p *Pool) createPostgreSQLConnection() (*sql.DB, *bun.DB, error) {
	sslMode := p.config.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s&connect_timeout=%d",
		p.config.Username,
		p.config.Password,
		p.config.Host,
		p.config.Port,
		p.config.DBName,
		sslMode,
		int(p.config.ConnectTimeout.Seconds()),
	)
	if p.config.Charset != "" {
		dsn += "&client_encoding=" + postgresEncoding(p.config.Charset)
	}

	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, nil, err
	}
	return sqlDB, bun.NewDB(sqlDB, pgdialect.New()), nil
}

func postgresEncoding(charset string) string {
	switch strings.ToLower(charset) {
	case "utf8", "utf8mb4":
		return "UTF8"
	}
	return charset
}

func (p *Pool) createSQLiteConnection() (*sql.DB, *bun.DB, error) {
	dsn := p.config.DBName
	switch {
	case dsn == "":
		dsn = "file::memory:?cache=shared"
	case dsn == ":memory:", strings.HasPrefix(dsn, "file:"):
	default:
		dsn = fmt.Sprintf("%s.db", dsn)
	}

	sqlDB, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, nil, err
	}
	return sqlDB, bun.NewDB(sqlDB, sqlitedialect.New()), nil
}

func (p *Pool) configureConnectionPool() {
	p.sqlDB.SetMaxOpenConns(p.config.MaxSize)
	p.sqlDB.SetMaxIdleConns(p.config.MaxSize)
	p.sqlDB.SetConnMaxLifetime(p.config.ConnMaxLifetime)
	p.sqlDB.SetConnMaxIdleTime(p.config.ConnMaxIdleTime)
}

// Connect pings the database and opens MinSize connections up front.
func (p *Pool) Connect(ctx context.Context) error {
	if p.closed.Load() {
		return ErrPoolClosed
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.connected {
		return nil
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, p.config.ConnectTimeout)
	defer cancel()
	if err := p.db.PingContext(ctxTimeout); err != nil {
		p.lastError = err
		return fmt.Errorf("database connection test failed: %w", err)
	}

	warm := make([]*sql.Conn, 0, p.config.MinSize)
	defer func() {
		// back to the idle set, which holds up to MaxSize connections
		for _, c := range warm {
			_ = c.Close()
		}
	}()
	for i := 0; i < p.config.MinSize; i++ {
		c, err := p.sqlDB.Conn(ctxTimeout)
		if err != nil {
			p.lastError = err
			return fmt.Errorf("failed to open connection %d of %d: %w", i+1, p.config.MinSize, err)
		}
		warm = append(warm, c)
	}

	p.connected = true
	p.lastError = nil
	p.logger.Info("Database connected successfully:",
		"type", p.config.Type, "host", p.config.Host, "min_size", p.config.MinSize, "max_size", p.config.MaxSize)
	return nil
}

// Acquire blocks until a connection is free or ctx is done. The returned
// connection must be released exactly once; extra Release calls are no-ops.
func (p *Pool) Acquire(ctx context.Context) (*Conn, error) {
	if p.closed.Load() {
		return nil, ErrPoolClosed
	}

	start := time.Now()
	p.waiting.Add(1)
	metrics.PoolConnections.WithLabelValues("waiting").Inc()
	err := p.sem.Acquire(ctx, 1)
	p.waiting.Add(-1)
	metrics.PoolConnections.WithLabelValues("waiting").Dec()
	metrics.PoolAcquireDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	if p.closed.Load() {
		p.sem.Release(1)
		return nil, ErrPoolClosed
	}

	bc, err := p.db.Conn(ctx)
	if err != nil {
		p.sem.Release(1)
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	p.checkedOut.Add(1)
	metrics.PoolConnections.WithLabelValues("in_use").Inc()
	return &Conn{pool: p, conn: bc}, nil
}

// WithConn acquires a connection, runs fn and releases the connection on
// every exit path.
func (p *Pool) WithConn(ctx context.Context, fn func(*Conn) error) error {
	c, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer c.Release()
	return fn(c)
}

// Close stops handing out connections and closes the driver handle.
func (p *Pool) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	p.mu.Lock()
	p.connected = false
	p.mu.Unlock()

	err := p.db.Close()
	if err != nil {
		p.logger.Error("Failed to close database connection", "error", err)
	} else {
		p.logger.Info("Database connection closed")
	}
	return err
}

func (p *Pool) IsClosed() bool { return p.closed.Load() }

// AddQueryHook appends a hook notified around every statement the pool runs.
func (p *Pool) AddQueryHook(hook bun.QueryHook) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hooks = append(p.hooks, hook)
}

func (p *Pool) queryHooks() []bun.QueryHook {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.hooks
}

func (p *Pool) SetLogger(logger Logger) {
	if logger != nil {
		p.logger = logger
	}
}

func (p *Pool) Config() ConnectionConfig  { return *p.config }
func (p *Pool) Autocommit() bool          { return p.config.Autocommit }
func (p *Pool) DialectName() dialect.Name { return p.db.Dialect().Name() }

// DB exposes the underlying bun handle for callers that need the query builders.
func (p *Pool) DB() *bun.DB { return p.db }

func (p *Pool) HealthCheck(ctx context.Context) *HealthStatus {
	start := time.Now()
	status := &HealthStatus{LastCheckTime: start}
	if p.closed.Load() {
		status.LastError = ErrPoolClosed.Error()
		return status
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()
	err := p.db.PingContext(ctxTimeout)
	status.ResponseTime = time.Since(start)

	p.mu.Lock()
	if err != nil {
		status.LastError = err.Error()
		p.lastError = err
	} else {
		status.Healthy = true
		status.Connected = true
		p.lastError = nil
	}
	p.mu.Unlock()

	stats := p.sqlDB.Stats()
	status.ActiveConns = stats.InUse
	status.IdleConns = stats.Idle
	status.MaxOpenConns = stats.MaxOpenConnections
	return status
}

func (p *Pool) Stats() *DBStats {
	stats := p.sqlDB.Stats()
	return &DBStats{
		MaxOpenConns:      stats.MaxOpenConnections,
		OpenConns:         stats.OpenConnections,
		InUse:             stats.InUse,
		Idle:              stats.Idle,
		WaitCount:         stats.WaitCount,
		WaitDuration:      stats.WaitDuration,
		MaxIdleClosed:     stats.MaxIdleClosed,
		MaxIdleTimeClosed: stats.MaxIdleTimeClosed,
		MaxLifetimeClosed: stats.MaxLifetimeClosed,
		CheckedOut:        p.checkedOut.Load(),
		Waiting:           p.waiting.Load(),
	}
}

// Conn is one checked-out connection, owned by a single goroutine until Release.
type Conn struct {
	pool *Pool
	conn bun.Conn

	once       sync.Once
	releaseErr error
}

// Release hands the connection back to the pool.
func (c *Conn) Release() error {
	c.once.Do(func() {
		c.releaseErr = c.conn.Close()
		c.pool.checkedOut.Add(-1)
		metrics.PoolConnections.WithLabelValues("in_use").Dec()
		c.pool.sem.Release(1)
	})
	return c.releaseErr
}

// Raw returns the driver connection.
func (c *Conn) Raw() *sql.Conn { return c.conn.Conn }

// Select runs a query on this connection and returns up to size rows, all
// rows when size <= 0.
func (c *Conn) Select(ctx context.Context, query string, args []interface{}, size int) ([]Row, error) {
	return c.pool.query(ctx, c.conn.Conn, query, args, size)
}

// Exec runs a statement on this connection outside any transaction and
// returns the affected row count.
func (c *Conn) Exec(ctx context.Context, query string, args []interface{}) (int64, error) {
	return c.pool.exec(ctx, c.conn.Conn, query, args)
}
