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
	"fmt"
	"sync"
)

type TxState int

const (
	TxIdle TxState = iota
	TxActive
	TxCommitted
	TxRolledBack
)

func (s TxState) String() string {
	switch s {
	case TxIdle:
		return "idle"
	case TxActive:
		return "active"
	case TxCommitted:
		return "committed"
	case TxRolledBack:
		return "rolled_back"
	default:
		return "unknown"
	}
}

// Transaction is a unit of work bound to one checked-out connection.
type Transaction struct {
	conn  *Conn
	tx    *sql.Tx
	mu    sync.Mutex
	state TxState
}

// Begin starts a transaction on the connection.
func (c *Conn) Begin(ctx context.Context, opts *sql.TxOptions) (*Transaction, error) {
	tx, err := c.conn.Conn.BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &Transaction{conn: c, tx: tx, state: TxActive}, nil
}

func (t *Transaction) State() TxState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Transaction) Exec(ctx context.Context, query string, args []interface{}) (int64, error) {
	if err := t.checkActive(); err != nil {
		return 0, err
	}
	return t.conn.pool.exec(ctx, t.tx, query, args)
}

func (t *Transaction) Select(ctx context.Context, query string, args []interface{}, size int) ([]Row, error) {
	if err := t.checkActive(); err != nil {
		return nil, err
	}
	return t.conn.pool.query(ctx, t.tx, query, args, size)
}

func (t *Transaction) Commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != TxActive {
		return fmt.Errorf("commit in state %s: %w", t.state, sql.ErrTxDone)
	}
	err := t.tx.Commit()
	if err != nil {
		// database/sql discards the transaction even when commit fails
		t.state = TxRolledBack
		return err
	}
	t.state = TxCommitted
	return nil
}

func (t *Transaction) Rollback() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != TxActive {
		return fmt.Errorf("rollback in state %s: %w", t.state, sql.ErrTxDone)
	}
	t.state = TxRolledBack
	return t.tx.Rollback()
}

func (t *Transaction) checkActive() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != TxActive {
		return fmt.Errorf("transaction is %s: %w", t.state, sql.ErrTxDone)
	}
	return nil
}

// RunInTransaction runs fn between begin and commit. If fn or the commit
// fails the transaction is rolled back and the original error is returned;
// a failing rollback is reported through *TransactionError, which still
// matches the original error with errors.Is.
func (c *Conn) RunInTransaction(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, tx *Transaction) error) error {
	tx, err := c.Begin(ctx, opts)
	if err != nil {
		return err
	}

	if err := fn(ctx, tx); err != nil {
		return c.rollback(tx, err)
	}
	if err := tx.Commit(); err != nil {
		return c.rollback(tx, err)
	}
	return nil
}

func (c *Conn) rollback(tx *Transaction, cause error) error {
	rbErr := tx.Rollback()
	if rbErr == nil || errors.Is(rbErr, sql.ErrTxDone) {
		c.pool.logger.Warn("Transaction rolled back", "error", cause)
		return cause
	}
	c.pool.logger.Error("Transaction rollback failed", "error", cause, "rollback_error", rbErr)
	return &TransactionError{Err: cause, RollbackErr: rbErr}
}

// RunInTransaction acquires a connection and runs fn inside a transaction on it.
func (p *Pool) RunInTransaction(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, tx *Transaction) error) error {
	return p.WithConn(ctx, func(c *Conn) error {
		return c.RunInTransaction(ctx, opts, fn)
	})
}
