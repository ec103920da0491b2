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
	"io"
	"os"
	"reflect"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	"github.com/uptrace/bun"

	"github.com/tomoncle/awesome/metrics"
)

const (
	ansiReset     = "\x1b[0m"
	ansiRed       = "\x1b[31m"
	ansiYellow    = "\x1b[33m"
	ansiGreen     = "\x1b[32m"
	ansiBlue      = "\x1b[34m"
	ansiMagenta   = "\x1b[35m"
	ansiCyan      = "\x1b[36m"
	ansiBGGreen   = "\x1b[42;97m"
	ansiBGYellow  = "\x1b[43;97m"
	ansiBGBlue    = "\x1b[44;97m"
	ansiBGMagenta = "\x1b[45;97m"
	ansiBGRed     = "\x1b[41;97m"
)

var sqlSilentMode atomic.Bool

// EnableSqlSilent mutes the console query hooks process-wide.
func EnableSqlSilent(b bool) {
	sqlSilentMode.Store(b)
}

func colorWrap(s, code string) string { return fmt.Sprintf("%s%s%s", code, s, ansiReset) }

// QueryOperation returns the upper-cased leading keyword of the statement.
func QueryOperation(event *bun.QueryEvent) string {
	return strings.ToUpper(event.Operation())
}

// HookOption configures QueryHook and SlowQueryHook.
type HookOption func(*hookOptions)

type hookOptions struct {
	envName string
	enabled bool
	verbose bool
	writer  io.Writer
	logger  Logger
}

// FromEnv lets an environment variable override the hook: "0" or empty
// disables it, "1" enables it, "2" also logs successful statements.
func FromEnv(name string) HookOption {
	return func(o *hookOptions) { o.envName = name }
}

func WithEnabled(on bool) HookOption {
	return func(o *hookOptions) { o.enabled = on }
}

func WithVerbose(on bool) HookOption {
	return func(o *hookOptions) { o.verbose = on }
}

func WithWriter(w io.Writer) HookOption {
	return func(o *hookOptions) { o.writer = w }
}

// WithSlowQueryLogger sends slow query reports to a Logger instead of a writer.
func WithSlowQueryLogger(l Logger) HookOption {
	return func(o *hookOptions) { o.logger = l }
}

func buildHookOptions(opts []HookOption) hookOptions {
	o := hookOptions{enabled: true, writer: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// QueryHook prints failed statements, or every statement in verbose mode,
// colored by operation.
type QueryHook struct {
	envName string
	enabled bool
	verbose bool
	writer  io.Writer
}

var _ bun.QueryHook = (*QueryHook)(nil)

func NewQueryHook(opts ...HookOption) *QueryHook {
	o := buildHookOptions(opts)
	return &QueryHook{envName: o.envName, enabled: o.enabled, verbose: o.verbose, writer: o.writer}
}

func (h *QueryHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *QueryHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	if sqlSilentMode.Load() {
		return
	}
	enabled := h.enabled
	verbose := h.verbose
	if h.envName != "" {
		if env, ok := os.LookupEnv(h.envName); ok {
			enabled = env != "" && env != "0"
			verbose = env == "2"
		}
	}

	if !enabled {
		return
	}

	if !verbose {
		switch {
		case event.Err == nil, errors.Is(event.Err, sql.ErrNoRows), errors.Is(event.Err, sql.ErrTxDone):
			return
		}
	}

	now := time.Now()
	dur := now.Sub(event.StartTime)

	args := []interface{}{
		now.Format("2006-01-02 15:04:05.000"),
		colorWrap(fmt.Sprintf("%15s", "[SQL]"), ansiCyan),
		fmt.Sprintf("%17s", dur.Round(time.Microsecond)),
		"  ", formatOperationColor(event),
	}
	if len(event.QueryArgs) > 0 {
		args = append(args, fmt.Sprintf("%v", event.QueryArgs))
	}

	if event.Err != nil {
		typ := reflect.TypeOf(event.Err).String()
		args = append(args,
			"\t",
			color.New(color.BgRed).Sprintf(" %s ", typ+": "+event.Err.Error()),
		)
	}
	_, _ = fmt.Fprintln(h.writer, args...)
}

func formatOperationColor(event *bun.QueryEvent) string {
	switch QueryOperation(event) {
	case "SELECT":
		return colorWrap(event.Query, ansiGreen)
	case "INSERT":
		return colorWrap(event.Query, ansiBlue)
	case "UPDATE":
		return colorWrap(event.Query, ansiYellow)
	case "DELETE":
		return colorWrap(event.Query, ansiMagenta)
	default:
		return colorWrap(event.Query, ansiRed)
	}
}

func formatOperationBackgroundColor(event *bun.QueryEvent) string {
	switch QueryOperation(event) {
	case "SELECT":
		return colorWrap(event.Query, ansiBGGreen)
	case "INSERT":
		return colorWrap(event.Query, ansiBGBlue)
	case "UPDATE":
		return colorWrap(event.Query, ansiBGYellow)
	case "DELETE":
		return colorWrap(event.Query, ansiBGMagenta)
	default:
		return colorWrap(event.Query, ansiBGRed)
	}
}

// SlowQueryHook reports successful statements slower than its threshold.
type SlowQueryHook struct {
	fromEnv  string
	enabled  bool
	slowTime time.Duration
	writer   io.Writer
	logger   Logger
}

var _ bun.QueryHook = (*SlowQueryHook)(nil)

func NewSlowQueryHook(slowTime time.Duration, opts ...HookOption) *SlowQueryHook {
	o := buildHookOptions(opts)
	return &SlowQueryHook{fromEnv: o.envName, enabled: o.enabled, slowTime: slowTime, writer: o.writer, logger: o.logger}
}

func (h *SlowQueryHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *SlowQueryHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	if sqlSilentMode.Load() {
		return
	}
	if event.Err != nil {
		return
	}
	enabled := h.enabled

	if h.fromEnv != "" {
		if env, ok := os.LookupEnv(h.fromEnv); ok {
			enabled = strings.TrimSpace(env) == "1"
		}
	}

	if !enabled {
		return
	}

	duration := time.Since(event.StartTime)
	if duration <= h.slowTime {
		return
	}
	if h.logger != nil {
		h.logger.Warn("Database slow query detected",
			"duration", duration,
			"slow_threshold", h.slowTime,
			"query", event.Query,
		)
		return
	}
	args := []interface{}{
		time.Now().Format("2006-01-02 15:04:05.000"),
		colorWrap(fmt.Sprintf("%15s", "[SQL_SLOW]"), ansiYellow),
		fmt.Sprintf("%17s", duration.Round(time.Microsecond)),
		"  ", formatOperationBackgroundColor(event),
	}
	_, _ = fmt.Fprintln(h.writer, args...)
}

// MetricsHook records statement latency, failures and affected rows.
type MetricsHook struct{}

var _ bun.QueryHook = (*MetricsHook)(nil)

func NewMetricsHook() *MetricsHook { return &MetricsHook{} }

func (h *MetricsHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *MetricsHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	op := QueryOperation(event)
	metrics.QueryDuration.WithLabelValues(op).Observe(time.Since(event.StartTime).Seconds())
	if event.Err != nil {
		metrics.QueryErrorsTotal.WithLabelValues(op, ErrorKind(event.Err)).Inc()
		return
	}
	if op == "SELECT" || event.Result == nil {
		return
	}
	if n, err := event.Result.RowsAffected(); err == nil && n > 0 {
		metrics.RowsAffectedTotal.WithLabelValues(op).Add(float64(n))
	}
}
