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

// Package metrics declares the Prometheus collectors exported by the ORM layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Query metrics
var (
	// QueryDuration tracks statement latency in seconds by operation (SELECT, INSERT, ...).
	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orm_query_duration_seconds",
			Help:    "SQL statement duration in seconds by operation",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"operation"},
	)

	// QueryErrorsTotal counts failed statements by operation and error kind.
	QueryErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orm_query_errors_total",
			Help: "Total failed SQL statements by operation and error kind",
		},
		[]string{"operation", "kind"},
	)

	// RowsAffectedTotal counts rows changed by write statements.
	RowsAffectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orm_rows_affected_total",
			Help: "Total rows affected by write statements by operation",
		},
		[]string{"operation"},
	)
)

// Pool metrics
var (
	// PoolConnections tracks checked-out and waiting acquisitions (state=in_use|waiting).
	PoolConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "orm_pool_connections_current",
			Help: "Current pool connections by state (in_use/waiting)",
		},
		[]string{"state"},
	)

	// PoolAcquireDuration tracks how long callers wait for a connection.
	PoolAcquireDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "orm_pool_acquire_duration_seconds",
			Help:    "Time spent waiting for a pooled connection in seconds",
			Buckets: []float64{.0001, .001, .01, .05, .1, .5, 1, 5},
		},
	)
)

// Entity metrics
var (
	// IntegrityWarningsTotal counts save/update/remove calls whose affected row count was not 1.
	IntegrityWarningsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orm_integrity_warnings_total",
			Help: "Total entity writes that affected a row count other than one",
		},
		[]string{"table", "operation"},
	)
)
