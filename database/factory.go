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
	"os"
	"strconv"
	"time"

	"github.com/tomoncle/awesome/utils"
)

// BaseDatabaseFactory creates and manages a configured pool and provides
// helpers for initialization, health checks and statistics.
type BaseDatabaseFactory struct {
	pool   *Pool
	logger Logger
}

// NewDatabaseFactory returns a new database factory using the global logger.
func NewDatabaseFactory() *BaseDatabaseFactory {
	return &BaseDatabaseFactory{
		logger: GetLogger(),
	}
}

// CreateFromConfig applies environment overrides to cfg and builds a pool
// from it.
func (f *BaseDatabaseFactory) CreateFromConfig(cfg *ConnectionConfig) (*Pool, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}

	// Override sensitive config from environment variables
	f.overrideFromEnv(cfg)
	if lvl, ok := ParseLogLevel(os.Getenv("DB_LOG_LEVEL")); ok {
		f.logger.SetLevel(lvl)
	}

	pool, err := NewPool(cfg)
	if err != nil {
		return nil, err
	}
	pool.SetLogger(f.logger.With("db_type", cfg.Type))

	f.pool = pool
	return pool, nil
}

// overrideFromEnv overrides configuration values from environment variables.
func (f *BaseDatabaseFactory) overrideFromEnv(cfg *ConnectionConfig) {
	// Database connection info
	cfg.Type = utils.EnvDefaultString("DB_TYPE", cfg.Type)
	cfg.Host = utils.EnvDefaultString("DB_HOST", cfg.Host)
	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Port = p
		}
	}
	cfg.Username = utils.EnvDefaultString("DB_USERNAME", cfg.Username)
	cfg.Password = utils.EnvDefaultString("DB_PASSWORD", cfg.Password)
	cfg.DBName = utils.EnvDefaultString("DB_NAME", cfg.DBName)
	cfg.Charset = utils.EnvDefaultString("DB_CHARSET", cfg.Charset)
	cfg.SSLMode = utils.EnvDefaultString("DB_SSLMODE", cfg.SSLMode)

	// Connection pool config
	cfg.Autocommit = utils.EnvDefaultBool("DB_AUTOCOMMIT", cfg.Autocommit)
	cfg.MinSize = utils.EnvDefaultInt("DB_MIN_SIZE", cfg.MinSize)
	cfg.MaxSize = utils.EnvDefaultInt("DB_MAX_SIZE", cfg.MaxSize)
	if maxLifetime := os.Getenv("DB_CONN_MAX_LIFETIME"); maxLifetime != "" {
		if val, err := strconv.Atoi(maxLifetime); err == nil {
			cfg.ConnMaxLifetime = time.Duration(val) * time.Second
		}
	}

	// Logging config
	if enableQueryLog := os.Getenv("DB_ENABLE_QUERY_LOG"); enableQueryLog != "" {
		cfg.EnableQueryLog = enableQueryLog == "true"
	}
	cfg.SlowQueryTime = utils.EnvDefaultDuration("DB_SLOW_QUERY_TIME", cfg.SlowQueryTime)
}

// InitializeDatabase connects the pool.
func (f *BaseDatabaseFactory) InitializeDatabase(ctx context.Context) error {
	if f.pool == nil {
		return fmt.Errorf("connection pool not created")
	}
	if err := f.pool.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	f.logger.Info("Database initialization completed!")
	return nil
}

// GetPool returns the pool built by CreateFromConfig.
func (f *BaseDatabaseFactory) GetPool() *Pool {
	return f.pool
}

// SetLogger sets the logger on the factory and the pool.
func (f *BaseDatabaseFactory) SetLogger(logger Logger) {
	f.logger = logger
	if f.pool != nil {
		f.pool.SetLogger(logger)
	}
}

// Close closes the pool managed by the factory.
func (f *BaseDatabaseFactory) Close() error {
	if f.pool == nil {
		return nil
	}
	return f.pool.Close()
}

// GetHealthStatus returns the current database health status from the pool.
func (f *BaseDatabaseFactory) GetHealthStatus(ctx context.Context) *HealthStatus {
	if f.pool == nil {
		return &HealthStatus{
			Healthy:       false,
			Connected:     false,
			LastError:     "Connection pool not initialized",
			LastCheckTime: time.Now(),
		}
	}
	return f.pool.HealthCheck(ctx)
}

// GetStats returns connection statistics from the pool.
func (f *BaseDatabaseFactory) GetStats() *DBStats {
	if f.pool == nil {
		return &DBStats{}
	}
	return f.pool.Stats()
}
