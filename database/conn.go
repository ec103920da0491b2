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
	"sync"
	"time"

	"github.com/tomoncle/awesome/utils"
)

var (
	globalMu      sync.RWMutex
	globalFactory *BaseDatabaseFactory
	globalConfig  *Config
)

// GetPool returns the process-wide pool, or nil before InitDB.
func GetPool() *Pool {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalFactory == nil {
		return nil
	}
	return globalFactory.GetPool()
}

// RequirePool returns the process-wide pool or ErrPoolNotInitialized.
func RequirePool() (*Pool, error) {
	if p := GetPool(); p != nil {
		return p, nil
	}
	return nil, ErrPoolNotInitialized
}

// GetDatabaseFactory returns the global database factory.
func GetDatabaseFactory() *BaseDatabaseFactory {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalFactory
}

// GetConfig returns the configuration passed to the last InitDB.
func GetConfig() *Config {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalConfig
}

// InitDB creates and connects the process-wide pool. Calling it again replaces
// the previous pool, which is closed.
func InitDB(cfg *Config) (*Pool, error) {
	return InitDBContext(context.Background(), cfg)
}

func InitDBContext(ctx context.Context, cfg *Config) (*Pool, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}
	applyLogConfig(cfg.Log)
	factory := NewDatabaseFactory()
	pool, err := factory.CreateFromConfig(&cfg.ConnectionConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := factory.InitializeDatabase(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	globalMu.Lock()
	previous := globalFactory
	globalFactory = factory
	globalConfig = cfg
	globalMu.Unlock()

	if previous != nil {
		if err := previous.Close(); err != nil {
			GetLogger().Warn("Failed to close previous connection pool", "error", err)
		}
	}
	return pool, nil
}

// CloseDB closes the process-wide pool.
func CloseDB() error {
	globalMu.Lock()
	factory := globalFactory
	globalFactory = nil
	globalMu.Unlock()
	if factory != nil {
		return factory.Close()
	}
	return nil
}

// GetHealthStatus returns the current database health status.
func GetHealthStatus(ctx context.Context) *HealthStatus {
	if factory := GetDatabaseFactory(); factory != nil {
		return factory.GetHealthStatus(ctx)
	}
	return &HealthStatus{
		Healthy:       false,
		Connected:     false,
		LastError:     "Database not initialized",
		LastCheckTime: time.Now(),
	}
}

// GetDatabaseStats returns global database statistics.
func GetDatabaseStats() *DBStats {
	if factory := GetDatabaseFactory(); factory != nil {
		return factory.GetStats()
	}
	return &DBStats{}
}

func applyLogConfig(lc LogConfig) {
	if lc.Format != "" {
		utils.ConfigureConsoleLogFormat(lc.Format)
	}
	if lc.Level != "" {
		utils.ConfigureLogLevel(lc.Level)
	}
}
