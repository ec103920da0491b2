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
	"time"

	"github.com/uptrace/bun/dialect"
	"gopkg.in/yaml.v3"
)

// Executor runs single parameterized statements written with portable `?`
// placeholders. *Pool implements it.
type Executor interface {
	Select(ctx context.Context, query string, args []interface{}, size int) ([]Row, error)
	Execute(ctx context.Context, query string, args []interface{}) (int64, error)
	ExecuteWith(ctx context.Context, query string, args []interface{}, autocommit bool) (int64, error)
	DialectName() dialect.Name
}

// AbstractDatabaseConfigProvider exposes configuration loading.
type AbstractDatabaseConfigProvider interface {
	ConfigLoader() *Config
}

// Row is one result row keyed by column name.
type Row map[string]interface{}

// HealthStatus holds the result of a health check against the database.
type HealthStatus struct {
	Healthy       bool          `json:"healthy"`
	Connected     bool          `json:"connected"`
	ResponseTime  time.Duration `json:"response_time"`
	ActiveConns   int           `json:"active_conns"`
	IdleConns     int           `json:"idle_conns"`
	MaxOpenConns  int           `json:"max_open_conns"`
	LastError     string        `json:"last_error,omitempty"`
	LastCheckTime time.Time     `json:"last_check_time"`
}

// DBStats mirrors database/sql stats plus the pool's own acquisition counters.
type DBStats struct {
	MaxOpenConns      int           `json:"max_open_conns"`
	OpenConns         int           `json:"open_conns"`
	InUse             int           `json:"in_use"`
	Idle              int           `json:"idle"`
	WaitCount         int64         `json:"wait_count"`
	WaitDuration      time.Duration `json:"wait_duration"`
	MaxIdleClosed     int64         `json:"max_idle_closed"`
	MaxIdleTimeClosed int64         `json:"max_idle_time_closed"`
	MaxLifetimeClosed int64         `json:"max_lifetime_closed"`
	CheckedOut        int64         `json:"checked_out"`
	Waiting           int64         `json:"waiting"`
}

// ConnectionConfig describes how to connect to a database and size the pool.
type ConnectionConfig struct {
	Type            string        `json:"type" yaml:"type"` // mysql、postgres、sqlite
	Host            string        `json:"host" yaml:"host"`
	Port            int           `json:"port" yaml:"port"`
	Username        string        `json:"username" yaml:"username"`
	Password        string        `json:"password" yaml:"password"`
	DBName          string        `json:"dbname" yaml:"dbname"`
	Charset         string        `json:"charset" yaml:"charset"`
	SSLMode         string        `json:"sslmode" yaml:"sslmode"`
	Autocommit      bool          `json:"autocommit" yaml:"autocommit"`
	MinSize         int           `json:"min_size" yaml:"min_size"`
	MaxSize         int           `json:"max_size" yaml:"max_size"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time" yaml:"conn_max_idle_time"`
	ConnectTimeout  time.Duration `json:"connect_timeout" yaml:"connect_timeout"`
	ReadTimeout     time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout" yaml:"write_timeout"`
	EnableQueryLog  bool          `json:"enable_query_log" yaml:"enable_query_log"`
	SlowQueryTime   time.Duration `json:"slow_query_time" yaml:"slow_query_time"`
}

// Config aggregates the settings consumed by InitDB.
type Config struct {
	ConnectionConfig ConnectionConfig `json:"connection_config" yaml:"connection_config"`
	Log              LogConfig        `json:"log" yaml:"log"`
}

// LogConfig sets up the console loggers. Empty fields leave the current
// settings (LOG_LEVEL, CONSOLE_LOG_FORMAT) in place.
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// DefaultConnectionConfig returns a MySQL configuration with the stock pool
// settings: localhost:3306, utf8, autocommit on, 1 to 10 connections.
func DefaultConnectionConfig() *ConnectionConfig {
	return &ConnectionConfig{
		Type:            "mysql",
		Host:            "localhost",
		Port:            3306,
		Charset:         "utf8",
		Autocommit:      true,
		MinSize:         1,
		MaxSize:         10,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: time.Minute * 30,
		ConnectTimeout:  time.Second * 10,
		ReadTimeout:     time.Second * 30,
		WriteTimeout:    time.Second * 30,
		EnableQueryLog:  false,
		SlowQueryTime:   time.Second * 2,
	}
}

// Validate checks the pool bounds and the database type.
func (c *ConnectionConfig) Validate() error {
	switch c.Type {
	case "mysql", "postgres", "postgresql", "sqlite", "sqlite3":
	default:
		return InvalidArgument("unsupported database type: %q, supported types: %v", c.Type, supportedTypes)
	}
	if c.MinSize < 0 {
		return InvalidArgument("min_size must be >= 0, got %d", c.MinSize)
	}
	if c.MaxSize < 1 {
		return InvalidArgument("max_size must be >= 1, got %d", c.MaxSize)
	}
	if c.MinSize > c.MaxSize {
		return InvalidArgument("min_size %d exceeds max_size %d", c.MinSize, c.MaxSize)
	}
	return nil
}

var supportedTypes = []string{"mysql", "postgres", "sqlite"}

// LoadConfig reads a YAML configuration file. Keys missing from the file keep
// the values of DefaultConnectionConfig.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := &Config{ConnectionConfig: *DefaultConnectionConfig()}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// ExportConfig writes cfg as YAML to path.
func ExportConfig(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

var _ Executor = (*Pool)(nil)
