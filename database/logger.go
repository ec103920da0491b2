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
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/tomoncle/awesome/types"
	"github.com/tomoncle/awesome/utils"
)

var (
	globalLogger   Logger
	globalLoggerMu sync.RWMutex
)

type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

var _ types.BaseEnum = LogLevel(0)

var logLevelNames = map[LogLevel]string{
	LogLevelDebug: "debug",
	LogLevelInfo:  "info",
	LogLevelWarn:  "warn",
	LogLevelError: "error",
}

func (l LogLevel) IsValid() bool { return l >= LogLevelDebug && l <= LogLevelError }

func (l LogLevel) Number() int {
	if !l.IsValid() {
		return types.IllegalValue
	}
	return int(l)
}

func (l LogLevel) Name() string {
	if !l.IsValid() {
		return types.IllegalName
	}
	return logLevelNames[l]
}

func (l LogLevel) String() string { return strings.ToUpper(l.Name()) }

func (l LogLevel) Desc() string {
	if !l.IsValid() {
		return types.IllegalDesc
	}
	return "log " + l.Name() + " and above"
}

// ParseLogLevel maps "debug", "info", "warn" and "error" to a LogLevel.
func ParseLogLevel(s string) (LogLevel, bool) {
	return types.ParseEnum(strings.TrimSpace(s), LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError)
}

// Logger is the logging contract of the pool, the executor and the
// repositories. Fields are alternating key/value pairs.
type Logger interface {
	SetLevel(LogLevel)
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
	// With returns a logger that adds fields to every entry.
	With(fields ...interface{}) Logger
}

// InitLogger installs the process-wide logger unless one is already set.
func InitLogger(log Logger) {
	if log == nil {
		return
	}
	globalLoggerMu.Lock()
	defer globalLoggerMu.Unlock()
	if globalLogger == nil {
		globalLogger = log
	}
}

// GetLogger returns the process-wide logger, a DefaultLogger on the "DATABASE"
// logrus logger unless InitLogger ran first.
func GetLogger() Logger {
	globalLoggerMu.RLock()
	l := globalLogger
	globalLoggerMu.RUnlock()
	if l != nil {
		return l
	}

	dl := NewDefaultLogger("DATABASE")
	globalLoggerMu.Lock()
	if globalLogger == nil {
		globalLogger = dl
	}
	l = globalLogger
	globalLoggerMu.Unlock()
	return l
}

type DefaultLogger struct {
	logger *utils.Logger
	fields logrus.Fields
}

// NewDefaultLogger wraps the named logrus logger.
func NewDefaultLogger(name string) *DefaultLogger {
	return &DefaultLogger{logger: utils.NewLogger(name)}
}

func (l *DefaultLogger) Debug(msg string, fields ...interface{}) { l.entry(fields).Debug(msg) }
func (l *DefaultLogger) Info(msg string, fields ...interface{})  { l.entry(fields).Info(msg) }
func (l *DefaultLogger) Warn(msg string, fields ...interface{})  { l.entry(fields).Warn(msg) }
func (l *DefaultLogger) Error(msg string, fields ...interface{}) { l.entry(fields).Error(msg) }

// SetLevel changes the level of the underlying named logger, and so of every
// logger derived from it with With.
func (l *DefaultLogger) SetLevel(level LogLevel) {
	l.logger.SetLevel(utils.ParseLogLevel(level.Name()))
}

func (l *DefaultLogger) With(fields ...interface{}) Logger {
	merged := make(logrus.Fields, len(l.fields)+len(fields)/2)
	for k, v := range l.fields {
		merged[k] = v
	}
	addFields(merged, fields)
	return &DefaultLogger{logger: l.logger, fields: merged}
}

func (l *DefaultLogger) entry(fields []interface{}) *logrus.Entry {
	data := make(logrus.Fields, len(l.fields)+len(fields)/2)
	for k, v := range l.fields {
		data[k] = v
	}
	addFields(data, fields)
	return l.logger.WithFields(data)
}

// addFields copies key/value pairs into data; an odd trailing key is dropped.
func addFields(data logrus.Fields, fields []interface{}) {
	for i := 0; i+1 < len(fields); i += 2 {
		data[fmt.Sprint(fields[i])] = fields[i+1]
	}
}
