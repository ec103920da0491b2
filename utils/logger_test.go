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

package utils

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLogLevel(" DEBUG "))
	assert.Equal(t, logrus.WarnLevel, ParseLogLevel("warning"))
	assert.Equal(t, logrus.InfoLevel, ParseLogLevel(""))
	assert.Equal(t, logrus.InfoLevel, ParseLogLevel("loud"))
}

func TestNewLoggerIsRegistered(t *testing.T) {
	l := NewLogger("utils-test")
	assert.Same(t, l, NewLogger("utils-test"))

	assert.True(t, SetLoggerLevel("utils-test", "error"))
	assert.Equal(t, logrus.ErrorLevel, l.GetLevel())
	assert.False(t, SetLoggerLevel("utils-missing", "error"))
}

func TestJSONLogFormatter(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetFormatter(&JSONLogFormatter{LoggerName: "DATABASE"})
	l.WithField("table", "User").Info("table ready")

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "DATABASE", rec["model"])
	assert.Equal(t, "info", rec["level"])
	assert.Equal(t, "table ready", rec["message"])
	assert.Equal(t, map[string]interface{}{"table": "User"}, rec["fields"])
}

func TestLog4jColorFormatter(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetFormatter(&Log4jColorFormatter{LoggerName: "DATABASE", NameWidth: 10})
	l.WithField("b", 2).WithField("a", 1).Warn("slow query")

	out := buf.String()
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "DATABASE")
	assert.Contains(t, out, "slow query a=1 b=2")
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("UTILS_TEST_STR", "x")
	t.Setenv("UTILS_TEST_BOOL", "true")
	t.Setenv("UTILS_TEST_INT", "12")
	t.Setenv("UTILS_TEST_DUR", "1500ms")
	t.Setenv("UTILS_TEST_SECS", "3")
	t.Setenv("UTILS_TEST_BAD", "nope")

	assert.Equal(t, "x", EnvDefaultString("UTILS_TEST_STR", "y"))
	assert.Equal(t, "y", EnvDefaultString("UTILS_TEST_UNSET", "y"))
	assert.True(t, EnvDefaultBool("UTILS_TEST_BOOL", false))
	assert.True(t, EnvDefaultBool("UTILS_TEST_BAD", true))
	assert.Equal(t, 12, EnvDefaultInt("UTILS_TEST_INT", 1))
	assert.Equal(t, 1, EnvDefaultInt("UTILS_TEST_BAD", 1))
	assert.Equal(t, 1500*time.Millisecond, EnvDefaultDuration("UTILS_TEST_DUR", 0))
	assert.Equal(t, 3*time.Second, EnvDefaultDuration("UTILS_TEST_SECS", 0))
	assert.Equal(t, time.Second, EnvDefaultDuration("UTILS_TEST_BAD", time.Second))
}

func TestConfigureConsole(t *testing.T) {
	var buf bytes.Buffer
	ConfigureConsoleOutput(&buf)
	ConfigureConsoleLogFormat("JSON")
	t.Cleanup(func() {
		ConfigureConsoleOutput(nil)
		ConfigureConsoleLogFormat("text")
	})

	l := NewLogger("utils-console")
	l.Info("hello")
	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "utils-console", rec["model"])

	// registered loggers follow later redirects
	var other bytes.Buffer
	ConfigureConsoleOutput(&other)
	l.Info("moved")
	assert.Contains(t, other.String(), "moved")
	assert.NotContains(t, buf.String(), "moved")
}

func TestConfigureLogLevel(t *testing.T) {
	l := NewLogger("utils-level")
	ConfigureLogLevel("error")
	t.Cleanup(func() { ConfigureLogLevel("debug") })

	assert.Equal(t, logrus.ErrorLevel, l.GetLevel())
	assert.Equal(t, logrus.ErrorLevel, NewLogger("utils-level-late").GetLevel())
}
