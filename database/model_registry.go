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
	"strings"
	"sync"
)

var defaultRegistry = NewModelRegistry()

// ModelInfo is the frozen metadata of one mapped entity type. It is built once
// at registration and is safe to share between goroutines.
type ModelInfo struct {
	name       string
	table      string
	primaryKey string
	fields     []string
	mappings   map[string]Field

	selectSQL string
	insertSQL string
	updateSQL string
	deleteSQL string
}

func (m *ModelInfo) Name() string       { return m.name }
func (m *ModelInfo) Table() string      { return m.table }
func (m *ModelInfo) PrimaryKey() string { return m.primaryKey }
func (m *ModelInfo) SelectSQL() string  { return m.selectSQL }
func (m *ModelInfo) InsertSQL() string  { return m.insertSQL }
func (m *ModelInfo) UpdateSQL() string  { return m.updateSQL }
func (m *ModelInfo) DeleteSQL() string  { return m.deleteSQL }

// Fields returns the ordinary (non primary key) attributes in declaration order.
func (m *ModelInfo) Fields() []string {
	out := make([]string, len(m.fields))
	copy(out, m.fields)
	return out
}

// Attributes returns the primary key followed by the ordinary attributes,
// the column order of SelectSQL.
func (m *ModelInfo) Attributes() []string {
	out := make([]string, 0, len(m.fields)+1)
	out = append(out, m.primaryKey)
	return append(out, m.fields...)
}

func (m *ModelInfo) Field(attr string) (Field, bool) {
	f, ok := m.mappings[attr]
	return f, ok
}

func (m *ModelInfo) PrimaryKeyField() Field { return m.mappings[m.primaryKey] }

// CreateTableSQL renders a "create table if not exists" statement from the
// field DDLs. It is meant for bootstrapping and tests.
func (m *ModelInfo) CreateTableSQL() string {
	cols := make([]string, 0, len(m.fields)+2)
	pk := m.mappings[m.primaryKey]
	cols = append(cols, QuoteIdent(m.primaryKey)+" "+pk.ColumnDDL()+" not null")
	for _, attr := range m.fields {
		cols = append(cols, QuoteIdent(attr)+" "+m.mappings[attr].ColumnDDL())
	}
	cols = append(cols, "primary key ("+QuoteIdent(m.primaryKey)+")")
	return "create table if not exists " + QuoteIdent(m.table) + " (" + strings.Join(cols, ", ") + ")"
}

func (m *ModelInfo) String() string {
	return "<ModelInfo " + m.name + " table=" + m.table + " pk=" + m.primaryKey + ">"
}

// ModelOption customizes a registration.
type ModelOption func(*modelOptions)

type modelOptions struct {
	table string
}

// WithTable overrides the table name, which defaults to the model name.
func WithTable(table string) ModelOption {
	return func(o *modelOptions) { o.table = table }
}

// QuoteIdent backtick-quotes a table or column name.
func QuoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// BuildModelInfo partitions fields into primary key and ordinary attributes and
// generates the four statement templates. It does not register anything.
func BuildModelInfo(name string, fields []Field, opts ...ModelOption) (*ModelInfo, error) {
	o := modelOptions{table: name}
	for _, opt := range opts {
		opt(&o)
	}
	if name == "" {
		return nil, &SchemaError{Model: name, Reason: "model name is empty"}
	}
	if o.table == "" {
		return nil, &SchemaError{Model: name, Reason: "table name is empty"}
	}

	info := &ModelInfo{name: name, table: o.table, mappings: make(map[string]Field, len(fields))}
	for _, f := range fields {
		if f.Name() == "" {
			return nil, &SchemaError{Model: name, Reason: "field without a name"}
		}
		if !f.StorageType().IsValid() {
			return nil, &SchemaError{Model: name, Reason: "field " + f.Name() + " has an invalid storage type"}
		}
		if _, dup := info.mappings[f.Name()]; dup {
			return nil, &SchemaError{Model: name, Reason: "duplicate field " + f.Name()}
		}
		info.mappings[f.Name()] = f
		if !f.IsPrimaryKey() {
			info.fields = append(info.fields, f.Name())
			continue
		}
		if info.primaryKey != "" {
			return nil, &SchemaError{Model: name, Reason: "duplicate primary key " + f.Name()}
		}
		switch f.StorageType() {
		case StorageBoolean, StorageText:
			return nil, &SchemaError{Model: name, Reason: f.StorageType().Name() + " field " + f.Name() + " cannot be a primary key"}
		}
		info.primaryKey = f.Name()
	}
	if info.primaryKey == "" {
		return nil, &SchemaError{Model: name, Reason: "primary key not found"}
	}
	info.generateSQL()
	return info, nil
}

func (m *ModelInfo) generateSQL() {
	table := QuoteIdent(m.table)
	pk := QuoteIdent(m.primaryKey)
	quoted := make([]string, len(m.fields))
	assigns := make([]string, len(m.fields))
	for i, attr := range m.fields {
		quoted[i] = QuoteIdent(attr)
		assigns[i] = quoted[i] + "=?"
	}

	m.selectSQL = "select " + strings.Join(append([]string{pk}, quoted...), ", ") + " from " + table
	m.insertSQL = "insert into " + table +
		" (" + strings.Join(append(quoted, pk), ", ") + ") values (" + Placeholders(len(m.fields)+1) + ")"
	if len(assigns) > 0 {
		m.updateSQL = "update " + table + " set " + strings.Join(assigns, ", ") + " where " + pk + "=?"
	} else {
		// nothing but the key to set
		m.updateSQL = "update " + table + " set " + pk + "=? where " + pk + "=?"
	}
	m.deleteSQL = "delete from " + table + " where " + pk + "=?"
}

// Placeholders returns n comma separated `?` markers.
func Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// ModelRegistry stores entity metadata in registration order.
type ModelRegistry interface {
	Register(name string, fields []Field, opts ...ModelOption) (*ModelInfo, error)
	Lookup(name string) (*ModelInfo, bool)
	Models() []*ModelInfo
}

type modelRegistry struct {
	models []*ModelInfo
	byName map[string]*ModelInfo
	mutex  sync.RWMutex
}

func NewModelRegistry() ModelRegistry {
	return &modelRegistry{
		models: make([]*ModelInfo, 0),
		byName: make(map[string]*ModelInfo),
	}
}

func (r *modelRegistry) Register(name string, fields []Field, opts ...ModelOption) (*ModelInfo, error) {
	info, err := BuildModelInfo(name, fields, opts...)
	if err != nil {
		return nil, err
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if _, ok := r.byName[name]; ok {
		return nil, &SchemaError{Model: name, Reason: "model already registered"}
	}
	r.byName[name] = info
	r.models = append(r.models, info)
	GetLogger().Debug("model registered", "model", name, "table", info.table, "primary_key", info.primaryKey)
	return info, nil
}

func (r *modelRegistry) Lookup(name string) (*ModelInfo, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	info, ok := r.byName[name]
	return info, ok
}

func (r *modelRegistry) Models() []*ModelInfo {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	result := make([]*ModelInfo, len(r.models))
	copy(result, r.models)
	return result
}

// RegisterModel adds a model to the default registry.
func RegisterModel(name string, fields []Field, opts ...ModelOption) (*ModelInfo, error) {
	return defaultRegistry.Register(name, fields, opts...)
}

// MustRegisterModel is RegisterModel for package-level declarations; it panics
// on a SchemaError.
func MustRegisterModel(name string, fields []Field, opts ...ModelOption) *ModelInfo {
	info, err := RegisterModel(name, fields, opts...)
	if err != nil {
		panic(err)
	}
	return info
}

// LookupModel finds a model in the default registry.
func LookupModel(name string) (*ModelInfo, bool) {
	return defaultRegistry.Lookup(name)
}

// GetRegisteredModels returns the default registry's models in registration order.
func GetRegisteredModels() []*ModelInfo {
	return defaultRegistry.Models()
}
