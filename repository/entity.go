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

package repository

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/tomoncle/awesome/database"
)

// Entity is one row of a mapped type: a map of attribute values restricted to
// the model's declared fields. Unset attributes resolve to the field default
// on first read and the resolved value is kept. An Entity is not safe for
// concurrent use.
type Entity struct {
	info   *database.ModelInfo
	values map[string]interface{}
}

// NewEntity builds an entity from values, coercing each to its field's
// storage type. Undeclared attributes are rejected.
func NewEntity(info *database.ModelInfo, values map[string]interface{}) (*Entity, error) {
	e := &Entity{info: info, values: make(map[string]interface{}, len(values))}
	for attr, v := range values {
		if err := e.Set(attr, v); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (e *Entity) Model() *database.ModelInfo { return e.info }

func (e *Entity) field(attr string) (database.Field, error) {
	f, ok := e.info.Field(attr)
	if !ok {
		return f, database.InvalidArgument("model %s has no attribute %q", e.info.Name(), attr)
	}
	return f, nil
}

// Set assigns attr after coercing v to the field's storage type.
func (e *Entity) Set(attr string, v interface{}) error {
	f, err := e.field(attr)
	if err != nil {
		return err
	}
	cv, err := f.Coerce(v)
	if err != nil {
		return err
	}
	e.values[attr] = cv
	return nil
}

// Value returns the current value of attr without default resolution.
func (e *Entity) Value(attr string) (interface{}, bool) {
	v, ok := e.values[attr]
	return v, ok
}

// ValueOrDefault returns attr, resolving and storing the field default when
// the attribute is unset or nil. Fields without a default yield nil.
func (e *Entity) ValueOrDefault(attr string) (interface{}, error) {
	if v, ok := e.values[attr]; ok && v != nil {
		return v, nil
	}
	f, err := e.field(attr)
	if err != nil {
		return nil, err
	}
	def, ok := f.DefaultValue()
	if !ok {
		return nil, nil
	}
	cv, err := f.Coerce(def)
	if err != nil {
		return nil, err
	}
	database.GetLogger().Debug("using default value", "model", e.info.Name(), "attr", attr, "value", cv)
	e.values[attr] = cv
	return cv, nil
}

// Get is ValueOrDefault for callers that already know attr is declared. It
// returns nil for an undeclared attr or a default that does not coerce; use
// ValueOrDefault to see the error.
func (e *Entity) Get(attr string) interface{} {
	v, err := e.ValueOrDefault(attr)
	if err != nil {
		return nil
	}
	return v
}

func (e *Entity) PrimaryKey() interface{} {
	v, _ := e.Value(e.info.PrimaryKey())
	return v
}

// Values returns a copy of the attributes set so far.
func (e *Entity) Values() map[string]interface{} {
	out := make(map[string]interface{}, len(e.values))
	for k, v := range e.values {
		out[k] = v
	}
	return out
}

func (e *Entity) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.values)
}

func (e *Entity) String() string {
	attrs := make([]string, 0, len(e.values))
	for k := range e.values {
		attrs = append(attrs, k)
	}
	sort.Strings(attrs)
	parts := make([]string, len(attrs))
	for i, k := range attrs {
		parts[i] = fmt.Sprintf("%s=%v", k, e.values[k])
	}
	return e.info.Name() + "(" + strings.Join(parts, ", ") + ")"
}

// insertArgs follows InsertSQL: ordinary fields in declaration order with
// defaults resolved, then the primary key.
func (e *Entity) insertArgs() ([]interface{}, error) {
	fields := e.info.Fields()
	args := make([]interface{}, 0, len(fields)+1)
	for _, attr := range fields {
		v, err := e.ValueOrDefault(attr)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	pk, err := e.ValueOrDefault(e.info.PrimaryKey())
	if err != nil {
		return nil, err
	}
	return append(args, pk), nil
}

// updateArgs follows UpdateSQL using current values only.
func (e *Entity) updateArgs() []interface{} {
	fields := e.info.Fields()
	args := make([]interface{}, 0, len(fields)+1)
	for _, attr := range fields {
		v, _ := e.Value(attr)
		args = append(args, v)
	}
	if len(fields) == 0 {
		args = append(args, e.PrimaryKey())
	}
	return append(args, e.PrimaryKey())
}

func materialize(info *database.ModelInfo, row database.Row) (*Entity, error) {
	e := &Entity{info: info, values: make(map[string]interface{}, len(row))}
	for _, attr := range info.Attributes() {
		v, ok := row[attr]
		if !ok {
			continue
		}
		if err := e.Set(attr, v); err != nil {
			return nil, err
		}
	}
	return e, nil
}
