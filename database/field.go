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
	"math"
	"strconv"
	"strings"

	"github.com/tomoncle/awesome/types"
)

// StorageType is the storage class of a mapped attribute.
type StorageType int

const (
	StorageString StorageType = iota
	StorageBoolean
	StorageInteger
	StorageFloat
	StorageText
)

var storageTypeNames = [...]string{"string", "boolean", "integer", "float", "text"}

var storageTypeDDL = [...]string{"varchar(100)", "boolean", "bigint", "real", "text"}

var _ types.BaseEnum = StorageString

func (t StorageType) IsValid() bool { return t >= StorageString && t <= StorageText }

func (t StorageType) Number() int {
	if !t.IsValid() {
		return types.IllegalValue
	}
	return int(t)
}

func (t StorageType) Name() string {
	if !t.IsValid() {
		return types.IllegalName
	}
	return storageTypeNames[t]
}

func (t StorageType) String() string { return t.Name() }

// ParseStorageType looks a storage type up by name ("string", "integer", ...).
func ParseStorageType(name string) (StorageType, bool) {
	return types.ParseEnum(strings.ToLower(strings.TrimSpace(name)),
		StorageString, StorageBoolean, StorageInteger, StorageFloat, StorageText)
}

// Desc returns the default column DDL of the storage type.
func (t StorageType) Desc() string {
	if !t.IsValid() {
		return types.IllegalDesc
	}
	return storageTypeDDL[t]
}

// Coerce converts v to the canonical Go type of the storage class: string,
// bool, int64 or float64. Driver values such as []byte are parsed. nil stays nil.
func (t StorageType) Coerce(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	switch t {
	case StorageString, StorageText:
		if s, ok := v.(string); ok {
			return s, nil
		}
		return fmt.Sprint(v), nil
	case StorageInteger:
		return coerceInt(v)
	case StorageFloat:
		return coerceFloat(v)
	case StorageBoolean:
		return coerceBool(v)
	}
	return nil, InvalidArgument("unknown storage type %d", int(t))
}

func coerceInt(v interface{}) (interface{}, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		return int64(n), nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return nil, InvalidArgument("integer %d overflows int64", n)
		}
		return int64(n), nil
	case float32:
		return floatToInt(float64(n))
	case float64:
		return floatToInt(n)
	case bool:
		if n {
			return int64(1), nil
		}
		return int64(0), nil
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return nil, InvalidArgument("cannot use %q as integer", n)
		}
		return i, nil
	}
	return nil, InvalidArgument("cannot use %T as integer", v)
}

func floatToInt(f float64) (interface{}, error) {
	if f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
		return nil, InvalidArgument("cannot use %v as integer", f)
	}
	return int64(f), nil
}

func coerceFloat(v interface{}) (interface{}, error) {
	switch n := v.(type) {
	case float32:
		return float64(n), nil
	case float64:
		return n, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return nil, InvalidArgument("cannot use %q as float", n)
		}
		return f, nil
	}
	i, err := coerceInt(v)
	if err != nil {
		return nil, InvalidArgument("cannot use %T as float", v)
	}
	return float64(i.(int64)), nil
}

func coerceBool(v interface{}) (interface{}, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		if err != nil {
			return nil, InvalidArgument("cannot use %q as boolean", b)
		}
		return parsed, nil
	}
	i, err := coerceInt(v)
	if err != nil {
		return nil, InvalidArgument("cannot use %T as boolean", v)
	}
	return i.(int64) != 0, nil
}

// Field describes one mapped attribute. Values are immutable once built; use
// the typed constructors (StringField, IntegerField, ...).
type Field struct {
	name        string
	storage     StorageType
	primaryKey  bool
	defaultVal  interface{}
	defaultFunc func() interface{}
	ddl         string
}

// FieldOption customizes a Field at construction.
type FieldOption func(*Field)

// PrimaryKey marks the field as the entity's primary key.
func PrimaryKey() FieldOption {
	return func(f *Field) { f.primaryKey = true }
}

// Default sets a literal default. A nil value clears the default.
func Default(v interface{}) FieldOption {
	return func(f *Field) {
		f.defaultVal = v
		f.defaultFunc = nil
	}
}

// DefaultFunc sets a zero-argument default factory, called when an entity
// first reads the unset attribute.
func DefaultFunc(fn func() interface{}) FieldOption {
	return func(f *Field) {
		f.defaultFunc = fn
		f.defaultVal = nil
	}
}

// DDL overrides the column definition used by CreateTableSQL.
func DDL(ddl string) FieldOption {
	return func(f *Field) { f.ddl = ddl }
}

func newField(name string, storage StorageType, def interface{}, opts []FieldOption) Field {
	f := Field{name: name, storage: storage, defaultVal: def, ddl: storage.Desc()}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

// StringField declares a varchar(100) attribute without a default.
func StringField(name string, opts ...FieldOption) Field {
	return newField(name, StorageString, nil, opts)
}

// BooleanField declares a boolean attribute defaulting to false.
func BooleanField(name string, opts ...FieldOption) Field {
	return newField(name, StorageBoolean, false, opts)
}

// IntegerField declares a bigint attribute defaulting to 0.
func IntegerField(name string, opts ...FieldOption) Field {
	return newField(name, StorageInteger, int64(0), opts)
}

// FloatField declares a real attribute defaulting to 0.0.
func FloatField(name string, opts ...FieldOption) Field {
	return newField(name, StorageFloat, float64(0), opts)
}

// TextField declares a text attribute without a default.
func TextField(name string, opts ...FieldOption) Field {
	return newField(name, StorageText, nil, opts)
}

func (f Field) Name() string             { return f.name }
func (f Field) StorageType() StorageType { return f.storage }
func (f Field) IsPrimaryKey() bool       { return f.primaryKey }
func (f Field) ColumnDDL() string        { return f.ddl }

// HasDefault reports whether the field carries a literal or factory default.
func (f Field) HasDefault() bool { return f.defaultFunc != nil || f.defaultVal != nil }

// DefaultValue evaluates the default. Factories run on every call; callers
// cache the result.
func (f Field) DefaultValue() (interface{}, bool) {
	if f.defaultFunc != nil {
		return f.defaultFunc(), true
	}
	if f.defaultVal != nil {
		return f.defaultVal, true
	}
	return nil, false
}

// Coerce converts v to the field's storage type.
func (f Field) Coerce(v interface{}) (interface{}, error) {
	out, err := f.storage.Coerce(v)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", f.name, err)
	}
	return out, nil
}

func (f Field) String() string {
	return fmt.Sprintf("<%sField, %s:%s>", strings.ToUpper(f.storage.Name()[:1])+f.storage.Name()[1:], f.ddl, f.name)
}
