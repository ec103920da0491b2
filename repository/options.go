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
	"github.com/uptrace/bun/dialect"

	"github.com/tomoncle/awesome/database"
	"github.com/tomoncle/awesome/types"
)

// FindOption narrows FindAll and FindNumber.
type FindOption func(*findOptions)

type findOptions struct {
	filter  *types.QueryFilter
	orderBy string
	limit   []int
	err     error
}

// Where adds a raw where clause with `?` placeholders. Several Where and
// Filter options are joined with "and".
func Where(clause string, args ...interface{}) FindOption {
	return Filter(types.NewQueryFilter(clause, args...))
}

// Filter adds a QueryFilter to the where clause. An empty filter is a no-op.
func Filter(filter *types.QueryFilter) FindOption {
	return func(o *findOptions) {
		o.filter = o.filter.And(filter)
	}
}

// where returns the combined where clause and its args.
func (o findOptions) where() (string, []interface{}) {
	if o.filter.IsEmpty() {
		return "", nil
	}
	return o.filter.Schema, o.filter.Args
}

// OrderBy sets the raw order by clause, e.g. "`age` desc".
func OrderBy(clause string) FindOption {
	return func(o *findOptions) { o.orderBy = clause }
}

// Limit takes either a row count or an (offset, count) pair.
func Limit(n ...int) FindOption {
	return func(o *findOptions) {
		if len(n) != 1 && len(n) != 2 {
			o.err = database.InvalidArgument("limit takes 1 or 2 values, got %d", len(n))
			return
		}
		for _, v := range n {
			if v < 0 {
				o.err = database.InvalidArgument("limit values must not be negative: %v", n)
				return
			}
		}
		o.limit = n
	}
}

func buildFindOptions(opts []FindOption) (findOptions, error) {
	var o findOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o, o.err
}

// appendClauses renders where, order by and limit onto query and returns the
// extended argument list.
func (o findOptions) appendClauses(name dialect.Name, query string) (string, []interface{}) {
	where, whereArgs := o.where()
	args := append([]interface{}{}, whereArgs...)
	if where != "" {
		query += " where " + where
	}
	if o.orderBy != "" {
		query += " order by " + o.orderBy
	}
	switch len(o.limit) {
	case 1:
		query += " limit ?"
		args = append(args, o.limit[0])
	case 2:
		if name == dialect.PG {
			query += " limit ? offset ?"
			args = append(args, o.limit[1], o.limit[0])
		} else {
			query += " limit ?, ?"
			args = append(args, o.limit[0], o.limit[1])
		}
	}
	return query, args
}
