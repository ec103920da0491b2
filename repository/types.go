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
	"context"
	"fmt"

	"github.com/tomoncle/awesome/database"
)

// FinderRepository defines the read operations of a mapped type.
type FinderRepository interface {
	// FindAll returns the rows matching opts in database order.
	FindAll(ctx context.Context, opts ...FindOption) ([]*Entity, error)

	// FindNumber runs "select <selectExpr> as _n_" and reports false when no
	// row came back. Only the Where option applies.
	FindNumber(ctx context.Context, selectExpr string, opts ...FindOption) (interface{}, bool, error)

	// Find looks an entity up by primary key; a nil entity means not found.
	Find(ctx context.Context, pk interface{}) (*Entity, error)
}

// WriterRepository defines the write operations. An affected row count other
// than one is reported as an IntegrityWarning, not as an error.
type WriterRepository interface {
	Save(ctx context.Context, entity *Entity) error
	Update(ctx context.Context, entity *Entity) error
	Remove(ctx context.Context, entity *Entity) error
}

// Repository binds a ModelInfo to an executor.
type Repository interface {
	FinderRepository
	WriterRepository
	Model() *database.ModelInfo
	New(values map[string]interface{}) (*Entity, error)
	Executor() database.Executor
}

// IntegrityWarning describes a write whose affected row count was not one.
type IntegrityWarning struct {
	Model      string
	Table      string
	Operation  string
	PrimaryKey interface{}
	Affected   int64
}

func (w IntegrityWarning) String() string {
	return fmt.Sprintf("failed to %s record of %s (pk=%v): affected rows: %d", w.Operation, w.Model, w.PrimaryKey, w.Affected)
}

// WarningHandler receives integrity warnings.
type WarningHandler func(ctx context.Context, w IntegrityWarning)

// Option configures a repository.
type Option func(*baseRepositoryImpl)

func WithWarningHandler(h WarningHandler) Option {
	return func(r *baseRepositoryImpl) { r.onWarning = h }
}

func WithLogger(l database.Logger) Option {
	return func(r *baseRepositoryImpl) {
		if l != nil {
			r.logger = l
		}
	}
}
