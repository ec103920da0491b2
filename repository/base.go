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

	"github.com/tomoncle/awesome/database"
	"github.com/tomoncle/awesome/metrics"
)

const numberColumn = "_n_"

type baseRepositoryImpl struct {
	info      *database.ModelInfo
	exec      database.Executor
	logger    database.Logger
	onWarning WarningHandler
}

// NewRepository returns a repository for info running its statements on exec,
// usually a *database.Pool.
func NewRepository(info *database.ModelInfo, exec database.Executor, opts ...Option) Repository {
	r := &baseRepositoryImpl{info: info, exec: exec, logger: database.GetLogger().With("model", info.Name())}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *baseRepositoryImpl) Model() *database.ModelInfo { return r.info }

func (r *baseRepositoryImpl) Executor() database.Executor { return r.exec }

func (r *baseRepositoryImpl) New(values map[string]interface{}) (*Entity, error) {
	return NewEntity(r.info, values)
}

func (r *baseRepositoryImpl) FindAll(ctx context.Context, opts ...FindOption) ([]*Entity, error) {
	o, err := buildFindOptions(opts)
	if err != nil {
		return nil, err
	}
	query, args := o.appendClauses(r.exec.DialectName(), r.info.SelectSQL())
	rows, err := r.exec.Select(ctx, query, args, 0)
	if err != nil {
		return nil, err
	}
	entities := make([]*Entity, 0, len(rows))
	for _, row := range rows {
		e, err := materialize(r.info, row)
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, nil
}

func (r *baseRepositoryImpl) FindNumber(ctx context.Context, selectExpr string, opts ...FindOption) (interface{}, bool, error) {
	o, err := buildFindOptions(opts)
	if err != nil {
		return nil, false, err
	}
	query := "select " + selectExpr + " as " + numberColumn + " from " + database.QuoteIdent(r.info.Table())
	where, args := o.where()
	if where != "" {
		query += " where " + where
	}
	rows, err := r.exec.Select(ctx, query, args, 1)
	if err != nil {
		return nil, false, err
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	return rows[0][numberColumn], true, nil
}

func (r *baseRepositoryImpl) Find(ctx context.Context, pk interface{}) (*Entity, error) {
	pkField := r.info.PrimaryKeyField()
	key, err := pkField.Coerce(pk)
	if err != nil {
		return nil, err
	}
	query := r.info.SelectSQL() + " where " + database.QuoteIdent(r.info.PrimaryKey()) + "=?"
	rows, err := r.exec.Select(ctx, query, []interface{}{key}, 1)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return materialize(r.info, rows[0])
}

func (r *baseRepositoryImpl) Save(ctx context.Context, entity *Entity) error {
	if err := r.checkModel(entity); err != nil {
		return err
	}
	args, err := entity.insertArgs()
	if err != nil {
		return err
	}
	n, err := r.exec.Execute(ctx, r.info.InsertSQL(), args)
	if err != nil {
		return err
	}
	r.checkAffected(ctx, "insert", entity, n)
	return nil
}

func (r *baseRepositoryImpl) Update(ctx context.Context, entity *Entity) error {
	if err := r.checkModel(entity); err != nil {
		return err
	}
	n, err := r.exec.Execute(ctx, r.info.UpdateSQL(), entity.updateArgs())
	if err != nil {
		return err
	}
	r.checkAffected(ctx, "update", entity, n)
	return nil
}

func (r *baseRepositoryImpl) Remove(ctx context.Context, entity *Entity) error {
	if err := r.checkModel(entity); err != nil {
		return err
	}
	n, err := r.exec.Execute(ctx, r.info.DeleteSQL(), []interface{}{entity.PrimaryKey()})
	if err != nil {
		return err
	}
	r.checkAffected(ctx, "remove", entity, n)
	return nil
}

func (r *baseRepositoryImpl) checkModel(entity *Entity) error {
	if entity == nil {
		return database.InvalidArgument("entity is nil")
	}
	if entity.info != r.info {
		return database.InvalidArgument("entity of model %s given to repository of %s", entity.info.Name(), r.info.Name())
	}
	return nil
}

func (r *baseRepositoryImpl) checkAffected(ctx context.Context, op string, entity *Entity, n int64) {
	if n == 1 {
		return
	}
	w := IntegrityWarning{
		Model:      r.info.Name(),
		Table:      r.info.Table(),
		Operation:  op,
		PrimaryKey: entity.PrimaryKey(),
		Affected:   n,
	}
	r.logger.Warn(w.String(), "operation", op, "affected", n)
	metrics.IntegrityWarningsTotal.WithLabelValues(w.Table, op).Inc()
	if r.onWarning != nil {
		r.onWarning(ctx, w)
	}
}
