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

package awesome

import (
	"context"
	"sync"

	"github.com/tomoncle/awesome/database"
	"github.com/tomoncle/awesome/repository"
	"github.com/tomoncle/awesome/types"
)

type Entity = repository.Entity

// Service is the query surface handed to request handlers. Every method is
// built on the repository finders and writers of one model.
type Service interface {
	// Get returns a single entity by its primary key, nil when absent.
	Get(ctx context.Context, id any) (*Entity, error)

	// All returns all entities.
	All(ctx context.Context) ([]*Entity, error)

	// List returns entities that match the provided filter.
	List(ctx context.Context, filter *types.QueryFilter) ([]*Entity, error)

	// Query returns entities matching a raw where clause.
	Query(ctx context.Context, where string, args ...interface{}) ([]*Entity, error)

	// Count returns the number of rows matching filter; nil counts all rows.
	Count(ctx context.Context, filter *types.QueryFilter) (int, error)

	// Page returns a paginated list of entities; a nil page reads as the
	// first page of DefaultPageSize entities.
	Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[Entity], error)

	// Save inserts one or more new entities.
	Save(ctx context.Context, entity ...*Entity) error

	// Update writes the current values of an existing entity.
	Update(ctx context.Context, entity *Entity) error

	// Delete removes an entity by its primary key.
	Delete(ctx context.Context, id any) error

	// New builds an unsaved entity of the service's model.
	New(values map[string]interface{}) (*Entity, error)

	Repository() (repository.Repository, error)
}

type baseServiceImpl struct {
	info *database.ModelInfo
	opts []repository.Option

	mu   sync.Mutex
	repo repository.Repository
}

// NewService returns a Service for info backed by the process-wide pool. The
// pool is looked up on first use, so the service may be built before InitDB.
func NewService(info *database.ModelInfo, opts ...repository.Option) Service {
	return &baseServiceImpl{info: info, opts: opts}
}

// NewServiceWithPool returns a Service bound to an explicit executor.
func NewServiceWithPool(info *database.ModelInfo, exec database.Executor, opts ...repository.Option) Service {
	return &baseServiceImpl{info: info, opts: opts, repo: repository.NewRepository(info, exec, opts...)}
}

func (s *baseServiceImpl) Repository() (repository.Repository, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.repo != nil {
		return s.repo, nil
	}
	pool, err := database.RequirePool()
	if err != nil {
		return nil, err
	}
	s.repo = repository.NewRepository(s.info, pool, s.opts...)
	return s.repo, nil
}

func (s *baseServiceImpl) New(values map[string]interface{}) (*Entity, error) {
	return repository.NewEntity(s.info, values)
}

func (s *baseServiceImpl) Get(ctx context.Context, id any) (*Entity, error) {
	repo, err := s.Repository()
	if err != nil {
		return nil, err
	}
	return repo.Find(ctx, id)
}

func (s *baseServiceImpl) All(ctx context.Context) ([]*Entity, error) {
	repo, err := s.Repository()
	if err != nil {
		return nil, err
	}
	return repo.FindAll(ctx)
}

func (s *baseServiceImpl) List(ctx context.Context, filter *types.QueryFilter) ([]*Entity, error) {
	repo, err := s.Repository()
	if err != nil {
		return nil, err
	}
	return repo.FindAll(ctx, repository.Filter(filter))
}

func (s *baseServiceImpl) Query(ctx context.Context, where string, args ...interface{}) ([]*Entity, error) {
	repo, err := s.Repository()
	if err != nil {
		return nil, err
	}
	return repo.FindAll(ctx, repository.Where(where, args...))
}

func (s *baseServiceImpl) Count(ctx context.Context, filter *types.QueryFilter) (int, error) {
	repo, err := s.Repository()
	if err != nil {
		return 0, err
	}
	n, ok, err := repo.FindNumber(ctx, "count(*)", repository.Filter(filter))
	if err != nil || !ok {
		return 0, err
	}
	v, err := database.StorageInteger.Coerce(n)
	if err != nil {
		return 0, err
	}
	return int(v.(int64)), nil
}

func (s *baseServiceImpl) Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[Entity], error) {
	repo, err := s.Repository()
	if err != nil {
		return nil, err
	}
	if page == nil {
		page = types.NewDefaultPageRequest(types.DefaultPage, types.DefaultPageSize)
	}
	pagination := types.NewPagination[Entity](page)
	total, err := s.Count(ctx, page.GetFilter())
	if err != nil || total == 0 {
		return pagination, err
	}
	items, err := repo.FindAll(ctx,
		repository.Filter(page.GetFilter()),
		repository.OrderBy(page.OrderBy()),
		repository.Limit(page.Limit()),
	)
	if err != nil {
		return nil, err
	}
	pagination.Total = total
	pagination.Items = items
	return pagination, nil
}

func (s *baseServiceImpl) Save(ctx context.Context, entity ...*Entity) error {
	repo, err := s.Repository()
	if err != nil {
		return err
	}
	for _, e := range entity {
		if err := repo.Save(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (s *baseServiceImpl) Update(ctx context.Context, entity *Entity) error {
	repo, err := s.Repository()
	if err != nil {
		return err
	}
	return repo.Update(ctx, entity)
}

func (s *baseServiceImpl) Delete(ctx context.Context, id any) error {
	repo, err := s.Repository()
	if err != nil {
		return err
	}
	e, err := repo.New(map[string]interface{}{s.info.PrimaryKey(): id})
	if err != nil {
		return err
	}
	return repo.Remove(ctx, e)
}
