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

package types

import "strings"

const (
	DefaultPage     = 1
	DefaultPageSize = 10
)

// QueryFilter is a where clause with `?` placeholders and its argument values.
type QueryFilter struct {
	Schema string
	Args   []interface{}
}

// NewQueryFilter creates a filter from a clause and its args.
func NewQueryFilter(schema string, args ...interface{}) *QueryFilter {
	return &QueryFilter{schema, args}
}

// IsEmpty reports whether the filter constrains nothing. A nil filter is empty.
func (f *QueryFilter) IsEmpty() bool {
	return f == nil || strings.TrimSpace(f.Schema) == ""
}

// And returns a filter matching both f and other. Empty sides are dropped;
// neither input is modified.
func (f *QueryFilter) And(other *QueryFilter) *QueryFilter {
	switch {
	case f.IsEmpty() && other.IsEmpty():
		return &QueryFilter{}
	case f.IsEmpty():
		return NewQueryFilter(other.Schema, other.Args...)
	case other.IsEmpty():
		return NewQueryFilter(f.Schema, f.Args...)
	}
	args := make([]interface{}, 0, len(f.Args)+len(other.Args))
	args = append(append(args, f.Args...), other.Args...)
	return &QueryFilter{Schema: "(" + f.Schema + ") and (" + other.Schema + ")", Args: args}
}

// PageRequest describes pagination, optional filter, and ordering.
type PageRequest struct {
	page     int
	pageSize int
	filter   *QueryFilter
	orders   []string // "`created_at` desc", "`name` asc"
}

func NewPageRequest(page int, pageSize int, filter *QueryFilter, orders []string) *PageRequest {
	return &PageRequest{page, pageSize, filter, orders}
}

func NewPageRequestWithFilter(page int, pageSize int, filter *QueryFilter) *PageRequest {
	return NewPageRequest(page, pageSize, filter, nil)
}

func NewPageRequestWithOrders(page int, pageSize int, orders []string) *PageRequest {
	return NewPageRequest(page, pageSize, nil, orders)
}

func NewDefaultPageRequest(page int, pageSize int) *PageRequest {
	return NewPageRequest(page, pageSize, nil, nil)
}

// GetPage is the 1-based page number; values below 1 read as DefaultPage.
func (p *PageRequest) GetPage() int {
	if p.page < 1 {
		return DefaultPage
	}
	return p.page
}

// GetPageSize reads values below 1 as DefaultPageSize.
func (p *PageRequest) GetPageSize() int {
	if p.pageSize < 1 {
		return DefaultPageSize
	}
	return p.pageSize
}

func (p *PageRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}

// Limit returns the (offset, count) pair of the page.
func (p *PageRequest) Limit() (offset, count int) {
	return p.GetOffset(), p.GetPageSize()
}

func (p *PageRequest) GetFilter() *QueryFilter {
	return p.filter
}

func (p *PageRequest) GetOrders() []string {
	return p.orders
}

// OrderBy joins the orders into one order by clause, empty when unordered.
func (p *PageRequest) OrderBy() string {
	return strings.Join(p.orders, ", ")
}

// Pagination holds one page of items along with the total row count.
type Pagination[T any] struct {
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	Total    int  `json:"total"`
	Items    []*T `json:"items"`
}

// NewPagination returns an empty page shaped after req.
func NewPagination[T any](req *PageRequest) *Pagination[T] {
	return &Pagination[T]{Page: req.GetPage(), PageSize: req.GetPageSize(), Items: make([]*T, 0)}
}

func (p *Pagination[T]) Pages() int {
	if p.PageSize < 1 || p.Total == 0 {
		return 0
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}

func (p *Pagination[T]) HasNext() bool { return p.Page < p.Pages() }

func (p *Pagination[T]) HasPrevious() bool { return p.Page > 1 }
