// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"errors"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

const (
	DefaultPaginationCount    = 50
	MaxPaginationCount        = 100
	DefaultPaginationPage     = 1
	DefaultPaginationOrderAsc = "asc"
	PaginationOrderDesc       = "desc"
)

var ErrInvalidPaginationParameters = errors.New(
	"invalid pagination parameters",
)

// PaginationParams selects one page of a list response
type PaginationParams struct {
	Order string
	Count int
	Page  int
}

// ParsePagination reads the count, page and order query parameters.
// Out of range numbers are clamped, malformed values are rejected
func ParsePagination(r *http.Request) (PaginationParams, error) {
	query := r.URL.Query()
	count, countErr := queryInt(query, "count", DefaultPaginationCount)
	page, pageErr := queryInt(query, "page", DefaultPaginationPage)
	order := strings.ToLower(query.Get("order"))
	if order == "" {
		order = DefaultPaginationOrderAsc
	}
	if countErr != nil || pageErr != nil ||
		(order != DefaultPaginationOrderAsc && order != PaginationOrderDesc) {
		return PaginationParams{}, ErrInvalidPaginationParameters
	}
	return PaginationParams{
		Count: min(max(count, 1), MaxPaginationCount),
		Page:  max(page, 1),
		Order: order,
	}, nil
}

func queryInt(query url.Values, key string, def int) (int, error) {
	raw := query.Get(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

// SetPaginationHeaders reports the total item and page counts of a list
func SetPaginationHeaders(
	w http.ResponseWriter,
	totalItems int,
	params PaginationParams,
) {
	totalItems = max(totalItems, 0)
	count := params.Count
	if count < 1 {
		count = DefaultPaginationCount
	}
	totalPages := (totalItems + count - 1) / count
	w.Header().Set("X-Pagination-Count-Total", strconv.Itoa(totalItems))
	w.Header().Set("X-Pagination-Page-Total", strconv.Itoa(totalPages))
}

// Paginate returns the page of items selected by params. Items are expected
// in ascending order and are never reordered in place
func Paginate[T any](items []T, params PaginationParams) []T {
	if params.Order == PaginationOrderDesc {
		items = slices.Clone(items)
		slices.Reverse(items)
	}
	start := (params.Page - 1) * params.Count
	if start < 0 || start >= len(items) {
		return []T{}
	}
	return items[start:min(start+params.Count, len(items))]
}
