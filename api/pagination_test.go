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
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		query    string
		expected PaginationParams
	}{
		{
			query: "",
			expected: PaginationParams{
				Count: DefaultPaginationCount,
				Page:  DefaultPaginationPage,
				Order: DefaultPaginationOrderAsc,
			},
		},
		{
			query:    "?count=25&page=3&order=DESC",
			expected: PaginationParams{Count: 25, Page: 3, Order: "desc"},
		},
		{
			query:    "?count=999&page=0",
			expected: PaginationParams{Count: MaxPaginationCount, Page: 1, Order: "asc"},
		},
		{
			query:    "?count=-4&page=-2",
			expected: PaginationParams{Count: 1, Page: 1, Order: "asc"},
		},
	}
	for _, test := range tests {
		t.Run("query"+test.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v0/gauges"+test.query, nil)
			params, err := ParsePagination(req)
			require.NoError(t, err)
			assert.Equal(t, test.expected, params)
		})
	}
}

func TestParsePaginationRejectsMalformed(t *testing.T) {
	for _, query := range []string{"count=abc", "page=1.5", "order=sideways"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v0/gauges?"+query, nil)
		params, err := ParsePagination(req)
		assert.ErrorIs(t, err, ErrInvalidPaginationParameters, query)
		assert.Zero(t, params)
	}
}

func TestSetPaginationHeaders(t *testing.T) {
	tests := []struct {
		total, count       int
		wantItems, wantPgs string
	}{
		{total: 250, count: 100, wantItems: "250", wantPgs: "3"},
		{total: 200, count: 100, wantItems: "200", wantPgs: "2"},
		{total: -1, count: 0, wantItems: "0", wantPgs: "0"},
	}
	for _, test := range tests {
		recorder := httptest.NewRecorder()
		SetPaginationHeaders(
			recorder,
			test.total,
			PaginationParams{Count: test.count, Page: 1},
		)
		assert.Equal(t, test.wantItems, recorder.Header().Get("X-Pagination-Count-Total"))
		assert.Equal(t, test.wantPgs, recorder.Header().Get("X-Pagination-Page-Total"))
	}
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	page := func(count, page int, order string) []int {
		return Paginate(items, PaginationParams{Count: count, Page: page, Order: order})
	}
	assert.Equal(t, []int{1, 2}, page(2, 1, "asc"))
	assert.Equal(t, []int{5}, page(2, 3, "asc"))
	assert.Equal(t, []int{}, page(2, 4, "asc"))
	assert.Equal(t, []int{5, 4, 3}, page(3, 1, "desc"))
	assert.Equal(t, []int{1, 2, 3, 4, 5}, items)
}
