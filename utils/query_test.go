package utils

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type row struct {
	ID        string
	CreatedAt int64
}

func byCreatedAtDesc(a, b row) bool { return a.CreatedAt > b.CreatedAt }

func TestFindWithSortFallbackUsesSortedResult(t *testing.T) {
	sorted := []row{{"c", 3}, {"b", 2}, {"a", 1}}
	run := func(_ context.Context, wantSorted bool) ([]row, error) {
		require.True(t, wantSorted)
		return sorted, nil
	}

	out, err := FindWithSortFallback(context.Background(), run, byCreatedAtDesc, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, sorted, out)
}

func TestFindWithSortFallbackSortsInMemory(t *testing.T) {
	unsorted := []row{{"a", 1}, {"c", 3}, {"b", 2}}
	calls := 0
	run := func(_ context.Context, wantSorted bool) ([]row, error) {
		calls++
		if wantSorted {
			return nil, mongo.CommandError{Code: 291, Message: "error processing query: no query solutions"}
		}
		return unsorted, nil
	}

	out, err := FindWithSortFallback(context.Background(), run, byCreatedAtDesc, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []row{{"c", 3}, {"b", 2}, {"a", 1}}, out)
}

func TestFindWithSortFallbackMemoryLimit(t *testing.T) {
	run := func(_ context.Context, wantSorted bool) ([]row, error) {
		if wantSorted {
			return nil, mongo.CommandError{Code: 292, Message: "Sort exceeded memory limit"}
		}
		return []row{{"b", 2}, {"a", 1}}, nil
	}

	out, err := FindWithSortFallback(context.Background(), run, byCreatedAtDesc, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []row{{"b", 2}, {"a", 1}}, out)
}

// The fallback page must hold the same elements the server-sorted page would:
// the unsorted run returns the full set; skip/limit apply after the sort.
func TestFindWithSortFallbackPaginatedEquivalence(t *testing.T) {
	all := []row{{"b", 2}, {"e", 5}, {"a", 1}, {"d", 4}, {"c", 3}}
	run := func(_ context.Context, wantSorted bool) ([]row, error) {
		if wantSorted {
			return nil, mongo.CommandError{Code: 291, Message: "error processing query: no query solutions"}
		}
		return all, nil
	}

	// first page, newest first
	out, err := FindWithSortFallback(context.Background(), run, byCreatedAtDesc, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, []row{{"e", 5}, {"d", 4}}, out)

	// middle page
	out, err = FindWithSortFallback(context.Background(), run, byCreatedAtDesc, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, []row{{"c", 3}, {"b", 2}}, out)

	// skip past the end
	out, err = FindWithSortFallback(context.Background(), run, byCreatedAtDesc, 10, 2)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestFindWithSortFallbackPropagatesOtherErrors(t *testing.T) {
	boom := errors.New("network error")
	run := func(_ context.Context, wantSorted bool) ([]row, error) {
		require.True(t, wantSorted, "must not retry on unrelated errors")
		return nil, boom
	}

	_, err := FindWithSortFallback(context.Background(), run, byCreatedAtDesc, 0, 10)
	assert.ErrorIs(t, err, boom)
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{1, 2}, Paginate(items, 0, 2))
	assert.Equal(t, []int{3, 4}, Paginate(items, 2, 2))
	assert.Equal(t, []int{5}, Paginate(items, 4, 2))
	assert.Empty(t, Paginate(items, 5, 2))
	assert.Equal(t, items, Paginate(items, 0, 0))
	assert.Equal(t, items, Paginate(items, 0, 100))
}

func TestIsMissingIndexError(t *testing.T) {
	assert.False(t, IsMissingIndexError(nil))
	assert.False(t, IsMissingIndexError(errors.New("connection refused")))
	assert.True(t, IsMissingIndexError(mongo.CommandError{Code: 291}))
	assert.True(t, IsMissingIndexError(mongo.CommandError{Code: 292}))
	assert.True(t, IsMissingIndexError(errors.New("planner returned error: no query solutions")))
	assert.True(t, IsMissingIndexError(errors.New("please add an index that supports this operation")))
}

func TestParsePagination(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/orders?skip=40&limit=25", nil)
	skip, limit := ParsePagination(r, 20, 100)
	assert.Equal(t, int64(40), skip)
	assert.Equal(t, int64(25), limit)

	r = httptest.NewRequest("GET", "/api/orders", nil)
	skip, limit = ParsePagination(r, 20, 100)
	assert.Equal(t, int64(0), skip)
	assert.Equal(t, int64(20), limit)

	r = httptest.NewRequest("GET", "/api/orders?skip=-5&limit=5000", nil)
	skip, limit = ParsePagination(r, 20, 100)
	assert.Equal(t, int64(0), skip)
	assert.Equal(t, int64(100), limit)
}

func TestParseSort(t *testing.T) {
	def := bson.D{{Key: "createdAt", Value: -1}}
	allowed := map[string]bool{"createdAt": true, "totalAmount": true}

	assert.Equal(t, def, ParseSort("", def, allowed))
	assert.Equal(t, bson.D{{Key: "totalAmount", Value: 1}}, ParseSort("totalAmount", def, allowed))
	assert.Equal(t, bson.D{{Key: "totalAmount", Value: -1}}, ParseSort("-totalAmount", def, allowed))
	assert.Equal(t, def, ParseSort("password", def, allowed))
	assert.Equal(t, def, ParseSort("-", def, allowed))
}
