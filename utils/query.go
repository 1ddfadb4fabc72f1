package utils

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ParsePagination reads skip/limit query params with sane bounds.
func ParsePagination(r *http.Request, defaultLimit, maxLimit int64) (skip, limit int64) {
	q := r.URL.Query()

	limit, _ = strconv.ParseInt(q.Get("limit"), 10, 64)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	skip, _ = strconv.ParseInt(q.Get("skip"), 10, 64)
	if skip < 0 {
		skip = 0
	}
	return skip, limit
}

// ParseSort turns "field" / "-field" into a bson sort document. Fields not in
// allowed fall back to def; a nil allowed map accepts any field.
func ParseSort(s string, def bson.D, allowed map[string]bool) bson.D {
	if s == "" {
		return def
	}
	dir := 1
	field := s
	if strings.HasPrefix(s, "-") {
		dir = -1
		field = s[1:]
	}
	if field == "" || (allowed != nil && !allowed[field]) {
		return def
	}
	return bson.D{{Key: field, Value: dir}}
}

// FindAndDecode runs a Find and decodes the full result set.
func FindAndDecode[T any](ctx context.Context, coll *mongo.Collection, filter interface{}, opts ...*options.FindOptions) ([]T, error) {
	cur, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []T
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// QueryFunc runs one logical query. When sorted is true the implementation
// applies sort, skip and limit server-side; when false it must omit all
// three and return the full result set, keeping filter and projection
// identical.
type QueryFunc[T any] func(ctx context.Context, sorted bool) ([]T, error)

// FindWithSortFallback runs the sorted query and, when the server rejects it
// because the supporting index is missing (or the unindexed sort blows the
// memory limit), reruns it unsorted and sorts in memory. The fallback keeps a
// feature alive instead of failing outright while an index is being
// provisioned. Pagination is applied here, after the in-memory sort, so the
// fallback page holds the same elements the server-sorted page would.
func FindWithSortFallback[T any](ctx context.Context, run QueryFunc[T], less func(a, b T) bool, skip, limit int64) ([]T, error) {
	out, err := run(ctx, true)
	if err == nil {
		return out, nil
	}
	if !IsMissingIndexError(err) {
		return nil, err
	}

	out, err = run(ctx, false)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return Paginate(out, skip, limit), nil
}

// Paginate slices the skip/limit window out of a full result set. A limit of
// zero or less means no limit.
func Paginate[T any](items []T, skip, limit int64) []T {
	if skip >= int64(len(items)) {
		return []T{}
	}
	if skip > 0 {
		items = items[skip:]
	}
	if limit > 0 && limit < int64(len(items)) {
		items = items[:limit]
	}
	return items
}

// IsMissingIndexError reports whether err is the server refusing a sort for
// lack of a usable index. Codes: 291 NoQueryExecutionPlans, 292
// QueryExceededMemoryLimit.
func IsMissingIndexError(err error) bool {
	if err == nil {
		return false
	}
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		if cmdErr.Code == 291 || cmdErr.Code == 292 {
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "no query solutions") || strings.Contains(msg, "add an index")
}
