package pagination

import (
	"errors"
	"net/http"
	"strconv"
)

// Limit bounds for cursor pages.
const (
	DefaultLimit = 50
	MinLimit     = 1
	MaxLimit     = 200
)

// ErrInvalidLimit is returned by FromRequest when the limit query parameter
// is present but not an integer.
var ErrInvalidLimit = errors.New("limit must be an integer")

// Params holds cursor pagination parameters extracted from query strings.
// Range checks on Limit are expressed as validator tags so the HTTP layer can
// report them alongside other field errors.
type Params struct {
	Cursor string `json:"cursor"`
	Limit  int    `json:"limit" validate:"gte=1,lte=200"`
}

// DefaultParams returns the parameters used for a first page request.
func DefaultParams() Params {
	return Params{
		Limit: DefaultLimit,
	}
}

// FromRequest extracts cursor and limit from an HTTP request. An empty
// cursor means "start from the beginning". Out-of-range limits are returned
// as-is for the caller to validate.
func FromRequest(r *http.Request) (Params, error) {
	p := DefaultParams()
	q := r.URL.Query()

	p.Cursor = q.Get("cursor")

	if limit := q.Get("limit"); limit != "" {
		v, err := strconv.Atoi(limit)
		if err != nil {
			return p, ErrInvalidLimit
		}
		p.Limit = v
	}

	return p, nil
}

// Page is one window of a cursor-paginated listing.
//
// HasMore is true exactly when NextCursor is set, and Items never holds more
// than the requested limit.
type Page[T any] struct {
	Items      []T     `json:"items"`
	NextCursor *string `json:"next_cursor"`
	HasMore    bool    `json:"has_more"`
}

// Assemble builds a Page from rows fetched with one look-ahead row, i.e. a
// query issued with LIMIT limit+1 in ascending key order. The look-ahead row
// only signals that another page exists and is never returned. The next
// cursor carries the key of the last returned row, because the fetcher
// resumes strictly after the cursor key.
func Assemble[T any](rows []T, limit int, key func(T) int64) Page[T] {
	if limit < 0 {
		limit = 0
	}

	if len(rows) > limit && limit > 0 {
		next := EncodeCursor(key(rows[limit-1]))
		return Page[T]{
			Items:      rows[:limit],
			NextCursor: &next,
			HasMore:    true,
		}
	}

	if len(rows) > limit {
		rows = rows[:limit]
	}
	if rows == nil {
		rows = []T{}
	}
	return Page[T]{
		Items:   rows,
		HasMore: false,
	}
}
