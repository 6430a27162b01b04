package pagination

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Query parameter names understood by the WooCommerce REST API.
const (
	ParamPerPage         = "per_page"
	ParamOrder           = "order"
	ParamPage            = "page"
	ParamModifiedAfter   = "modified_after"
	ParamAfter           = "after"
	ParamDateQueryColumn = "date_query_column"
)

const (
	// DefaultPerPage is the page size requested from the API (its maximum).
	DefaultPerPage = 100

	// OrderAscending is the only sort direction the pager requests.
	OrderAscending = "asc"

	// DateColumnModified is the post column filtered by modified_after/after.
	DateColumnModified = "post_modified"
)

// cursorLayout is ISO-8601 without a zone offset.
const cursorLayout = "2006-01-02T15:04:05"

// FormatCursor renders t as a naive ISO-8601 timestamp. The wall clock of t
// is kept as-is; the zone is dropped, not converted. Fractional seconds are
// written with microsecond precision only when non-zero.
func FormatCursor(t time.Time) string {
	s := t.Format(cursorLayout)
	if us := t.Nanosecond() / 1000; us != 0 {
		s += fmt.Sprintf(".%06d", us)
	}
	return s
}

// Params builds the query for one page request. page values below 2 are
// omitted so the server falls back to its default first page. When cursor is
// non-nil both date filters are sent together with the column they apply to;
// older and newer API versions each honour a different one.
func Params(perPage int, page int, cursor *time.Time) url.Values {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}

	params := url.Values{}
	params.Set(ParamPerPage, strconv.Itoa(perPage))
	params.Set(ParamOrder, OrderAscending)
	if page >= 2 {
		params.Set(ParamPage, strconv.Itoa(page))
	}
	if cursor != nil {
		value := FormatCursor(*cursor)
		params.Set(ParamModifiedAfter, value)
		params.Set(ParamAfter, value)
		params.Set(ParamDateQueryColumn, DateColumnModified)
	}
	return params
}
