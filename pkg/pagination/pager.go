package pagination

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Sternrassler/tap-woocommerce/pkg/logging"
	"github.com/Sternrassler/tap-woocommerce/pkg/record"
	"github.com/rs/zerolog"
)

// HeaderTotalPages carries the number of pages of a collection.
const HeaderTotalPages = "X-WP-TotalPages"

// Page is a single fetched response.
type Page struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Fetcher is the capability the WooCommerce client implements for single-page fetching.
type Fetcher interface {
	// FetchPage performs one GET request against path with the given query.
	// Transport failures and non-2xx responses are returned as errors.
	FetchPage(ctx context.Context, path string, params url.Values) (*Page, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, path string, params url.Values) (*Page, error)

// FetchPage calls f.
func (f FetcherFunc) FetchPage(ctx context.Context, path string, params url.Values) (*Page, error) {
	return f(ctx, path, params)
}

// NextPageFunc computes the page that follows current from a response's headers.
// ok is false when current was the last page.
type NextPageFunc func(header http.Header, current int) (next int, ok bool)

// HeaderNextPage advances while X-WP-TotalPages exceeds the current page.
// A missing or unparsable header means there is no further page.
func HeaderNextPage(header http.Header, current int) (int, bool) {
	raw := header.Get(HeaderTotalPages)
	if raw == "" {
		return 0, false
	}
	total, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	if total > current {
		return current + 1, true
	}
	return 0, false
}

// Status is the lifecycle state of one pager.
type Status string

const (
	StatusNotStarted Status = "NOT_STARTED"
	StatusFetching   Status = "FETCHING"
	StatusDone       Status = "DONE"
	StatusFailed     Status = "FAILED"
)

// Config holds pager configuration.
type Config struct {
	// Stream labels logs and metrics.
	Stream string
	// PerPage is the requested page size (default 100).
	PerPage int
	// RecordsPath is the JSONPath selecting records in a page body (default "$[*]").
	RecordsPath string
	// NextPage computes the following page token (default HeaderNextPage).
	NextPage NextPageFunc
}

// DefaultConfig returns the configuration used for every WooCommerce stream.
func DefaultConfig() Config {
	return Config{
		PerPage:     DefaultPerPage,
		RecordsPath: record.DefaultPath,
		NextPage:    HeaderNextPage,
	}
}

// Pager is a lazy, finite, non-restartable sequence of normalized records
// covering every page of one endpoint.
type Pager struct {
	fetcher Fetcher
	path    string
	cursor  *time.Time
	config  Config
	logger  zerolog.Logger

	status   Status
	current  int
	previous int
	more     bool
	pages    int

	buf []record.Record
	idx int
	rec record.Record

	pendingErr error
	err        error
}

// NewPager creates a pager for path. cursor is the lower bound sent to the
// server for incremental streams and nil for full-table streams.
func NewPager(fetcher Fetcher, path string, cursor *time.Time, config Config) *Pager {
	if config.PerPage <= 0 {
		config.PerPage = DefaultPerPage
	}
	if config.RecordsPath == "" {
		config.RecordsPath = record.DefaultPath
	}
	if config.NextPage == nil {
		config.NextPage = HeaderNextPage
	}

	logger := logging.NewLogger("pager").With().
		Str("stream", config.Stream).
		Str("path", path).
		Logger()

	return &Pager{
		fetcher: fetcher,
		path:    path,
		cursor:  cursor,
		config:  config,
		logger:  logger,
		status:  StatusNotStarted,
		current: 1,
		more:    true,
	}
}

// Next advances to the next record, fetching the following page when the
// current one is exhausted. It returns false at the end of the sequence or on
// error; Err distinguishes the two.
func (p *Pager) Next(ctx context.Context) bool {
	for {
		if p.idx < len(p.buf) {
			p.rec = p.buf[p.idx]
			p.buf[p.idx] = nil
			p.idx++
			return true
		}
		p.rec = nil

		if p.pendingErr != nil {
			p.fail(p.pendingErr)
			p.pendingErr = nil
			return false
		}
		if !p.more || p.status == StatusFailed {
			if p.status != StatusFailed && p.status != StatusDone {
				p.status = StatusDone
				p.logger.Debug().Int("pages", p.pages).Msg("Pagination complete")
			}
			return false
		}

		if err := p.fetch(ctx); err != nil {
			p.fail(err)
			return false
		}
	}
}

// fetch requests the current page and computes the next token.
func (p *Pager) fetch(ctx context.Context) error {
	p.status = StatusFetching

	params := Params(p.config.PerPage, p.current, p.cursor)
	p.logger.Debug().
		Int("page", p.current).
		Str("query", params.Encode()).
		Msg("Fetching page")

	page, err := p.fetcher.FetchPage(ctx, p.path, params)
	if err != nil {
		return fmt.Errorf("fetch %s page %d: %w", p.path, p.current, err)
	}

	records, err := record.Extract(page.Body, p.config.RecordsPath)
	if err != nil {
		return fmt.Errorf("extract records from %s page %d: %w", p.path, p.current, err)
	}
	for _, r := range records {
		record.Normalize(r)
	}
	p.buf, p.idx = records, 0
	p.pages++

	pagesFetchedTotal.WithLabelValues(p.config.Stream).Inc()
	recordsExtractedTotal.WithLabelValues(p.config.Stream).Add(float64(len(records)))

	next, ok := p.config.NextPage(page.Header, p.current)
	p.previous = p.current
	if !ok {
		p.more = false
		p.logger.Debug().
			Int("page", p.current).
			Int("records", len(records)).
			Str("total_pages", page.Header.Get(HeaderTotalPages)).
			Msg("Last page reached")
		return nil
	}

	if next <= p.current {
		// Drain this page first; the repeated page is never requested.
		paginationLoopsTotal.WithLabelValues(p.config.Stream).Inc()
		p.more = false
		p.pendingErr = &LoopError{Path: p.path, Previous: p.current, Next: next}
		return nil
	}

	p.logger.Debug().
		Int("page", p.current).
		Int("next_page", next).
		Int("records", len(records)).
		Str("total_pages", page.Header.Get(HeaderTotalPages)).
		Msg("Page fetched")
	p.current = next
	return nil
}

func (p *Pager) fail(err error) {
	p.status = StatusFailed
	p.err = err
	p.more = false
	p.buf, p.idx = nil, 0
	p.logger.Error().Err(err).Int("page", p.current).Msg("Pagination failed")
}

// Record returns the record produced by the last successful call to Next.
func (p *Pager) Record() record.Record {
	return p.rec
}

// Err returns the error that ended the sequence, or nil after a clean finish.
func (p *Pager) Err() error {
	return p.err
}

// Status returns the pager's lifecycle state.
func (p *Pager) Status() Status {
	return p.status
}

// CurrentPage returns the page the pager will request next, or last requested
// once the sequence has ended.
func (p *Pager) CurrentPage() int {
	return p.current
}

// PreviousPage returns the last page requested, or 0 before the first request.
func (p *Pager) PreviousPage() int {
	return p.previous
}

// PagesFetched returns the number of pages requested so far.
func (p *Pager) PagesFetched() int {
	return p.pages
}

// All returns the remaining records as an iterator. Iteration stops after the
// first error, which is yielded with a nil record.
func (p *Pager) All(ctx context.Context) iter.Seq2[record.Record, error] {
	return func(yield func(record.Record, error) bool) {
		for p.Next(ctx) {
			if !yield(p.Record(), nil) {
				return
			}
		}
		if err := p.Err(); err != nil {
			yield(nil, err)
		}
	}
}
