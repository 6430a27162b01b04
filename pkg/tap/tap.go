// Package tap drives a sync: it walks the selected streams in catalog order,
// pages through each endpoint, emits Singer messages and advances bookmarks.
//
// Streams are isolated from each other. A stream whose pagination fails is
// marked FAILED, its bookmark stays where it was, and the sync moves on to
// the next stream; Sync returns every failure joined.
package tap

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/tap-woocommerce/pkg/logging"
	"github.com/Sternrassler/tap-woocommerce/pkg/pagination"
	"github.com/Sternrassler/tap-woocommerce/pkg/record"
	"github.com/Sternrassler/tap-woocommerce/pkg/singer"
	"github.com/Sternrassler/tap-woocommerce/pkg/state"
	"github.com/Sternrassler/tap-woocommerce/pkg/streams"
)

// Options configures a Tap.
type Options struct {
	// Fetcher performs page requests; usually a *client.Client.
	Fetcher pagination.Fetcher
	// Catalog declares the streams. Nil uses streams.Default().
	Catalog *streams.Catalog
	// Selection names the streams to sync. Nil selects every stream.
	Selection map[string]bool
	// Store loads and persists bookmarks. Nil keeps state in memory.
	Store state.Store
	// Writer receives Singer messages.
	Writer *singer.Writer
	// StartDate is the lower bound for incremental streams without a bookmark.
	StartDate time.Time
	// Now stamps time_extracted. Nil uses time.Now.
	Now func() time.Time
}

// Tap syncs a WooCommerce store.
type Tap struct {
	fetcher   pagination.Fetcher
	catalog   *streams.Catalog
	selection map[string]bool
	store     state.Store
	writer    *singer.Writer
	startDate time.Time
	now       func() time.Time
	logger    zerolog.Logger

	mu       sync.Mutex
	state    *state.State
	statuses map[string]pagination.Status
}

// New creates a Tap.
func New(opts Options) (*Tap, error) {
	if opts.Writer == nil {
		return nil, fmt.Errorf("writer is required")
	}
	if opts.Catalog == nil {
		opts.Catalog = streams.Default()
	}
	if opts.Store == nil {
		opts.Store = state.NewMemoryStore(nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	for name := range opts.Selection {
		if _, ok := opts.Catalog.Lookup(name); !ok {
			return nil, fmt.Errorf("selected stream %q is not in the catalog", name)
		}
	}

	statuses := make(map[string]pagination.Status)
	for _, d := range opts.Catalog.All() {
		statuses[d.Name] = pagination.StatusNotStarted
	}

	return &Tap{
		fetcher:   opts.Fetcher,
		catalog:   opts.Catalog,
		selection: opts.Selection,
		store:     opts.Store,
		writer:    opts.Writer,
		startDate: opts.StartDate,
		now:       opts.Now,
		logger:    logging.NewLogger("tap"),
		state:     state.New(),
		statuses:  statuses,
	}, nil
}

// SelectionFromCatalog returns the streams a catalog file selects.
func SelectionFromCatalog(c *singer.Catalog) map[string]bool {
	if c == nil {
		return nil
	}
	return c.SelectedStreams()
}

// Discover writes the catalog of every stream.
func (t *Tap) Discover() error {
	return t.writer.WriteCatalog(t.catalog.Discover())
}

func (t *Tap) selected(name string) bool {
	if t.selection == nil {
		return true
	}
	return t.selection[name]
}

// Status returns the sync status of stream.
func (t *Tap) Status(stream string) pagination.Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.statuses[stream]
}

func (t *Tap) setStatus(stream string, s pagination.Status) {
	t.mu.Lock()
	t.statuses[stream] = s
	t.mu.Unlock()
	if s == pagination.StatusDone || s == pagination.StatusFailed {
		streamSyncsTotal.WithLabelValues(stream, string(s)).Inc()
	}
}

// State returns a copy of the current replication state.
func (t *Tap) State() *state.State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Clone()
}

// Sync syncs every selected stream. Parents of selected child streams are
// walked even when not selected themselves; their records are not emitted.
func (t *Tap) Sync(ctx context.Context) error {
	if t.fetcher == nil {
		return fmt.Errorf("fetcher is required to sync")
	}

	loaded, err := t.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	t.mu.Lock()
	t.state = loaded
	t.mu.Unlock()

	var errs []error
	for _, parent := range t.catalog.TopLevel() {
		var children []streams.Definition
		for _, child := range t.catalog.Children(parent.Name) {
			if t.selected(child.Name) {
				children = append(children, child)
			}
		}
		if !t.selected(parent.Name) && len(children) == 0 {
			continue
		}

		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := t.syncStream(ctx, parent, children); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// childRun tracks one child stream across all parent records.
type childRun struct {
	def     streams.Definition
	records int
	err     error
}

// syncStream syncs parent and, per parent record, each of children.
func (t *Tap) syncStream(ctx context.Context, parent streams.Definition, children []streams.Definition) error {
	start := time.Now()
	defer func() {
		streamSyncDuration.WithLabelValues(parent.Name).Observe(time.Since(start).Seconds())
	}()

	emit := t.selected(parent.Name)
	logger := t.logger.With().Str("stream", parent.Name).Logger()

	if emit {
		if err := t.writeSchema(parent); err != nil {
			t.setStatus(parent.Name, pagination.StatusFailed)
			return err
		}
	}
	runs := make([]*childRun, 0, len(children))
	for _, child := range children {
		if err := t.writeSchema(child); err != nil {
			t.setStatus(child.Name, pagination.StatusFailed)
			return err
		}
		runs = append(runs, &childRun{def: child})
	}

	var cursor *time.Time
	if parent.Incremental() {
		t.mu.Lock()
		from, err := t.state.StartingTimestamp(parent.Name, t.startDate)
		t.mu.Unlock()
		if err != nil {
			t.setStatus(parent.Name, pagination.StatusFailed)
			return fmt.Errorf("stream %s: %w", parent.Name, err)
		}
		cursor = &from
	}

	t.setStatus(parent.Name, pagination.StatusFetching)
	for _, run := range runs {
		t.setStatus(run.def.Name, pagination.StatusFetching)
	}
	logger.Info().
		Bool("emit", emit).
		Int("children", len(runs)).
		Msg("Stream sync started")

	config := pagination.DefaultConfig()
	config.Stream = parent.Name
	pager := pagination.NewPager(t.fetcher, parent.Path, cursor, config)

	emitted := 0
	maxValue := ""
	for pager.Next(ctx) {
		rec := pager.Record()

		value, err := validate(parent, rec)
		if err != nil {
			t.flag(err)
		}

		if emit {
			if err := t.writeRecord(parent.Name, rec); err != nil {
				t.setStatus(parent.Name, pagination.StatusFailed)
				return err
			}
			emitted++
			if value != "" {
				later, err := state.Later(maxValue, value)
				if err != nil {
					logger.Warn().Err(err).Msg("Replication value not comparable")
				} else {
					maxValue = later
				}
			}
		}

		for _, run := range runs {
			if run.err != nil {
				continue
			}
			n, err := t.syncChild(ctx, parent, run.def, rec)
			run.records += n
			if err != nil {
				run.err = err
				t.setStatus(run.def.Name, pagination.StatusFailed)
				logger.Error().Err(err).Str("child", run.def.Name).Msg("Child stream failed")
			}
		}
	}

	var errs []error
	for _, run := range runs {
		if run.err != nil {
			errs = append(errs, run.err)
		}
	}

	if err := pager.Err(); err != nil {
		t.setStatus(parent.Name, pagination.StatusFailed)
		for _, run := range runs {
			if run.err == nil {
				// Only some parents were walked, so the child is incomplete.
				t.setStatus(run.def.Name, pagination.StatusFailed)
			}
		}
		logger.Error().
			Err(err).
			Int("records", emitted).
			Int("pages", pager.PagesFetched()).
			Msg("Stream sync failed")
		return errors.Join(append([]error{fmt.Errorf("stream %s: %w", parent.Name, err)}, errs...)...)
	}

	for _, run := range runs {
		if run.err == nil {
			t.setStatus(run.def.Name, pagination.StatusDone)
			logger.Info().Str("child", run.def.Name).Int("records", run.records).Msg("Child stream sync complete")
		}
	}
	t.setStatus(parent.Name, pagination.StatusDone)

	if emit {
		if err := t.commit(ctx, parent, maxValue); err != nil {
			return errors.Join(append([]error{err}, errs...)...)
		}
	}

	logger.Info().
		Int("records", emitted).
		Int("pages", pager.PagesFetched()).
		Str("bookmark", maxValue).
		Msg("Stream sync complete")

	return errors.Join(errs...)
}

// syncChild emits every record of child below one parent record.
func (t *Tap) syncChild(ctx context.Context, parent, child streams.Definition, parentRec record.Record) (int, error) {
	childCtx, err := parent.ChildContext(child, parentRec)
	if err != nil {
		// No id, nothing to resolve the child path with.
		t.logger.Warn().Err(err).Str("stream", child.Name).Msg("Skipping child sync for parent record")
		return 0, nil
	}
	path, err := child.ResolvePath(childCtx)
	if err != nil {
		return 0, err
	}

	config := pagination.DefaultConfig()
	config.Stream = child.Name
	pager := pagination.NewPager(t.fetcher, path, nil, config)

	n := 0
	for pager.Next(ctx) {
		rec := pager.Record()
		if _, ok := rec[child.ParentKey]; !ok {
			rec[child.ParentKey] = parentRec["id"]
		}
		if _, err := validate(child, rec); err != nil {
			t.flag(err)
		}
		if err := t.writeRecord(child.Name, rec); err != nil {
			return n, err
		}
		n++
	}
	if err := pager.Err(); err != nil {
		return n, fmt.Errorf("stream %s (%s=%s): %w", child.Name, child.ParentKey, childCtx[child.ParentKey], err)
	}
	return n, nil
}

// commit advances the bookmark of a completed stream, emits the state and
// persists it. WriteState flushes every buffered RECORD first, so the store
// only moves once the records have been written out.
func (t *Tap) commit(ctx context.Context, def streams.Definition, maxValue string) error {
	t.mu.Lock()
	snapshot := t.state.Clone()
	t.mu.Unlock()

	if def.Incremental() && maxValue != "" {
		current := ""
		if b, ok := snapshot.Bookmark(def.Name); ok {
			current = b.ReplicationKeyValue
		}
		next, err := state.Later(current, maxValue)
		if err != nil {
			next = maxValue
		}
		snapshot.SetBookmark(def.Name, def.ReplicationKey, next)
	}

	if err := t.writer.WriteState(singer.NewStateMessage(snapshot)); err != nil {
		return fmt.Errorf("stream %s: %w", def.Name, err)
	}

	t.mu.Lock()
	t.state = snapshot.Clone()
	t.mu.Unlock()

	if err := t.store.Save(ctx, snapshot); err != nil {
		return fmt.Errorf("stream %s: save state: %w", def.Name, err)
	}
	return nil
}

func (t *Tap) writeSchema(def streams.Definition) error {
	var bookmarks []string
	if def.Incremental() {
		bookmarks = []string{def.ReplicationKey}
	}
	msg := singer.NewSchemaMessage(def.Name, def.Schema, def.PrimaryKeys, bookmarks)
	if err := t.writer.WriteSchema(msg); err != nil {
		return fmt.Errorf("stream %s: %w", def.Name, err)
	}
	return nil
}

func (t *Tap) writeRecord(stream string, rec record.Record) error {
	if err := t.writer.WriteRecord(singer.NewRecordMessage(stream, rec, t.now())); err != nil {
		return fmt.Errorf("stream %s: %w", stream, err)
	}
	recordsEmittedTotal.WithLabelValues(stream).Inc()
	return nil
}

// flag counts validation problems of a record that is emitted anyway. A
// missing replication value is routine (customers often have none) and only
// logged at debug level.
func (t *Tap) flag(err error) {
	level := zerolog.DebugLevel
	for _, verr := range validationErrors(err) {
		recordsInvalidTotal.WithLabelValues(verr.Stream, verr.Reason).Inc()
		if verr.Reason == reasonMissingPrimaryKey {
			level = zerolog.WarnLevel
		}
	}
	t.logger.WithLevel(level).Err(err).Msg("Record emitted with validation problems")
}
