// Package streams declares the WooCommerce resources the tap can sync.
//
// Each resource is a Definition in a fixed table: endpoint path, primary
// keys, optional replication key and optional parent. Child streams
// (variations, order notes, refunds) have a path parameterized by the parent
// record's id and are synced once per parent record.
package streams

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Sternrassler/tap-woocommerce/pkg/record"
	"github.com/Sternrassler/tap-woocommerce/pkg/singer"
)

// ReplicationKeyModified is the replication key of every incremental stream.
const ReplicationKeyModified = "date_modified"

// ErrMissingParentKey is returned when a child path cannot be resolved.
var ErrMissingParentKey = errors.New("missing parent key")

// Definition is the immutable declaration of one stream. Treat values
// returned by a Catalog as read-only.
type Definition struct {
	// Name is the stream name (tap_stream_id).
	Name string
	// Path is the endpoint below /wp-json/wc/v3, with {placeholders} for child streams.
	Path string
	// PrimaryKeys is the ordered set of fields identifying a record.
	PrimaryKeys []string
	// ReplicationKey is the field used for incremental sync; empty for full table.
	ReplicationKey string
	// Parent names the parent stream of a child stream.
	Parent string
	// ParentKey is the context key (and path placeholder) carrying the parent id.
	ParentKey string
	// Schema declares the expected fields.
	Schema *Schema
}

// Incremental reports whether the stream filters by replication key.
func (d Definition) Incremental() bool {
	return d.ReplicationKey != ""
}

// IsChild reports whether the stream depends on a parent stream.
func (d Definition) IsChild() bool {
	return d.Parent != ""
}

// ReplicationMethod returns the Singer replication method.
func (d Definition) ReplicationMethod() string {
	if d.Incremental() {
		return singer.ReplicationIncremental
	}
	return singer.ReplicationFullTable
}

// ResolvePath substitutes {key} placeholders in Path from context.
func (d Definition) ResolvePath(context map[string]string) (string, error) {
	path := d.Path
	for {
		start := strings.IndexByte(path, '{')
		if start < 0 {
			return path, nil
		}
		end := strings.IndexByte(path[start:], '}')
		if end < 0 {
			return "", fmt.Errorf("stream %s: unterminated placeholder in %q", d.Name, d.Path)
		}
		key := path[start+1 : start+end]
		value, ok := context[key]
		if !ok || value == "" {
			return "", fmt.Errorf("stream %s: %w %q", d.Name, ErrMissingParentKey, key)
		}
		path = path[:start] + value + path[start+end+1:]
	}
}

// ChildContext builds the context a child of this stream needs from one of
// this stream's records.
func (d Definition) ChildContext(child Definition, parent record.Record) (map[string]string, error) {
	id, ok := parent.ID()
	if !ok {
		return nil, fmt.Errorf("stream %s: parent %s record has no id: %w", child.Name, d.Name, ErrMissingParentKey)
	}
	return map[string]string{child.ParentKey: id}, nil
}

// CatalogEntry renders the definition as a Singer catalog entry, selected by default.
func (d Definition) CatalogEntry() singer.CatalogEntry {
	md := map[string]any{
		"inclusion":                 "available",
		"selected-by-default":       true,
		"table-key-properties":      d.PrimaryKeys,
		"forced-replication-method": d.ReplicationMethod(),
	}
	if d.Incremental() {
		md["valid-replication-keys"] = []string{d.ReplicationKey}
	}
	if d.IsChild() {
		md["parent-tap-stream-id"] = d.Parent
	}

	metadata := []singer.MetadataEntry{{Breadcrumb: []string{}, Metadata: md}}
	for _, key := range d.PrimaryKeys {
		metadata = append(metadata, singer.MetadataEntry{
			Breadcrumb: []string{"properties", key},
			Metadata:   map[string]any{"inclusion": "automatic"},
		})
	}
	if d.Incremental() {
		metadata = append(metadata, singer.MetadataEntry{
			Breadcrumb: []string{"properties", d.ReplicationKey},
			Metadata:   map[string]any{"inclusion": "automatic"},
		})
	}

	return singer.CatalogEntry{
		TapStreamID:       d.Name,
		Stream:            d.Name,
		Schema:            d.Schema,
		KeyProperties:     d.PrimaryKeys,
		ReplicationKey:    d.ReplicationKey,
		ReplicationMethod: d.ReplicationMethod(),
		Metadata:          metadata,
	}
}
