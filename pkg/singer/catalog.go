package singer

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
)

// Replication methods advertised in catalog metadata.
const (
	ReplicationIncremental = "INCREMENTAL"
	ReplicationFullTable   = "FULL_TABLE"
)

// Catalog is the discovery document listing every available stream.
type Catalog struct {
	Streams []CatalogEntry `json:"streams"`
}

// CatalogEntry describes one stream in a catalog.
type CatalogEntry struct {
	TapStreamID       string          `json:"tap_stream_id"`
	Stream            string          `json:"stream"`
	Schema            any             `json:"schema"`
	KeyProperties     []string        `json:"key_properties"`
	ReplicationKey    string          `json:"replication_key,omitempty"`
	ReplicationMethod string          `json:"replication_method,omitempty"`
	Metadata          []MetadataEntry `json:"metadata"`
}

// MetadataEntry attaches metadata to a breadcrumb; the empty breadcrumb is the stream itself.
type MetadataEntry struct {
	Breadcrumb []string       `json:"breadcrumb"`
	Metadata   map[string]any `json:"metadata"`
}

// StreamMetadata returns the metadata map of the stream-level breadcrumb, or nil.
func (e CatalogEntry) StreamMetadata() map[string]any {
	for _, m := range e.Metadata {
		if len(m.Breadcrumb) == 0 {
			return m.Metadata
		}
	}
	return nil
}

// Selected reports whether the stream-level metadata marks the stream selected.
// "selected" wins over "selected-by-default".
func (e CatalogEntry) Selected() bool {
	md := e.StreamMetadata()
	if md == nil {
		return false
	}
	if v, ok := md["selected"].(bool); ok {
		return v
	}
	if v, ok := md["selected-by-default"].(bool); ok {
		return v
	}
	return false
}

// SelectedStreams returns the names of selected streams.
func (c *Catalog) SelectedStreams() map[string]bool {
	selected := make(map[string]bool, len(c.Streams))
	for _, e := range c.Streams {
		if e.Selected() {
			name := e.TapStreamID
			if name == "" {
				name = e.Stream
			}
			selected[name] = true
		}
	}
	return selected
}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ReadCatalog loads a catalog file.
func ReadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return &c, nil
}
