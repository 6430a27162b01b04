// Package singer implements the Singer message protocol spoken on stdout:
// SCHEMA, RECORD and STATE messages, one JSON document per line, plus the
// catalog documents used for discovery and stream selection.
package singer

import (
	"time"
)

// MessageType identifies a Singer message.
type MessageType string

const (
	MessageTypeSchema MessageType = "SCHEMA"
	MessageTypeRecord MessageType = "RECORD"
	MessageTypeState  MessageType = "STATE"
)

// SchemaMessage declares the shape of a stream before its records.
type SchemaMessage struct {
	Type               MessageType `json:"type"`
	Stream             string      `json:"stream"`
	Schema             any         `json:"schema"`
	KeyProperties      []string    `json:"key_properties"`
	BookmarkProperties []string    `json:"bookmark_properties,omitempty"`
}

// RecordMessage carries one record of a stream.
type RecordMessage struct {
	Type          MessageType    `json:"type"`
	Stream        string         `json:"stream"`
	Record        map[string]any `json:"record"`
	TimeExtracted *time.Time     `json:"time_extracted,omitempty"`
}

// StateMessage carries the full replication state.
type StateMessage struct {
	Type  MessageType `json:"type"`
	Value any         `json:"value"`
}

// NewSchemaMessage builds a SCHEMA message.
func NewSchemaMessage(stream string, schema any, keys []string, bookmarks []string) SchemaMessage {
	if keys == nil {
		keys = []string{}
	}
	return SchemaMessage{
		Type:               MessageTypeSchema,
		Stream:             stream,
		Schema:             schema,
		KeyProperties:      keys,
		BookmarkProperties: bookmarks,
	}
}

// NewRecordMessage builds a RECORD message stamped with the extraction time.
func NewRecordMessage(stream string, rec map[string]any, extracted time.Time) RecordMessage {
	ts := extracted.UTC()
	return RecordMessage{
		Type:          MessageTypeRecord,
		Stream:        stream,
		Record:        rec,
		TimeExtracted: &ts,
	}
}

// NewStateMessage builds a STATE message.
func NewStateMessage(value any) StateMessage {
	return StateMessage{Type: MessageTypeState, Value: value}
}
