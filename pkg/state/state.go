// Package state holds Singer replication state: per-stream bookmarks and the
// stores that persist them between runs.
package state

import (
	"fmt"
	"time"
)

// Bookmark is the high-water mark of one incremental stream.
type Bookmark struct {
	ReplicationKey      string `json:"replication_key,omitempty"`
	ReplicationKeyValue string `json:"replication_key_value,omitempty"`
}

// State is the Singer state document.
type State struct {
	Bookmarks map[string]Bookmark `json:"bookmarks"`
}

// New returns an empty state.
func New() *State {
	return &State{Bookmarks: map[string]Bookmark{}}
}

// Bookmark returns the bookmark of stream, if any.
func (s *State) Bookmark(stream string) (Bookmark, bool) {
	if s == nil || s.Bookmarks == nil {
		return Bookmark{}, false
	}
	b, ok := s.Bookmarks[stream]
	return b, ok && b.ReplicationKeyValue != ""
}

// SetBookmark records value as the high-water mark of stream.
func (s *State) SetBookmark(stream, replicationKey, value string) {
	if s.Bookmarks == nil {
		s.Bookmarks = map[string]Bookmark{}
	}
	s.Bookmarks[stream] = Bookmark{ReplicationKey: replicationKey, ReplicationKeyValue: value}
}

// Clone returns a deep copy of s.
func (s *State) Clone() *State {
	out := New()
	if s == nil {
		return out
	}
	for k, v := range s.Bookmarks {
		out.Bookmarks[k] = v
	}
	return out
}

// StartingTimestamp resolves the lower bound for an incremental sync of
// stream: the later of the persisted bookmark and startDate.
func (s *State) StartingTimestamp(stream string, startDate time.Time) (time.Time, error) {
	b, ok := s.Bookmark(stream)
	if !ok {
		return startDate, nil
	}
	mark, err := ParseTimestamp(b.ReplicationKeyValue)
	if err != nil {
		return time.Time{}, fmt.Errorf("bookmark for %s: %w", stream, err)
	}
	if mark.After(startDate) {
		return mark, nil
	}
	return startDate, nil
}
