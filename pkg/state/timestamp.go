package state

import (
	"fmt"
	"strings"
	"time"
)

// timestampLayouts are tried in order. Layouts without a zone parse as UTC;
// WooCommerce's date_modified is a naive site-local timestamp.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 timestamp with or without a zone offset.
func ParseTimestamp(value string) (time.Time, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// Later returns whichever of a and b is the later timestamp. An empty or
// unparsable a loses to a parsable b.
func Later(a, b string) (string, error) {
	tb, err := ParseTimestamp(b)
	if err != nil {
		return a, err
	}
	ta, err := ParseTimestamp(a)
	if err != nil || tb.After(ta) {
		return b, nil
	}
	return a, nil
}
