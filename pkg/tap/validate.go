package tap

import (
	"errors"
	"fmt"

	"github.com/Sternrassler/tap-woocommerce/pkg/record"
	"github.com/Sternrassler/tap-woocommerce/pkg/state"
	"github.com/Sternrassler/tap-woocommerce/pkg/streams"
)

// Validation problem reasons, used as metric labels.
const (
	reasonMissingPrimaryKey = "missing_primary_key"
	reasonBadReplicationKey = "bad_replication_key"
)

// ValidationError describes a problem with an emitted record.
type ValidationError struct {
	Stream string
	Reason string
	Field  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("stream %s: invalid record: %s %q", e.Stream, e.Reason, e.Field)
}

// validate checks that every primary key is present and that an incremental
// stream's replication value parses. Records are emitted regardless; the
// returned value is empty when the record cannot advance the bookmark.
func validate(def streams.Definition, rec record.Record) (string, error) {
	var errs []error
	for _, key := range def.PrimaryKeys {
		if v, ok := rec[key]; !ok || v == nil {
			errs = append(errs, &ValidationError{Stream: def.Name, Reason: reasonMissingPrimaryKey, Field: key})
		}
	}
	if !def.Incremental() {
		return "", errors.Join(errs...)
	}

	value, _ := rec[def.ReplicationKey].(string)
	if _, err := state.ParseTimestamp(value); err != nil {
		errs = append(errs, &ValidationError{Stream: def.Name, Reason: reasonBadReplicationKey, Field: def.ReplicationKey})
		value = ""
	}
	return value, errors.Join(errs...)
}

// validationErrors flattens the problems validate reported.
func validationErrors(err error) []*ValidationError {
	errs := []error{err}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	}
	var out []*ValidationError
	for _, e := range errs {
		var verr *ValidationError
		if errors.As(e, &verr) {
			out = append(out, verr)
		}
	}
	return out
}
