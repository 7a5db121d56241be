package registry

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// MalformedRecordError reports a record that could not be parsed or that
// violates a structural invariant (missing id or name, unknown strength,
// unreadable frontmatter). Any malformed record aborts the run.
type MalformedRecordError struct {
	RecordKind string
	Source     string
	Reason     string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed %s record in %s: %s", e.RecordKind, e.Source, e.Reason)
}

// DuplicateRecordError reports two records of the same kind sharing a name or
// an id. Name lookup must be unambiguous within a kind, so duplicates abort
// the run.
type DuplicateRecordError struct {
	RecordKind string
	Field      string
	Value      string
	Sources    [2]string
}

func (e *DuplicateRecordError) Error() string {
	return fmt.Sprintf("duplicate %s %s %q (%s, %s)", e.RecordKind, e.Field, e.Value, e.Sources[0], e.Sources[1])
}

// loadErrors accumulates fatal load problems so a single pass can report
// every malformed and duplicate record instead of stopping at the first.
type loadErrors struct {
	err *multierror.Error
}

func (l *loadErrors) malformed(kind, source, reason string) {
	l.err = multierror.Append(l.err, &MalformedRecordError{RecordKind: kind, Source: source, Reason: reason})
}

func (l *loadErrors) duplicate(kind, field, value, first, second string) {
	l.err = multierror.Append(l.err, &DuplicateRecordError{
		RecordKind: kind,
		Field:      field,
		Value:      value,
		Sources:    [2]string{first, second},
	})
}

func (l *loadErrors) ErrorOrNil() error {
	return l.err.ErrorOrNil()
}
