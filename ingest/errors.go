package ingest

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyOrInvalidFile = errors.New("file is empty or has no data rows")
	ErrMalformedJSON      = errors.New("malformed json")
	ErrUnsupportedFormat  = errors.New("unsupported format")
)

// Skip reasons.
const (
	ReasonEmptyText          = "empty question text"
	ReasonMissingOptions     = "missing propositions column"
	ReasonTooFewOptions      = "fewer than 2 options"
	ReasonTooManyOptions     = "more than 10 options"
	ReasonInvalidAnswer      = "correct answer does not match an option"
	ReasonUnknownTag         = "unknown tag"
	ReasonDuplicateID        = "duplicate id"
	ReasonInvalidRecordShape = "record is not an object"
)

// RowSkipped records one row or record dropped during ingestion. For CSV input Line is the
// physical line number (the header is line 1); for JSON it is the 1-based record index.
type RowSkipped struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

func (s RowSkipped) Error() string {
	return fmt.Sprintf("line %d skipped: %s", s.Line, s.Reason)
}
