package csvimport

import (
	"errors"
	"fmt"
	"strings"
)

// Whole-file failures. Anything else wrong with an upload is reported per
// row and never aborts the import.
var (
	ErrEmptyFile       = errors.New("file is empty")
	ErrInvalidEncoding = errors.New("file is not valid UTF-8")
	ErrMissingHeader   = errors.New("file has no header row")
)

// ParseError wraps a whole-file failure with the number of data rows that
// were successfully parsed before the failure occurred.
type ParseError struct {
	Err        error
	RowsParsed int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("import aborted after %d rows: %v", e.RowsParsed, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a ParseError
func NewParseError(err error, rowsParsed int) *ParseError {
	return &ParseError{Err: err, RowsParsed: rowsParsed}
}

// RejectReason classifies why a single row was excluded from the import
type RejectReason string

const (
	ReasonMissingField      RejectReason = "MISSING_FIELD"
	ReasonUnparsableAmount  RejectReason = "UNPARSABLE_AMOUNT"
	ReasonDuplicateInBatch  RejectReason = "DUPLICATE_ORDER_ID_IN_BATCH"
	ReasonAlreadyReconciled RejectReason = "ALREADY_RECONCILED"
	ReasonCurrencyMismatch  RejectReason = "CURRENCY_MISMATCH"
	ReasonUnmatched         RejectReason = "UNMATCHED_AFFILIATE"
	ReasonAmbiguousMatch    RejectReason = "AMBIGUOUS_AFFILIATE"
)

// RowRejection records one excluded row with enough context to show the
// operator what to fix in the source spreadsheet
type RowRejection struct {
	Line    int          `json:"line"`
	Column  string       `json:"column,omitempty"`
	Reason  RejectReason `json:"reason"`
	Message string       `json:"message"`
	Value   string       `json:"value,omitempty"`
}

func (r RowRejection) Error() string {
	if r.Column != "" {
		return fmt.Sprintf("row %d, column %q: %s", r.Line, r.Column, r.Message)
	}
	return fmt.Sprintf("row %d: %s", r.Line, r.Message)
}

// RejectionList accumulates per-row rejections during an import
type RejectionList struct {
	rejections []RowRejection
	maxKept    int
	truncated  int
}

// NewRejectionList creates a rejection collector. maxKept bounds the number
// of rejections retained verbatim; beyond that only the count grows.
func NewRejectionList(maxKept int) *RejectionList {
	if maxKept <= 0 {
		maxKept = 1000
	}
	return &RejectionList{maxKept: maxKept}
}

// Add records a rejection
func (l *RejectionList) Add(r RowRejection) {
	if len(l.rejections) >= l.maxKept {
		l.truncated++
		return
	}
	l.rejections = append(l.rejections, r)
}

// AddField is a convenience for field-level rejections
func (l *RejectionList) AddField(line int, column string, reason RejectReason, message, value string) {
	l.Add(RowRejection{Line: line, Column: column, Reason: reason, Message: message, Value: value})
}

// Count returns the total number of rejections including truncated ones
func (l *RejectionList) Count() int {
	return len(l.rejections) + l.truncated
}

// HasRejections returns true if any row was rejected
func (l *RejectionList) HasRejections() bool {
	return l.Count() > 0
}

// All returns the retained rejections
func (l *RejectionList) All() []RowRejection {
	return l.rejections
}

// Summary returns a human-readable digest of the rejection set
func (l *RejectionList) Summary() string {
	if !l.HasRejections() {
		return "no rejected rows"
	}
	counts := make(map[RejectReason]int)
	for _, r := range l.rejections {
		counts[r.Reason]++
	}
	parts := make([]string, 0, len(counts))
	for reason, n := range counts {
		parts = append(parts, fmt.Sprintf("%s=%d", reason, n))
	}
	s := fmt.Sprintf("%d rejected rows (%s)", l.Count(), strings.Join(parts, ", "))
	if l.truncated > 0 {
		s += fmt.Sprintf(", %d not retained", l.truncated)
	}
	return s
}
