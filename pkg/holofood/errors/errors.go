package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
)

var ErrEmptyResult = fmt.Errorf("empty result")
var ErrInternal = fmt.Errorf("internal error")
var ErrMalformedAccession = fmt.Errorf("malformed accession")
var ErrNotFound = fmt.Errorf("not found")
var ErrRejected = fmt.Errorf("request rejected")
var ErrRemoteFetch = fmt.Errorf("remote fetch failed")
var ErrTransient = fmt.Errorf("transient upstream failure")

type portalError struct {
	msg    string
	target error
}

func (p portalError) Error() string        { return p.msg }
func (p portalError) Is(target error) bool { return target == p.target }

func NewEmptyResultError(msg string) error {
	return &portalError{
		msg:    msg,
		target: ErrEmptyResult,
	}
}

func NewNotFoundError(msg string) error {
	return &portalError{
		msg:    msg,
		target: ErrNotFound,
	}
}

func NewRejectedError(msg string) error {
	return &portalError{
		msg:    msg,
		target: ErrRejected,
	}
}

// TransientError marks a failure that is safe to retry with the same cursor:
// rate limiting, upstream 5xx responses and network level errors.
type TransientError struct {
	StatusCode int
	msg        string
}

func NewTransientError(msg string, statusCode int) error {
	return &TransientError{
		StatusCode: statusCode,
		msg:        msg,
	}
}

func (e *TransientError) Error() string        { return e.msg }
func (e *TransientError) Is(target error) bool { return target == ErrTransient }

// StatusCodeOf digs the upstream status code out of an error chain, or 0 if
// none is attached.
func StatusCodeOf(err error) int {
	te := &TransientError{}
	if stderrors.As(err, &te) {
		return te.StatusCode
	}
	return 0
}

// RemoteFetchError is surfaced when the retry budget for a single page
// request has been exhausted. It carries enough context for the caller to
// retry the fetch manually.
type RemoteFetchError struct {
	EntityType string
	Cursor     string
	StatusCode int
	Attempts   int

	cause error
}

func NewRemoteFetchError(entityType, cursor string, statusCode, attempts int, cause error) *RemoteFetchError {
	return &RemoteFetchError{
		EntityType: entityType,
		Cursor:     cursor,
		StatusCode: statusCode,
		Attempts:   attempts,
		cause:      cause,
	}
}

func (e *RemoteFetchError) Error() string {
	cursor := e.Cursor
	if cursor == "" {
		cursor = "<first page>"
	}

	return fmt.Sprintf(
		"fetching %s page at cursor %s failed after %d attempts (status %d): %s",
		e.EntityType, cursor, e.Attempts, e.StatusCode, e.cause.Error(),
	)
}

func (e *RemoteFetchError) Is(target error) bool { return target == ErrRemoteFetch }
func (e *RemoteFetchError) Unwrap() error        { return e.cause }

// MalformedAccessionError reports accessions that did not match the expected
// pattern for their entity type. Well formed accessions in the same call are
// still fetched, so callers may receive both a result and this error.
type MalformedAccessionError struct {
	EntityType string
	Invalid    []string
}

func NewMalformedAccessionError(entityType string, invalid []string) *MalformedAccessionError {
	return &MalformedAccessionError{
		EntityType: entityType,
		Invalid:    invalid,
	}
}

func (e *MalformedAccessionError) Error() string {
	return fmt.Sprintf(
		"%d malformed %s accession(s): %s",
		len(e.Invalid), e.EntityType, strings.Join(e.Invalid, ", "),
	)
}

func (e *MalformedAccessionError) Is(target error) bool { return target == ErrMalformedAccession }

// MergeCoverageWarning lists identifiers dropped while re-keying an external
// table set to portal accessions. Partial coverage between the two source
// systems is expected, so this is never surfaced as an error.
type MergeCoverageWarning struct {
	Unmapped []string
	Shadowed []string
}

func (w *MergeCoverageWarning) Empty() bool {
	return w == nil || (len(w.Unmapped) == 0 && len(w.Shadowed) == 0)
}

func (w *MergeCoverageWarning) String() string {
	if w.Empty() {
		return "full coverage"
	}

	return fmt.Sprintf(
		"%d identifier(s) without mapping: %s; %d shadowed by an earlier mapping: %s",
		len(w.Unmapped), strings.Join(w.Unmapped, ", "),
		len(w.Shadowed), strings.Join(w.Shadowed, ", "),
	)
}

// NewErrorFromProblemReport turns an upstream 4xx/5xx response body into an
// error from the taxonomy above. Rate limiting and server side failures are
// transient, every other client error is terminal.
func NewErrorFromProblemReport(code int, body []byte) error {
	report := &struct {
		Detail string `json:"detail"`
	}{}

	if err := json.Unmarshal(body, report); err != nil || report.Detail == "" {
		report.Detail = fmt.Sprintf("status code %d", code)
	}

	if code == 404 {
		return NewNotFoundError(report.Detail)
	}

	if code == 429 || code >= 500 {
		return NewTransientError(report.Detail, code)
	}

	return NewRejectedError(report.Detail)
}
