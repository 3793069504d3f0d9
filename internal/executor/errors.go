package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrKind categorises an execution failure without exposing driver-specific
// codes. The request boundary maps each kind to a tailored user hint.
type ErrKind int

const (
	KindUnknown    ErrKind = iota
	KindInvalid            // rejected before execution (empty, non-SELECT, write keyword)
	KindSyntax             // the database could not parse the query
	KindBadColumn          // the query references a column that does not exist
	KindTimeout            // execution exceeded the configured deadline
	KindPermission         // the database denied access
	KindConnection         // the database could not be reached
	KindNoData             // the query ran but matched no rows
)

func (k ErrKind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindSyntax:
		return "syntax"
	case KindBadColumn:
		return "bad_column"
	case KindTimeout:
		return "timeout"
	case KindPermission:
		return "permission"
	case KindConnection:
		return "connection"
	case KindNoData:
		return "no_data"
	default:
		return "unknown"
	}
}

// ExecError is the single error type returned by the executor. The original
// driver error is preserved for logging; callers branch on Kind.
type ExecError struct {
	Kind    ErrKind
	Message string
	Cause   error
}

func (e *ExecError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *ExecError) Unwrap() error { return e.Cause }

// KindOf extracts the ErrKind from any error in the chain.
func KindOf(err error) ErrKind {
	var e *ExecError
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Classify maps a database-reported error to an ExecError. Context deadline
// expiry is reported as a timeout, not a generic failure.
func Classify(err error) *ExecError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &ExecError{Kind: KindTimeout, Message: "query exceeded the configured timeout", Cause: err}
	}
	if errors.Is(err, context.Canceled) {
		return &ExecError{Kind: KindTimeout, Message: "query was cancelled", Cause: err}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return &ExecError{Kind: KindTimeout, Message: "query exceeded the configured timeout", Cause: err}
	case strings.Contains(msg, "syntax") || strings.Contains(msg, "parse") || strings.Contains(msg, "cannot parse"):
		return &ExecError{Kind: KindSyntax, Message: "the generated SQL could not be parsed", Cause: err}
	case strings.Contains(msg, "unknown identifier") ||
		strings.Contains(msg, "missing columns") ||
		(strings.Contains(msg, "column") && strings.Contains(msg, "exist")):
		return &ExecError{Kind: KindBadColumn, Message: "the query references a column that does not exist", Cause: err}
	case strings.Contains(msg, "permission") || strings.Contains(msg, "access denied") ||
		strings.Contains(msg, "not enough privileges") || strings.Contains(msg, "authentication"):
		return &ExecError{Kind: KindPermission, Message: "database access was denied", Cause: err}
	case strings.Contains(msg, "connection") || strings.Contains(msg, "refused") ||
		strings.Contains(msg, "no such host") || strings.Contains(msg, "broken pipe"):
		return &ExecError{Kind: KindConnection, Message: "the database could not be reached", Cause: err}
	default:
		return &ExecError{Kind: KindUnknown, Message: "query execution failed", Cause: err}
	}
}

// Hint returns a user-facing suggestion tailored to the error kind and, for
// empty results, to the wording of the question.
func Hint(err error, question string) string {
	q := strings.ToLower(question)

	switch KindOf(err) {
	case KindNoData:
		switch {
		case (strings.Contains(q, "facility") || strings.Contains(q, "porter")) && strings.ContainsAny(question, "0123456789"):
			return "The specified facility/porter ID might not exist in the database."
		case strings.Contains(q, "date") || strings.Contains(q, "year") ||
			strings.Contains(q, "may") || strings.Contains(q, "june"):
			return "The specified date might be outside the available data range."
		case strings.Contains(q, "null"):
			return "No records found with NULL values for the specified field. Try 'empty' for blank string values."
		case strings.Contains(q, "future"):
			return "No requests are scheduled for future dates."
		default:
			return "No records match your search criteria."
		}
	case KindSyntax:
		return "The generated SQL query has syntax issues. Try rephrasing your question."
	case KindBadColumn:
		return "The query references a column that doesn't exist. Try using terms from the schema, e.g. facility, porter, status."
	case KindTimeout:
		return "The query took too long. Try narrowing the date range or adding a facility filter."
	case KindPermission:
		return "Database access permission issue. Check the configured credentials."
	case KindConnection:
		return "Database connection problem. Please try again."
	case KindInvalid:
		return "Only read-only SELECT queries can be executed."
	default:
		return "An unexpected database error occurred. Try rephrasing your question."
	}
}
