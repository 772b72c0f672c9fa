package apperr

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Kind is a stable, machine-readable error category. Handlers map kinds to
// HTTP status codes; callers use them to decide whether a retry can succeed.
type Kind string

const (
	KindNotFound                   Kind = "not_found"
	KindUnauthorized               Kind = "unauthorized"
	KindInvalidInput               Kind = "invalid_input"
	KindDuplicateTransaction       Kind = "duplicate_transaction"
	KindFundingExceeded            Kind = "funding_exceeded"
	KindInvalidStateTransition     Kind = "invalid_state_transition"
	KindLedgerSubmissionFailed     Kind = "ledger_submission_failed"
	KindPartialDistributionFailure Kind = "partial_distribution_failure"
)

// Error carries a stable kind plus a human-readable reason.
type Error struct {
	Kind   Kind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an Error with the given kind and formatted reason.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error around an underlying cause.
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var f *FundingExceededError
	if errors.As(err, &f) {
		return KindFundingExceeded
	}
	var s *StateTransitionError
	if errors.As(err, &s) {
		return KindInvalidStateTransition
	}
	var p *PartialDistributionError
	if errors.As(err, &p) {
		return KindPartialDistributionFailure
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// FundingExceededError rejects an investment that would push accumulated
// funding past the goal. Remaining is the largest amount that would still
// be accepted, so the caller can correct and resubmit.
type FundingExceededError struct {
	ProjectID uint
	Requested decimal.Decimal
	Remaining decimal.Decimal
}

func (e *FundingExceededError) Error() string {
	return fmt.Sprintf("funding_exceeded: project %d cannot accept %s, remaining capacity is %s",
		e.ProjectID, e.Requested.String(), e.Remaining.String())
}

// StateTransitionError rejects a settlement operation requested in the
// wrong state. Current reports the actual status so the caller can decide
// what to do next.
type StateTransitionError struct {
	ProjectID uint
	Requested string
	Current   string
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("invalid_state_transition: project %d cannot %s while settlement is %q",
		e.ProjectID, e.Requested, e.Current)
}

// PartialDistributionError reports payout legs that failed during a
// distribution pass. The pass itself still completes; the listed
// recipients must be retried.
type PartialDistributionError struct {
	SettlementID     uint
	FailedRecipients []string
}

func (e *PartialDistributionError) Error() string {
	return fmt.Sprintf("partial_distribution_failure: settlement %d has %d failed payout legs: %v",
		e.SettlementID, len(e.FailedRecipients), e.FailedRecipients)
}
