package mintcore

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInitialized is returned when no contract handle exists yet.
	ErrNotInitialized = errors.New("contract not initialized")
	// ErrSubmissionPending rejects a second submission of the same kind.
	ErrSubmissionPending = errors.New("submission already pending")
	// ErrInvalidQuantity rejects public mints outside the allowed range.
	ErrInvalidQuantity = errors.New("invalid mint quantity")
	// ErrQuoteChanged aborts a public mint whose fresh quote differs from the approved one.
	ErrQuoteChanged = errors.New("mint price changed since approval")
	// ErrReverted marks a mined transaction whose receipt status is 0.
	ErrReverted = errors.New("transaction reverted")
)

// Field names one independently refreshed piece of contract state.
type Field string

const (
	FieldPriceA  Field = "price_a"
	FieldPriceB  Field = "price_b"
	FieldRewards Field = "rewards"
	FieldSupply  Field = "supply"
	FieldPresale Field = "presale"
)

// ReadError is a failed contract read for one field.
type ReadError struct {
	Field Field
	Err   error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Field, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// SubmissionError is a failed send, revert or confirmation timeout.
type SubmissionError struct {
	Kind Kind
	Err  error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("%s submission failed: %v", e.Kind, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }
