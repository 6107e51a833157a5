package models

import (
	"fmt"

	"postledger/pkg/domain"
	dErrors "postledger/pkg/domain-errors"
)

// InsufficientFundsError reports a debit or payment that does not cover the
// requested amount.
type InsufficientFundsError struct {
	Available domain.Uint128
	Requested domain.Uint128
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds (got %s, needed %s)", e.Available, e.Requested)
}

func (e *InsufficientFundsError) DomainCode() dErrors.Code { return dErrors.CodeInsufficientFunds }

func (e *InsufficientFundsError) Details() map[string]any {
	return map[string]any{
		"available": e.Available.String(),
		"requested": e.Requested.String(),
	}
}

// ExceededCharLimitError reports a field longer than its configured limit.
// Length is the byte length of the field.
type ExceededCharLimitError struct {
	Field  string
	Length int
	Max    uint8
}

func (e *ExceededCharLimitError) Error() string {
	return fmt.Sprintf("exceeded char limit (field %q, length %d, max %d)", e.Field, e.Length, e.Max)
}

func (e *ExceededCharLimitError) DomainCode() dErrors.Code { return dErrors.CodeExceededCharLimit }

func (e *ExceededCharLimitError) Details() map[string]any {
	return map[string]any{
		"field":  e.Field,
		"length": e.Length,
		"max":    e.Max,
	}
}

// PaymentReason classifies a mismatch between declared and attached funds.
type PaymentReason string

const (
	PaymentNoFunds        PaymentReason = "no_funds"
	PaymentMissingDenom   PaymentReason = "missing_denom"
	PaymentMultipleDenoms PaymentReason = "multiple_denoms"
	PaymentOverpaid       PaymentReason = "overpaid"
)

// PaymentError reports attached funds that cannot back the declared amount.
type PaymentError struct {
	Reason   PaymentReason
	Denom    string
	Attached domain.Uint128
	Declared domain.Uint128
}

func (e *PaymentError) Error() string {
	switch e.Reason {
	case PaymentNoFunds:
		return "no funds sent"
	case PaymentMissingDenom:
		return fmt.Sprintf("must send %s", e.Denom)
	case PaymentMultipleDenoms:
		return "sent more than one denomination"
	case PaymentOverpaid:
		return fmt.Sprintf("attached %s%s exceeds declared %s%s", e.Attached, e.Denom, e.Declared, e.Denom)
	default:
		return "payment mismatch"
	}
}

func (e *PaymentError) DomainCode() dErrors.Code { return dErrors.CodePaymentMismatch }

func (e *PaymentError) Details() map[string]any {
	d := map[string]any{"reason": string(e.Reason), "denom": e.Denom}
	if e.Reason == PaymentOverpaid {
		d["attached"] = e.Attached.String()
		d["declared"] = e.Declared.String()
	}
	return d
}
