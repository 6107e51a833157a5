package models

import "postledger/pkg/domain"

// MustPay returns the amount of denom attached to the message. Exactly one
// non-zero coin of denom must be present.
func MustPay(info MessageInfo, denom string) (domain.Uint128, error) {
	switch len(info.Funds) {
	case 0:
		return domain.Uint128{}, &PaymentError{Reason: PaymentNoFunds, Denom: denom}
	case 1:
	default:
		return domain.Uint128{}, &PaymentError{Reason: PaymentMultipleDenoms, Denom: denom}
	}
	coin := info.Funds[0]
	if coin.Amount.IsZero() {
		return domain.Uint128{}, &PaymentError{Reason: PaymentNoFunds, Denom: denom}
	}
	if coin.Denom != denom {
		return domain.Uint128{}, &PaymentError{Reason: PaymentMissingDenom, Denom: denom}
	}
	return coin.Amount, nil
}
