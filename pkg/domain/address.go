package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"

	dErrors "postledger/pkg/domain-errors"
)

// maxAddressLen bounds account identifiers. Bech32 addresses top out at 90
// characters; contract addresses are longer, so leave headroom.
const maxAddressLen = 128

// Address identifies a ledger account. It is a domain primitive: values built
// through ParseAddress are non-empty, valid UTF-8 and free of whitespace.
type Address string

// ParseAddress validates and returns an Address.
func ParseAddress(s string) (Address, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "address is required")
	}
	if len(s) > maxAddressLen {
		return "", dErrors.New(dErrors.CodeInvalidInput, "address is too long")
	}
	if !utf8.ValidString(s) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "address must be valid UTF-8")
	}
	if strings.IndexFunc(s, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }) >= 0 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "address must not contain whitespace")
	}
	return Address(s), nil
}

func (a Address) String() string {
	return string(a)
}

// IsZero reports whether the address is unset.
func (a Address) IsZero() bool {
	return a == ""
}
