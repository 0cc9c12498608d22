package domain

import (
	"encoding/hex"
	"strings"

	dErrors "idledger/pkg/domain-errors"
)

// AddressLength is the size of an account address in bytes.
const AddressLength = 20

// Address identifies an account. The zero value is the null address.
//
// Textual form is "0x" followed by 40 hex digits. Parsing is case-insensitive;
// String always renders lower case so map keys and storage keys agree.
type Address [AddressLength]byte

// ZeroAddress is the null address.
var ZeroAddress Address

// ParseAddress constructs an Address from external input.
//
// Errors: CodeInvalidInput when the value is not 0x-prefixed 40-digit hex.
// The null address parses successfully; callers that forbid it check IsZero.
func ParseAddress(s string) (Address, error) {
	var a Address
	if err := decodeFixedHex(s, a[:]); err != nil {
		return ZeroAddress, dErrors.New(dErrors.CodeInvalidInput, "invalid address: "+err.Error())
	}
	return a, nil
}

// MustParseAddress is ParseAddress for constants and tests.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// IsZero reports whether a is the null address.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// decodeFixedHex decodes a 0x-prefixed hex string into dst, requiring an
// exact length match.
func decodeFixedHex(s string, dst []byte) error {
	s = strings.TrimSpace(s)
	body, ok := strings.CutPrefix(s, "0x")
	if !ok {
		body, ok = strings.CutPrefix(s, "0X")
	}
	if !ok {
		return errMissingPrefix
	}
	if len(body) != 2*len(dst) {
		return errWrongLength
	}
	if _, err := hex.Decode(dst, []byte(body)); err != nil {
		return errNotHex
	}
	return nil
}
