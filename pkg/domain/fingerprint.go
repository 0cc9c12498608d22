package domain

import (
	"crypto/subtle"
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/sha3"

	dErrors "idledger/pkg/domain-errors"
)

// FingerprintLength is the size of an identity fingerprint in bytes.
const FingerprintLength = 32

// Fingerprint is the opaque 32-byte value an account registers. The ledger
// never interprets it; the all-zero value is reserved as "unset".
type Fingerprint [FingerprintLength]byte

// ZeroFingerprint is the reserved all-zero value.
var ZeroFingerprint Fingerprint

var (
	errMissingPrefix = errors.New("missing 0x prefix")
	errWrongLength   = errors.New("wrong length")
	errNotHex        = errors.New("not hex")
)

// ParseFingerprint constructs a Fingerprint from 0x-prefixed 64-digit hex.
// The zero value parses; the ledger decides how to reject it.
func ParseFingerprint(s string) (Fingerprint, error) {
	var f Fingerprint
	if err := decodeFixedHex(s, f[:]); err != nil {
		return ZeroFingerprint, dErrors.New(dErrors.CodeInvalidInput, "invalid fingerprint: "+err.Error())
	}
	return f, nil
}

// MustParseFingerprint is ParseFingerprint for constants and tests.
func MustParseFingerprint(s string) Fingerprint {
	f, err := ParseFingerprint(s)
	if err != nil {
		panic(err)
	}
	return f
}

// DeriveFingerprint computes Keccak-256(salt || data). It is a client-side
// helper for producing a registrable value; the ledger never calls it.
func DeriveFingerprint(data, salt []byte) Fingerprint {
	h := sha3.NewLegacyKeccak256()
	h.Write(salt)
	h.Write(data)
	var f Fingerprint
	copy(f[:], h.Sum(nil))
	return f
}

func (f Fingerprint) IsZero() bool {
	return f == ZeroFingerprint
}

// Equal compares in constant time.
func (f Fingerprint) Equal(other Fingerprint) bool {
	return subtle.ConstantTimeCompare(f[:], other[:]) == 1
}

func (f Fingerprint) String() string {
	return "0x" + hex.EncodeToString(f[:])
}

func (f Fingerprint) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Fingerprint) UnmarshalText(text []byte) error {
	parsed, err := ParseFingerprint(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
