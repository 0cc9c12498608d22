package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "idledger/pkg/domain-errors"
)

// TestParseAddress_Invariants covers the trust-boundary rules for addresses.
func TestParseAddress_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseAddress("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects missing prefix", func(t *testing.T) {
		_, err := ParseAddress(strings.Repeat("ab", AddressLength))
		require.Error(t, err)
	})

	t.Run("rejects wrong length", func(t *testing.T) {
		_, err := ParseAddress("0x" + strings.Repeat("ab", AddressLength-1))
		require.Error(t, err)
	})

	t.Run("rejects non-hex", func(t *testing.T) {
		_, err := ParseAddress("0x" + strings.Repeat("zz", AddressLength))
		require.Error(t, err)
	})

	t.Run("accepts mixed case and renders lower case", func(t *testing.T) {
		a, err := ParseAddress("0xABCDEF0123456789abcdef0123456789ABCDEF01")
		require.NoError(t, err)
		assert.Equal(t, "0xabcdef0123456789abcdef0123456789abcdef01", a.String())
	})

	t.Run("null address parses and reports zero", func(t *testing.T) {
		a, err := ParseAddress("0x" + strings.Repeat("00", AddressLength))
		require.NoError(t, err)
		assert.True(t, a.IsZero())
	})
}

func TestFingerprint(t *testing.T) {
	t.Run("round trips through JSON", func(t *testing.T) {
		f := MustParseFingerprint("0x" + strings.Repeat("ab", FingerprintLength))
		raw, err := json.Marshal(struct {
			F Fingerprint `json:"f"`
		}{F: f})
		require.NoError(t, err)
		assert.JSONEq(t, `{"f":"0x`+strings.Repeat("ab", FingerprintLength)+`"}`, string(raw))

		var decoded struct {
			F Fingerprint `json:"f"`
		}
		require.NoError(t, json.Unmarshal(raw, &decoded))
		assert.Equal(t, f, decoded.F)
	})

	t.Run("rejects malformed JSON value", func(t *testing.T) {
		var decoded struct {
			F Fingerprint `json:"f"`
		}
		err := json.Unmarshal([]byte(`{"f":"0x1234"}`), &decoded)
		assert.Error(t, err)
	})

	t.Run("zero and equality", func(t *testing.T) {
		assert.True(t, ZeroFingerprint.IsZero())
		a := MustParseFingerprint("0x" + strings.Repeat("01", FingerprintLength))
		b := MustParseFingerprint("0x" + strings.Repeat("01", FingerprintLength))
		c := MustParseFingerprint("0x" + strings.Repeat("02", FingerprintLength))
		assert.True(t, a.Equal(b))
		assert.False(t, a.Equal(c))
		assert.False(t, a.IsZero())
	})

	t.Run("derive uses legacy keccak-256", func(t *testing.T) {
		f := DeriveFingerprint(nil, nil)
		assert.Equal(t, "0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470", f.String())
		assert.NotEqual(t, DeriveFingerprint([]byte("alice"), []byte{1}), DeriveFingerprint([]byte("alice"), []byte{2}))
	})
}
