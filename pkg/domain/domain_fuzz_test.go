//go:build go1.18

package domain

import (
	"testing"
	"unicode/utf8"
)

// FuzzParseAddress checks that parsing never panics and that accepted input
// round-trips through String.
func FuzzParseAddress(f *testing.F) {
	f.Add("")
	f.Add("0x0000000000000000000000000000000000000000")
	f.Add("0xABCDEF0123456789abcdef0123456789ABCDEF01")
	f.Add("0x'; DROP TABLE identities;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))

	f.Fuzz(func(t *testing.T, input string) {
		a, err := ParseAddress(input)
		if err != nil {
			return
		}
		again, err := ParseAddress(a.String())
		if err != nil {
			t.Fatalf("round trip failed: %v", err)
		}
		if again != a {
			t.Fatal("round trip changed address")
		}
		if !utf8.ValidString(a.String()) {
			t.Fatal("rendered address is not valid UTF-8")
		}
	})
}

func FuzzParseFingerprint(f *testing.F) {
	f.Add("0x" + "ab")
	f.Add("0xabababababababababababababababababababababababababababababababab")

	f.Fuzz(func(t *testing.T, input string) {
		fp, err := ParseFingerprint(input)
		if err != nil {
			return
		}
		again, err := ParseFingerprint(fp.String())
		if err != nil || again != fp {
			t.Fatalf("round trip failed: %v", err)
		}
	})
}
