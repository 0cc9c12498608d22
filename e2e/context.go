package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "idledger/pkg/domain"
)

// TestContext drives one scenario against a running ledger server.
type TestContext struct {
	BaseURL    string
	SigningKey string
	Issuer     string
	Audience   string
	Admin      id.Address

	// scenario namespaces actor addresses so scenarios never collide on a
	// shared server.
	scenario string
	http     *http.Client

	lastStatus int
	lastBody   []byte
}

func NewTestContext(baseURL, signingKey, issuer, audience string, admin id.Address) *TestContext {
	return &TestContext{
		BaseURL:    baseURL,
		SigningKey: signingKey,
		Issuer:     issuer,
		Audience:   audience,
		Admin:      admin,
		http:       &http.Client{Timeout: 10 * time.Second},
	}
}

// Reset starts a fresh scenario namespace.
func (tc *TestContext) Reset() {
	tc.scenario = uuid.NewString()
	tc.lastStatus = 0
	tc.lastBody = nil
}

// Address maps an actor name to a stable per-scenario address. "admin" is
// the server's administrator.
func (tc *TestContext) Address(actor string) id.Address {
	if actor == "admin" {
		return tc.Admin
	}
	digest := id.DeriveFingerprint([]byte(actor), []byte(tc.scenario))
	var a id.Address
	copy(a[:], digest[:id.AddressLength])
	return a
}

// Token mints a bearer token for actor with the server's signing key.
func (tc *TestContext) Token(actor string) (string, error) {
	now := time.Now()
	return jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   tc.Address(actor).String(),
		Issuer:    tc.Issuer,
		Audience:  jwt.ClaimStrings{tc.Audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(5 * time.Minute)),
		ID:        uuid.NewString(),
	}).SignedString([]byte(tc.SigningKey))
}

func (tc *TestContext) Do(method, path, actor string, body any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, tc.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if actor != "" {
		token, err := tc.Token(actor)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := tc.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	tc.lastStatus = resp.StatusCode
	tc.lastBody, err = io.ReadAll(resp.Body)
	return err
}

func (tc *TestContext) StatusCode() int {
	return tc.lastStatus
}

func (tc *TestContext) Body() []byte {
	return tc.lastBody
}

// GetResponseField returns a top-level field of the last JSON response.
func (tc *TestContext) GetResponseField(field string) (any, error) {
	var decoded map[string]any
	if err := json.Unmarshal(tc.lastBody, &decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w (body: %s)", err, tc.lastBody)
	}
	v, ok := decoded[field]
	if !ok {
		return nil, fmt.Errorf("field %q not in response: %s", field, tc.lastBody)
	}
	return v, nil
}
