package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesCodeAndReason(t *testing.T) {
	errAlready := NewReason(CodeConflict, "already_registered", "identity already registered")
	errDuplicate := NewReason(CodeConflict, "duplicate_attestation", "already attested")

	wrapped := fmt.Errorf("register: %w", errAlready)

	assert.True(t, errors.Is(wrapped, errAlready))
	assert.False(t, errors.Is(wrapped, errDuplicate))
	assert.True(t, errors.Is(wrapped, New(CodeConflict, "")), "reasonless target matches on code")
	assert.False(t, errors.Is(wrapped, New(CodeNotFound, "")))
}

func TestHasCodeAndReasonOf(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(cause, CodeInternal, "failed to load identity")

	assert.True(t, HasCode(err, CodeInternal))
	assert.False(t, HasCode(err, CodeNotFound))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "", ReasonOf(err))
	assert.Equal(t, "failed to load identity: connection reset", err.Error())

	reasoned := Wrap(NewReason(CodeNotFound, "unknown_identity", "no identity"), CodeNotFound, "lookup failed")
	assert.Equal(t, "unknown_identity", ReasonOf(reasoned))
	assert.False(t, HasCode(errors.New("plain"), CodeInternal))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeBadRequest:         http.StatusBadRequest,
		CodeValidation:         http.StatusBadRequest,
		CodeUnauthorized:       http.StatusUnauthorized,
		CodeForbidden:          http.StatusForbidden,
		CodeNotFound:           http.StatusNotFound,
		CodeConflict:           http.StatusConflict,
		CodeInvariantViolation: http.StatusUnprocessableEntity,
		CodeTimeout:            http.StatusGatewayTimeout,
		CodeInternal:           http.StatusInternalServerError,
		Code("unknown"):        http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), string(code))
	}
}
