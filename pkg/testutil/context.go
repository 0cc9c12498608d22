package testutil

import (
	"net/http"

	id "idledger/pkg/domain"
	"idledger/pkg/requestcontext"
)

// WithCaller binds account to the request context the way the auth
// middleware does for a validated token.
func WithCaller(req *http.Request, account id.Address) *http.Request {
	return req.WithContext(requestcontext.WithAccount(req.Context(), account))
}

// WithBearer sets the Authorization header.
func WithBearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}
