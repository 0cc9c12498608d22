package service

import (
	"context"

	id "idledger/pkg/domain"
)

// RegistrationCache remembers accounts known to be registered. A false
// result means unknown; the store stays authoritative.
type RegistrationCache interface {
	IsRegistered(ctx context.Context, account id.Address) (bool, error)
	MarkRegistered(ctx context.Context, account id.Address) error
}
