// Package auth registers and authenticates users and issues the JWTs the RPC
// layer checks on every authenticated call.
package auth

import (
	"context"

	"github.com/mmynk/groupledger/internal/models"
)

// Authenticator registers and verifies users. Implementations differ in the
// credential they accept.
type Authenticator interface {
	// Register creates a user. Emails are matched case-insensitively.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate returns the user if the credential matches.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential checks a credential before it is stored.
	ValidateCredential(credential string) error
}
