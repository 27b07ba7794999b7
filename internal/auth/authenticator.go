package auth

import (
	"context"

	"github.com/esusuhq/esusu/internal/models"
)

// Authenticator defines the interface for authentication implementations.
// This abstraction allows swapping between different auth methods (password,
// wallet signatures, OAuth, etc.) without changing the API layer.
type Authenticator interface {
	// Register creates a new member account with the given email and credential.
	// Returns the created member or an error if registration fails.
	Register(ctx context.Context, email, name, credential string) (*models.Member, error)

	// Authenticate verifies the member's credentials and returns the member
	// if successful.
	Authenticate(ctx context.Context, email, credential string) (*models.Member, error)

	// ValidateCredential checks if the credential meets the implementation's
	// requirements.
	ValidateCredential(credential string) error
}
