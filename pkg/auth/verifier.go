package auth

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// DefaultDisplayName is the name given to users who sign in without
// registering.
const DefaultDisplayName = "Fitness User"

// CredentialVerifier turns credentials into a user record. It is the
// boundary where a real identity provider would plug in.
type CredentialVerifier interface {
	SignIn(ctx context.Context, creds Credentials) (User, error)
	SignUp(ctx context.Context, reg Registration) (User, error)
}

// SimulatedVerifier accepts any credentials. The user ID is a name-based
// UUID of the email address, so signing in twice with the same email yields
// the same ID.
type SimulatedVerifier struct{}

var _ CredentialVerifier = SimulatedVerifier{}

// SignIn returns a user with the default display name and no avatar.
func (SimulatedVerifier) SignIn(_ context.Context, creds Credentials) (User, error) {
	return User{
		ID:    userID(creds.Email),
		Name:  DefaultDisplayName,
		Email: creds.Email,
	}, nil
}

// SignUp returns a user with the registered name and no avatar.
func (SimulatedVerifier) SignUp(_ context.Context, reg Registration) (User, error) {
	return User{
		ID:    userID(reg.Email),
		Name:  reg.Name,
		Email: reg.Email,
	}, nil
}

func userID(email string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+strings.ToLower(strings.TrimSpace(email)))).String()
}
