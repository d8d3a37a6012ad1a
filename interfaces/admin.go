package interfaces

import (
	"context"
	"net/url"
)

// IdentityProvider is the identity-provider admin API used by the realm provisioner.
type IdentityProvider interface {
	// AdminToken exchanges administrator credentials for an access token.
	AdminToken(ctx context.Context, username, password string) (string, error)

	// RealmExists reports whether a realm with the given name is already present.
	RealmExists(ctx context.Context, token, realm string) (bool, error)

	// CreateRealm creates the realm described by rep.
	CreateRealm(ctx context.Context, token string, rep RealmRepresentation) error

	// RealmKeys returns the realm's key set.
	RealmKeys(ctx context.Context, token, realm string) (*RealmKeySet, error)

	// IssuerURL returns the token issuer URL of the realm.
	IssuerURL(realm string) string
}

// Gateway is the gateway admin API used by the gateway provisioner.
// Every body is sent form-encoded; values must already be flattened to scalars.
type Gateway interface {
	// ConsumerExists reports whether a consumer with the given username is already present.
	ConsumerExists(ctx context.Context, username string) (bool, error)

	// CreateConsumer creates a consumer.
	CreateConsumer(ctx context.Context, username string) error

	// AddConsumerPlugin attaches a plugin (credential) to a consumer.
	AddConsumerPlugin(ctx context.Context, username, plugin string, form url.Values) error

	// APIExists reports whether a route with the given name is already declared.
	APIExists(ctx context.Context, name string) (bool, error)

	// CreateAPI declares a route.
	CreateAPI(ctx context.Context, form url.Values) error

	// AddAPIPlugin attaches a plugin to a declared route.
	AddAPIPlugin(ctx context.Context, api string, form url.Values) error
}
