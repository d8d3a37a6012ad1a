package clients

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/ruteri/kongcloak/interfaces"
	"github.com/ruteri/kongcloak/metrics"
	"golang.org/x/oauth2"
)

const (
	// KeycloakTarget names the identity provider in errors, logs and metrics.
	KeycloakTarget = "keycloak"

	// AdminClientID is the built-in client used for administrator token exchange.
	AdminClientID = "admin-cli"

	// MasterRealm holds the administrator account.
	MasterRealm = "master"
)

// KeycloakClient implements interfaces.IdentityProvider over the Keycloak admin REST API.
type KeycloakClient struct {
	admin *AdminClient
	log   *slog.Logger
}

var _ interfaces.IdentityProvider = (*KeycloakClient)(nil)

// NewKeycloakClient creates a client for the identity provider at baseURL.
//
// Parameters:
//   - baseURL: Scheme and host of the server (e.g. "http://localhost:8080")
//   - pathPrefix: Prefix of every path, "/auth" on legacy deployments, "" on current ones
//   - log: Structured logger
//   - timeout: Request timeout duration (optional, default 30 seconds)
func NewKeycloakClient(baseURL, pathPrefix string, log *slog.Logger, timeout ...time.Duration) *KeycloakClient {
	return &KeycloakClient{
		admin: NewAdminClient(KeycloakTarget, baseURL+pathPrefix, log, timeout...),
		log:   log,
	}
}

// AdminToken exchanges the administrator credentials for an access token
// using the password grant against the master realm.
//
// Returns:
//   - The bearer access token
//   - *interfaces.AdminAPIError on rejection (e.g. 401 for bad credentials)
//   - *interfaces.TransportError if the server is unreachable
func (c *KeycloakClient) AdminToken(ctx context.Context, username, password string) (string, error) {
	tokenURL := c.admin.URL(fmt.Sprintf("/realms/%s/protocol/openid-connect/token", MasterRealm))

	conf := &oauth2.Config{
		ClientID: AdminClientID,
		Endpoint: oauth2.Endpoint{
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	start := time.Now()
	tok, err := conf.PasswordCredentialsToken(context.WithValue(ctx, oauth2.HTTPClient, c.admin.HTTPClient()), username, password)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			metrics.ObserveAdminRequest(KeycloakTarget, http.MethodPost, retrieveErr.Response.StatusCode, time.Since(start))
			return "", &interfaces.AdminAPIError{
				Target:     KeycloakTarget,
				Method:     http.MethodPost,
				URL:        tokenURL,
				StatusCode: retrieveErr.Response.StatusCode,
				Body:       string(retrieveErr.Body),
			}
		}

		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			metrics.ObserveAdminRequest(KeycloakTarget, http.MethodPost, 0, time.Since(start))
			return "", &interfaces.TransportError{Target: KeycloakTarget, Method: http.MethodPost, URL: tokenURL, Err: err}
		}

		metrics.ObserveAdminRequest(KeycloakTarget, http.MethodPost, http.StatusOK, time.Since(start))
		return "", fmt.Errorf("token exchange with %s failed: %w", tokenURL, err)
	}
	metrics.ObserveAdminRequest(KeycloakTarget, http.MethodPost, http.StatusOK, time.Since(start))

	c.log.Debug("Obtained admin token", slog.String("url", tokenURL), slog.Time("expiry", tok.Expiry))

	return tok.AccessToken, nil
}

// RealmExists reports whether the realm is already present.
func (c *KeycloakClient) RealmExists(ctx context.Context, token, realm string) (bool, error) {
	return c.admin.exists(ctx, "/admin/realms/"+url.PathEscape(realm), token)
}

// CreateRealm creates the realm with its users, roles and clients in one call.
func (c *KeycloakClient) CreateRealm(ctx context.Context, token string, rep interfaces.RealmRepresentation) error {
	_, err := c.admin.Call(ctx, Request{
		Method: http.MethodPost,
		Path:   "/admin/realms",
		Token:  token,
		JSON:   rep,
	}, nil)
	return err
}

// RealmKeys fetches the key set of the realm.
func (c *KeycloakClient) RealmKeys(ctx context.Context, token, realm string) (*interfaces.RealmKeySet, error) {
	var keys interfaces.RealmKeySet
	_, err := c.admin.Call(ctx, Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/admin/realms/%s/keys", url.PathEscape(realm)),
		Token:  token,
	}, &keys)
	if err != nil {
		return nil, err
	}
	return &keys, nil
}

// IssuerURL returns the token issuer of the realm, which the gateway JWT
// credential uses as its key.
func (c *KeycloakClient) IssuerURL(realm string) string {
	return c.admin.URL("/realms/" + realm)
}
