package provisioner

import (
	"context"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ruteri/kongcloak/interfaces"
)

// Mode selects how existing remote resources are treated.
type Mode string

const (
	// ModeUpsert checks for existing realms, consumers and routes before
	// creating them and tolerates plugins that are already attached.
	ModeUpsert Mode = "upsert"

	// ModeCreate always creates; duplicates surface as AdminAPIError.
	ModeCreate Mode = "create"
)

// ParseMode parses a mode name, empty meaning ModeUpsert.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeUpsert:
		return ModeUpsert, nil
	case ModeCreate:
		return ModeCreate, nil
	default:
		return "", fmt.Errorf("unknown mode %q, expected %q or %q", s, ModeUpsert, ModeCreate)
	}
}

const (
	pemHeader = "-----BEGIN PUBLIC KEY-----"
	pemFooter = "-----END PUBLIC KEY-----"
)

// ErrNoPublicKey is returned when the realm key set carries no public key.
var ErrNoPublicKey = errors.New("realm key set has no public key")

// RealmProvisioner authenticates against the identity provider, creates the
// realm and fetches its public signing key.
type RealmProvisioner struct {
	IDP      interfaces.IdentityProvider
	Document *interfaces.Document
	Mode     Mode
	Log      *slog.Logger
}

// Authenticate exchanges the administrator credentials for a token and stores it in sess.
func (p *RealmProvisioner) Authenticate(ctx context.Context, sess *Session) error {
	creds := p.Document.Keycloak.Credentials
	token, err := p.IDP.AdminToken(ctx, creds.Username, creds.Password)
	if err != nil {
		return fmt.Errorf("authenticate as %s: %w", creds.Username, err)
	}

	p.Log.Info("Authenticated with identity provider", slog.String("username", creds.Username))
	return sess.SetToken(token)
}

// CreateRealm creates the realm described by the document. In upsert mode an
// existing realm is left unchanged.
func (p *RealmProvisioner) CreateRealm(ctx context.Context, sess *Session) error {
	token, err := sess.Token()
	if err != nil {
		return err
	}

	name := p.Document.Keycloak.Realm.Name
	if p.Mode != ModeCreate {
		exists, err := p.IDP.RealmExists(ctx, token, name)
		if err != nil {
			return fmt.Errorf("check realm %s: %w", name, err)
		}
		if exists {
			p.Log.Info("Realm already exists, leaving it unchanged", slog.String("realm", name))
			return nil
		}
	}

	if err := p.IDP.CreateRealm(ctx, token, RealmRepresentation(p.Document.Keycloak.Realm)); err != nil {
		return fmt.Errorf("create realm %s: %w", name, err)
	}

	p.Log.Info("Created realm",
		slog.String("realm", name),
		slog.Int("users", len(p.Document.Keycloak.Realm.Users)),
		slog.Int("clients", len(p.Document.Keycloak.Realm.Clients)))
	return nil
}

// FetchPublicKey fetches the realm key set and stores the first public key, PEM-wrapped, in sess.
func (p *RealmProvisioner) FetchPublicKey(ctx context.Context, sess *Session) error {
	token, err := sess.Token()
	if err != nil {
		return err
	}

	name := p.Document.Keycloak.Realm.Name
	keys, err := p.IDP.RealmKeys(ctx, token, name)
	if err != nil {
		return fmt.Errorf("fetch keys of realm %s: %w", name, err)
	}

	for _, key := range keys.Keys {
		if key.PublicKey == "" {
			continue
		}

		pem, err := WrapPublicKey(key.PublicKey)
		if err != nil {
			return fmt.Errorf("realm %s key %s: %w", name, key.Kid, err)
		}

		p.Log.Info("Fetched realm public key",
			slog.String("realm", name),
			slog.String("kid", key.Kid),
			slog.String("algorithm", key.Algorithm))
		return sess.SetPublicKey(pem)
	}

	return fmt.Errorf("realm %s: %w", name, ErrNoPublicKey)
}

// Steps returns the realm stages in pipeline order.
func (p *RealmProvisioner) Steps(sess *Session) []Step {
	return []Step{
		{Name: "authenticate", Run: func(ctx context.Context) error { return p.Authenticate(ctx, sess) }},
		{Name: "create-realm", Run: func(ctx context.Context) error { return p.CreateRealm(ctx, sess) }},
		{Name: "fetch-public-key", Run: func(ctx context.Context) error { return p.FetchPublicKey(ctx, sess) }},
	}
}

// RealmRepresentation maps the document realm to the realm-creation body.
func RealmRepresentation(realm interfaces.Realm) interfaces.RealmRepresentation {
	rep := interfaces.RealmRepresentation{
		Realm:               realm.Name,
		Enabled:             true,
		RegistrationAllowed: realm.RegistrationAllowed,
		SSLRequired:         realm.SSLRequired,
		RequiredCredentials: realm.RequiredCredentials,
	}

	for _, user := range realm.Users {
		u := interfaces.UserRepresentation{
			Username:   user.Username,
			Enabled:    true,
			RealmRoles: user.Roles,
		}
		if user.Password != "" {
			u.Credentials = []interfaces.CredentialRepresentation{{Type: "password", Value: user.Password}}
		}
		rep.Users = append(rep.Users, u)
	}

	if len(realm.Roles) > 0 {
		rep.Roles = &interfaces.RolesRepresentation{}
		for _, role := range realm.Roles {
			rep.Roles.Realm = append(rep.Roles.Realm, interfaces.RoleRepresentation{Name: role})
		}
	}

	for _, client := range realm.Clients {
		public := true
		if client.PublicClient != nil {
			public = *client.PublicClient
		}
		rep.Clients = append(rep.Clients, interfaces.ClientRepresentation{
			ClientID:     client.Name,
			Enabled:      true,
			PublicClient: public,
			RedirectURIs: client.Redirects,
			WebOrigins:   client.Origins,
		})
	}

	return rep
}

// WrapPublicKey checks that material is a base64 DER PKIX public key and
// wraps it in a PEM envelope with the material on a single internal line.
func WrapPublicKey(material string) (string, error) {
	material = strings.TrimSpace(material)

	der, err := base64.StdEncoding.DecodeString(material)
	if err != nil {
		return "", fmt.Errorf("public key is not base64: %w", err)
	}
	if _, err := x509.ParsePKIXPublicKey(der); err != nil {
		return "", fmt.Errorf("public key is not a PKIX key: %w", err)
	}

	return pemHeader + "\n" + material + "\n" + pemFooter, nil
}
