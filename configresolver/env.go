package configresolver

import (
	"github.com/ruteri/kongcloak/interfaces"
)

// Environment variables overriding the document connection settings.
const (
	EnvKeycloakHost     = "KEYCLOAK_HOST"
	EnvKeycloakUsername = "KEYCLOAK_USERNAME"
	EnvKeycloakPassword = "KEYCLOAK_PASSWORD"
	EnvKongHost         = "KONG_HOST"
)

// Defaults for settings absent from the document and the environment.
const (
	DefaultKeycloakHost     = "localhost:8080"
	DefaultKeycloakUsername = "admin"
	DefaultKeycloakPassword = "admin"
	DefaultKongHost         = "localhost:8001"
	DefaultPathPrefix       = "/auth"
	DefaultSSLRequired      = "external"
	PasswordCredential      = "password"
)

// ApplyEnv overrides connection settings from the environment. Empty values are ignored.
func ApplyEnv(doc *interfaces.Document, lookup func(string) (string, bool)) {
	set := func(dst *string, name string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}

	set(&doc.Keycloak.Host, EnvKeycloakHost)
	set(&doc.Keycloak.Credentials.Username, EnvKeycloakUsername)
	set(&doc.Keycloak.Credentials.Password, EnvKeycloakPassword)
	set(&doc.Kong.Host, EnvKongHost)
}

// ApplyOverrides applies explicitly provided settings.
func ApplyOverrides(doc *interfaces.Document, o Overrides) {
	if o.KeycloakHost != "" {
		doc.Keycloak.Host = o.KeycloakHost
	}
	if o.KeycloakUsername != "" {
		doc.Keycloak.Credentials.Username = o.KeycloakUsername
	}
	if o.KeycloakPassword != "" {
		doc.Keycloak.Credentials.Password = o.KeycloakPassword
	}
	if o.KongHost != "" {
		doc.Kong.Host = o.KongHost
	}
}

// ApplyDefaults fills every optional setting left unset.
func ApplyDefaults(doc *interfaces.Document) {
	if doc.Keycloak.Host == "" {
		doc.Keycloak.Host = DefaultKeycloakHost
	}
	if doc.Keycloak.PathPrefix == nil {
		prefix := DefaultPathPrefix
		doc.Keycloak.PathPrefix = &prefix
	}
	if doc.Keycloak.Credentials.Username == "" {
		doc.Keycloak.Credentials.Username = DefaultKeycloakUsername
	}
	if doc.Keycloak.Credentials.Password == "" {
		doc.Keycloak.Credentials.Password = DefaultKeycloakPassword
	}
	if doc.Kong.Host == "" {
		doc.Kong.Host = DefaultKongHost
	}

	realm := &doc.Keycloak.Realm
	if realm.SSLRequired == "" {
		realm.SSLRequired = DefaultSSLRequired
	}
	if len(realm.RequiredCredentials) == 0 {
		realm.RequiredCredentials = []string{PasswordCredential}
	}
	for i := range realm.Clients {
		if realm.Clients[i].PublicClient == nil {
			public := true
			realm.Clients[i].PublicClient = &public
		}
	}
}
