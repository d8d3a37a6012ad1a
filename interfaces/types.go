package interfaces

// Document is the declarative description of the identity-and-gateway stack
// to provision. It is created once at startup and never mutated afterwards.
type Document struct {
	// Keycloak describes the identity provider connection and the realm to create.
	Keycloak KeycloakSection `json:"keycloak"`

	// Kong describes the gateway connection, its consumers and its endpoints.
	Kong KongSection `json:"kong"`
}

// KeycloakSection holds the identity provider connection info and realm descriptor.
type KeycloakSection struct {
	// Host is host[:port], a full base URL, or an "srv+" service name.
	Host string `json:"host,omitempty"`

	// PathPrefix is prepended to every admin path, "/auth" for legacy deployments.
	PathPrefix *string `json:"pathPrefix,omitempty"`

	Credentials Credentials `json:"credentials,omitempty"`
	Realm       Realm       `json:"realm"`
}

// Credentials are the administrator username and password for the master realm.
type Credentials struct {
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// Realm is an isolated identity-provider tenant.
type Realm struct {
	Name                string   `json:"name"`
	RegistrationAllowed bool     `json:"registrationAllowed,omitempty"`
	SSLRequired         string   `json:"sslRequired,omitempty"`
	RequiredCredentials []string `json:"requiredCredentials,omitempty"`
	Users               []User   `json:"users,omitempty"`
	Roles               []string `json:"roles,omitempty"`
	Clients             []Client `json:"clients,omitempty"`
}

// User is a realm user. Password is plaintext unless it is a secret reference.
type User struct {
	Username string   `json:"username"`
	Password string   `json:"password,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

// Client is an OAuth client registered in the realm.
type Client struct {
	Name         string   `json:"name"`
	Redirects    []string `json:"redirects,omitempty"`
	Origins      []string `json:"origins,omitempty"`
	PublicClient *bool    `json:"publicClient,omitempty"`
}

// KongSection holds the gateway connection info and the resources to declare on it.
type KongSection struct {
	Host      string     `json:"host,omitempty"`
	Consumers []Consumer `json:"consumers,omitempty"`
	Endpoints []Endpoint `json:"endpoints,omitempty"`
}

// Consumer is a gateway-side identity representing a caller.
type Consumer struct {
	Username string   `json:"username"`
	Plugins  []Plugin `json:"plugins,omitempty"`
}

// Endpoint maps public URI patterns to an upstream service URL.
type Endpoint struct {
	Name         string   `json:"name"`
	URL          string   `json:"url"`
	Route        []string `json:"route,omitempty"`
	Hosts        []string `json:"hosts,omitempty"`
	Methods      []string `json:"methods,omitempty"`
	StripURI     *bool    `json:"stripUri,omitempty"`
	PreserveHost *bool    `json:"preserveHost,omitempty"`
	Plugins      []Plugin `json:"plugins,omitempty"`
}

// Plugin is a named, configurable behavior attached to a consumer or a route.
// Config values are scalars, ordered lists or nested mappings as decoded from
// the document.
type Plugin struct {
	Name   string         `json:"name"`
	Config map[string]any `json:"config,omitempty"`
}

// JWTPluginName identifies the JWT verification plugin at the gateway.
const JWTPluginName = "jwt"

// RealmKey is one entry of the realm key-set response.
type RealmKey struct {
	Kid         string `json:"kid,omitempty"`
	Type        string `json:"type,omitempty"`
	Algorithm   string `json:"algorithm,omitempty"`
	PublicKey   string `json:"publicKey,omitempty"`
	Certificate string `json:"certificate,omitempty"`
}

// RealmKeySet is the realm key-set response.
type RealmKeySet struct {
	Keys []RealmKey `json:"keys"`
}

// RealmRepresentation is the body of the realm-creation call.
type RealmRepresentation struct {
	Realm               string                 `json:"realm"`
	Enabled             bool                   `json:"enabled"`
	RegistrationAllowed bool                   `json:"registrationAllowed"`
	SSLRequired         string                 `json:"sslRequired,omitempty"`
	RequiredCredentials []string               `json:"requiredCredentials,omitempty"`
	Users               []UserRepresentation   `json:"users,omitempty"`
	Roles               *RolesRepresentation   `json:"roles,omitempty"`
	Clients             []ClientRepresentation `json:"clients,omitempty"`
}

// UserRepresentation is a realm user with inline credentials.
type UserRepresentation struct {
	Username    string                     `json:"username"`
	Enabled     bool                       `json:"enabled"`
	Credentials []CredentialRepresentation `json:"credentials,omitempty"`
	RealmRoles  []string                   `json:"realmRoles,omitempty"`
}

// CredentialRepresentation is an inline user credential.
type CredentialRepresentation struct {
	Type      string `json:"type"`
	Value     string `json:"value"`
	Temporary bool   `json:"temporary"`
}

// RolesRepresentation groups realm-level roles.
type RolesRepresentation struct {
	Realm []RoleRepresentation `json:"realm"`
}

// RoleRepresentation is a single realm role.
type RoleRepresentation struct {
	Name string `json:"name"`
}

// ClientRepresentation is an OAuth client of the realm.
type ClientRepresentation struct {
	ClientID     string   `json:"clientId"`
	Enabled      bool     `json:"enabled"`
	PublicClient bool     `json:"publicClient"`
	RedirectURIs []string `json:"redirectUris,omitempty"`
	WebOrigins   []string `json:"webOrigins,omitempty"`
}
