package configresolver

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/ruteri/kongcloak/interfaces"
	"github.com/ruteri/kongcloak/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const demoDocument = `
keycloak:
  realm:
    name: demo
    registrationAllowed: true
    roles: [subscribed]
    users:
      - username: alice
        password: secret
        roles: [subscribed]
    clients:
      - name: demo-client
        redirects: ["http://localhost:3000/*"]
        origins: ["http://localhost:3000"]
kong:
  consumers:
    - username: demo-client
      plugins:
        - name: jwt
  endpoints:
    - name: data
      url: http://localhost:3001
      route: [/data]
      plugins:
        - name: cors
          config:
            origins: ["http://localhost:3000"]
            credentials: true
`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func noEnv(string) (string, bool) { return "", false }

func writeDocument(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kongcloak.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	doc, err := Load(context.Background(), discardLogger(), LoadOptions{
		Path:      writeDocument(t, demoDocument),
		LookupEnv: noEnv,
	})
	require.NoError(t, err)

	assert.Equal(t, "localhost:8080", doc.Keycloak.Host)
	assert.Equal(t, "/auth", *doc.Keycloak.PathPrefix)
	assert.Equal(t, interfaces.Credentials{Username: "admin", Password: "admin"}, doc.Keycloak.Credentials)
	assert.Equal(t, "localhost:8001", doc.Kong.Host)

	realm := doc.Keycloak.Realm
	assert.Equal(t, "demo", realm.Name)
	assert.True(t, realm.RegistrationAllowed)
	assert.Equal(t, "external", realm.SSLRequired)
	assert.Equal(t, []string{"password"}, realm.RequiredCredentials)
	require.Len(t, realm.Clients, 1)
	assert.True(t, *realm.Clients[0].PublicClient)

	require.Len(t, doc.Kong.Endpoints, 1)
	cors := doc.Kong.Endpoints[0].Plugins[0]
	assert.Equal(t, "cors", cors.Name)
	assert.Equal(t, []any{"http://localhost:3000"}, cors.Config["origins"])
	assert.Equal(t, true, cors.Config["credentials"])
}

func TestLoad_EnvAndOverrides(t *testing.T) {
	env := map[string]string{
		EnvKeycloakHost:     "keycloak:8080",
		EnvKeycloakUsername: "root",
		EnvKeycloakPassword: "hunter2",
		EnvKongHost:         "kong:8001",
	}
	lookup := func(name string) (string, bool) {
		v, ok := env[name]
		return v, ok
	}

	doc, err := Load(context.Background(), discardLogger(), LoadOptions{
		Path:      writeDocument(t, "keycloak:\n  host: ignored:1\n  realm: {name: demo}\n"),
		LookupEnv: lookup,
		Overrides: Overrides{KongHost: "gateway:9001"},
	})
	require.NoError(t, err)

	assert.Equal(t, "keycloak:8080", doc.Keycloak.Host)
	assert.Equal(t, "root", doc.Keycloak.Credentials.Username)
	assert.Equal(t, "hunter2", doc.Keycloak.Credentials.Password)
	assert.Equal(t, "gateway:9001", doc.Kong.Host)
}

func TestLoad_PathPrefixCanBeEmpty(t *testing.T) {
	doc, err := Load(context.Background(), discardLogger(), LoadOptions{
		Path:      writeDocument(t, "keycloak:\n  pathPrefix: \"\"\n  realm: {name: demo}\n"),
		LookupEnv: noEnv,
	})
	require.NoError(t, err)
	assert.Equal(t, "", *doc.Keycloak.PathPrefix)
}

func TestLoad_JSONDocument(t *testing.T) {
	doc, err := Load(context.Background(), discardLogger(), LoadOptions{
		Path:      writeDocument(t, `{"keycloak":{"realm":{"name":"demo"}},"kong":{"consumers":[{"username":"c"}]}}`),
		LookupEnv: noEnv,
	})
	require.NoError(t, err)
	assert.Equal(t, "c", doc.Kong.Consumers[0].Username)
}

func TestLoad_PluginConfigPresence(t *testing.T) {
	doc, err := Load(context.Background(), discardLogger(), LoadOptions{
		Path:      writeDocument(t, "keycloak:\n  realm: {name: demo}\nkong:\n  consumers:\n    - username: demo\n      plugins: [{name: jwt}, {name: jwt, config: {}}]\n"),
		LookupEnv: noEnv,
	})
	require.NoError(t, err)

	plugins := doc.Kong.Consumers[0].Plugins
	require.Len(t, plugins, 2)
	assert.Nil(t, plugins[0].Config)
	assert.NotNil(t, plugins[1].Config)
	assert.Empty(t, plugins[1].Config)
}

func TestLoad_ExampleDocument(t *testing.T) {
	doc, err := Load(context.Background(), discardLogger(), LoadOptions{
		Path:      filepath.Join("..", "examples", "kongcloak.yaml"),
		LookupEnv: noEnv,
	})
	require.NoError(t, err)

	assert.Equal(t, "demo", doc.Keycloak.Realm.Name)
	assert.Len(t, doc.Keycloak.Realm.Users, 2)
	require.Len(t, doc.Kong.Endpoints, 1)
	require.Len(t, doc.Kong.Endpoints[0].Plugins, 2)
	assert.Equal(t, float64(3600), doc.Kong.Endpoints[0].Plugins[1].Config["max_age"])
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name      string
		document  string
		wantField string
	}{
		{name: "empty document", document: "", wantField: ""},
		{name: "malformed yaml", document: "keycloak: [unclosed", wantField: ""},
		{name: "not a mapping", document: "- a\n- b\n", wantField: ""},
		{name: "unknown field", document: "keycloak:\n  realm: {name: demo, colour: red}\n", wantField: ""},
		{name: "missing realm name", document: "keycloak:\n  realm: {}\n", wantField: "keycloak.realm.name"},
		{name: "user without username", document: "keycloak:\n  realm:\n    name: demo\n    users: [{password: x}]\n", wantField: "keycloak.realm.users[0].username"},
		{name: "client without name", document: "keycloak:\n  realm:\n    name: demo\n    clients: [{origins: [x]}]\n", wantField: "keycloak.realm.clients[0].name"},
		{name: "consumer plugin without name", document: "keycloak:\n  realm: {name: demo}\nkong:\n  consumers: [{username: c, plugins: [{config: {a: 1}}]}]\n", wantField: "kong.consumers[0].plugins[0].name"},
		{name: "endpoint without url", document: "keycloak:\n  realm: {name: demo}\nkong:\n  endpoints:\n    - {name: a, url: 'http://a'}\n    - {name: b}\n", wantField: "kong.endpoints[1].url"},
		{name: "endpoint with relative url", document: "keycloak:\n  realm: {name: demo}\nkong:\n  endpoints: [{name: a, url: /data}]\n", wantField: "kong.endpoints[0].url"},
		{name: "secret ref without store", document: "keycloak:\n  realm:\n    name: demo\n    users: [{username: a, password: __SECRET_REF_a}]\n", wantField: "keycloak.realm.users[0].password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(context.Background(), discardLogger(), LoadOptions{
				Path:      writeDocument(t, tt.document),
				LookupEnv: noEnv,
			})
			require.Error(t, err)

			var cfgErr *interfaces.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.wantField, cfgErr.Field)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(context.Background(), discardLogger(), LoadOptions{
		Path:      filepath.Join(t.TempDir(), "absent.yaml"),
		LookupEnv: noEnv,
	})

	var cfgErr *interfaces.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_FromStores(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewFileBackend(t.TempDir(), discardLogger())
	require.NoError(t, err)

	document := "keycloak:\n  credentials: {password: __SECRET_REF_admin-password}\n  realm:\n    name: demo\n    users:\n      - {username: alice, password: __SECRET_REF_alice}\n      - {username: bob, password: 'pre/__SECRET_REF_alice/post'}\n"
	_, err = store.Store(ctx, "demo.yaml", []byte(document), interfaces.DocumentType)
	require.NoError(t, err)
	_, err = store.Store(ctx, "admin-password", []byte("s3cret\n"), interfaces.SecretType)
	require.NoError(t, err)
	_, err = store.Store(ctx, "alice", []byte("wonderland"), interfaces.SecretType)
	require.NoError(t, err)

	doc, err := Load(ctx, discardLogger(), LoadOptions{
		Path:          "demo.yaml",
		DocumentStore: store,
		SecretStore:   store,
		LookupEnv:     noEnv,
	})
	require.NoError(t, err)

	assert.Equal(t, "s3cret", doc.Keycloak.Credentials.Password)
	assert.Equal(t, "wonderland", doc.Keycloak.Realm.Users[0].Password)
	assert.Equal(t, "pre/wonderland/post", doc.Keycloak.Realm.Users[1].Password)
}

func TestLoad_OverlappingSecretNames(t *testing.T) {
	store, err := storage.NewFileBackend(t.TempDir(), discardLogger())
	require.NoError(t, err)
	ctx := context.Background()
	_, err = store.Store(ctx, "db", []byte("A"), interfaces.SecretType)
	require.NoError(t, err)
	_, err = store.Store(ctx, "db2", []byte("B"), interfaces.SecretType)
	require.NoError(t, err)

	doc, err := Load(ctx, discardLogger(), LoadOptions{
		Path:        writeDocument(t, "keycloak:\n  realm:\n    name: demo\n    users:\n      - {username: a, password: '__SECRET_REF_db:__SECRET_REF_db2'}\n      - {username: b, password: '__SECRET_REF_db2/__SECRET_REF_db'}\n"),
		SecretStore: store,
		LookupEnv:   noEnv,
	})
	require.NoError(t, err)

	assert.Equal(t, "A:B", doc.Keycloak.Realm.Users[0].Password)
	assert.Equal(t, "B/A", doc.Keycloak.Realm.Users[1].Password)
}

func TestLoad_UnresolvableSecret(t *testing.T) {
	store, err := storage.NewFileBackend(t.TempDir(), discardLogger())
	require.NoError(t, err)

	_, err = Load(context.Background(), discardLogger(), LoadOptions{
		Path:        writeDocument(t, "keycloak:\n  realm:\n    name: demo\n    users: [{username: a, password: __SECRET_REF_missing}]\n"),
		SecretStore: store,
		LookupEnv:   noEnv,
	})

	var cfgErr *interfaces.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "keycloak.realm.users[0].password", cfgErr.Field)
	assert.Contains(t, cfgErr.Error(), "missing")
}

func TestFindReferences(t *testing.T) {
	refs := FindReferences("a __SECRET_REF_one and __SECRET_REF_two.v2 but not __SECRET_REF_")
	assert.Equal(t, []Reference{
		{FullRef: "__SECRET_REF_one", Name: "one"},
		{FullRef: "__SECRET_REF_two.v2", Name: "two.v2"},
	}, refs)
}
