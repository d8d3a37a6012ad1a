package provisioner

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"net/url"
	"testing"

	"github.com/ruteri/kongcloak/interfaces"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockIdentityProvider implements interfaces.IdentityProvider for testing
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) AdminToken(ctx context.Context, username, password string) (string, error) {
	args := m.Called(ctx, username, password)
	return args.String(0), args.Error(1)
}

func (m *MockIdentityProvider) RealmExists(ctx context.Context, token, realm string) (bool, error) {
	args := m.Called(ctx, token, realm)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdentityProvider) CreateRealm(ctx context.Context, token string, rep interfaces.RealmRepresentation) error {
	args := m.Called(ctx, token, rep)
	return args.Error(0)
}

func (m *MockIdentityProvider) RealmKeys(ctx context.Context, token, realm string) (*interfaces.RealmKeySet, error) {
	args := m.Called(ctx, token, realm)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.RealmKeySet), args.Error(1)
}

func (m *MockIdentityProvider) IssuerURL(realm string) string {
	return "http://localhost:8080/auth/realms/" + realm
}

// MockGateway implements interfaces.Gateway for testing
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) ConsumerExists(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockGateway) CreateConsumer(ctx context.Context, username string) error {
	return m.Called(ctx, username).Error(0)
}

func (m *MockGateway) AddConsumerPlugin(ctx context.Context, username, plugin string, form url.Values) error {
	return m.Called(ctx, username, plugin, form).Error(0)
}

func (m *MockGateway) APIExists(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *MockGateway) CreateAPI(ctx context.Context, form url.Values) error {
	return m.Called(ctx, form).Error(0)
}

func (m *MockGateway) AddAPIPlugin(ctx context.Context, api string, form url.Values) error {
	return m.Called(ctx, api, form).Error(0)
}

// testPublicKey returns base64 DER of a fresh RSA public key.
func testPublicKey(t *testing.T) string {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(der)
}

func boolPtr(b bool) *bool { return &b }
