package secrets

import (
	"context"
	"errors"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestResolveSource(t *testing.T) {
	tests := []struct {
		source SecretSource
		env    string
		want   SecretSource
	}{
		{SourceAuto, "development", SourceEnvironment},
		{SourceAuto, "test", SourceEnvironment},
		{SourceAuto, "", SourceEnvironment},
		{SourceAuto, "production", SourceVault},
		{SourceAuto, "staging", SourceVault},
		{SourceEnvironment, "production", SourceEnvironment},
		{SourceVault, "development", SourceVault},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, ResolveSource(tc.source, tc.env), "%s/%s", tc.source, tc.env)
	}
}

type mapGetter map[string]string

func (m mapGetter) GetSecret(_ context.Context, name string) (string, error) {
	v, ok := m[name]
	if !ok {
		return "", errors.New("secret not found")
	}
	return v, nil
}

func TestProvider_Environment(t *testing.T) {
	p, err := NewProvider(&ProviderConfig{Source: SourceAuto, Environment: "test"}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, SourceEnvironment, p.Source())

	t.Setenv("VENDOR_PORTAL_TEST_SECRET", "from-env")
	value, err := p.GetSecret(context.Background(), "VENDOR_PORTAL_TEST_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "from-env", value)

	_, err = p.GetSecret(context.Background(), "VENDOR_PORTAL_MISSING_SECRET")
	assert.ErrorContains(t, err, "not set")
}

func TestProvider_VaultGetter(t *testing.T) {
	ctx := context.Background()
	p := NewProviderWithGetter(mapGetter{"jwt-secret": "vault-value"}, zap.NewNop())
	assert.Equal(t, SourceVault, p.Source())

	value, err := p.GetSecretOrEnv(ctx, "jwt-secret", "VENDOR_PORTAL_JWT_OVERRIDE")
	require.NoError(t, err)
	assert.Equal(t, "vault-value", value)

	t.Setenv("VENDOR_PORTAL_JWT_OVERRIDE", "env-value")
	value, err = p.GetSecretOrEnv(ctx, "jwt-secret", "VENDOR_PORTAL_JWT_OVERRIDE")
	require.NoError(t, err)
	assert.Equal(t, "env-value", value)

	_, err = p.GetSecret(ctx, "unknown")
	assert.Error(t, err)
}

func TestNewVaultClient_RequiresName(t *testing.T) {
	_, err := NewVaultClient(&VaultConfig{}, zap.NewNop())
	assert.ErrorContains(t, err, "vault name")
}

type fakeSecretClient struct {
	values map[string]*string
	calls  int
}

func (f *fakeSecretClient) GetSecret(_ context.Context, name string, _ string, _ *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error) {
	f.calls++
	v, ok := f.values[name]
	if !ok {
		return azsecrets.GetSecretResponse{}, errors.New("SecretNotFound")
	}
	return azsecrets.GetSecretResponse{Secret: azsecrets.Secret{Value: v}}, nil
}

func TestVaultClient_Cache(t *testing.T) {
	ctx := context.Background()
	value := "s3cret"
	fake := &fakeSecretClient{values: map[string]*string{"db-password": &value, "empty": nil}}
	v := newVaultClient(fake, &VaultConfig{CacheEnabled: true}, zap.NewNop())

	got, err := v.GetSecret(ctx, "db-password")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", got)

	_, err = v.GetSecret(ctx, "db-password")
	require.NoError(t, err)
	assert.Equal(t, 1, fake.calls, "second read is served from cache")

	v.ClearCache()
	_, err = v.GetSecret(ctx, "db-password")
	require.NoError(t, err)
	assert.Equal(t, 2, fake.calls)

	_, err = v.GetSecret(ctx, "empty")
	assert.ErrorContains(t, err, "has no value")

	_, err = v.GetSecret(ctx, "missing")
	assert.ErrorContains(t, err, "missing")
}

func TestVaultClient_NoCache(t *testing.T) {
	value := "v"
	fake := &fakeSecretClient{values: map[string]*string{"k": &value}}
	v := newVaultClient(fake, &VaultConfig{}, zap.NewNop())

	for i := 0; i < 3; i++ {
		_, err := v.GetSecret(context.Background(), "k")
		require.NoError(t, err)
	}
	assert.Equal(t, 3, fake.calls)
}
