package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/vault/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractSecretVersion(t *testing.T) {
	tests := []struct {
		name        string
		version     any
		expected    int64
		expectError bool
	}{
		{name: "int64 value", version: int64(42), expected: 42},
		{name: "float64 value", version: float64(42.0), expected: 42},
		{name: "string value", version: "42", expected: 42},
		{name: "invalid string value", version: "not-a-number", expectError: true},
		{name: "unsupported type", version: []string{"42"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			secret := &api.Secret{
				Data: map[string]any{
					"metadata": map[string]any{"version": tt.version},
				},
			}

			version, err := extractSecretVersion(secret, "secret/data/test")
			if tt.expectError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, version)
			}
		})
	}
}

func TestExtractSecretVersionMissingMetadata(t *testing.T) {
	secret := &api.Secret{Data: map[string]any{}}

	_, err := extractSecretVersion(secret, "secret/data/test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing 'metadata' field")
}

func TestResolveVaultToken(t *testing.T) {
	t.Run("direct token", func(t *testing.T) {
		token, err := resolveVaultToken(VaultConfig{Enabled: true, Token: "s.direct"}, nil)
		require.NoError(t, err)
		assert.Equal(t, "s.direct", token)
	})

	t.Run("token from file", func(t *testing.T) {
		tokenFile := filepath.Join(t.TempDir(), "token")
		require.NoError(t, os.WriteFile(tokenFile, []byte("  s.from-file\n"), 0o600))

		token, err := resolveVaultToken(VaultConfig{Enabled: true, TokenFile: tokenFile}, nil)
		require.NoError(t, err)
		assert.Equal(t, "s.from-file", token)
	})

	t.Run("missing token file", func(t *testing.T) {
		_, err := resolveVaultToken(VaultConfig{Enabled: true, TokenFile: "/nonexistent/token"}, nil)
		assert.Error(t, err)
	})

	t.Run("no token at all", func(t *testing.T) {
		_, err := resolveVaultToken(VaultConfig{Enabled: true}, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "vault token is required")
	})
}

func TestNewVaultClientDisabled(t *testing.T) {
	client, err := NewVaultClient(VaultConfig{Enabled: false}, nil)
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestApplyVaultSecretsDisabled(t *testing.T) {
	cfg := defaultTestConfig(t)
	cfg.Vault.Enabled = false

	assert.NoError(t, ApplyVaultSecrets(cfg, nil))
}
