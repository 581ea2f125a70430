package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	require.NoError(t, cfg.Validate())
	assert.False(t, cfg.AuthEnabled())
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, AuthModeDisabled, cfg.Mode)
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.AuthEnabled())
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token is empty")
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	assert.Error(t, cfg.Validate())
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	assert.Error(t, cfg.Validate())
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ":3000", cfg.App.HTTP.Address())
}

func TestDatabaseConfig(t *testing.T) {
	for _, driver := range []string{"sqlite", "sqlite3", "postgres", "pgx"} {
		cfg := DatabaseConfig{Driver: driver, DSN: "x"}
		assert.NoError(t, cfg.Validate(), "driver %q", driver)
	}
	assert.Error(t, (&DatabaseConfig{Driver: "mysql", DSN: "x"}).Validate())
	assert.Error(t, (&DatabaseConfig{Driver: "sqlite"}).Validate(), "empty dsn")
}

func TestCORSConfig(t *testing.T) {
	ok := CORSConfig{AllowedOrigins: []string{"*", "http://localhost:5173"}}
	assert.NoError(t, ok.Validate())
	bad := CORSConfig{AllowedOrigins: []string{"not a url"}}
	assert.Error(t, bad.Validate())
}

func TestImportConfig_WatchNeedsDir(t *testing.T) {
	cfg := ImportConfig{Watch: true}
	require.Error(t, cfg.Validate())
	cfg.Dir = "./recipes"
	assert.NoError(t, cfg.Validate())
}
