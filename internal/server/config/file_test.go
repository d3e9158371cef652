package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestParseFile_JSON(t *testing.T) {
	path := writeFile(t, "server.json", `{
		"endpoint_addr_http": ":9999",
		"access_token_validity_duration": "10m",
		"presign_expiry": "5m",
		"s3_use_ssl": true,
		"max_file_size": 1024,
		"cors_origins": ["https://app.example"]
	}`)

	var c Config
	c.LoadDefaults()
	require.NoError(t, parseFile(&c, []string{"-config", path}))

	assert.Equal(t, ":9999", c.EndpointAddrHTTP)
	assert.Equal(t, 10*time.Minute, c.AccessTokenValidityDuration)
	assert.Equal(t, 5*time.Minute, c.PresignExpiry)
	assert.True(t, c.S3UseSSL)
	assert.Equal(t, int64(1024), c.MaxFileSize)
	assert.Equal(t, []string{"https://app.example"}, c.CORSOrigins)
	assert.Equal(t, ":50051", c.EndpointAddrGRPC)
}

func TestParseFile_YAML(t *testing.T) {
	path := writeFile(t, "server.yml", "storage_backend: minio\npassword_hash_algorithm: argon2id\npassword_hash_cost: 2\n")

	var c Config
	c.LoadDefaults()
	require.NoError(t, parseFile(&c, []string{"-c", path}))

	assert.Equal(t, StorageMinio, c.StorageBackend)
	assert.Equal(t, HashArgon2id, c.PasswordHashAlgorithm)
	assert.Equal(t, 2, c.PasswordHashCost)
}

func TestParseFile_NoFlag(t *testing.T) {
	var c Config
	c.LoadDefaults()
	require.NoError(t, parseFile(&c, []string{"-a", ":1"}))
	assert.Equal(t, ":8000", c.EndpointAddrHTTP)
}

func TestParseFile_Errors(t *testing.T) {
	var c Config
	c.LoadDefaults()

	err := parseFile(&c, []string{"-c", filepath.Join(t.TempDir(), "missing.json")})
	assert.Error(t, err)

	bad := writeFile(t, "bad.json", "{not json")
	err = parseFile(&c, []string{"-c", bad})
	assert.Error(t, err)
}
