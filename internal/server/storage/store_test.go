package storage

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/recyclequest/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_SelectsBackend(t *testing.T) {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.S3BaseEndpoint = "http://127.0.0.1:9000"
	cfg.S3RootUser, cfg.S3RootPassword = "admin", "secret"

	cfg.StorageBackend = config.StorageMinio
	st, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &MinioStore{}, st)

	cfg.StorageBackend = config.StorageS3
	st, err = New(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &S3Store{}, st)

	cfg.StorageBackend = "ftp"
	_, err = New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestPublicURL(t *testing.T) {
	assert.Equal(t, "https://cdn/b/k/x.png", publicURL("https://cdn/", "b", "k/x.png"))
	assert.Equal(t, "https://cdn/b/k/x.png", publicURL("https://cdn", "b", "k/x.png"))
}
