package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/recyclequest/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig() *config.Config {
	var c config.Config
	c.LoadDefaults()
	c.EndpointAddrHTTP = "127.0.0.1:0"
	c.EndpointAddrGRPC = "127.0.0.1:0"
	c.DatabaseDSN = config.MemoryDSN
	c.SecretKey = "test-secret"
	c.LogLevel = "error"
	c.PasswordHashCost = 4
	c.S3BaseEndpoint = "http://127.0.0.1:1"
	c.S3RootUser = "key"
	c.S3RootPassword = "secret"
	c.PublicBaseURL = "http://cdn.test"
	return &c
}

func TestNewApp_MemoryDirectory(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	app, err := NewApp(ctx, memoryConfig())
	require.NoError(t, err)
	t.Cleanup(app.close)

	assert.Nil(t, app.db)
	assert.Nil(t, app.redis)

	srv := httptest.NewServer(app.handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/v1/auth/profile")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestNewApp_RejectsUnknownHashAlgorithm(t *testing.T) {
	c := memoryConfig()
	c.PasswordHashAlgorithm = "md5"

	_, err := NewApp(context.Background(), c)
	assert.Error(t, err)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	app, err := NewApp(ctx, memoryConfig())
	require.NoError(t, err)

	runCtx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.Run(runCtx)
		close(done)
	}()

	time.Sleep(150 * time.Millisecond)
	stop()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop after context cancel")
	}
}
