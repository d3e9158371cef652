package health

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/recyclequest/internal/logging"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStorage struct{ err error }

func (f fakeStorage) Ping(context.Context) error { return f.err }

func newDB(t *testing.T, pingErr error) *sqlmockDB {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	mock.ExpectPing().WillReturnError(pingErr)
	return &sqlmockDB{db: db, mock: mock}
}

type sqlmockDB struct {
	db   *sql.DB
	mock sqlmock.Sqlmock
}

func TestCheck_AllHealthy(t *testing.T) {
	mr := miniredis.RunT(t)
	d := newDB(t, nil)

	c := NewChecker(d.db, NewRedisClient(mr.Addr(), ""), fakeStorage{}, logging.NewNopLogger())
	s := c.Check(context.Background())

	assert.Equal(t, StatusHealthy, s.Status)
	assert.Equal(t, StatusHealthy, s.Dependencies["database"].Status)
	assert.Equal(t, StatusHealthy, s.Dependencies["redis"].Status)
	assert.Equal(t, StatusHealthy, s.Dependencies["storage"].Status)
}

func TestCheck_DatabaseDownIsUnhealthy(t *testing.T) {
	d := newDB(t, errors.New("connection refused"))

	s := NewChecker(d.db, nil, nil, logging.NewNopLogger()).Check(context.Background())

	assert.Equal(t, StatusUnhealthy, s.Status)
	assert.Equal(t, StatusUnhealthy, s.Dependencies["database"].Status)
	_, hasRedis := s.Dependencies["redis"]
	assert.False(t, hasRedis)
}

func TestCheck_RedisDownIsDegraded(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := NewRedisClient(mr.Addr(), "")
	mr.Close()

	d := newDB(t, nil)
	s := NewChecker(d.db, rdb, nil, logging.NewNopLogger()).Check(context.Background())

	assert.Equal(t, StatusDegraded, s.Status)
	assert.Equal(t, StatusUnhealthy, s.Dependencies["redis"].Status)
}

func TestCheck_StorageDownIsDegraded(t *testing.T) {
	s := NewChecker(nil, nil, fakeStorage{err: errors.New("no bucket")}, logging.NewNopLogger()).Check(context.Background())
	assert.Equal(t, StatusDegraded, s.Status)
}

func TestReadiness(t *testing.T) {
	d := newDB(t, errors.New("down"))
	c := NewChecker(d.db, nil, nil, logging.NewNopLogger())

	rec := httptest.NewRecorder()
	c.Readiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body Status
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, StatusUnhealthy, body.Status)

	rec = httptest.NewRecorder()
	NewChecker(nil, nil, fakeStorage{err: errors.New("x")}, logging.NewNopLogger()).Readiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLiveness(t *testing.T) {
	rec := httptest.NewRecorder()
	NewChecker(nil, nil, nil, logging.NewNopLogger()).Liveness(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
}

func TestNewRedisClient_EmptyAddr(t *testing.T) {
	assert.Nil(t, NewRedisClient("", ""))
}

func TestReadiness_HidesDependencyErrors(t *testing.T) {
	d := newDB(t, errors.New("dial tcp 10.0.0.5:5432: password authentication failed for user admin"))

	var logs bytes.Buffer
	c := NewChecker(d.db, nil, fakeStorage{err: errors.New("AccessDenied: bucket secret-bucket")},
		logging.NewJSONLogger(&logs, "debug"))

	rec := httptest.NewRecorder()
	c.Readiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
	assert.NotContains(t, rec.Body.String(), "password authentication")
	assert.NotContains(t, rec.Body.String(), "secret-bucket")

	assert.Contains(t, logs.String(), "password authentication failed")
	assert.Contains(t, logs.String(), "secret-bucket")
}
