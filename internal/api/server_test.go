package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/serroba/richdocs/internal/acl"
	"github.com/serroba/richdocs/internal/api"
	"github.com/serroba/richdocs/internal/collab"
	"github.com/serroba/richdocs/internal/storage"
	"github.com/serroba/richdocs/internal/ws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type testServer struct {
	handler   http.Handler
	store     *storage.MemoryStore
	permStore *acl.MemoryStore
	manager   *collab.Manager
	logs      *observer.ObservedLogs
}

// newTestServer wires a server over in-memory stores. With withACL false no
// permission store is configured and every request is allowed.
func newTestServer(t *testing.T, withACL bool) *testServer {
	t.Helper()

	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	ts := &testServer{store: storage.NewMemoryStore(), logs: logs}

	var permStore acl.Store
	if withACL {
		ts.permStore = acl.NewMemoryStore()
		permStore = ts.permStore
	}

	hub := ws.NewHub(ws.HubConfig{Logger: logger})
	ts.manager = collab.NewManager(collab.ManagerConfig{
		Store:     ts.store,
		PermStore: permStore,
		Hub:       hub,
		Logger:    logger,
	})

	server := api.NewServer(api.ServerConfig{
		Manager:   ts.manager,
		Store:     ts.store,
		PermStore: permStore,
		Hub:       hub,
		Logger:    logger,
	})
	ts.handler = server.Handler()

	t.Cleanup(func() { _ = ts.manager.CloseAll() })

	return ts
}

// do sends a request as userID with an optional JSON body.
func (ts *testServer) do(t *testing.T, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
	}

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	return rec
}

func TestServerHandler(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, false)

	t.Run("documents endpoint requires auth", func(t *testing.T) {
		t.Parallel()

		rec := ts.do(t, http.MethodPost, "/documents", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("ws endpoint requires auth", func(t *testing.T) {
		t.Parallel()

		rec := ts.do(t, http.MethodGet, "/ws", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("routes PATCH to method not allowed", func(t *testing.T) {
		t.Parallel()

		rec := ts.do(t, http.MethodPatch, "/documents/test", "user1", nil)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})

	t.Run("ws requires a document", func(t *testing.T) {
		t.Parallel()

		rec := ts.do(t, http.MethodGet, "/ws", "user1", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestServerLogsRequests(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, false)

	rec := ts.do(t, http.MethodGet, "/documents/missing", "user1", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	entries := ts.logs.FilterMessage("request").All()
	require.Len(t, entries, 1)

	fields := entries[0].ContextMap()
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/documents/missing", fields["path"])
	assert.EqualValues(t, http.StatusNotFound, fields["status"])
}
