package api

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/snapchat-ads-extractor/internal/config"
	"github.com/vfg2006/snapchat-ads-extractor/internal/domain"
	"github.com/vfg2006/snapchat-ads-extractor/internal/scheduler"
	"github.com/vfg2006/snapchat-ads-extractor/internal/usecases/authenticating"
	"github.com/vfg2006/snapchat-ads-extractor/pkg/log"
	"github.com/vfg2006/snapchat-ads-extractor/pkg/utils"
)

func init() {
	log.SetupTestLogger()
}

type fakeSyncer struct {
	mu       sync.Mutex
	running  bool
	triggers int
}

func (f *fakeSyncer) TriggerManualSync() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.running {
		return "", false
	}
	f.triggers++
	f.running = true
	return "run_abc123", true
}

func (f *fakeSyncer) GetStatus() scheduler.SyncStatus {
	f.mu.Lock()
	defer f.mu.Unlock()

	return scheduler.SyncStatus{Enabled: true, Cron: "0 4 * * *", Running: f.running, LastRunID: "run_abc123"}
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeSyncer, map[string]string) {
	t.Helper()

	auth := authenticating.NewService(&config.Config{Auth: config.Auth{Secret: "segredo"}})
	tokens := map[string]string{}
	for _, role := range []string{domain.RoleOperator, domain.RoleViewer} {
		token, err := auth.IssueToken("teste", role, time.Hour)
		require.NoError(t, err)
		tokens[role] = token
	}

	syncer := &fakeSyncer{}
	srv := httptest.NewServer(NewHandler(syncer, auth))
	t.Cleanup(srv.Close)

	return srv, syncer, tokens
}

func do(t *testing.T, method, url, token string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestServer_PublicRoutes(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/healthcheck", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/metrics", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_RunExtraction(t *testing.T) {
	srv, syncer, tokens := newTestServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/v1/extractions/run", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = do(t, http.MethodPost, srv.URL+"/v1/extractions/run", tokens[domain.RoleViewer])
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = do(t, http.MethodPost, srv.URL+"/v1/extractions/run", tokens[domain.RoleOperator])
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var body map[string]string
	require.NoError(t, utils.JSON.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "run_abc123", body["run_id"])

	resp = do(t, http.MethodPost, srv.URL+"/v1/extractions/run", tokens[domain.RoleOperator])
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	syncer.mu.Lock()
	assert.Equal(t, 1, syncer.triggers)
	syncer.mu.Unlock()
}

func TestServer_ExtractionStatus(t *testing.T) {
	srv, _, tokens := newTestServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/v1/extractions/status", tokens[domain.RoleViewer])
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status scheduler.SyncStatus
	require.NoError(t, utils.JSON.NewDecoder(resp.Body).Decode(&status))
	assert.True(t, status.Enabled)
	assert.Equal(t, "0 4 * * *", status.Cron)
	assert.Equal(t, "run_abc123", status.LastRunID)
}

func TestServer_UnknownRoute(t *testing.T) {
	srv, _, tokens := newTestServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/v1/nada", tokens[domain.RoleOperator])
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/v1/extractions/run", tokens[domain.RoleOperator])
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
