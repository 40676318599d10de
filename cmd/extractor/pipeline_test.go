package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/snapchat-ads-extractor/infrastructure/repository"
	"github.com/vfg2006/snapchat-ads-extractor/internal/config"
	"github.com/vfg2006/snapchat-ads-extractor/internal/domain"
	"github.com/vfg2006/snapchat-ads-extractor/pkg/log"
)

const testJobConfig = `{
	"action": "%s",
	"authorization": {
		"oauth_api": {
			"credentials": {
				"appKey": "app-key",
				"#appSecret": "app-secret",
				"#data": "{\"refresh_token\": \"refresh-123\"}"
			}
		}
	}
}`

type testServers struct {
	cfg      *config.Config
	apiCalls *atomic.Int32
}

func newTestServers(t *testing.T, token http.HandlerFunc, api http.HandlerFunc) *testServers {
	t.Helper()
	log.SetupTestLogger()

	tokenServer := httptest.NewServer(token)
	t.Cleanup(tokenServer.Close)

	apiCalls := &atomic.Int32{}
	apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiCalls.Add(1)
		api(w, r)
	}))
	t.Cleanup(apiServer.Close)

	return &testServers{
		cfg: &config.Config{
			App: config.App{DataDir: t.TempDir()},
			Snapchat: config.Snapchat{
				APIURL:   apiServer.URL + "/v1/",
				TokenURL: tokenServer.URL,
			},
			HTTP: config.HTTP{
				Timeout:       5 * time.Second,
				BackoffFactor: time.Millisecond,
				MaxBackoff:    time.Millisecond,
			},
		},
		apiCalls: apiCalls,
	}
}

func validToken(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"access_token": "tok-1", "token_type": "Bearer", "expires_in": 1800}`)
}

func writeJob(t *testing.T, cfg *config.Config, action string) *config.JobConfig {
	t.Helper()
	require.NoError(t, os.WriteFile(cfg.JobConfigPath(), []byte(fmt.Sprintf(testJobConfig, action)), 0o644))

	job, err := config.LoadJobConfig(cfg.JobConfigPath())
	require.NoError(t, err)
	return job
}

func TestExtractOnce_AuthFailureKeepsPreviousTables(t *testing.T) {
	servers := newTestServers(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"invalid_grant"}`)
	}, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected API call to %s", r.URL.Path)
	})
	job := writeJob(t, servers.cfg, config.ActionRun)

	tablesDir := repository.TablesDir(servers.cfg.App.DataDir)
	require.NoError(t, os.MkdirAll(tablesDir, 0o755))
	previous := filepath.Join(tablesDir, "organizations.csv")
	require.NoError(t, os.WriteFile(previous, []byte("previous-run-row\n"), 0o644))

	_, err := extractOnce(context.Background(), servers.cfg, job)

	var authErr *domain.AuthRefreshError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusUnauthorized, authErr.StatusCode)
	assert.Equal(t, domain.ExitUserError, domain.ExitCode(err))
	assert.EqualValues(t, 0, servers.apiCalls.Load())

	content, err := os.ReadFile(previous)
	require.NoError(t, err)
	assert.Equal(t, "previous-run-row\n", string(content))

	entries, err := os.ReadDir(tablesDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestExtractOnce_CreatesTables(t *testing.T) {
	servers := newTestServers(t, validToken, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/me/organizations", r.URL.Path)
		fmt.Fprint(w, `{"request_status":"SUCCESS","organizations":[]}`)
	})
	job := writeJob(t, servers.cfg, config.ActionRun)

	summary, err := extractOnce(context.Background(), servers.cfg, job)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Organizations)

	tablesDir := repository.TablesDir(servers.cfg.App.DataDir)
	for _, table := range []string{"organizations", "adaccounts", "campaigns", "adsquads", "creatives", "ads", "statistics"} {
		assert.FileExists(t, filepath.Join(tablesDir, table+".csv"))
		assert.FileExists(t, filepath.Join(tablesDir, table+".csv.manifest"))
	}
}

func TestRunExtraction_ListOrganizations(t *testing.T) {
	servers := newTestServers(t, validToken, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/me/organizations", r.URL.Path)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"request_status":"SUCCESS","organizations":[
			{"sub_request_status":"SUCCESS","organization":{"id":"org-1","name":"Acme","roles":["admin"]}}]}`)
	})
	writeJob(t, servers.cfg, config.ActionListOrganizations)

	var out bytes.Buffer
	require.NoError(t, runExtraction(context.Background(), &out, servers.cfg))

	assert.JSONEq(t, `[{"id":"org-1","name":"Acme","roles":["admin"]}]`, out.String())
	assert.Contains(t, out.String(), "\n\t{")
	assert.NoDirExists(t, repository.TablesDir(servers.cfg.App.DataDir))
}
