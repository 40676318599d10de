package snapclient

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/snapchat-ads-extractor/internal/config"
	"github.com/vfg2006/snapchat-ads-extractor/internal/domain"
)

type testEnv struct {
	client       *SnapClient
	tokenManager *TokenManager
	tokenCalls   *atomic.Int32
	apiCalls     *atomic.Int32
	now          *time.Time
}

func newTestEnv(t *testing.T, api http.HandlerFunc, opts ...func(*config.Config)) *testEnv {
	t.Helper()

	tokenCalls := &atomic.Int32{}
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := tokenCalls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "refresh-abc", r.PostForm.Get("refresh_token"))
		assert.Equal(t, "client-id", r.PostForm.Get("client_id"))
		assert.Equal(t, "client-secret", r.PostForm.Get("client_secret"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token": "tok-%d", "token_type": "Bearer", "expires_in": 1800}`, n)
	}))
	t.Cleanup(tokenServer.Close)

	apiCalls := &atomic.Int32{}
	apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiCalls.Add(1)
		api(w, r)
	}))
	t.Cleanup(apiServer.Close)

	cfg := &config.Config{
		Snapchat: config.Snapchat{
			APIURL:   apiServer.URL + "/v1/",
			TokenURL: tokenServer.URL,
		},
		HTTP: config.HTTP{
			Timeout:       5 * time.Second,
			MaxRetries:    3,
			BackoffFactor: time.Millisecond,
			MaxBackoff:    5 * time.Millisecond,
		},
	}

	for _, opt := range opts {
		opt(cfg)
	}

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	tm := NewTokenManager(cfg, domain.OAuthCredentials{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RefreshToken: "refresh-abc",
	}).WithClock(func() time.Time { return now })

	client, err := NewClient(cfg, tm)
	require.NoError(t, err)

	return &testEnv{
		client:       client.(*SnapClient),
		tokenManager: tm,
		tokenCalls:   tokenCalls,
		apiCalls:     apiCalls,
		now:          &now,
	}
}

func TestGetCampaigns_FollowsCursors(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/adaccounts/acc-1/campaigns", r.URL.Path)
		assert.Equal(t, "500", r.URL.Query().Get("limit"))
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))

		host := "http://" + r.Host
		switch r.URL.Query().Get("cursor") {
		case "":
			fmt.Fprintf(w, `{"request_status":"SUCCESS","paging":{"next_link":"%s/v1/adaccounts/acc-1/campaigns?cursor=c1&limit=500"},
				"campaigns":[{"sub_request_status":"SUCCESS","campaign":{"id":"camp-1","name":"A"}},
				             {"sub_request_status":"SUCCESS","campaign":{"id":"camp-2","name":"B"}}]}`, host)
		case "c1":
			fmt.Fprintf(w, `{"request_status":"SUCCESS","paging":{"next_link":"%s/v1/adaccounts/acc-1/campaigns?limit=500&cursor=c2"},
				"campaigns":[{"sub_request_status":"SUCCESS","campaign":{"id":"camp-3","name":"C"}}]}`, host)
		case "c2":
			fmt.Fprint(w, `{"request_status":"SUCCESS","paging":{},
				"campaigns":[{"sub_request_status":"SUCCESS","campaign":{"id":"camp-4","daily_budget_micro":12000000000}}]}`)
		default:
			t.Errorf("unexpected cursor %q", r.URL.Query().Get("cursor"))
		}
	})
	require.NoError(t, env.tokenManager.InitToken(context.Background()))

	campaigns, err := env.client.GetCampaigns(context.Background(), "acc-1")
	require.NoError(t, err)

	require.Len(t, campaigns, 4)
	ids := make([]string, 0, len(campaigns))
	for _, c := range campaigns {
		ids = append(ids, c["id"].(string))
	}
	assert.Equal(t, []string{"camp-1", "camp-2", "camp-3", "camp-4"}, ids)
	assert.Equal(t, "12000000000", fmt.Sprint(campaigns[3]["daily_budget_micro"]))
	assert.EqualValues(t, 3, env.apiCalls.Load())
	assert.EqualValues(t, 1, env.tokenCalls.Load())
}

func TestGetAdSquads_FailureOnSecondPage(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("cursor") == "" {
			fmt.Fprintf(w, `{"paging":{"next_link":"http://%s/v1/adaccounts/acc-1/adsquads?cursor=c1"},
				"adsquads":[{"adsquad":{"id":"sq-1"}}]}`, r.Host)
			return
		}
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"request_status":"ERROR","request_id":"req-9","debug_message":"no access","error_code":"E3002"}`)
	})

	squads, err := env.client.GetAdSquads(context.Background(), "acc-1")
	require.Error(t, err)
	assert.Nil(t, squads)

	var apiErr *domain.APIRequestError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "/v1/adaccounts/acc-1/adsquads", apiErr.Endpoint)
	assert.Contains(t, apiErr.Body, "no access")
	assert.EqualValues(t, 2, env.apiCalls.Load())
}

func TestTokenRefreshedOnlyAfterExpiration(t *testing.T) {
	var lastAuth atomic.Value
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		lastAuth.Store(r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"organizations":[{"organization":{"id":"org-1"}}]}`)
	})
	issuedAt := *env.now

	require.NoError(t, env.tokenManager.InitToken(context.Background()))
	assert.EqualValues(t, 1, env.tokenCalls.Load())

	*env.now = issuedAt.Add(1699 * time.Second)
	_, err := env.client.GetOrganizations(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, env.tokenCalls.Load(), "token ainda válido não deve ser renovado")
	assert.Equal(t, "Bearer tok-1", lastAuth.Load())

	*env.now = issuedAt.Add(1701 * time.Second)
	_, err = env.client.GetOrganizations(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, env.tokenCalls.Load())
	assert.Equal(t, "Bearer tok-2", lastAuth.Load())

	header, err := env.tokenManager.AuthorizationHeader(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-2", header)
}

func TestTokenManager_RefreshRejected(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"invalid_grant"}`)
	}))
	defer tokenServer.Close()

	cfg := &config.Config{Snapchat: config.Snapchat{TokenURL: tokenServer.URL}, HTTP: config.HTTP{Timeout: time.Second}}
	tm := NewTokenManager(cfg, domain.OAuthCredentials{ClientID: "id", ClientSecret: "secret", RefreshToken: "revoked"})

	err := tm.InitToken(context.Background())
	var authErr *domain.AuthRefreshError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusBadRequest, authErr.StatusCode)
	assert.Contains(t, authErr.Body, "invalid_grant")

	_, err = tm.Token()
	assert.ErrorAs(t, err, &authErr)
}

func TestGetOrganizations_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		assert.Equal(t, "/v1/me/organizations", r.URL.Path)
		assert.Empty(t, r.URL.Query().Get("limit"))
		fmt.Fprint(w, `{"organizations":[{"sub_request_status":"SUCCESS","organization":{"id":"org-1","roles":["admin"]}}]}`)
	})

	orgs, err := env.client.GetOrganizations(context.Background())
	require.NoError(t, err)
	require.Len(t, orgs, 1)
	assert.Equal(t, "org-1", orgs[0]["id"])
	assert.Equal(t, []any{"admin"}, orgs[0]["roles"])
	assert.EqualValues(t, 3, env.apiCalls.Load())
}

func TestGetAds_RetriesExhausted(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, "upstream down")
	})

	_, err := env.client.GetAds(context.Background(), "acc-1")
	var apiErr *domain.APIRequestError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "upstream down", apiErr.Body)
	// primeira tentativa + 3 retries
	assert.EqualValues(t, 4, env.apiCalls.Load())
}

func TestGetAds_TimeoutAppliesPerAttempt(t *testing.T) {
	// soma das esperas (~120ms) maior que o timeout de cada tentativa
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, "upstream down")
	}, func(cfg *config.Config) {
		cfg.HTTP.Timeout = 50 * time.Millisecond
		cfg.HTTP.BackoffFactor = 40 * time.Millisecond
		cfg.HTTP.MaxBackoff = 40 * time.Millisecond
	})

	_, err := env.client.GetAds(context.Background(), "acc-1")
	var apiErr *domain.APIRequestError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "upstream down", apiErr.Body)
	assert.Equal(t, domain.ExitUserError, domain.ExitCode(err))
	assert.EqualValues(t, 4, env.apiCalls.Load())
}

func TestGetStatistics(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/campaigns/camp-1/stats", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "impressions,spend", q.Get("fields"))
		assert.Equal(t, "DAY", q.Get("granularity"))
		assert.Equal(t, "2024-01-01T00:00:00-08:00", q.Get("start_time"))
		assert.Equal(t, "2024-01-07T00:00:00-08:00", q.Get("end_time"))
		assert.Equal(t, "28_DAY", q.Get("swipe_up_attribution_window"))
		assert.Equal(t, "1_DAY", q.Get("view_attribution_window"))

		fmt.Fprint(w, `{"request_status":"SUCCESS","timeseries_stats":[{"sub_request_status":"SUCCESS","timeseries_stat":{
			"id":"camp-1","type":"CAMPAIGN","granularity":"DAY",
			"swipe_up_attribution_window":"28_DAY","view_attribution_window":"1_DAY",
			"start_time":"2024-01-01T00:00:00.000-08:00","end_time":"2024-01-07T00:00:00.000-08:00",
			"timeseries":[
				{"start_time":"2024-01-01T00:00:00.000-08:00","end_time":"2024-01-02T00:00:00.000-08:00","stats":{"impressions":10,"spend":2500000}},
				{"start_time":"2024-01-02T00:00:00.000-08:00","end_time":"2024-01-03T00:00:00.000-08:00","stats":{"impressions":0,"spend":0}}
			]}}]}`)
	})

	loc, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)

	stats, err := env.client.GetStatistics(context.Background(), domain.StatisticsQuery{
		Object:      domain.ObjectCampaigns,
		ObjectID:    "camp-1",
		Fields:      []string{"impressions", "spend"},
		Granularity: domain.GranularityDay,
		Range: domain.TimeRange{
			StartTime: time.Date(2024, 1, 1, 0, 0, 0, 0, loc),
			EndTime:   time.Date(2024, 1, 7, 0, 0, 0, 0, loc),
		},
		WindowSwipe: "28_DAY",
		WindowView:  "1_DAY",
	})
	require.NoError(t, err)

	require.Len(t, stats, 1)
	assert.Equal(t, "camp-1", stats[0].ID)
	assert.Equal(t, "CAMPAIGN", stats[0].Type)
	require.Len(t, stats[0].Timeseries, 2)
	assert.Equal(t, "2500000", fmt.Sprint(stats[0].Timeseries[0].Stats["spend"]))
}
