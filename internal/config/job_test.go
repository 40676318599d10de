package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/snapchat-ads-extractor/internal/domain"
)

func writeJobConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const fullJobConfig = `{
	"parameters": {
		"statisticsObjects": ["campaigns", "ads"],
		"dateSettings": {"startDate": "2024-01-01", "endDate": "2024-02-15"},
		"attributionSettings": {"granularity": "DAY", "windowSwipe": "7_DAY", "windowView": "6_HOUR"},
		"query": "impressions, swipes\nspend,impressions,,"
	},
	"authorization": {
		"oauth_api": {
			"credentials": {
				"appKey": "app-key",
				"#appSecret": "app-secret",
				"#data": "{\"refresh_token\": \"refresh-123\", \"token_type\": \"Bearer\"}"
			}
		}
	}
}`

func TestLoadJobConfig(t *testing.T) {
	job, err := LoadJobConfig(writeJobConfig(t, fullJobConfig))
	require.NoError(t, err)
	assert.Equal(t, ActionRun, job.Action)

	creds, err := job.Credentials()
	require.NoError(t, err)
	assert.Equal(t, domain.OAuthCredentials{
		ClientID:     "app-key",
		ClientSecret: "app-secret",
		RefreshToken: "refresh-123",
	}, creds)

	params, err := job.ExtractionParams(time.Now())
	require.NoError(t, err)
	assert.Equal(t, []domain.StatisticsObject{domain.ObjectCampaigns, domain.ObjectAds}, params.Objects)
	assert.Equal(t, []string{"impressions", "swipes", "spend"}, params.Metrics)
	assert.Equal(t, domain.GranularityDay, params.Granularity)
	assert.Equal(t, "7_DAY", params.WindowSwipe)
	assert.Equal(t, "6_HOUR", params.WindowView)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), params.StartDate)

	// 45 dias em blocos de 28
	require.Len(t, params.Chunks, 2)
	assert.Equal(t, time.Date(2024, 1, 29, 0, 0, 0, 0, time.UTC), params.Chunks[0].EndDate)
	assert.Equal(t, time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC), params.Chunks[1].EndDate)
}

func TestLoadJobConfig_MissingFile(t *testing.T) {
	_, err := LoadJobConfig(filepath.Join(t.TempDir(), "config.json"))
	var cfgErr *domain.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestExtractionParams_Defaults(t *testing.T) {
	job, err := LoadJobConfig(writeJobConfig(t, `{"parameters": {}, "action": "list_organizations"}`))
	require.NoError(t, err)
	assert.Equal(t, ActionListOrganizations, job.Action)

	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	params, err := job.ExtractionParams(now)
	require.NoError(t, err)

	assert.Empty(t, params.Objects)
	assert.Equal(t, []string{"impressions", "spend"}, params.Metrics)
	assert.Equal(t, domain.GranularityDay, params.Granularity)
	assert.Equal(t, domain.DefaultWindowSwipe, params.WindowSwipe)
	assert.Equal(t, domain.DefaultWindowView, params.WindowView)
	assert.Equal(t, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), params.EndDate)
	assert.Equal(t, time.Date(2024, 2, 9, 0, 0, 0, 0, time.UTC), params.StartDate)
}

func TestExtractionParams_Invalid(t *testing.T) {
	tests := []struct {
		name       string
		parameters Parameters
		validate   func(t *testing.T, err error)
	}{
		{
			name:       "objeto não suportado",
			parameters: Parameters{StatisticsObjects: []string{"campaigns", "creatives"}},
		},
		{
			name:       "granularidade não suportada",
			parameters: Parameters{AttributionSettings: AttributionSettings{Granularity: "WEEK"}},
		},
		{
			name:       "janela de swipe inválida",
			parameters: Parameters{AttributionSettings: AttributionSettings{WindowSwipe: "1_HOUR"}},
		},
		{
			name:       "janela de view inválida",
			parameters: Parameters{AttributionSettings: AttributionSettings{WindowView: "2_DAY"}},
		},
		{
			name:       "data ilegível",
			parameters: Parameters{DateSettings: DateSettings{StartDate: "banana"}},
		},
		{
			name:       "início depois do fim",
			parameters: Parameters{DateSettings: DateSettings{StartDate: "2024-02-01", EndDate: "2024-01-01"}},
			validate: func(t *testing.T, err error) {
				var rangeErr *domain.InvalidRangeError
				assert.ErrorAs(t, err, &rangeErr)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := &JobConfig{Parameters: tt.parameters}
			_, err := job.ExtractionParams(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))
			require.Error(t, err)

			if tt.validate != nil {
				tt.validate(t, err)
				return
			}
			var cfgErr *domain.ConfigurationError
			assert.ErrorAs(t, err, &cfgErr)
		})
	}
}

func TestCredentials_Missing(t *testing.T) {
	tests := []struct {
		name  string
		creds *OAuthCredentials
	}{
		{name: "sem autorização", creds: nil},
		{name: "sem app key", creds: &OAuthCredentials{AppSecret: "s", Data: `{"refresh_token":"r"}`}},
		{name: "sem secret", creds: &OAuthCredentials{AppKey: "k", Data: `{"refresh_token":"r"}`}},
		{name: "data inválido", creds: &OAuthCredentials{AppKey: "k", AppSecret: "s", Data: "not json"}},
		{name: "sem refresh token", creds: &OAuthCredentials{AppKey: "k", AppSecret: "s", Data: `{"access_token":"a"}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := &JobConfig{Authorization: Authorization{OAuthAPI: OAuthAPI{Credentials: tt.creds}}}
			_, err := job.Credentials()
			var cfgErr *domain.ConfigurationError
			assert.ErrorAs(t, err, &cfgErr)
		})
	}
}

func TestParseQuery(t *testing.T) {
	assert.Equal(t, []string{"impressions", "spend"}, ParseQuery(""))
	assert.Equal(t, []string{"impressions", "spend"}, ParseQuery(" ,\n , "))
	assert.Equal(t, []string{"swipes", "video_views"}, ParseQuery("swipes\nvideo_views\nswipes"))
}

func TestNewConfig_Defaults(t *testing.T) {
	t.Setenv("DATA_DIR", "")
	t.Setenv("KBC_DATADIR", "/kbc/data")
	t.Setenv("HTTP_MAX_RETRIES", "3")
	t.Setenv("HTTP_BACKOFF_FACTOR", "1s")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "/kbc/data", cfg.App.DataDir)
	assert.Equal(t, filepath.Join("/kbc/data", "config.json"), cfg.JobConfigPath())
	assert.Equal(t, 3, cfg.HTTP.MaxRetries)
	assert.Equal(t, time.Second, cfg.HTTP.BackoffFactor)
	assert.Equal(t, 2*time.Minute, cfg.HTTP.MaxBackoff)
	assert.Equal(t, "https://adsapi.snapchat.com/v1/", cfg.Snapchat.APIURL)
	assert.False(t, cfg.Database.Enabled())
}
