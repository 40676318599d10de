package config

import (
	"slices"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"github.com/vfg2006/snapchat-ads-extractor/internal/domain"
	"github.com/vfg2006/snapchat-ads-extractor/pkg/utils"
)

const (
	ActionRun               = "run"
	ActionListOrganizations = "list_organizations"

	defaultStartDate = "30 days ago"
	defaultEndDate   = "yesterday"
)

// JobConfig espelha o config.json entregue pelo runner do componente
type JobConfig struct {
	Action        string        `mapstructure:"action"`
	Parameters    Parameters    `mapstructure:"parameters"`
	Authorization Authorization `mapstructure:"authorization"`
}

type Parameters struct {
	StatisticsObjects   []string            `mapstructure:"statisticsObjects"`
	DateSettings        DateSettings        `mapstructure:"dateSettings"`
	AttributionSettings AttributionSettings `mapstructure:"attributionSettings"`
	Query               string              `mapstructure:"query"`
}

type DateSettings struct {
	StartDate string `mapstructure:"startDate"`
	EndDate   string `mapstructure:"endDate"`
}

type AttributionSettings struct {
	Granularity string `mapstructure:"granularity"`
	WindowSwipe string `mapstructure:"windowSwipe"`
	WindowView  string `mapstructure:"windowView"`
}

type Authorization struct {
	OAuthAPI OAuthAPI `mapstructure:"oauth_api"`
}

type OAuthAPI struct {
	Credentials *OAuthCredentials `mapstructure:"credentials"`
}

type OAuthCredentials struct {
	AppKey    string `mapstructure:"appKey"`
	AppSecret string `mapstructure:"#appSecret"`
	Data      string `mapstructure:"#data"`
}

// LoadJobConfig lê o config.json do componente
func LoadJobConfig(path string) (*JobConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		return nil, domain.NewConfigurationError("config.json", "could not read %s: %v", path, err)
	}

	job := &JobConfig{}
	if err := v.Unmarshal(job); err != nil {
		return nil, domain.NewConfigurationError("config.json", "invalid structure: %v", err)
	}

	if job.Action == "" {
		job.Action = ActionRun
	}

	return job, nil
}

// Credentials extrai app key, secret e refresh token da autorização OAuth
func (j *JobConfig) Credentials() (domain.OAuthCredentials, error) {
	creds := j.Authorization.OAuthAPI.Credentials
	if creds == nil {
		return domain.OAuthCredentials{}, domain.NewConfigurationError("authorization", "authorization is missing")
	}

	if creds.AppKey == "" {
		return domain.OAuthCredentials{}, domain.NewConfigurationError("appKey", "key missing in authorization")
	}
	if creds.AppSecret == "" {
		return domain.OAuthCredentials{}, domain.NewConfigurationError("#appSecret", "key missing in authorization")
	}
	if creds.Data == "" {
		return domain.OAuthCredentials{}, domain.NewConfigurationError("#data", "key missing in authorization")
	}

	var data struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := utils.JSON.UnmarshalFromString(creds.Data, &data); err != nil {
		return domain.OAuthCredentials{}, domain.NewConfigurationError("#data", "invalid JSON: %v", err)
	}
	if data.RefreshToken == "" {
		return domain.OAuthCredentials{}, domain.NewConfigurationError("refresh_token", "key missing in authorization data")
	}

	return domain.OAuthCredentials{
		ClientID:     creds.AppKey,
		ClientSecret: creds.AppSecret,
		RefreshToken: data.RefreshToken,
	}, nil
}

// ExtractionParams valida os parâmetros e calcula os blocos de datas antes de qualquer chamada de rede
func (j *JobConfig) ExtractionParams(now time.Time) (*domain.ExtractionParams, error) {
	p := j.Parameters
	params := &domain.ExtractionParams{}

	for _, o := range p.StatisticsObjects {
		object := domain.StatisticsObject(o)
		if !slices.Contains(domain.SupportedObjects, object) {
			return nil, domain.NewConfigurationError("statisticsObjects", "unsupported object %q", o)
		}
		if !params.HasObject(object) {
			params.Objects = append(params.Objects, object)
		}
	}

	startDate, err := parseDateSetting(p.DateSettings.StartDate, defaultStartDate, now)
	if err != nil {
		return nil, domain.NewConfigurationError("dateSettings.startDate", "invalid start date: %v", err)
	}
	endDate, err := parseDateSetting(p.DateSettings.EndDate, defaultEndDate, now)
	if err != nil {
		return nil, domain.NewConfigurationError("dateSettings.endDate", "invalid end date: %v", err)
	}
	params.StartDate, params.EndDate = startDate, endDate

	params.Metrics = ParseQuery(p.Query)

	granularity := domain.Granularity(orDefault(p.AttributionSettings.Granularity, string(domain.GranularityDay)))
	if !slices.Contains(domain.SupportedGranularity, granularity) {
		return nil, domain.NewConfigurationError("attributionSettings.granularity", "unsupported granularity setting %q", granularity)
	}
	params.Granularity = granularity

	params.WindowSwipe = orDefault(p.AttributionSettings.WindowSwipe, domain.DefaultWindowSwipe)
	if !slices.Contains(domain.SupportedWindowSwipe, params.WindowSwipe) {
		return nil, domain.NewConfigurationError("attributionSettings.windowSwipe", "unsupported swipe window setting %q", params.WindowSwipe)
	}

	params.WindowView = orDefault(p.AttributionSettings.WindowView, domain.DefaultWindowView)
	if !slices.Contains(domain.SupportedWindowView, params.WindowView) {
		return nil, domain.NewConfigurationError("attributionSettings.windowView", "unsupported view window setting %q", params.WindowView)
	}

	params.Chunks, err = utils.SplitDateRange(startDate, endDate, granularity.MaxChunkDays())
	if err != nil {
		return nil, errors.Wrap(err, "split date range")
	}

	return params, nil
}

// ParseQuery separa a lista de métricas por vírgula ou quebra de linha,
// descarta vazios e duplicados mantendo a ordem da primeira ocorrência
func ParseQuery(query string) []string {
	var metrics []string
	for _, m := range strings.Split(strings.ReplaceAll(query, "\n", ","), ",") {
		m = strings.TrimSpace(m)
		if m == "" || slices.Contains(metrics, m) {
			continue
		}
		metrics = append(metrics, m)
	}

	if len(metrics) == 0 {
		return slices.Clone(domain.DefaultMetrics)
	}

	return metrics
}

func parseDateSetting(value, fallback string, now time.Time) (time.Time, error) {
	return utils.ParseRelativeDate(orDefault(value, fallback), now)
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return strings.TrimSpace(value)
}
