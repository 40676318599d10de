package snapclient

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	snapdomain "github.com/vfg2006/snapchat-ads-extractor/infrastructure/integrator/snapchat/domain"
	"github.com/vfg2006/snapchat-ads-extractor/internal/config"
	"github.com/vfg2006/snapchat-ads-extractor/internal/domain"
	"github.com/vfg2006/snapchat-ads-extractor/pkg/metrics"
	"github.com/vfg2006/snapchat-ads-extractor/pkg/utils"
	"golang.org/x/oauth2"
)

// PaginationLimit é o tamanho de página pedido em todas as listagens
const PaginationLimit = 500

type Client interface {
	GetOrganizations(ctx context.Context) ([]domain.Record, error)
	GetAdAccounts(ctx context.Context, organizationID string) ([]domain.Record, error)
	GetCampaigns(ctx context.Context, adAccountID string) ([]domain.Record, error)
	GetAdSquads(ctx context.Context, adAccountID string) ([]domain.Record, error)
	GetCreatives(ctx context.Context, adAccountID string) ([]domain.Record, error)
	GetAds(ctx context.Context, adAccountID string) ([]domain.Record, error)
	GetStatistics(ctx context.Context, query domain.StatisticsQuery) ([]snapdomain.TimeseriesStat, error)
	EnsureValidToken(ctx context.Context) error
}

type SnapClient struct {
	baseURL      *url.URL
	httpClient   *http.Client
	TokenManager *TokenManager
}

func NewClient(cfg *config.Config, tokenManager *TokenManager) (Client, error) {
	baseURL, err := url.Parse(cfg.Snapchat.APIURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid snapchat api url")
	}

	transport := &oauth2.Transport{
		Source: tokenManager,
		Base:   NewRetryTransport(http.DefaultTransport, NewRetryPolicy(cfg.HTTP), cfg.HTTP.RequestsPerSecond),
	}

	client := &SnapClient{
		baseURL: baseURL,
		// sem Timeout no client: o prazo é por tentativa, no RetryTransport
		httpClient: &http.Client{Transport: transport},
		TokenManager: tokenManager,
	}
	return client, nil
}

// EnsureValidToken verifica se o token atual é válido e o renova se necessário
func (c *SnapClient) EnsureValidToken(ctx context.Context) error {
	return c.TokenManager.EnsureValidToken(ctx)
}

// get executa um GET autenticado; resource é o rótulo do endpoint nas métricas e logs
func (c *SnapClient) get(ctx context.Context, resource string, params url.Values, segments ...string) ([]byte, error) {
	// Garantir que o token seja válido antes de fazer a requisição
	if err := c.EnsureValidToken(ctx); err != nil {
		return nil, err
	}

	endpoint := c.baseURL.JoinPath(segments...)
	if params != nil {
		endpoint.RawQuery = params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		logrus.WithError(err).Error("Erro ao criar a requisição")
		return nil, errors.Wrapf(err, "build request for %s", resource)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logrus.WithError(err).WithField("endpoint", resource).Error("Erro ao fazer a requisição")
		return nil, errors.Wrapf(err, "request %s", resource)
	}
	defer resp.Body.Close()

	metrics.ObserveAPIRequest(resource, resp.StatusCode)

	return c.HandleResponse(endpoint.Path, resp)
}

// HandleResponse lê o corpo e transforma qualquer status diferente de 200 em APIRequestError
func (c *SnapClient) HandleResponse(endpoint string, resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "erro ao ler resposta")
	}

	if resp.StatusCode == http.StatusOK {
		return body, nil
	}

	fields := logrus.Fields{
		"endpoint":    endpoint,
		"status_code": resp.StatusCode,
		"body":        string(body),
	}
	var errorResp snapdomain.ErrorResponse
	if err := utils.JSON.Unmarshal(body, &errorResp); err == nil && errorResp.RequestID != "" {
		fields["request_id"] = errorResp.RequestID
		fields["api_message"] = errorResp.String()
	}
	logrus.WithFields(fields).Error("snapchat: request failed")

	return nil, &domain.APIRequestError{
		Endpoint:   endpoint,
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}
}

func pageParams(cursor string) url.Values {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(PaginationLimit))
	if cursor != "" {
		params.Set("cursor", cursor)
	}
	return params
}
