package snapclient

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/snapchat-ads-extractor/internal/config"
	"github.com/vfg2006/snapchat-ads-extractor/internal/domain"
	"github.com/vfg2006/snapchat-ads-extractor/pkg/metrics"
	"golang.org/x/oauth2"
)

// AccessTokenExpiration é a idade a partir da qual o token é renovado, abaixo dos 30 minutos
// de validade concedidos pela Snapchat
const AccessTokenExpiration = 1700 * time.Second

// TokenManager gerencia o access token da Ads API a partir do refresh token do usuário.
// A verificação de expiração e o refresh acontecem sob o mesmo lock.
type TokenManager struct {
	credentials domain.OAuthCredentials
	tokenURL    string
	httpClient  *http.Client
	now         func() time.Time

	TokenRefreshMutex sync.Mutex
	accessToken       string
	issuedAt          time.Time
}

// NewTokenManager cria uma nova instância do gerenciador de tokens
func NewTokenManager(cfg *config.Config, credentials domain.OAuthCredentials) *TokenManager {
	return &TokenManager{
		credentials: credentials,
		tokenURL:    cfg.Snapchat.TokenURL,
		httpClient:  &http.Client{Timeout: cfg.HTTP.Timeout},
		now:         time.Now,
	}
}

// WithClock troca o relógio usado para calcular a idade do token
func (tm *TokenManager) WithClock(now func() time.Time) *TokenManager {
	tm.now = now
	return tm
}

// InitToken obtém o primeiro access token; falha aqui encerra a execução
func (tm *TokenManager) InitToken(ctx context.Context) error {
	tm.TokenRefreshMutex.Lock()
	defer tm.TokenRefreshMutex.Unlock()

	return tm.refreshTokenInternal(ctx)
}

// EnsureValidToken renova o token se ele nunca foi obtido ou se já atingiu a idade de expiração
func (tm *TokenManager) EnsureValidToken(ctx context.Context) error {
	_, _, err := tm.validToken(ctx)
	return err
}

// AuthorizationHeader devolve o valor do header Authorization com um token válido
func (tm *TokenManager) AuthorizationHeader(ctx context.Context) (string, error) {
	token, _, err := tm.validToken(ctx)
	if err != nil {
		return "", err
	}
	return "Bearer " + token, nil
}

// Token implementa oauth2.TokenSource para uso com oauth2.Transport
func (tm *TokenManager) Token() (*oauth2.Token, error) {
	token, issuedAt, err := tm.validToken(context.Background())
	if err != nil {
		return nil, err
	}

	return &oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
		Expiry:      issuedAt.Add(AccessTokenExpiration),
	}, nil
}

func (tm *TokenManager) validToken(ctx context.Context) (string, time.Time, error) {
	tm.TokenRefreshMutex.Lock()
	defer tm.TokenRefreshMutex.Unlock()

	if tm.accessToken == "" {
		logrus.Info("Token não inicializado. Inicializando...")
		if err := tm.refreshTokenInternal(ctx); err != nil {
			return "", time.Time{}, err
		}
	} else if tm.now().Sub(tm.issuedAt) >= AccessTokenExpiration {
		logrus.Debug("Access token expirado, renovando")
		if err := tm.refreshTokenInternal(ctx); err != nil {
			return "", time.Time{}, err
		}
	}

	return tm.accessToken, tm.issuedAt, nil
}

// refreshTokenInternal exige o lock já adquirido
func (tm *TokenManager) refreshTokenInternal(ctx context.Context) error {
	tokenResponse, err := RequestAccessToken(ctx, tm.httpClient, tm.tokenURL, tm.credentials)
	if err != nil {
		metrics.TokenRefreshes.WithLabelValues("error").Inc()
		return err
	}

	tm.accessToken = tokenResponse.AccessToken
	tm.issuedAt = tm.now()
	metrics.TokenRefreshes.WithLabelValues("success").Inc()

	logrus.Info("Access token refreshed")
	return nil
}
