package snapclient

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
	snapdomain "github.com/vfg2006/snapchat-ads-extractor/infrastructure/integrator/snapchat/domain"
	"github.com/vfg2006/snapchat-ads-extractor/internal/domain"
	"github.com/vfg2006/snapchat-ads-extractor/pkg/utils"
)

// RequestAccessToken troca o refresh token por um novo access token.
// Qualquer falha é AuthRefreshError: sem credenciais válidas não há como continuar.
func RequestAccessToken(
	ctx context.Context,
	httpClient *http.Client,
	tokenURL string,
	credentials domain.OAuthCredentials,
) (*snapdomain.TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", credentials.RefreshToken)
	form.Set("code", credentials.RefreshToken)
	form.Set("client_id", credentials.ClientID)
	form.Set("client_secret", credentials.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &domain.AuthRefreshError{Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		logrus.WithError(err).Error("Erro ao fazer a requisição de token")
		return nil, &domain.AuthRefreshError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.AuthRefreshError{StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		logrus.WithFields(logrus.Fields{
			"status_code": resp.StatusCode,
			"body":        string(body),
		}).Error("Access token could not be refreshed")
		return nil, &domain.AuthRefreshError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var tokenResponse snapdomain.TokenResponse
	if err := utils.JSON.Unmarshal(body, &tokenResponse); err != nil {
		return nil, &domain.AuthRefreshError{StatusCode: resp.StatusCode, Body: string(body), Err: err}
	}
	if tokenResponse.AccessToken == "" {
		return nil, &domain.AuthRefreshError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return &tokenResponse, nil
}
