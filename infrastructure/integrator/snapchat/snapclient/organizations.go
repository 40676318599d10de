package snapclient

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/snapchat-ads-extractor/internal/domain"
)

// GetOrganizations lista as organizações do usuário autenticado (resposta sem paginação)
func (c *SnapClient) GetOrganizations(ctx context.Context) ([]domain.Record, error) {
	body, err := c.get(ctx, "me/organizations", nil, "me", "organizations")
	if err != nil {
		return nil, err
	}

	page, err := DecodeCollection(body, "organization")
	if err != nil {
		logrus.WithError(err).Error("Erro ao decodificar JSON")
		return nil, err
	}

	return page.Items, nil
}
