package snapclient

import (
	"context"

	snapdomain "github.com/vfg2006/snapchat-ads-extractor/infrastructure/integrator/snapchat/domain"
	"github.com/vfg2006/snapchat-ads-extractor/internal/domain"
)

func (c *SnapClient) GetCreatives(ctx context.Context, adAccountID string) ([]domain.Record, error) {
	return Paginate[domain.Record](ctx, adAccountID, c.creativesPage)
}

func (c *SnapClient) creativesPage(ctx context.Context, adAccountID, cursor string) (*snapdomain.Page[domain.Record], error) {
	return c.listPage(ctx, "adaccounts/{id}/creatives", cursor, "creative", "adaccounts", adAccountID, "creatives")
}
