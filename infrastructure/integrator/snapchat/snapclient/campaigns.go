package snapclient

import (
	"context"

	snapdomain "github.com/vfg2006/snapchat-ads-extractor/infrastructure/integrator/snapchat/domain"
	"github.com/vfg2006/snapchat-ads-extractor/internal/domain"
)

func (c *SnapClient) GetCampaigns(ctx context.Context, adAccountID string) ([]domain.Record, error) {
	return Paginate[domain.Record](ctx, adAccountID, c.campaignsPage)
}

func (c *SnapClient) campaignsPage(ctx context.Context, adAccountID, cursor string) (*snapdomain.Page[domain.Record], error) {
	return c.listPage(ctx, "adaccounts/{id}/campaigns", cursor, "campaign", "adaccounts", adAccountID, "campaigns")
}
