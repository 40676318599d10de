package snapclient

import (
	"context"

	snapdomain "github.com/vfg2006/snapchat-ads-extractor/infrastructure/integrator/snapchat/domain"
	"github.com/vfg2006/snapchat-ads-extractor/internal/domain"
)

// GetAdAccounts lista os ad accounts de uma organização
func (c *SnapClient) GetAdAccounts(ctx context.Context, organizationID string) ([]domain.Record, error) {
	return Paginate[domain.Record](ctx, organizationID, c.adAccountsPage)
}

func (c *SnapClient) adAccountsPage(ctx context.Context, organizationID, cursor string) (*snapdomain.Page[domain.Record], error) {
	return c.listPage(ctx, "organizations/{id}/adaccounts", cursor, "adaccount", "organizations", organizationID, "adaccounts")
}
