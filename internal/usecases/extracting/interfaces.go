package extracting

import (
	"context"

	"github.com/vfg2006/snapchat-ads-extractor/internal/domain"
)

// Integrator define a interface de leitura da API de anúncios
type Integrator interface {
	GetOrganizations(ctx context.Context) ([]domain.Record, error)
	GetAdAccounts(ctx context.Context, organizationID string) ([]domain.Record, error)
	GetCampaigns(ctx context.Context, adAccountID string) ([]domain.Record, error)
	GetAdSquads(ctx context.Context, adAccountID string) ([]domain.Record, error)
	GetAds(ctx context.Context, adAccountID string) ([]domain.Record, error)
	GetCreatives(ctx context.Context, adAccountID string) ([]domain.Record, error)

	// GetStatisticsRows devolve uma linha por ponto da série temporal do objeto
	GetStatisticsRows(ctx context.Context, query domain.StatisticsQuery) ([]domain.Record, error)
}

// RowSink persiste registros achatados de uma tabela
type RowSink interface {
	Write(ctx context.Context, table domain.Table, records []domain.Record) error
}

// Extractor é o caso de uso exposto ao CLI e ao scheduler
type Extractor interface {
	Run(ctx context.Context, params *domain.ExtractionParams) (*domain.RunSummary, error)
	ListOrganizations(ctx context.Context) ([]domain.Record, error)
}
