package snapchat

import (
	"context"

	"github.com/sirupsen/logrus"
	snapdomain "github.com/vfg2006/snapchat-ads-extractor/infrastructure/integrator/snapchat/domain"
	"github.com/vfg2006/snapchat-ads-extractor/infrastructure/integrator/snapchat/snapclient"
	"github.com/vfg2006/snapchat-ads-extractor/internal/domain"
	"github.com/vfg2006/snapchat-ads-extractor/pkg/utils"
)

type SnapchatIntegrator struct {
	Client snapclient.Client
}

func New(client snapclient.Client) *SnapchatIntegrator {
	return &SnapchatIntegrator{
		Client: client,
	}
}

func (s *SnapchatIntegrator) GetOrganizations(ctx context.Context) ([]domain.Record, error) {
	organizations, err := s.Client.GetOrganizations(ctx)
	if err != nil {
		logrus.WithError(err).Error("snapchat: failed to get organizations")
		return nil, err
	}

	logrus.WithField("count", len(organizations)).Debug("snapchat: organizations retrieved")
	return organizations, nil
}

func (s *SnapchatIntegrator) GetAdAccounts(ctx context.Context, organizationID string) ([]domain.Record, error) {
	adAccounts, err := s.Client.GetAdAccounts(ctx, organizationID)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"organization_id": organizationID,
			"error":           err.Error(),
		}).Error("snapchat: failed to get ad accounts")
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"organization_id": organizationID,
		"count":           len(adAccounts),
	}).Debug("snapchat: ad accounts retrieved")
	return adAccounts, nil
}

func (s *SnapchatIntegrator) GetCampaigns(ctx context.Context, adAccountID string) ([]domain.Record, error) {
	return s.listByAdAccount(ctx, domain.TableCampaigns, adAccountID, s.Client.GetCampaigns)
}

func (s *SnapchatIntegrator) GetAdSquads(ctx context.Context, adAccountID string) ([]domain.Record, error) {
	return s.listByAdAccount(ctx, domain.TableAdSquads, adAccountID, s.Client.GetAdSquads)
}

func (s *SnapchatIntegrator) GetAds(ctx context.Context, adAccountID string) ([]domain.Record, error) {
	return s.listByAdAccount(ctx, domain.TableAds, adAccountID, s.Client.GetAds)
}

func (s *SnapchatIntegrator) GetCreatives(ctx context.Context, adAccountID string) ([]domain.Record, error) {
	return s.listByAdAccount(ctx, domain.TableCreatives, adAccountID, s.Client.GetCreatives)
}

func (s *SnapchatIntegrator) listByAdAccount(ctx context.Context, table domain.Table, adAccountID string, list func(context.Context, string) ([]domain.Record, error)) ([]domain.Record, error) {
	records, err := list(ctx, adAccountID)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"ad_account_id": adAccountID,
			"table":         table,
			"error":         err.Error(),
		}).Error("snapchat: failed to list ad account resources")
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"ad_account_id": adAccountID,
		"table":         table,
		"count":         len(records),
	}).Debug("snapchat: ad account resources retrieved")
	return records, nil
}

// GetStatisticsRows busca as statistics de um objeto num intervalo e devolve uma linha por ponto da série
func (s *SnapchatIntegrator) GetStatisticsRows(ctx context.Context, query domain.StatisticsQuery) ([]domain.Record, error) {
	stats, err := s.Client.GetStatistics(ctx, query)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"object":     query.Object,
			"object_id":  query.ObjectID,
			"start_time": utils.FormatTimestamp(query.Range.StartTime),
			"end_time":   utils.FormatTimestamp(query.Range.EndTime),
			"error":      err.Error(),
		}).Error("snapchat: failed to get statistics")
		return nil, err
	}

	rows := FactoryStatisticsRows(stats)

	logrus.WithFields(logrus.Fields{
		"object":    query.Object,
		"object_id": query.ObjectID,
		"rows":      len(rows),
	}).Debug("snapchat: statistics retrieved")

	return rows, nil
}

// FactoryStatisticsRows repete o cabeçalho da série em cada ponto e junta as métricas do ponto.
// Uma métrica com o mesmo nome de uma coluna do cabeçalho não sobrescreve o cabeçalho.
func FactoryStatisticsRows(stats []snapdomain.TimeseriesStat) []domain.Record {
	rows := make([]domain.Record, 0)

	for _, stat := range stats {
		for _, point := range stat.Timeseries {
			row := make(domain.Record, len(point.Stats)+7)
			for metric, value := range point.Stats {
				row[metric] = value
			}

			row["id"] = stat.ID
			row["type"] = stat.Type
			row["granularity"] = stat.Granularity
			row["swipe_up_attribution_window"] = stat.SwipeUpAttributionWindow
			row["view_attribution_window"] = stat.ViewAttributionWindow
			row["start_time"] = point.StartTime
			row["end_time"] = point.EndTime

			rows = append(rows, row)
		}
	}

	return rows
}
