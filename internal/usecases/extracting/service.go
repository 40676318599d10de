package extracting

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/vfg2006/snapchat-ads-extractor/internal/domain"
	"github.com/vfg2006/snapchat-ads-extractor/pkg/log"
	"github.com/vfg2006/snapchat-ads-extractor/pkg/metrics"
	"github.com/vfg2006/snapchat-ads-extractor/pkg/utils"
)

type Service struct {
	integrator Integrator
	sink       RowSink
}

// NewService cria o orquestrador da extração
func NewService(integrator Integrator, sink RowSink) Extractor {
	return &Service{
		integrator: integrator,
		sink:       sink,
	}
}

// Run percorre organizations -> ad accounts -> entidades e statistics de cada ad account.
// Qualquer erro interrompe a execução; o que já foi gravado nos sinks permanece.
func (s *Service) Run(ctx context.Context, params *domain.ExtractionParams) (summary *domain.RunSummary, err error) {
	if params == nil {
		return nil, domain.NewConfigurationError("parameters", "extraction parameters are missing")
	}

	if log.GetCorrelationID(ctx) == "" {
		ctx, _ = log.WithCorrelationID(ctx)
	}
	logger := log.ForContext(ctx)

	started := time.Now()
	defer func() {
		metrics.RunDuration.WithLabelValues(metrics.Result(err)).Observe(time.Since(started).Seconds())
	}()

	logger.WithFields(log.Fields{
		"objects":     params.Objects,
		"start_date":  params.StartDate.Format(time.DateOnly),
		"end_date":    params.EndDate.Format(time.DateOnly),
		"granularity": params.Granularity,
		"chunks":      len(params.Chunks),
	}).Info("extraction: run started")

	summary = domain.NewRunSummary()

	organizations, err := s.integrator.GetOrganizations(ctx)
	if err != nil {
		return summary, errors.Wrap(err, "list organizations")
	}
	if err := s.write(ctx, summary, domain.TableOrganizations, organizations); err != nil {
		return summary, err
	}
	summary.Organizations = len(organizations)

	for _, organization := range organizations {
		adAccounts, err := s.integrator.GetAdAccounts(ctx, organization.ID())
		if err != nil {
			return summary, errors.Wrapf(err, "list ad accounts of organization %s", organization.ID())
		}
		if err := s.write(ctx, summary, domain.TableAdAccounts, adAccounts); err != nil {
			return summary, err
		}

		for _, adAccount := range adAccounts {
			if err := s.extractAdAccount(ctx, summary, params, adAccount); err != nil {
				return summary, err
			}
			summary.AdAccounts++
		}
	}

	logger.WithFields(log.Fields{
		"organizations":    summary.Organizations,
		"ad_accounts":      summary.AdAccounts,
		"statistics_calls": summary.StatisticsCalls,
		"duration":         time.Since(started).String(),
	}).Info("extraction: run finished")

	return summary, nil
}

func (s *Service) extractAdAccount(ctx context.Context, summary *domain.RunSummary, params *domain.ExtractionParams, adAccount domain.Record) error {
	adAccountID := adAccount.ID()
	logger := log.ForContext(ctx).WithField("ad_account_id", adAccountID)

	// fuso validado antes de qualquer chamada do ad account
	ranges, err := utils.NormalizeChunks(params.Chunks, adAccount.Timezone())
	if err != nil {
		return errors.Wrapf(err, "ad account %s", adAccountID)
	}

	logger.WithField("timezone", adAccount.Timezone()).Info("extraction: processing ad account")

	listings := []struct {
		table domain.Table
		list  func(context.Context, string) ([]domain.Record, error)
	}{
		{domain.TableCampaigns, s.integrator.GetCampaigns},
		{domain.TableAdSquads, s.integrator.GetAdSquads},
		{domain.TableAds, s.integrator.GetAds},
		{domain.TableCreatives, s.integrator.GetCreatives},
	}

	ids := make(map[domain.StatisticsObject][]string)
	for _, listing := range listings {
		records, err := listing.list(ctx, adAccountID)
		if err != nil {
			return errors.Wrapf(err, "list %s of ad account %s", listing.table, adAccountID)
		}
		if err := s.write(ctx, summary, listing.table, records); err != nil {
			return err
		}

		object := domain.StatisticsObject(listing.table)
		if params.HasObject(object) {
			for _, record := range records {
				ids[object] = append(ids[object], record.ID())
			}
		}
	}

	for _, object := range params.Objects {
		for _, objectID := range ids[object] {
			for _, timeRange := range ranges {
				if err := s.extractStatistics(ctx, summary, params, object, objectID, timeRange); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

func (s *Service) extractStatistics(ctx context.Context, summary *domain.RunSummary, params *domain.ExtractionParams, object domain.StatisticsObject, objectID string, timeRange domain.TimeRange) error {
	query := domain.StatisticsQuery{
		Object:      object,
		ObjectID:    objectID,
		Fields:      params.Metrics,
		Granularity: params.Granularity,
		Range:       timeRange,
		WindowSwipe: params.WindowSwipe,
		WindowView:  params.WindowView,
	}

	rows, err := s.integrator.GetStatisticsRows(ctx, query)
	summary.StatisticsCalls++
	if err != nil {
		return errors.Wrapf(err, "statistics of %s %s from %s to %s", object, objectID,
			utils.FormatTimestamp(timeRange.StartTime), utils.FormatTimestamp(timeRange.EndTime))
	}

	return s.write(ctx, summary, domain.TableStatistics, rows)
}

func (s *Service) write(ctx context.Context, summary *domain.RunSummary, table domain.Table, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}

	if err := s.sink.Write(ctx, table, records); err != nil {
		log.ForContext(ctx).WithFields(log.Fields{
			"table": table,
			"rows":  len(records),
		}).WithError(err).Error("extraction: failed to write rows")
		return errors.Wrapf(err, "write %s", table)
	}

	summary.RowsWritten[table] += len(records)
	return nil
}

// ListOrganizations lista as organizations acessíveis pelo token, sem gravar tabelas
func (s *Service) ListOrganizations(ctx context.Context) ([]domain.Record, error) {
	organizations, err := s.integrator.GetOrganizations(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list organizations")
	}

	return organizations, nil
}
