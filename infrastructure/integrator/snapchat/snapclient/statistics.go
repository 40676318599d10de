package snapclient

import (
	"context"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	snapdomain "github.com/vfg2006/snapchat-ads-extractor/infrastructure/integrator/snapchat/domain"
	"github.com/vfg2006/snapchat-ads-extractor/internal/domain"
	"github.com/vfg2006/snapchat-ads-extractor/pkg/utils"
)

// GetStatistics busca a série temporal de um objeto para um intervalo; o endpoint não pagina
func (c *SnapClient) GetStatistics(ctx context.Context, query domain.StatisticsQuery) ([]snapdomain.TimeseriesStat, error) {
	params := url.Values{}
	params.Set("fields", strings.Join(query.Fields, ","))
	params.Set("granularity", string(query.Granularity))
	params.Set("start_time", utils.FormatTimestamp(query.Range.StartTime))
	params.Set("end_time", utils.FormatTimestamp(query.Range.EndTime))
	params.Set("swipe_up_attribution_window", query.WindowSwipe)
	params.Set("view_attribution_window", query.WindowView)

	resource := string(query.Object) + "/{id}/stats"
	body, err := c.get(ctx, resource, params, string(query.Object), query.ObjectID, "stats")
	if err != nil {
		return nil, err
	}

	var response snapdomain.StatsResponse
	if err := utils.JSON.Unmarshal(body, &response); err != nil {
		return nil, errors.Wrapf(err, "decode statistics for %s %s", query.Object, query.ObjectID)
	}

	stats := make([]snapdomain.TimeseriesStat, 0, len(response.TimeseriesStats))
	for _, result := range response.TimeseriesStats {
		stats = append(stats, result.TimeseriesStat)
	}

	return stats, nil
}
