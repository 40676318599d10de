package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "snapchat_extractor"

var (
	// APIRequests conta respostas finais (após retries) por endpoint e status
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Requests issued to the Snapchat Ads API by endpoint and final status",
		},
		[]string{"endpoint", "status"},
	)

	APIRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_retries_total",
			Help:      "Transport level retries by triggering status (0 for network errors)",
		},
		[]string{"status"},
	)

	TokenRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_refreshes_total",
			Help:      "OAuth access token refresh attempts by result",
		},
		[]string{"result"},
	)

	RowsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_written_total",
			Help:      "Rows handed to the output sinks by table",
		},
		[]string{"table"},
	)

	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of complete extraction runs",
			Buckets:   []float64{10, 30, 60, 300, 900, 1800, 3600, 7200},
		},
		[]string{"result"},
	)
)

func ObserveAPIRequest(endpoint string, status int) {
	APIRequests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
}

func ObserveRetry(status int) {
	APIRetries.WithLabelValues(strconv.Itoa(status)).Inc()
}

func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
