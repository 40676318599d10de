package handler

import (
	"net/http"

	"github.com/vfg2006/snapchat-ads-extractor/internal/api/handler/router"
	"github.com/vfg2006/snapchat-ads-extractor/pkg/middleware"
)

func Healthcheck() []router.Route {
	return []router.Route{
		{
			Path:    "/healthcheck",
			Method:  http.MethodGet,
			Handler: HealthcheckHandler(),
		},
	}
}

func Metrics() []router.Route {
	return []router.Route{
		{
			Path:    "/metrics",
			Method:  http.MethodGet,
			Handler: MetricsHandler(),
		},
	}
}

func Extractions(service ExtractionSyncer) []router.Route {
	return []router.Route{
		{
			Path:        "/v1/extractions/run",
			Method:      http.MethodPost,
			Handler:     RunExtraction(service),
			Middlewares: []func(http.Handler) http.Handler{middleware.OperatorOnly()},
		},
		{
			Path:        "/v1/extractions/status",
			Method:      http.MethodGet,
			Handler:     ExtractionStatus(service),
			Middlewares: []func(http.Handler) http.Handler{middleware.AllRoles()},
		},
	}
}
