package domain

// StatsResponse é a resposta de GET {objeto}/{id}/stats
type StatsResponse struct {
	RequestStatus   string             `json:"request_status"`
	RequestID       string             `json:"request_id"`
	TimeseriesStats []TimeseriesResult `json:"timeseries_stats"`
}

type TimeseriesResult struct {
	SubRequestStatus string         `json:"sub_request_status"`
	TimeseriesStat   TimeseriesStat `json:"timeseries_stat"`
}

// TimeseriesStat traz o cabeçalho constante e os pontos da série para um objeto
type TimeseriesStat struct {
	ID                       string            `json:"id"`
	Type                     string            `json:"type"`
	Granularity              string            `json:"granularity"`
	StartTime                string            `json:"start_time"`
	EndTime                  string            `json:"end_time"`
	SwipeUpAttributionWindow string            `json:"swipe_up_attribution_window"`
	ViewAttributionWindow    string            `json:"view_attribution_window"`
	Timeseries               []TimeseriesPoint `json:"timeseries"`
}

type TimeseriesPoint struct {
	StartTime string         `json:"start_time"`
	EndTime   string         `json:"end_time"`
	Stats     map[string]any `json:"stats"`
}
