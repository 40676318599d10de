package domain

import (
	"fmt"
	"slices"
	"time"
)

// StatisticsObject é o tipo de objeto para o qual statistics podem ser solicitadas.
// O valor é também o segmento de path do endpoint de stats.
type StatisticsObject string

const (
	ObjectCampaigns StatisticsObject = "campaigns"
	ObjectAdSquads  StatisticsObject = "adsquads"
	ObjectAds       StatisticsObject = "ads"
)

var SupportedObjects = []StatisticsObject{ObjectCampaigns, ObjectAdSquads, ObjectAds}

type Granularity string

const (
	GranularityHour Granularity = "HOUR"
	GranularityDay  Granularity = "DAY"
)

var SupportedGranularity = []Granularity{GranularityHour, GranularityDay}

// MaxChunkDays é o maior intervalo aceito pelo endpoint de stats para a granularidade
func (g Granularity) MaxChunkDays() int {
	if g == GranularityDay {
		return 28
	}
	return 6
}

var (
	SupportedWindowSwipe = []string{"1_DAY", "7_DAY", "28_DAY"}
	SupportedWindowView  = []string{"1_HOUR", "3_HOUR", "6_HOUR", "1_DAY", "7_DAY", "28_DAY"}
)

const (
	DefaultWindowSwipe = "28_DAY"
	DefaultWindowView  = "1_DAY"
)

var DefaultMetrics = []string{"impressions", "spend"}

// DateChunk é um sub-intervalo de datas de calendário (meia-noite UTC como representação)
type DateChunk struct {
	StartDate time.Time
	EndDate   time.Time
}

// TimeRange é um DateChunk promovido para instantes com fuso do ad account
type TimeRange struct {
	StartTime time.Time
	EndTime   time.Time
}

// StatisticsQuery agrupa os parâmetros de uma chamada ao endpoint de stats
type StatisticsQuery struct {
	Object      StatisticsObject
	ObjectID    string
	Fields      []string
	Granularity Granularity
	Range       TimeRange
	WindowSwipe string
	WindowView  string
}

// ExtractionParams são os parâmetros validados de uma execução
type ExtractionParams struct {
	Objects     []StatisticsObject
	StartDate   time.Time
	EndDate     time.Time
	Metrics     []string
	Granularity Granularity
	WindowSwipe string
	WindowView  string
	Chunks      []DateChunk
}

func (p ExtractionParams) HasObject(object StatisticsObject) bool {
	return slices.Contains(p.Objects, object)
}

// OAuthCredentials são os dados do app e o refresh token autorizado pelo usuário
type OAuthCredentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// RunSummary resume o que uma execução entregou aos sinks
type RunSummary struct {
	Organizations   int           `json:"organizations"`
	AdAccounts      int           `json:"ad_accounts"`
	RowsWritten     map[Table]int `json:"rows_written"`
	StatisticsCalls int           `json:"statistics_calls"`
}

func NewRunSummary() *RunSummary {
	return &RunSummary{RowsWritten: make(map[Table]int)}
}

// ID devolve o campo id do recurso como texto
func (r Record) ID() string {
	switch id := r["id"].(type) {
	case nil:
		return ""
	case string:
		return id
	default:
		return fmt.Sprint(id)
	}
}

// Timezone devolve o fuso IANA de um ad account
func (r Record) Timezone() string {
	tz, _ := r["timezone"].(string)
	return tz
}
