package domain

import "slices"

// Record é um recurso da API já desembrulhado (organization, adaccount, campaign...)
type Record map[string]any

type Table string

const (
	TableOrganizations Table = "organizations"
	TableAdAccounts    Table = "adaccounts"
	TableCampaigns     Table = "campaigns"
	TableAdSquads      Table = "adsquads"
	TableCreatives     Table = "creatives"
	TableAds           Table = "ads"
	TableStatistics    Table = "statistics"
)

// EntityTables lista as tabelas de entidades na ordem em que os arquivos são criados
var EntityTables = []Table{
	TableOrganizations,
	TableAdAccounts,
	TableCampaigns,
	TableAdSquads,
	TableCreatives,
	TableAds,
}

// Schema descreve a saída de uma tabela: ordem das colunas, chave primária e colunas serializadas em JSON
type Schema struct {
	Fields     []string
	PrimaryKey []string
	JSONFields []string
}

func (s Schema) IsJSONField(field string) bool {
	return slices.Contains(s.JSONFields, field)
}

var statisticsFields = []string{
	"id", "type", "granularity", "swipe_up_attribution_window", "view_attribution_window",
	"start_time", "end_time",
}

var schemas = map[Table]Schema{
	TableOrganizations: {
		Fields: []string{
			"id", "updated_at", "created_at", "name", "country", "postal_code", "locality", "contact_name",
			"contact_email", "tax_id", "address_line_1", "administrative_district_level_1",
			"accepted_term_version", "configuration_settings", "type", "state", "roles", "my_display_name",
			"my_invited_email", "my_member_id",
		},
		PrimaryKey: []string{"id"},
		JSONFields: []string{"configuration_settings", "roles"},
	},
	TableAdAccounts: {
		Fields: []string{
			"id", "updated_at", "created_at", "name", "type", "status", "organization_id",
			"funding_source_ids", "currency", "timezone", "advertiser_organization_id", "billing_center_id",
			"billing_type", "agency_representing_client", "client_paying_invoices", "regulations",
		},
		PrimaryKey: []string{"id"},
		JSONFields: []string{"funding_source_ids", "regulations"},
	},
	TableCampaigns: {
		Fields: []string{
			"id", "name", "ad_account_id", "status", "objective", "updated_at", "created_at",
			"start_time", "end_time", "lifetime_spend_cap_micro", "daily_budget_micro", "buy_model",
			"regulations", "measurement_spec",
		},
		PrimaryKey: []string{"id"},
		JSONFields: []string{"regulations", "measurement_spec"},
	},
	TableAdSquads: {
		Fields: []string{
			"id", "name", "campaign_id", "status", "updated_at", "created_at", "type", "targeting",
			"targeting_reach_status", "placement", "billing_event", "bid_micro", "auto_bid", "target_bid",
			"lifetime_budget_micro", "start_time", "end_time", "optimization_goal", "delivery_constraint",
			"pacing_type",
		},
		PrimaryKey: []string{"id"},
		JSONFields: []string{"targeting"},
	},
	TableCreatives: {
		Fields: []string{
			"id", "updated_at", "created_at", "name", "ad_account_id", "type", "packaging_status",
			"review_status", "review_status_details", "shareable", "forced_view_eligibility", "headline",
			"brand_name", "call_to_action", "render_type", "top_snap_media_id", "top_snap_crop_position",
			"ad_product", "app_install_properties", "longform_video_properties", "web_view_properties",
		},
		PrimaryKey: []string{"id"},
		JSONFields: []string{"app_install_properties", "longform_video_properties", "web_view_properties"},
	},
	TableAds: {
		Fields: []string{
			"id", "name", "ad_squad_id", "creative_id", "status", "type", "render_type", "updated_at",
			"created_at", "review_status",
		},
		PrimaryKey: []string{"id"},
	},
	TableStatistics: {
		Fields:     statisticsFields,
		PrimaryKey: statisticsFields,
	},
}

// SchemaFor retorna o schema estático da tabela. Para statistics as métricas da
// execução precisam ser anexadas com StatisticsSchema.
func SchemaFor(table Table) (Schema, bool) {
	s, ok := schemas[table]
	return s, ok
}

// StatisticsSchema monta o schema de statistics com as métricas solicitadas ao final
func StatisticsSchema(metrics []string) Schema {
	fields := make([]string, 0, len(statisticsFields)+len(metrics))
	fields = append(fields, statisticsFields...)
	for _, m := range metrics {
		if !slices.Contains(fields, m) {
			fields = append(fields, m)
		}
	}

	pk := make([]string, len(statisticsFields))
	copy(pk, statisticsFields)

	return Schema{Fields: fields, PrimaryKey: pk}
}
