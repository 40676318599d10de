package repository

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/snapchat-ads-extractor/internal/domain"
)

func TestCreateTableSQL(t *testing.T) {
	schema := domain.Schema{Fields: []string{"id", "name"}, PrimaryKey: []string{"id"}}

	assert.Equal(t,
		`CREATE TABLE IF NOT EXISTS "snapchat_ads" ("id" TEXT, "name" TEXT, PRIMARY KEY ("id"))`,
		CreateTableSQL(domain.TableAds, schema))

	assert.Equal(t,
		`ALTER TABLE "snapchat_ads" ADD COLUMN IF NOT EXISTS "id" TEXT, ADD COLUMN IF NOT EXISTS "name" TEXT`,
		AddColumnsSQL(domain.TableAds, schema))
}

func TestUpsertQuery(t *testing.T) {
	schema := domain.Schema{Fields: []string{"id", "name", "status"}, PrimaryKey: []string{"id"}}

	query, args, err := UpsertQuery(domain.TableCampaigns, schema, [][]string{
		{"c1", "Um", "ACTIVE"},
		{"c2", "Dois", "PAUSED"},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(query, `INSERT INTO "snapchat_campaigns"`), query)
	assert.Contains(t, query, "$6")
	assert.NotContains(t, query, "?")
	assert.True(t, strings.HasSuffix(query,
		`ON CONFLICT ("id") DO UPDATE SET "name" = EXCLUDED."name", "status" = EXCLUDED."status"`), query)
	assert.Equal(t, []any{"c1", "Um", "ACTIVE", "c2", "Dois", "PAUSED"}, args)
}

func TestUpsertQuery_OnlyKeyColumns(t *testing.T) {
	schema := domain.StatisticsSchema(nil)

	query, _, err := UpsertQuery(domain.TableStatistics, schema, [][]string{make([]string, len(schema.Fields))})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(query, "DO NOTHING"), query)
}

func TestDedupeRows(t *testing.T) {
	schema := domain.StatisticsSchema([]string{"impressions"})

	rows, err := dedupeRows(schema, []domain.Record{
		{"id": "c1", "start_time": "t1", "impressions": 1},
		{"id": "c1", "start_time": "t2", "impressions": 2},
		{"id": "c1", "start_time": "t1", "impressions": 3},
	})
	require.NoError(t, err)

	require.Len(t, rows, 2)
	last := len(schema.Fields) - 1
	assert.Equal(t, "3", rows[0][last])
	assert.Equal(t, "2", rows[1][last])
}
