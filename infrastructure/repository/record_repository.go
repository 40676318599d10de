package repository

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/snapchat-ads-extractor/infrastructure/database/postgres"
	"github.com/vfg2006/snapchat-ads-extractor/internal/domain"
)

const (
	tablePrefix = "snapchat_"

	// mantém cada INSERT abaixo do limite de 65535 parâmetros do Postgres
	upsertBatchSize = 500
)

type RecordRepository interface {
	EnsureTables(ctx context.Context) error
	Write(ctx context.Context, table domain.Table, records []domain.Record) error
}

type recordRepository struct {
	conn    postgres.Conn
	schemas map[domain.Table]domain.Schema
}

// NewRecordRepository espelha as tabelas de saída no Postgres, todas as colunas como TEXT
func NewRecordRepository(conn postgres.Conn, statisticsMetrics []string) RecordRepository {
	schemas := make(map[domain.Table]domain.Schema, len(domain.EntityTables)+1)
	for _, table := range domain.EntityTables {
		schemas[table], _ = domain.SchemaFor(table)
	}
	schemas[domain.TableStatistics] = domain.StatisticsSchema(statisticsMetrics)

	return &recordRepository{
		conn:    conn,
		schemas: schemas,
	}
}

func TableName(table domain.Table) string {
	return tablePrefix + string(table)
}

// CreateTableSQL cria a tabela com a chave primária do schema
func CreateTableSQL(table domain.Table, schema domain.Schema) string {
	columns := make([]string, 0, len(schema.Fields)+1)
	for _, field := range schema.Fields {
		columns = append(columns, pq.QuoteIdentifier(field)+" TEXT")
	}
	columns = append(columns, "PRIMARY KEY ("+quoteAll(schema.PrimaryKey)+")")

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		pq.QuoteIdentifier(TableName(table)), strings.Join(columns, ", "))
}

// AddColumnsSQL acrescenta colunas que surgiram depois da criação, como novas métricas
func AddColumnsSQL(table domain.Table, schema domain.Schema) string {
	clauses := make([]string, 0, len(schema.Fields))
	for _, field := range schema.Fields {
		clauses = append(clauses, "ADD COLUMN IF NOT EXISTS "+pq.QuoteIdentifier(field)+" TEXT")
	}

	return fmt.Sprintf("ALTER TABLE %s %s", pq.QuoteIdentifier(TableName(table)), strings.Join(clauses, ", "))
}

// UpsertQuery monta INSERT ... ON CONFLICT (pk) DO UPDATE para um lote de linhas já achatadas
func UpsertQuery(table domain.Table, schema domain.Schema, rows [][]string) (string, []any, error) {
	columns := make([]string, len(schema.Fields))
	for i, field := range schema.Fields {
		columns[i] = pq.QuoteIdentifier(field)
	}

	query := squirrel.StatementBuilder.
		Insert(pq.QuoteIdentifier(TableName(table))).
		Columns(columns...)

	for _, row := range rows {
		values := make([]any, len(row))
		for i, value := range row {
			values[i] = value
		}
		query = query.Values(values...)
	}

	updates := make([]string, 0, len(schema.Fields))
	for _, field := range schema.Fields {
		if slices.Contains(schema.PrimaryKey, field) {
			continue
		}
		quoted := pq.QuoteIdentifier(field)
		updates = append(updates, quoted+" = EXCLUDED."+quoted)
	}

	conflict := "ON CONFLICT (" + quoteAll(schema.PrimaryKey) + ")"
	if len(updates) == 0 {
		conflict += " DO NOTHING"
	} else {
		conflict += " DO UPDATE SET " + strings.Join(updates, ", ")
	}

	return query.Suffix(conflict).PlaceholderFormat(squirrel.Dollar).ToSql()
}

func (r *recordRepository) EnsureTables(ctx context.Context) error {
	return r.conn.RunInTransaction(ctx, func(tx *sql.Tx) error {
		for table, schema := range r.schemas {
			if _, err := tx.ExecContext(ctx, CreateTableSQL(table, schema)); err != nil {
				return wrapPQError(err, "create table "+TableName(table))
			}
			if _, err := tx.ExecContext(ctx, AddColumnsSQL(table, schema)); err != nil {
				return wrapPQError(err, "add columns to "+TableName(table))
			}
		}
		return nil
	})
}

// Write grava os registros numa única transação; linhas com a mesma chave no lote ficam com a última versão
func (r *recordRepository) Write(ctx context.Context, table domain.Table, records []domain.Record) error {
	schema, ok := r.schemas[table]
	if !ok {
		return fmt.Errorf("unknown table %q", table)
	}
	if len(records) == 0 {
		return nil
	}

	rows, err := dedupeRows(schema, records)
	if err != nil {
		return err
	}

	err = r.conn.RunInTransaction(ctx, func(tx *sql.Tx) error {
		for start := 0; start < len(rows); start += upsertBatchSize {
			end := min(start+upsertBatchSize, len(rows))

			query, args, err := UpsertQuery(table, schema, rows[start:end])
			if err != nil {
				return errors.Wrap(err, "erro ao construir a query")
			}

			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return wrapPQError(err, "upsert "+TableName(table))
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"table": TableName(table),
		"rows":  len(rows),
	}).Debug("postgres: rows upserted")

	return nil
}

func dedupeRows(schema domain.Schema, records []domain.Record) ([][]string, error) {
	keyIndexes := make([]int, 0, len(schema.PrimaryKey))
	for i, field := range schema.Fields {
		if slices.Contains(schema.PrimaryKey, field) {
			keyIndexes = append(keyIndexes, i)
		}
	}

	rows := make([][]string, 0, len(records))
	positions := make(map[string]int, len(records))
	for _, record := range records {
		row, err := FlattenRecord(schema, record)
		if err != nil {
			return nil, err
		}

		parts := make([]string, len(keyIndexes))
		for i, idx := range keyIndexes {
			parts[i] = row[idx]
		}
		key := strings.Join(parts, "\x00")

		if pos, seen := positions[key]; seen {
			rows[pos] = row
			continue
		}
		positions[key] = len(rows)
		rows = append(rows, row)
	}

	return rows, nil
}

func wrapPQError(err error, action string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return errors.Wrapf(err, "%s: erro no banco de dados (código: %s)", action, pqErr.Code)
	}
	return errors.Wrap(err, action)
}

func quoteAll(fields []string) string {
	quoted := make([]string, len(fields))
	for i, field := range fields {
		quoted[i] = pq.QuoteIdentifier(field)
	}
	return strings.Join(quoted, ", ")
}
