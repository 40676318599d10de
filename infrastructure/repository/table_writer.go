package repository

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/snapchat-ads-extractor/internal/domain"
	"github.com/vfg2006/snapchat-ads-extractor/pkg/metrics"
	"github.com/vfg2006/snapchat-ads-extractor/pkg/utils"
)

// Manifest acompanha cada tabela de saída e declara a carga incremental por chave primária
type Manifest struct {
	Incremental bool     `json:"incremental"`
	PrimaryKey  []string `json:"primary_key"`
}

type tableFile struct {
	schema domain.Schema
	file   *os.File
	writer *csv.Writer
}

// TableWriter grava uma tabela CSV por Table em <dataDir>/out/tables.
// O cabeçalho e o manifest são criados na construção, mesmo que nenhuma linha seja escrita.
type TableWriter struct {
	dir    string
	mu     sync.Mutex
	tables map[domain.Table]*tableFile
}

func TablesDir(dataDir string) string {
	return filepath.Join(dataDir, "out", "tables")
}

func NewTableWriter(dataDir string, statisticsMetrics []string) (*TableWriter, error) {
	dir := TablesDir(dataDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create output directory %s", dir)
	}

	w := &TableWriter{
		dir:    dir,
		tables: make(map[domain.Table]*tableFile),
	}

	for _, table := range domain.EntityTables {
		schema, _ := domain.SchemaFor(table)
		if err := w.open(table, schema); err != nil {
			w.Close()
			return nil, err
		}
	}

	if err := w.open(domain.TableStatistics, domain.StatisticsSchema(statisticsMetrics)); err != nil {
		w.Close()
		return nil, err
	}

	return w, nil
}

func (w *TableWriter) open(table domain.Table, schema domain.Schema) error {
	path := filepath.Join(w.dir, string(table)+".csv")

	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create table %s", path)
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(schema.Fields); err != nil {
		file.Close()
		return errors.Wrapf(err, "write header of %s", path)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		file.Close()
		return errors.Wrapf(err, "write header of %s", path)
	}

	manifest, err := utils.JSON.Marshal(Manifest{Incremental: true, PrimaryKey: schema.PrimaryKey})
	if err != nil {
		file.Close()
		return errors.Wrap(err, "encode manifest")
	}
	if err := os.WriteFile(path+".manifest", manifest, 0o644); err != nil {
		file.Close()
		return errors.Wrapf(err, "write manifest of %s", path)
	}

	w.tables[table] = &tableFile{schema: schema, file: file, writer: writer}
	return nil
}

// Write acrescenta os registros à tabela na ordem recebida
func (w *TableWriter) Write(ctx context.Context, table domain.Table, records []domain.Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	t, ok := w.tables[table]
	if !ok {
		return fmt.Errorf("unknown table %q", table)
	}

	for _, record := range records {
		row, err := FlattenRecord(t.schema, record)
		if err != nil {
			return errors.Wrapf(err, "flatten %s record %s", table, record.ID())
		}
		if err := t.writer.Write(row); err != nil {
			return errors.Wrapf(err, "write %s row", table)
		}
	}

	t.writer.Flush()
	if err := t.writer.Error(); err != nil {
		return errors.Wrapf(err, "flush %s", table)
	}

	metrics.RowsWritten.WithLabelValues(string(table)).Add(float64(len(records)))
	logrus.WithFields(logrus.Fields{
		"table": table,
		"rows":  len(records),
	}).Debug("csv: rows written")

	return nil
}

// Close fecha todos os arquivos; devolve o primeiro erro encontrado
func (w *TableWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var first error
	for table, t := range w.tables {
		t.writer.Flush()
		if err := t.writer.Error(); err != nil && first == nil {
			first = errors.Wrapf(err, "flush %s", table)
		}
		if err := t.file.Close(); err != nil && first == nil {
			first = errors.Wrapf(err, "close %s", table)
		}
	}
	w.tables = map[domain.Table]*tableFile{}

	return first
}
