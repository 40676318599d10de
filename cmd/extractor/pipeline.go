package main

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/snapchat-ads-extractor/infrastructure/database/postgres"
	"github.com/vfg2006/snapchat-ads-extractor/infrastructure/integrator/snapchat"
	"github.com/vfg2006/snapchat-ads-extractor/infrastructure/integrator/snapchat/snapclient"
	"github.com/vfg2006/snapchat-ads-extractor/infrastructure/repository"
	"github.com/vfg2006/snapchat-ads-extractor/internal/config"
	"github.com/vfg2006/snapchat-ads-extractor/internal/usecases/extracting"
)

// pipeline agrupa o extractor e os recursos que precisam ser liberados ao fim da execução
type pipeline struct {
	extractor   extracting.Extractor
	tableWriter *repository.TableWriter
	pgConn      *postgres.Connection
}

// newIntegrator obtém o primeiro access token antes de qualquer sink ser aberto:
// credencial revogada não pode truncar as tabelas da execução anterior
func newIntegrator(ctx context.Context, cfg *config.Config, job *config.JobConfig) (*snapchat.SnapchatIntegrator, error) {
	credentials, err := job.Credentials()
	if err != nil {
		return nil, err
	}

	tokenManager := snapclient.NewTokenManager(cfg, credentials)
	if err := tokenManager.InitToken(ctx); err != nil {
		return nil, err
	}

	client, err := snapclient.NewClient(cfg, tokenManager)
	if err != nil {
		return nil, err
	}

	return snapchat.New(client), nil
}

func newListingExtractor(ctx context.Context, cfg *config.Config, job *config.JobConfig) (extracting.Extractor, error) {
	integrator, err := newIntegrator(ctx, cfg, job)
	if err != nil {
		return nil, err
	}

	return extracting.NewService(integrator, repository.NewMultiSink()), nil
}

func newPipeline(ctx context.Context, cfg *config.Config, job *config.JobConfig, statisticsMetrics []string) (*pipeline, error) {
	integrator, err := newIntegrator(ctx, cfg, job)
	if err != nil {
		return nil, err
	}

	p := &pipeline{}

	p.tableWriter, err = repository.NewTableWriter(cfg.App.DataDir, statisticsMetrics)
	if err != nil {
		return nil, err
	}
	sinks := []repository.Sink{p.tableWriter}

	if cfg.Database.Enabled() {
		p.pgConn, err = pgconn(ctx, cfg.Database)
		if err != nil {
			p.Close()
			return nil, err
		}

		recordRepo := repository.NewRecordRepository(p.pgConn, statisticsMetrics)
		if err := recordRepo.EnsureTables(ctx); err != nil {
			p.Close()
			return nil, err
		}
		sinks = append(sinks, recordRepo)
	}

	p.extractor = extracting.NewService(integrator, repository.NewMultiSink(sinks...))
	return p, nil
}

func (p *pipeline) Close() {
	if p.tableWriter != nil {
		if err := p.tableWriter.Close(); err != nil {
			logrus.WithError(err).Error("Erro ao fechar tabelas de saída")
		}
	}
	if p.pgConn != nil {
		p.pgConn.Close()
	}
}

// pgconn cria uma conexão com o banco de dados
func pgconn(ctx context.Context, dbConfig config.Database) (*postgres.Connection, error) {
	conn, err := postgres.NewConnection(ctx, dbConfig)
	if err != nil {
		logrus.WithError(err).Error("Erro ao conectar ao PostgreSQL")
		return nil, err
	}

	logrus.Info("Conexão com PostgreSQL estabelecida com sucesso")
	return conn, nil
}
