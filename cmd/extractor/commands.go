package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/snapchat-ads-extractor/internal/api"
	"github.com/vfg2006/snapchat-ads-extractor/internal/config"
	"github.com/vfg2006/snapchat-ads-extractor/internal/domain"
	"github.com/vfg2006/snapchat-ads-extractor/internal/scheduler"
	"github.com/vfg2006/snapchat-ads-extractor/internal/usecases/authenticating"
	"github.com/vfg2006/snapchat-ads-extractor/pkg/utils"
)

// runExtraction executa a ação configurada em config.json uma única vez
func runExtraction(ctx context.Context, out io.Writer, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	job, err := config.LoadJobConfig(cfg.JobConfigPath())
	if err != nil {
		return err
	}

	if job.Action == config.ActionListOrganizations {
		return listOrganizations(ctx, out, cfg, job)
	}
	if job.Action != config.ActionRun {
		return domain.NewConfigurationError("action", "unsupported action %q", job.Action)
	}

	summary, err := extractOnce(ctx, cfg, job)
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"organizations":    summary.Organizations,
		"ad_accounts":      summary.AdAccounts,
		"statistics_calls": summary.StatisticsCalls,
		"rows_written":     summary.RowsWritten,
	}).Info("Extração concluída")

	return nil
}

// extractOnce valida os parâmetros, monta o pipeline e executa uma extração completa
func extractOnce(ctx context.Context, cfg *config.Config, job *config.JobConfig) (*domain.RunSummary, error) {
	params, err := job.ExtractionParams(time.Now())
	if err != nil {
		return nil, err
	}

	p, err := newPipeline(ctx, cfg, job, params.Metrics)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	return p.extractor.Run(ctx, params)
}

func listOrganizations(ctx context.Context, w io.Writer, cfg *config.Config, job *config.JobConfig) error {
	extractor, err := newListingExtractor(ctx, cfg, job)
	if err != nil {
		return err
	}

	organizations, err := extractor.ListOrganizations(ctx)
	if err != nil {
		return err
	}

	out, err := utils.PrettyJson(organizations)
	if err != nil {
		return errors.Wrap(err, "encode organizations")
	}

	fmt.Fprintln(w, out)
	return nil
}

// runScheduled mantém o processo vivo: extrações via cron e API de controle até SIGINT/SIGTERM
func runScheduled(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// config.json é relido a cada execução para refletir alterações sem reiniciar
	syncService := scheduler.NewExtractionSyncService(cfg, func(ctx context.Context) (*domain.RunSummary, error) {
		job, err := config.LoadJobConfig(cfg.JobConfigPath())
		if err != nil {
			return nil, err
		}
		return extractOnce(ctx, cfg, job)
	})

	if err := syncService.Start(ctx); err != nil {
		return domain.NewConfigurationError("extraction_sync_cron", "%v", err)
	}
	logrus.Info("Agendador de extração iniciado com sucesso")

	authenticator := authenticating.NewService(cfg)
	server := api.New(cfg, syncService, authenticator)

	err := server.Run(ctx)

	// extrações manuais em andamento terminam antes da saída
	syncService.Wait()
	return err
}

func issueToken(out io.Writer, cfg *config.Config, subject, role string, ttl time.Duration) error {
	token, err := authenticating.NewService(cfg).IssueToken(subject, role, ttl)
	if err != nil {
		return domain.NewConfigurationError("auth_secret", "could not issue token: %v", err)
	}

	fmt.Fprintln(out, token)
	return nil
}
