package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/snapchat-ads-extractor/internal/config"
	"github.com/vfg2006/snapchat-ads-extractor/internal/domain"
	"github.com/vfg2006/snapchat-ads-extractor/pkg/log"
	"github.com/vfg2006/snapchat-ads-extractor/pkg/utils"
)

// RunFunc executa uma extração completa com a configuração vigente
type RunFunc func(ctx context.Context) (*domain.RunSummary, error)

// ExtractionSyncConfig representa a configuração do agendador de extrações
type ExtractionSyncConfig struct {
	CronSchedule string
	SyncEnabled  bool
}

// SyncStatus é o estado exposto em GET /v1/extractions/status
type SyncStatus struct {
	Enabled         bool               `json:"enabled"`
	Cron            string             `json:"cron"`
	Running         bool               `json:"running"`
	LastRunID       string             `json:"last_run_id,omitempty"`
	LastStartedAt   *time.Time         `json:"last_started_at,omitempty"`
	LastCompletedAt *time.Time         `json:"last_completed_at,omitempty"`
	LastError       string             `json:"last_error,omitempty"`
	LastSummary     *domain.RunSummary `json:"last_summary,omitempty"`
}

// ExtractionSyncService agenda a extração e impede execuções sobrepostas
type ExtractionSyncService struct {
	scheduler *gocron.Scheduler
	config    ExtractionSyncConfig
	run       RunFunc
	baseCtx   context.Context

	syncMutex           sync.Mutex
	syncRunning         bool
	lastRunID           string
	lastSyncStartedAt   time.Time
	lastSyncCompletedAt time.Time
	lastError           string
	lastSummary         *domain.RunSummary
	wg                  sync.WaitGroup
}

func NewExtractionSyncService(appConfig *config.Config, run RunFunc) *ExtractionSyncService {
	syncConfig := ExtractionSyncConfig{
		CronSchedule: appConfig.ExtractionSync.CronSchedule,
		SyncEnabled:  appConfig.ExtractionSync.Enabled,
	}

	logrus.WithFields(logrus.Fields{
		"cron_schedule": syncConfig.CronSchedule,
		"sync_enabled":  syncConfig.SyncEnabled,
	}).Info("Configuração do agendador de extração carregada")

	return &ExtractionSyncService{
		scheduler: gocron.NewScheduler(time.UTC),
		config:    syncConfig,
		run:       run,
		baseCtx:   context.Background(),
	}
}

// Start registra o cron e para o agendador quando ctx é cancelado
func (s *ExtractionSyncService) Start(ctx context.Context) error {
	s.baseCtx = ctx

	if !s.config.SyncEnabled {
		logrus.Info("Extração agendada desabilitada por configuração")
		return nil
	}

	logrus.WithField("cron", s.config.CronSchedule).Info("Iniciando agendador de extração")

	_, err := s.scheduler.Cron(s.config.CronSchedule).Do(func() {
		if runID, ok := s.begin(); ok {
			s.execute(runID)
		}
	})
	if err != nil {
		return fmt.Errorf("erro ao agendar extração: %w", err)
	}

	s.scheduler.StartAsync()

	go func() {
		<-ctx.Done()
		logrus.Info("Parando agendador de extração")
		s.scheduler.Stop()
	}()

	return nil
}

// TriggerManualSync dispara uma extração em background; devolve false se já houver uma em andamento
func (s *ExtractionSyncService) TriggerManualSync() (string, bool) {
	runID, ok := s.begin()
	if !ok {
		logrus.Info("Extração já em andamento, ignorando solicitação manual")
		return "", false
	}

	logrus.WithField("run_id", runID).Info("Iniciando extração manual")
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.execute(runID)
	}()

	return runID, true
}

// Wait bloqueia até as extrações manuais em andamento terminarem
func (s *ExtractionSyncService) Wait() {
	s.wg.Wait()
}

func (s *ExtractionSyncService) begin() (string, bool) {
	s.syncMutex.Lock()
	defer s.syncMutex.Unlock()

	if s.syncRunning {
		return "", false
	}

	runID, err := utils.GenerateRunID()
	if err != nil {
		logrus.WithError(err).Warn("Falha ao gerar id da execução")
		runID = fmt.Sprintf("run_%d", time.Now().UnixNano())
	}

	s.syncRunning = true
	s.lastRunID = runID
	s.lastSyncStartedAt = time.Now()
	return runID, true
}

func (s *ExtractionSyncService) execute(runID string) {
	ctx := log.WithRunID(s.baseCtx, runID)
	ctx, _ = log.WithCorrelationID(ctx)
	logger := log.ForContext(ctx)

	logger.Info("Extração iniciada")
	summary, err := s.run(ctx)

	s.syncMutex.Lock()
	defer s.syncMutex.Unlock()

	s.syncRunning = false
	s.lastSyncCompletedAt = time.Now()
	s.lastSummary = summary
	s.lastError = ""
	if err != nil {
		s.lastError = err.Error()
		logger.WithError(err).Error("Extração falhou")
		return
	}

	logger.WithField("duration", s.lastSyncCompletedAt.Sub(s.lastSyncStartedAt).String()).Info("Extração concluída")
}

// GetStatus retorna o status atual do agendador
func (s *ExtractionSyncService) GetStatus() SyncStatus {
	s.syncMutex.Lock()
	defer s.syncMutex.Unlock()

	status := SyncStatus{
		Enabled:     s.config.SyncEnabled,
		Cron:        s.config.CronSchedule,
		Running:     s.syncRunning,
		LastRunID:   s.lastRunID,
		LastError:   s.lastError,
		LastSummary: s.lastSummary,
	}
	if !s.lastSyncStartedAt.IsZero() {
		started := s.lastSyncStartedAt
		status.LastStartedAt = &started
	}
	if !s.lastSyncCompletedAt.IsZero() {
		completed := s.lastSyncCompletedAt
		status.LastCompletedAt = &completed
	}

	return status
}
