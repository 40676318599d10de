package handler

import (
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/snapchat-ads-extractor/internal/scheduler"
	"github.com/vfg2006/snapchat-ads-extractor/pkg/apiErrors"
	"github.com/vfg2006/snapchat-ads-extractor/pkg/middleware"
	"github.com/vfg2006/snapchat-ads-extractor/pkg/utils"
)

// ExtractionSyncer é o subconjunto do agendador usado pelos handlers
type ExtractionSyncer interface {
	TriggerManualSync() (string, bool)
	GetStatus() scheduler.SyncStatus
}

type RunExtractionResponse struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

// RunExtraction dispara manualmente uma extração completa
func RunExtraction(service ExtractionSyncer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fields := logrus.Fields{}
		if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
			fields["subject"] = claims.Subject
		}

		runID, started := service.TriggerManualSync()
		if !started {
			logrus.WithFields(fields).Info("Extração manual recusada: já existe uma em andamento")
			apiErrors.WriteError(w, apiErrors.ErrSyncInProgress, "Já existe uma extração em andamento", service.GetStatus())
			return
		}

		fields["run_id"] = runID
		logrus.WithFields(fields).Info("Extração manual disparada")

		writeJSON(w, http.StatusAccepted, RunExtractionResponse{RunID: runID, Status: "started"})
	}
}

// ExtractionStatus retorna o estado do agendador e da última execução
func ExtractionStatus(service ExtractionSyncer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, service.GetStatus())
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := utils.JSON.NewEncoder(w).Encode(body); err != nil {
		logrus.WithError(err).Error("Erro ao serializar resposta")
	}
}
