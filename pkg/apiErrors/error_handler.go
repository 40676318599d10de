package apiErrors

import (
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/snapchat-ads-extractor/pkg/utils"
)

// Códigos de erro da API de controle
const (
	// Erros de autenticação
	ErrInvalidToken          = "AUTH_001" // Token inválido ou ausente
	ErrExpiredToken          = "AUTH_002" // Token expirado
	ErrInsufficientPrivilege = "AUTH_003" // Privilégios insuficientes

	// Erros de validação
	ErrInvalidRequest   = "VAL_001" // Requisição inválida
	ErrNotFound         = "VAL_002" // Rota inexistente
	ErrMethodNotAllowed = "VAL_003" // Método não suportado na rota

	// Erros de execução
	ErrSyncInProgress = "RUN_001" // Extração já em andamento

	// Erros do servidor
	ErrInternalServer     = "SRV_001" // Erro interno do servidor
	ErrServiceUnavailable = "SRV_002" // Serviço indisponível
)

// Mapeamento de códigos de erro para status HTTP
var httpStatusMap = map[string]int{
	ErrInvalidToken:          http.StatusUnauthorized,
	ErrExpiredToken:          http.StatusUnauthorized,
	ErrInsufficientPrivilege: http.StatusForbidden,
	ErrInvalidRequest:        http.StatusBadRequest,
	ErrNotFound:              http.StatusNotFound,
	ErrMethodNotAllowed:      http.StatusMethodNotAllowed,
	ErrSyncInProgress:        http.StatusConflict,
	ErrInternalServer:        http.StatusInternalServerError,
	ErrServiceUnavailable:    http.StatusServiceUnavailable,
}

// APIError representa um erro de API padronizado
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

func StatusFor(code string) int {
	if status, exists := httpStatusMap[code]; exists {
		return status
	}
	return http.StatusInternalServerError
}

// WriteError escreve o erro padronizado para a resposta HTTP
func WriteError(w http.ResponseWriter, code string, message string, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(StatusFor(code))

	err := utils.JSON.NewEncoder(w).Encode(APIError{
		Code:    code,
		Message: message,
		Details: details,
	})
	if err != nil {
		logrus.WithError(err).Warn("api: failed to encode error response")
	}
}

// FromError cria um erro de API a partir de um erro Go
func FromError(err error, code string) APIError {
	if err == nil {
		return APIError{
			Code:    ErrInternalServer,
			Message: "Erro desconhecido",
		}
	}

	return APIError{
		Code:    code,
		Message: err.Error(),
	}
}
