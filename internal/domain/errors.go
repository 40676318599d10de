package domain

import (
	"errors"
	"fmt"
	"time"
)

// ConfigurationError indica parâmetro inválido ou ausente na configuração do job
type ConfigurationError struct {
	Parameter string
	Message   string
}

func NewConfigurationError(parameter, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Parameter: parameter, Message: fmt.Sprintf(format, args...)}
}

func (e *ConfigurationError) Error() string {
	if e.Parameter == "" {
		return "configuration: " + e.Message
	}
	return fmt.Sprintf("configuration: %s: %s", e.Parameter, e.Message)
}

// AuthRefreshError indica que o endpoint de token recusou o refresh token
type AuthRefreshError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *AuthRefreshError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("access token could not be refreshed: %v", e.Err)
	}
	return fmt.Sprintf("access token could not be refreshed. Received: %d - %s", e.StatusCode, e.Body)
}

func (e *AuthRefreshError) Unwrap() error {
	return e.Err
}

// APIRequestError representa qualquer resposta diferente de 200 de um endpoint de dados
type APIRequestError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *APIRequestError) Error() string {
	return fmt.Sprintf("request to %s failed. Received: %d - %s", e.Endpoint, e.StatusCode, e.Body)
}

type InvalidRangeError struct {
	Start time.Time
	End   time.Time
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid date range: start %s is after end %s",
		e.Start.Format(time.DateOnly), e.End.Format(time.DateOnly))
}

type UnknownTimezoneError struct {
	Timezone string
	Err      error
}

func (e *UnknownTimezoneError) Error() string {
	return fmt.Sprintf("unknown timezone %q", e.Timezone)
}

func (e *UnknownTimezoneError) Unwrap() error {
	return e.Err
}

const (
	ExitSuccess    = 0
	ExitUserError  = 1
	ExitUnexpected = 2
)

// ExitCode traduz o erro final de uma execução para o código de saída do processo
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var (
		cfgErr   *ConfigurationError
		authErr  *AuthRefreshError
		apiErr   *APIRequestError
		rangeErr *InvalidRangeError
		tzErr    *UnknownTimezoneError
	)

	switch {
	case errors.As(err, &cfgErr),
		errors.As(err, &authErr),
		errors.As(err, &apiErr),
		errors.As(err, &rangeErr),
		errors.As(err, &tzErr):
		return ExitUserError
	default:
		return ExitUnexpected
	}
}
