package domain

import "fmt"

// ErrorResponse é o corpo devolvido pela Ads API em respostas de erro
type ErrorResponse struct {
	RequestStatus  string `json:"request_status"`
	RequestID      string `json:"request_id"`
	DebugMessage   string `json:"debug_message"`
	DisplayMessage string `json:"display_message"`
	ErrorCode      string `json:"error_code"`
}

func (e *ErrorResponse) String() string {
	if e.DebugMessage != "" {
		return fmt.Sprintf("%s (%s)", e.DebugMessage, e.ErrorCode)
	}
	return e.DisplayMessage
}
