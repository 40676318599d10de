package domain

import "github.com/golang-jwt/jwt/v5"

const (
	RoleOperator = "operator"
	RoleViewer   = "viewer"
)

// Claims são os dados do token aceito pela API de controle do modo agendado
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}
