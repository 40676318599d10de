package authenticating

import (
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/snapchat-ads-extractor/internal/config"
	"github.com/vfg2006/snapchat-ads-extractor/internal/domain"
)

const issuer = "snapchat-ads-extractor"

var knownRoles = []string{domain.RoleOperator, domain.RoleViewer}

type Authenticator interface {
	ValidateToken(tokenString string) (*domain.Claims, error)
	IssueToken(subject, role string, ttl time.Duration) (string, error)
}

type Service struct {
	cfg *config.Config
	now func() time.Time
}

func NewService(cfg *config.Config) Authenticator {
	return &Service{
		cfg: cfg,
		now: time.Now,
	}
}

// IssueToken gera um token HS256 para a API de controle
func (s *Service) IssueToken(subject, role string, ttl time.Duration) (string, error) {
	if s.cfg.Auth.Secret == "" {
		return "", ErrMissingSecret
	}
	if !slices.Contains(knownRoles, role) {
		return "", errors.Wrapf(ErrInvalidRole, "%q", role)
	}

	now := s.now()
	claims := &domain.Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Auth.Secret))
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}

	logrus.WithFields(logrus.Fields{
		"subject": subject,
		"role":    role,
		"ttl":     ttl.String(),
	}).Info("Token da API de controle emitido")

	return signed, nil
}

func (s *Service) ValidateToken(tokenString string) (*domain.Claims, error) {
	// sem segredo configurado nenhum token é aceito
	if s.cfg.Auth.Secret == "" {
		return nil, ErrMissingSecret
	}

	token, err := jwt.ParseWithClaims(tokenString, &domain.Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.Auth.Secret), nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, errors.Wrap(ErrInvalidToken, err.Error())
	}

	claims, ok := token.Claims.(*domain.Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if !slices.Contains(knownRoles, claims.Role) {
		return nil, errors.Wrapf(ErrInvalidToken, "unknown role %q", claims.Role)
	}

	return claims, nil
}
