package service

import (
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/rraj-sweb/Talentica-Payment-Processing-System-sub001/internal/core/ports"
	"github.com/rraj-sweb/Talentica-Payment-Processing-System-sub001/pkg/apperror"
)

// AuthServiceImpl exchanges the configured API credential pair for a JWT.
// The secret is stored as an Argon2id hash; the plaintext never lives in
// configuration.
type AuthServiceImpl struct {
	apiKey        string
	apiSecretHash string
	hashSvc       ports.HashService
	tokenSvc      ports.TokenService
}

// NewAuthService creates a new AuthServiceImpl.
func NewAuthService(apiKey, apiSecretHash string, hashSvc ports.HashService, tokenSvc ports.TokenService) *AuthServiceImpl {
	return &AuthServiceImpl{
		apiKey:        apiKey,
		apiSecretHash: apiSecretHash,
		hashSvc:       hashSvc,
		tokenSvc:      tokenSvc,
	}
}

// Login validates the credential pair and returns a JWT token.
func (s *AuthServiceImpl) Login(apiKey, apiSecret string) (string, time.Time, error) {
	if subtle.ConstantTimeCompare([]byte(apiKey), []byte(s.apiKey)) != 1 {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	valid, err := s.hashSvc.Verify(apiSecret, s.apiSecretHash)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("verify api secret: %w", err))
	}
	if !valid {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	token, expiry, err := s.tokenSvc.Generate(apiKey)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("generate token: %w", err))
	}
	return token, expiry, nil
}
