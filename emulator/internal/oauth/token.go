package oauth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	tokenLength     = 32
	tokenTTL        = 3600    // 1 hour in seconds
	refreshTokenTTL = 2592000 // 30 days in seconds
)

// TokenManager manages OAuth2 access tokens. Tokens live in memory and are
// lost on restart.
type TokenManager struct {
	tokens      *cache.Cache
	staticToken string
}

// TokenOption configures a TokenManager.
type TokenOption func(*TokenManager)

// WithStaticToken accepts token forever in addition to issued tokens.
func WithStaticToken(token string) TokenOption {
	return func(tm *TokenManager) {
		tm.staticToken = token
	}
}

// NewTokenManager creates a new TokenManager.
func NewTokenManager(opts ...TokenOption) *TokenManager {
	tm := &TokenManager{
		tokens: cache.New(tokenTTL*time.Second, 10*time.Minute),
	}
	for _, opt := range opts {
		opt(tm)
	}
	return tm
}

// GenerateToken generates a new access token and stores it.
func (tm *TokenManager) GenerateToken() (string, error) {
	token, err := generateRandomToken(tokenLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	tm.tokens.Set(token, struct{}{}, tokenTTL*time.Second)
	return token, nil
}

// GenerateRefreshToken generates a new refresh token and stores it.
func (tm *TokenManager) GenerateRefreshToken() (string, error) {
	token, err := generateRandomToken(tokenLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate refresh token: %w", err)
	}

	tm.tokens.Set("refresh:"+token, struct{}{}, refreshTokenTTL*time.Second)
	return token, nil
}

// ValidateToken reports whether token is a live access token.
func (tm *TokenManager) ValidateToken(token string) bool {
	if token == "" {
		return false
	}
	if tm.staticToken != "" && token == tm.staticToken {
		return true
	}
	_, ok := tm.tokens.Get(token)
	return ok
}

// ValidateRefreshToken consumes a refresh token. Each one is usable once.
func (tm *TokenManager) ValidateRefreshToken(token string) bool {
	key := "refresh:" + token
	if _, ok := tm.tokens.Get(key); !ok {
		return false
	}
	tm.tokens.Delete(key)
	return true
}

// RevokeToken revokes an access token.
func (tm *TokenManager) RevokeToken(token string) {
	tm.tokens.Delete(token)
}

// generateRandomToken generates a random token string.
func generateRandomToken(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
