package services

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// RoleAdmin is the only role an admin token carries
const RoleAdmin = "admin"

const tokenIssuer = "manglistore"

// AdminAuthService exchanges the shared admin password for a signed session token
type AdminAuthService struct {
	passwordHash  []byte
	jwtSecret     string
	jwtExpiration time.Duration
	// Revoked tokens until they expire
	revokedTokens map[string]time.Time
	revokedMutex  sync.RWMutex
}

// NewAdminAuthService hashes the configured password once at startup.
func NewAdminAuthService(adminPassword, jwtSecret string, jwtExpiration time.Duration) (*AdminAuthService, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(strings.TrimSpace(adminPassword)), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash admin password: %w", err)
	}
	return &AdminAuthService{
		passwordHash:  hash,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
		revokedTokens: make(map[string]time.Time),
	}, nil
}

// AdminClaims represents admin token claims
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Login checks the trimmed password and returns a token with its expiry.
func (s *AdminAuthService) Login(password string) (string, time.Time, error) {
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(strings.TrimSpace(password))); err != nil {
		return "", time.Time{}, ErrInvalidPassword
	}
	return s.GenerateToken()
}

// GenerateToken issues an admin token
func (s *AdminAuthService) GenerateToken() (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.jwtExpiration)
	claims := &AdminClaims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   RoleAdmin,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, expiresAt, nil
}

// ValidateToken validates an admin token and returns the claims
func (s *AdminAuthService) ValidateToken(tokenString string) (*AdminClaims, error) {
	if s.IsTokenRevoked(tokenString) {
		return nil, fmt.Errorf("%w: token has been revoked", ErrInvalidToken)
	}

	token, err := jwt.ParseWithClaims(tokenString, &AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*AdminClaims)
	if !ok || !token.Valid || claims.Role != RoleAdmin {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// RevokeToken invalidates a token before its expiry (admin logout)
func (s *AdminAuthService) RevokeToken(tokenString string) error {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return err
	}

	s.revokedMutex.Lock()
	defer s.revokedMutex.Unlock()

	s.revokedTokens[tokenString] = claims.ExpiresAt.Time
	s.cleanupExpiredTokens()
	return nil
}

// IsTokenRevoked checks if a token has been revoked
func (s *AdminAuthService) IsTokenRevoked(tokenString string) bool {
	s.revokedMutex.RLock()
	defer s.revokedMutex.RUnlock()

	expiry, exists := s.revokedTokens[tokenString]
	if !exists {
		return false
	}
	return time.Now().Before(expiry)
}

// cleanupExpiredTokens drops revoked entries that have expired anyway. Callers hold the lock.
func (s *AdminAuthService) cleanupExpiredTokens() {
	now := time.Now()
	for token, expiry := range s.revokedTokens {
		if now.After(expiry) {
			delete(s.revokedTokens, token)
		}
	}
}
