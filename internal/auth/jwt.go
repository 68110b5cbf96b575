package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ran-controller/ran-controller-pro/internal/config"
	"github.com/ran-controller/ran-controller-pro/internal/models"
	"github.com/ran-controller/ran-controller-pro/pkg/crypto"
)

const (
	issuer          = "ran-controller"
	audienceAccess  = "access"
	audienceRefresh = "refresh"
)

// ErrInvalidCredentials is returned for an unknown user or a wrong password
var ErrInvalidCredentials = errors.New("invalid credentials")

// JWTManager manages JWT tokens for the operator accounts
type JWTManager struct {
	config   *config.JWTConfig
	accounts map[string]*models.Account
	byID     map[uuid.UUID]*models.Account
}

// NewJWTManager creates a new JWT manager; account IDs are derived from usernames
func NewJWTManager(cfg *config.JWTConfig, accounts []models.Account) *JWTManager {
	m := &JWTManager{
		config:   cfg,
		accounts: make(map[string]*models.Account, len(accounts)),
		byID:     make(map[uuid.UUID]*models.Account, len(accounts)),
	}
	for i := range accounts {
		a := accounts[i]
		if a.ID == uuid.Nil {
			a.ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte("account:"+a.Username))
		}
		m.accounts[a.Username] = &a
		m.byID[a.ID] = &a
	}
	return m
}

// Claims represents JWT claims
type Claims struct {
	jwt.RegisteredClaims
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	IsAdmin  bool      `json:"is_admin"`
}

// Authenticate checks a username and password against the configured accounts
func (m *JWTManager) Authenticate(username, password string) (*models.Account, error) {
	a, ok := m.accounts[username]
	if !ok || !crypto.CheckPassword(password, a.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return a, nil
}

// GenerateTokenPair issues an access token and a refresh token for account
func (m *JWTManager) GenerateTokenPair(account *models.Account) (string, string, error) {
	now := time.Now()

	access, err := m.sign(Claims{
		RegisteredClaims: m.registered(account, now, m.config.AccessTokenTTL, audienceAccess),
		UserID:           account.ID,
		Username:         account.Username,
		IsAdmin:          account.IsAdmin,
	})
	if err != nil {
		return "", "", fmt.Errorf("sign access token: %w", err)
	}

	refresh, err := m.sign(m.registered(account, now, m.config.RefreshTokenTTL, audienceRefresh))
	if err != nil {
		return "", "", fmt.Errorf("sign refresh token: %w", err)
	}

	return access, refresh, nil
}

// ValidateToken parses an access token; refresh tokens are rejected
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if _, err := jwt.ParseWithClaims(tokenString, claims, m.keyFunc,
		jwt.WithIssuer(issuer), jwt.WithAudience(audienceAccess)); err != nil {
		return nil, err
	}
	return claims, nil
}

// RefreshToken issues a new token pair for a valid refresh token
func (m *JWTManager) RefreshToken(refreshTokenString string) (string, string, error) {
	claims := &jwt.RegisteredClaims{}
	if _, err := jwt.ParseWithClaims(refreshTokenString, claims, m.keyFunc,
		jwt.WithIssuer(issuer), jwt.WithAudience(audienceRefresh)); err != nil {
		return "", "", err
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return "", "", fmt.Errorf("subject %q: %w", claims.Subject, err)
	}
	account, ok := m.byID[userID]
	if !ok {
		return "", "", ErrInvalidCredentials
	}

	return m.GenerateTokenPair(account)
}

func (m *JWTManager) registered(account *models.Account, now time.Time, ttl time.Duration, audience string) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   account.ID.String(),
		Audience:  jwt.ClaimStrings{audience},
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (m *JWTManager) sign(claims jwt.Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(m.config.Secret))
}

func (m *JWTManager) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return []byte(m.config.Secret), nil
}
