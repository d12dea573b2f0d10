package security

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	ErrEmptySecret  = errors.New("jwt secret is empty")
)

// Права доступа к API синхронизации
const (
	PermissionSyncRun      = "sync:run"
	PermissionProfilesRead = "profiles:read"
)

// JWTManager выпускает и проверяет сервисные токены HS256
type JWTManager struct {
	secret     []byte
	expiration time.Duration
	issuer     string
}

// Claims сервисный токен: кто вызывает и что ему разрешено
type Claims struct {
	jwt.RegisteredClaims
	Permissions []string `json:"permissions"`
	// Profiles ограничивает доступные профили; пустой список разрешает все
	Profiles []string `json:"profiles,omitempty"`
}

func NewJWTManager(secret string, expiration time.Duration, issuer string) (*JWTManager, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &JWTManager{
		secret:     []byte(secret),
		expiration: expiration,
		issuer:     issuer,
	}, nil
}

func (m *JWTManager) Generate(subject string, permissions, profiles []string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    m.issuer,
			Subject:   subject,
		},
		Permissions: permissions,
		Profiles:    profiles,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *JWTManager) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func (c *Claims) HasPermission(permission string) bool {
	for _, p := range c.Permissions {
		if p == permission || p == "*" {
			return true
		}
	}
	return false
}

// CanAccessProfile проверяет ограничение токена по профилям
func (c *Claims) CanAccessProfile(profileID string) bool {
	return len(c.Profiles) == 0 || slices.Contains(c.Profiles, profileID)
}
