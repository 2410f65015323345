package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token expired")
	ErrInvalidAccessKey = errors.New("invalid access key")
	ErrNoAccessKey      = errors.New("no access key configured")
)

// Claims carries the validated session claims.
type Claims struct {
	Subject string
	Exp     int64
}

// Service handles the shared-access-key gate and session tokens. Access is
// a single key for the whole fleet; there are no user accounts.
type Service struct {
	jwtSecret     []byte
	tokenExp      time.Duration
	accessKey     string
	accessKeyHash string
}

// NewService creates a new authentication service from the environment.
// FLEET_ACCESS_KEY_HASH (a bcrypt hash) is preferred over the plaintext
// FLEET_ACCESS_KEY; one of the two must be set.
func NewService() (*Service, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "default-secret-key-change-in-production"
	}

	expStr := os.Getenv("JWT_EXPIRY")
	exp := 24 * time.Hour // default 24 hours
	if expStr != "" {
		if parsed, err := time.ParseDuration(expStr); err == nil {
			exp = parsed
		}
	}

	s := &Service{
		jwtSecret:     []byte(secret),
		tokenExp:      exp,
		accessKey:     os.Getenv("FLEET_ACCESS_KEY"),
		accessKeyHash: os.Getenv("FLEET_ACCESS_KEY_HASH"),
	}
	if s.accessKey == "" && s.accessKeyHash == "" {
		return nil, ErrNoAccessKey
	}
	return s, nil
}

// CheckAccessKey verifies the shared access key.
func (s *Service) CheckAccessKey(key string) error {
	if s.accessKeyHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(s.accessKeyHash), []byte(key)); err != nil {
			return ErrInvalidAccessKey
		}
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(s.accessKey), []byte(key)) != 1 {
		return ErrInvalidAccessKey
	}
	return nil
}

// HashAccessKey hashes an access key with bcrypt, for generating the value
// of FLEET_ACCESS_KEY_HASH.
func HashAccessKey(key string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash access key: %w", err)
	}
	return string(bytes), nil
}

// GenerateToken mints a JWT session token for an authenticated session.
func (s *Service) GenerateToken() (string, error) {
	claims := jwt.MapClaims{
		"sub": "fleet-session",
		"exp": time.Now().Add(s.tokenExp).Unix(),
		"iat": time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken validates a JWT token and returns the claims
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	// Remove "Bearer " prefix if present
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return nil, ErrInvalidToken
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, ErrInvalidToken
	}

	return &Claims{
		Subject: sub,
		Exp:     int64(exp),
	}, nil
}

// ExtractTokenFromHeader extracts token from Authorization header
func (s *Service) ExtractTokenFromHeader(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrInvalidToken
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", ErrInvalidToken
	}

	return parts[1], nil
}
