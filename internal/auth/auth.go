package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ukydev/servicelog/internal/config"
	"github.com/ukydev/servicelog/internal/models"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token expired")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Service handles authentication of the single operator
type Service struct {
	jwtSecret    []byte
	tokenExp     time.Duration
	username     string
	passwordHash string
	now          func() time.Time
}

// NewService creates a new authentication service
func NewService(cfg config.AuthConfig) (*Service, error) {
	secret := cfg.JWTSecret
	if secret == "" {
		secret = "default-secret-key-change-in-production"
	}

	exp := cfg.JWTExpiry
	if exp <= 0 {
		exp = 24 * time.Hour // default 24 hours
	}

	return &Service{
		jwtSecret:    []byte(secret),
		tokenExp:     exp,
		username:     cfg.Username,
		passwordHash: cfg.PasswordHash,
		now:          time.Now,
	}, nil
}

// Enabled reports whether an operator password is configured
func (s *Service) Enabled() bool {
	return s.passwordHash != ""
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

// CheckPassword checks if a password matches a hash
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// Login checks the operator credentials and issues a token
func (s *Service) Login(req models.LoginRequest) (*models.LoginResponse, error) {
	if !s.Enabled() {
		return nil, ErrInvalidCredentials
	}
	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(s.username)) == 1
	passOK := CheckPassword(req.Password, s.passwordHash)
	if !userOK || !passOK {
		return nil, ErrInvalidCredentials
	}

	token, exp, err := s.GenerateToken(req.Username)
	if err != nil {
		return nil, err
	}
	return &models.LoginResponse{
		Token:     token,
		Username:  req.Username,
		ExpiresAt: exp.Unix(),
	}, nil
}

// GenerateToken generates a JWT token for the operator
func (s *Service) GenerateToken(username string) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.tokenExp)
	claims := jwt.MapClaims{
		"username": username,
		"exp":      exp.Unix(),
		"iat":      now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, exp, nil
}

// ValidateToken validates a JWT token and returns the claims
func (s *Service) ValidateToken(tokenString string) (*models.Claims, error) {
	// Remove "Bearer " prefix if present
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))

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

	username, ok := claims["username"].(string)
	if !ok {
		return nil, ErrInvalidToken
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, ErrInvalidToken
	}

	return &models.Claims{
		Username: username,
		Exp:      int64(exp),
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
