package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/claimguard/insurance-fraud-backend/internal/domain/user"
)

// TokenClaims carries the authenticated identity extracted from a JWT.
type TokenClaims struct {
	UserID   uuid.UUID
	Username string
	Role     user.Role
	IssuedAt time.Time
	ExpireAt time.Time
}

// Service provides authentication and authorization.
type Service interface {
	// GenerateToken creates a signed JWT for the user
	GenerateToken(u *user.User) (string, error)

	// ValidateToken validates and parses a JWT
	ValidateToken(token string) (*TokenClaims, error)

	// HashPassword hashes a password with bcrypt
	HashPassword(password string) (string, error)

	// ComparePassword compares a password with its hash
	ComparePassword(hash, password string) error
}

const issuer = "claimguard"

type jwtService struct {
	secret []byte
	expiry time.Duration
}

func NewService(secret string, expiry time.Duration) (Service, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &jwtService{secret: []byte(secret), expiry: expiry}, nil
}

type tokenClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

func (s *jwtService) GenerateToken(u *user.User) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		Username: u.Username,
		Role:     u.Role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *jwtService) ValidateToken(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &tokenClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("invalid subject: %w", err)
	}
	role, err := user.ParseRole(claims.Role)
	if err != nil {
		return nil, fmt.Errorf("invalid role: %w", err)
	}

	return &TokenClaims{
		UserID:   userID,
		Username: claims.Username,
		Role:     role,
		IssuedAt: claims.IssuedAt.Time,
		ExpireAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *jwtService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (s *jwtService) ComparePassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
