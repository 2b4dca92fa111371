package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	userrepo "github.com/skillforge/skillforge-backend/internal/data/repos/user"
	"github.com/skillforge/skillforge-backend/internal/domain"
	"github.com/skillforge/skillforge-backend/internal/platform/ctxutil"
	"github.com/skillforge/skillforge-backend/internal/platform/logger"
)

var ErrInvalidToken = errors.New("invalid token")

type AuthService interface {
	// IssueToken mints a signed bearer token for the user.
	IssueToken(user *domain.User) (string, error)
	// SetContextFromToken validates the token and attaches the caller's
	// identity to the context.
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	// Login resolves an email to a user and issues a token.
	Login(ctx context.Context, email string) (*domain.User, string, error)
}

type AuthConfig struct {
	Secret   string
	TokenTTL time.Duration
	Issuer   string
}

type authService struct {
	users userrepo.UserRepo
	log   *logger.Logger
	cfg   AuthConfig
}

func NewAuthService(users userrepo.UserRepo, baseLog *logger.Logger, cfg AuthConfig) AuthService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	return &authService{users: users, log: baseLog.With("service", "AuthService"), cfg: cfg}
}

type tokenClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

func (s *authService) IssueToken(user *domain.User) (string, error) {
	now := time.Now().UTC()
	claims := tokenClaims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	var claims tokenClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	})
	if err != nil || !token.Valid {
		return ctx, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID == uuid.Nil {
		return ctx, ErrInvalidToken
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{UserID: userID, Email: claims.Email}), nil
}

func (s *authService) Login(ctx context.Context, email string) (*domain.User, string, error) {
	user, err := s.users.GetByEmail(ctx, nil, email)
	if err != nil {
		return nil, "", fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, "", ErrUserNotFound
	}
	token, err := s.IssueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}
