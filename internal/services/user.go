package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	userrepo "github.com/skillforge/skillforge-backend/internal/data/repos/user"
	"github.com/skillforge/skillforge-backend/internal/domain"
	"github.com/skillforge/skillforge-backend/internal/platform/apierr"
	"github.com/skillforge/skillforge-backend/internal/platform/logger"
)

type UserService interface {
	Register(ctx context.Context, email, name string) (*domain.User, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

type userService struct {
	users userrepo.UserRepo
	log   *logger.Logger
}

func NewUserService(users userrepo.UserRepo, baseLog *logger.Logger) UserService {
	return &userService{users: users, log: baseLog.With("service", "UserService")}
}

func (s *userService) Register(ctx context.Context, email, name string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, &ValidationError{Fields: map[string]string{"email": "must be a valid address"}}
	}
	existing, err := s.users.GetByEmail(ctx, nil, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if existing != nil {
		return nil, apierr.New(http.StatusConflict, "email_taken", fmt.Errorf("email already registered"))
	}
	user, err := s.users.Create(ctx, nil, &domain.User{Email: email, Name: strings.TrimSpace(name)})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *userService) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}
