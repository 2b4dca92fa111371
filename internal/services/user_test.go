package services

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillforge/skillforge-backend/internal/domain"
	"github.com/skillforge/skillforge-backend/internal/platform/apierr"
	"github.com/skillforge/skillforge-backend/internal/platform/logger"
)

// memUserRepo backs the service with a map so the duplicate-email path can
// be exercised without a database.
type memUserRepo struct {
	byEmail map[string]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byEmail: map[string]*domain.User{}}
}

func (r *memUserRepo) Create(_ context.Context, _ *gorm.DB, row *domain.User) (*domain.User, error) {
	if row == nil {
		return nil, nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	r.byEmail[row.Email] = row
	return row, nil
}

func (r *memUserRepo) GetByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*domain.User, error) {
	for _, u := range r.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, _ *gorm.DB, email string) (*domain.User, error) {
	return r.byEmail[email], nil
}

func (r *memUserRepo) FullDeleteByID(_ context.Context, _ *gorm.DB, id uuid.UUID) error {
	for email, u := range r.byEmail {
		if u.ID == id {
			delete(r.byEmail, email)
		}
	}
	return nil
}

func newUserService(t *testing.T, repo *memUserRepo) UserService {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return NewUserService(repo, log)
}

func TestRegisterNormalizesEmail(t *testing.T) {
	svc := newUserService(t, newMemUserRepo())

	user, err := svc.Register(context.Background(), "  Casey@Example.COM ", " Casey ")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "casey@example.com" {
		t.Fatalf("email = %q, want normalized lowercase", user.Email)
	}
	if user.Name != "Casey" {
		t.Fatalf("name = %q, want trimmed", user.Name)
	}
}

func TestRegisterRejectsInvalidEmail(t *testing.T) {
	svc := newUserService(t, newMemUserRepo())

	_, err := svc.Register(context.Background(), "not-an-address", "Casey")
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := vErr.Fields["email"]; !ok {
		t.Fatalf("expected email field flagged, got %v", vErr.Fields)
	}
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	repo := newMemUserRepo()
	svc := newUserService(t, repo)

	if _, err := svc.Register(context.Background(), "casey@example.com", "Casey"); err != nil {
		t.Fatalf("first Register: %v", err)
	}

	_, err := svc.Register(context.Background(), "Casey@example.com", "Casey Again")
	var ae *apierr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected api error, got %v", err)
	}
	if ae.Status != http.StatusConflict {
		t.Fatalf("status = %d, want %d", ae.Status, http.StatusConflict)
	}
	if ae.Code != "email_taken" {
		t.Fatalf("code = %q, want %q", ae.Code, "email_taken")
	}
	if len(repo.byEmail) != 1 {
		t.Fatalf("expected one stored user, got %d", len(repo.byEmail))
	}
}
