package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/skillforge/skillforge-backend/internal/http/response"
	"github.com/skillforge/skillforge-backend/internal/platform/apierr"
	"github.com/skillforge/skillforge-backend/internal/services"
)

func respondTo(t *testing.T, err error) (*httptest.ResponseRecorder, response.ErrorEnvelope) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	respondServiceError(c, err)

	var envelope response.ErrorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return w, envelope
}

func TestRespondServiceErrorAPIError(t *testing.T) {
	ae := apierr.New(http.StatusConflict, "email_taken", errors.New("email already registered"))

	w, envelope := respondTo(t, ae)
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusConflict)
	}
	if envelope.Error.Code != "email_taken" {
		t.Fatalf("code = %q, want %q", envelope.Error.Code, "email_taken")
	}
	if envelope.Error.Message != "email already registered" {
		t.Fatalf("message = %q", envelope.Error.Message)
	}
}

func TestRespondServiceErrorWrappedAPIError(t *testing.T) {
	wrapped := errors.Join(errors.New("register user"), apierr.New(http.StatusConflict, "email_taken", nil))

	w, envelope := respondTo(t, wrapped)
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusConflict)
	}
	if envelope.Error.Code != "email_taken" {
		t.Fatalf("code = %q, want %q", envelope.Error.Code, "email_taken")
	}
}

func TestRespondServiceErrorValidation(t *testing.T) {
	vErr := &services.ValidationError{Fields: map[string]string{"speed_seconds": "must be positive"}}

	w, envelope := respondTo(t, vErr)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if envelope.Error.Fields["speed_seconds"] == "" {
		t.Fatalf("expected field detail, got %v", envelope.Error.Fields)
	}
}

func TestRespondServiceErrorSentinel(t *testing.T) {
	w, envelope := respondTo(t, services.ErrUserNotFound)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if envelope.Error.Code != "user_not_found" {
		t.Fatalf("code = %q, want %q", envelope.Error.Code, "user_not_found")
	}
}

func TestRespondServiceErrorUnknown(t *testing.T) {
	w, envelope := respondTo(t, errors.New("boom"))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if envelope.Error.Code != "internal_error" {
		t.Fatalf("code = %q, want %q", envelope.Error.Code, "internal_error")
	}
}
