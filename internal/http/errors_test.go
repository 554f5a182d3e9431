package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"auth-api/internal/domain"
)

func runMapper(t *testing.T, logger *zap.Logger, err error) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/fail", func(c *gin.Context) {
		respondError(c, logger, err)
	})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fail", nil))

	var body map[string]any
	if jerr := json.Unmarshal(rec.Body.Bytes(), &body); jerr != nil {
		t.Fatalf("decode: %v %s", jerr, rec.Body.String())
	}
	return rec, body
}

func TestRespondError_EveryKindIsMapped(t *testing.T) {
	want := map[domain.ErrorKind]int{
		domain.KindValidation:                http.StatusBadRequest,
		domain.KindEmptyPassword:             http.StatusBadRequest,
		domain.KindExceededMaxPasswordLength: http.StatusBadRequest,
		domain.KindHashingError:              http.StatusInternalServerError,
		domain.KindInvalidHashFormat:         http.StatusInternalServerError,
		domain.KindInvalidToken:              http.StatusUnauthorized,
		domain.KindServerError:               http.StatusInternalServerError,
		domain.KindWrongCredentials:          http.StatusUnauthorized,
		domain.KindEmailExists:               http.StatusConflict,
		domain.KindUserNoLongerExists:        http.StatusUnauthorized,
		domain.KindTokenNotProvided:          http.StatusUnauthorized,
		domain.KindPermissionDenied:          http.StatusForbidden,
	}
	for _, kind := range domain.ErrorKinds {
		code, ok := want[kind]
		if !ok {
			t.Fatalf("kind %s has no expected status in this test", kind)
		}
		rec, body := runMapper(t, zap.NewNop(), &domain.Error{Kind: kind})
		if rec.Code != code {
			t.Fatalf("%s: expected %d, got %d", kind, code, rec.Code)
		}
		if body["message"] == "" {
			t.Fatalf("%s: expected message", kind)
		}
	}
}

func TestRespondError_ServerClassHidesDetail(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	err := domain.Wrap(domain.KindServerError, errors.New(`pq: relation "users" does not exist`))

	rec, body := runMapper(t, zap.New(core), err)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if body["status"] != "error" || body["message"] != "Server Error. Please try again later" {
		t.Fatalf("unexpected body %v", body)
	}
	if logs.FilterMessage("request failed").Len() != 1 {
		t.Fatalf("expected server error logged")
	}

	detailed := &domain.Error{Kind: domain.KindHashingError, Detail: "argon2 memory exhausted"}
	_, body = runMapper(t, zap.NewNop(), detailed)
	if body["message"] != "Server Error. Please try again later" {
		t.Fatalf("expected generic message for hashing error, got %v", body["message"])
	}
}

func TestRespondError_UnmappedErrorWarns(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)

	rec, body := runMapper(t, zap.New(core), fmt.Errorf("wrapped: %w", errors.New("raw driver failure")))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if body["status"] != "error" || body["message"] != "Server Error. Please try again later" {
		t.Fatalf("unexpected body %v", body)
	}
	entries := logs.FilterMessage("unmapped error reached response mapper").All()
	if len(entries) != 1 || entries[0].Level != zap.WarnLevel {
		t.Fatalf("expected one warning, got %d", len(entries))
	}
	if entries[0].ContextMap()["error_type"] != "*fmt.wrapError" {
		t.Fatalf("expected error type logged, got %v", entries[0].ContextMap()["error_type"])
	}

	rec, _ = runMapper(t, zap.New(core), &domain.Error{Kind: domain.ErrorKind(99)})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for unknown kind, got %d", rec.Code)
	}
	if logs.FilterMessage("error kind without mapping").Len() != 1 {
		t.Fatalf("expected warning for unknown kind")
	}
}

func TestRespondError_ValidationCarriesFields(t *testing.T) {
	err := domain.NewValidationError([]domain.FieldViolation{
		{Field: "email", Message: "Email is invalid"},
		{Field: "password", Message: "Password is required"},
	})
	rec, body := runMapper(t, zap.NewNop(), err)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if body["status"] != "fail" || body["message"] != "Email is invalid" {
		t.Fatalf("unexpected body %v", body)
	}
	fields, ok := body["errors"].([]any)
	if !ok || len(fields) != 2 {
		t.Fatalf("expected two field errors, got %v", body["errors"])
	}
}
