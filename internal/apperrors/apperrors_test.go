package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorCodesAndStatuses(t *testing.T) {
	cases := []struct {
		err    *Error
		code   string
		status int
	}{
		{InvalidModel("ghost"), "invalid_model", http.StatusInternalServerError},
		{ValidationError(nil), "validation_error", http.StatusUnprocessableEntity},
		{DuplicateKey(), "duplicate_key", http.StatusConflict},
		{NotFound(), "not_found", http.StatusNotFound},
		{UserDoesNotExist(), "user_does_not_exist", http.StatusNotFound},
		{InvalidCredentials(), "invalid_credentials", http.StatusUnauthorized},
		{ExpiredToken(), "expired_token", http.StatusUnauthorized},
		{Unauthorized(), "unauthorized", http.StatusUnauthorized},
		{UnableToUploadImage(), "unable_to_upload_image", http.StatusBadGateway},
		{UnknownError(), "unknown_error", http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if tc.err.Code != tc.code {
			t.Fatalf("expected code %s, got %s", tc.code, tc.err.Code)
		}
		if tc.err.Status != tc.status {
			t.Fatalf("%s: expected status %d, got %d", tc.code, tc.status, tc.err.Status)
		}
	}
}

func TestErrorIsMatchesByCode(t *testing.T) {
	if !errors.Is(NotFound(), NotFound()) {
		t.Fatal("two not_found errors should match")
	}
	if errors.Is(NotFound(), DuplicateKey()) {
		t.Fatal("not_found should not match duplicate_key")
	}
	wrapped := fmt.Errorf("update admin: %w", DuplicateKey())
	if !errors.Is(wrapped, DuplicateKey()) {
		t.Fatal("wrapped duplicate_key should still match")
	}
}

func TestInvalidModelCarriesName(t *testing.T) {
	err := InvalidModel("vehicle")
	data, ok := err.Data.(map[string]string)
	if !ok {
		t.Fatalf("expected map data, got %T", err.Data)
	}
	if data["model_name"] != "vehicle" {
		t.Fatalf("expected model_name vehicle, got %q", data["model_name"])
	}
}

func TestAsError(t *testing.T) {
	if AsError(errors.New("plain")) != nil {
		t.Fatal("plain error should not convert")
	}
	if AsError(fmt.Errorf("wrap: %w", Unauthorized())) == nil {
		t.Fatal("wrapped app error should convert")
	}
}
