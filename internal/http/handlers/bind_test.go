package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/geocoder89/ciaan/internal/domain/user"
	"github.com/geocoder89/ciaan/internal/http/handlers"
	"github.com/geocoder89/ciaan/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type bindErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details struct {
		JSON   string                `json:"json"`
		Field  string                `json:"field"`
		Fields []handlers.FieldError `json:"fields"`
	} `json:"details"`
}

func newBindRouter(maxBody int64) *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(middlewares.MaxBodyBytes(maxBody))
	r.POST("/register", func(ctx *gin.Context) {
		var req user.RegisterRequest
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		ctx.Status(http.StatusOK)
	})
	return r
}

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBindJSON_ValidationErrorsUseJSONFieldNames(t *testing.T) {
	w := postJSON(newBindRouter(0), "/register", `{"name":"   ","email":"not-an-email","password":"123"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	var resp bindErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal error response: %v body=%s", err, w.Body.String())
	}

	if resp.Code != "invalid_request" {
		t.Fatalf("unexpected code: %s", resp.Code)
	}

	wantRules := map[string]string{
		"name":     "notblank",
		"email":    "email",
		"password": "min",
	}

	found := map[string]handlers.FieldError{}
	for _, fieldErr := range resp.Details.Fields {
		found[fieldErr.Field] = fieldErr
	}

	for field, rule := range wantRules {
		fieldErr, ok := found[field]
		if !ok {
			t.Fatalf("missing field error for %q: %+v", field, resp.Details.Fields)
		}
		if fieldErr.Rule != rule {
			t.Fatalf("field %q rule mismatch: got %q want %q", field, fieldErr.Rule, rule)
		}
		if fieldErr.Message == "" {
			t.Fatalf("field %q should include a non-empty message", field)
		}
	}
}

func TestBindJSON_TypeMismatchUsesJSONFieldNames(t *testing.T) {
	w := postJSON(newBindRouter(0), "/register", `{"name":"Anna","email":"anna@x.com","password":123456}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	var resp bindErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal error response: %v body=%s", err, w.Body.String())
	}

	if resp.Details.JSON != "invalid_json_type" {
		t.Fatalf("expected invalid_json_type, got %q", resp.Details.JSON)
	}
	if resp.Details.Field != "password" {
		t.Fatalf("expected detail field to be password, got %q", resp.Details.Field)
	}
	if len(resp.Details.Fields) == 0 || resp.Details.Fields[0].Rule != "type" {
		t.Fatalf("expected a type rule in details.fields, got %+v", resp.Details.Fields)
	}
}

func TestBindJSON_PasswordOver72BytesRejected(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     int
	}{
		{"ascii_73", strings.Repeat("a", 73), http.StatusBadRequest},
		{"ascii_72", strings.Repeat("a", 72), http.StatusOK},
		// 30 runes, 90 bytes
		{"multibyte_90", strings.Repeat("€", 30), http.StatusBadRequest},
		{"multibyte_72", strings.Repeat("€", 24), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := `{"name":"Anna","email":"anna@x.com","password":"` + tt.password + `"}`
			w := postJSON(newBindRouter(0), "/register", body)

			if w.Code != tt.want {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.want, w.Body.String())
			}
			if tt.want != http.StatusBadRequest {
				return
			}

			var resp bindErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to unmarshal error response: %v body=%s", err, w.Body.String())
			}
			if len(resp.Details.Fields) != 1 || resp.Details.Fields[0].Field != "password" || resp.Details.Fields[0].Rule != "bcryptmax" {
				t.Fatalf("expected a bcryptmax error on password, got %+v", resp.Details.Fields)
			}
		})
	}
}

func TestBindJSON_SyntaxAndSize(t *testing.T) {
	w := postJSON(newBindRouter(0), "/register", `{"name":`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("syntax: got status %d, want 400", w.Code)
	}

	big := `{"name":"` + strings.Repeat("a", 2048) + `"}`
	w = postJSON(newBindRouter(64), "/register", big)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("size: got status %d, want 413, body=%s", w.Code, w.Body.String())
	}
}
