package common_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/taaha-0548/Coders-Cup-Problems/internal/common"
)

func TestRespondWithDomainError(t *testing.T) {
	rec := httptest.NewRecorder()
	common.RespondWithDomainError(rec, fmt.Errorf("problem Z: %w", common.ErrNotFound))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if got := rec.Body.String(); got != `{"error":"problem Z: requested resource not found"}` {
		t.Fatalf("unexpected body %s", got)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
}

func TestRespondWithJSONEncodeFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	common.RespondWithJSON(rec, http.StatusOK, map[string]interface{}{"bad": make(chan int)})

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if got := rec.Body.String(); got != `{"error":"failed to encode response"}` {
		t.Fatalf("unexpected body %s", got)
	}
}
