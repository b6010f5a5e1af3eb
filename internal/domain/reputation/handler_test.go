package reputation

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func passthrough(next http.Handler) http.Handler { return next }

func getMultiplier(t *testing.T, repo *fakeRepo, path string) *httptest.ResponseRecorder {
	t.Helper()
	h := NewHandler(NewService(repo, nil))

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	h.Routes(passthrough, passthrough).ServeHTTP(rr, req)
	return rr
}

func TestMultiplierHandler_DefaultsToDiscovery(t *testing.T) {
	repo := newFakeRepo()
	userID := uuid.New()

	rr := getMultiplier(t, repo, "/users/"+userID.String()+"/multiplier")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var envelope struct {
		Success bool               `json:"success"`
		Data    MultiplierResponse `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !envelope.Success || envelope.Data.Context != ContextDiscovery {
		t.Fatalf("unexpected envelope: %+v", envelope)
	}
	if envelope.Data.Multiplier != 1.0 {
		t.Fatalf("expected neutral multiplier for an unscored user, got %v", envelope.Data.Multiplier)
	}
}

func TestMultiplierHandler_UnknownContextRejected(t *testing.T) {
	repo := newFakeRepo()
	userID := uuid.New()

	rr := getMultiplier(t, repo, "/users/"+userID.String()+"/multiplier?context=celebrity")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestMultiplierHandler_InvalidUserIDRejected(t *testing.T) {
	rr := getMultiplier(t, newFakeRepo(), "/users/not-a-uuid/multiplier")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
	}
}
