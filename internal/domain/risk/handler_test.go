package risk

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/alert"
)

func passthrough(next http.Handler) http.Handler { return next }

func postEvents(t *testing.T, repo *fakeRepo, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	h := NewHandler(NewService(repo, alert.NopPublisher{}))

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		t.Fatalf("encode body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/events", &buf)
	rr := httptest.NewRecorder()
	h.Routes(passthrough, passthrough).ServeHTTP(rr, req)
	return rr
}

func TestApplyEventHandler_ReturnsScores(t *testing.T) {
	repo := newFakeRepo()
	rr := postEvents(t, repo, ApplyEventRequest{
		UserID: uuid.New(),
		Event:  string(EventComplaint),
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var envelope struct {
		Success bool        `json:"success"`
		Data    EventResult `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !envelope.Success || !envelope.Data.Applied {
		t.Fatalf("unexpected envelope: %+v", envelope)
	}
	if envelope.Data.PreviousScore != 0 || envelope.Data.NewScore != 50 {
		t.Fatalf("expected 0 -> 50, got %d -> %d", envelope.Data.PreviousScore, envelope.Data.NewScore)
	}
	if envelope.Data.Level != LevelLow {
		t.Fatalf("expected LOW, got %s", envelope.Data.Level)
	}
}

// A storage outage on an ordinary event must not fail the caller's
// primary action: the intake acknowledges with 202 and applied=false.
func TestApplyEventHandler_StorageFailureAccepted(t *testing.T) {
	repo := newFakeRepo()
	repo.failWith = errors.New("connection refused")

	rr := postEvents(t, repo, ApplyEventRequest{
		UserID: uuid.New(),
		Event:  string(EventComplaint),
	})
	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rr.Code, rr.Body.String())
	}

	var envelope struct {
		Success bool        `json:"success"`
		Data    EventResult `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !envelope.Success || envelope.Data.Applied {
		t.Fatalf("expected accepted-but-unapplied, got %+v", envelope)
	}
}

// The minor-contact event is the one kind that must not be swallowed.
func TestApplyEventHandler_CriticalStorageFailureErrors(t *testing.T) {
	repo := newFakeRepo()
	repo.failWith = errors.New("connection refused")

	rr := postEvents(t, repo, ApplyEventRequest{
		UserID: uuid.New(),
		Event:  string(EventMinorContactAttempt),
	})
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestApplyEventHandler_UnknownKindRejected(t *testing.T) {
	repo := newFakeRepo()
	rr := postEvents(t, repo, ApplyEventRequest{
		UserID: uuid.New(),
		Event:  "BRIBERY",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(repo.profiles) != 0 {
		t.Fatalf("expected no profile writes for a rejected event")
	}
}

func TestApplyEventHandler_MissingUserRejected(t *testing.T) {
	repo := newFakeRepo()
	rr := postEvents(t, repo, map[string]string{"event": string(EventComplaint)})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestCategorizeHandler_InvalidCategoryRejected(t *testing.T) {
	repo := newFakeRepo()
	h := NewHandler(NewService(repo, alert.NopPublisher{}))

	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(CategorizeRequest{Category: "celebrity"})
	req := httptest.NewRequest(http.MethodPut, "/users/"+uuid.NewString()+"/category", &buf)
	rr := httptest.NewRecorder()
	h.Routes(passthrough, passthrough).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(repo.profiles) != 0 {
		t.Fatalf("expected no profile writes for a rejected category")
	}
}
