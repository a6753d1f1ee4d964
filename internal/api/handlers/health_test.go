package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type staticChecker struct {
	status  string
	message string
}

func (c staticChecker) CheckReady() (string, string) {
	return c.status, c.message
}

func TestHealthLive(t *testing.T) {
	h := NewHealthHandler(nil, nil)
	w := httptest.NewRecorder()
	h.HealthLive(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("статус = %d", w.Code)
	}
	var resp healthLiveResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "ok" || resp.Service != serviceName {
		t.Errorf("ответ: %+v", resp)
	}
}

func TestHealthReady(t *testing.T) {
	tests := []struct {
		name       string
		backend    ReadinessChecker
		journal    ReadinessChecker
		wantStatus int
		wantResult string
	}{
		{"backend ok, журнал отключён", staticChecker{"ok", ""}, nil, http.StatusOK, "ok"},
		{"backend не инициализирован", nil, nil, http.StatusServiceUnavailable, "fail"},
		{"backend fail", staticChecker{"fail", "timeout"}, staticChecker{"ok", ""}, http.StatusServiceUnavailable, "fail"},
		{"журнал fail", staticChecker{"ok", ""}, staticChecker{"fail", "refused"}, http.StatusOK, "degraded"},
		{"всё ok", staticChecker{"ok", ""}, staticChecker{"ok", ""}, http.StatusOK, "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.backend, tt.journal)
			w := httptest.NewRecorder()
			h.HealthReady(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			if w.Code != tt.wantStatus {
				t.Errorf("статус = %d, ожидается %d", w.Code, tt.wantStatus)
			}
			var resp healthReadyResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatal(err)
			}
			if resp.Status != tt.wantResult {
				t.Errorf("status = %q, ожидается %q", resp.Status, tt.wantResult)
			}
			if (tt.journal == nil) != (resp.Checks.PostgreSQL == nil) {
				t.Errorf("проверка postgresql: %+v", resp.Checks.PostgreSQL)
			}
		})
	}
}

func TestOverallStatus(t *testing.T) {
	if got := overallStatus("ok", "degraded"); got != "degraded" {
		t.Errorf("got %q", got)
	}
	if got := overallStatus("degraded", "fail"); got != "fail" {
		t.Errorf("got %q", got)
	}
	if got := overallStatus(); got != "ok" {
		t.Errorf("got %q", got)
	}
}
