package service

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestBackendReadinessChecker(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus string
	}{
		{name: "массив", status: http.StatusOK, body: `[{"_id":"1"}]`, wantStatus: "ok"},
		{name: "обёртка data", status: http.StatusOK, body: ` {"data":[]}`, wantStatus: "ok"},
		{name: "не JSON", status: http.StatusOK, body: "<html></html>", wantStatus: "degraded"},
		{name: "пустое тело", status: http.StatusOK, body: "", wantStatus: "degraded"},
		{name: "ошибка сервера", status: http.StatusBadGateway, body: "{}", wantStatus: "fail"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/faqs" {
					http.NotFound(w, r)
					return
				}
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer ts.Close()

			status, msg := NewBackendReadinessChecker(ts.URL, time.Second).CheckReady()
			if status != tt.wantStatus {
				t.Errorf("CheckReady() = %q (%s), ожидается %q", status, msg, tt.wantStatus)
			}
		})
	}
}

func TestBackendReadinessChecker_Unreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	status, _ := NewBackendReadinessChecker(url, 500*time.Millisecond).CheckReady()
	if status != "fail" {
		t.Errorf("CheckReady() = %q, ожидается fail", status)
	}
}

type staticHealth map[string]bool

func (h staticHealth) Health() map[string]bool { return h }

func TestDephealthReadinessChecker(t *testing.T) {
	tests := []struct {
		name   string
		health staticHealth
		want   string
	}{
		{name: "нет проверок", health: staticHealth{}, want: "degraded"},
		{name: "здоров", health: staticHealth{"content-backend:localhost:5000": true}, want: "ok"},
		{name: "недоступен", health: staticHealth{"content-backend:localhost:5000": false}, want: "fail"},
		{
			name:   "чужая зависимость не учитывается",
			health: staticHealth{"content-backend-old:localhost:5000": false, "content-backend:localhost:5000": true},
			want:   "ok",
		},
		{
			name:   "несколько endpoints",
			health: staticHealth{"content-backend:a:80": true, "content-backend:b:80": false},
			want:   "fail",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := NewDephealthReadinessChecker(tt.health, BackendDependencyName).CheckReady()
			if status != tt.want {
				t.Errorf("CheckReady() = %q, ожидается %q", status, tt.want)
			}
		})
	}
}
