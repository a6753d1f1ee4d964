package service

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func healthKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func TestBackendHealthPath(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		want    string
	}{
		{name: "без префикса", baseURL: "http://localhost:5000", want: "/api/faqs"},
		{name: "с префиксом", baseURL: "https://example.com/site", want: "/site/api/faqs"},
		{name: "префикс со слешем", baseURL: "https://example.com/site/", want: "/site/api/faqs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := backendHealthPath(tt.baseURL); got != tt.want {
				t.Errorf("backendHealthPath(%q) = %q, ожидается %q", tt.baseURL, got, tt.want)
			}
		})
	}
}

func TestDephealthService_StartStop(t *testing.T) {
	var requested string
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, "[]")
	}))
	defer mockServer.Close()

	ds, err := NewDephealthServiceWithRegisterer(DephealthConfig{
		ServiceID:     "hydrosite-test",
		Group:         "hydrosite",
		BackendURL:    mockServer.URL,
		CheckInterval: time.Second,
	}, testLogger(), prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("Ошибка создания DephealthService: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := ds.Start(ctx); err != nil {
		t.Fatalf("Ошибка запуска: %v", err)
	}

	// Интервал 1s + запас на первую проверку
	time.Sleep(3 * time.Second)

	health := ds.Health()
	found := false
	for key, val := range health {
		if strings.HasPrefix(key, BackendDependencyName+":") {
			found = true
			if !val {
				t.Errorf("%s health = false для ключа %q", BackendDependencyName, key)
			}
		}
	}
	if !found {
		t.Errorf("Нет записи для %s в Health(), keys=%v", BackendDependencyName, healthKeys(health))
	}
	if requested != "/api/faqs" {
		t.Errorf("проверка запросила %q, ожидается /api/faqs", requested)
	}

	ready := NewDephealthReadinessChecker(ds, BackendDependencyName)
	if status, _ := ready.CheckReady(); status != "ok" {
		t.Errorf("CheckReady() = %q, ожидается ok", status)
	}

	ds.Stop()
}

func TestDephealthService_UnhealthyBackend(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer mockServer.Close()

	ds, err := NewDephealthServiceWithRegisterer(DephealthConfig{
		ServiceID:     "hydrosite-test-2",
		Group:         "hydrosite",
		BackendURL:    mockServer.URL,
		CheckInterval: time.Second,
	}, testLogger(), prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("Ошибка создания DephealthService: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := ds.Start(ctx); err != nil {
		t.Fatalf("Ошибка запуска: %v", err)
	}
	time.Sleep(3 * time.Second)

	for key, val := range ds.Health() {
		if strings.HasPrefix(key, BackendDependencyName+":") && val {
			t.Errorf("%s health = true при ответе 500", key)
		}
	}
	ds.Stop()
}
