package errors

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		write      func(http.ResponseWriter, string)
		wantStatus int
		wantCode   string
	}{
		{"ValidationError", ValidationError, http.StatusBadRequest, CodeValidationError},
		{"NotFound", NotFound, http.StatusNotFound, CodeNotFound},
		{"MethodNotAllowed", MethodNotAllowed, http.StatusMethodNotAllowed, CodeMethodNotAllowed},
		{"BackendUnavailable", BackendUnavailable, http.StatusBadGateway, CodeBackendUnavailable},
		{"BackendError", BackendError, http.StatusBadGateway, CodeBackendError},
		{"InternalError", InternalError, http.StatusInternalServerError, CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.write(w, "тестовое сообщение")

			if w.Code != tt.wantStatus {
				t.Errorf("статус = %d, ожидается %d", w.Code, tt.wantStatus)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}

			var body errorBody
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("ошибка декодирования тела: %v", err)
			}
			if body.Error.Code != tt.wantCode {
				t.Errorf("code = %q, ожидается %q", body.Error.Code, tt.wantCode)
			}
			if body.Error.Message != "тестовое сообщение" {
				t.Errorf("message = %q", body.Error.Message)
			}
		})
	}
}
