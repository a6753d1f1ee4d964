package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/bigkaa/hydrosite/internal/domain/model"
)

// testLogger создаёт logger для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// setupMockBackend создаёт mock HTTP-сервер backend.
func setupMockBackend(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func newTestBackend(t *testing.T, baseURL string) *Backend {
	t.Helper()
	b, err := NewBackend(baseURL, 5*time.Second, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	return b
}

// TestClient_List_Array проверяет List для ответа-массива.
func TestClient_List_Array(t *testing.T) {
	server := setupMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/faqs" || r.Method != http.MethodGet {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("запрос должен содержать X-Request-ID")
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("клиент не должен передавать Authorization")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"_id":"a1","question":"Что такое ГЭС?","answer":"Гидроэлектростанция","order":2},
			{"_id":"b2","question":"Где?","answer":"На реке","category":"general"}
		]`))
	})

	client := New[model.FAQ](newTestBackend(t, server.URL), "faqs", "")
	items, err := client.List(context.Background())
	if err != nil {
		t.Fatalf("Ошибка List: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("ожидалось 2 элемента, получено %d", len(items))
	}
	if items[0].ID != "a1" || items[0].Order != 2 {
		t.Errorf("первый элемент разобран неверно: %+v", items[0])
	}
	if items[1].Category != "general" {
		t.Errorf("ожидался Category=general, получен %q", items[1].Category)
	}
}

// TestClient_List_Envelope проверяет List для ответа {"data": [...]}.
func TestClient_List_Envelope(t *testing.T) {
	server := setupMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"_id":"f1","name":"Заявление","description":"d","category":"HR","fileUrl":"/uploads/f1.pdf"}]}`))
	})

	client := New[model.Form](newTestBackend(t, server.URL), "forms", "file")
	items, err := client.List(context.Background())
	if err != nil {
		t.Fatalf("Ошибка List: %v", err)
	}
	if len(items) != 1 || items[0].FileURL != "/uploads/f1.pdf" {
		t.Errorf("ожидался один элемент с fileUrl, получено %+v", items)
	}
}

// TestClient_List_Empty проверяет, что пустой массив даёт пустой (не nil) список.
func TestClient_List_Empty(t *testing.T) {
	server := setupMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	client := New[model.FAQ](newTestBackend(t, server.URL), "faqs", "")
	items, err := client.List(context.Background())
	if err != nil {
		t.Fatalf("Ошибка List: %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Errorf("ожидался пустой список, получено %#v", items)
	}
}

// TestClient_List_Malformed проверяет, что некорректное тело — ошибка сервера.
func TestClient_List_Malformed(t *testing.T) {
	bodies := map[string]string{
		"не JSON":           `<html>oops</html>`,
		"элемент без _id":   `[{"question":"q","answer":"a"}]`,
		"объект без data":   `{"items":[]}`,
		"пустое тело":       ``,
		"неверный тип поля": `[{"_id":"x","order":"первый"}]`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			server := setupMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			})

			client := New[model.FAQ](newTestBackend(t, server.URL), "faqs", "")
			_, err := client.List(context.Background())
			if KindOf(err) != KindServer {
				t.Errorf("ожидалась ошибка сервера, получено %v", err)
			}
		})
	}
}

// TestClient_ServerErrorMessage проверяет извлечение сообщения сервера.
func TestClient_ServerErrorMessage(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"message", http.StatusBadRequest, `{"message":"Name is required"}`, "Name is required"},
		{"error строкой", http.StatusInternalServerError, `{"error":"db down"}`, "db down"},
		{"error объектом", http.StatusConflict, `{"error":{"code":"CONFLICT","message":"exists"}}`, "exists"},
		{"без тела", http.StatusBadGateway, ``, "Bad Gateway"},
		{"не JSON", http.StatusServiceUnavailable, `upstream timeout`, "Service Unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := setupMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			client := New[model.FAQ](newTestBackend(t, server.URL), "faqs", "")
			err := client.Create(context.Background(), Payload{Fields: map[string]any{"question": "q"}})

			var apiErr *Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("ожидался *Error, получено %T: %v", err, err)
			}
			if apiErr.Kind != KindServer {
				t.Errorf("Kind = %s, ожидается server", apiErr.Kind)
			}
			if apiErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, ожидается %d", apiErr.StatusCode, tt.status)
			}
			if apiErr.Message != tt.want {
				t.Errorf("Message = %q, ожидается %q", apiErr.Message, tt.want)
			}
		})
	}
}

// TestClient_NetworkError проверяет ошибку при недоступном backend.
func TestClient_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	before := testutil.ToFloat64(backendRequestsTotal.WithLabelValues("faqs", "list", outcomeNetwork))

	client := New[model.FAQ](newTestBackend(t, url), "faqs", "")
	_, err := client.List(context.Background())
	if KindOf(err) != KindNetwork {
		t.Fatalf("ожидалась сетевая ошибка, получено %v", err)
	}

	after := testutil.ToFloat64(backendRequestsTotal.WithLabelValues("faqs", "list", outcomeNetwork))
	if after != before+1 {
		t.Errorf("счётчик network_error: было %v, стало %v", before, after)
	}
}

// TestClient_ContextCancel проверяет, что отмена контекста прерывает запрос.
func TestClient_ContextCancel(t *testing.T) {
	release := make(chan struct{})
	server := setupMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client := New[model.FAQ](newTestBackend(t, server.URL), "faqs", "")
	_, err := client.List(ctx)
	if KindOf(err) != KindNetwork {
		t.Fatalf("ожидалась сетевая ошибка, получено %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("ошибка должна оборачивать context.DeadlineExceeded: %v", err)
	}
}

// TestClient_Create_JSON проверяет кодирование create без файла.
func TestClient_Create_JSON(t *testing.T) {
	var got map[string]any
	server := setupMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/marquee" {
			t.Errorf("неожиданный запрос %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, ожидается application/json", ct)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
	})

	client := New[model.MarqueeItem](newTestBackend(t, server.URL), "marquee", "")
	err := client.Create(context.Background(), Payload{Fields: map[string]any{
		"text":   "Плановые работы",
		"active": true,
	}})
	if err != nil {
		t.Fatalf("Ошибка Create: %v", err)
	}
	if got["text"] != "Плановые работы" || got["active"] != true {
		t.Errorf("тело запроса = %v", got)
	}
}

// TestClient_Create_Multipart проверяет кодирование create с файлом.
func TestClient_Create_Multipart(t *testing.T) {
	server := setupMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ожидалась multipart-форма: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.FormValue("name") != "Leave Request" || r.FormValue("category") != "HR" {
			t.Errorf("поля формы: %v", r.MultipartForm.Value)
		}
		f, fh, err := r.FormFile("file")
		if err != nil {
			t.Errorf("нет части file: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		if string(data) != "%PDF-1.4" {
			t.Errorf("содержимое файла = %q", data)
		}
		if fh.Filename != "leave.pdf" {
			t.Errorf("имя файла = %q", fh.Filename)
		}
		if ct := fh.Header.Get("Content-Type"); ct != "application/pdf" {
			t.Errorf("Content-Type файла = %q", ct)
		}
		w.WriteHeader(http.StatusCreated)
	})

	client := New[model.Form](newTestBackend(t, server.URL), "forms", "file")
	err := client.Create(context.Background(), Payload{
		Fields: map[string]any{
			"name":        "Leave Request",
			"description": "HR leave form",
			"category":    "HR",
		},
		Attachment: model.NewAttachment("leave.pdf", "application/pdf", []byte("%PDF-1.4")),
	})
	if err != nil {
		t.Fatalf("Ошибка Create: %v", err)
	}
}

// TestClient_Update проверяет PUT /api/<resource>/<id>.
func TestClient_Update(t *testing.T) {
	var path, method string
	server := setupMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		path, method = r.URL.Path, r.Method
		w.Write([]byte(`{"_id":"abc"}`))
	})

	client := New[model.FAQ](newTestBackend(t, server.URL+"/"), "faqs", "")
	if err := client.Update(context.Background(), "abc", Payload{Fields: map[string]any{"question": "q"}}); err != nil {
		t.Fatalf("Ошибка Update: %v", err)
	}
	if method != http.MethodPut || path != "/api/faqs/abc" {
		t.Errorf("запрос %s %s, ожидается PUT /api/faqs/abc", method, path)
	}
}

// TestClient_Delete_NotFound проверяет, что 404 при удалении не проглатывается.
func TestClient_Delete_NotFound(t *testing.T) {
	server := setupMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("метод %s, ожидается DELETE", r.Method)
		}
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Not found"}`))
	})

	client := New[model.FAQ](newTestBackend(t, server.URL), "faqs", "")
	err := client.Delete(context.Background(), "missing")
	if !IsNotFound(err) {
		t.Fatalf("ожидалась ошибка 404, получено %v", err)
	}
}

// TestClient_EmptyID проверяет, что пустой id не уходит на сервер.
func TestClient_EmptyID(t *testing.T) {
	server := setupMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("запрос не должен отправляться: %s %s", r.Method, r.URL.Path)
	})

	client := New[model.FAQ](newTestBackend(t, server.URL), "faqs", "")
	if err := client.Delete(context.Background(), ""); KindOf(err) != KindValidation {
		t.Errorf("Delete(\"\"): ожидалась ошибка валидации, получено %v", err)
	}
	if err := client.Update(context.Background(), "", Payload{}); KindOf(err) != KindValidation {
		t.Errorf("Update(\"\"): ожидалась ошибка валидации, получено %v", err)
	}
}

// TestClient_AttachmentWithoutFileField проверяет ресурс без файлового поля.
func TestClient_AttachmentWithoutFileField(t *testing.T) {
	server := setupMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("запрос не должен отправляться")
	})

	client := New[model.FAQ](newTestBackend(t, server.URL), "faqs", "")
	err := client.Create(context.Background(), Payload{
		Attachment: model.NewAttachment("a.png", "", []byte{0x89, 'P', 'N', 'G'}),
	})
	if KindOf(err) != KindValidation {
		t.Errorf("ожидалась ошибка валидации, получено %v", err)
	}
}

// TestResolveFileURL проверяет разрешение ссылок на файлы.
func TestResolveFileURL(t *testing.T) {
	b := newTestBackend(t, "http://localhost:5000")

	tests := map[string]string{
		"":                              "",
		"/uploads/leave.pdf":            "http://localhost:5000/uploads/leave.pdf",
		"uploads/leave.pdf":             "http://localhost:5000/uploads/leave.pdf",
		"https://cdn.example.com/a.png": "https://cdn.example.com/a.png",
	}
	for in, want := range tests {
		if got := b.ResolveFileURL(in); got != want {
			t.Errorf("ResolveFileURL(%q) = %q, ожидается %q", in, got, want)
		}
	}
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError(map[string]string{"name": "обязательное поле", "category": "обязательное поле"})
	if err.Kind != KindValidation {
		t.Errorf("Kind = %s", err.Kind)
	}
	if err.Message != "category: обязательное поле; name: обязательное поле" {
		t.Errorf("Message = %q", err.Message)
	}
}
