// Пакет devbackend — REST backend контента в памяти для разработки и тестов.
// Реализует соглашение коллекций: GET/POST /api/<resource>,
// PUT/DELETE /api/<resource>/<id>, файлы — GET /uploads/<имя>.
// PUT полностью заменяет редактируемые поля; файл сохраняется, если новый не передан.
package devbackend

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bigkaa/hydrosite/internal/resource"
)

// Максимальный размер тела запроса.
const maxBodyBytes = 64 << 20

// upload — сохранённый файл.
type upload struct {
	data        []byte
	contentType string
	resource    string
	itemID      string
}

// collection — элементы одной коллекции в порядке создания.
type collection struct {
	desc  resource.Descriptor
	items []map[string]any
}

// Server — backend в памяти.
type Server struct {
	mu          sync.RWMutex
	collections map[string]*collection
	uploads     map[string]*upload
	logger      *slog.Logger
	now         func() time.Time
}

// New создаёт backend для перечисленных коллекций (по умолчанию — всех).
func New(logger *slog.Logger, descs ...resource.Descriptor) *Server {
	if len(descs) == 0 {
		descs = resource.Descriptors()
	}
	s := &Server{
		collections: make(map[string]*collection, len(descs)),
		uploads:     make(map[string]*upload),
		logger:      logger.With(slog.String("component", "dev_backend")),
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, d := range descs {
		s.collections[d.Name] = &collection{desc: d}
	}
	return s
}

// Handler возвращает HTTP-обработчик backend.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Route("/api/{resource}", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Post("/", s.handleCreate)
		r.Put("/{id}", s.handleUpdate)
		r.Delete("/{id}", s.handleDelete)
	})
	r.Get("/uploads/{name}", s.handleUpload)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "Route not found")
	})
	return r
}

// Len возвращает количество элементов коллекции.
func (s *Server) Len(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.collections[name]; ok {
		return len(c.items)
	}
	return 0
}

func (s *Server) collection(w http.ResponseWriter, r *http.Request) (*collection, bool) {
	name := chi.URLParam(r, "resource")
	c, ok := s.collections[name]
	if !ok {
		writeMessage(w, http.StatusNotFound, fmt.Sprintf("Unknown resource %q", name))
		return nil, false
	}
	return c, true
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collection(w, r)
	if !ok {
		return
	}
	out := make([]map[string]any, len(c.items))
	for i, item := range c.items {
		out[i] = cloneItem(item)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collection(w, r)
	if !ok {
		return
	}
	body, err := s.parseBody(r, c.desc, true)
	if err != nil {
		s.reject(w, c.desc.Name, err)
		return
	}

	now := s.now().Format(time.RFC3339Nano)
	item := body.fields
	item["_id"] = uuid.NewString()
	item["createdAt"] = now
	item["updatedAt"] = now
	if c.desc.HasFile() {
		item["downloads"] = float64(0)
	}
	if body.file != nil {
		s.attach(c.desc, item, body.file)
	}

	c.items = append(c.items, item)
	s.logger.Debug("Элемент создан",
		slog.String("resource", c.desc.Name),
		slog.String("id", item["_id"].(string)),
	)
	writeJSON(w, http.StatusCreated, cloneItem(item))
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collection(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	idx := c.index(id)
	if idx < 0 {
		writeMessage(w, http.StatusNotFound, fmt.Sprintf("%s item %s not found", c.desc.Name, id))
		return
	}
	body, err := s.parseBody(r, c.desc, false)
	if err != nil {
		s.reject(w, c.desc.Name, err)
		return
	}

	old := c.items[idx]
	item := body.fields
	for _, key := range []string{"_id", "createdAt", "downloads"} {
		if v, ok := old[key]; ok {
			item[key] = v
		}
	}
	item["updatedAt"] = s.now().Format(time.RFC3339Nano)

	if body.file != nil {
		s.dropUpload(c.desc, old)
		s.attach(c.desc, item, body.file)
	} else {
		for _, key := range fileKeys(c.desc) {
			if v, ok := old[key]; ok {
				item[key] = v
			}
		}
	}

	c.items[idx] = item
	writeJSON(w, http.StatusOK, cloneItem(item))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collection(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	idx := c.index(id)
	if idx < 0 {
		writeMessage(w, http.StatusNotFound, fmt.Sprintf("%s item %s not found", c.desc.Name, id))
		return
	}

	s.dropUpload(c.desc, c.items[idx])
	c.items = append(c.items[:idx], c.items[idx+1:]...)
	writeMessage(w, http.StatusOK, "Deleted")
}

// handleUpload отдаёт сохранённый файл и увеличивает счётчик скачиваний элемента.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := chi.URLParam(r, "name")
	up, ok := s.uploads[name]
	if !ok {
		writeMessage(w, http.StatusNotFound, "File not found")
		return
	}

	if c, ok := s.collections[up.resource]; ok {
		if idx := c.index(up.itemID); idx >= 0 {
			n, _ := c.items[idx]["downloads"].(float64)
			c.items[idx]["downloads"] = n + 1
		}
	}

	w.Header().Set("Content-Type", up.contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(up.data)
}

// requestBody — разобранное тело create/update.
type requestBody struct {
	fields map[string]any
	file   *incomingFile
}

type incomingFile struct {
	name        string
	contentType string
	data        []byte
}

// validationError — тело запроса не прошло проверку схемы.
type validationError struct {
	fields map[string]string
}

func (e *validationError) Error() string {
	names := make([]string, 0, len(e.fields))
	for name := range e.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + ": " + e.fields[name]
	}
	return "Validation failed: " + strings.Join(parts, "; ")
}

// parseBody разбирает JSON или multipart-тело и проверяет его схемой ресурса.
// В результат попадают только редактируемые поля.
func (s *Server) parseBody(r *http.Request, desc resource.Descriptor, creating bool) (*requestBody, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)

	var raw map[string]any
	var file *incomingFile
	var errs map[string]string

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
			return nil, fmt.Errorf("invalid multipart body: %w", err)
		}
		values := make(map[string]string, len(r.MultipartForm.Value))
		for k, v := range r.MultipartForm.Value {
			if len(v) > 0 {
				values[k] = v[0]
			}
		}
		raw, errs = desc.Coerce(values)

		if desc.HasFile() {
			f, err := readFile(r, desc.FileField)
			if err != nil {
				return nil, err
			}
			file = f
		}
	default:
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			return nil, fmt.Errorf("invalid JSON body: %w", err)
		}
		errs = map[string]string{}
	}

	fields := make(map[string]any, len(desc.Fields))
	for _, f := range desc.Fields {
		if v, ok := raw[f.Name]; ok && v != nil {
			fields[f.Name] = v
		}
	}

	for field, code := range resource.Validate(desc.RequestSchema(creating), fields) {
		if _, ok := errs[field]; !ok {
			errs[field] = code
		}
	}
	if creating && desc.FileRequired && file == nil {
		errs[desc.FileField] = resource.CodeRequired
	}
	if len(errs) > 0 {
		return nil, &validationError{fields: errs}
	}

	return &requestBody{fields: fields, file: file}, nil
}

func readFile(r *http.Request, field string) (*incomingFile, error) {
	f, fh, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("invalid file part: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return &incomingFile{name: fh.Filename, contentType: contentType, data: data}, nil
}

// attach сохраняет файл и записывает его метаданные в элемент.
func (s *Server) attach(desc resource.Descriptor, item map[string]any, f *incomingFile) {
	stored := uuid.NewString() + strings.ToLower(filepath.Ext(f.name))
	s.uploads[stored] = &upload{
		data:        f.data,
		contentType: f.contentType,
		resource:    desc.Name,
		itemID:      item["_id"].(string),
	}
	item[desc.FileURLField] = "/uploads/" + stored
	item["fileName"] = f.name
	item["fileType"] = f.contentType
	item["fileSize"] = float64(len(f.data))
}

// dropUpload удаляет файл элемента, если он был.
func (s *Server) dropUpload(desc resource.Descriptor, item map[string]any) {
	if !desc.HasFile() {
		return
	}
	ref, _ := item[desc.FileURLField].(string)
	if name, ok := strings.CutPrefix(ref, "/uploads/"); ok {
		delete(s.uploads, name)
	}
}

func (s *Server) reject(w http.ResponseWriter, resource string, err error) {
	s.logger.Debug("Запрос отклонён",
		slog.String("resource", resource),
		slog.String("error", err.Error()),
	)
	writeMessage(w, http.StatusBadRequest, err.Error())
}

func (c *collection) index(id string) int {
	for i, item := range c.items {
		if item["_id"] == id {
			return i
		}
	}
	return -1
}

func fileKeys(desc resource.Descriptor) []string {
	if !desc.HasFile() {
		return nil
	}
	return []string{desc.FileURLField, "fileName", "fileType", "fileSize"}
}

func cloneItem(item map[string]any) map[string]any {
	out := make(map[string]any, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
