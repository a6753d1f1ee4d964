package apiclient

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Kind — категория ошибки обращения к ресурсу.
type Kind string

const (
	// KindNetwork — транспортная ошибка: соединение, таймаут, отмена контекста.
	KindNetwork Kind = "network"
	// KindServer — ответ не 2xx или некорректное тело ответа.
	KindServer Kind = "server"
	// KindValidation — черновик не прошёл проверку на клиенте, запрос не отправлялся.
	KindValidation Kind = "validation"
)

// Error — единый тип ошибки для всех операций с ресурсами backend.
type Error struct {
	Kind Kind
	// Message — сообщение для пользователя: текст сервера, если он его прислал
	Message string
	// StatusCode — HTTP-статус ответа (0 для network и validation)
	StatusCode int
	// Fields — ошибки отдельных полей черновика (только для validation)
	Fields map[string]string
	// Err — исходная ошибка (для errors.Is/As)
	Err error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindServer:
		if e.StatusCode != 0 {
			return fmt.Sprintf("ошибка сервера (%d): %s", e.StatusCode, e.Message)
		}
		return "ошибка сервера: " + e.Message
	case KindNetwork:
		return "сетевая ошибка: " + e.Message
	default:
		return "ошибка валидации: " + e.Message
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf возвращает категорию ошибки или "" для ошибок другого типа.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

// IsNotFound сообщает, что сервер ответил 404.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == KindServer && apiErr.StatusCode == http.StatusNotFound
}

// NewValidationError создаёт ошибку валидации по ошибкам полей.
func NewValidationError(fields map[string]string) *Error {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+fields[name])
	}
	return &Error{
		Kind:    KindValidation,
		Message: strings.Join(parts, "; "),
		Fields:  fields,
	}
}

func networkError(err error) *Error {
	return &Error{Kind: KindNetwork, Message: err.Error(), Err: err}
}

func serverError(status int, message string, err error) *Error {
	if message == "" {
		message = http.StatusText(status)
	}
	return &Error{Kind: KindServer, Message: message, StatusCode: status, Err: err}
}
