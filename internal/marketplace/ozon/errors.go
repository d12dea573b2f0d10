package ozon

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	// ErrRemoteRejected маркетплейс отклонил запрос
	ErrRemoteRejected = errors.New("remote rejected")
	// ErrMalformedResponse ответ 200 без ожидаемого поля result.
	// Обрабатывается так же, как отказ: успех никогда не предполагается.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrNotReady у карточки нет цены, выгружать ее нельзя
	ErrNotReady = errors.New("card is not ready: price is not set")
)

// ErrorKind вид ошибки удаленного вызова
type ErrorKind string

const (
	KindRejected  ErrorKind = "remote_rejected"
	KindMalformed ErrorKind = "malformed_response"
)

// RemoteError ошибка удаленного вызова с кодом и сообщением маркетплейса
type RemoteError struct {
	Kind       ErrorKind
	Endpoint   string
	StatusCode int
	Code       string
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Code == "" && e.Message == "" {
		return fmt.Sprintf("ozon %s: %s (status %d)", e.Endpoint, e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("ozon %s: %s (status %d): %s: %s", e.Endpoint, e.Kind, e.StatusCode, e.Code, e.Message)
}

// Is позволяет сравнивать с ErrRemoteRejected и ErrMalformedResponse.
// Некорректный ответ также считается отказом.
func (e *RemoteError) Is(target error) bool {
	switch target {
	case ErrRemoteRejected:
		return true
	case ErrMalformedResponse:
		return e.Kind == KindMalformed
	}
	return false
}

// ErrorKindOf возвращает вид ошибки для учета результатов
func ErrorKindOf(err error) (ErrorKind, bool) {
	var remote *RemoteError
	if errors.As(err, &remote) {
		return remote.Kind, true
	}
	return "", false
}

func malformed(endpoint string, statusCode int, format string, args ...interface{}) *RemoteError {
	return &RemoteError{
		Kind:       KindMalformed,
		Endpoint:   endpoint,
		StatusCode: statusCode,
		Message:    fmt.Sprintf(format, args...),
	}
}

const maxErrorBody = 4 << 10

// rejected разбирает тело ответа {code, message}. Код может быть строкой или числом.
func rejected(endpoint string, statusCode int, body io.Reader) *RemoteError {
	raw, _ := io.ReadAll(io.LimitReader(body, maxErrorBody))

	var content struct {
		Code    json.RawMessage `json:"code"`
		Message string          `json:"message"`
	}

	e := &RemoteError{Kind: KindRejected, Endpoint: endpoint, StatusCode: statusCode}
	if err := json.Unmarshal(raw, &content); err != nil {
		e.Message = strings.TrimSpace(string(raw))
		return e
	}

	e.Code = string(bytes.Trim(bytes.TrimSpace(content.Code), `"`))
	e.Message = content.Message
	return e
}
