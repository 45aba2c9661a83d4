package channel

import (
	"fmt"
	"sync"
)

// ResponseError carries an HTTP failure from the channel API. The body is
// readable at most once; callers that arrive late must rely on whatever was
// extracted by the first reader.
type ResponseError struct {
	Status     int
	StatusText string
	URL        string

	mu   sync.Mutex
	body []byte
	used bool
}

func NewResponseError(status int, statusText, url string, body []byte) *ResponseError {
	return &ResponseError{Status: status, StatusText: statusText, URL: url, body: body}
}

// ReadBody consumes the response body. A second call fails.
func (e *ResponseError) ReadBody() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.used {
		return "", fmt.Errorf("response body already consumed")
	}
	e.used = true
	b := e.body
	e.body = nil
	return string(b), nil
}

func (e *ResponseError) BodyUsed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.used
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("channel api: %d %s", e.Status, e.StatusText)
}

// CallError is the vendor error envelope. Err may hold a *ResponseError, a
// plain error, a string, or nothing.
type CallError struct {
	Type    string
	Stage   string
	Message string
	Err     any
}

// ErrTypeStartMethod marks failures of the channel's start operation.
const ErrTypeStartMethod = "start-method-error"

func (e *CallError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if err, ok := e.Err.(error); ok {
		return err.Error()
	}
	return fmt.Sprintf("channel error: %s", e.Type)
}
