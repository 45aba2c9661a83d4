package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Config controls the voice channel web-call API.
type Config struct {
	APIKey     string
	APIBaseURL string
	HTTPClient *http.Client
}

// Client drives one web call against the hosted voice-agent API: an HTTPS
// request creates the call, then a websocket delivers its event stream.
type Client struct {
	cfg Config

	events chan Event

	mu       sync.Mutex
	conn     *websocket.Conn
	stopping bool
}

func NewClient(cfg Config) *Client {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "https://api.vapi.ai"
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		cfg:    cfg,
		events: make(chan Event, 64),
	}
}

type createCallRequest struct {
	AssistantID        string              `json:"assistantId"`
	AssistantOverrides *assistantOverrides `json:"assistantOverrides,omitempty"`
}

type assistantOverrides struct {
	VariableValues map[string]string `json:"variableValues"`
}

type createCallResponse struct {
	ID         string `json:"id"`
	WebCallURL string `json:"webCallUrl"`
}

func (c *Client) Start(ctx context.Context, assistantID string, variableValues map[string]string) error {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return &CallError{Type: ErrTypeStartMethod, Stage: "start", Message: "channel API key is not configured"}
	}

	reqBody := createCallRequest{AssistantID: assistantID}
	if len(variableValues) > 0 {
		reqBody.AssistantOverrides = &assistantOverrides{VariableValues: variableValues}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return &CallError{Type: ErrTypeStartMethod, Stage: "start", Err: err}
	}

	url := strings.TrimRight(c.cfg.APIBaseURL, "/") + "/call/web"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return &CallError{Type: ErrTypeStartMethod, Stage: "start", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return &CallError{Type: ErrTypeStartMethod, Stage: "start", Err: err}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode >= 400 {
		return &CallError{
			Type:  ErrTypeStartMethod,
			Stage: "start",
			Err:   NewResponseError(resp.StatusCode, http.StatusText(resp.StatusCode), url, body),
		}
	}

	var created createCallResponse
	if err := json.Unmarshal(body, &created); err != nil {
		return &CallError{Type: ErrTypeStartMethod, Stage: "start", Err: fmt.Errorf("invalid create-call response: %w", err)}
	}
	if created.WebCallURL == "" {
		return &CallError{Type: ErrTypeStartMethod, Stage: "start", Message: "create-call response missing webCallUrl"}
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, toWebsocketURL(created.WebCallURL), nil)
	if err != nil {
		return &CallError{Type: ErrTypeStartMethod, Stage: "transport", Err: fmt.Errorf("failed to connect to call transport: %w", err)}
	}

	c.mu.Lock()
	c.conn = conn
	c.stopping = false
	c.mu.Unlock()

	go c.readLoop(conn)
	return nil
}

// Stop hangs up the active call, if any. The events channel stays open so a
// later call on the same client keeps flowing to the same consumer.
func (c *Client) Stop() {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	if conn != nil {
		c.stopping = true
	}
	c.mu.Unlock()
	if conn == nil {
		return
	}
	deadline := time.Now().Add(2 * time.Second)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "hangup"), deadline)
	_ = conn.Close()
}

func (c *Client) Events() <-chan Event { return c.events }

// wireEvent is the event framing on the call websocket.
type wireEvent struct {
	Type           string          `json:"type"`
	TranscriptType string          `json:"transcriptType"`
	Role           string          `json:"role"`
	Transcript     string          `json:"transcript"`
	Stage          string          `json:"stage"`
	Error          json.RawMessage `json:"error"`
}

func (c *Client) readLoop(conn *websocket.Conn) {
	defer func() {
		_ = conn.Close()
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			intentional := c.stopping
			c.mu.Unlock()
			// A local hangup closes the conn under the reader, which is not
			// a close error. That is a normal end, not a transport failure.
			if !intentional && !websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				c.emit(Event{Type: EventError, Err: fmt.Errorf("call transport failed: %w", err)})
			}
			c.emit(Event{Type: EventCallEnd})
			return
		}

		var ev wireEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			continue
		}

		switch ev.Type {
		case "call-start":
			c.emit(Event{Type: EventCallStart})
		case "call-end", "hangup":
			c.emit(Event{Type: EventCallEnd})
			return
		case "speech-start":
			c.emit(Event{Type: EventSpeechStart})
		case "speech-end":
			c.emit(Event{Type: EventSpeechEnd})
		case "transcript", "message":
			c.emit(Event{Type: EventMessage, Message: &Message{
				Type:           "transcript",
				TranscriptType: ev.TranscriptType,
				Role:           ev.Role,
				Transcript:     ev.Transcript,
			}})
		case "error":
			c.emit(Event{Type: EventError, Err: &CallError{
				Type:    "call-error",
				Stage:   ev.Stage,
				Message: strings.TrimSpace(string(ev.Error)),
			}})
		}
	}
}

func (c *Client) emit(ev Event) {
	select {
	case c.events <- ev:
	case <-time.After(5 * time.Second):
		// slow consumer; drop rather than wedge the read loop
	}
}

func toWebsocketURL(u string) string {
	switch {
	case strings.HasPrefix(u, "https://"):
		return "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		return "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u
}

var _ Channel = (*Client)(nil)
