package agent

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/prepvoice/prepvoice/internal/channel"
)

// ErrAssistantNotConfigured means the call cannot even be attempted: no
// assistant identifier was configured for the channel.
var ErrAssistantNotConfigured = errors.New("assistant identifier is not configured")

// ErrNoQuestions rejects a scripted start with an empty question list.
var ErrNoQuestions = errors.New("scripted session requires at least one question")

// ErrCallInProgress rejects a start while a call is connecting or active.
var ErrCallInProgress = errors.New("a call is already in progress")

const (
	msgAssistantNotConfigured = "Assistant not configured. Please check your environment configuration."
	msgStartFallback          = "Failed to start call. Please check your configuration."
	msgStartMethodFailure     = "Failed to start the call. Please check your channel configuration and try again."
)

// extractStartMessage pulls a human-readable message out of a start-call
// rejection. Priority: nested response body, top-level response body, plain
// message, plain string error, generic fallback. Reading a response body
// consumes it, so the result must be cached by the caller.
func extractStartMessage(err any) string {
	if ce, ok := err.(*channel.CallError); ok {
		if resp, ok := ce.Err.(*channel.ResponseError); ok {
			return responseMessage(resp)
		}
		if ce.Message != "" {
			return ce.Message
		}
		if s, ok := ce.Err.(string); ok && s != "" {
			return s
		}
		if e, ok := ce.Err.(error); ok && e != nil {
			return e.Error()
		}
		return msgStartFallback
	}

	if resp, ok := err.(*channel.ResponseError); ok {
		return responseMessage(resp)
	}

	if e, ok := err.(error); ok && e != nil {
		if msg := e.Error(); msg != "" {
			return msg
		}
	}

	if s, ok := err.(string); ok && s != "" {
		return s
	}

	return msgStartFallback
}

// responseMessage reads the response body (consuming it) and extracts the
// most specific message available: JSON fields first, then raw text, then
// the status text.
func responseMessage(resp *channel.ResponseError) string {
	text, err := resp.ReadBody()
	if err != nil {
		if resp.StatusText != "" {
			return resp.StatusText
		}
		return "Could not read error response"
	}

	if text != "" {
		var body struct {
			Message string          `json:"message"`
			Error   json.RawMessage `json:"error"`
		}
		if json.Unmarshal([]byte(text), &body) == nil {
			if body.Message != "" {
				return body.Message
			}
			if len(body.Error) > 0 {
				var nested struct {
					Message string `json:"message"`
				}
				if json.Unmarshal(body.Error, &nested) == nil && nested.Message != "" {
					return nested.Message
				}
				var s string
				if json.Unmarshal(body.Error, &s) == nil && s != "" {
					return s
				}
			}
		}
		return text
	}

	if resp.StatusText != "" {
		return resp.StatusText
	}
	return "Unknown error"
}

// Classification is the normalized outcome of a channel runtime error: one
// optional user-facing message and structured diagnostics for the log.
type Classification struct {
	UserMessage string
	Fields      logrus.Fields
}

// Classify normalizes the heterogeneous shapes the channel's async error
// event delivers. cachedMessage is the session's pending diagnostic from a
// prior start rejection; it is preferred over re-reading a consumed body,
// and no body is ever read here.
func Classify(err any, cachedMessage string) Classification {
	if err == nil {
		return Classification{Fields: logrus.Fields{"error": "<nil>"}}
	}

	if ce, ok := err.(*channel.CallError); ok {
		fields := logrus.Fields{
			"error_type": ce.Type,
			"stage":      ce.Stage,
		}
		if ce.Message != "" {
			fields["message"] = ce.Message
		}

		if resp, ok := ce.Err.(*channel.ResponseError); ok {
			fields["status"] = resp.Status
			fields["status_text"] = resp.StatusText
			fields["url"] = resp.URL
			fields["body_used"] = resp.BodyUsed()
			if cachedMessage != "" {
				fields["cached_message"] = cachedMessage
			}
		} else if nested, ok := ce.Err.(error); ok && nested != nil {
			fields["cause"] = nested.Error()
		} else if s, ok := ce.Err.(string); ok && s != "" {
			fields["cause"] = s
		}

		var userMessage string
		if ce.Type == channel.ErrTypeStartMethod {
			userMessage = msgStartMethodFailure
		}
		return Classification{UserMessage: userMessage, Fields: fields}
	}

	if resp, ok := err.(*channel.ResponseError); ok {
		fields := logrus.Fields{
			"status":      resp.Status,
			"status_text": resp.StatusText,
			"url":         resp.URL,
			"body_used":   resp.BodyUsed(),
		}
		if cachedMessage != "" {
			fields["cached_message"] = cachedMessage
		}
		return Classification{Fields: fields}
	}

	if e, ok := err.(error); ok {
		return Classification{Fields: logrus.Fields{"message": e.Error()}}
	}

	return Classification{Fields: logrus.Fields{
		"value":      fmt.Sprintf("%v", err),
		"value_type": fmt.Sprintf("%T", err),
	}}
}
