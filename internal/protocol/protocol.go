// Package protocol defines the JSON wire frames exchanged with the daemon
// and the typed events they decode into.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Frame kinds, client to server.
const (
	KindAuth        = "auth"
	KindSubscribe   = "subscribe:session"
	KindUnsubscribe = "unsubscribe:session"
	KindExecute     = "execute:command"
)

// Frame kinds, server to client.
const (
	KindAuthSuccess     = "auth:success"
	KindSessionOutput   = "session:output"
	KindSessionStatus   = "session:status"
	KindCommandComplete = "command:complete"
	KindError           = "error"
)

// Error codes synthesized by the client for frames the daemon never sent
// cleanly.
const (
	CodeUnknownMessage = "UNKNOWN_MESSAGE"
	CodeMalformedFrame = "MALFORMED_FRAME"
)

// RequestIDPrefix prefixes locally generated command request ids.
const RequestIDPrefix = "cmd_"

// NewRequestID generates a request id for an execute:command frame.
func NewRequestID() string {
	return RequestIDPrefix + uuid.NewString()
}

// envelope is the common shape of every server frame. Data carries the
// payload for session/command events; Code and Message are set on errors.
type envelope struct {
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
}

// AuthSuccessEvent signals the daemon accepted the auth frame.
type AuthSuccessEvent struct{}

// OutputEvent is one line of session output.
type OutputEvent struct {
	SessionID string    `json:"session_id"`
	Data      string    `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// StatusEvent is a session lifecycle transition.
type StatusEvent struct {
	SessionID string    `json:"session_id"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// CompleteEvent reports the outcome of an execute:command request.
type CompleteEvent struct {
	RequestID string `json:"request_id"`
	SessionID string `json:"session_id"`
	ExitCode  int    `json:"exit_code"`
	Output    string `json:"output"`
}

// ErrorEvent is a daemon-reported or locally synthesized protocol error.
type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Decode parses a raw server frame into one of the event types. A frame of
// unknown kind or with an unparseable payload decodes into an ErrorEvent
// (CodeUnknownMessage / CodeMalformedFrame) so the caller can report it on
// the protocol-error channel; Decode itself never fails.
func Decode(data []byte) any {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return ErrorEvent{
			Code:    CodeMalformedFrame,
			Message: fmt.Sprintf("unparseable frame: %v", err),
		}
	}

	switch env.Type {
	case KindAuthSuccess:
		return AuthSuccessEvent{}

	case KindSessionOutput:
		var ev OutputEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			return malformed(env.Type, err)
		}
		return ev

	case KindSessionStatus:
		var ev StatusEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			return malformed(env.Type, err)
		}
		return ev

	case KindCommandComplete:
		var ev CompleteEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			return malformed(env.Type, err)
		}
		return ev

	case KindError:
		return ErrorEvent{Code: env.Code, Message: env.Message}

	default:
		return ErrorEvent{
			Code:    CodeUnknownMessage,
			Message: fmt.Sprintf("unknown message type %q", env.Type),
		}
	}
}

func malformed(kind string, err error) ErrorEvent {
	return ErrorEvent{
		Code:    CodeMalformedFrame,
		Message: fmt.Sprintf("bad %s payload: %v", kind, err),
	}
}

// Client-to-server frame shapes.

type authFrame struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

type sessionFrame struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
}

type executeFrame struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Command   string `json:"command"`
	RequestID string `json:"request_id"`
}

// EncodeAuth builds the auth frame sent immediately after open.
func EncodeAuth(token string) []byte {
	data, _ := json.Marshal(authFrame{Type: KindAuth, Token: token})
	return data
}

// EncodeSubscribe builds a subscribe:session frame.
func EncodeSubscribe(sessionID string) []byte {
	data, _ := json.Marshal(sessionFrame{Type: KindSubscribe, SessionID: sessionID})
	return data
}

// EncodeUnsubscribe builds an unsubscribe:session frame.
func EncodeUnsubscribe(sessionID string) []byte {
	data, _ := json.Marshal(sessionFrame{Type: KindUnsubscribe, SessionID: sessionID})
	return data
}

// EncodeExecute builds an execute:command frame. An empty requestID gets a
// locally generated cmd_ id; the id used is returned alongside the frame.
func EncodeExecute(sessionID, command, requestID string) ([]byte, string) {
	if requestID == "" {
		requestID = NewRequestID()
	}
	data, _ := json.Marshal(executeFrame{
		Type:      KindExecute,
		SessionID: sessionID,
		Command:   command,
		RequestID: requestID,
	})
	return data, requestID
}
