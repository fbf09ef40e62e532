// Package api implements the REST client for the daemon's session CRUD
// endpoints.
//
// Session creation, listing, deletion, and reconnection go over HTTP; the
// live stream (output, status, command completion) goes over the WebSocket
// owned by the connection manager. Responses use envelope objects
// ({"session": ...}, {"sessions": [...]}) and errors carry the HTTP status
// so callers can distinguish retryable failures.
package api
