package api

import (
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a gateway failure per the client's error taxonomy.
type Kind int

const (
	// KindAuthExpired is an HTTP 401: the session is gone; the client is
	// logged out and sent back to the login screen.
	KindAuthExpired Kind = iota
	// KindForbidden is an HTTP 403: the action is not permitted for the
	// current role. Session state is untouched.
	KindForbidden
	// KindNotFound is an HTTP 404; callers show an empty state.
	KindNotFound
	// KindServer is an HTTP 5xx; callers may offer a manual retry.
	KindServer
	// KindNetwork is a transport failure before any HTTP status arrived.
	KindNetwork
	// KindRequest covers the remaining 4xx statuses (bad payloads and the
	// like) that carry a server-supplied message.
	KindRequest
)

// Error is a normalized gateway failure. The notification side effect has
// already happened by the time a caller sees one; callers only update their
// own state (loading flags, empty states) and never re-notify.
type Error struct {
	Kind       Kind
	StatusCode int    // 0 for network failures
	Message    string // server-supplied message when available
}

func (e *Error) Error() string {
	if strings.TrimSpace(e.Message) != "" {
		return e.Message
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return "request failed"
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindAuthExpired
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusNotFound:
		return KindNotFound
	case status >= 500:
		return KindServer
	default:
		return KindRequest
	}
}
