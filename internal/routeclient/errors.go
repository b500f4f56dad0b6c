package routeclient

import (
	"fmt"
	"net/http"
)

// TransportError means the request never produced a usable response:
// connection failure, timeout, or a body that is not JSON.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusError means the service answered but did not report success.
type StatusError struct {
	Op         string
	HTTPStatus int
	Status     string
	Message    string
}

func (e *StatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.HTTPStatus)
	}
	status := e.Status
	if status == "" {
		status = "<none>"
	}
	return fmt.Sprintf("%s: status %q (http %d): %s", e.Op, status, e.HTTPStatus, msg)
}
