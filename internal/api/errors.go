package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// invalidFileIDPrefix is how the server words an unknown or expired file id,
// either bare or followed by ": <id>".
const invalidFileIDPrefix = "invalid file id"

// TransportError covers network failures, timeouts, and non-2xx responses
// whose body carries no error message.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("%s failed with status %d", e.Op, e.Status)
	case e.Timeout():
		return fmt.Sprintf("%s timed out", e.Op)
	case e.Err != nil:
		return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s failed", e.Op)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// Timeout reports whether the request hit its deadline.
func (e *TransportError) Timeout() bool {
	if e.Err == nil {
		return false
	}
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// ServerError is a response whose JSON body has an "error" field. Message is
// shown to the user verbatim.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string { return e.Message }

// InvalidFileIDError means the server no longer knows the file id. Callers
// must discard any persisted copy of it.
type InvalidFileIDError struct {
	FileID string
	Server ServerError
}

func (e *InvalidFileIDError) Error() string { return e.Server.Message }

func (e *InvalidFileIDError) Unwrap() error { return &e.Server }

// IsInvalidFileID reports whether err is, or wraps, an InvalidFileIDError.
func IsInvalidFileID(err error) bool {
	var target *InvalidFileIDError
	return errors.As(err, &target)
}

// UserMessage returns the text to show for err. Server messages are passed
// through unchanged.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var invalid *InvalidFileIDError
	if errors.As(err, &invalid) {
		return invalid.Server.Message
	}
	var server *ServerError
	if errors.As(err, &server) {
		return server.Message
	}
	var transport *TransportError
	if errors.As(err, &transport) {
		return transport.Error()
	}
	return err.Error()
}

// classify builds the error for a server-reported message.
func classify(status int, message, fileID string) error {
	se := ServerError{Status: status, Message: message}
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(message)), invalidFileIDPrefix) {
		return &InvalidFileIDError{FileID: fileID, Server: se}
	}
	return &se
}
