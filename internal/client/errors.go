package client

import (
	"fmt"
	"strings"
)

// NetworkError reports that a request never produced an HTTP response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("%s: network: %v", e.Op, e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// RejectionError is a non-2xx answer; Message holds the response body text.
type RejectionError struct {
	Op      string
	Status  int
	Message string
}

func (e *RejectionError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		return fmt.Sprintf("%s: status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, msg)
}
