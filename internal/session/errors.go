package session

import (
	"errors"
	"fmt"

	"stocktracker/internal/client"
)

var (
	ErrLoggedOut = errors.New("session: logged out")
	ErrBusy      = errors.New("session: another request is in flight")
)

// ValidationError is raised before any request leaves the process.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func invalid(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// Message turns an error from this package into the inline text shown to the
// user. op names the action that failed ("buy", "sell", "login", ...).
func Message(op string, err error) string {
	if err == nil {
		return ""
	}
	var verr *ValidationError
	var rej *client.RejectionError
	var nerr *client.NetworkError
	switch {
	case errors.As(err, &verr):
		return verr.Msg
	case errors.Is(err, ErrLoggedOut):
		return "User not logged in."
	case errors.Is(err, ErrBusy):
		return "Please wait for the current request to finish."
	case errors.As(err, &rej):
		return rejectionMessage(op, rej)
	case errors.As(err, &nerr):
		return "An error occurred. Please try again later."
	default:
		return "An error occurred. Please try again later."
	}
}

func rejectionMessage(op string, rej *client.RejectionError) string {
	switch op {
	case "price":
		return "Stock not found."
	case "buy":
		return "Failed to buy stock: " + rej.Message
	case "sell":
		return "Failed to sell stock. Please try again."
	case "login":
		return "Invalid username or password."
	case "signup":
		if rej.Message != "" {
			return rej.Message
		}
		return "Registration failed. Please try again."
	}
	if rej.Message != "" {
		return rej.Message
	}
	return rej.Error()
}
