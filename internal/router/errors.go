package router

import (
	"errors"

	"github.com/vikflow/vikflow/internal/command"
	"github.com/vikflow/vikflow/internal/profile"
	"github.com/vikflow/vikflow/internal/result"
	"github.com/vikflow/vikflow/internal/secrets"
	"github.com/vikflow/vikflow/internal/vikunja"
)

// errorItem converts any failure into the single displayable row shown to
// the user. Messages carry profile names at most; token values never reach
// an error in the first place.
func (s *Session) errorItem(err error) result.Item {
	var parseErr *command.ParseError
	if errors.As(err, &parseErr) {
		return result.Error("Invalid command", parseErr.Error())
	}
	if errors.Is(err, errValidation) {
		return result.Error("Invalid command", trimValidationPrefix(err))
	}

	if errors.Is(err, profile.ErrNotFound) {
		return result.Error("Profile not found",
			"Log in with '"+s.keyword+" login <profile> --url <url> --token <token>'")
	}
	if errors.Is(err, profile.ErrInvalidName) || errors.Is(err, profile.ErrInvalidBaseURL) {
		return result.Error("Invalid command", err.Error())
	}

	if vikunja.IsAuthError(err) {
		return result.Error("Access denied",
			"Refresh the token with '"+s.keyword+" login <profile> --token <token>'")
	}
	if vikunja.IsNotFound(err) {
		return result.Error("Not found", err.Error())
	}
	if errors.Is(err, vikunja.ErrTLS) {
		return result.Error("TLS validation failed",
			"Disable verification with --verify-tls false if you trust the host")
	}
	if errors.Is(err, vikunja.ErrTimeout) {
		return result.Error("Request timed out", "The server did not respond in time")
	}
	if errors.Is(err, vikunja.ErrNetwork) {
		return result.Error("Network error", "Check your network connection or the profile's base URL")
	}

	if errors.Is(err, secrets.ErrUnavailable) || errors.Is(err, secrets.ErrAccessDenied) {
		return result.Error("Secure storage error", err.Error())
	}
	if errors.Is(err, secrets.ErrNotFound) {
		return result.Error("No stored token",
			"Log in again with '"+s.keyword+" login <profile> --token <token>'")
	}

	return result.Error("Error", err.Error())
}

// trimValidationPrefix strips the leading "invalid command: " that
// wrapping with errValidation adds.
func trimValidationPrefix(err error) string {
	msg := err.Error()
	const prefix = "invalid command: "
	if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
		return msg[len(prefix):]
	}
	return msg
}

func (s *Session) taskItems(tasks []vikunja.Task) []result.Item {
	items := make([]result.Item, 0, len(tasks))
	for _, task := range tasks {
		items = append(items, result.TaskItem(task))
	}
	return items
}
