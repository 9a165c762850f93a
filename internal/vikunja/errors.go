package vikunja

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/url"
)

var (
	// ErrTLS is returned when TLS certificate verification fails.
	ErrTLS = errors.New("TLS certificate verification failed")
	// ErrTimeout is returned when a request exceeds its deadline.
	ErrTimeout = errors.New("request timed out")
	// ErrNetwork is returned for any other transport failure.
	ErrNetwork = errors.New("network error")
)

// APIError is a non-2xx response from the Vikunja API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("vikunja: %s (status %d)", e.Message, e.Status)
	}
	return fmt.Sprintf("vikunja: request failed with status %d", e.Status)
}

// IsAuthError reports whether err is a 401 or 403 API response.
func IsAuthError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status == 401 || apiErr.Status == 403
	}
	return false
}

// IsNotFound reports whether err is a 404 API response.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status == 404
	}
	return false
}

// classifyTransportError maps a transport failure onto the error taxonomy.
// Certificate problems and timeouts get their own categories so the router
// can attach actionable guidance.
func classifyTransportError(err error) error {
	if err == nil {
		return nil
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}

	var certErr x509.UnknownAuthorityError
	var hostErr x509.HostnameError
	var invErr x509.CertificateInvalidError
	if errors.As(err, &certErr) || errors.As(err, &hostErr) || errors.As(err, &invErr) {
		return fmt.Errorf("%w: %v", ErrTLS, err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	return fmt.Errorf("%w: %v", ErrNetwork, err)
}
