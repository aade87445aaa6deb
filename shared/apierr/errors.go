// Package apierr defines the tagged error used across the analysis pipeline and the
// translator that turns transport failures from any upstream into it.
package apierr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

type Kind int

const (
	KindTransport Kind = iota
	KindNotFound
	KindRateLimited
	KindTimeout
	KindParse
	KindValidation
	KindConfiguration
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindRateLimited:
		return "rate_limited"
	case KindTimeout:
		return "timeout"
	case KindParse:
		return "parse"
	case KindValidation:
		return "validation"
	case KindConfiguration:
		return "configuration"
	default:
		return "transport"
	}
}

// HTTPStatus is the response status the API surface uses for this kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

type Error struct {
	Kind    Kind
	Service string // upstream name, empty for local failures
	Status  int    // upstream HTTP status, 0 when no response was received
	Message string
	Hint    string
	Missing []string
	Err     error
}

func (e *Error) Error() string {
	if e.Service != "" {
		return e.Service + ": " + e.Message
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of a tagged error anywhere in the chain.
// Untagged deadline errors count as timeouts; everything else is a transport failure.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindTransport
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func StatusCode(err error) int {
	return KindOf(err).HTTPStatus()
}

// StatusError is returned by plain HTTP clients for non-2xx responses.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("upstream returned status %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("upstream returned status %d", e.Code)
}

// Translate converts a transport-level failure into a service-qualified tagged error.
// Errors that are already tagged pass through unchanged.
func Translate(err error, service string) error {
	if err == nil {
		return nil
	}

	var tagged *Error
	if errors.As(err, &tagged) {
		return err
	}

	if code, msg, ok := upstreamStatus(err); ok {
		return fromStatus(err, service, code, msg)
	}

	if isTimeout(err) {
		return &Error{Kind: KindTimeout, Service: service, Message: "Request timeout. Please try again", Err: err}
	}

	if errors.Is(err, context.Canceled) {
		return &Error{Kind: KindTransport, Service: service, Message: "Request cancelled", Err: err}
	}

	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) {
		return &Error{Kind: KindTransport, Service: service, Message: "No response received. Check your internet connection", Err: err}
	}

	return &Error{Kind: KindTransport, Service: service, Message: err.Error(), Err: err}
}

func upstreamStatus(err error) (int, string, bool) {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return gErr.Code, gErr.Message, true
	}

	var genaiErr genai.APIError
	if errors.As(err, &genaiErr) {
		return genaiErr.Code, genaiErr.Message, true
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code, statusErr.Message, true
	}

	return 0, "", false
}

func fromStatus(err error, service string, code int, msg string) *Error {
	e := &Error{Service: service, Status: code, Err: err}

	switch code {
	case http.StatusForbidden:
		e.Kind = KindTransport
		e.Message = "API key is invalid or quota exceeded"
	case http.StatusNotFound:
		e.Kind = KindNotFound
		e.Message = "Resource not found"
	case http.StatusTooManyRequests:
		e.Kind = KindRateLimited
		e.Message = "Rate limit exceeded. Please try again later"
	default:
		if msg == "" {
			msg = http.StatusText(code)
		}
		e.Kind = KindTransport
		e.Message = fmt.Sprintf("%s (Status: %d)", msg, code)
	}

	return e
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return strings.Contains(err.Error(), "Client.Timeout exceeded")
}
