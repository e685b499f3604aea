package agent

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

var (
	// ErrEmptyResponse indicates the service answered without any text.
	ErrEmptyResponse = errors.New("generation returned no text")

	// ErrMissingAPIKey indicates the client was built without a credential.
	ErrMissingAPIKey = errors.New("gemini api key is required")
)

// ErrorKind classifies generation failures.
type ErrorKind string

// Failure kinds surfaced to the user.
const (
	KindAuth        ErrorKind = "auth"
	KindQuota       ErrorKind = "quota"
	KindNetwork     ErrorKind = "network"
	KindMalformed   ErrorKind = "malformed"
	KindUnavailable ErrorKind = "unavailable"
	KindUnknown     ErrorKind = "unknown"
)

// ServiceError wraps any failure returned by or raised from the generation service.
type ServiceError struct {
	Kind ErrorKind
	Err  error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("generation service error (%s): %v", e.Kind, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Notice returns the message shown to the user for this failure.
func (e *ServiceError) Notice() string {
	switch e.Kind {
	case KindAuth:
		return "The generation service rejected our credentials. Check the configured API key."
	case KindQuota:
		return "The generation service quota is exhausted. Please try again later."
	case KindNetwork:
		return "Could not reach the generation service. Check your connection and try again."
	case KindMalformed:
		return "The generation service returned an unusable response. Please try again."
	case KindUnavailable:
		return "The generation service is temporarily unavailable. Please try again."
	default:
		return "Something went wrong while generating a response. Please try again."
	}
}

// NoticeFor returns the user-facing message for any error from a Generator.
func NoticeFor(err error) string {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Notice()
	}
	return (&ServiceError{Kind: KindUnknown, Err: err}).Notice()
}

// KindOf returns the failure kind of err, or KindUnknown.
func KindOf(err error) ErrorKind {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindUnknown
}

// classify maps a raw client error onto a ServiceError.
func classify(err error) *ServiceError {
	if err == nil {
		return nil
	}
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}
	if errors.Is(err, ErrEmptyResponse) {
		return &ServiceError{Kind: KindMalformed, Err: err}
	}
	if code, msg, ok := apiErrorDetails(err); ok {
		return &ServiceError{Kind: kindForStatus(code, msg), Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ServiceError{Kind: KindNetwork, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return &ServiceError{Kind: KindNetwork, Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return &ServiceError{Kind: KindNetwork, Err: err}
	}
	return &ServiceError{Kind: KindUnknown, Err: err}
}

func apiErrorDetails(err error) (int, string, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, apiErr.Message, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, apiErrPtr.Message, true
	}
	return 0, "", false
}

func kindForStatus(code int, message string) ErrorKind {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return KindAuth
	case code == http.StatusTooManyRequests:
		return KindQuota
	case code == http.StatusBadRequest && strings.Contains(strings.ToLower(message), "api key"):
		// An invalid key is reported as 400 INVALID_ARGUMENT.
		return KindAuth
	case code >= 500:
		return KindUnavailable
	default:
		return KindUnknown
	}
}
