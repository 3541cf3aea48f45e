package errors

import (
	"errors"
	"net/http"
)

// Common error types for the gateway
var (
	// Configuration errors
	ErrConfiguration = errors.New("gateway is not configured")

	// Registration errors
	ErrInvalidClientMetadata = errors.New("invalid client metadata")

	// Authorization errors
	ErrInvalidRequest       = errors.New("invalid request")
	ErrInvalidClient        = errors.New("invalid client")
	ErrInvalidGrant         = errors.New("invalid grant")
	ErrUnsupportedGrantType = errors.New("unsupported grant type")

	// Resource errors
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrInvalidToken           = errors.New("invalid token")
	ErrUpstream               = errors.New("upstream proxy error")

	// Interaction errors
	ErrInteraction = errors.New("interaction failed")
)

// OAuth error codes as defined in RFC 6749 section 5.2 and RFC 7591 section 3.2.2.
const (
	CodeInvalidRequest        = "invalid_request"
	CodeInvalidClient         = "invalid_client"
	CodeInvalidGrant          = "invalid_grant"
	CodeUnsupportedGrantType  = "unsupported_grant_type"
	CodeInvalidClientMetadata = "invalid_client_metadata"
	CodeAccessDenied          = "access_denied"
	CodeInvalidToken          = "invalid_token"
	CodeServerError           = "server_error"
)

// Classification is the HTTP status and OAuth error code an error maps to.
type Classification struct {
	Status int
	Code   string
}

var classifications = []struct {
	target error
	class  Classification
}{
	{ErrInvalidClientMetadata, Classification{http.StatusBadRequest, CodeInvalidClientMetadata}},
	{ErrUnsupportedGrantType, Classification{http.StatusBadRequest, CodeUnsupportedGrantType}},
	{ErrInvalidGrant, Classification{http.StatusBadRequest, CodeInvalidGrant}},
	{ErrInvalidClient, Classification{http.StatusBadRequest, CodeInvalidClient}},
	{ErrInvalidRequest, Classification{http.StatusBadRequest, CodeInvalidRequest}},
	{ErrAuthenticationRequired, Classification{http.StatusUnauthorized, CodeInvalidToken}},
	{ErrInvalidToken, Classification{http.StatusUnauthorized, CodeInvalidToken}},
	{ErrUpstream, Classification{http.StatusBadGateway, CodeServerError}},
	{ErrConfiguration, Classification{http.StatusInternalServerError, CodeServerError}},
	{ErrInteraction, Classification{http.StatusInternalServerError, CodeServerError}},
}

// Classify maps err onto an HTTP status and OAuth error code.
// Unrecognised errors are internal server errors.
func Classify(err error) Classification {
	for _, c := range classifications {
		if errors.Is(err, c.target) {
			return c.class
		}
	}
	return Classification{http.StatusInternalServerError, CodeServerError}
}

// Describe returns the text of the cause attached to err's classification,
// leaving out context added by wrapping on the way up. An err with no
// attached cause describes itself.
func Describe(err error) string {
	for {
		switch e := err.(type) {
		case interface{ Unwrap() []error }:
			if errs := e.Unwrap(); len(errs) > 0 {
				return errs[len(errs)-1].Error()
			}
			return err.Error()
		case interface{ Unwrap() error }:
			next := e.Unwrap()
			if next == nil {
				return err.Error()
			}
			err = next
		default:
			return err.Error()
		}
	}
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}
