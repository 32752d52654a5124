package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const (
	msgAuthentication = "authentication failed, check credential"
	msgRateLimited    = "rate limit exceeded or insufficient permission"
	msgNotFound       = "resource not found"
	msgValidation     = "validation failed"
	msgUnknown        = "unknown error"
)

// Classify maps a non-success status and raw body to a Failure. It is pure;
// an absent or malformed body falls back to the default message.
func Classify(status int, body []byte) *Failure {
	failure := &Failure{StatusCode: status}

	switch status {
	case http.StatusUnauthorized:
		failure.Kind = KindAuthentication
		failure.Message = msgAuthentication
	case http.StatusForbidden:
		failure.Kind = KindRateLimited
		failure.Message = msgRateLimited
	case http.StatusNotFound:
		failure.Kind = KindNotFound
		failure.Message = msgNotFound
	case http.StatusUnprocessableEntity:
		failure.Kind = KindValidation
		failure.Message = bodyMessage(body, msgValidation)
	default:
		failure.Kind = KindRemote
		failure.Message = fmt.Sprintf("%d: %s", status, bodyMessage(body, msgUnknown))
	}

	return failure
}

// ClassifyTransport wraps an error raised before any response arrived.
func ClassifyTransport(err error) *Failure {
	if err == nil {
		err = errors.New("transport failure")
	}
	return &Failure{Kind: KindNetwork, Message: err.Error(), cause: err}
}

// classifyRequest wraps a request that could not be built from the
// caller's endpoint or body. Nothing was sent.
func classifyRequest(err error) *Failure {
	return &Failure{Kind: KindValidation, Message: err.Error(), cause: err}
}

// UnacknowledgedDelete is the failure for a DELETE that succeeded without
// the 204 No Content GitHub documents for it.
func UnacknowledgedDelete() *Failure {
	return &Failure{Kind: KindRemote, Message: "delete was not acknowledged with 204 No Content"}
}

// Inconsistent reports a successful response missing data the caller
// needs to continue, such as a ref without a commit SHA.
func Inconsistent(message string) *Failure {
	return &Failure{Kind: KindRemote, Message: message}
}

func classifyDecode(status int, err error) *Failure {
	return &Failure{
		Kind:       KindRemote,
		Message:    "decode response: " + err.Error(),
		StatusCode: status,
		cause:      err,
	}
}

func bodyMessage(body []byte, fallback string) string {
	if len(body) == 0 {
		return fallback
	}
	var payload struct {
		Message any `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return fallback
	}
	message, ok := payload.Message.(string)
	if !ok || strings.TrimSpace(message) == "" {
		return fallback
	}
	return message
}
