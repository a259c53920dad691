package maps

import (
	"encoding/json"
	"fmt"
)

// Status codes the upstream API reports in its response envelope.
const (
	StatusOK                   = "OK"
	StatusNotFound             = "NOT_FOUND"
	StatusZeroResults          = "ZERO_RESULTS"
	StatusMaxWaypointsExceeded = "MAX_WAYPOINTS_EXCEEDED"
	StatusInvalidRequest       = "INVALID_REQUEST"
	StatusOverQueryLimit       = "OVER_QUERY_LIMIT"
	StatusRequestDenied        = "REQUEST_DENIED"
	StatusUnknownError         = "UNKNOWN_ERROR"
)

// StatusError reports a request the upstream accepted but answered with a
// non-OK application status. Code carries the upstream value verbatim,
// including codes this package has no constant for.
type StatusError struct {
	Code    string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("maps: status %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("maps: status %s", e.Code)
}

// TransportError reports a failure before or during the exchange, or a
// response body that could not be decoded. The cause is preserved
// unmodified; StatusCode is zero when the exchange itself failed.
type TransportError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("maps: %s: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("maps: %s: upstream returned HTTP %d", e.Endpoint, e.StatusCode)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

type statusEnvelope struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
}

// classify turns a raw upstream exchange into the caller-facing result.
// A body whose envelope says OK passes through untouched; a non-OK status
// becomes *StatusError; everything else is *TransportError. Endpoints
// that answer without a status field are judged by the HTTP status alone.
func classify(endpoint string, statusCode int, body []byte) (json.RawMessage, error) {
	var env statusEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		// Valid JSON that is not an object (an array, say) has no status
		// field to inspect; treat it like an envelope-free body.
		if json.Valid(body) && statusCode >= 200 && statusCode < 300 {
			return json.RawMessage(body), nil
		}
		return nil, &TransportError{
			Endpoint:   endpoint,
			StatusCode: statusCode,
			Err:        fmt.Errorf("decode response: %w", err),
		}
	}

	switch {
	case env.Status == StatusOK:
		return json.RawMessage(body), nil
	case env.Status == "":
		if statusCode >= 200 && statusCode < 300 {
			return json.RawMessage(body), nil
		}
		return nil, &TransportError{Endpoint: endpoint, StatusCode: statusCode}
	default:
		return nil, &StatusError{Code: env.Status, Message: env.ErrorMessage}
	}
}
