package clients

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// ErrorKind classifies why a CoinSpot call produced no usable response.
type ErrorKind string

const (
	// KindRequest the HTTP request could not be built.
	KindRequest ErrorKind = "request"
	// KindTransport the request never got an answer (DNS, refused, timeout).
	KindTransport ErrorKind = "transport"
	// KindStatus the server answered with a non-2xx status.
	KindStatus ErrorKind = "status"
	// KindRead the response body could not be read.
	KindRead ErrorKind = "read"
	// KindCanceled the caller's context ended before the call completed.
	KindCanceled ErrorKind = "canceled"
)

// APIError is the failure half of a CoinSpot call result. Every failure of
// Call and PublicCall is reported as *APIError.
type APIError struct {
	Kind       ErrorKind
	Endpoint   string
	StatusCode int
	// Body holds whatever the server sent back, if anything.
	Body string
	Err  error
}

func newAPIError(kind ErrorKind, endpoint string, err error) *APIError {
	return &APIError{Kind: kind, Endpoint: endpoint, Err: err}
}

func (e *APIError) Error() string {
	switch {
	case e.Kind == KindStatus && e.Body != "":
		return fmt.Sprintf("coinspot %s %s: status %d: %s", e.Kind, e.Endpoint, e.StatusCode, e.Body)
	case e.Kind == KindStatus:
		return fmt.Sprintf("coinspot %s %s: status %d", e.Kind, e.Endpoint, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("coinspot %s %s: %v", e.Kind, e.Endpoint, e.Err)
	default:
		return fmt.Sprintf("coinspot %s %s", e.Kind, e.Endpoint)
	}
}

func (e *APIError) Unwrap() error { return e.Err }

// Envelope renders the error as the {"exception": "..."} text payload shown
// to interactive users in place of a response body.
func (e *APIError) Envelope() string {
	payload, err := json.Marshal(map[string]string{"exception": e.Error()})
	if err != nil {
		return e.Error()
	}
	return string(payload)
}

// IsFailure reports whether a textual result is an exception envelope.
func IsFailure(text string) bool {
	if !gjson.Valid(text) {
		return false
	}
	return gjson.Get(text, "exception").Exists()
}
