package trends

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/valyala/fasthttp"
)

var (
	// ErrNotScoped is returned by widget reads before any BuildPayload succeeded.
	ErrNotScoped = errors.New("no active query scope")
	// ErrNoWidget means the scope came back without a widget of the requested kind.
	ErrNoWidget = errors.New("widget not present in explore response")
	// ErrFeedNotFound means the trending payload has no entry for the feed.
	ErrFeedNotFound = errors.New("trending feed not found")
	// ErrEmptyBody means the provider answered with nothing to decode.
	ErrEmptyBody = errors.New("empty response body")
	// ErrMalformed means the body decoded but not into the expected shape.
	ErrMalformed = errors.New("malformed response")
)

// StatusError reports a non-2xx answer from the provider.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("trends returned status %d: %s", e.Code, e.Body)
}

// Kind groups failures for logging. It never drives control flow.
type Kind string

const (
	KindNetwork Kind = "network"
	KindStatus  Kind = "status"
	KindDecode  Kind = "decode"
	KindEmpty   Kind = "empty"
	KindScope   Kind = "scope"
	KindPanic   Kind = "panic"
	KindUnknown Kind = "unknown"
)

// PanicError wraps a value recovered from a panicking call.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("recovered panic: %v", e.Value)
}

// Classify maps an error from a Client call to a Kind.
func Classify(err error) Kind {
	if err == nil {
		return ""
	}

	var statusErr *StatusError
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var netErr net.Error
	var panicErr *PanicError

	switch {
	case errors.As(err, &panicErr):
		return KindPanic
	case errors.As(err, &statusErr):
		return KindStatus
	case errors.Is(err, ErrNotScoped), errors.Is(err, ErrNoWidget):
		return KindScope
	case errors.Is(err, ErrEmptyBody), errors.Is(err, ErrFeedNotFound):
		return KindEmpty
	case errors.Is(err, ErrMalformed), errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		return KindDecode
	case errors.Is(err, fasthttp.ErrTimeout), errors.Is(err, fasthttp.ErrDialTimeout),
		errors.Is(err, fasthttp.ErrNoFreeConns), errors.As(err, &netErr):
		return KindNetwork
	}

	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection") ||
		strings.Contains(errStr, "dns") {
		return KindNetwork
	}
	return KindUnknown
}
