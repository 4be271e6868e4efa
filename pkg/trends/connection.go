package trends

import (
	"time"

	"github.com/valyala/fasthttp"
)

// ConnectionConfig holds transport settings for the Trends client
type ConnectionConfig struct {
	MaxConnsPerHost     int
	MaxIdleConnDuration time.Duration
	ReadTimeout         time.Duration
	WriteTimeout        time.Duration
	RequestTimeout      time.Duration

	// Dial replaces the default dialer; tests point it at an in-memory listener.
	Dial fasthttp.DialFunc
}

// DefaultConnectionConfig returns settings suited to a handful of sequential
// requests against one host.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		MaxConnsPerHost:     4,
		MaxIdleConnDuration: 60 * time.Second,
		ReadTimeout:         30 * time.Second,
		WriteTimeout:        30 * time.Second,
		RequestTimeout:      30 * time.Second,
	}
}

func newFastHTTPClient(config ConnectionConfig) *fasthttp.Client {
	return &fasthttp.Client{
		Name:                     "trends-go",
		MaxConnsPerHost:          config.MaxConnsPerHost,
		MaxIdleConnDuration:      config.MaxIdleConnDuration,
		ReadTimeout:              config.ReadTimeout,
		WriteTimeout:             config.WriteTimeout,
		NoDefaultUserAgentHeader: true,
		Dial:                     config.Dial,
	}
}
