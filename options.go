// Package secretmanager provides functional options for configuring the adaptor client.
package secretmanager

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// clientOptions holds configuration options for the Client.
type clientOptions struct {
	logger      *slog.Logger
	endpoint    string
	httpTimeout time.Duration
	apiFactory  APIFactory
	registerer  prometheus.Registerer
}

// Option is a functional option for configuring the Client.
type Option func(*clientOptions)

// WithLogger configures the client with a custom logger.
// If logger is nil, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *clientOptions) {
		opts.logger = logger
	}
}

// WithEndpoint overrides the Secrets Manager endpoint, for example to point
// the client at LocalStack ("http://localhost:4566").
func WithEndpoint(endpoint string) Option {
	return func(opts *clientOptions) {
		opts.endpoint = endpoint
	}
}

// WithHTTPTimeout bounds each underlying HTTP request. Zero means no timeout
// beyond the SDK defaults.
func WithHTTPTimeout(timeout time.Duration) Option {
	return func(opts *clientOptions) {
		if timeout >= 0 {
			opts.httpTimeout = timeout
		}
	}
}

// WithAPIFactory replaces how the underlying ManagerAPI is built from the
// resolved AWS configuration. Primarily used to inject mocks in tests.
// If factory is nil, the SDK client is used.
func WithAPIFactory(factory APIFactory) Option {
	return func(opts *clientOptions) {
		opts.apiFactory = factory
	}
}

// WithMetrics registers request metrics with reg.
// Several clients may share one registerer; their collectors are reused.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(opts *clientOptions) {
		opts.registerer = reg
	}
}

// defaultOptions returns the default configuration options.
func defaultOptions() *clientOptions {
	return &clientOptions{
		logger:     nil, // No default logger
		apiFactory: nil, // Use the AWS SDK client
		registerer: nil, // No metrics
	}
}

// applyOptions applies the given options to the client options.
func applyOptions(opts *clientOptions, options []Option) {
	for _, option := range options {
		option(opts)
	}
}
