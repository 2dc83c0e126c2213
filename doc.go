// Package secretmanager provides an asynchronous adaptor over the blocking
// AWS SDK v2 Secrets Manager client.
//
// The adaptor accepts requests on the caller's goroutine, performs the
// blocking SDK call on an injected Executor (normally a process-wide
// workerpool.Pool), and delivers exactly one outcome per request through a
// future.Future:
//   - Init / Close manage the underlying client for one region and credential pair
//   - DescribeSecret and GetSecretValue return immediately with a pending future
//   - Every failure is an *Error carrying a message and the original cause
//
// Exactly one underlying call is made per request. The SDK's own retries are
// disabled, nothing is cached, and submitted requests cannot be cancelled.
//
// # Credentials
//
// ConnectionConfig carries an access key pair, an optional session token and
// a region. ResolveCredentials turns it into StaticCredentials or, when a
// session token is present, SessionCredentials.
//
// # Thread safety
//
// All exported Client methods are safe for concurrent use by multiple
// goroutines. The underlying AWS SDK v2 client is thread-safe and is shared
// read-only by all workers.
//
// # Usage
//
// See the package examples for basic usage, callbacks and error handling.
package secretmanager
