// Package secretmanager provides an asynchronous client for AWS Secrets Manager.
//
// # Security Considerations
//
// The client never logs secret values; only secret IDs, regions and operation
// metadata are logged. Credential material is never logged either, only
// whether static or session credentials are in use.
//
// ## IAM Permissions
//
// - secretsmanager:DescribeSecret - Required for DescribeSecret
// - secretsmanager:GetSecretValue - Required for GetSecretValue
// - kms:Decrypt - Required if the secret is encrypted with a customer-managed KMS key
//
// ## Thread Safety
//
// All Client methods are safe for concurrent use by multiple goroutines.
// Init and Close replace or drop the handle under a lock; in-flight requests
// keep using the handle they were submitted with.
package secretmanager

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"github.com/input-output-hk/catalyst-forge-libs/secretmanager/future"
)

// operation names a request type in error messages, logs and metrics.
type operation string

const (
	opDescribeSecret operation = "describe-secret"
	opGetSecretValue operation = "get-secret-value"
)

func (o operation) String() string {
	return string(o)
}

// GetSecretValueRequest selects the secret and, optionally, the version to
// fetch. Empty VersionID and VersionStage are not sent; the service then
// returns the AWSCURRENT version.
type GetSecretValueRequest struct {
	// SecretID is the ARN or name of the secret.
	SecretID string
	// VersionID is the unique identifier of the version to retrieve.
	VersionID string
	// VersionStage is the staging label of the version, such as AWSCURRENT or AWSPREVIOUS.
	VersionStage string
}

// Client exposes AWS Secrets Manager to callers that must not block on
// network calls. Requests are built on the calling goroutine, executed on the
// injected Executor, and their outcome is delivered through a future.Future.
//
// A Client is bound to one region and credential pair at a time. Its lifecycle
// is NewClient, Init, any number of requests, Close.
//
// The zero value is not usable; create instances with NewClient.
type Client struct {
	// exec runs the blocking SDK calls; typically a process-wide workerpool.Pool
	exec Executor

	// opts holds the construction options, reused on every Init
	opts *clientOptions

	// logger is used for structured logging of operations (thread-safe)
	logger *slog.Logger

	// metrics records request outcomes; nil when metrics are disabled
	metrics *metrics

	// mu guards handle
	mu     sync.RWMutex
	handle *handle
}

// NewClient creates a Client that runs requests on exec. The client has no
// connection until Init is called.
//
// Example usage:
//
//	pool := workerpool.New()
//	defer pool.Stop()
//
//	client, err := NewClient(pool, WithLogger(slog.Default()))
//	if err != nil {
//	    log.Fatal(err)
//	}
func NewClient(exec Executor, opts ...Option) (*Client, error) {
	if exec == nil {
		return nil, ErrNilExecutor
	}

	// Apply default options
	options := defaultOptions()

	// Apply user-provided options
	applyOptions(options, opts)

	m, err := newMetrics(options.registerer)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	logger := options.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Client{
		exec:    exec,
		opts:    options,
		logger:  logger,
		metrics: m,
	}, nil
}

// Open creates a Client and initializes it with cfg.
func Open(ctx context.Context, exec Executor, cfg ConnectionConfig, opts ...Option) (*Client, error) {
	client, err := NewClient(exec, opts...)
	if err != nil {
		return nil, err
	}
	if err := client.Init(ctx, cfg); err != nil {
		return nil, err
	}
	return client, nil
}

// Init resolves credentials from cfg and builds the underlying Secrets
// Manager client. Any failure is returned as an *Error of KindConfiguration.
//
// Calling Init on an initialized client replaces its handle; the previous
// handle is released. Concurrent Init calls on one client are not supported.
func (c *Client) Init(ctx context.Context, cfg ConnectionConfig) error {
	if ctx == nil {
		return newInitError(fmt.Errorf("context cannot be nil"))
	}

	h, err := newHandle(ctx, cfg, c.opts)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to initialize secret manager client",
			"region", cfg.Region,
			"error", err)
		return newInitError(err)
	}

	c.mu.Lock()
	prev := c.handle
	c.handle = h
	c.mu.Unlock()

	if prev != nil {
		if err := prev.release(); err != nil {
			c.logger.WarnContext(ctx, "failed to release replaced secret manager client",
				"region", prev.region,
				"error", err)
		}
	}

	c.logger.InfoContext(ctx, "secret manager client initialized",
		"region", h.region,
		"credentials", h.credsKind)

	return nil
}

// Close releases the underlying client's resources. Failures are returned
// synchronously as an *Error of KindShutdown. The handle is dropped even when
// releasing it fails, so requests issued after Close fail with ErrNotInitialized.
func (c *Client) Close() error {
	c.mu.Lock()
	h := c.handle
	c.handle = nil
	c.mu.Unlock()

	if h == nil {
		return newCloseError(ErrNotInitialized)
	}

	if err := h.release(); err != nil {
		c.logger.Error("failed to close secret manager client",
			"region", h.region,
			"error", err)
		return newCloseError(err)
	}

	c.logger.Info("secret manager client closed",
		"region", h.region)

	return nil
}

// DescribeSecret retrieves the metadata of a secret, without its value.
//
// The call never blocks on the network: the returned future completes once
// the request has run on the executor. Failures, including an empty secretID,
// are delivered through the future as an *Error of KindOperation.
//
// ctx values are passed to the SDK call but its cancellation is not: once
// submitted, a request runs to completion.
//
// Example usage:
//
//	client.DescribeSecret(ctx, "my-secret").OnComplete(func(md *SecretMetadata, err error) {
//	    if err != nil {
//	        log.Print(err)
//	        return
//	    }
//	    fmt.Println(aws.ToString(md.ARN))
//	})
func (c *Client) DescribeSecret(ctx context.Context, secretID string) *future.Future[*SecretMetadata] {
	if secretID == "" {
		return future.Failed[*SecretMetadata](normalizeError(opDescribeSecret,
			fmt.Errorf("secret ID cannot be empty: %w", ErrInvalidRequest)))
	}

	input := &secretsmanager.DescribeSecretInput{
		SecretId: aws.String(secretID),
	}

	return submit(c, ctx, opDescribeSecret, secretID,
		func(ctx context.Context, api ManagerAPI) (*SecretMetadata, error) {
			out, err := api.DescribeSecret(ctx, input)
			if err != nil {
				return nil, err
			}
			return normalizeDescribe(out), nil
		})
}

// GetSecretValue retrieves the contents of a version of a secret.
//
// The returned future completes with the value as the service returned it,
// text or binary. Failures are delivered through the future as an *Error of
// KindOperation. See DescribeSecret for the context and blocking semantics.
//
// Example usage:
//
//	value, err := client.GetSecretValue(ctx, GetSecretValueRequest{
//	    SecretID:     "my-secret",
//	    VersionStage: "AWSCURRENT",
//	}).Wait(ctx)
func (c *Client) GetSecretValue(ctx context.Context, req GetSecretValueRequest) *future.Future[*SecretValue] {
	if req.SecretID == "" {
		return future.Failed[*SecretValue](normalizeError(opGetSecretValue,
			fmt.Errorf("secret ID cannot be empty: %w", ErrInvalidRequest)))
	}

	input := &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(req.SecretID),
	}
	if req.VersionID != "" {
		input.VersionId = aws.String(req.VersionID)
	}
	if req.VersionStage != "" {
		input.VersionStage = aws.String(req.VersionStage)
	}

	return submit(c, ctx, opGetSecretValue, req.SecretID,
		func(ctx context.Context, api ManagerAPI) (*SecretValue, error) {
			out, err := api.GetSecretValue(ctx, input)
			if err != nil {
				return nil, err
			}
			return normalizeSecretValue(out), nil
		})
}

// submit runs call on the executor against the current handle and wires its
// outcome to a new future. The future is completed exactly once: by the task,
// or here if the handle is missing or the executor rejects the task.
func submit[T any](
	c *Client,
	ctx context.Context,
	op operation,
	secretID string,
	call func(ctx context.Context, api ManagerAPI) (T, error),
) *future.Future[T] {
	if ctx == nil {
		return future.Failed[T](normalizeError(op,
			fmt.Errorf("context cannot be nil: %w", ErrInvalidRequest)))
	}

	c.mu.RLock()
	h := c.handle
	c.mu.RUnlock()

	if h == nil {
		return future.Failed[T](normalizeError(op, ErrNotInitialized))
	}

	f := future.New[T]()
	record := c.metrics.start(op)
	workCtx := context.WithoutCancel(ctx)

	c.logger.DebugContext(ctx, "submitting request",
		"operation", op.String(),
		"secret_id", secretID)

	task := func() {
		value, err := invoke(workCtx, h.api, call)
		record(err)

		if err != nil {
			c.logger.ErrorContext(workCtx, "request failed",
				"operation", op.String(),
				"secret_id", secretID,
				"error", err)
			f.Reject(normalizeError(op, err))
			return
		}

		c.logger.DebugContext(workCtx, "request completed",
			"operation", op.String(),
			"secret_id", secretID)
		f.Resolve(value)
	}

	if err := c.exec.Submit(task); err != nil {
		record(err)
		f.Reject(normalizeError(op, fmt.Errorf("failed to submit request: %w", err)))
	}

	return f
}

// invoke runs call, converting a panic into an error.
func invoke[T any](
	ctx context.Context,
	api ManagerAPI,
	call func(ctx context.Context, api ManagerAPI) (T, error),
) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			value, err = zero, panicError(r)
		}
	}()

	return call(ctx, api)
}
