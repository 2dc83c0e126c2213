package secretmanager

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// handle owns one underlying Secrets Manager client bound to one region and
// credential pair. It is created by Init and released by Close, and is safe
// for concurrent use by workers: after construction it is only read.
type handle struct {
	api        ManagerAPI
	httpClient *http.Client
	region     string
	credsKind  string
}

// newHandle resolves credentials and builds the underlying client.
// Panics raised while constructing the client are returned as errors.
//
// The SDK configuration is built from cfg and opts alone. Shared config files,
// AWS_PROFILE, AWS_CA_BUNDLE and AWS_ENDPOINT_URL* are not consulted.
func newHandle(_ context.Context, cfg ConnectionConfig, opts *clientOptions) (h *handle, err error) {
	defer func() {
		if r := recover(); r != nil {
			h, err = nil, panicError(r)
		}
	}()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	creds := ResolveCredentials(cfg)
	provider, err := credentialsProvider(creds)
	if err != nil {
		return nil, err
	}

	httpClient := newHTTPClient(opts.httpTimeout)

	awsCfg := aws.Config{
		Region:      cfg.Region,
		Credentials: provider,
		HTTPClient:  httpClient,
		Retryer:     singleAttemptRetryer,
	}

	if opts.endpoint != "" {
		awsCfg.BaseEndpoint = aws.String(opts.endpoint)
	}

	factory := opts.apiFactory
	if factory == nil {
		factory = newSDKClient
	}

	api, err := factory(awsCfg)
	if err != nil {
		return nil, err
	}
	if api == nil {
		return nil, errors.New("API factory returned a nil client")
	}

	return &handle{
		api:        api,
		httpClient: httpClient,
		region:     cfg.Region,
		credsKind:  credentialsKind(creds),
	}, nil
}

// newHTTPClient returns a client on a private copy of the SDK's default
// transport, so closing idle connections on release does not touch other
// clients in the process. Redirects are not followed, as with the SDK client.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: awshttp.NewBuildableClient().GetTransport(),
		Timeout:   timeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// newSDKClient is the default APIFactory.
//
//nolint:ireturn // returns the SDK client behind ManagerAPI
func newSDKClient(cfg aws.Config) (ManagerAPI, error) {
	return secretsmanager.NewFromConfig(cfg), nil
}

// release frees the native resources held by the handle: it closes the API if
// it supports closing and drops idle HTTP connections.
func (h *handle) release() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()

	if closer, ok := h.api.(interface{ Close() error }); ok {
		err = closer.Close()
	}
	h.httpClient.CloseIdleConnections()

	return err
}
