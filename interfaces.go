// Package secretmanager defines interfaces for the adaptor's collaborators.
package secretmanager

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// ManagerAPI defines the AWS Secrets Manager operations used by the adaptor.
// It abstracts the AWS SDK v2 SecretsManager client so tests can substitute
// a mock. Implementations must be safe for concurrent use; the SDK client is.
//
// An implementation that also has a `Close() error` method is closed when the
// owning Client is closed.
type ManagerAPI interface {
	// DescribeSecret retrieves metadata about a secret without exposing its value.
	DescribeSecret(
		ctx context.Context,
		params *secretsmanager.DescribeSecretInput,
		optFns ...func(*secretsmanager.Options),
	) (*secretsmanager.DescribeSecretOutput, error)

	// GetSecretValue retrieves the contents of a version of a secret.
	GetSecretValue(
		ctx context.Context,
		params *secretsmanager.GetSecretValueInput,
		optFns ...func(*secretsmanager.Options),
	) (*secretsmanager.GetSecretValueOutput, error)
}

// Executor runs tasks off the caller's goroutine.
// *workerpool.Pool is the standard implementation.
type Executor interface {
	// Submit schedules task and returns without waiting for it to run.
	// A non-nil error means task will never run.
	Submit(task func()) error
}

// APIFactory builds the ManagerAPI for a resolved AWS configuration.
// It is called once per successful Init.
type APIFactory func(cfg aws.Config) (ManagerAPI, error)
