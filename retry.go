// Package secretmanager provides retry configuration for AWS Secrets Manager operations.
package secretmanager

import (
	"github.com/aws/aws-sdk-go-v2/aws"
)

// singleAttemptRetryer disables the SDK's built-in retries so that every
// request performs exactly one underlying call and surfaces its immediate outcome.
//
//nolint:ireturn // AWS SDK v2 uses interface for flexibility and testability
func singleAttemptRetryer() aws.Retryer {
	return aws.NopRetryer{}
}
