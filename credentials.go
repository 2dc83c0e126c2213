// Package secretmanager provides credential resolution for the AWS Secrets Manager client.
package secretmanager

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

// ConnectionConfig holds the caller-supplied connection settings for one client.
// AccessKeyID and SecretAccessKey are required. A non-nil SessionToken selects
// temporary session credentials; nil selects static credentials.
type ConnectionConfig struct {
	AccessKeyID     string  `yaml:"accessKeyId"`
	SecretAccessKey string  `yaml:"secretAccessKey"`
	SessionToken    *string `yaml:"sessionToken,omitempty"`
	Region          string  `yaml:"region"`
}

// Validate checks that the configuration can be used to build a client.
func (c ConnectionConfig) Validate() error {
	if c.AccessKeyID == "" {
		return fmt.Errorf("access key ID cannot be empty")
	}
	if c.SecretAccessKey == "" {
		return fmt.Errorf("secret access key cannot be empty")
	}
	if c.Region == "" {
		return fmt.Errorf("region cannot be empty")
	}
	if !smithyhttp.ValidHostLabel(c.Region) {
		return fmt.Errorf("invalid region %q", c.Region)
	}
	return nil
}

// Credentials is the resolved credential pair for a client. It is a closed
// set: the only implementations are StaticCredentials and SessionCredentials.
type Credentials interface {
	credentials()
}

// StaticCredentials are long-lived access key credentials.
type StaticCredentials struct {
	AccessKeyID     string
	SecretAccessKey string
}

// SessionCredentials are temporary credentials with a session token.
type SessionCredentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

func (StaticCredentials) credentials()  {}
func (SessionCredentials) credentials() {}

// ResolveCredentials selects the credential variant for cfg.
// It never fails; malformed values are rejected by ConnectionConfig.Validate.
//
//nolint:ireturn // sum type
func ResolveCredentials(cfg ConnectionConfig) Credentials {
	if cfg.SessionToken != nil {
		return SessionCredentials{
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			SessionToken:    *cfg.SessionToken,
		}
	}
	return StaticCredentials{
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
	}
}

// credentialsProvider converts resolved credentials into a cached SDK provider.
func credentialsProvider(creds Credentials) (*aws.CredentialsCache, error) {
	var provider credentials.StaticCredentialsProvider
	switch c := creds.(type) {
	case StaticCredentials:
		provider = credentials.NewStaticCredentialsProvider(c.AccessKeyID, c.SecretAccessKey, "")
	case SessionCredentials:
		provider = credentials.NewStaticCredentialsProvider(c.AccessKeyID, c.SecretAccessKey, c.SessionToken)
	default:
		return nil, fmt.Errorf("unsupported credentials type %T", creds)
	}
	return aws.NewCredentialsCache(provider), nil
}

// credentialsKind names the variant for logging; it never includes key material.
func credentialsKind(creds Credentials) string {
	switch creds.(type) {
	case SessionCredentials:
		return "session"
	case StaticCredentials:
		return "static"
	default:
		return "unknown"
	}
}
