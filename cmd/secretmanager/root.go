package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/input-output-hk/catalyst-forge-libs/secretmanager"
	"github.com/input-output-hk/catalyst-forge-libs/secretmanager/workerpool"
)

// rootOptions holds the values bound to persistent flags.
type rootOptions struct {
	configPath      string
	profile         string
	region          string
	accessKeyID     string
	secretAccessKey string
	sessionToken    string
	endpoint        string
	logLevel        string
	timeout         time.Duration

	// clientOpts are appended to the options every command builds its client with.
	clientOpts []secretmanager.Option
}

// newRootCmd builds the command tree. clientOpts are passed to every client
// the commands open.
func newRootCmd(clientOpts ...secretmanager.Option) *cobra.Command {
	o := &rootOptions{clientOpts: clientOpts}

	rootCmd := &cobra.Command{
		Use:   "secretmanager",
		Short: "Read secrets and secret metadata from AWS Secrets Manager",
		Long: `secretmanager reads AWS Secrets Manager secrets and prints them as JSON.

Connection settings come from an optional YAML file (--config), the standard
AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY, AWS_SESSION_TOKEN and AWS_REGION
environment variables, and flags, in increasing order of precedence. A shared
config profile (--profile or AWS_PROFILE) fills the region and credentials
when none of those set them.`,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&o.configPath, "config", "", "path to a YAML config file")
	flags.StringVar(&o.profile, "profile", "", "shared config profile filling settings left unset")
	flags.StringVar(&o.region, "region", "", "AWS region")
	flags.StringVar(&o.accessKeyID, "access-key-id", "", "AWS access key ID")
	flags.StringVar(&o.secretAccessKey, "secret-access-key", "", "AWS secret access key")
	flags.StringVar(&o.sessionToken, "session-token", "", "AWS session token for temporary credentials")
	flags.StringVar(&o.endpoint, "endpoint", "", "override the Secrets Manager endpoint (e.g. LocalStack)")
	flags.StringVar(&o.logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.DurationVar(&o.timeout, "timeout", 0,
		"overall command timeout, also bounding the in-flight HTTP request (default 30s)")

	rootCmd.AddCommand(newDescribeCmd(o), newGetCmd(o))

	return rootCmd
}

func newDescribeCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <secret-id>",
		Short: "Print the metadata of a secret, without its value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, client *secretmanager.Client) (any, error) {
				return client.DescribeSecret(ctx, args[0]).Wait(ctx)
			})
		},
	}
}

func newGetCmd(o *rootOptions) *cobra.Command {
	var versionID, versionStage string

	cmd := &cobra.Command{
		Use:   "get <secret-id>",
		Short: "Print a version of a secret, including its value",
		Long: `Print a version of a secret, including its value.

Binary secrets are printed base64 encoded in the secretBinary field.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := secretmanager.GetSecretValueRequest{
				SecretID:     args[0],
				VersionID:    versionID,
				VersionStage: versionStage,
			}
			return o.run(cmd, func(ctx context.Context, client *secretmanager.Client) (any, error) {
				return client.GetSecretValue(ctx, req).Wait(ctx)
			})
		},
	}

	cmd.Flags().StringVar(&versionID, "version-id", "", "unique identifier of the version to retrieve")
	cmd.Flags().StringVar(&versionStage, "version-stage", "", "staging label of the version to retrieve (e.g. AWSPREVIOUS)")
	cmd.MarkFlagsMutuallyExclusive("version-id", "version-stage")

	return cmd
}

// resolveConfig merges the config file, the environment and the flags that
// were set, then fills the gaps from the selected profile.
func (o *rootOptions) resolveConfig(cmd *cobra.Command) (*Config, error) {
	cfg, err := LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}

	cfg.applyEnv(os.LookupEnv)

	flags := cmd.Flags()
	if flags.Changed("profile") {
		cfg.Profile = o.profile
	}
	if flags.Changed("region") {
		cfg.Region = o.region
	}
	if flags.Changed("access-key-id") {
		cfg.AccessKeyID = o.accessKeyID
	}
	if flags.Changed("secret-access-key") {
		cfg.SecretAccessKey = o.secretAccessKey
	}
	if flags.Changed("session-token") {
		token := o.sessionToken
		cfg.SessionToken = &token
	}
	if flags.Changed("endpoint") {
		cfg.Endpoint = o.endpoint
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if flags.Changed("timeout") {
		cfg.Timeout = o.timeout
	}

	if err := cfg.applyProfile(cmd.Context(), os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// run opens a client on a process-wide pool, performs call and prints its
// result as JSON on stdout.
func (o *rootOptions) run(
	cmd *cobra.Command,
	call func(ctx context.Context, client *secretmanager.Client) (any, error),
) error {
	cfg, err := o.resolveConfig(cmd)
	if err != nil {
		return err
	}

	level, _ := parseLogLevel(cfg.LogLevel) // validated in resolveConfig
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	pool := workerpool.New(workerpool.WithLogger(logger))
	// Stop waits for the in-flight request, which the HTTP timeout below
	// bounds by the command deadline.
	defer pool.Stop()

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
	defer cancel()

	opts := []secretmanager.Option{
		secretmanager.WithLogger(logger),
		secretmanager.WithHTTPTimeout(remaining(ctx, cfg.Timeout)),
	}
	if cfg.Endpoint != "" {
		opts = append(opts, secretmanager.WithEndpoint(cfg.Endpoint))
	}
	opts = append(opts, o.clientOpts...)

	client, err := secretmanager.Open(ctx, pool, cfg.ConnectionConfig, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("failed to close client", "error", err)
		}
	}()

	result, err := call(ctx, client)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}

	return nil
}

// remaining returns the time left before ctx's deadline, or fallback when ctx
// has none. The result is never below one millisecond, since a zero HTTP
// timeout means no timeout at all.
func remaining(ctx context.Context, fallback time.Duration) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return fallback
	}
	return max(time.Until(deadline), time.Millisecond)
}
