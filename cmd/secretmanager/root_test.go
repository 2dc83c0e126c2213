package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/secretmanager"
)

// recordingAPI implements secretmanager.ManagerAPI and records the inputs it receives.
type recordingAPI struct {
	mu        sync.Mutex
	cfg       aws.Config
	getInput  *secretsmanager.GetSecretValueInput
	getOutput *secretsmanager.GetSecretValueOutput
}

func (r *recordingAPI) DescribeSecret(ctx context.Context, in *secretsmanager.DescribeSecretInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.DescribeSecretOutput, error) {
	return &secretsmanager.DescribeSecretOutput{
		Name:        in.SecretId,
		ARN:         aws.String("arn:aws:secretsmanager:us-east-1:123456789012:secret:" + aws.ToString(in.SecretId)),
		Description: aws.String("fixture"),
	}, nil
}

func (r *recordingAPI) GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getInput = in
	return r.getOutput, nil
}

func (r *recordingAPI) factory(cfg aws.Config) (secretmanager.ManagerAPI, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg = cfg
	return r, nil
}

func clearAWSEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		envAccessKeyID, envSecretAccessKey, envSessionToken, envRegion,
		envProfile, envConfigFile, envCredentialsFile,
	} {
		t.Setenv(key, "")
	}
}

func execute(t *testing.T, api *recordingAPI, args ...string) (string, string, error) {
	t.Helper()

	cmd := newRootCmd(secretmanager.WithAPIFactory(api.factory))
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestDescribeCommand(t *testing.T) {
	clearAWSEnv(t)
	api := &recordingAPI{}

	stdout, _, err := execute(t, api,
		"describe", "demo",
		"--region", "us-east-1",
		"--access-key-id", "AK",
		"--secret-access-key", "SK",
	)
	require.NoError(t, err)

	var md map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &md))
	assert.Equal(t, "demo", md["name"])
	assert.Equal(t, "fixture", md["description"])
	assert.NotContains(t, md, "rotationEnabled", "absent fields are omitted")
}

func TestGetCommand(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		output    *secretsmanager.GetSecretValueOutput
		wantID    *string
		wantStage *string
		validate  func(t *testing.T, out map[string]any)
	}{
		{
			name:   "string secret",
			args:   []string{"get", "db"},
			output: &secretsmanager.GetSecretValueOutput{Name: aws.String("db"), SecretString: aws.String("hunter2")},
			validate: func(t *testing.T, out map[string]any) {
				assert.Equal(t, "hunter2", out["secretString"])
				assert.NotContains(t, out, "secretBinary")
			},
		},
		{
			name:   "binary secret is base64 encoded",
			args:   []string{"get", "cert"},
			output: &secretsmanager.GetSecretValueOutput{Name: aws.String("cert"), SecretBinary: []byte{0x00, 0xff}},
			validate: func(t *testing.T, out map[string]any) {
				assert.Equal(t, base64.StdEncoding.EncodeToString([]byte{0x00, 0xff}), out["secretBinary"])
				assert.NotContains(t, out, "secretString")
			},
		},
		{
			name:      "version stage",
			args:      []string{"get", "db", "--version-stage", "AWSPREVIOUS"},
			output:    &secretsmanager.GetSecretValueOutput{SecretString: aws.String("old")},
			wantStage: aws.String("AWSPREVIOUS"),
			validate: func(t *testing.T, out map[string]any) {
				assert.Equal(t, "old", out["secretString"])
			},
		},
		{
			name:   "version id",
			args:   []string{"get", "db", "--version-id", "v-1"},
			output: &secretsmanager.GetSecretValueOutput{SecretString: aws.String("pinned")},
			wantID: aws.String("v-1"),
			validate: func(t *testing.T, out map[string]any) {
				assert.Equal(t, "pinned", out["secretString"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearAWSEnv(t)
			t.Setenv(envAccessKeyID, "AK")
			t.Setenv(envSecretAccessKey, "SK")
			t.Setenv(envRegion, "us-east-1")

			api := &recordingAPI{getOutput: tt.output}
			stdout, _, err := execute(t, api, tt.args...)
			require.NoError(t, err)

			var out map[string]any
			require.NoError(t, json.Unmarshal([]byte(stdout), &out))
			tt.validate(t, out)

			require.NotNil(t, api.getInput)
			assert.Equal(t, tt.wantID, api.getInput.VersionId)
			assert.Equal(t, tt.wantStage, api.getInput.VersionStage)
		})
	}
}

func TestGetCommand_VersionFlagsAreExclusive(t *testing.T) {
	clearAWSEnv(t)

	_, _, err := execute(t, &recordingAPI{},
		"get", "db", "--version-id", "v-1", "--version-stage", "AWSCURRENT",
		"--region", "us-east-1", "--access-key-id", "AK", "--secret-access-key", "SK",
	)
	assert.Error(t, err)
}

func TestConfigPrecedence(t *testing.T) {
	clearAWSEnv(t)
	path := writeConfig(t, `
region: eu-west-1
accessKeyId: FILE_AK
secretAccessKey: FILE_SK
endpoint: http://localhost:4566
`)
	t.Setenv(envAccessKeyID, "ENV_AK")
	t.Setenv(envRegion, "eu-west-2")

	api := &recordingAPI{}
	_, _, err := execute(t, api,
		"describe", "demo",
		"--config", path,
		"--region", "ap-south-1",
		"--session-token", "FLAG_TOKEN",
	)
	require.NoError(t, err)

	assert.Equal(t, "ap-south-1", api.cfg.Region, "flag beats env and file")
	require.NotNil(t, api.cfg.BaseEndpoint)
	assert.Equal(t, "http://localhost:4566", *api.cfg.BaseEndpoint, "file value used when nothing overrides it")

	creds, err := api.cfg.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ENV_AK", creds.AccessKeyID, "env beats file")
	assert.Equal(t, "FILE_SK", creds.SecretAccessKey)
	assert.Equal(t, "FLAG_TOKEN", creds.SessionToken)
}

func TestProfileFillsUnsetSettings(t *testing.T) {
	clearAWSEnv(t)
	lookup := writeSharedFiles(t,
		"[profile ops]\nregion = eu-west-3\n",
		"[ops]\naws_access_key_id = OPS_AK\naws_secret_access_key = OPS_SK\n",
	)
	for _, key := range []string{envConfigFile, envCredentialsFile} {
		v, _ := lookup(key)
		t.Setenv(key, v)
	}

	api := &recordingAPI{}
	_, _, err := execute(t, api, "describe", "demo", "--profile", "ops", "--region", "us-west-1")
	require.NoError(t, err)

	assert.Equal(t, "us-west-1", api.cfg.Region, "flag beats profile")

	creds, err := api.cfg.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "OPS_AK", creds.AccessKeyID)
	assert.Equal(t, "OPS_SK", creds.SecretAccessKey)
}

func TestCommandErrors(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		errContains string
	}{
		{
			name:        "missing credentials",
			args:        []string{"describe", "demo", "--region", "us-east-1"},
			errContains: "Error occurred while initializing the AWS secret manager client",
		},
		{
			name:        "missing secret id",
			args:        []string{"describe"},
			errContains: "accepts 1 arg(s)",
		},
		{
			name:        "unknown profile",
			args:        []string{"describe", "demo", "--profile", "does-not-exist"},
			errContains: "failed to load profile does-not-exist",
		},
		{
			name:        "bad log level",
			args:        []string{"describe", "demo", "--log-level", "loud"},
			errContains: "invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearAWSEnv(t)
			_, _, err := execute(t, &recordingAPI{}, tt.args...)
			assert.ErrorContains(t, err, tt.errContains)
		})
	}
}

func TestRemaining(t *testing.T) {
	tests := []struct {
		name     string
		ctx      func(t *testing.T) context.Context
		fallback time.Duration
		check    func(t *testing.T, got time.Duration)
	}{
		{
			name:     "no deadline uses the fallback",
			ctx:      func(t *testing.T) context.Context { return context.Background() },
			fallback: 7 * time.Second,
			check: func(t *testing.T, got time.Duration) {
				assert.Equal(t, 7*time.Second, got)
			},
		},
		{
			name: "deadline bounds the timeout",
			ctx: func(t *testing.T) context.Context {
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				t.Cleanup(cancel)
				return ctx
			},
			fallback: time.Minute,
			check: func(t *testing.T, got time.Duration) {
				assert.Greater(t, got, time.Second)
				assert.LessOrEqual(t, got, 2*time.Second)
			},
		},
		{
			name: "expired deadline never disables the timeout",
			ctx: func(t *testing.T) context.Context {
				ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
				t.Cleanup(cancel)
				return ctx
			},
			fallback: time.Minute,
			check: func(t *testing.T, got time.Duration) {
				assert.Equal(t, time.Millisecond, got)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, remaining(tt.ctx(t), tt.fallback))
		})
	}
}

func TestCommandBoundsHTTPTimeoutByDeadline(t *testing.T) {
	clearAWSEnv(t)
	api := &recordingAPI{}

	_, _, err := execute(t, api,
		"describe", "demo",
		"--region", "us-east-1",
		"--access-key-id", "AK",
		"--secret-access-key", "SK",
		"--timeout", "3s",
	)
	require.NoError(t, err)

	httpClient, ok := api.cfg.HTTPClient.(*http.Client)
	require.True(t, ok)
	assert.Greater(t, httpClient.Timeout, time.Duration(0))
	assert.LessOrEqual(t, httpClient.Timeout, 3*time.Second)
}
