// Package secretmanager provides the caller-facing response types and the
// conversions from AWS SDK outputs.
//
// Secrets Manager only returns fields that have a value. The types here keep
// that distinction: every field is a pointer, slice or map, and nil always
// means "not present in the response". A present-but-empty value (an empty
// description, an empty tag list) stays non-nil.
package secretmanager

import (
	"bytes"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
)

// Tag is a key/value label attached to a secret.
type Tag struct {
	Key   *string `json:"key,omitempty"`
	Value *string `json:"value,omitempty"`
}

// RotationRules describes a secret's rotation schedule.
type RotationRules struct {
	AutomaticallyAfterDays *int64  `json:"automaticallyAfterDays,omitempty"`
	Duration               *string `json:"duration,omitempty"`
	ScheduleExpression     *string `json:"scheduleExpression,omitempty"`
}

// ReplicationStatus describes a secret replica in another region.
type ReplicationStatus struct {
	Region           *string    `json:"region,omitempty"`
	KMSKeyID         *string    `json:"kmsKeyId,omitempty"`
	Status           *string    `json:"status,omitempty"`
	StatusMessage    *string    `json:"statusMessage,omitempty"`
	LastAccessedDate *time.Time `json:"lastAccessedDate,omitempty"`
}

// SecretMetadata is the result of a describe-secret request.
// It never contains the secret value.
type SecretMetadata struct {
	ARN                *string             `json:"arn,omitempty"`
	Name               *string             `json:"name,omitempty"`
	Description        *string             `json:"description,omitempty"`
	KMSKeyID           *string             `json:"kmsKeyId,omitempty"`
	RotationEnabled    *bool               `json:"rotationEnabled,omitempty"`
	RotationLambdaARN  *string             `json:"rotationLambdaArn,omitempty"`
	RotationRules      *RotationRules      `json:"rotationRules,omitempty"`
	LastRotatedDate    *time.Time          `json:"lastRotatedDate,omitempty"`
	LastChangedDate    *time.Time          `json:"lastChangedDate,omitempty"`
	LastAccessedDate   *time.Time          `json:"lastAccessedDate,omitempty"`
	DeletedDate        *time.Time          `json:"deletedDate,omitempty"`
	NextRotationDate   *time.Time          `json:"nextRotationDate,omitempty"`
	CreatedDate        *time.Time          `json:"createdDate,omitempty"`
	Tags               []Tag               `json:"tags,omitempty"`
	VersionIDsToStages map[string][]string `json:"versionIdsToStages,omitempty"`
	OwningService      *string             `json:"owningService,omitempty"`
	PrimaryRegion      *string             `json:"primaryRegion,omitempty"`
	ReplicationStatus  []ReplicationStatus `json:"replicationStatus,omitempty"`
}

// SecretValue is the result of a get-secret-value request. Exactly the
// payload form the service returned is populated: SecretString for text,
// SecretBinary for binary data.
type SecretValue struct {
	ARN           *string    `json:"arn,omitempty"`
	Name          *string    `json:"name,omitempty"`
	VersionID     *string    `json:"versionId,omitempty"`
	VersionStages []string   `json:"versionStages,omitempty"`
	CreatedDate   *time.Time `json:"createdDate,omitempty"`
	SecretString  *string    `json:"secretString,omitempty"`
	SecretBinary  []byte     `json:"secretBinary,omitempty"`
}

// IsBinary reports whether the service returned a binary payload.
func (v *SecretValue) IsBinary() bool {
	return v.SecretBinary != nil
}

// LogValue implements slog.LogValuer so a SecretValue is never logged with its payload.
func (v *SecretValue) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("name", deref(v.Name)),
		slog.String("version_id", deref(v.VersionID)),
		slog.Bool("binary", v.IsBinary()),
	}
	if v.SecretString != nil || v.SecretBinary != nil {
		attrs = append(attrs, slog.String("payload", "[REDACTED]"))
	}
	return slog.GroupValue(attrs...)
}

// normalizeDescribe copies the fields present on out.
func normalizeDescribe(out *secretsmanager.DescribeSecretOutput) *SecretMetadata {
	if out == nil {
		return &SecretMetadata{}
	}

	return &SecretMetadata{
		ARN:                clonePtr(out.ARN),
		Name:               clonePtr(out.Name),
		Description:        clonePtr(out.Description),
		KMSKeyID:           clonePtr(out.KmsKeyId),
		RotationEnabled:    clonePtr(out.RotationEnabled),
		RotationLambdaARN:  clonePtr(out.RotationLambdaARN),
		RotationRules:      normalizeRotationRules(out.RotationRules),
		LastRotatedDate:    clonePtr(out.LastRotatedDate),
		LastChangedDate:    clonePtr(out.LastChangedDate),
		LastAccessedDate:   clonePtr(out.LastAccessedDate),
		DeletedDate:        clonePtr(out.DeletedDate),
		NextRotationDate:   clonePtr(out.NextRotationDate),
		CreatedDate:        clonePtr(out.CreatedDate),
		Tags:               normalizeTags(out.Tags),
		VersionIDsToStages: cloneStages(out.VersionIdsToStages),
		OwningService:      clonePtr(out.OwningService),
		PrimaryRegion:      clonePtr(out.PrimaryRegion),
		ReplicationStatus:  normalizeReplication(out.ReplicationStatus),
	}
}

// normalizeSecretValue copies the fields present on out, keeping the payload
// in the form it was returned.
func normalizeSecretValue(out *secretsmanager.GetSecretValueOutput) *SecretValue {
	if out == nil {
		return &SecretValue{}
	}

	return &SecretValue{
		ARN:           clonePtr(out.ARN),
		Name:          clonePtr(out.Name),
		VersionID:     clonePtr(out.VersionId),
		VersionStages: slices.Clone(out.VersionStages),
		CreatedDate:   clonePtr(out.CreatedDate),
		SecretString:  clonePtr(out.SecretString),
		SecretBinary:  bytes.Clone(out.SecretBinary),
	}
}

func normalizeRotationRules(in *types.RotationRulesType) *RotationRules {
	if in == nil {
		return nil
	}
	return &RotationRules{
		AutomaticallyAfterDays: clonePtr(in.AutomaticallyAfterDays),
		Duration:               clonePtr(in.Duration),
		ScheduleExpression:     clonePtr(in.ScheduleExpression),
	}
}

func normalizeTags(in []types.Tag) []Tag {
	if in == nil {
		return nil
	}
	tags := make([]Tag, 0, len(in))
	for _, t := range in {
		tags = append(tags, Tag{
			Key:   clonePtr(t.Key),
			Value: clonePtr(t.Value),
		})
	}
	return tags
}

func normalizeReplication(in []types.ReplicationStatusType) []ReplicationStatus {
	if in == nil {
		return nil
	}
	out := make([]ReplicationStatus, 0, len(in))
	for _, r := range in {
		rs := ReplicationStatus{
			Region:           clonePtr(r.Region),
			KMSKeyID:         clonePtr(r.KmsKeyId),
			StatusMessage:    clonePtr(r.StatusMessage),
			LastAccessedDate: clonePtr(r.LastAccessedDate),
		}
		// Status is an enum; the SDK leaves it empty when absent.
		if r.Status != "" {
			status := string(r.Status)
			rs.Status = &status
		}
		out = append(out, rs)
	}
	return out
}

func cloneStages(in map[string][]string) map[string][]string {
	if in == nil {
		return nil
	}
	out := maps.Clone(in)
	for k, v := range out {
		out[k] = slices.Clone(v)
	}
	return out
}

// clonePtr returns a pointer to a copy of *p, or nil if p is nil.
func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
