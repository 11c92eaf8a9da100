package gateway

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	smtypes "github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"

	"github.com/systmms/cfn-keypair/internal/logging"
	"github.com/systmms/cfn-keypair/pkg/keypair"
)

// SecretsManagerAPI is the subset of the Secrets Manager client the secret
// gateway needs.
type SecretsManagerAPI interface {
	CreateSecret(ctx context.Context, params *secretsmanager.CreateSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.CreateSecretOutput, error)
	UpdateSecret(ctx context.Context, params *secretsmanager.UpdateSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.UpdateSecretOutput, error)
	TagResource(ctx context.Context, params *secretsmanager.TagResourceInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.TagResourceOutput, error)
	UntagResource(ctx context.Context, params *secretsmanager.UntagResourceInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.UntagResourceOutput, error)
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
	ListSecrets(ctx context.Context, params *secretsmanager.ListSecretsInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.ListSecretsOutput, error)
	DeleteSecret(ctx context.Context, params *secretsmanager.DeleteSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.DeleteSecretOutput, error)
}

// SecretsGateway wraps the Secrets Manager operations for the two key
// material secrets.
type SecretsGateway struct {
	client SecretsManagerAPI
	logger *logging.Logger
}

// SecretsOption configures a SecretsGateway.
type SecretsOption func(*SecretsGateway)

// WithSecretsManagerClient sets a custom Secrets Manager client (for testing).
func WithSecretsManagerClient(client SecretsManagerAPI) SecretsOption {
	return func(g *SecretsGateway) {
		g.client = client
	}
}

// NewSecretsGateway creates a gateway backed by the given AWS config.
func NewSecretsGateway(cfg aws.Config, logger *logging.Logger, opts ...SecretsOption) *SecretsGateway {
	g := &SecretsGateway{logger: logger}
	for _, opt := range opts {
		opt(g)
	}
	if g.client == nil {
		g.client = secretsmanager.NewFromConfig(cfg)
	}
	return g
}

// Create stores a new secret and returns its ARN. Server-side encryption
// uses the given KMS key, or the account's default aws/secretsmanager key
// when none is configured.
func (g *SecretsGateway) Create(ctx context.Context, name, value, description, kmsKeyID string, tagSet map[string]string) (string, error) {
	input := &secretsmanager.CreateSecretInput{
		Name:         aws.String(name),
		SecretString: aws.String(value),
		Tags:         toSecretTags(tagSet),
	}
	if description != "" {
		input.Description = aws.String(description)
	}
	if kmsKeyID != "" {
		input.KmsKeyId = aws.String(kmsKeyID)
	}

	out, err := g.client.CreateSecret(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to create secret %s: %w", name, err)
	}
	g.logger.Info("created secret %s", name)
	return aws.ToString(out.ARN), nil
}

// UpdateMetadata updates a secret's description and encryption key. The
// secret value is deliberately left untouched: key material is never rotated
// in place.
func (g *SecretsGateway) UpdateMetadata(ctx context.Context, name, description, kmsKeyID string) (string, error) {
	input := &secretsmanager.UpdateSecretInput{
		SecretId: aws.String(name),
	}
	if description != "" {
		input.Description = aws.String(description)
	}
	if kmsKeyID != "" {
		input.KmsKeyId = aws.String(kmsKeyID)
	}

	out, err := g.client.UpdateSecret(ctx, input)
	if err != nil {
		if isSecretNotFound(err) {
			return "", keypair.NotFoundError{Resource: "secret", Name: name}
		}
		return "", fmt.Errorf("failed to update secret %s: %w", name, err)
	}
	return aws.ToString(out.ARN), nil
}

// AddTags adds tags to the secret. No-op for an empty set.
func (g *SecretsGateway) AddTags(ctx context.Context, name string, add map[string]string) error {
	if len(add) == 0 {
		return nil
	}
	_, err := g.client.TagResource(ctx, &secretsmanager.TagResourceInput{
		SecretId: aws.String(name),
		Tags:     toSecretTags(add),
	})
	if err != nil {
		return fmt.Errorf("failed to tag secret %s: %w", name, err)
	}
	return nil
}

// RemoveTags removes the given tag keys from the secret. No-op for an empty
// set.
func (g *SecretsGateway) RemoveTags(ctx context.Context, name string, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := g.client.UntagResource(ctx, &secretsmanager.UntagResourceInput{
		SecretId: aws.String(name),
		TagKeys:  keys,
	})
	if err != nil {
		return fmt.Errorf("failed to untag secret %s: %w", name, err)
	}
	return nil
}

// GetValue retrieves the current secret string.
func (g *SecretsGateway) GetValue(ctx context.Context, name string) (string, error) {
	out, err := g.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		if isSecretNotFound(err) {
			return "", keypair.NotFoundError{Resource: "secret", Name: name}
		}
		return "", fmt.Errorf("failed to read secret %s: %w", name, err)
	}
	return aws.ToString(out.SecretString), nil
}

// Exists reports whether a secret with exactly the given name exists. The
// name filter is a prefix match on the API side, so matches are re-checked
// for exact equality.
func (g *SecretsGateway) Exists(ctx context.Context, name string) (bool, error) {
	out, err := g.client.ListSecrets(ctx, &secretsmanager.ListSecretsInput{
		Filters: []smtypes.Filter{{
			Key:    smtypes.FilterNameStringTypeName,
			Values: []string{name},
		}},
	})
	if err != nil {
		return false, fmt.Errorf("failed to list secrets: %w", err)
	}
	for _, entry := range out.SecretList {
		if aws.ToString(entry.Name) == name {
			return true, nil
		}
	}
	return false, nil
}

// Delete removes the secret and returns its ARN. With retentionDays > 0 the
// secret stays recoverable for that window; with 0 it is purged immediately.
// An already-absent secret is success and returns an empty ARN.
func (g *SecretsGateway) Delete(ctx context.Context, name string, retentionDays int) (string, error) {
	input := &secretsmanager.DeleteSecretInput{
		SecretId: aws.String(name),
	}
	if retentionDays > 0 {
		input.RecoveryWindowInDays = aws.Int64(int64(retentionDays))
	} else {
		input.ForceDeleteWithoutRecovery = aws.Bool(true)
	}

	out, err := g.client.DeleteSecret(ctx, input)
	if err != nil {
		if isSecretNotFound(err) {
			g.logger.Info("secret %s already deleted", name)
			return "", nil
		}
		return "", fmt.Errorf("failed to delete secret %s: %w", name, err)
	}
	g.logger.Info("deleted secret %s", name)
	return aws.ToString(out.ARN), nil
}

func toSecretTags(tagSet map[string]string) []smtypes.Tag {
	tags := make([]smtypes.Tag, 0, len(tagSet))
	for k, v := range tagSet {
		tags = append(tags, smtypes.Tag{Key: aws.String(k), Value: aws.String(v)})
	}
	return tags
}
