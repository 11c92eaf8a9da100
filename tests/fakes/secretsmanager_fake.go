package fakes

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	smtypes "github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
)

// SecretRecord is the state the fake keeps per secret.
type SecretRecord struct {
	Name        string
	ARN         string
	Value       string
	Description string
	KmsKeyID    string
	Tags        map[string]string
	// RetentionDays records the recovery window requested on deletion;
	// -1 means force-deleted without recovery.
	RetentionDays int
}

// SecretsManagerClient is an in-memory implementation of the gateway's
// SecretsManagerAPI.
type SecretsManagerClient struct {
	Secrets map[string]*SecretRecord
	Deleted map[string]*SecretRecord
	// Errors maps an operation name ("CreateSecret", ...) to an error the
	// fake returns for that operation.
	Errors map[string]error

	calls map[string]int
}

// NewSecretsManagerClient creates an empty fake Secrets Manager client.
func NewSecretsManagerClient() *SecretsManagerClient {
	return &SecretsManagerClient{
		Secrets: make(map[string]*SecretRecord),
		Deleted: make(map[string]*SecretRecord),
		Errors:  make(map[string]error),
		calls:   make(map[string]int),
	}
}

// Calls returns how many times the named operation was invoked.
func (f *SecretsManagerClient) Calls(op string) int { return f.calls[op] }

// MutatingCalls sums the calls that change remote state.
func (f *SecretsManagerClient) MutatingCalls() int {
	return f.calls["CreateSecret"] + f.calls["UpdateSecret"] +
		f.calls["TagResource"] + f.calls["UntagResource"] + f.calls["DeleteSecret"]
}

func (f *SecretsManagerClient) record(op string) error {
	f.calls[op]++
	return f.Errors[op]
}

func secretARN(name string) string {
	return "arn:aws:secretsmanager:us-east-1:123456789012:secret:" + name + "-AbCdEf"
}

func secretNotFound() error {
	return &smtypes.ResourceNotFoundException{
		Message: aws.String("Secrets Manager can't find the specified secret."),
	}
}

// CreateSecret implements SecretsManagerAPI.
func (f *SecretsManagerClient) CreateSecret(_ context.Context, params *secretsmanager.CreateSecretInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.CreateSecretOutput, error) {
	if err := f.record("CreateSecret"); err != nil {
		return nil, err
	}
	name := aws.ToString(params.Name)
	rec := &SecretRecord{
		Name:        name,
		ARN:         secretARN(name),
		Value:       aws.ToString(params.SecretString),
		Description: aws.ToString(params.Description),
		KmsKeyID:    aws.ToString(params.KmsKeyId),
		Tags:        tagsFromSecretTags(params.Tags),
	}
	f.Secrets[name] = rec
	return &secretsmanager.CreateSecretOutput{
		ARN:  aws.String(rec.ARN),
		Name: aws.String(rec.Name),
	}, nil
}

// UpdateSecret implements SecretsManagerAPI. Metadata only, like the gateway
// uses it; SecretString updates are intentionally unsupported.
func (f *SecretsManagerClient) UpdateSecret(_ context.Context, params *secretsmanager.UpdateSecretInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.UpdateSecretOutput, error) {
	if err := f.record("UpdateSecret"); err != nil {
		return nil, err
	}
	rec, ok := f.Secrets[aws.ToString(params.SecretId)]
	if !ok {
		return nil, secretNotFound()
	}
	if params.Description != nil {
		rec.Description = aws.ToString(params.Description)
	}
	if params.KmsKeyId != nil {
		rec.KmsKeyID = aws.ToString(params.KmsKeyId)
	}
	return &secretsmanager.UpdateSecretOutput{
		ARN:  aws.String(rec.ARN),
		Name: aws.String(rec.Name),
	}, nil
}

// TagResource implements SecretsManagerAPI.
func (f *SecretsManagerClient) TagResource(_ context.Context, params *secretsmanager.TagResourceInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.TagResourceOutput, error) {
	if err := f.record("TagResource"); err != nil {
		return nil, err
	}
	rec, ok := f.Secrets[aws.ToString(params.SecretId)]
	if !ok {
		return nil, secretNotFound()
	}
	for _, tag := range params.Tags {
		rec.Tags[aws.ToString(tag.Key)] = aws.ToString(tag.Value)
	}
	return &secretsmanager.TagResourceOutput{}, nil
}

// UntagResource implements SecretsManagerAPI.
func (f *SecretsManagerClient) UntagResource(_ context.Context, params *secretsmanager.UntagResourceInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.UntagResourceOutput, error) {
	if err := f.record("UntagResource"); err != nil {
		return nil, err
	}
	rec, ok := f.Secrets[aws.ToString(params.SecretId)]
	if !ok {
		return nil, secretNotFound()
	}
	for _, key := range params.TagKeys {
		delete(rec.Tags, key)
	}
	return &secretsmanager.UntagResourceOutput{}, nil
}

// GetSecretValue implements SecretsManagerAPI.
func (f *SecretsManagerClient) GetSecretValue(_ context.Context, params *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	if err := f.record("GetSecretValue"); err != nil {
		return nil, err
	}
	rec, ok := f.Secrets[aws.ToString(params.SecretId)]
	if !ok {
		return nil, secretNotFound()
	}
	return &secretsmanager.GetSecretValueOutput{
		ARN:          aws.String(rec.ARN),
		Name:         aws.String(rec.Name),
		SecretString: aws.String(rec.Value),
	}, nil
}

// ListSecrets implements SecretsManagerAPI. The name filter is a prefix
// match, like the real API.
func (f *SecretsManagerClient) ListSecrets(_ context.Context, params *secretsmanager.ListSecretsInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.ListSecretsOutput, error) {
	if err := f.record("ListSecrets"); err != nil {
		return nil, err
	}
	var prefixes []string
	for _, filter := range params.Filters {
		if filter.Key == smtypes.FilterNameStringTypeName {
			prefixes = append(prefixes, filter.Values...)
		}
	}
	var entries []smtypes.SecretListEntry
	for name, rec := range f.Secrets {
		if len(prefixes) == 0 || hasAnyPrefix(name, prefixes) {
			entries = append(entries, smtypes.SecretListEntry{
				ARN:  aws.String(rec.ARN),
				Name: aws.String(name),
			})
		}
	}
	return &secretsmanager.ListSecretsOutput{SecretList: entries}, nil
}

// DeleteSecret implements SecretsManagerAPI.
func (f *SecretsManagerClient) DeleteSecret(_ context.Context, params *secretsmanager.DeleteSecretInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.DeleteSecretOutput, error) {
	if err := f.record("DeleteSecret"); err != nil {
		return nil, err
	}
	name := aws.ToString(params.SecretId)
	rec, ok := f.Secrets[name]
	if !ok {
		return nil, secretNotFound()
	}
	if params.RecoveryWindowInDays != nil {
		rec.RetentionDays = int(aws.ToInt64(params.RecoveryWindowInDays))
	} else if aws.ToBool(params.ForceDeleteWithoutRecovery) {
		rec.RetentionDays = -1
	}
	delete(f.Secrets, name)
	f.Deleted[name] = rec
	return &secretsmanager.DeleteSecretOutput{
		ARN:  aws.String(rec.ARN),
		Name: aws.String(rec.Name),
	}, nil
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func tagsFromSecretTags(in []smtypes.Tag) map[string]string {
	tags := make(map[string]string)
	for _, tag := range in {
		tags[aws.ToString(tag.Key)] = aws.ToString(tag.Value)
	}
	return tags
}
