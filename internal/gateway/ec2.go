// Package gateway wraps the two AWS services this resource touches: EC2 for
// the key pair itself and Secrets Manager for the key material. The gateways
// hold no state — every method is a fresh round trip — and each one fronts
// its SDK client through a narrow interface so tests can inject fakes.
package gateway

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/systmms/cfn-keypair/internal/logging"
	"github.com/systmms/cfn-keypair/internal/secure"
	"github.com/systmms/cfn-keypair/pkg/keypair"
)

// EC2API is the subset of the EC2 client the key pair gateway needs.
// Narrowed for fake injection in tests.
type EC2API interface {
	CreateKeyPair(ctx context.Context, params *ec2.CreateKeyPairInput, optFns ...func(*ec2.Options)) (*ec2.CreateKeyPairOutput, error)
	ImportKeyPair(ctx context.Context, params *ec2.ImportKeyPairInput, optFns ...func(*ec2.Options)) (*ec2.ImportKeyPairOutput, error)
	DescribeKeyPairs(ctx context.Context, params *ec2.DescribeKeyPairsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeKeyPairsOutput, error)
	CreateTags(ctx context.Context, params *ec2.CreateTagsInput, optFns ...func(*ec2.Options)) (*ec2.CreateTagsOutput, error)
	DeleteTags(ctx context.Context, params *ec2.DeleteTagsInput, optFns ...func(*ec2.Options)) (*ec2.DeleteTagsOutput, error)
	DeleteKeyPair(ctx context.Context, params *ec2.DeleteKeyPairInput, optFns ...func(*ec2.Options)) (*ec2.DeleteKeyPairOutput, error)
}

// KeyPairInfo is what the compute API tells us about a key pair.
// PrivateKeyMaterial is populated only when the key pair was generated
// remotely; imported key pairs never have recoverable private key material.
type KeyPairInfo struct {
	Name               string
	ID                 string
	Fingerprint        string
	PrivateKeyMaterial *secure.Material
}

// KeyPairGateway wraps the EC2 key pair operations.
type KeyPairGateway struct {
	client EC2API
	logger *logging.Logger
}

// KeyPairOption configures a KeyPairGateway.
type KeyPairOption func(*KeyPairGateway)

// WithEC2Client sets a custom EC2 client (for testing).
func WithEC2Client(client EC2API) KeyPairOption {
	return func(g *KeyPairGateway) {
		g.client = client
	}
}

// NewKeyPairGateway creates a gateway backed by the given AWS config.
func NewKeyPairGateway(cfg aws.Config, logger *logging.Logger, opts ...KeyPairOption) *KeyPairGateway {
	g := &KeyPairGateway{logger: logger}
	for _, opt := range opts {
		opt(g)
	}
	if g.client == nil {
		g.client = ec2.NewFromConfig(cfg)
	}
	return g
}

// CreateOrImport creates a new key pair of the given type, or imports the
// supplied public key when one is present. The full tag set rides along on
// the create call itself so the resource is never visible untagged — the
// ownership tag is what scopes the IAM policy that allows later mutation.
func (g *KeyPairGateway) CreateOrImport(ctx context.Context, name string, keyType keypair.KeyType, importedPublicKey string, tagSet map[string]string) (*KeyPairInfo, error) {
	tagSpec := []ec2types.TagSpecification{{
		ResourceType: ec2types.ResourceTypeKeyPair,
		Tags:         toEC2Tags(tagSet),
	}}

	if importedPublicKey != "" {
		out, err := g.client.ImportKeyPair(ctx, &ec2.ImportKeyPairInput{
			KeyName:           aws.String(name),
			PublicKeyMaterial: []byte(importedPublicKey),
			TagSpecifications: tagSpec,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to import key pair %s: %w", name, err)
		}
		g.logger.Info("imported key pair %s (%s)", name, aws.ToString(out.KeyPairId))
		return &KeyPairInfo{
			Name:        aws.ToString(out.KeyName),
			ID:          aws.ToString(out.KeyPairId),
			Fingerprint: aws.ToString(out.KeyFingerprint),
		}, nil
	}

	out, err := g.client.CreateKeyPair(ctx, &ec2.CreateKeyPairInput{
		KeyName:           aws.String(name),
		KeyType:           ec2types.KeyType(keyType),
		KeyFormat:         ec2types.KeyFormatPem,
		TagSpecifications: tagSpec,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create key pair %s: %w", name, err)
	}
	g.logger.Info("created key pair %s (%s)", name, aws.ToString(out.KeyPairId))

	return &KeyPairInfo{
		Name:               aws.ToString(out.KeyName),
		ID:                 aws.ToString(out.KeyPairId),
		Fingerprint:        aws.ToString(out.KeyFingerprint),
		PrivateKeyMaterial: secure.Seal([]byte(aws.ToString(out.KeyMaterial))),
	}, nil
}

// Describe resolves a key pair by name. Exactly one match is expected; zero
// or several yield a NotFoundError.
func (g *KeyPairGateway) Describe(ctx context.Context, name string) (*KeyPairInfo, error) {
	out, err := g.client.DescribeKeyPairs(ctx, &ec2.DescribeKeyPairsInput{
		KeyNames: []string{name},
	})
	if err != nil {
		if isEC2NotFound(err) {
			return nil, keypair.NotFoundError{Resource: "key pair", Name: name}
		}
		return nil, fmt.Errorf("failed to describe key pair %s: %w", name, err)
	}
	if len(out.KeyPairs) != 1 {
		return nil, keypair.NotFoundError{Resource: "key pair", Name: name}
	}

	kp := out.KeyPairs[0]
	return &KeyPairInfo{
		Name:        aws.ToString(kp.KeyName),
		ID:          aws.ToString(kp.KeyPairId),
		Fingerprint: aws.ToString(kp.KeyFingerprint),
	}, nil
}

// Exists reports whether a key pair with the given name exists, treating
// "not found" as false rather than an error.
func (g *KeyPairGateway) Exists(ctx context.Context, name string) (bool, error) {
	_, err := g.Describe(ctx, name)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// AddTags adds tags to the key pair. No-op for an empty set.
func (g *KeyPairGateway) AddTags(ctx context.Context, id string, add map[string]string) error {
	if len(add) == 0 {
		return nil
	}
	_, err := g.client.CreateTags(ctx, &ec2.CreateTagsInput{
		Resources: []string{id},
		Tags:      toEC2Tags(add),
	})
	if err != nil {
		return fmt.Errorf("failed to tag key pair %s: %w", id, err)
	}
	return nil
}

// RemoveTags removes the given tag keys from the key pair. No-op for an
// empty set.
func (g *KeyPairGateway) RemoveTags(ctx context.Context, id string, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	tags := make([]ec2types.Tag, 0, len(keys))
	for _, k := range keys {
		tags = append(tags, ec2types.Tag{Key: aws.String(k)})
	}
	_, err := g.client.DeleteTags(ctx, &ec2.DeleteTagsInput{
		Resources: []string{id},
		Tags:      tags,
	})
	if err != nil {
		return fmt.Errorf("failed to untag key pair %s: %w", id, err)
	}
	return nil
}

// Delete removes the key pair. A key pair that is already gone is success,
// so a rolled-back Create or a retried Delete can always complete.
func (g *KeyPairGateway) Delete(ctx context.Context, name string) error {
	_, err := g.client.DeleteKeyPair(ctx, &ec2.DeleteKeyPairInput{
		KeyName: aws.String(name),
	})
	if err != nil {
		if isEC2NotFound(err) {
			g.logger.Info("key pair %s already deleted", name)
			return nil
		}
		return fmt.Errorf("failed to delete key pair %s: %w", name, err)
	}
	g.logger.Info("deleted key pair %s", name)
	return nil
}

func toEC2Tags(tagSet map[string]string) []ec2types.Tag {
	tags := make([]ec2types.Tag, 0, len(tagSet))
	for k, v := range tagSet {
		tags = append(tags, ec2types.Tag{Key: aws.String(k), Value: aws.String(v)})
	}
	return tags
}
