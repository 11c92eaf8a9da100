// Package lifecycle implements the state machine behind the custom resource:
// it interprets Create/Update/Delete events, drives the EC2 and Secrets
// Manager gateways in a fixed sequence, and maps outcomes to the attribute
// contract CloudFormation expects back.
package lifecycle

import (
	"context"
	"fmt"

	"github.com/systmms/cfn-keypair/internal/gateway"
	"github.com/systmms/cfn-keypair/internal/keymaterial"
	"github.com/systmms/cfn-keypair/internal/logging"
	"github.com/systmms/cfn-keypair/internal/tags"
	"github.com/systmms/cfn-keypair/pkg/keypair"
)

// Attribute names returned to CloudFormation via Fn::GetAtt.
const (
	AttrKeyPairName        = "KeyPairName"
	AttrKeyPairID          = "KeyPairID"
	AttrKeyPairFingerprint = "KeyPairFingerprint"
	AttrPrivateKeyARN      = "PrivateKeyARN"
	AttrPublicKeyARN       = "PublicKeyARN"
	AttrPublicKeyValue     = "PublicKeyValue"
)

// PublicKeyPlaceholder is returned as PublicKeyValue when the template did
// not opt into exposing the public key.
const PublicKeyPlaceholder = "Not requested - Set ExposePublicKey to true"

// ComputeGateway is the orchestrator's view of the EC2 key pair operations.
type ComputeGateway interface {
	CreateOrImport(ctx context.Context, name string, keyType keypair.KeyType, importedPublicKey string, tagSet map[string]string) (*gateway.KeyPairInfo, error)
	Describe(ctx context.Context, name string) (*gateway.KeyPairInfo, error)
	AddTags(ctx context.Context, id string, add map[string]string) error
	RemoveTags(ctx context.Context, id string, keys []string) error
	Delete(ctx context.Context, name string) error
}

// SecretStore is the orchestrator's view of the Secrets Manager operations.
type SecretStore interface {
	Create(ctx context.Context, name, value, description, kmsKeyID string, tagSet map[string]string) (string, error)
	UpdateMetadata(ctx context.Context, name, description, kmsKeyID string) (string, error)
	AddTags(ctx context.Context, name string, add map[string]string) error
	RemoveTags(ctx context.Context, name string, keys []string) error
	GetValue(ctx context.Context, name string) (string, error)
	Exists(ctx context.Context, name string) (bool, error)
	Delete(ctx context.Context, name string, retentionDays int) (string, error)
}

// Orchestrator owns the lifecycle transition logic. It holds no state of its
// own; every transition is a fresh sequence of gateway calls.
type Orchestrator struct {
	keyPairs ComputeGateway
	secrets  SecretStore
	logger   *logging.Logger
}

// New creates an Orchestrator over the given gateways.
func New(keyPairs ComputeGateway, secrets SecretStore, logger *logging.Logger) *Orchestrator {
	return &Orchestrator{keyPairs: keyPairs, secrets: secrets, logger: logger}
}

// Create provisions the key pair and its secrets.
//
// Failures abort the remaining steps without rolling back what was already
// created: CloudFormation follows a failed Create with a Delete, and every
// step here tears down independently.
func (o *Orchestrator) Create(ctx context.Context, prov tags.Provenance, props *keypair.Properties) (map[string]interface{}, error) {
	tagSet := prov.Apply(props.Tags)

	info, err := o.keyPairs.CreateOrImport(ctx, props.Name, props.KeyType, props.ImportedPublicKey, tagSet)
	if err != nil {
		return nil, err
	}

	var privateARN, publicARN, publicValue string

	if props.IsImported() {
		if props.StorePublicKey || props.ExposePublicKey {
			publicValue, err = keymaterial.ConvertPublicKey(props.ImportedPublicKey, props.PublicKeyFormat, props.Name)
			if err != nil {
				return nil, err
			}
		}
	} else {
		defer info.PrivateKeyMaterial.Destroy()
		err = info.PrivateKeyMaterial.WithBytes(func(material []byte) error {
			privateARN, err = o.secrets.Create(ctx,
				props.PrivateKeySecretName(), string(material),
				secretDescription(props, "private"), props.KmsPrivateKey, tagSet)
			if err != nil {
				return err
			}
			if props.StorePublicKey || props.ExposePublicKey {
				publicValue, err = keymaterial.DeriveFromPrivate(material, props.PublicKeyFormat, props.Name)
				return err
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	if props.StorePublicKey {
		publicARN, err = o.secrets.Create(ctx,
			props.PublicKeySecretName(), publicValue,
			secretDescription(props, "public"), props.KmsPublicKey, tagSet)
		if err != nil {
			return nil, err
		}
	}

	return o.attributes(info, privateARN, publicARN, exposedValue(props, publicValue)), nil
}

// Update validates the immutability invariants, then reconciles tags and
// secret metadata. The key pair resource itself cannot change; only its tags
// and the secrets around it do.
func (o *Orchestrator) Update(ctx context.Context, prov tags.Provenance, oldProps, newProps *keypair.Properties) (map[string]interface{}, error) {
	if err := checkImmutable(oldProps, newProps); err != nil {
		return nil, err
	}

	info, err := o.keyPairs.Describe(ctx, newProps.Name)
	if err != nil {
		return nil, err
	}

	add, remove := tags.Reconcile(prov.Apply(oldProps.Tags), prov.Apply(newProps.Tags))

	if err := o.keyPairs.AddTags(ctx, info.ID, add); err != nil {
		return nil, err
	}
	if err := o.keyPairs.RemoveTags(ctx, info.ID, remove); err != nil {
		return nil, err
	}

	var privateARN, publicARN string

	if !newProps.IsImported() {
		privateARN, err = o.updateSecret(ctx, newProps.PrivateKeySecretName(),
			secretDescription(newProps, "private"), newProps.KmsPrivateKey, add, remove)
		if err != nil {
			return nil, err
		}
	}

	if newProps.StorePublicKey {
		publicARN, err = o.updateSecret(ctx, newProps.PublicKeySecretName(),
			secretDescription(newProps, "public"), newProps.KmsPublicKey, add, remove)
		if err != nil {
			return nil, err
		}
	}

	publicValue, err := o.derivePublicValue(ctx, newProps)
	if err != nil {
		return nil, err
	}

	return o.attributes(info, privateARN, publicARN, publicValue), nil
}

// Delete tears everything down. All three removals are idempotent and
// independent; they run in a fixed order so the response payload is
// deterministic.
func (o *Orchestrator) Delete(ctx context.Context, props *keypair.Properties) (map[string]interface{}, error) {
	if err := o.keyPairs.Delete(ctx, props.Name); err != nil {
		return nil, err
	}

	var privateARN, publicARN string
	var err error

	if !props.IsImported() {
		privateARN, err = o.secrets.Delete(ctx, props.PrivateKeySecretName(), props.RemoveSecretsDays)
		if err != nil {
			return nil, err
		}
	}
	if props.StorePublicKey {
		publicARN, err = o.secrets.Delete(ctx, props.PublicKeySecretName(), props.RemoveSecretsDays)
		if err != nil {
			return nil, err
		}
	}

	return map[string]interface{}{
		AttrKeyPairName:   props.Name,
		AttrPrivateKeyARN: privateARN,
		AttrPublicKeyARN:  publicARN,
	}, nil
}

// updateSecret refreshes one secret's metadata and reconciles its tags.
func (o *Orchestrator) updateSecret(ctx context.Context, name, description, kmsKeyID string, add map[string]string, remove []string) (string, error) {
	arn, err := o.secrets.UpdateMetadata(ctx, name, description, kmsKeyID)
	if err != nil {
		return "", err
	}
	if err := o.secrets.AddTags(ctx, name, add); err != nil {
		return "", err
	}
	if err := o.secrets.RemoveTags(ctx, name, remove); err != nil {
		return "", err
	}
	return arn, nil
}

// derivePublicValue re-derives the exposed public key during Update. For
// generated key pairs the private key is recovered from its secret, since
// nothing is cached across invocations.
func (o *Orchestrator) derivePublicValue(ctx context.Context, props *keypair.Properties) (string, error) {
	if !props.ExposePublicKey {
		return PublicKeyPlaceholder, nil
	}
	if props.IsImported() {
		return keymaterial.ConvertPublicKey(props.ImportedPublicKey, props.PublicKeyFormat, props.Name)
	}
	material, err := o.secrets.GetValue(ctx, props.PrivateKeySecretName())
	if err != nil {
		return "", err
	}
	return keymaterial.DeriveFromPrivate([]byte(material), props.PublicKeyFormat, props.Name)
}

func (o *Orchestrator) attributes(info *gateway.KeyPairInfo, privateARN, publicARN, publicValue string) map[string]interface{} {
	return map[string]interface{}{
		AttrKeyPairName:        info.Name,
		AttrKeyPairID:          info.ID,
		AttrKeyPairFingerprint: info.Fingerprint,
		AttrPrivateKeyARN:      privateARN,
		AttrPublicKeyARN:       publicARN,
		AttrPublicKeyValue:     publicValue,
	}
}

// checkImmutable rejects changes to the locked fields before any remote call
// is issued. The first violation found is reported.
func checkImmutable(oldProps, newProps *keypair.Properties) error {
	switch {
	case oldProps.Name != newProps.Name:
		return keypair.ImmutableFieldError{Field: "Name"}
	case oldProps.KeyType != newProps.KeyType:
		return keypair.ImmutableFieldError{Field: "KeyType"}
	case oldProps.StorePublicKey != newProps.StorePublicKey:
		return keypair.ImmutableFieldError{Field: "StorePublicKey"}
	case oldProps.ImportedPublicKey != newProps.ImportedPublicKey:
		return keypair.ImmutableFieldError{Field: "PublicKey"}
	}
	return nil
}

func exposedValue(props *keypair.Properties, publicValue string) string {
	if props.ExposePublicKey {
		return publicValue
	}
	return PublicKeyPlaceholder
}

func secretDescription(props *keypair.Properties, half string) string {
	if props.Description != "" {
		return fmt.Sprintf("%s (%s key)", props.Description, half)
	}
	return fmt.Sprintf("%s key of EC2 key pair %s", half, props.Name)
}
