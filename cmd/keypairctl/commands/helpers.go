package commands

import (
	"context"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/spf13/cobra"

	"github.com/systmms/cfn-keypair/internal/config"
	kperrors "github.com/systmms/cfn-keypair/internal/errors"
	"github.com/systmms/cfn-keypair/internal/gateway"
)

// stsAPI is the slice of the STS client doctor needs.
type stsAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// gateways bundles the AWS-facing clients a command works through.
type gateways struct {
	keyPairs *gateway.KeyPairGateway
	secrets  *gateway.SecretsGateway
	sts      stsAPI
}

// newGateways builds the AWS clients from the loaded configuration. Tests
// replace it with a fake-backed constructor.
var newGateways = func(ctx context.Context, cfg *config.Config) (*gateways, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Definition.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Definition.Region))
	}
	if cfg.Definition.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(cfg.Definition.Profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, kperrors.AWSError("sts", "loading credentials", err)
	}

	return &gateways{
		keyPairs: gateway.NewKeyPairGateway(awsCfg, cfg.Logger),
		secrets:  gateway.NewSecretsGateway(awsCfg, cfg.Logger),
		sts:      sts.NewFromConfig(awsCfg),
	}, nil
}

// requireName validates the --name flag shared by most commands.
func requireName(name string) error {
	if name == "" {
		return kperrors.UserError{
			Message:    "Key pair name is required",
			Suggestion: "Use --name <key-pair-name> to pick a key pair",
		}
	}
	return nil
}

// setup loads the configuration and builds the gateways for a command run.
func setup(cmd *cobra.Command, cfg *config.Config) (*gateways, error) {
	if err := cfg.Load(); err != nil {
		return nil, err
	}
	return newGateways(cmd.Context(), cfg)
}

// secretNames resolves the private and public secret names for a key pair
// under the configured prefix.
func secretNames(cfg *config.Config, name string) (private, public string) {
	prefix := cfg.Definition.SecretPrefix
	return prefix + name + "/private", prefix + name + "/public"
}
