package commands

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/systmms/cfn-keypair/internal/config"
	kperrors "github.com/systmms/cfn-keypair/internal/errors"
	"github.com/systmms/cfn-keypair/internal/keymaterial"
	"github.com/systmms/cfn-keypair/pkg/keypair"
)

func NewDeriveCommand(cfg *config.Config) *cobra.Command {
	var (
		name       string
		keyFile    string
		format     string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Derive the public key from a stored private key",
		Long: `Fetch the private key secret of a key pair and print the public key.

The private key never leaves memory; only the derived public key is
written to stdout, in the requested encoding. With --key-file the key is
read from a local PEM file instead and no AWS call is made.

Examples:
  # Print the authorized_keys line
  keypairctl derive --name my-key

  # Print a PEM-encoded SubjectPublicKeyInfo block
  keypairctl derive --name my-key --format PEM

  # Work offline from a key file
  keypairctl derive --name my-key --key-file ./my-key.pem

  # Use in scripts
  keypairctl derive --name my-key >> ~/.ssh/authorized_keys`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireName(name); err != nil {
				return err
			}

			material, err := privateKeyMaterial(cmd, cfg, name, keyFile)
			if err != nil {
				return err
			}

			if format == "" {
				format = cfg.Definition.PublicKeyFormat
			}

			publicKey, err := keymaterial.DeriveFromPrivate(
				[]byte(material), keypair.PublicKeyFormat(format), name)
			if err != nil {
				return err
			}

			if jsonOutput {
				output := map[string]interface{}{
					"name":      name,
					"format":    format,
					"publicKey": publicKey,
				}
				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")
				return encoder.Encode(output)
			}

			fmt.Fprintln(cmd.OutOrStdout(), publicKey)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Key pair name (required)")
	cmd.Flags().StringVar(&keyFile, "key-file", "", "Read the private key from a local PEM file instead of Secrets Manager")
	cmd.Flags().StringVar(&format, "format", "", "Public key encoding (OPENSSH, SSH, PEM, PKCS1, PKCS8, RAW, PUTTY)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format with metadata")

	_ = cmd.MarkFlagRequired("name")

	return cmd
}

// privateKeyMaterial returns the PEM private key to derive from, either read
// from a local file or fetched from the key pair's private-key secret. The
// configuration is loaded in both modes so the format default applies.
func privateKeyMaterial(cmd *cobra.Command, cfg *config.Config, name, keyFile string) (string, error) {
	if keyFile != "" {
		if err := cfg.Load(); err != nil {
			return "", err
		}
		data, err := os.ReadFile(keyFile)
		if err != nil {
			return "", kperrors.UserError{
				Message:    fmt.Sprintf("Cannot read key file %s", keyFile),
				Suggestion: "Check that the path points to a readable PEM-encoded private key",
				Err:        err,
			}
		}
		return string(data), nil
	}

	gws, err := setup(cmd, cfg)
	if err != nil {
		return "", err
	}

	privateName, _ := secretNames(cfg, name)
	material, err := gws.secrets.GetValue(cmd.Context(), privateName)
	if err != nil {
		var nf keypair.NotFoundError
		if stderrors.As(err, &nf) {
			return "", kperrors.UserError{
				Message:    fmt.Sprintf("No private key secret found for key pair '%s'", name),
				Details:    fmt.Sprintf("looked for secret %s", privateName),
				Suggestion: "Check the key pair name and the configured secretPrefix. Imported key pairs have no private key secret",
			}
		}
		return "", kperrors.AWSError("secretsmanager", "fetching private key", err)
	}
	return material, nil
}
