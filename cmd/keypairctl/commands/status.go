package commands

import (
	stderrors "errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/systmms/cfn-keypair/internal/config"
	kperrors "github.com/systmms/cfn-keypair/internal/errors"
	"github.com/systmms/cfn-keypair/pkg/keypair"
)

func NewStatusCommand(cfg *config.Config) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the state of a key pair and its secrets",
		Long: `Report whether the EC2 key pair and its Secrets Manager entries exist.

A healthy generated key pair has the key pair itself plus a private key
secret; the public key secret is optional. An imported key pair has no
private key secret.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireName(name); err != nil {
				return err
			}

			gws, err := setup(cmd, cfg)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintf(w, "RESOURCE\tNAME\tSTATUS\tDETAIL\n")
			_, _ = fmt.Fprintf(w, "--------\t----\t------\t------\n")

			present := 0

			var nf keypair.NotFoundError
			info, err := gws.keyPairs.Describe(ctx, name)
			switch {
			case err == nil:
				present++
				_, _ = fmt.Fprintf(w, "key pair\t%s\t✓ present\t%s %s\n", name, info.ID, info.Fingerprint)
			case stderrors.As(err, &nf):
				_, _ = fmt.Fprintf(w, "key pair\t%s\t✗ absent\t\n", name)
			default:
				return kperrors.AWSError("ec2", "describing key pair", err)
			}

			privateName, publicName := secretNames(cfg, name)
			for _, secretName := range []string{privateName, publicName} {
				exists, err := gws.secrets.Exists(ctx, secretName)
				if err != nil {
					return kperrors.AWSError("secretsmanager", "listing secrets", err)
				}
				if exists {
					present++
					_, _ = fmt.Fprintf(w, "secret\t%s\t✓ present\t\n", secretName)
				} else {
					_, _ = fmt.Fprintf(w, "secret\t%s\t✗ absent\t\n", secretName)
				}
			}

			_ = w.Flush()

			if present == 0 {
				return kperrors.UserError{
					Message:    fmt.Sprintf("Key pair '%s' does not exist", name),
					Suggestion: "Check the name, the configured secretPrefix, and the region",
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Key pair name (required)")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}
