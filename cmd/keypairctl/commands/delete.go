package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/systmms/cfn-keypair/internal/config"
	kperrors "github.com/systmms/cfn-keypair/internal/errors"
)

func NewDeleteCommand(cfg *config.Config) *cobra.Command {
	var (
		name          string
		retentionDays int
		force         bool
	)

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a key pair and its secrets out-of-band",
		Long: `Remove the EC2 key pair and both of its Secrets Manager entries.

This is the escape hatch for key pairs whose stack is gone or stuck.
Deleting a key pair that a live stack still references will break that
stack's next update.

Each removal is idempotent; resources that are already gone are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireName(name); err != nil {
				return err
			}
			if !force {
				return kperrors.UserError{
					Message:    "Refusing to delete without confirmation",
					Suggestion: "Re-run with --force to delete the key pair and its secrets",
				}
			}
			if retentionDays != 0 && (retentionDays < 7 || retentionDays > 30) {
				return kperrors.ConfigError{
					Field:      "retention-days",
					Value:      retentionDays,
					Message:    "recovery window must be 0 or between 7 and 30 days",
					Suggestion: "Use 0 to delete immediately, or a window of 7-30 days",
				}
			}

			gws, err := setup(cmd, cfg)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if retentionDays == 0 {
				retentionDays = cfg.Definition.RemoveKeySecretsAfterDays
			}

			if err := gws.keyPairs.Delete(ctx, name); err != nil {
				return kperrors.AWSError("ec2", "deleting key pair", err)
			}

			privateName, publicName := secretNames(cfg, name)
			for _, secretName := range []string{privateName, publicName} {
				arn, err := gws.secrets.Delete(ctx, secretName, retentionDays)
				if err != nil {
					return kperrors.AWSError("secretsmanager", "deleting secret", err)
				}
				if arn != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", secretName)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "key pair %s removed\n", name)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Key pair name (required)")
	cmd.Flags().IntVar(&retentionDays, "retention-days", 0, "Recovery window for the secrets (0 deletes immediately)")
	cmd.Flags().BoolVar(&force, "force", false, "Skip the confirmation guard")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}
