package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/spf13/cobra"

	"github.com/systmms/cfn-keypair/internal/config"
	kperrors "github.com/systmms/cfn-keypair/internal/errors"
)

func NewDoctorCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check AWS connectivity and configuration",
		Long: `Verify that keypairctl can reach AWS with the configured credentials.

This command checks:
- Configuration file validity
- Credential resolution (STS caller identity)
- Secrets Manager access under the configured prefix`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Logger.Info("Checking keypairctl configuration...")
			gws, err := setup(cmd, cfg)
			if err != nil {
				cfg.Logger.Error("Configuration error: %v", err)
				return err
			}
			cfg.Logger.Info("✓ Configuration loaded successfully")

			ctx := cmd.Context()
			checks := make([]checkResult, 0, 2)

			identity, err := gws.sts.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
			if err != nil {
				checks = append(checks, checkResult{
					Name:  "credentials",
					Error: kperrors.AWSError("sts", "get-caller-identity", err),
				})
			} else {
				checks = append(checks, checkResult{
					Name:    "credentials",
					Message: fmt.Sprintf("account %s as %s", aws.ToString(identity.Account), aws.ToString(identity.Arn)),
				})
			}

			// An existence probe against a name that cannot collide with a
			// real key pair exercises ListSecrets permissions.
			_, err = gws.secrets.Exists(ctx, cfg.Definition.SecretPrefix)
			if err != nil {
				checks = append(checks, checkResult{
					Name:  "secretsmanager",
					Error: kperrors.AWSError("secretsmanager", "list-secrets", err),
				})
			} else {
				checks = append(checks, checkResult{
					Name:    "secretsmanager",
					Message: fmt.Sprintf("prefix %s reachable", cfg.Definition.SecretPrefix),
				})
			}

			displayChecks(checks)

			for _, check := range checks {
				if check.Error != nil {
					return fmt.Errorf("some checks failed")
				}
			}

			cfg.Logger.Info("✓ All systems operational!")
			return nil
		},
	}

	return cmd
}

// checkResult represents the outcome of one doctor check
type checkResult struct {
	Name    string
	Message string
	Error   error
}

// displayChecks shows check outcomes in a formatted table
func displayChecks(checks []checkResult) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintf(w, "CHECK\tSTATUS\tMESSAGE\n")
	_, _ = fmt.Fprintf(w, "-----\t------\t-------\n")

	for _, check := range checks {
		status := "✓ healthy"
		message := check.Message
		if check.Error != nil {
			status = "✗ error"
			message = check.Error.Error()
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", check.Name, status, message)
	}

	_ = w.Flush()
}
