package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/systmms/cfn-keypair/cmd/keypairctl/commands"
	"github.com/systmms/cfn-keypair/internal/config"
	"github.com/systmms/cfn-keypair/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Global flags
	var (
		configFile string
		noColor    bool
		debug      bool
	)

	// Create config placeholder
	cfg := &config.Config{}

	rootCmd := &cobra.Command{
		Use:   "keypairctl",
		Short: "Inspect and manage CloudFormation-provisioned EC2 key pairs",
		Long: `keypairctl works with key pairs created by the Custom::EC2-Key-Pair
resource: it derives public keys from the stored private key, reports the
state of a key pair and its secrets, and cleans up out-of-band.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Initialize logger with parsed flags
			logger := logging.New(debug, noColor)

			// Update config with parsed values
			cfg.Path = configFile
			cfg.Logger = logger
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", config.DefaultPath, "Config file path")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	// Add commands
	rootCmd.AddCommand(
		commands.NewDeriveCommand(cfg),
		commands.NewStatusCommand(cfg),
		commands.NewDeleteCommand(cfg),
		commands.NewDoctorCommand(cfg),
	)

	return rootCmd.Execute()
}
