package config

import (
	"fmt"
	"os"
	"strings"

	kperrors "github.com/systmms/cfn-keypair/internal/errors"
	"github.com/systmms/cfn-keypair/internal/logging"
	"github.com/systmms/cfn-keypair/pkg/keypair"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where keypairctl looks for its configuration file when no
// --config flag is given.
const DefaultPath = "keypairctl.yaml"

// Config holds the runtime configuration for keypairctl
type Config struct {
	Path       string
	Logger     *logging.Logger
	Definition *Definition
}

// Definition represents the keypairctl.yaml structure. Every field is
// optional; command-line flags override whatever is set here.
type Definition struct {
	Version int `yaml:"version"`

	// Region and Profile are passed to the AWS SDK's credential chain.
	Region  string `yaml:"region,omitempty"`
	Profile string `yaml:"profile,omitempty"`

	// SecretPrefix is prepended to key pair names when resolving secrets.
	SecretPrefix string `yaml:"secretPrefix,omitempty"`

	// PublicKeyFormat is the default encoding for derive output.
	PublicKeyFormat string `yaml:"publicKeyFormat,omitempty"`

	// RemoveKeySecretsAfterDays is the default recovery window for delete.
	RemoveKeySecretsAfterDays int `yaml:"removeKeySecretsAfterDays,omitempty"`
}

// Load reads and parses the keypairctl.yaml file. A missing file is not an
// error; the zero Definition with defaults applied is used instead.
func (c *Config) Load() error {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		if os.IsNotExist(err) {
			c.Definition = withDefaults(&Definition{})
			return nil
		}
		return kperrors.UserError{
			Message:    "Failed to read configuration file",
			Details:    err.Error(),
			Suggestion: "Check file permissions and path",
			Err:        err,
		}
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return kperrors.ConfigError{
			Message:    "invalid YAML syntax in configuration file",
			Suggestion: "Check for indentation errors, missing quotes, or invalid characters. Use a YAML validator",
		}
	}

	if def.Version != 0 {
		return kperrors.ConfigError{
			Field:      "version",
			Value:      def.Version,
			Message:    "unsupported configuration version",
			Suggestion: "Set 'version: 0' at the top of your keypairctl.yaml file",
		}
	}

	if err := validate(&def); err != nil {
		return err
	}

	c.Definition = withDefaults(&def)
	return nil
}

func withDefaults(def *Definition) *Definition {
	if def.SecretPrefix == "" {
		def.SecretPrefix = keypair.DefaultSecretPrefix
	}
	if def.PublicKeyFormat == "" {
		def.PublicKeyFormat = string(keypair.FormatOpenSSH)
	}
	return def
}

func validate(def *Definition) error {
	if def.SecretPrefix != "" && !strings.HasSuffix(def.SecretPrefix, "/") {
		return kperrors.ConfigError{
			Field:      "secretPrefix",
			Value:      def.SecretPrefix,
			Message:    "prefix must end with a '/'",
			Suggestion: fmt.Sprintf("Use '%s/' instead", def.SecretPrefix),
		}
	}

	if def.PublicKeyFormat != "" {
		switch keypair.PublicKeyFormat(def.PublicKeyFormat) {
		case keypair.FormatOpenSSH, keypair.FormatSSH, keypair.FormatPEM,
			keypair.FormatPKCS1, keypair.FormatPKCS8, keypair.FormatRAW, keypair.FormatPuTTY:
		default:
			return kperrors.ConfigError{
				Field:      "publicKeyFormat",
				Value:      def.PublicKeyFormat,
				Message:    "unknown public key format",
				Suggestion: "Use one of: OPENSSH, SSH, PEM, PKCS1, PKCS8, RAW, PUTTY",
			}
		}
	}

	if days := def.RemoveKeySecretsAfterDays; days != 0 && (days < 7 || days > 30) {
		return kperrors.ConfigError{
			Field:      "removeKeySecretsAfterDays",
			Value:      days,
			Message:    "recovery window must be 0 or between 7 and 30 days",
			Suggestion: "Use 0 to delete immediately, or a window of 7-30 days",
		}
	}

	return nil
}

// LambdaSettings is the handler configuration read from the function's
// environment. CloudFormation gives the Lambda no other channel.
type LambdaSettings struct {
	Debug   bool
	NoColor bool
}

// FromEnv reads the Lambda settings from environment variables.
func FromEnv() LambdaSettings {
	return LambdaSettings{
		Debug:   envBool("DEBUG") || strings.EqualFold(os.Getenv("LOG_LEVEL"), "debug"),
		NoColor: envBool("NO_COLOR"),
	}
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "1" || v == "true" || v == "yes"
}
