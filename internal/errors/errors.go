package errors

import (
	"errors"
	"fmt"
	"strings"
)

// UserError represents an error that should be shown to the user with helpful context
type UserError struct {
	Message    string
	Suggestion string
	Details    string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error with helpful context
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// AWSError enhances AWS API errors with context for CLI output
func AWSError(service string, operation string, err error) error {
	suggestion := getAWSSuggestion(service, err)

	return UserError{
		Message:    fmt.Sprintf("%s error during %s", service, operation),
		Suggestion: suggestion,
		Err:        err,
	}
}

// getAWSSuggestion returns helpful suggestions based on service and error
func getAWSSuggestion(service string, err error) string {
	errStr := err.Error()

	if strings.Contains(errStr, "credentials") || strings.Contains(errStr, "no EC2 IMDS role found") {
		return "Configure AWS credentials: 'aws configure' or set AWS_PROFILE"
	}
	if strings.Contains(errStr, "ExpiredToken") {
		return "Your AWS session has expired. Refresh your credentials and try again"
	}
	if strings.Contains(errStr, "ThrottlingException") || strings.Contains(errStr, "RequestLimitExceeded") {
		return "AWS rate limit exceeded. Wait a moment and try again"
	}

	switch service {
	case "secretsmanager":
		if strings.Contains(errStr, "AccessDenied") {
			return "Check IAM permissions for secretsmanager:GetSecretValue and secretsmanager:ListSecrets"
		}
		if strings.Contains(errStr, "ResourceNotFoundException") {
			return "Verify the secret name and region. List secrets with: 'aws secretsmanager list-secrets'"
		}
		if strings.Contains(errStr, "InvalidRequestException") && strings.Contains(errStr, "deletion") {
			return "The secret is scheduled for deletion. Restore it with: 'aws secretsmanager restore-secret'"
		}

	case "ec2":
		if strings.Contains(errStr, "UnauthorizedOperation") {
			return "Check IAM permissions for ec2:DescribeKeyPairs and ec2:DeleteKeyPair"
		}
		if strings.Contains(errStr, "InvalidKeyPair.NotFound") {
			return "Verify the key pair name and region. List key pairs with: 'aws ec2 describe-key-pairs'"
		}
		if strings.Contains(errStr, "InvalidKeyPair.Duplicate") {
			return "A key pair with that name already exists. Pick another name or delete the existing one"
		}

	case "sts":
		if strings.Contains(errStr, "InvalidClientTokenId") {
			return "The configured credentials are not valid. Check AWS_ACCESS_KEY_ID and AWS_PROFILE"
		}
	}

	// Generic suggestions
	if strings.Contains(errStr, "timeout") {
		return "The operation timed out. Check your network connection and try again"
	}
	if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "no such host") {
		return "Unable to connect. Check your network and the configured region"
	}

	return ""
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()
	retryablePatterns := []string{
		"timeout",
		"temporary failure",
		"connection reset",
		"broken pipe",
		"rate limit",
		"throttling",
		"too many requests",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(strings.ToLower(errStr), pattern) {
			return true
		}
	}

	return false
}

// SimplifyError simplifies complex error messages for users
func SimplifyError(err error) error {
	if err == nil {
		return nil
	}

	// Unwrap to get the root cause
	rootErr := err
	for {
		unwrapped := errors.Unwrap(rootErr)
		if unwrapped == nil {
			break
		}
		rootErr = unwrapped
	}

	// Already a user-friendly error
	if _, ok := err.(UserError); ok {
		return err
	}
	if _, ok := err.(ConfigError); ok {
		return err
	}

	// Simplify common technical errors
	errStr := rootErr.Error()

	if strings.Contains(errStr, "yaml:") {
		return ConfigError{
			Message:    "Invalid YAML format",
			Suggestion: "Check for indentation errors and missing quotes",
		}
	}

	if strings.Contains(errStr, "permission denied") {
		return UserError{
			Message:    "Permission denied",
			Suggestion: "Check file permissions or run with appropriate privileges",
			Err:        err,
		}
	}

	if strings.Contains(errStr, "no such file or directory") {
		return UserError{
			Message:    "File or directory not found",
			Suggestion: "Verify the path exists and is spelled correctly",
			Err:        err,
		}
	}

	// Return original error if we can't simplify it
	return err
}
