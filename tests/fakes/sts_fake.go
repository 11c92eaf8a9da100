package fakes

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// STSClient is an in-memory STS stand-in for credential checks.
type STSClient struct {
	Account string
	ARN     string
	// Errors maps an operation name to an error the fake returns for it.
	Errors map[string]error

	calls map[string]int
}

// NewSTSClient creates a fake STS client reporting a fixed identity.
func NewSTSClient() *STSClient {
	return &STSClient{
		Account: "123456789012",
		ARN:     "arn:aws:iam::123456789012:user/tester",
		Errors:  make(map[string]error),
		calls:   make(map[string]int),
	}
}

// Calls returns how many times the named operation was invoked.
func (f *STSClient) Calls(op string) int { return f.calls[op] }

// GetCallerIdentity implements the STS slice doctor depends on.
func (f *STSClient) GetCallerIdentity(_ context.Context, _ *sts.GetCallerIdentityInput, _ ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	f.calls["GetCallerIdentity"]++
	if err := f.Errors["GetCallerIdentity"]; err != nil {
		return nil, err
	}
	return &sts.GetCallerIdentityOutput{
		Account: aws.String(f.Account),
		Arn:     aws.String(f.ARN),
	}, nil
}
