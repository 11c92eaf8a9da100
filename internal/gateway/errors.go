package gateway

import (
	"errors"

	"github.com/aws/smithy-go"

	smtypes "github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/systmms/cfn-keypair/pkg/keypair"
)

// EC2 has no typed not-found error; it signals absence through API error
// codes on the generic smithy error.
const (
	ec2KeyPairNotFound = "InvalidKeyPair.NotFound"
)

func isEC2NotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == ec2KeyPairNotFound
	}
	return false
}

func isSecretNotFound(err error) bool {
	var nf *smtypes.ResourceNotFoundException
	return errors.As(err, &nf)
}

func isNotFound(err error) bool {
	var nf keypair.NotFoundError
	return errors.As(err, &nf)
}
