// Command cfn-keypair is the Lambda entrypoint backing the
// Custom::EC2-Key-Pair CloudFormation resource. It provisions an EC2 key
// pair and stores the key material in Secrets Manager.
package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/cfn"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"github.com/systmms/cfn-keypair/internal/config"
	"github.com/systmms/cfn-keypair/internal/gateway"
	"github.com/systmms/cfn-keypair/internal/lifecycle"
	"github.com/systmms/cfn-keypair/internal/logging"
	"github.com/systmms/cfn-keypair/internal/secure"
)

func main() {
	settings := config.FromEnv()
	logger := logging.New(settings.Debug, settings.NoColor)

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		log.Fatalf("load AWS config: %v", err)
	}

	orch := lifecycle.New(
		gateway.NewKeyPairGateway(awsCfg, logger),
		gateway.NewSecretsGateway(awsCfg, logger),
		logger,
	)
	handler := lifecycle.NewHandler(orch, logger)

	defer secure.Purge()
	lambda.Start(cfn.LambdaWrap(handler.Handle))
}
