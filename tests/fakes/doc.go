// Package fakes provides test doubles for the AWS SDK client interfaces the
// gateways depend on.
//
// Fakes are manually implemented (not generated) to give precise control
// over behavior, and they count every API call so tests can assert not just
// outcomes but which mutations were (or were not) issued.
//
// Usage:
//
//	fake := fakes.NewEC2Client()
//	gw := gateway.NewKeyPairGateway(aws.Config{}, logger, gateway.WithEC2Client(fake))
//	// ... exercise gw, then assert fake.Calls("CreateTags") == 1
package fakes
