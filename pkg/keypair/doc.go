// Package keypair defines the resource model for the EC2 key pair custom
// resource: the typed Properties parsed from the CloudFormation property bag,
// the supported key types and public key formats, and the error taxonomy
// shared by the gateways and the lifecycle orchestrator.
//
// CloudFormation transmits every property value as a string ("true"/"false"
// booleans, numbers as decimal strings). This package is the single place
// where that stringly-typed boundary is validated and converted into typed
// values; everything downstream works with Properties and never re-parses.
package keypair
