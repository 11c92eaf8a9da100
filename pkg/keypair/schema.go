package keypair

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// propertySchema describes the shape of the raw property bag as delivered by
// CloudFormation. Values are strings at this boundary (including booleans and
// numbers); the enum checks live in Parse where they can produce typed
// errors. ServiceToken and other platform-injected keys are allowed through.
const propertySchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["Name"],
	"properties": {
		"Name":                      {"type": "string", "minLength": 1},
		"KeyType":                   {"type": "string"},
		"PublicKeyFormat":           {"type": "string"},
		"PublicKey":                 {"type": "string"},
		"StorePublicKey":            {"type": ["string", "boolean"]},
		"ExposePublicKey":           {"type": ["string", "boolean"]},
		"SecretPrefix":              {"type": "string"},
		"Description":               {"type": "string"},
		"KmsPrivate":                {"type": "string"},
		"KmsPublic":                 {"type": "string"},
		"RemoveKeySecretsAfterDays": {"type": ["string", "number"]},
		"Tags": {
			"type": "object",
			"additionalProperties": {"type": "string"}
		}
	}
}`

var schemaLoader = gojsonschema.NewStringLoader(propertySchema)

// validateSchema checks the raw property bag against propertySchema and
// collects every violation into a single error.
func validateSchema(raw map[string]interface{}) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(raw))
	if err != nil {
		return fmt.Errorf("failed to validate resource properties: %w", err)
	}
	if result.Valid() {
		return nil
	}

	var problems []string
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	return fmt.Errorf("invalid resource properties: %s", strings.Join(problems, "; "))
}
