package keypair

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/ssh"
)

// KeyType enumerates the asymmetric key algorithms EC2 can generate.
type KeyType string

const (
	KeyTypeRSA     KeyType = "rsa"
	KeyTypeED25519 KeyType = "ed25519"
)

// PublicKeyFormat enumerates the encodings a public key can be exposed or
// stored in.
type PublicKeyFormat string

const (
	// FormatOpenSSH is the single-line authorized_keys encoding.
	FormatOpenSSH PublicKeyFormat = "OPENSSH"
	// FormatSSH is the RFC 4716 multi-line encoding.
	FormatSSH PublicKeyFormat = "SSH"
	// FormatPEM is a PEM-wrapped SubjectPublicKeyInfo structure.
	FormatPEM PublicKeyFormat = "PEM"
	// FormatPKCS1 is the PEM-wrapped PKCS#1 structure. RSA only.
	FormatPKCS1 PublicKeyFormat = "PKCS1"
	// FormatPKCS8 is the PEM-wrapped PKCS#8/SPKI structure.
	FormatPKCS8 PublicKeyFormat = "PKCS8"
	// FormatRAW is the SSH wire-format blob, base64 encoded so it can travel
	// inside a CloudFormation attribute value.
	FormatRAW PublicKeyFormat = "RAW"
	// FormatPuTTY is the RFC 4716 encoding with a Comment header, as written
	// by PuTTY's public key export.
	FormatPuTTY PublicKeyFormat = "PUTTY"
)

// DefaultSecretPrefix is prepended to secret names when no prefix is
// configured on the resource.
const DefaultSecretPrefix = "ec2-ssh-key/"

// Properties is the typed form of the resource property bag.
type Properties struct {
	Name              string
	KeyType           KeyType
	PublicKeyFormat   PublicKeyFormat
	ImportedPublicKey string
	StorePublicKey    bool
	ExposePublicKey   bool
	SecretPrefix      string
	Description       string
	KmsPrivateKey     string
	KmsPublicKey      string
	RemoveSecretsDays int
	Tags              map[string]string
}

// IsImported reports whether the resource imports an externally supplied
// public key. Imported key pairs never materialize a private key secret.
func (p *Properties) IsImported() bool {
	return p.ImportedPublicKey != ""
}

// PrivateKeySecretName returns the Secrets Manager name for the private key.
func (p *Properties) PrivateKeySecretName() string {
	return p.SecretPrefix + p.Name + "/private"
}

// PublicKeySecretName returns the Secrets Manager name for the public key.
func (p *Properties) PublicKeySecretName() string {
	return p.SecretPrefix + p.Name + "/public"
}

// Parse converts the raw CloudFormation property bag into Properties,
// validating every field at the boundary. The bag is first checked against
// the embedded JSON schema, then coerced field by field.
func Parse(raw map[string]interface{}) (*Properties, error) {
	if err := validateSchema(raw); err != nil {
		return nil, err
	}

	p := &Properties{
		Name:              stringProp(raw, "Name"),
		ImportedPublicKey: strings.TrimSpace(stringProp(raw, "PublicKey")),
		SecretPrefix:      stringProp(raw, "SecretPrefix"),
		Description:       stringProp(raw, "Description"),
		KmsPrivateKey:     stringProp(raw, "KmsPrivate"),
		KmsPublicKey:      stringProp(raw, "KmsPublic"),
	}

	if p.Name == "" {
		return nil, fmt.Errorf("property Name is required")
	}
	if p.SecretPrefix == "" {
		p.SecretPrefix = DefaultSecretPrefix
	}

	keyType, err := parseKeyType(stringProp(raw, "KeyType"))
	if err != nil {
		return nil, err
	}
	p.KeyType = keyType

	format, err := parseFormat(stringProp(raw, "PublicKeyFormat"))
	if err != nil {
		return nil, err
	}
	p.PublicKeyFormat = format

	// PKCS#1 has no definition for Ed25519 keys. Rejecting here keeps the
	// invalid combination from ever reaching a remote API.
	if p.KeyType == KeyTypeED25519 && p.PublicKeyFormat == FormatPKCS1 {
		return nil, UnsupportedFormatError{Format: string(p.PublicKeyFormat), KeyType: string(p.KeyType)}
	}

	if p.StorePublicKey, err = boolProp(raw, "StorePublicKey"); err != nil {
		return nil, err
	}
	if p.ExposePublicKey, err = boolProp(raw, "ExposePublicKey"); err != nil {
		return nil, err
	}

	if p.RemoveSecretsDays, err = intProp(raw, "RemoveKeySecretsAfterDays"); err != nil {
		return nil, err
	}
	if p.RemoveSecretsDays != 0 && (p.RemoveSecretsDays < 7 || p.RemoveSecretsDays > 30) {
		return nil, fmt.Errorf("property RemoveKeySecretsAfterDays must be 0 or between 7 and 30, got %d", p.RemoveSecretsDays)
	}

	if p.ImportedPublicKey != "" {
		if _, _, _, _, err := ssh.ParseAuthorizedKey([]byte(p.ImportedPublicKey)); err != nil {
			return nil, fmt.Errorf("property PublicKey must be a plain OpenSSH public key: %w", err)
		}
	}

	p.Tags = tagsProp(raw, "Tags")

	return p, nil
}

func parseKeyType(s string) (KeyType, error) {
	switch strings.ToLower(s) {
	case "", "rsa":
		return KeyTypeRSA, nil
	case "ed25519":
		return KeyTypeED25519, nil
	default:
		return "", fmt.Errorf("property KeyType must be rsa or ed25519, got %q", s)
	}
}

func parseFormat(s string) (PublicKeyFormat, error) {
	switch strings.ToUpper(s) {
	case "", "OPENSSH":
		return FormatOpenSSH, nil
	case "SSH":
		return FormatSSH, nil
	case "PEM":
		return FormatPEM, nil
	case "PKCS1":
		return FormatPKCS1, nil
	case "PKCS8":
		return FormatPKCS8, nil
	case "RAW":
		return FormatRAW, nil
	case "PUTTY":
		return FormatPuTTY, nil
	default:
		return "", UnsupportedFormatError{Format: s}
	}
}

func stringProp(raw map[string]interface{}, key string) string {
	if v, ok := raw[key].(string); ok {
		return v
	}
	return ""
}

func boolProp(raw map[string]interface{}, key string) (bool, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return false, nil
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		switch strings.ToLower(b) {
		case "", "false":
			return false, nil
		case "true":
			return true, nil
		}
	}
	return false, fmt.Errorf("property %s must be \"true\" or \"false\", got %v", key, v)
}

func intProp(raw map[string]interface{}, key string) (int, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return 0, nil
	}
	switch n := v.(type) {
	case string:
		if n == "" {
			return 0, nil
		}
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, fmt.Errorf("property %s must be an integer, got %q", key, n)
		}
		return i, nil
	case float64:
		return int(n), nil
	}
	return 0, fmt.Errorf("property %s must be an integer, got %v", key, v)
}

func tagsProp(raw map[string]interface{}, key string) map[string]string {
	tags := make(map[string]string)
	m, ok := raw[key].(map[string]interface{})
	if !ok {
		return tags
	}
	for k, v := range m {
		if s, ok := v.(string); ok {
			tags[k] = s
		}
	}
	return tags
}
