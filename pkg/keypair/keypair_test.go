package keypair_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/cfn-keypair/pkg/keypair"
	"github.com/systmms/cfn-keypair/tests/testutil"
)

func validBag() map[string]interface{} {
	return map[string]interface{}{
		"ServiceToken":    "arn:aws:lambda:us-east-1:123456789012:function:cfn-keypair",
		"Name":            "a-key",
		"KeyType":         "rsa",
		"PublicKeyFormat": "PEM",
		"StorePublicKey":  "true",
		"ExposePublicKey": "true",
		"Tags":            map[string]interface{}{"env": "dev"},
	}
}

func TestParseHappyPath(t *testing.T) {
	t.Parallel()

	p, err := keypair.Parse(validBag())
	require.NoError(t, err)

	assert.Equal(t, "a-key", p.Name)
	assert.Equal(t, keypair.KeyTypeRSA, p.KeyType)
	assert.Equal(t, keypair.FormatPEM, p.PublicKeyFormat)
	assert.True(t, p.StorePublicKey)
	assert.True(t, p.ExposePublicKey)
	assert.False(t, p.IsImported())
	assert.Equal(t, map[string]string{"env": "dev"}, p.Tags)
	assert.Equal(t, "ec2-ssh-key/a-key/private", p.PrivateKeySecretName())
	assert.Equal(t, "ec2-ssh-key/a-key/public", p.PublicKeySecretName())
}

func TestParseDefaults(t *testing.T) {
	t.Parallel()

	p, err := keypair.Parse(map[string]interface{}{"Name": "k"})
	require.NoError(t, err)

	assert.Equal(t, keypair.KeyTypeRSA, p.KeyType)
	assert.Equal(t, keypair.FormatOpenSSH, p.PublicKeyFormat)
	assert.False(t, p.StorePublicKey)
	assert.False(t, p.ExposePublicKey)
	assert.Equal(t, keypair.DefaultSecretPrefix, p.SecretPrefix)
	assert.Zero(t, p.RemoveSecretsDays)
	assert.Empty(t, p.Tags)
}

func TestParseRequiresName(t *testing.T) {
	t.Parallel()

	_, err := keypair.Parse(map[string]interface{}{"KeyType": "rsa"})
	assert.Error(t, err)
}

func TestParseStringBooleans(t *testing.T) {
	t.Parallel()

	bag := validBag()
	bag["StorePublicKey"] = "false"
	bag["ExposePublicKey"] = "true"

	p, err := keypair.Parse(bag)
	require.NoError(t, err)
	assert.False(t, p.StorePublicKey)
	assert.True(t, p.ExposePublicKey)

	bag["StorePublicKey"] = "yes"
	_, err = keypair.Parse(bag)
	assert.Error(t, err)
}

func TestParseRetentionWindow(t *testing.T) {
	t.Parallel()

	cases := []struct {
		value string
		ok    bool
	}{
		{"0", true},
		{"7", true},
		{"30", true},
		{"", true},
		{"3", false},
		{"31", false},
		{"-1", false},
		{"week", false},
	}

	for _, tc := range cases {
		bag := validBag()
		bag["RemoveKeySecretsAfterDays"] = tc.value

		_, err := keypair.Parse(bag)
		if tc.ok {
			assert.NoError(t, err, "value %q", tc.value)
		} else {
			assert.Error(t, err, "value %q", tc.value)
		}
	}
}

func TestParseRejectsEd25519PKCS1(t *testing.T) {
	t.Parallel()

	bag := validBag()
	bag["KeyType"] = "ed25519"
	bag["PublicKeyFormat"] = "PKCS1"

	_, err := keypair.Parse(bag)
	require.Error(t, err)

	var ufe keypair.UnsupportedFormatError
	assert.True(t, errors.As(err, &ufe))
}

func TestParseRejectsUnknownFormat(t *testing.T) {
	t.Parallel()

	bag := validBag()
	bag["PublicKeyFormat"] = "XML"

	_, err := keypair.Parse(bag)
	require.Error(t, err)

	var ufe keypair.UnsupportedFormatError
	assert.True(t, errors.As(err, &ufe))
}

func TestParseImportedPublicKey(t *testing.T) {
	t.Parallel()

	line := testutil.AuthorizedKeyLine(t, testutil.RSAPrivateKeyPEM(t))
	bag := validBag()
	bag["PublicKey"] = line

	p, err := keypair.Parse(bag)
	require.NoError(t, err)
	assert.True(t, p.IsImported())
	assert.Equal(t, line, p.ImportedPublicKey)
}

func TestParseImportedPublicKeyMustBeOpenSSH(t *testing.T) {
	t.Parallel()

	bag := validBag()
	bag["PublicKey"] = "-----BEGIN PUBLIC KEY-----\nAAAA\n-----END PUBLIC KEY-----"

	_, err := keypair.Parse(bag)
	assert.Error(t, err)
}

func TestParseSchemaRejectsWrongTypes(t *testing.T) {
	t.Parallel()

	bag := validBag()
	bag["Tags"] = "env=dev"

	_, err := keypair.Parse(bag)
	assert.Error(t, err)
}

func TestErrorMessages(t *testing.T) {
	t.Parallel()

	assert.Contains(t, keypair.ImmutableFieldError{Field: "Name"}.Error(), "Name")
	assert.Contains(t, keypair.NotFoundError{Resource: "key pair", Name: "k"}.Error(), "key pair not found: k")
	assert.Contains(t, keypair.UnsupportedFormatError{Format: "PKCS1", KeyType: "ssh-ed25519"}.Error(), "PKCS1")
}
