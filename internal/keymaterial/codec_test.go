package keymaterial_test

import (
	"encoding/base64"
	"encoding/pem"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/cfn-keypair/internal/keymaterial"
	"github.com/systmms/cfn-keypair/pkg/keypair"
	"github.com/systmms/cfn-keypair/tests/testutil"
)

func TestDeriveFromPrivateAllFormatsRSA(t *testing.T) {
	t.Parallel()
	pemBytes := testutil.RSAPrivateKeyPEM(t)

	formats := []keypair.PublicKeyFormat{
		keypair.FormatOpenSSH,
		keypair.FormatSSH,
		keypair.FormatPEM,
		keypair.FormatPKCS1,
		keypair.FormatPKCS8,
		keypair.FormatRAW,
		keypair.FormatPuTTY,
	}

	for _, format := range formats {
		t.Run(string(format), func(t *testing.T) {
			out, err := keymaterial.DeriveFromPrivate(pemBytes, format, "test-key")
			require.NoError(t, err)
			assert.NotEmpty(t, out)
		})
	}
}

func TestDeriveFromPrivateAllFormatsEd25519(t *testing.T) {
	t.Parallel()
	pemBytes := testutil.Ed25519PrivateKeyPEM(t)

	formats := []keypair.PublicKeyFormat{
		keypair.FormatOpenSSH,
		keypair.FormatSSH,
		keypair.FormatPEM,
		keypair.FormatPKCS8,
		keypair.FormatRAW,
		keypair.FormatPuTTY,
	}

	for _, format := range formats {
		t.Run(string(format), func(t *testing.T) {
			out, err := keymaterial.DeriveFromPrivate(pemBytes, format, "test-key")
			require.NoError(t, err)
			assert.NotEmpty(t, out)
		})
	}
}

func TestEncodePKCS1RejectsEd25519(t *testing.T) {
	t.Parallel()

	_, err := keymaterial.DeriveFromPrivate(testutil.Ed25519PrivateKeyPEM(t), keypair.FormatPKCS1, "")
	require.Error(t, err)

	var ufe keypair.UnsupportedFormatError
	assert.True(t, errors.As(err, &ufe))
}

func TestEncodeRAWIsValidBase64(t *testing.T) {
	t.Parallel()

	out, err := keymaterial.DeriveFromPrivate(testutil.RSAPrivateKeyPEM(t), keypair.FormatRAW, "")
	require.NoError(t, err)

	blob, err := base64.StdEncoding.DecodeString(out)
	require.NoError(t, err)
	assert.NotEmpty(t, blob)
}

func TestEncodeOpenSSHCarriesComment(t *testing.T) {
	t.Parallel()

	out, err := keymaterial.DeriveFromPrivate(testutil.RSAPrivateKeyPEM(t), keypair.FormatOpenSSH, "my-key")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "ssh-rsa "))
	assert.True(t, strings.HasSuffix(out, " my-key"))
	assert.NotContains(t, out, "\n")
}

func TestEncodePEMIsParseable(t *testing.T) {
	t.Parallel()

	out, err := keymaterial.DeriveFromPrivate(testutil.RSAPrivateKeyPEM(t), keypair.FormatPEM, "")
	require.NoError(t, err)

	block, rest := pem.Decode([]byte(out))
	require.NotNil(t, block)
	assert.Equal(t, "PUBLIC KEY", block.Type)
	assert.Empty(t, rest)
}

func TestEncodePKCS1PEMType(t *testing.T) {
	t.Parallel()

	out, err := keymaterial.DeriveFromPrivate(testutil.RSAPrivateKeyPEM(t), keypair.FormatPKCS1, "")
	require.NoError(t, err)

	block, _ := pem.Decode([]byte(out))
	require.NotNil(t, block)
	assert.Equal(t, "RSA PUBLIC KEY", block.Type)
}

func TestEncodeRFC4716Armor(t *testing.T) {
	t.Parallel()

	out, err := keymaterial.DeriveFromPrivate(testutil.RSAPrivateKeyPEM(t), keypair.FormatSSH, "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "---- BEGIN SSH2 PUBLIC KEY ----\n"))
	assert.True(t, strings.HasSuffix(out, "---- END SSH2 PUBLIC KEY ----\n"))
	assert.NotContains(t, out, "Comment:")

	putty, err := keymaterial.DeriveFromPrivate(testutil.RSAPrivateKeyPEM(t), keypair.FormatPuTTY, "my-key")
	require.NoError(t, err)
	assert.Contains(t, putty, "Comment: \"my-key\"")
}

func TestConvertPublicKeyRoundTrip(t *testing.T) {
	t.Parallel()

	pemBytes := testutil.RSAPrivateKeyPEM(t)
	line := testutil.AuthorizedKeyLine(t, pemBytes)

	// Converting the imported line must agree with deriving from the private
	// key for every shared format.
	for _, format := range []keypair.PublicKeyFormat{
		keypair.FormatOpenSSH, keypair.FormatPEM, keypair.FormatRAW,
	} {
		fromLine, err := keymaterial.ConvertPublicKey(line, format, "")
		require.NoError(t, err)

		fromPriv, err := keymaterial.DeriveFromPrivate(pemBytes, format, "")
		require.NoError(t, err)

		assert.Equal(t, fromPriv, fromLine, "format %s", format)
	}
}

func TestConvertPublicKeyRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := keymaterial.ConvertPublicKey("not a public key", keypair.FormatOpenSSH, "")
	assert.Error(t, err)
}

func TestPublicKeyFromPrivateRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := keymaterial.PublicKeyFromPrivate([]byte("garbage"))
	assert.Error(t, err)
}
