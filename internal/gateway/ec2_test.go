package gateway_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/cfn-keypair/internal/gateway"
	"github.com/systmms/cfn-keypair/internal/logging"
	"github.com/systmms/cfn-keypair/pkg/keypair"
	"github.com/systmms/cfn-keypair/tests/fakes"
	"github.com/systmms/cfn-keypair/tests/testutil"
)

func newKeyPairGateway(fake *fakes.EC2Client) *gateway.KeyPairGateway {
	return gateway.NewKeyPairGateway(aws.Config{}, logging.New(false, true), gateway.WithEC2Client(fake))
}

func TestCreateOrImportGeneratesKeyPair(t *testing.T) {
	t.Parallel()

	fake := fakes.NewEC2Client()
	fake.KeyMaterial = string(testutil.RSAPrivateKeyPEM(t))
	gw := newKeyPairGateway(fake)

	info, err := gw.CreateOrImport(context.Background(), "a-key", keypair.KeyTypeRSA, "", map[string]string{"env": "dev"})
	require.NoError(t, err)

	assert.Equal(t, "a-key", info.Name)
	assert.NotEmpty(t, info.ID)
	assert.NotEmpty(t, info.Fingerprint)
	require.NotNil(t, info.PrivateKeyMaterial)

	err = info.PrivateKeyMaterial.WithBytes(func(b []byte) error {
		assert.Equal(t, fake.KeyMaterial, string(b))
		return nil
	})
	require.NoError(t, err)

	// Tags must ride along on the create call itself.
	assert.Equal(t, 1, fake.Calls("CreateKeyPair"))
	assert.Zero(t, fake.Calls("CreateTags"))
	assert.Equal(t, "dev", fake.KeyPairs["a-key"].Tags["env"])
}

func TestCreateOrImportImportsPublicKey(t *testing.T) {
	t.Parallel()

	line := testutil.AuthorizedKeyLine(t, testutil.RSAPrivateKeyPEM(t))
	fake := fakes.NewEC2Client()
	gw := newKeyPairGateway(fake)

	info, err := gw.CreateOrImport(context.Background(), "imported", keypair.KeyTypeRSA, line, nil)
	require.NoError(t, err)

	assert.Nil(t, info.PrivateKeyMaterial, "imported key pairs have no recoverable private key")
	assert.Equal(t, 1, fake.Calls("ImportKeyPair"))
	assert.Zero(t, fake.Calls("CreateKeyPair"))
	assert.Equal(t, line, fake.KeyPairs["imported"].PublicKey)
}

func TestDescribeNotFound(t *testing.T) {
	t.Parallel()

	gw := newKeyPairGateway(fakes.NewEC2Client())

	_, err := gw.Describe(context.Background(), "missing")
	require.Error(t, err)

	var nf keypair.NotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestExistsTreatsNotFoundAsFalse(t *testing.T) {
	t.Parallel()

	fake := fakes.NewEC2Client()
	fake.KeyMaterial = string(testutil.RSAPrivateKeyPEM(t))
	gw := newKeyPairGateway(fake)

	ok, err := gw.Exists(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = gw.CreateOrImport(context.Background(), "present", keypair.KeyTypeRSA, "", nil)
	require.NoError(t, err)

	ok, err = gw.Exists(context.Background(), "present")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDeleteIsIdempotent(t *testing.T) {
	t.Parallel()

	fake := fakes.NewEC2Client()
	gw := newKeyPairGateway(fake)

	require.NoError(t, gw.Delete(context.Background(), "never-existed"))
	assert.Equal(t, 1, fake.Calls("DeleteKeyPair"))
}

func TestTagOpsSkipEmptySets(t *testing.T) {
	t.Parallel()

	fake := fakes.NewEC2Client()
	gw := newKeyPairGateway(fake)

	require.NoError(t, gw.AddTags(context.Background(), "key-1", nil))
	require.NoError(t, gw.RemoveTags(context.Background(), "key-1", nil))

	assert.Zero(t, fake.Calls("CreateTags"))
	assert.Zero(t, fake.Calls("DeleteTags"))
}

func TestAddAndRemoveTags(t *testing.T) {
	t.Parallel()

	fake := fakes.NewEC2Client()
	fake.KeyMaterial = string(testutil.RSAPrivateKeyPEM(t))
	gw := newKeyPairGateway(fake)

	info, err := gw.CreateOrImport(context.Background(), "a-key", keypair.KeyTypeRSA, "", map[string]string{"env": "dev", "owner": "alice"})
	require.NoError(t, err)

	require.NoError(t, gw.AddTags(context.Background(), info.ID, map[string]string{"env": "prod"}))
	require.NoError(t, gw.RemoveTags(context.Background(), info.ID, []string{"owner"}))

	assert.Equal(t, map[string]string{"env": "prod"}, fake.KeyPairs["a-key"].Tags)
}

func TestCreateOrImportPropagatesAPIError(t *testing.T) {
	t.Parallel()

	fake := fakes.NewEC2Client()
	fake.Errors["CreateKeyPair"] = errors.New("RequestLimitExceeded")
	gw := newKeyPairGateway(fake)

	_, err := gw.CreateOrImport(context.Background(), "a-key", keypair.KeyTypeRSA, "", nil)
	assert.ErrorContains(t, err, "RequestLimitExceeded")
}
