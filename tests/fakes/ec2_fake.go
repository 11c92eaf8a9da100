package fakes

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/smithy-go"
)

// KeyPairRecord is the state the fake keeps per key pair.
type KeyPairRecord struct {
	Name        string
	ID          string
	Fingerprint string
	PublicKey   string
	Tags        map[string]string
}

// EC2Client is an in-memory implementation of the gateway's EC2API.
type EC2Client struct {
	// KeyPairs maps key pair name to its record.
	KeyPairs map[string]*KeyPairRecord
	// KeyMaterial is returned verbatim by CreateKeyPair. Tests inject PEM
	// generated via testutil so the codec sees realistic material.
	KeyMaterial string
	// Errors maps an operation name ("CreateKeyPair", ...) to an error the
	// fake returns for that operation.
	Errors map[string]error

	calls  map[string]int
	nextID int
}

// NewEC2Client creates an empty fake EC2 client.
func NewEC2Client() *EC2Client {
	return &EC2Client{
		KeyPairs: make(map[string]*KeyPairRecord),
		Errors:   make(map[string]error),
		calls:    make(map[string]int),
	}
}

// Calls returns how many times the named operation was invoked.
func (f *EC2Client) Calls(op string) int { return f.calls[op] }

// MutatingCalls sums the calls that change remote state.
func (f *EC2Client) MutatingCalls() int {
	return f.calls["CreateKeyPair"] + f.calls["ImportKeyPair"] +
		f.calls["CreateTags"] + f.calls["DeleteTags"] + f.calls["DeleteKeyPair"]
}

func (f *EC2Client) record(op string) error {
	f.calls[op]++
	return f.Errors[op]
}

func (f *EC2Client) newID() string {
	f.nextID++
	return fmt.Sprintf("key-%08d", f.nextID)
}

func ec2NotFound(name string) error {
	return &smithy.GenericAPIError{
		Code:    "InvalidKeyPair.NotFound",
		Message: "The key pair '" + name + "' does not exist",
	}
}

// CreateKeyPair implements EC2API.
func (f *EC2Client) CreateKeyPair(_ context.Context, params *ec2.CreateKeyPairInput, _ ...func(*ec2.Options)) (*ec2.CreateKeyPairOutput, error) {
	if err := f.record("CreateKeyPair"); err != nil {
		return nil, err
	}
	name := aws.ToString(params.KeyName)
	rec := &KeyPairRecord{
		Name:        name,
		ID:          f.newID(),
		Fingerprint: "SHA256:fake-fingerprint-" + name,
		Tags:        tagsFromSpecs(params.TagSpecifications),
	}
	f.KeyPairs[name] = rec
	return &ec2.CreateKeyPairOutput{
		KeyName:        aws.String(rec.Name),
		KeyPairId:      aws.String(rec.ID),
		KeyFingerprint: aws.String(rec.Fingerprint),
		KeyMaterial:    aws.String(f.KeyMaterial),
	}, nil
}

// ImportKeyPair implements EC2API.
func (f *EC2Client) ImportKeyPair(_ context.Context, params *ec2.ImportKeyPairInput, _ ...func(*ec2.Options)) (*ec2.ImportKeyPairOutput, error) {
	if err := f.record("ImportKeyPair"); err != nil {
		return nil, err
	}
	name := aws.ToString(params.KeyName)
	rec := &KeyPairRecord{
		Name:        name,
		ID:          f.newID(),
		Fingerprint: "MD5:fake-import-fingerprint-" + name,
		PublicKey:   string(params.PublicKeyMaterial),
		Tags:        tagsFromSpecs(params.TagSpecifications),
	}
	f.KeyPairs[name] = rec
	return &ec2.ImportKeyPairOutput{
		KeyName:        aws.String(rec.Name),
		KeyPairId:      aws.String(rec.ID),
		KeyFingerprint: aws.String(rec.Fingerprint),
	}, nil
}

// DescribeKeyPairs implements EC2API.
func (f *EC2Client) DescribeKeyPairs(_ context.Context, params *ec2.DescribeKeyPairsInput, _ ...func(*ec2.Options)) (*ec2.DescribeKeyPairsOutput, error) {
	if err := f.record("DescribeKeyPairs"); err != nil {
		return nil, err
	}
	var infos []ec2types.KeyPairInfo
	for _, name := range params.KeyNames {
		rec, ok := f.KeyPairs[name]
		if !ok {
			return nil, ec2NotFound(name)
		}
		infos = append(infos, ec2types.KeyPairInfo{
			KeyName:        aws.String(rec.Name),
			KeyPairId:      aws.String(rec.ID),
			KeyFingerprint: aws.String(rec.Fingerprint),
		})
	}
	return &ec2.DescribeKeyPairsOutput{KeyPairs: infos}, nil
}

// CreateTags implements EC2API.
func (f *EC2Client) CreateTags(_ context.Context, params *ec2.CreateTagsInput, _ ...func(*ec2.Options)) (*ec2.CreateTagsOutput, error) {
	if err := f.record("CreateTags"); err != nil {
		return nil, err
	}
	for _, id := range params.Resources {
		if rec := f.byID(id); rec != nil {
			for _, tag := range params.Tags {
				rec.Tags[aws.ToString(tag.Key)] = aws.ToString(tag.Value)
			}
		}
	}
	return &ec2.CreateTagsOutput{}, nil
}

// DeleteTags implements EC2API.
func (f *EC2Client) DeleteTags(_ context.Context, params *ec2.DeleteTagsInput, _ ...func(*ec2.Options)) (*ec2.DeleteTagsOutput, error) {
	if err := f.record("DeleteTags"); err != nil {
		return nil, err
	}
	for _, id := range params.Resources {
		if rec := f.byID(id); rec != nil {
			for _, tag := range params.Tags {
				delete(rec.Tags, aws.ToString(tag.Key))
			}
		}
	}
	return &ec2.DeleteTagsOutput{}, nil
}

// DeleteKeyPair implements EC2API.
func (f *EC2Client) DeleteKeyPair(_ context.Context, params *ec2.DeleteKeyPairInput, _ ...func(*ec2.Options)) (*ec2.DeleteKeyPairOutput, error) {
	if err := f.record("DeleteKeyPair"); err != nil {
		return nil, err
	}
	name := aws.ToString(params.KeyName)
	if _, ok := f.KeyPairs[name]; !ok {
		return nil, ec2NotFound(name)
	}
	delete(f.KeyPairs, name)
	return &ec2.DeleteKeyPairOutput{}, nil
}

func (f *EC2Client) byID(id string) *KeyPairRecord {
	for _, rec := range f.KeyPairs {
		if rec.ID == id {
			return rec
		}
	}
	return nil
}

func tagsFromSpecs(specs []ec2types.TagSpecification) map[string]string {
	tags := make(map[string]string)
	for _, spec := range specs {
		for _, tag := range spec.Tags {
			tags[aws.ToString(tag.Key)] = aws.ToString(tag.Value)
		}
	}
	return tags
}
