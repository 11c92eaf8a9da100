// Package testutil provides helpers shared by package tests: key material
// generation in the same encodings EC2 hands back, and small assertion
// utilities.
package testutil

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"strings"
	"testing"

	"golang.org/x/crypto/ssh"
)

// RSAPrivateKeyPEM generates an RSA key and encodes it exactly like EC2
// CreateKeyPair does for rsa key pairs: PKCS#1 in a PEM block.
func RSAPrivateKeyPEM(t *testing.T) []byte {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate RSA key: %v", err)
	}
	return pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
}

// Ed25519PrivateKeyPEM generates an Ed25519 key and encodes it like EC2 does
// for ed25519 key pairs: OpenSSH private key format.
func Ed25519PrivateKeyPEM(t *testing.T) []byte {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate Ed25519 key: %v", err)
	}
	block, err := ssh.MarshalPrivateKey(priv, "")
	if err != nil {
		t.Fatalf("failed to marshal Ed25519 key: %v", err)
	}
	return pem.EncodeToMemory(block)
}

// AuthorizedKeyLine derives the single-line OpenSSH public key from PEM
// private key material.
func AuthorizedKeyLine(t *testing.T, pemBytes []byte) string {
	t.Helper()
	priv, err := ssh.ParseRawPrivateKey(pemBytes)
	if err != nil {
		t.Fatalf("failed to parse private key: %v", err)
	}
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		t.Fatalf("failed to build signer: %v", err)
	}
	return strings.TrimSpace(string(ssh.MarshalAuthorizedKey(signer.PublicKey())))
}
