// Package keymaterial converts private key material into public key
// representations. It is pure logic: the only inputs are PEM blobs handed
// back by EC2 (PKCS#1 for RSA, OpenSSH format for Ed25519) or authorized_keys
// lines supplied for imported key pairs, and the only outputs are strings in
// one of the supported encodings.
package keymaterial

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"strings"

	"golang.org/x/crypto/ssh"

	"github.com/systmms/cfn-keypair/pkg/keypair"
)

// PublicKeyFromPrivate derives the SSH public key from PEM-encoded private
// key material. Both the classic PEM encodings and the OpenSSH private key
// format are understood.
func PublicKeyFromPrivate(pemBytes []byte) (ssh.PublicKey, error) {
	priv, err := ssh.ParseRawPrivateKey(pemBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key material: %w", err)
	}
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		return nil, fmt.Errorf("failed to derive public key: %w", err)
	}
	return signer.PublicKey(), nil
}

// ParsePublicKey parses a plain OpenSSH (authorized_keys) public key line.
func ParsePublicKey(line string) (ssh.PublicKey, error) {
	pub, _, _, _, err := ssh.ParseAuthorizedKey([]byte(line))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OpenSSH public key: %w", err)
	}
	return pub, nil
}

// Encode renders pub in the requested format. The comment is included where
// the format has a place for one (OpenSSH trailer, PuTTY Comment header).
//
// RAW is the SSH wire-format blob base64-encoded, because the CloudFormation
// response transport cannot carry raw binary.
func Encode(pub ssh.PublicKey, format keypair.PublicKeyFormat, comment string) (string, error) {
	switch format {
	case keypair.FormatOpenSSH:
		line := strings.TrimSpace(string(ssh.MarshalAuthorizedKey(pub)))
		if comment != "" {
			line += " " + comment
		}
		return line, nil

	case keypair.FormatSSH:
		return encodeRFC4716(pub, ""), nil

	case keypair.FormatPuTTY:
		// PuTTY's public key export is RFC 4716 with a Comment header.
		if comment == "" {
			comment = "imported-openssh-key"
		}
		return encodeRFC4716(pub, comment), nil

	case keypair.FormatRAW:
		return base64.StdEncoding.EncodeToString(pub.Marshal()), nil

	case keypair.FormatPEM, keypair.FormatPKCS8:
		der, err := x509.MarshalPKIXPublicKey(cryptoPublicKey(pub))
		if err != nil {
			return "", fmt.Errorf("failed to marshal public key: %w", err)
		}
		return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})), nil

	case keypair.FormatPKCS1:
		rsaPub, ok := cryptoPublicKey(pub).(*rsa.PublicKey)
		if !ok {
			return "", keypair.UnsupportedFormatError{Format: string(format), KeyType: pub.Type()}
		}
		der := x509.MarshalPKCS1PublicKey(rsaPub)
		return string(pem.EncodeToMemory(&pem.Block{Type: "RSA PUBLIC KEY", Bytes: der})), nil

	default:
		return "", keypair.UnsupportedFormatError{Format: string(format)}
	}
}

// DeriveFromPrivate is the common parse-then-encode path for generated key
// pairs.
func DeriveFromPrivate(pemBytes []byte, format keypair.PublicKeyFormat, comment string) (string, error) {
	pub, err := PublicKeyFromPrivate(pemBytes)
	if err != nil {
		return "", err
	}
	return Encode(pub, format, comment)
}

// ConvertPublicKey re-encodes an authorized_keys line into the requested
// format. Used for imported key pairs, where no private key ever exists.
func ConvertPublicKey(line string, format keypair.PublicKeyFormat, comment string) (string, error) {
	pub, err := ParsePublicKey(line)
	if err != nil {
		return "", err
	}
	return Encode(pub, format, comment)
}

func cryptoPublicKey(pub ssh.PublicKey) interface{} {
	if ck, ok := pub.(ssh.CryptoPublicKey); ok {
		return ck.CryptoPublicKey()
	}
	return nil
}

// encodeRFC4716 wraps the wire blob in the RFC 4716 armor, with an optional
// Comment header and the body folded at 64 columns.
func encodeRFC4716(pub ssh.PublicKey, comment string) string {
	var b strings.Builder
	b.WriteString("---- BEGIN SSH2 PUBLIC KEY ----\n")
	if comment != "" {
		fmt.Fprintf(&b, "Comment: %q\n", comment)
	}
	body := base64.StdEncoding.EncodeToString(pub.Marshal())
	for len(body) > 64 {
		b.WriteString(body[:64])
		b.WriteByte('\n')
		body = body[64:]
	}
	b.WriteString(body)
	b.WriteString("\n---- END SSH2 PUBLIC KEY ----\n")
	return b.String()
}
