package pass

import (
	"crypto"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	"go.mozilla.org/pkcs7"
	"software.sslmate.com/src/go-pkcs12"
)

// Signer produces the detached signature stored next to manifest.json.
type Signer interface {
	Sign(manifest []byte) ([]byte, error)
}

// CertificateSigner signs manifests with a pass type certificate and the
// intermediate that issued it.
type CertificateSigner struct {
	cert         *x509.Certificate
	key          crypto.PrivateKey
	intermediate *x509.Certificate
}

func NewCertificateSigner(cert *x509.Certificate, key crypto.PrivateKey, intermediate *x509.Certificate) *CertificateSigner {
	return &CertificateSigner{cert: cert, key: key, intermediate: intermediate}
}

// LoadSigner reads the signer certificate and key from a PKCS#12 bundle and
// the WWDR intermediate from a PEM or DER file.
func LoadSigner(bundlePath, wwdrPath, passphrase string) (*CertificateSigner, error) {
	bundle, err := os.ReadFile(bundlePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read signer bundle: %w", err)
	}
	key, cert, _, err := pkcs12.DecodeChain(bundle, passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to unlock signer bundle: %w", err)
	}

	raw, err := os.ReadFile(wwdrPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read WWDR certificate: %w", err)
	}
	if block, _ := pem.Decode(raw); block != nil {
		raw = block.Bytes
	}
	wwdr, err := x509.ParseCertificate(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse WWDR certificate: %w", err)
	}

	return NewCertificateSigner(cert, key, wwdr), nil
}

func (s *CertificateSigner) Sign(manifest []byte) ([]byte, error) {
	if s.cert == nil || s.key == nil {
		return nil, errors.New("signer certificate not loaded")
	}

	sd, err := pkcs7.NewSignedData(manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to start signature: %w", err)
	}
	sd.SetDigestAlgorithm(pkcs7.OIDDigestAlgorithmSHA256)

	var parents []*x509.Certificate
	if s.intermediate != nil {
		parents = append(parents, s.intermediate)
	}
	if err := sd.AddSignerChain(s.cert, s.key, parents, pkcs7.SignerInfoConfig{}); err != nil {
		return nil, fmt.Errorf("failed to sign manifest: %w", err)
	}
	sd.Detach()

	signature, err := sd.Finish()
	if err != nil {
		return nil, fmt.Errorf("failed to encode signature: %w", err)
	}
	return signature, nil
}
