package common

import (
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"github.com/go-errors/errors"
	"os"
)

func LoadDSCCertificateFile(certificatePath string) (cert *x509.Certificate, kid []byte, err error) {
	pemCertBytes, err := os.ReadFile(certificatePath)
	if err != nil {
		return nil, nil, errors.WrapPrefix(err, "Could not read certificate file", 0)
	}

	return ParseDSCCertificate(pemCertBytes)
}

func ParseDSCCertificate(pemCertBytes []byte) (cert *x509.Certificate, kid []byte, err error) {
	pemCertBlock, _ := pem.Decode(pemCertBytes)
	if pemCertBlock == nil || pemCertBlock.Type != "CERTIFICATE" {
		return nil, nil, errors.Errorf("Could not parse PEM as certificate")
	}

	cert, err = x509.ParseCertificate(pemCertBlock.Bytes)
	if err != nil {
		return nil, nil, errors.WrapPrefix(err, "Could not parse certificate inside PEM", 0)
	}

	return cert, CalculateKID(pemCertBlock.Bytes), nil
}

// CalculateKID returns the first 8 bytes of the SHA-256 hash of the DER certificate
func CalculateKID(certDER []byte) []byte {
	certSum := sha256.Sum256(certDER)
	return certSum[0:8]
}

func LoadECKeyFile(keyPath string) (key interface{}, err error) {
	pemKeyBytes, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, errors.WrapPrefix(err, "Could not read key file", 0)
	}

	pemKeyBlock, _ := pem.Decode(pemKeyBytes)
	if pemKeyBlock == nil {
		return nil, errors.Errorf("Could not parse PEM as key")
	}

	switch pemKeyBlock.Type {
	case "EC PRIVATE KEY":
		key, err = x509.ParseECPrivateKey(pemKeyBlock.Bytes)
	case "PRIVATE KEY":
		key, err = x509.ParsePKCS8PrivateKey(pemKeyBlock.Bytes)
	default:
		return nil, errors.Errorf("Could not parse PEM of type %s as EC key", pemKeyBlock.Type)
	}
	if err != nil {
		return nil, errors.WrapPrefix(err, "Could not parse key inside PEM", 0)
	}

	return key, nil
}
