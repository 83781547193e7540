package localsigner

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"fmt"
	"github.com/go-errors/errors"
	issuercommon "github.com/minvws/eudcc-decoder/issuer/common"
	"github.com/veraison/go-cose"
)

// LocalSigner doesn't do much sanity checking, as it isn't going to be used in production
type LocalSigner struct {
	usageKeys map[string]*localKey
}

type Configuration struct {
	KeyDescriptions []*KeyDescription
}

type KeyDescription struct {
	KeyUsage        string
	CertificatePath string
	KeyPath         string
}

type localKey struct {
	kid    []byte
	signer cose.Signer
}

func New(config *Configuration) (*LocalSigner, error) {
	usageKeys := map[string]*localKey{}
	for _, kd := range config.KeyDescriptions {
		cert, kid, err := issuercommon.LoadDSCCertificateFile(kd.CertificatePath)
		if err != nil {
			msg := fmt.Sprintf("Could not load certificate file '%s'", kd.CertificatePath)
			return nil, errors.WrapPrefix(err, msg, 0)
		}

		key, err := issuercommon.LoadECKeyFile(kd.KeyPath)
		if err != nil {
			msg := fmt.Sprintf("Could not load key file '%s'", kd.KeyPath)
			return nil, errors.WrapPrefix(err, msg, 0)
		}

		ecKey, ok := key.(*ecdsa.PrivateKey)
		if !ok {
			return nil, errors.Errorf("Unsupported key type for '%s'", kd.KeyPath)
		}

		if !ecKey.PublicKey.Equal(cert.PublicKey) {
			return nil, errors.Errorf("Key '%s' doesn't match certificate '%s'", kd.KeyPath, kd.CertificatePath)
		}

		alg, err := algorithmForCurve(ecKey.Curve)
		if err != nil {
			return nil, err
		}

		signer, err := cose.NewSigner(alg, ecKey)
		if err != nil {
			return nil, errors.WrapPrefix(err, "Could not create COSE signer", 0)
		}

		usageKeys[kd.KeyUsage] = &localKey{
			kid:    kid,
			signer: signer,
		}
	}

	return &LocalSigner{
		usageKeys: usageKeys,
	}, nil
}

func (ls *LocalSigner) GetKID(keyUsage string) ([]byte, error) {
	key, ok := ls.usageKeys[keyUsage]
	if !ok {
		return nil, errors.Errorf("Could not find key for KID for usage %s", keyUsage)
	}

	return key.kid, nil
}

func (ls *LocalSigner) GetSigner(keyUsage string) (cose.Signer, error) {
	key, ok := ls.usageKeys[keyUsage]
	if !ok {
		return nil, errors.Errorf("Could not find key for signing for usage %s", keyUsage)
	}

	return key.signer, nil
}

func algorithmForCurve(curve elliptic.Curve) (cose.Algorithm, error) {
	switch curve {
	case elliptic.P256():
		return cose.AlgorithmES256, nil
	case elliptic.P384():
		return cose.AlgorithmES384, nil
	case elliptic.P521():
		return cose.AlgorithmES512, nil
	}

	return 0, errors.Errorf("Unsupported curve %s", curve.Params().Name)
}
