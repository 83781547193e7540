package issuer

import (
	"crypto/rand"
	"github.com/go-errors/errors"
	"github.com/minvws/eudcc-decoder/common"
	"github.com/veraison/go-cose"
)

const (
	KEY_USAGE_VACCINATION = "vaccination"
	KEY_USAGE_TEST        = "test"
	KEY_USAGE_RECOVERY    = "recovery"
)

type Signer interface {
	GetKID(keyUsage string) ([]byte, error)
	GetSigner(keyUsage string) (cose.Signer, error)
}

type Issuer struct {
	signer Signer
}

type IssueSpecification struct {
	// KeyUsage is derived from the DCC when left empty
	KeyUsage string

	Issuer         string
	IssuedAt       int64
	ExpirationTime int64

	DCC *common.Certificate
}

func New(signer Signer) *Issuer {
	return &Issuer{
		signer: signer,
	}
}

// Issue serializes and signs the certificate, returning a tagged COSE_Sign1 structure
func (iss *Issuer) Issue(spec *IssueSpecification) ([]byte, error) {
	if spec.DCC == nil {
		return nil, errors.Errorf("Refusing to sign empty DCC")
	}

	keyUsage := spec.KeyUsage
	if keyUsage == "" {
		keyUsage = KeyUsageFor(spec.DCC)
	}

	kid, err := iss.signer.GetKID(keyUsage)
	if err != nil {
		return nil, errors.WrapPrefix(err, "Could not get KID", 0)
	}

	signer, err := iss.signer.GetSigner(keyUsage)
	if err != nil {
		return nil, errors.WrapPrefix(err, "Could not get signer", 0)
	}

	payloadCbor, err := common.MarshalClaims(&common.Claims{
		Issuer:         spec.Issuer,
		IssuedAt:       spec.IssuedAt,
		ExpirationTime: spec.ExpirationTime,
		SchemaVersion:  common.SCHEMA_EUDCC_V1,
		Certificate:    spec.DCC,
	})
	if err != nil {
		return nil, err
	}

	msg := cose.NewSign1Message()
	msg.Headers.Protected[cose.HeaderLabelAlgorithm] = signer.Algorithm()
	msg.Headers.Protected[cose.HeaderLabelKeyID] = kid
	msg.Payload = payloadCbor

	err = msg.Sign(rand.Reader, nil, signer)
	if err != nil {
		return nil, errors.WrapPrefix(err, "Could not sign CWT", 0)
	}

	signedCbor, err := msg.MarshalCBOR()
	if err != nil {
		return nil, errors.WrapPrefix(err, "Could not CBOR serialize signed CWT", 0)
	}

	return signedCbor, nil
}

func (iss *Issuer) IssueQREncoded(spec *IssueSpecification) (string, error) {
	signedCbor, err := iss.Issue(spec)
	if err != nil {
		return "", err
	}

	qr, err := common.EncodeQR(signedCbor)
	if err != nil {
		return "", errors.WrapPrefix(err, "Could not QR encode credential", 0)
	}

	return qr, nil
}

// KeyUsageFor picks the key usage from the kind of record the certificate carries
func KeyUsageFor(dcc *common.Certificate) string {
	switch {
	case len(dcc.Tests) > 0:
		return KEY_USAGE_TEST
	case len(dcc.Recoveries) > 0:
		return KEY_USAGE_RECOVERY
	default:
		return KEY_USAGE_VACCINATION
	}
}
