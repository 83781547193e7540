package holder

import (
	"github.com/minvws/eudcc-decoder/common"
)

// Holder reads QR encoded health certificates without verifying their signature
type Holder struct {
}

func New() *Holder {
	return &Holder{}
}

// Decode reads the certificate from a scanned QR string
func Decode(qr string) (*common.Certificate, error) {
	hcert, err := New().ReadQREncoded(qr)
	if err != nil {
		return nil, err
	}

	return hcert.DCC, nil
}

func (h *Holder) ReadQREncoded(qr string) (hcert *common.HealthCertificate, err error) {
	sign1, err := h.UnmarshalQREncoded(qr)
	if err != nil {
		return nil, err
	}

	return common.ReadCWT(sign1)
}

// UnmarshalQREncoded runs the stages up to and including the COSE envelope
func (h *Holder) UnmarshalQREncoded(qr string) (*common.Sign1, error) {
	proofBase45, err := common.StripPrefix(qr)
	if err != nil {
		return nil, err
	}

	proofCompressed, err := common.DecodeBase45(proofBase45)
	if err != nil {
		return nil, err
	}

	proofCbor, err := common.Inflate(proofCompressed)
	if err != nil {
		return nil, err
	}

	return common.UnwrapSign1(proofCbor)
}
