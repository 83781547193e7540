package common

import (
	"github.com/fxamacker/cbor/v2"
	"github.com/go-errors/errors"
	"github.com/veraison/go-cose"
)

const (
	COSE_SIGN1_TAG = 18
)

var emptyHeaderMap = cbor.RawMessage{0xa0}

// Sign1 is a COSE_Sign1 envelope. The headers and signature are carried along for inspection,
// they are never verified.
type Sign1 struct {
	Protected   []byte
	Unprotected cbor.RawMessage
	Payload     []byte
	Signature   []byte
}

type sign1Array struct {
	_           struct{} `cbor:",toarray"`
	Protected   []byte
	Unprotected cbor.RawMessage
	Payload     []byte
	Signature   []byte
}

// HeaderInfo holds the header parameters that identify the signer
type HeaderInfo struct {
	Algorithm string `json:"alg,omitempty"`
	KeyID     []byte `json:"kid,omitempty"`
}

func UnwrapSign1(proofCbor []byte) (*Sign1, error) {
	err := decMode.Valid(proofCbor)
	if err != nil {
		return nil, newFormatError(KindCBORDecode, "", errors.WrapPrefix(err, "Could not CBOR decode QR", 0))
	}

	var tag cbor.RawTag
	err = decMode.Unmarshal(proofCbor, &tag)
	if err != nil {
		return nil, notSign1("Could not read QR as a CBOR tag: %s", err.Error())
	}

	if tag.Number != COSE_SIGN1_TAG {
		return nil, notSign1("Unexpected CBOR tag %d, expected COSE_Sign1 tag %d", tag.Number, COSE_SIGN1_TAG)
	}

	var elements []cbor.RawMessage
	err = decMode.Unmarshal(tag.Content, &elements)
	if err != nil {
		return nil, notSign1("Could not read COSE_Sign1 content as an array: %s", err.Error())
	}

	if len(elements) != 4 {
		return nil, notSign1("Invalid COSE_Sign1 structure: expected 4 elements, got %d", len(elements))
	}

	sign1 := &Sign1{
		Unprotected: elements[1],
	}

	byteStrings := []struct {
		name string
		dst  *[]byte
		raw  cbor.RawMessage
	}{
		{"protected header", &sign1.Protected, elements[0]},
		{"payload", &sign1.Payload, elements[2]},
		{"signature", &sign1.Signature, elements[3]},
	}

	for _, bs := range byteStrings {
		err = decMode.Unmarshal(bs.raw, bs.dst)
		if err != nil {
			return nil, notSign1("Could not read COSE_Sign1 %s as a byte string: %s", bs.name, err.Error())
		}
	}

	if sign1.Payload == nil {
		return nil, notSign1("COSE_Sign1 has a detached payload")
	}

	return sign1, nil
}

func notSign1(format string, args ...interface{}) *FormatError {
	return newFormatError(KindNotCOSESign1, "", errors.Errorf(format, args...))
}

// MarshalCBOR encodes the envelope as a tagged COSE_Sign1 structure
func (s *Sign1) MarshalCBOR() ([]byte, error) {
	unprotected := s.Unprotected
	if len(unprotected) == 0 {
		unprotected = emptyHeaderMap
	}

	proofCbor, err := cbor.Marshal(cbor.Tag{
		Number: COSE_SIGN1_TAG,
		Content: sign1Array{
			Protected:   s.Protected,
			Unprotected: unprotected,
			Payload:     s.Payload,
			Signature:   s.Signature,
		},
	})
	if err != nil {
		return nil, errors.WrapPrefix(err, "Could not CBOR serialize COSE_Sign1", 0)
	}

	return proofCbor, nil
}

// Header parses the protected and unprotected headers for the algorithm and key identifier.
// The key identifier is taken from the protected header first, like a verifier would.
func (s *Sign1) Header() (*HeaderInfo, error) {
	protected := cose.ProtectedHeader{}
	if len(s.Protected) > 0 {
		wrapped, err := cbor.Marshal(s.Protected)
		if err != nil {
			return nil, errors.WrapPrefix(err, "Could not CBOR serialize protected header", 0)
		}

		err = protected.UnmarshalCBOR(wrapped)
		if err != nil {
			return nil, errors.WrapPrefix(err, "Could not CBOR unmarshal protected header", 0)
		}
	}

	unprotected := cose.UnprotectedHeader{}
	if len(s.Unprotected) > 0 {
		err := unprotected.UnmarshalCBOR(s.Unprotected)
		if err != nil {
			return nil, errors.WrapPrefix(err, "Could not CBOR unmarshal unprotected header", 0)
		}
	}

	info := &HeaderInfo{}
	if alg, err := protected.Algorithm(); err == nil {
		info.Algorithm = alg.String()
	}

	if kid, ok := headerValue(protected, cose.HeaderLabelKeyID).([]byte); ok {
		info.KeyID = kid
	} else if kid, ok := headerValue(unprotected, cose.HeaderLabelKeyID).([]byte); ok {
		info.KeyID = kid
	}

	return info, nil
}

func headerValue(header map[interface{}]interface{}, label int64) interface{} {
	if v, ok := header[label]; ok {
		return v
	}

	if label >= 0 {
		return header[uint64(label)]
	}

	return nil
}
