package common

import (
	"fmt"
	"github.com/fxamacker/cbor/v2"
	"github.com/go-errors/errors"
	"math"
	"time"
)

const (
	CLAIM_ISSUER          = 1
	CLAIM_EXPIRATION_TIME = 4
	CLAIM_ISSUED_AT       = 6
	CLAIM_HCERT           = -260
)

var claimNames = map[int64]string{
	CLAIM_ISSUER:          "issuer",
	CLAIM_EXPIRATION_TIME: "expires-at",
	CLAIM_ISSUED_AT:       "issued-at",
	CLAIM_HCERT:           "hcert",
}

// Claims are the CWT claims of a health certificate payload
type Claims struct {
	Issuer         string
	IssuedAt       int64
	ExpirationTime int64
	SchemaVersion  SchemaVersion
	Certificate    *Certificate
}

type HealthCertificate struct {
	CredentialVersion int          `json:"credentialVersion"`
	Issuer            string       `json:"issuer"`
	IssuedAt          int64        `json:"issuedAt"`
	ExpirationTime    int64        `json:"expirationTime"`
	DCC               *Certificate `json:"dcc"`
	Header            *HeaderInfo  `json:"header,omitempty"`
}

type cwtPayload struct {
	Issuer         string                  `cbor:"1,keyasint"`
	ExpirationTime int64                   `cbor:"4,keyasint"`
	IssuedAt       int64                   `cbor:"6,keyasint"`
	HCert          map[int]cbor.RawMessage `cbor:"-260,keyasint"`
}

// claimSlots accumulates the known claims during the scan; a nil slot means absent
type claimSlots struct {
	issuer         cbor.RawMessage
	issuedAt       cbor.RawMessage
	expirationTime cbor.RawMessage
	hcert          cbor.RawMessage
}

func (cs *claimSlots) slot(key int64) *cbor.RawMessage {
	switch key {
	case CLAIM_ISSUER:
		return &cs.issuer
	case CLAIM_ISSUED_AT:
		return &cs.issuedAt
	case CLAIM_EXPIRATION_TIME:
		return &cs.expirationTime
	case CLAIM_HCERT:
		return &cs.hcert
	}

	return nil
}

func ReadCWT(sign1 *Sign1) (*HealthCertificate, error) {
	claims, err := ReadClaims(sign1.Payload)
	if err != nil {
		return nil, err
	}

	hcert := &HealthCertificate{
		CredentialVersion: int(claims.SchemaVersion),
		Issuer:            claims.Issuer,
		IssuedAt:          claims.IssuedAt,
		ExpirationTime:    claims.ExpirationTime,
		DCC:               claims.Certificate,
	}

	// Headers are informational only, a header that cannot be parsed doesn't fail the decode
	header, err := sign1.Header()
	if err == nil {
		hcert.Header = header
	}

	return hcert, nil
}

func ReadClaims(payloadCbor []byte) (*Claims, error) {
	err := decMode.Valid(payloadCbor)
	if err != nil {
		return nil, newFormatError(KindCBORDecode, "", errors.WrapPrefix(err, "Could not CBOR decode CWT payload", 0))
	}

	var rawClaims map[interface{}]cbor.RawMessage
	err = decMode.Unmarshal(payloadCbor, &rawClaims)
	if err != nil {
		if dupErr, ok := err.(*cbor.DupMapKeyError); ok {
			return nil, newFormatError(KindDuplicateClaim, claimName(dupErr.Key), errors.WrapPrefix(err, "Could not accept repeated claim", 0))
		}

		return nil, newFormatError(KindSchemaMismatch, "claims", errors.WrapPrefix(err, "Could not CBOR unmarshal CWT payload as a map", 0))
	}

	if rawClaims == nil {
		return nil, newFormatError(KindSchemaMismatch, "claims", errors.Errorf("Could not process null CWT payload"))
	}

	// Single pass; unknown keys are skipped so newer payloads still decode
	slots := &claimSlots{}
	for k, v := range rawClaims {
		key, ok := intKey(k)
		if !ok {
			continue
		}

		slot := slots.slot(key)
		if slot == nil {
			continue
		}

		*slot = v
	}

	for _, required := range []struct {
		key int64
		raw cbor.RawMessage
	}{
		{CLAIM_ISSUER, slots.issuer},
		{CLAIM_ISSUED_AT, slots.issuedAt},
		{CLAIM_EXPIRATION_TIME, slots.expirationTime},
		{CLAIM_HCERT, slots.hcert},
	} {
		if required.raw == nil {
			name := claimNames[required.key]
			return nil, newFormatError(KindMissingClaim, name, errors.Errorf("Could not find required claim %s (%d)", name, required.key))
		}
	}

	claims := &Claims{}

	if isNull(slots.issuer) {
		return nil, newFormatError(KindSchemaMismatch, "issuer", errors.Errorf("Could not read null issuer claim as text"))
	}

	err = decMode.Unmarshal(slots.issuer, &claims.Issuer)
	if err != nil {
		return nil, newFormatError(KindSchemaMismatch, "issuer", errors.WrapPrefix(err, "Could not read issuer claim as text", 0))
	}

	claims.IssuedAt, err = readTimestamp("issued-at", slots.issuedAt)
	if err != nil {
		return nil, err
	}

	claims.ExpirationTime, err = readTimestamp("expires-at", slots.expirationTime)
	if err != nil {
		return nil, err
	}

	claims.SchemaVersion, claims.Certificate, err = readHealthCertificateClaim(slots.hcert)
	if err != nil {
		return nil, err
	}

	return claims, nil
}

// readTimestamp accepts integer and, like some issuers produce, floating point NumericDates
func readTimestamp(name string, raw cbor.RawMessage) (int64, error) {
	var value interface{}
	err := decMode.Unmarshal(raw, &value)
	if err != nil {
		return 0, newFormatError(KindSchemaMismatch, name, errors.WrapPrefix(err, "Could not read timestamp claim", 0))
	}

	switch tv := value.(type) {
	case uint64:
		if tv <= math.MaxInt64 {
			return int64(tv), nil
		}
	case int64:
		return tv, nil
	case float64:
		if !math.IsNaN(tv) && !math.IsInf(tv, 0) {
			return int64(tv), nil
		}
	case time.Time:
		return tv.Unix(), nil
	}

	return 0, newFormatError(KindSchemaMismatch, name, errors.Errorf("Could not read timestamp claim of type %T", value))
}

func readHealthCertificateClaim(raw cbor.RawMessage) (SchemaVersion, *Certificate, error) {
	var versions map[interface{}]cbor.RawMessage
	err := decMode.Unmarshal(raw, &versions)
	if err != nil {
		if _, ok := err.(*cbor.DupMapKeyError); ok {
			return 0, nil, newFormatError(KindDuplicateClaim, "hcert", errors.WrapPrefix(err, "Could not accept repeated schema version", 0))
		}

		return 0, nil, newFormatError(KindSchemaMismatch, "hcert", errors.WrapPrefix(err, "Could not read hcert claim as a map", 0))
	}

	if versions == nil {
		return 0, nil, newFormatError(KindSchemaMismatch, "hcert", errors.Errorf("Could not process null hcert claim"))
	}

	for k, v := range versions {
		key, ok := intKey(k)
		if !ok || SchemaVersion(key) != SCHEMA_EUDCC_V1 {
			continue
		}

		cert, err := ReadCertificate(SCHEMA_EUDCC_V1, v)
		if err != nil {
			return 0, nil, err
		}

		return SCHEMA_EUDCC_V1, cert, nil
	}

	return 0, nil, newFormatError(KindUnsupportedSchemaVersion, "hcert", errors.Errorf("Could not find a supported certificate schema version in hcert claim"))
}

func MarshalClaims(claims *Claims) ([]byte, error) {
	version := claims.SchemaVersion
	if version == 0 {
		version = SCHEMA_EUDCC_V1
	}

	certCbor, err := cbor.Marshal(claims.Certificate)
	if err != nil {
		return nil, errors.WrapPrefix(err, "Could not CBOR marshal certificate", 0)
	}

	payloadCbor, err := cbor.Marshal(&cwtPayload{
		Issuer:         claims.Issuer,
		ExpirationTime: claims.ExpirationTime,
		IssuedAt:       claims.IssuedAt,
		HCert:          map[int]cbor.RawMessage{int(version): certCbor},
	})
	if err != nil {
		return nil, errors.WrapPrefix(err, "Could not CBOR marshal CWT payload", 0)
	}

	return payloadCbor, nil
}

func intKey(k interface{}) (int64, bool) {
	switch tk := k.(type) {
	case uint64:
		if tk <= math.MaxInt64 {
			return int64(tk), true
		}
	case int64:
		return tk, true
	}

	return 0, false
}

func claimName(k interface{}) string {
	if key, ok := intKey(k); ok {
		if name, ok := claimNames[key]; ok {
			return name
		}
	}

	return fmt.Sprintf("%v", k)
}
