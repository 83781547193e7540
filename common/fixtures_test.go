package common

import (
	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/require"
	"testing"
)

func vaccinationCertificateMap() map[string]interface{} {
	return map[string]interface{}{
		"ver": "1.0.0",
		"nam": map[string]interface{}{
			"fn":  "Di Caprio",
			"fnt": "DI<CAPRIO",
			"gn":  "Marilù Teresa",
			"gnt": "MARILU<TERESA",
		},
		"dob": "1977-06-16",
		"v": []interface{}{
			map[string]interface{}{
				"tg": "840539006",
				"vp": "1119349007",
				"mp": "EU/1/20/1528",
				"ma": "ORG-100030215",
				"dn": 2,
				"sd": 2,
				"dt": "2021-04-10",
				"co": "IT",
				"is": "IT",
				"ci": "01ITE7300E1AB2A84C719004F103DCB1F70A#6",
			},
		},
	}
}

func recoveryRecordMap() map[string]interface{} {
	return map[string]interface{}{
		"tg": "840539006",
		"fr": "2021-04-12",
		"co": "IT",
		"is": "Ministero della Salute",
		"df": "2021-05-02",
		"du": "2021-10-31",
		"ci": "01ITBFE7ABD4A6854C8F8B8FB3AD1F1E2D1F#0",
	}
}

func testRecordMap() map[string]interface{} {
	return map[string]interface{}{
		"tg": "840539006",
		"tt": "LP6464-4",
		"nm": "Roche LightCycler qPCR",
		"ma": "",
		"sc": "2021-05-03T10:27:15Z",
		"tr": "260415000",
		"tc": "Policlinico Umberto I",
		"co": "IT",
		"is": "IT",
		"ci": "01IT0BFC9866D3854EAC82C21654B6F6DE32#1",
	}
}

// claimsMap builds a CWT payload with every required claim present
func claimsMap(cert interface{}) map[int]interface{} {
	return map[int]interface{}{
		CLAIM_ISSUER:          "IT",
		CLAIM_ISSUED_AT:       1620000000,
		CLAIM_EXPIRATION_TIME: 1640000000,
		CLAIM_HCERT:           map[int]interface{}{1: cert},
	}
}

// rawMap encodes key/value pairs in order as a CBOR map, allowing repeated keys
func rawMap(t *testing.T, pairs ...interface{}) []byte {
	t.Helper()
	require.True(t, len(pairs)%2 == 0 && len(pairs)/2 < 24)

	b := []byte{0xa0 | byte(len(pairs)/2)}
	for _, p := range pairs {
		encoded, err := cbor.Marshal(p)
		require.NoError(t, err)
		b = append(b, encoded...)
	}

	return b
}
