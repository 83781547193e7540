package output

import (
	"bytes"
	"encoding/json"
	"github.com/fatih/color"
	"github.com/minvws/eudcc-decoder/common"
	"github.com/stretchr/testify/require"
	"os"
	"testing"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func healthCertificate() *common.HealthCertificate {
	return &common.HealthCertificate{
		CredentialVersion: 1,
		Issuer:            "IT",
		IssuedAt:          1620000000,
		ExpirationTime:    1640000000,
		DCC: &common.Certificate{
			Version:     "1.0.0",
			Name:        &common.Name{FamilyName: "Di Caprio", StandardizedFamilyName: "DI<CAPRIO", GivenName: "Marilù Teresa", StandardizedGivenName: "MARILU<TERESA"},
			DateOfBirth: "1977-06-16",
			Vaccinations: []common.VaccinationRecord{
				{DiseaseTargeted: "840539006", DoseNumber: 2, TotalSeriesOfDoses: 2, CountryOfVaccination: "IT", CertificateIdentifier: "01ITE7300E1AB2A84C719004F103DCB1F70A#6"},
			},
			Tests: []common.TestRecord{
				{TypeOfTest: "LP6464-4", TestNameAndManufacturer: ""},
			},
		},
		Header: &common.HeaderInfo{Algorithm: "ES256", KeyID: []byte{0x25, 0x51, 0x48, 0x23}},
	}
}

func TestPrintHealthCertificate(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintHealthCertificate(&buf, healthCertificate(), Options{}))

	out := buf.String()
	require.Contains(t, out, "Issued at: 2021-05-03T00:00:00Z")
	require.Contains(t, out, "Name: Marilù Teresa Di Caprio")
	require.Contains(t, out, "Vaccination 1/1")
	require.Contains(t, out, "Dose: 2 of 2")
	require.Contains(t, out, "Test 1/1")
	require.Contains(t, out, "Device: -")
	require.NotContains(t, out, "Recovery")
	require.NotContains(t, out, "Signature")
}

func TestPrintHealthCertificateVerbose(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintHealthCertificate(&buf, healthCertificate(), Options{Verbose: true}))

	require.Contains(t, buf.String(), "Signature (not verified)")
	require.Contains(t, buf.String(), "Key ID: 25514823")
}

func TestPrintHealthCertificateJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintHealthCertificate(&buf, healthCertificate(), Options{JSON: true}))

	decoded := &common.HealthCertificate{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), decoded))
	require.Equal(t, healthCertificate(), decoded)
	require.Contains(t, buf.String(), `"ci": "01ITE7300E1AB2A84C719004F103DCB1F70A#6"`)
}

func TestPrintError(t *testing.T) {
	_, err := common.StripPrefix("NL2:abc")
	require.Error(t, err)

	var buf bytes.Buffer
	PrintError(&buf, err, false)
	require.Contains(t, buf.String(), "Could not decode certificate (missing_prefix)")
}
