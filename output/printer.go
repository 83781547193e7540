package output

import (
	"encoding/hex"
	"fmt"
	"github.com/fatih/color"
	"github.com/minvws/eudcc-decoder/common"
	"io"
	"strings"
	"time"
)

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	sectionColor = color.New(color.FgCyan)
	labelColor   = color.New(color.FgYellow)
	dimColor     = color.New(color.Faint)
	errorColor   = color.New(color.FgRed)
)

type Options struct {
	JSON    bool
	Verbose bool
}

func PrintHealthCertificate(w io.Writer, hcert *common.HealthCertificate, opts Options) error {
	if opts.JSON {
		return PrintJSON(w, hcert)
	}

	headerColor.Fprintln(w, "EU Digital COVID Certificate")
	headerColor.Fprintln(w, strings.Repeat("─", 50))

	printSection(w, "Claims")
	printField(w, "Issuer", hcert.Issuer)
	printField(w, "Issued at", formatTimestamp(hcert.IssuedAt))
	printField(w, "Expires at", formatTimestamp(hcert.ExpirationTime))
	printField(w, "Schema version", fmt.Sprintf("%d", hcert.CredentialVersion))

	dcc := hcert.DCC
	printSection(w, "Holder")
	printField(w, "Version", dcc.Version)
	if dcc.Name != nil {
		printField(w, "Name", strings.TrimSpace(dcc.Name.GivenName+" "+dcc.Name.FamilyName))
		printField(w, "Standardized name", strings.TrimSpace(dcc.Name.StandardizedGivenName+" "+dcc.Name.StandardizedFamilyName))
	}
	printField(w, "Date of birth", dcc.DateOfBirth)

	for i, v := range dcc.Vaccinations {
		printSection(w, fmt.Sprintf("Vaccination %d/%d", i+1, len(dcc.Vaccinations)))
		printField(w, "Disease", v.DiseaseTargeted)
		printField(w, "Vaccine", v.Vaccine)
		printField(w, "Product", v.MedicinalProduct)
		printField(w, "Manufacturer", v.Manufacturer)
		printField(w, "Dose", fmt.Sprintf("%d of %d", v.DoseNumber, v.TotalSeriesOfDoses))
		printField(w, "Date", v.DateOfVaccination)
		printField(w, "Country", v.CountryOfVaccination)
		printField(w, "Issuer", v.CertificateIssuer)
		printField(w, "Identifier", v.CertificateIdentifier)
	}

	for i, r := range dcc.Recoveries {
		printSection(w, fmt.Sprintf("Recovery %d/%d", i+1, len(dcc.Recoveries)))
		printField(w, "Disease", r.DiseaseTargeted)
		printField(w, "First positive test", r.DateOfFirstPositiveTest)
		printField(w, "Country", r.CountryOfTest)
		printField(w, "Issuer", r.CertificateIssuer)
		printField(w, "Valid from", r.CertificateValidFrom)
		printField(w, "Valid until", r.CertificateValidUntil)
		printField(w, "Identifier", r.CertificateIdentifier)
	}

	for i, t := range dcc.Tests {
		printSection(w, fmt.Sprintf("Test %d/%d", i+1, len(dcc.Tests)))
		printField(w, "Disease", t.DiseaseTargeted)
		printField(w, "Type", t.TypeOfTest)
		printField(w, "Name", t.TestName)
		printField(w, "Device", t.TestNameAndManufacturer)
		printField(w, "Sample collected", t.DateTimeOfCollection)
		printField(w, "Result date", t.DateTimeOfTestResult)
		printField(w, "Result", t.TestResult)
		printField(w, "Testing centre", t.TestingCentre)
		printField(w, "Country", t.CountryOfTest)
		printField(w, "Issuer", t.CertificateIssuer)
		printField(w, "Identifier", t.CertificateIdentifier)
	}

	if opts.Verbose && hcert.Header != nil {
		printSection(w, "Signature (not verified)")
		printField(w, "Algorithm", hcert.Header.Algorithm)
		printField(w, "Key ID", hex.EncodeToString(hcert.Header.KeyID))
	}

	fmt.Fprintln(w)
	return nil
}

func PrintError(w io.Writer, err error, verbose bool) {
	errorColor.Fprintf(w, "Could not decode certificate (%s)\n", common.KindOf(err))
	fmt.Fprintln(w, err.Error())

	if fe, ok := err.(*common.FormatError); ok && verbose {
		dimColor.Fprintln(w, fe.ErrorStack())
	}
}

func printSection(w io.Writer, title string) {
	fmt.Fprintln(w)
	sectionColor.Fprintln(w, title)
}

func printField(w io.Writer, label, value string) {
	if value == "" {
		value = "-"
	}

	labelColor.Fprintf(w, "  %s: ", label)
	fmt.Fprintln(w, value)
}

func formatTimestamp(unix int64) string {
	return time.Unix(unix, 0).UTC().Format(time.RFC3339)
}
