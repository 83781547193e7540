package common

import (
	"fmt"
	"github.com/fxamacker/cbor/v2"
	"github.com/go-errors/errors"
)

// SchemaVersion is the key under which a certificate is stored in the hcert claim
type SchemaVersion int64

const (
	SCHEMA_EUDCC_V1 SchemaVersion = 1
)

type certificateReader func(raw cbor.RawMessage) (*Certificate, error)

var certificateReaders = map[SchemaVersion]certificateReader{
	SCHEMA_EUDCC_V1: readCertificateV1,
}

type Certificate struct {
	Version     string `cbor:"ver" json:"ver"`
	Name        *Name  `cbor:"nam" json:"nam"`
	DateOfBirth string `cbor:"dob" json:"dob"`

	Vaccinations []VaccinationRecord `cbor:"v,omitempty" json:"v"`
	Recoveries   []RecoveryRecord    `cbor:"r,omitempty" json:"r"`
	Tests        []TestRecord        `cbor:"t,omitempty" json:"t"`
}

type Name struct {
	FamilyName             string `cbor:"fn" json:"fn"`
	StandardizedFamilyName string `cbor:"fnt" json:"fnt"`
	GivenName              string `cbor:"gn" json:"gn"`
	StandardizedGivenName  string `cbor:"gnt" json:"gnt"`
}

type VaccinationRecord struct {
	DiseaseTargeted       string `cbor:"tg" json:"tg"`
	Vaccine               string `cbor:"vp" json:"vp"`
	MedicinalProduct      string `cbor:"mp" json:"mp"`
	Manufacturer          string `cbor:"ma" json:"ma"`
	DoseNumber            int    `cbor:"dn" json:"dn"`
	TotalSeriesOfDoses    int    `cbor:"sd" json:"sd"`
	DateOfVaccination     string `cbor:"dt" json:"dt"`
	CountryOfVaccination  string `cbor:"co" json:"co"`
	CertificateIssuer     string `cbor:"is" json:"is"`
	CertificateIdentifier string `cbor:"ci" json:"ci"`
}

type RecoveryRecord struct {
	DiseaseTargeted         string `cbor:"tg" json:"tg"`
	DateOfFirstPositiveTest string `cbor:"fr" json:"fr"`
	CountryOfTest           string `cbor:"co" json:"co"`
	CertificateIssuer       string `cbor:"is" json:"is"`
	CertificateValidFrom    string `cbor:"df" json:"df"`
	CertificateValidUntil   string `cbor:"du" json:"du"`
	CertificateIdentifier   string `cbor:"ci" json:"ci"`
}

type TestRecord struct {
	DiseaseTargeted         string `cbor:"tg" json:"tg"`
	TypeOfTest              string `cbor:"tt" json:"tt"`
	TestName                string `cbor:"nm,omitempty" json:"nm"`
	TestNameAndManufacturer string `cbor:"ma,omitempty" json:"ma"`
	DateTimeOfCollection    string `cbor:"sc" json:"sc"`
	DateTimeOfTestResult    string `cbor:"dr,omitempty" json:"dr"`
	TestResult              string `cbor:"tr" json:"tr"`
	TestingCentre           string `cbor:"tc" json:"tc"`
	CountryOfTest           string `cbor:"co" json:"co"`
	CertificateIssuer       string `cbor:"is" json:"is"`
	CertificateIdentifier   string `cbor:"ci" json:"ci"`
}

func ReadCertificate(version SchemaVersion, raw cbor.RawMessage) (*Certificate, error) {
	read, ok := certificateReaders[version]
	if !ok {
		return nil, newFormatError(KindUnsupportedSchemaVersion, "hcert", errors.Errorf("Could not read certificate schema version %d", version))
	}

	return read(raw)
}

func readCertificateV1(raw cbor.RawMessage) (*Certificate, error) {
	r := newFieldReader("dcc", raw)

	cert := &Certificate{
		Version:     r.text("ver"),
		DateOfBirth: r.text("dob"),
	}

	nam := r.object("nam")
	cert.Name = &Name{
		FamilyName:             nam.text("fn"),
		StandardizedFamilyName: nam.text("fnt"),
		GivenName:              nam.text("gn"),
		StandardizedGivenName:  nam.text("gnt"),
	}

	vaccinations := r.list("v")
	cert.Vaccinations = make([]VaccinationRecord, 0, len(vaccinations))
	for _, v := range vaccinations {
		cert.Vaccinations = append(cert.Vaccinations, VaccinationRecord{
			DiseaseTargeted:       v.text("tg"),
			Vaccine:               v.text("vp"),
			MedicinalProduct:      v.text("mp"),
			Manufacturer:          v.text("ma"),
			DoseNumber:            v.integer("dn"),
			TotalSeriesOfDoses:    v.integer("sd"),
			DateOfVaccination:     v.text("dt"),
			CountryOfVaccination:  v.text("co"),
			CertificateIssuer:     v.text("is"),
			CertificateIdentifier: v.text("ci"),
		})
	}

	recoveries := r.list("r")
	cert.Recoveries = make([]RecoveryRecord, 0, len(recoveries))
	for _, rr := range recoveries {
		cert.Recoveries = append(cert.Recoveries, RecoveryRecord{
			DiseaseTargeted:         rr.text("tg"),
			DateOfFirstPositiveTest: rr.text("fr"),
			CountryOfTest:           rr.text("co"),
			CertificateIssuer:       rr.text("is"),
			CertificateValidFrom:    rr.text("df"),
			CertificateValidUntil:   rr.text("du"),
			CertificateIdentifier:   rr.text("ci"),
		})
	}

	tests := r.list("t")
	cert.Tests = make([]TestRecord, 0, len(tests))
	for _, t := range tests {
		cert.Tests = append(cert.Tests, TestRecord{
			DiseaseTargeted:         t.text("tg"),
			TypeOfTest:              t.text("tt"),
			TestName:                t.optionalText("nm"),
			TestNameAndManufacturer: t.optionalText("ma"),
			DateTimeOfCollection:    t.text("sc"),
			DateTimeOfTestResult:    t.optionalText("dr"),
			TestResult:              t.text("tr"),
			TestingCentre:           t.text("tc"),
			CountryOfTest:           t.text("co"),
			CertificateIssuer:       t.text("is"),
			CertificateIdentifier:   t.text("ci"),
		})
	}

	if *r.err != nil {
		return nil, *r.err
	}

	return cert, nil
}

// fieldReader reads a text-keyed CBOR map one field at a time. The first error is kept and shared
// with nested readers, later reads become no-ops.
type fieldReader struct {
	path   string
	fields map[string]cbor.RawMessage
	err    *error
}

func newFieldReader(path string, raw cbor.RawMessage) *fieldReader {
	r := &fieldReader{
		path: path,
		err:  new(error),
	}
	r.decodeMap(raw)

	return r
}

func (r *fieldReader) child(path string) *fieldReader {
	return &fieldReader{
		path: path,
		err:  r.err,
	}
}

func (r *fieldReader) decodeMap(raw cbor.RawMessage) {
	if *r.err != nil {
		return
	}

	err := decMode.Unmarshal(raw, &r.fields)
	if err != nil {
		r.fail(r.path, errors.WrapPrefix(err, "Could not read value as a map", 0))
		return
	}

	if r.fields == nil {
		r.fail(r.path, errors.Errorf("Could not read null as a map"))
	}
}

func (r *fieldReader) fail(path string, err error) {
	if *r.err == nil {
		*r.err = newFormatError(KindSchemaMismatch, path, err)
	}
}

func (r *fieldReader) fieldPath(key string) string {
	return r.path + "." + key
}

func (r *fieldReader) lookup(key string, required bool) (cbor.RawMessage, bool) {
	if *r.err != nil {
		return nil, false
	}

	raw, ok := r.fields[key]
	if !required {
		return raw, ok
	}

	if !ok {
		r.fail(r.fieldPath(key), errors.Errorf("Could not find required field %s", r.fieldPath(key)))
		return nil, false
	}

	if isNull(raw) {
		r.fail(r.fieldPath(key), errors.Errorf("Could not read null as required field %s", r.fieldPath(key)))
		return nil, false
	}

	return raw, true
}

func (r *fieldReader) decode(key string, raw cbor.RawMessage, dst interface{}) {
	err := decMode.Unmarshal(raw, dst)
	if err != nil {
		r.fail(r.fieldPath(key), errors.WrapPrefix(err, fmt.Sprintf("Could not read field %s", r.fieldPath(key)), 0))
	}
}

func (r *fieldReader) text(key string) string {
	return r.readText(key, true)
}

// optionalText returns an empty string for absent or null fields
func (r *fieldReader) optionalText(key string) string {
	return r.readText(key, false)
}

func (r *fieldReader) readText(key string, required bool) string {
	raw, ok := r.lookup(key, required)
	if !ok {
		return ""
	}

	var s string
	r.decode(key, raw, &s)

	return s
}

func (r *fieldReader) integer(key string) int {
	raw, ok := r.lookup(key, true)
	if !ok {
		return 0
	}

	var i int
	r.decode(key, raw, &i)

	return i
}

func (r *fieldReader) object(key string) *fieldReader {
	child := r.child(r.fieldPath(key))

	raw, ok := r.lookup(key, true)
	if ok {
		child.decodeMap(raw)
	}

	return child
}

// list returns a reader per element; an absent or null list is empty
func (r *fieldReader) list(key string) []*fieldReader {
	raw, ok := r.lookup(key, false)
	if !ok {
		return nil
	}

	var elements []cbor.RawMessage
	r.decode(key, raw, &elements)
	if *r.err != nil {
		return nil
	}

	readers := make([]*fieldReader, 0, len(elements))
	for i, element := range elements {
		child := r.child(fmt.Sprintf("%s[%d]", r.fieldPath(key), i))
		child.decodeMap(element)
		readers = append(readers, child)
	}

	return readers
}
