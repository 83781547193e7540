package main

import (
	"github.com/minvws/eudcc-decoder/common"
	"github.com/minvws/eudcc-decoder/holder"
	"github.com/minvws/eudcc-decoder/issuer"
	"github.com/minvws/eudcc-decoder/issuer/localsigner"
	"testing"
	"time"
)

var certFile = "./testdata/cert.pem"
var keyFile = "./testdata/key.pem"

func TestIssueHold(t *testing.T) {
	// Create local signer and issuer
	lsc := &localsigner.Configuration{
		KeyDescriptions: []*localsigner.KeyDescription{
			{
				KeyUsage:        "vaccination",
				CertificatePath: certFile,
				KeyPath:         keyFile,
			},
		},
	}

	ls, err := localsigner.New(lsc)
	if err != nil {
		t.Fatal("Could not create local signer:", err.Error())
	}

	iss := issuer.New(ls)

	// Issue
	qr, err := iss.IssueQREncoded(&issuer.IssueSpecification{
		KeyUsage: "vaccination",

		Issuer:         "NL",
		IssuedAt:       time.Now().UTC().Unix(),
		ExpirationTime: time.Now().AddDate(0, 0, 28).UTC().Unix(),

		DCC: &common.Certificate{
			Version:     "1.0.0",
			DateOfBirth: "1970-01-01",
			Name: &common.Name{
				FamilyName:             "Wat",
				StandardizedFamilyName: "WAT",
				GivenName:              "Wie",
				StandardizedGivenName:  "WIE",
			},
		},
	})
	if err != nil {
		t.Fatal("Could not issue QR encoded:", err.Error())
	}

	// Decode
	cert, err := holder.Decode(qr)
	if err != nil {
		if fe, ok := err.(*common.FormatError); ok {
			t.Log(fe.ErrorStack())
		}
		t.Fatal("Could not read back QR encoded credential:", err.Error())
	}

	if cert.Name.StandardizedFamilyName != "WAT" {
		t.Fatal("Decoded certificate does not match the issued one")
	}

	if len(cert.Vaccinations) != 0 || len(cert.Recoveries) != 0 || len(cert.Tests) != 0 {
		t.Fatal("Decoded certificate should not contain any records")
	}
}
