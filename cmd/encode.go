package cmd

import (
	"encoding/json"
	"fmt"
	"github.com/go-errors/errors"
	"github.com/minvws/eudcc-decoder/common"
	"github.com/minvws/eudcc-decoder/issuer"
	"github.com/minvws/eudcc-decoder/issuer/localsigner"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"regexp"
	"time"
)

var encodeCmd = &cobra.Command{
	Use:   "encode [input]",
	Short: "Sign a DCC JSON document with a local key and print it as an HC1: QR string",
	Long:  "Reads a DCC JSON document (argument, file path or stdin) and issues it with a local signer. Meant for producing test credentials.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		spec, iss, err := configureEncode(cmd, args)
		if err != nil {
			exitWithError(err)
		}

		qr, err := iss.IssueQREncoded(spec)
		if err != nil {
			exitWithError(err)
		}

		fmt.Println(qr)
	},
}

func init() {
	rootCmd.AddCommand(encodeCmd)
	setEncodeFlags(encodeCmd)
}

func setEncodeFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.SortFlags = false

	flags.String("config", "", "path to configuration file (JSON, TOML, YAML or INI)")
	flags.String("issuer-country-code", "NL", "the country code that is used as CWT issuer")
	flags.Int("validity-days", 28, "number of days until the CWT expires")
	flags.String("key-usage", "", "key usage (vaccination, test or recovery), derived from the DCC when empty")

	flags.String("certificate-path", "./cert.pem", "DSC PEM encoded certificate path")
	flags.String("key-path", "./sk.pem", "DSC PEM encoded EC key path")
}

func configureEncode(cmd *cobra.Command, args []string) (*issuer.IssueSpecification, *issuer.Issuer, error) {
	err := viper.BindPFlags(cmd.Flags())
	if err != nil {
		return nil, nil, err
	}

	err = readConfig()
	if err != nil {
		return nil, nil, err
	}

	issCC := viper.GetString("issuer-country-code")
	if !regexp.MustCompile("^[A-Z]{2}$").MatchString(issCC) {
		return nil, nil, errors.Errorf("Invalid ISO 3166-1 alpha-2 issuer country code")
	}

	input := ""
	if len(args) > 0 {
		input = args[0]
	}

	dccJson, err := readInput(input)
	if err != nil {
		return nil, nil, err
	}

	dcc := &common.Certificate{}
	err = json.Unmarshal([]byte(dccJson), dcc)
	if err != nil {
		return nil, nil, errors.WrapPrefix(err, "Could not JSON unmarshal DCC", 0)
	}

	// Every usage signs with the same local key
	keyDescriptions := []*localsigner.KeyDescription{}
	for _, keyUsage := range []string{issuer.KEY_USAGE_VACCINATION, issuer.KEY_USAGE_TEST, issuer.KEY_USAGE_RECOVERY} {
		keyDescriptions = append(keyDescriptions, &localsigner.KeyDescription{
			KeyUsage:        keyUsage,
			CertificatePath: viper.GetString("certificate-path"),
			KeyPath:         viper.GetString("key-path"),
		})
	}

	ls, err := localsigner.New(&localsigner.Configuration{
		KeyDescriptions: keyDescriptions,
	})
	if err != nil {
		return nil, nil, errors.WrapPrefix(err, "Could not create local signer", 0)
	}

	now := time.Now().UTC()
	spec := &issuer.IssueSpecification{
		KeyUsage:       viper.GetString("key-usage"),
		Issuer:         issCC,
		IssuedAt:       now.Unix(),
		ExpirationTime: now.AddDate(0, 0, viper.GetInt("validity-days")).Unix(),
		DCC:            dcc,
	}

	return spec, issuer.New(ls), nil
}
