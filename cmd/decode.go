package cmd

import (
	"github.com/fatih/color"
	"github.com/minvws/eudcc-decoder/holder"
	"github.com/minvws/eudcc-decoder/output"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"os"
)

var decodeCmd = &cobra.Command{
	Use:   "decode [input]",
	Short: "Decode an HC1: QR string",
	Long:  "Decodes an HC1: QR string given as argument, file path, or piped via stdin. The signature is not verified.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		err := viper.BindPFlags(cmd.Flags())
		if err != nil {
			exitWithError(err)
		}

		if viper.GetBool("no-color") {
			color.NoColor = true
		}

		input := ""
		if len(args) > 0 {
			input = args[0]
		}

		qr, err := readInput(input)
		if err != nil {
			exitWithError(err)
		}

		opts := output.Options{
			JSON:    viper.GetBool("json"),
			Verbose: viper.GetBool("verbose"),
		}

		hcert, err := holder.New().ReadQREncoded(qr)
		if err != nil {
			output.PrintError(os.Stderr, err, opts.Verbose)
			os.Exit(1)
		}

		err = output.PrintHealthCertificate(os.Stdout, hcert, opts)
		if err != nil {
			exitWithError(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(decodeCmd)
	setDecodeFlags(decodeCmd)
}

func setDecodeFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.SortFlags = false

	flags.Bool("json", false, "output as JSON")
	flags.Bool("no-color", false, "disable colored output")
	flags.BoolP("verbose", "v", false, "show signature header and error stack traces")
}
