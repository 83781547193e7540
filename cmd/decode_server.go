package cmd

import (
	"context"
	"github.com/minvws/eudcc-decoder/holder/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"os"
	"os/signal"
	"syscall"
)

var decodeServerCmd = &cobra.Command{
	Use:   "decode-server",
	Short: "Serve certificate decoding over HTTP",
	Run: func(cmd *cobra.Command, args []string) {
		config, err := configureDecodeServer(cmd)
		if err != nil {
			exitWithError(err)
		}

		logger := server.DefaultLogger("eudcc-decoder", os.Stdout)
		err = server.SetLevel(viper.GetString("log-level"))
		if err != nil {
			exitWithError(err)
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		err = server.Run(ctx, config, logger)
		if err != nil {
			exitWithError(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(decodeServerCmd)
	setDecodeServerFlags(decodeServerCmd)
}

func setDecodeServerFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.SortFlags = false

	flags.String("config", "", "path to configuration file (JSON, TOML, YAML or INI)")
	flags.String("listen-address", "localhost", "address at which to listen")
	flags.String("listen-port", "4003", "port at which to listen")
	flags.String("log-level", "info", "log level (trace, debug, info, warn, error)")
}

func configureDecodeServer(cmd *cobra.Command) (*server.Configuration, error) {
	err := viper.BindPFlags(cmd.Flags())
	if err != nil {
		return nil, err
	}

	err = readConfig()
	if err != nil {
		return nil, err
	}

	config := &server.Configuration{
		ListenAddress: viper.GetString("listen-address"),
		ListenPort:    viper.GetString("listen-port"),
	}

	return config, nil
}
