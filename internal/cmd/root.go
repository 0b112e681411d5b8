package cmd

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/yuzeguitarist/qrgen/internal/app"
	"github.com/yuzeguitarist/qrgen/internal/config"
)

var version = "0.1.0"

var (
	configPath string

	rootCmd = &cobra.Command{
		Use:           app.Name,
		Short:         "QR code and barcode generator (web form + CLI)",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, app.Color("error:", app.ColorRed), err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default "+app.ConfigPath+")")
	rootCmd.SetVersionTemplate(fmt.Sprintf("%s %s (%s/%s, %s)\n", app.Name, version, runtime.GOOS, runtime.GOARCH, runtime.Version()))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(otpCmd)
	rootCmd.AddCommand(passwdCmd)
	rootCmd.AddCommand(configCmd)
}
