package cmd

import (
	"github.com/spf13/cobra"

	"github.com/yuzeguitarist/qrgen/internal/app"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration (keys masked)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cfg.CSRFKey = app.Mask(cfg.CSRFKey)
		cfg.SessionKey = app.Mask(cfg.SessionKey)
		cfg.Auth.PasswordBcrypt = app.Mask(cfg.Auth.PasswordBcrypt)
		b, err := cfg.Marshal()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(b)
		return err
	},
}
