package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var passwdCmd = &cobra.Command{
	Use:   "passwd",
	Short: "Read a password from stdin and print its bcrypt hash for auth.password_bcrypt",
	RunE: func(cmd *cobra.Command, args []string) error {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read password: %w", err)
		}
		p := strings.TrimRight(line, "\r\n")
		if len(p) < 8 {
			return fmt.Errorf("password too short (min 8)")
		}
		h, err := bcrypt.GenerateFromPassword([]byte(p), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(h))
		return nil
	},
}
