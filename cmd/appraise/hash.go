package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/appraise-tools/appraise/internal/auth"
)

func hashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash <password>",
		Short: "Generate an admin password digest",
		Long: `Generate the SHA-256 hex digest of a password, suitable for the
ADMIN_PASSWORD_HASH environment variable.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == "" {
				return fmt.Errorf("password must not be empty")
			}
			fmt.Fprintln(cmd.OutOrStdout(), auth.HashPassword(args[0]))
			return nil
		},
	}
}
