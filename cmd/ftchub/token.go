package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dcrubro/ftc-driver-hub/internal/auth"
)

func tokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Generate a random HTTP API token",
		Long: `Generate a token for http.token in the config file or --http-token.
Clients send it as "Authorization: Bearer <token>" or ?token=<token>.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := auth.GenerateToken()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
}
