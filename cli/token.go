package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/qcmbuilder/qcm-api/config"
)

func newTokenCmd() *cobra.Command {
	var (
		subject  string
		nickname string
		ttl      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development token",
		Long:  "Signs a token with JWT_SECRET_KEY for the configured issuer and audience.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, err := issuerFrom(config.Load()).CreateToken(subject, nickname, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&subject, "sub", "", "token subject")
	cmd.Flags().StringVar(&nickname, "nickname", "", "nickname claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("sub")
	return cmd
}
