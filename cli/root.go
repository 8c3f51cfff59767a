// Package cli holds the qcmbuilder commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/qcmbuilder/qcm-api/auth"
	"github.com/qcmbuilder/qcm-api/config"
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "qcmbuilder",
		Long:          `API and offline tools for building QCM series for medical exam preparation.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if err := config.LoadDotEnv(); err != nil {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: .env file not found, environment variables might not be loaded: %v\n", err)
			}
		},
	}
	root.AddCommand(newServeCmd(), newIngestCmd(), newTokenCmd())
	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func issuerFrom(cfg config.Config) auth.Issuer {
	return auth.Issuer{Secret: []byte(cfg.JWTSecret), Issuer: cfg.JWTIssuer, Audience: cfg.JWTAudience}
}
