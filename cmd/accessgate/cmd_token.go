package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	jwttoken "accessgate/internal/jwt_token"
	"accessgate/internal/platform/config"
)

var (
	tokenSubject string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an admin bearer token signed with server.admin_jwt_secret",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if tokenSubject == "" {
			return errors.New("--subject is required")
		}
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		token, err := jwttoken.NewJWTService(cfg.Server.AdminJWTSecret, tokenIssuer).
			GenerateToken(tokenSubject, jwttoken.RoleAdmin, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "", "operator identity recorded on audited changes")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "token lifetime")
}
