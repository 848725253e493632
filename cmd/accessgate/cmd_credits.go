package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

var creditsCmd = &cobra.Command{
	Use:   "credits",
	Short: "Initial credits maintenance",
}

var checkExpirationCmd = &cobra.Command{
	Use:   "check-expiration",
	Short: "Run one initial credits expiration sweep and print its result",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.credits.CheckExpiration(cmd.Context())
		if err != nil {
			return err
		}
		return json.NewEncoder(cmd.OutOrStdout()).Encode(result)
	},
}

func init() {
	creditsCmd.AddCommand(checkExpirationCmd)
}
