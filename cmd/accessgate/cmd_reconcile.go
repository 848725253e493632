package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	id "accessgate/pkg/domain"
)

var (
	reconcileSince string
	reconcileUser  string
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Run one compliance reconciliation pass and print its summary",
	RunE:  runReconcile,
}

func init() {
	reconcileCmd.Flags().StringVar(&reconcileSince, "since", "", "only users updated after this RFC3339 time")
	reconcileCmd.Flags().StringVar(&reconcileUser, "user", "", "reconcile a single user ID")
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()

	if reconcileUser != "" {
		userID, err := id.ParseUserID(reconcileUser)
		if err != nil {
			return err
		}
		outcome, err := a.reconciler.ReconcileUser(ctx, userID)
		fmt.Fprintln(cmd.OutOrStdout(), outcome)
		return err
	}

	var since *time.Time
	if reconcileSince != "" {
		t, err := time.Parse(time.RFC3339, reconcileSince)
		if err != nil {
			return fmt.Errorf("--since must be RFC3339: %w", err)
		}
		since = &t
	}
	summary, err := a.reconciler.Run(ctx, since)
	if encErr := json.NewEncoder(cmd.OutOrStdout()).Encode(summary); encErr != nil {
		return encErr
	}
	return err
}
