// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voteledger/voteledger/controller"
	"github.com/voteledger/voteledger/models"
)

var (
	adminSession    string
	adminEndDate    string
	adminName       string
	adminCandidate  string
	adminCandidates []string
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage sessions and candidates",
	Long: `Manage sessions and candidates as the session creator.

Only the wallet that created a session can change it; the ledger rejects
anyone else. End dates accept Unix seconds, RFC 3339 or 2006-01-02T15:04
in local time.

Example:
  voteledger admin create-session --session S1 --end 2026-12-01T18:00 --candidate Alice --candidate Bob
  voteledger admin delete-candidate --session S1 --id 2`,
}

func init() {
	adminCmd.PersistentFlags().StringVar(&passphrase, "passphrase", "", "keystore passphrase (or WALLET_PASSPHRASE env)")
	adminCmd.PersistentFlags().StringVar(&adminSession, "session", "", "session ID")
	adminCmd.MarkPersistentFlagRequired("session")

	createSessionCmd.Flags().StringVar(&adminEndDate, "end", "", "voting end date")
	createSessionCmd.Flags().StringArrayVar(&adminCandidates, "candidate", nil, "candidate name (repeatable)")
	createSessionCmd.MarkFlagRequired("end")

	addCandidateCmd.Flags().StringVar(&adminName, "name", "", "candidate name")
	addCandidateCmd.MarkFlagRequired("name")

	deleteCandidateCmd.Flags().StringVar(&adminCandidate, "id", "", "candidate ID as shown on the admin page (1-based)")
	deleteCandidateCmd.MarkFlagRequired("id")

	setEndDateCmd.Flags().StringVar(&adminEndDate, "end", "", "new voting end date")
	setEndDateCmd.MarkFlagRequired("end")

	adminCmd.AddCommand(createSessionCmd)
	adminCmd.AddCommand(deleteSessionCmd)
	adminCmd.AddCommand(addCandidateCmd)
	adminCmd.AddCommand(deleteCandidateCmd)
	adminCmd.AddCommand(setEndDateCmd)
}

type adminAction func(ctx context.Context, page *controller.AdminPage) (*models.TxResponse, error)

// runAdmin connects the wallet and runs one admin write. selectFirst loads
// the session before the write.
func runAdmin(selectFirst bool, action adminAction) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		visit, closeLedger, err := newVisit(cmd)
		if err != nil {
			return err
		}
		defer closeLedger()

		page := visit.Admin
		if selectFirst {
			if err := page.SelectSession(cmd.Context(), adminSession); err != nil {
				return cliError(err)
			}
		}

		resp, err := action(cmd.Context(), page)
		if err != nil {
			return cliError(err)
		}

		fmt.Println(resp.Message)
		fmt.Printf("Transaction %s\n", resp.TxHash)
		if page.SessionID() != "" {
			for _, c := range page.Candidates() {
				fmt.Printf("  ID %d: %s (%d votes)\n", c.ID, c.Name, c.Votes)
			}
		}
		return nil
	}
}

var createSessionCmd = &cobra.Command{
	Use:   "create-session",
	Short: "Create a voting session",
	RunE: runAdmin(false, func(ctx context.Context, page *controller.AdminPage) (*models.TxResponse, error) {
		return page.CreateSession(ctx, adminSession, adminEndDate, adminCandidates)
	}),
}

var deleteSessionCmd = &cobra.Command{
	Use:   "delete-session",
	Short: "Delete a voting session",
	RunE: runAdmin(false, func(ctx context.Context, page *controller.AdminPage) (*models.TxResponse, error) {
		return page.DeleteSession(ctx, adminSession)
	}),
}

var addCandidateCmd = &cobra.Command{
	Use:   "add-candidate",
	Short: "Add a candidate to a session",
	RunE: runAdmin(true, func(ctx context.Context, page *controller.AdminPage) (*models.TxResponse, error) {
		return page.AddCandidate(ctx, adminName)
	}),
}

var deleteCandidateCmd = &cobra.Command{
	Use:   "delete-candidate",
	Short: "Delete a candidate from a session",
	RunE: runAdmin(true, func(ctx context.Context, page *controller.AdminPage) (*models.TxResponse, error) {
		return page.DeleteCandidate(ctx, adminCandidate)
	}),
}

var setEndDateCmd = &cobra.Command{
	Use:   "set-end-date",
	Short: "Change when voting in a session ends",
	RunE: runAdmin(true, func(ctx context.Context, page *controller.AdminPage) (*models.TxResponse, error) {
		return page.SetEndDate(ctx, adminEndDate)
	}),
}
