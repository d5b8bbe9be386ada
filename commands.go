// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/voteledger/voteledger/controller"
	"github.com/voteledger/voteledger/ledger"
	"github.com/voteledger/voteledger/models"
)

var (
	outputJSON     bool
	withCandidates bool
	sessionFlag    string
	candidateFlag  int
	passphrase     string
)

func init() {
	sessionsCmd.Flags().BoolVar(&withCandidates, "candidates", false, "include candidates of each session")
	for _, c := range []*cobra.Command{sessionsCmd, resultsCmd} {
		c.Flags().BoolVar(&outputJSON, "json", false, "output as JSON")
	}

	resultsCmd.Flags().StringVar(&sessionFlag, "session", "", "session ID")
	resultsCmd.MarkFlagRequired("session")

	voteCmd.Flags().StringVar(&sessionFlag, "session", "", "session ID")
	voteCmd.Flags().IntVar(&candidateFlag, "candidate", -1, "candidate index as listed by 'sessions --candidates'")
	voteCmd.MarkFlagRequired("session")
	voteCmd.MarkFlagRequired("candidate")
	voteCmd.Flags().StringVar(&passphrase, "passphrase", "", "keystore passphrase (or WALLET_PASSPHRASE env)")
}

// approval returns the wallet approval passphrase.
func approval() string {
	if passphrase != "" {
		return passphrase
	}
	return os.Getenv("WALLET_PASSPHRASE")
}

// cliError turns a page error into its user-facing message.
func cliError(err error) error {
	var f *controller.Failure
	if errors.As(err, &f) {
		return errors.New(f.Message)
	}
	return err
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printCandidates(candidates []models.Candidate) {
	for _, c := range candidates {
		fmt.Printf("  [%d] %-24s %d votes\n", c.Index, c.Name, c.Votes)
	}
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List active voting sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		l, closeLedger, err := openLedger(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeLedger()

		details, err := ledger.OngoingSessions(ctx, l)
		if err != nil {
			return fmt.Errorf("failed to load sessions: %w", err)
		}

		now := time.Now()
		views := make([]models.SessionView, 0, len(details))
		for _, d := range details {
			view := models.NewSessionView(d.Session, now)
			if withCandidates {
				view.Candidates = d.Candidates
			}
			views = append(views, view)
		}

		if outputJSON {
			return printJSON(views)
		}
		if len(views) == 0 {
			fmt.Println("No active sessions.")
			return nil
		}
		for _, v := range views {
			fmt.Printf("%s  %d candidates  ends %s\n", v.ID, v.CandidateCount, v.Ends)
			printCandidates(v.Candidates)
		}
		return nil
	},
}

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Show the tallied results of a session",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		l, closeLedger, err := openLedger(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeLedger()

		res, err := controller.NewResultsPage(l).Load(ctx, url.Values{"session": []string{sessionFlag}})
		if err != nil {
			return cliError(err)
		}

		if outputJSON {
			return printJSON(res)
		}
		fmt.Printf("Results for %s\n", res.SessionID)
		printCandidates(res.Candidates)
		fmt.Println(res.Summary)
		return nil
	},
}

// newVisit opens the ledger and wallet and connects for a one-shot command.
func newVisit(cmd *cobra.Command) (*controller.Visit, func(), error) {
	l, closeLedger, err := openLedger(cmd.Context(), cfg)
	if err != nil {
		return nil, nil, err
	}
	connector, err := openConnector(cfg, l)
	if err != nil {
		closeLedger()
		return nil, nil, err
	}

	visit := controller.NewVisit("cli", l, connector, controller.Options{Highlight: cfg.Highlight})
	if _, err := visit.Wallet.Connect(cmd.Context(), approval()); err != nil {
		closeLedger()
		return nil, nil, fmt.Errorf("%s: %w", visit.Wallet.Status(), err)
	}
	fmt.Printf("%s (%s)\n", visit.Wallet.Status(), visit.Wallet.View().ShortAddress)
	return visit, closeLedger, nil
}

var voteCmd = &cobra.Command{
	Use:   "vote",
	Short: "Cast a vote and wait for confirmation",
	RunE: func(cmd *cobra.Command, args []string) error {
		visit, closeLedger, err := newVisit(cmd)
		if err != nil {
			return err
		}
		defer closeLedger()

		page := visit.Voting
		if err := page.LoadSessions(cmd.Context(), url.Values{"session": []string{sessionFlag}}); err != nil {
			return cliError(err)
		}
		if page.SelectedSession() == "" {
			return fmt.Errorf("session %q is not active", strings.TrimSpace(sessionFlag))
		}

		page.OnStatus = func(state, status string) {
			fmt.Println(status)
		}
		receipt, err := page.CastVote(cmd.Context(), candidateFlag)
		if err != nil {
			return cliError(err)
		}

		fmt.Printf("Transaction %s\n", receipt.TxHash)
		printCandidates(page.Candidates())
		return nil
	},
}
