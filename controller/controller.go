// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package controller holds the page logic of the front end. Each page is a
// struct owning its state; HTTP handlers and CLI commands drive them.
package controller

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/voteledger/voteledger/ledger"
	"github.com/voteledger/voteledger/wallet"
)

var (
	ErrLoadFailed          = errors.New("ledger read failed")
	ErrNoSessionSelected   = errors.New("no session selected")
	ErrSessionNotFound     = errors.New("session not found")
	ErrNoCandidateSelected = errors.New("no candidate selected")
	ErrInvalidCandidateID  = errors.New("invalid candidate ID")
	ErrInvalidSessionID    = errors.New("invalid session ID")
	ErrBlankName           = errors.New("candidate name required")
	ErrInvalidEndDate      = errors.New("invalid end date")
)

// DefaultHighlight is how long a freshly voted count stays highlighted.
const DefaultHighlight = 1200 * time.Millisecond

// Failure is an error with the message shown to the user.
type Failure struct {
	Message string
	Err     error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return f.Message
	}
	return f.Message + ": " + f.Err.Error()
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func fail(message string, err error) error {
	return &Failure{Message: message, Err: err}
}

func loadFailed(message string, err error) error {
	return fail(message, fmt.Errorf("%w: %w", ErrLoadFailed, err))
}

// UserMessage returns the user-facing message of err.
func UserMessage(err error) string {
	var f *Failure
	if errors.As(err, &f) {
		return f.Message
	}
	return "Something went wrong."
}

// SessionIDFromQuery reads the session page parameter.
func SessionIDFromQuery(query url.Values) string {
	return strings.TrimSpace(query.Get("session"))
}

// Options tune page behavior. Zero values pick defaults.
type Options struct {
	Highlight time.Duration
	Now       func() time.Time
	Location  *time.Location
}

func (o Options) withDefaults() Options {
	if o.Highlight <= 0 {
		o.Highlight = DefaultHighlight
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	return o
}

// Visit is one user's page visit: a wallet session shared by the voting
// and admin pages. Callers hold the lock while driving any page.
type Visit struct {
	sync.Mutex

	ID     string
	Wallet *wallet.Session
	Voting *VotingPage
	Admin  *AdminPage
}

func NewVisit(id string, reader ledger.Reader, connector *wallet.Connector, opts Options) *Visit {
	session := wallet.NewSession(connector)
	return &Visit{
		ID:     id,
		Wallet: session,
		Voting: NewVotingPage(reader, session, opts),
		Admin:  NewAdminPage(reader, session, opts),
	}
}

var endDateLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseEndDate accepts Unix seconds, RFC 3339, or a datetime-local value
// interpreted in loc.
func ParseEndDate(input string, loc *time.Location) (int64, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, ErrInvalidEndDate
	}

	if secs, err := strconv.ParseInt(input, 10, 64); err == nil {
		if secs <= 0 {
			return 0, ErrInvalidEndDate
		}
		return secs, nil
	}

	if t, err := time.Parse(time.RFC3339, input); err == nil {
		return t.Unix(), nil
	}
	for _, layout := range endDateLayouts {
		if t, err := time.ParseInLocation(layout, input, loc); err == nil {
			return t.Unix(), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidEndDate, input)
}
