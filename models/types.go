package models

import "time"

// Election status constants
const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// SystemSender is the reserved chat username for server announcements
const SystemSender = "System"

// Ledger entry kinds
const (
	EntryBonus       = "bonus"
	EntryVote        = "vote"
	EntryPayout      = "payout"
	EntryTransferIn  = "transfer_in"
	EntryTransferOut = "transfer_out"
)

// Election defaults
const (
	DefaultVoteThreshold = 100
	DefaultEntryBonus    = 200
	DefaultVoteCost      = 50
)

// Request types

type CreateElectionRequest struct {
	Slug          string     `json:"slug,omitempty"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Candidates    []string   `json:"candidates"`
	VoteThreshold *int64     `json:"voteThreshold,omitempty"`
	EntryBonus    *int64     `json:"entryBonus,omitempty"`
	VoteCost      *int64     `json:"voteCost,omitempty"`
	IsVisible     *bool      `json:"isVisible,omitempty"`
	StartsAt      *time.Time `json:"startsAt,omitempty"`
	EndsAt        *time.Time `json:"endsAt,omitempty"`
}

type VisibilityRequest struct {
	IsVisible *bool `json:"isVisible"`
}

// Amount is accepted for older clients; the election's vote cost is charged.
type StakeRequest struct {
	Username   string `json:"username"`
	ElectionID string `json:"electionId"`
	Candidate  string `json:"candidate"`
	Amount     int64  `json:"amount,omitempty"`
}

type ResolveRequest struct {
	ElectionID string `json:"electionId"`
	Winner     string `json:"winner"`
}

type TransferRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount int64  `json:"amount"`
}

// Response types

type VotesResponse struct {
	Votes     map[string]int64 `json:"votes"`
	Threshold int64            `json:"threshold"`
	Winner    *string          `json:"winner"`
	Status    string           `json:"status"`
	VoteCost  int64            `json:"voteCost"`
}

type PayoutsResponse struct {
	Payouts  map[string]int64 `json:"payouts"`
	HasVoted bool             `json:"hasVoted"`
}

type StakeResponse struct {
	Success bool             `json:"success"`
	Balance int64            `json:"balance"`
	Votes   map[string]int64 `json:"votes"`
	Winner  *string          `json:"winner,omitempty"`
}

type ResolveResponse struct {
	Success         bool           `json:"success"`
	Winner          string         `json:"winner"`
	AlreadyResolved bool           `json:"alreadyResolved"`
	Results         []PayoutResult `json:"results"`
}

type TransferResponse struct {
	Success     bool  `json:"success"`
	FromBalance int64 `json:"fromBalance"`
	ToBalance   int64 `json:"toBalance"`
}

// Domain types

type Account struct {
	Username string `json:"username"`
	Balance  int64  `json:"balance"`
}

type Election struct {
	ID            string           `json:"id"`
	Slug          *string          `json:"slug,omitempty"`
	Title         string           `json:"title"`
	Description   string           `json:"description"`
	Candidates    []string         `json:"candidates"`
	Status        string           `json:"status"`
	Winner        *string          `json:"winner"`
	VoteThreshold int64            `json:"voteThreshold"`
	Votes         map[string]int64 `json:"voteCounts"`
	EntryBonus    int64            `json:"entryBonus"`
	VoteCost      int64            `json:"voteCost"`
	IsVisible     bool             `json:"isVisible"`
	CreatedAt     time.Time        `json:"createdAt"`
	StartsAt      *time.Time       `json:"startsAt,omitempty"`
	EndsAt        *time.Time       `json:"endsAt,omitempty"`
	ClosedAt      *time.Time       `json:"closedAt,omitempty"`
}

// HasCandidate reports whether name is on the ballot
func (e *Election) HasCandidate(name string) bool {
	for _, c := range e.Candidates {
		if c == name {
			return true
		}
	}
	return false
}

type Participation struct {
	ID               string           `json:"id"`
	Username         string           `json:"username"`
	ElectionID       string           `json:"electionId"`
	HasJoined        bool             `json:"hasJoined"`
	HasReceivedBonus bool             `json:"hasReceivedBonus"`
	HasVoted         bool             `json:"hasVoted"`
	Payouts          map[string]int64 `json:"payouts"`
	JoinedAt         time.Time        `json:"joinedAt"`
}

type Stake struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	ElectionID    string    `json:"electionId"`
	Candidate     string    `json:"candidate"`
	Amount        int64     `json:"amount"`
	BalanceChange int64     `json:"balanceChange"`
	CreatedAt     time.Time `json:"createdAt"`
}

type ChatMessage struct {
	ID         string    `json:"id"`
	ElectionID string    `json:"electionId"`
	Username   string    `json:"username"`
	Message    string    `json:"message"`
	Time       time.Time `json:"time"`
}

type LedgerEntry struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Kind         string    `json:"kind"`
	Amount       int64     `json:"amount"`
	BalanceAfter int64     `json:"balanceAfter"`
	ElectionID   *string   `json:"electionId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// PayoutResult is one voter's share of a resolution
type PayoutResult struct {
	Username      string `json:"username"`
	Candidate     string `json:"candidate"`
	Amount        int64  `json:"amount"`
	BalanceChange int64  `json:"balanceChange"`
	Balance       int64  `json:"balance"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
