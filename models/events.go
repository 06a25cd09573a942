package models

import "encoding/json"

// Realtime event names
const (
	EventJoin             = "join"
	EventLeave            = "leave"
	EventJoined           = "joined"
	EventChatHistory      = "chat:history"
	EventChatMessage      = "chat:message"
	EventVotesUpdate      = "votes:update"
	EventBalancesUpdate   = "balances:update"
	EventElectionResolved = "election:resolved"
	EventError            = "error"
)

// Envelope wraps every realtime message in both directions
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Inbound payloads

type JoinEvent struct {
	Username   string `json:"username"`
	ElectionID string `json:"electionId"`
}

type ChatSendEvent struct {
	ElectionID string `json:"electionId"`
	Username   string `json:"username"`
	Message    string `json:"message"`
}

// Outbound payloads

type JoinedPayload struct {
	Username string           `json:"username"`
	Balance  int64            `json:"balance"`
	Election Election         `json:"election"`
	Payouts  map[string]int64 `json:"payouts"`
	HasVoted bool             `json:"hasVoted"`
}

type ResolvedPayload struct {
	ElectionID string         `json:"electionId"`
	Winner     string         `json:"winner"`
	Results    []PayoutResult `json:"results"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
