package types

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// EventType identifies the kind of fact published on the event bus.
type EventType string

const (
	EventProposalCreated  EventType = "proposal-created"
	EventVoteAccepted     EventType = "vote-accepted"
	EventResultsRevealed  EventType = "results-revealed"
	EventIntegrityFailure EventType = "integrity-failure"
)

// ProposalCreated is published once when a proposal is stored.
type ProposalCreated struct {
	ProposalID uint64    `json:"proposalId"`
	Title      string    `json:"title"`
	StartTime  time.Time `json:"startTime"`
	EndTime    time.Time `json:"endTime"`
}

// VoteAccepted is published for every vote folded into the tallies.
type VoteAccepted struct {
	ProposalID uint64         `json:"proposalId"`
	Voter      common.Address `json:"voter"`
}

// ResultsRevealed is published when a verified callback transitions a
// proposal to its terminal state.
type ResultsRevealed struct {
	ProposalID uint64 `json:"proposalId"`
	YesVotes   uint64 `json:"yesVotes"`
	NoVotes    uint64 `json:"noVotes"`
}

// IntegrityFailure is the loud async failure signal: the decrypted totals
// did not reconcile with the recorded voter count. The proposal is left in
// its ended state and requires operator investigation.
type IntegrityFailure struct {
	ProposalID  uint64 `json:"proposalId"`
	RequestID   string `json:"requestId"`
	YesVotes    uint64 `json:"yesVotes"`
	NoVotes     uint64 `json:"noVotes"`
	TotalVoters uint64 `json:"totalVoters"`
}
