package types

import (
	"encoding/json"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ProposalStatus is the lifecycle state of a proposal. The only valid
// transitions are Active -> Ended -> Revealed.
type ProposalStatus uint8

const (
	// ProposalActive accepts votes while the voting window is open.
	ProposalActive ProposalStatus = iota
	// ProposalEnded no longer accepts votes and awaits the reveal of its
	// encrypted tallies.
	ProposalEnded
	// ProposalRevealed is terminal: the plaintext totals are public.
	ProposalRevealed
)

func (s ProposalStatus) String() string {
	switch s {
	case ProposalActive:
		return "active"
	case ProposalEnded:
		return "ended"
	case ProposalRevealed:
		return "revealed"
	}
	return "unknown"
}

// Proposal is the durable record of a time-bound yes/no vote. The two
// tallies are opaque serialized ciphertexts, only ever replaced by the
// aggregator with the homomorphic sum of their previous value and an
// accepted ballot. TotalVoters is plaintext bookkeeping: it counts accepted
// votes and never leaks an individual choice.
type Proposal struct {
	ID          uint64         `json:"id"                   cbor:"0,keyasint"`
	Title       string         `json:"title"                cbor:"1,keyasint"`
	Description string         `json:"description"          cbor:"2,keyasint,omitempty"`
	StartTime   time.Time      `json:"startTime"            cbor:"3,keyasint"`
	EndTime     time.Time      `json:"endTime"              cbor:"4,keyasint"`
	Status      ProposalStatus `json:"status"               cbor:"5,keyasint"`
	YesTally    HexBytes       `json:"yesTally"             cbor:"6,keyasint"`
	NoTally     HexBytes       `json:"noTally"              cbor:"7,keyasint"`
	TotalVoters uint64         `json:"totalVoters"          cbor:"8,keyasint"`
	FinalYes    uint64         `json:"finalYes,omitempty"   cbor:"9,keyasint,omitempty"`
	FinalNo     uint64         `json:"finalNo,omitempty"    cbor:"10,keyasint,omitempty"`
	RevealedAt  time.Time      `json:"revealedAt,omitempty" cbor:"11,keyasint,omitempty"`
}

func (p *Proposal) String() string {
	data, err := json.Marshal(p)
	if err != nil {
		return ""
	}
	return string(data)
}

// VoteRecord marks that a voter has cast a ballot on a proposal. Its mere
// existence is the double-vote guard: records are created exactly once and
// never deleted.
type VoteRecord struct {
	ProposalID uint64         `json:"proposalId" cbor:"0,keyasint"`
	Voter      common.Address `json:"voter"      cbor:"1,keyasint"`
	Timestamp  time.Time      `json:"timestamp"  cbor:"2,keyasint"`
}
