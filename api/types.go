package api

import (
	"fmt"
	"time"

	"github.com/vocdoni/confidential-tally/crypto/elgamal"
	"github.com/vocdoni/confidential-tally/types"
)

// NewProposal is the request to create a proposal. Times are unix seconds
// so the signed message is deterministic. The signature covers the output
// of NewProposalMessage and must recover to the admin address.
type NewProposal struct {
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	StartTime   int64          `json:"startTime"`
	EndTime     int64          `json:"endTime"`
	Signature   types.HexBytes `json:"signature"`
}

// ProposalResponse is the response to a proposal creation request.
type ProposalResponse struct {
	ProposalID uint64 `json:"proposalId"`
}

// ProposalList is the response to a proposal listing request.
type ProposalList struct {
	Proposals []uint64 `json:"proposals"`
}

// LifecycleRequest authorizes an admin lifecycle action (end, reveal,
// abandon) on the proposal in the URL. The signature covers the output of
// LifecycleMessage for the matching action.
type LifecycleRequest struct {
	Signature types.HexBytes `json:"signature"`
}

// RevealResponse is the response to a reveal request.
type RevealResponse struct {
	RequestID string `json:"requestId"`
}

// Vote is the encrypted ballot submission. The signature covers the output
// of VoteMessage, binding the ballot to the proposal and the voter.
type Vote struct {
	ProposalID uint64          `json:"proposalId"`
	Ballot     *elgamal.Ballot `json:"ballot"`
	Signature  types.HexBytes  `json:"signature"`
}

// Callback is the decryption oracle callback payload.
type Callback struct {
	RequestID  string                   `json:"requestId"`
	Cleartexts []uint64                 `json:"cleartexts"`
	Proof      *elgamal.DecryptionProof `json:"proof"`
}

// PublicKeyResponse carries the tally encryption key as affine
// coordinates.
type PublicKeyResponse struct {
	PublicKey []types.BigInt `json:"publicKey"`
}

// NewProposalMessage is the canonical payload an admin signs to create a
// proposal.
func NewProposalMessage(title string, startTime, endTime int64) []byte {
	return []byte(fmt.Sprintf("create-proposal:%s:%d:%d", title, startTime, endTime))
}

// LifecycleMessage is the canonical payload an admin signs for a lifecycle
// action, one of "end", "reveal" or "abandon".
func LifecycleMessage(action string, proposalID uint64) []byte {
	return []byte(fmt.Sprintf("%s-proposal:%d", action, proposalID))
}

// VoteMessage is the canonical payload a voter signs, binding the
// encrypted choice to the proposal so a ballot cannot be replayed
// elsewhere.
func VoteMessage(proposalID uint64, choice *elgamal.Ciphertext) []byte {
	return []byte(fmt.Sprintf("vote:%d:%x", proposalID, choice.Serialize()))
}

// windowTime converts a unix timestamp from a request body.
func windowTime(unix int64) time.Time {
	return time.Unix(unix, 0)
}
