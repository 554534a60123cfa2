package types

import "time"

// RequestStatus is the state of a decryption request issued to the oracle.
// Fulfilled and Rejected are terminal; a request is never reused.
type RequestStatus uint8

const (
	// RequestPending awaits the oracle callback.
	RequestPending RequestStatus = iota
	// RequestFulfilled delivered verified cleartexts.
	RequestFulfilled
	// RequestRejected failed verification, was abandoned by the admin, or
	// reported an integrity failure.
	RequestRejected
)

func (s RequestStatus) String() string {
	switch s {
	case RequestPending:
		return "pending"
	case RequestFulfilled:
		return "fulfilled"
	case RequestRejected:
		return "rejected"
	}
	return "unknown"
}

// DecryptionRequest correlates an asynchronous oracle callback back to the
// proposal that requested it. The callback only carries the RequestID, so
// the ProposalID stored here is the single source of truth for routing.
// Ciphertexts snapshots the serialized tallies sent to the oracle, in the
// fixed [yes, no] order the callback decoder assumes.
type DecryptionRequest struct {
	RequestID   string        `json:"requestId"            cbor:"0,keyasint"`
	ProposalID  uint64        `json:"proposalId"           cbor:"1,keyasint"`
	Status      RequestStatus `json:"status"               cbor:"2,keyasint"`
	Ciphertexts []HexBytes    `json:"ciphertexts"          cbor:"3,keyasint"`
	IssuedAt    time.Time     `json:"issuedAt"             cbor:"4,keyasint"`
	ResolvedAt  time.Time     `json:"resolvedAt,omitempty" cbor:"5,keyasint,omitempty"`
}
