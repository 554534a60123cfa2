// Package tally implements the confidential tally engine: proposal
// lifecycle administration, encrypted vote aggregation and the
// asynchronous reveal flow against an external decryption oracle.
//
// The engine never decrypts. Votes arrive as ElGamal ciphertexts with a
// binary validity proof and are folded homomorphically into two running
// counters per proposal. Plaintext totals exist only after a verified
// oracle callback, and only if they reconcile with the recorded voter
// count.
package tally

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vocdoni/confidential-tally/crypto/ecc"
	"github.com/vocdoni/confidential-tally/events"
	"github.com/vocdoni/confidential-tally/storage"
	"github.com/vocdoni/confidential-tally/types"
)

// DecryptionOracle is the dispatch side of the oracle boundary. The engine
// persists the request before calling it, so a callback racing the return
// still finds its correlation record. Implementations must not block on
// the decryption itself.
type DecryptionOracle interface {
	RequestDecryption(ctx context.Context, requestID string, ciphertexts []types.HexBytes) error
}

// Engine is the confidential tally engine. All mutations of a single
// proposal are serialized through a per-proposal mutex; the storage layer
// provides atomicity for each multi-key commit.
type Engine struct {
	stg    *storage.Storage
	oracle DecryptionOracle
	bus    *events.Bus

	// tallyKey is the ElGamal public key ballots are encrypted under and
	// the key decryption proofs are verified against. The matching private
	// key lives only in the oracle.
	tallyKey ecc.Point

	adminMu sync.RWMutex
	admin   common.Address

	locksMu sync.Mutex
	locks   map[uint64]*sync.Mutex
}

// NewEngine builds an engine over the given storage, oracle dispatcher and
// event bus. The admin address is the single authority for lifecycle
// operations until transferred.
func NewEngine(stg *storage.Storage, oracle DecryptionOracle, bus *events.Bus,
	tallyKey ecc.Point, admin common.Address) *Engine {
	return &Engine{
		stg:      stg,
		oracle:   oracle,
		bus:      bus,
		tallyKey: tallyKey,
		admin:    admin,
		locks:    make(map[uint64]*sync.Mutex),
	}
}

// PublicKey returns the tally encryption key clients encrypt ballots
// under.
func (e *Engine) PublicKey() ecc.Point {
	return e.tallyKey
}

// Admin returns the current admin address.
func (e *Engine) Admin() common.Address {
	e.adminMu.RLock()
	defer e.adminMu.RUnlock()
	return e.admin
}

func (e *Engine) requireAdmin(caller common.Address) error {
	e.adminMu.RLock()
	defer e.adminMu.RUnlock()
	if caller != e.admin {
		return ErrUnauthorized
	}
	return nil
}

// proposalLock returns the mutex serializing mutations of one proposal,
// allocating it on first use.
func (e *Engine) proposalLock(proposalID uint64) *sync.Mutex {
	e.locksMu.Lock()
	defer e.locksMu.Unlock()
	lk, ok := e.locks[proposalID]
	if !ok {
		lk = &sync.Mutex{}
		e.locks[proposalID] = lk
	}
	return lk
}

func (e *Engine) publish(eventType types.EventType, data any) {
	if e.bus != nil {
		e.bus.Publish(events.New(eventType, data))
	}
}

// Proposal returns the stored proposal record.
func (e *Engine) Proposal(proposalID uint64) (*types.Proposal, error) {
	p, err := e.stg.Proposal(proposalID)
	if err == storage.ErrNotFound {
		return nil, ErrProposalNotFound
	}
	return p, err
}

// ListProposals returns all proposal ids in creation order.
func (e *Engine) ListProposals() ([]uint64, error) {
	return e.stg.ListProposals()
}

// HasVoted reports whether the voter already holds a vote record for the
// proposal.
func (e *Engine) HasVoted(proposalID uint64, voter common.Address) (bool, error) {
	if _, err := e.Proposal(proposalID); err != nil {
		return false, err
	}
	return e.stg.HasVoted(proposalID, voter)
}

// Results returns the plaintext totals of a revealed proposal.
func (e *Engine) Results(proposalID uint64) (yes, no, totalVoters uint64, err error) {
	p, err := e.Proposal(proposalID)
	if err != nil {
		return 0, 0, 0, err
	}
	if p.Status != types.ProposalRevealed {
		return 0, 0, 0, ErrResultsNotRevealed
	}
	return p.FinalYes, p.FinalNo, p.TotalVoters, nil
}
