package storage

import (
	"errors"
	"fmt"

	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"

	"github.com/vocdoni/confidential-tally/types"
)

// AddDecryptionRequest stores a new pending decryption request and its
// pending-index entry. It fails with ErrRequestPending if the proposal
// already has a pending request, so at most one can exist at a time.
func (s *Storage) AddDecryptionRequest(req *types.DecryptionRequest) error {
	if req == nil || req.RequestID == "" {
		return fmt.Errorf("invalid decryption request")
	}
	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	baseTx := s.db.WriteTx()
	pending := prefixeddb.NewPrefixedWriteTx(baseTx, pendingPrefix)
	if _, err := pending.Get(proposalKey(req.ProposalID)); err == nil {
		baseTx.Discard()
		return ErrRequestPending
	} else if err != db.ErrKeyNotFound {
		baseTx.Discard()
		return fmt.Errorf("read pending index: %w", err)
	}

	data, err := encodeArtifact(req)
	if err != nil {
		baseTx.Discard()
		return fmt.Errorf("encode decryption request: %w", err)
	}
	requests := prefixeddb.NewPrefixedWriteTx(baseTx, requestPrefix)
	if err := requests.Set([]byte(req.RequestID), data); err != nil {
		baseTx.Discard()
		return fmt.Errorf("store decryption request: %w", err)
	}
	if err := pending.Set(proposalKey(req.ProposalID), []byte(req.RequestID)); err != nil {
		baseTx.Discard()
		return fmt.Errorf("store pending index: %w", err)
	}
	return baseTx.Commit()
}

// DecryptionRequest retrieves a request by its id. Returns ErrNotFound for
// unknown ids.
func (s *Storage) DecryptionRequest(requestID string) (*types.DecryptionRequest, error) {
	req := &types.DecryptionRequest{}
	if err := s.getArtifact(requestPrefix, []byte(requestID), req); err != nil {
		return nil, err
	}
	return req, nil
}

// PendingRequestID returns the id of the proposal's pending request, or
// ErrNotFound if none is in flight.
func (s *Storage) PendingRequestID(proposalID uint64) (string, error) {
	rTx := prefixeddb.NewPrefixedReader(s.db, pendingPrefix)
	data, err := rTx.Get(proposalKey(proposalID))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	return string(data), nil
}

// ResolveDecryptionRequest persists a request that reached a terminal
// status. When clearPending is true the proposal's pending-index entry is
// removed as well, allowing a new request to be issued; an integrity
// failure keeps the entry so the proposal stays locked until an operator
// abandons the request explicitly.
func (s *Storage) ResolveDecryptionRequest(req *types.DecryptionRequest, clearPending bool) error {
	if req == nil || req.RequestID == "" {
		return fmt.Errorf("invalid decryption request")
	}
	s.globalLock.Lock()
	defer s.globalLock.Unlock()
	return s.resolveRequestTx(req, clearPending, nil)
}

// CommitReveal atomically persists the fulfilled request, clears the
// pending index and stores the revealed proposal.
func (s *Storage) CommitReveal(p *types.Proposal, req *types.DecryptionRequest) error {
	if p == nil {
		return fmt.Errorf("nil proposal")
	}
	s.globalLock.Lock()
	defer s.globalLock.Unlock()
	return s.resolveRequestTx(req, true, p)
}

// resolveRequestTx writes the terminal request, optionally removes the
// pending-index entry and optionally updates the proposal, all in a single
// transaction. Callers must hold globalLock.
func (s *Storage) resolveRequestTx(req *types.DecryptionRequest, clearPending bool, p *types.Proposal) error {
	baseTx := s.db.WriteTx()

	data, err := encodeArtifact(req)
	if err != nil {
		baseTx.Discard()
		return fmt.Errorf("encode decryption request: %w", err)
	}
	requests := prefixeddb.NewPrefixedWriteTx(baseTx, requestPrefix)
	if err := requests.Set([]byte(req.RequestID), data); err != nil {
		baseTx.Discard()
		return fmt.Errorf("store decryption request: %w", err)
	}

	if clearPending {
		pending := prefixeddb.NewPrefixedWriteTx(baseTx, pendingPrefix)
		if err := pending.Delete(proposalKey(req.ProposalID)); err != nil && err != db.ErrKeyNotFound {
			baseTx.Discard()
			return fmt.Errorf("clear pending index: %w", err)
		}
	}

	if p != nil {
		propData, err := encodeArtifact(p)
		if err != nil {
			baseTx.Discard()
			return fmt.Errorf("encode proposal: %w", err)
		}
		proposals := prefixeddb.NewPrefixedWriteTx(baseTx, proposalPrefix)
		if err := proposals.Set(proposalKey(p.ID), propData); err != nil {
			baseTx.Discard()
			return fmt.Errorf("store proposal: %w", err)
		}
	}
	return baseTx.Commit()
}
