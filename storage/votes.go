package storage

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"

	"github.com/vocdoni/confidential-tally/types"
)

// voteKey builds the vote record key: proposal id followed by the voter
// address, so records of one proposal share a common iteration prefix.
func voteKey(proposalID uint64, voter common.Address) []byte {
	return append(proposalKey(proposalID), voter.Bytes()...)
}

// HasVoted reports whether a vote record exists for the voter on the
// proposal.
func (s *Storage) HasVoted(proposalID uint64, voter common.Address) (bool, error) {
	rec := &types.VoteRecord{}
	err := s.getArtifact(votePrefix, voteKey(proposalID, voter), rec)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return false, err
}

// VoteRecord retrieves the vote record of a voter on a proposal. Returns
// ErrNotFound if the voter has not voted.
func (s *Storage) VoteRecord(proposalID uint64, voter common.Address) (*types.VoteRecord, error) {
	rec := &types.VoteRecord{}
	if err := s.getArtifact(votePrefix, voteKey(proposalID, voter), rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// CountVoteRecords returns the number of vote records for a proposal.
func (s *Storage) CountVoteRecords(proposalID uint64) (uint64, error) {
	rd := prefixeddb.NewPrefixedReader(s.db, votePrefix)
	count := uint64(0)
	if err := rd.Iterate(proposalKey(proposalID), func(_, _ []byte) bool {
		count++
		return true
	}); err != nil {
		return 0, fmt.Errorf("iterate vote records: %w", err)
	}
	return count, nil
}

// CommitVote atomically stores the vote record and the updated proposal
// (incremented voter count and folded tallies). Either both writes land or
// neither does.
func (s *Storage) CommitVote(p *types.Proposal, rec *types.VoteRecord) error {
	if p == nil || rec == nil {
		return fmt.Errorf("nil proposal or vote record")
	}
	if p.ID != rec.ProposalID {
		return fmt.Errorf("vote record proposal mismatch: %d != %d", rec.ProposalID, p.ID)
	}
	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	key := voteKey(rec.ProposalID, rec.Voter)
	baseTx := s.db.WriteTx()

	votes := prefixeddb.NewPrefixedWriteTx(baseTx, votePrefix)
	if _, err := votes.Get(key); err == nil {
		baseTx.Discard()
		return fmt.Errorf("vote record already exists for %s", rec.Voter)
	} else if err != db.ErrKeyNotFound {
		baseTx.Discard()
		return fmt.Errorf("read vote record: %w", err)
	}

	recData, err := encodeArtifact(rec)
	if err != nil {
		baseTx.Discard()
		return fmt.Errorf("encode vote record: %w", err)
	}
	if err := votes.Set(key, recData); err != nil {
		baseTx.Discard()
		return fmt.Errorf("store vote record: %w", err)
	}

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
	return baseTx.Commit()
}
