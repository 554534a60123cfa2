package storage

import (
	"encoding/binary"
	"fmt"

	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"

	"github.com/vocdoni/confidential-tally/types"
)

// AddProposal allocates the next proposal id, assigns it to the proposal
// and stores it. Id allocation and the proposal write happen in the same
// transaction, so ids are monotonic and never reused.
func (s *Storage) AddProposal(p *types.Proposal) (uint64, error) {
	if p == nil {
		return 0, fmt.Errorf("nil proposal")
	}
	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	baseTx := s.db.WriteTx()
	meta := prefixeddb.NewPrefixedWriteTx(baseTx, metaPrefix)

	next := uint64(1)
	if data, err := meta.Get(nextIDKey); err == nil {
		next = binary.BigEndian.Uint64(data)
	} else if err != db.ErrKeyNotFound {
		baseTx.Discard()
		return 0, fmt.Errorf("read proposal id counter: %w", err)
	}
	p.ID = next

	counter := make([]byte, 8)
	binary.BigEndian.PutUint64(counter, next+1)
	if err := meta.Set(nextIDKey, counter); err != nil {
		baseTx.Discard()
		return 0, fmt.Errorf("update proposal id counter: %w", err)
	}

	data, err := encodeArtifact(p)
	if err != nil {
		baseTx.Discard()
		return 0, fmt.Errorf("encode proposal: %w", err)
	}
	proposals := prefixeddb.NewPrefixedWriteTx(baseTx, proposalPrefix)
	if err := proposals.Set(proposalKey(p.ID), data); err != nil {
		baseTx.Discard()
		return 0, fmt.Errorf("store proposal: %w", err)
	}
	if err := baseTx.Commit(); err != nil {
		return 0, fmt.Errorf("commit proposal: %w", err)
	}
	return p.ID, nil
}

// Proposal retrieves a proposal by id. Returns ErrNotFound if it does not
// exist.
func (s *Storage) Proposal(id uint64) (*types.Proposal, error) {
	p := &types.Proposal{}
	if err := s.getArtifact(proposalPrefix, proposalKey(id), p); err != nil {
		return nil, err
	}
	return p, nil
}

// SetProposal overwrites an existing proposal record.
func (s *Storage) SetProposal(p *types.Proposal) error {
	if p == nil {
		return fmt.Errorf("nil proposal")
	}
	return s.setArtifact(proposalPrefix, proposalKey(p.ID), p)
}

// ListProposals returns the ids of all stored proposals in creation order.
func (s *Storage) ListProposals() ([]uint64, error) {
	rd := prefixeddb.NewPrefixedReader(s.db, proposalPrefix)
	var ids []uint64
	if err := rd.Iterate(nil, func(k, _ []byte) bool {
		if len(k) == 8 {
			ids = append(ids, binary.BigEndian.Uint64(k))
		}
		return true
	}); err != nil {
		return nil, fmt.Errorf("iterate proposals: %w", err)
	}
	return ids, nil
}
