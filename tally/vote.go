package tally

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.vocdoni.io/dvote/log"

	"github.com/vocdoni/confidential-tally/crypto/elgamal"
	"github.com/vocdoni/confidential-tally/types"
)

// SubmitVote validates an encrypted ballot and folds it into the
// proposal's tallies. The checks run in a fixed order so callers get a
// stable rejection reason: existence, lifecycle state, voting window,
// double-vote guard, validity proof. The fold and the vote record land in
// a single storage commit under the proposal's mutex.
func (e *Engine) SubmitVote(ctx context.Context, proposalID uint64,
	voter common.Address, ballot *elgamal.Ballot) error {
	lk := e.proposalLock(proposalID)
	lk.Lock()
	defer lk.Unlock()

	p, err := e.Proposal(proposalID)
	if err != nil {
		return err
	}
	if p.Status != types.ProposalActive {
		return ErrProposalNotActive
	}
	now := time.Now()
	if now.Before(p.StartTime) || now.After(p.EndTime) {
		return ErrVotingWindowClosed
	}
	voted, err := e.stg.HasVoted(proposalID, voter)
	if err != nil {
		return fmt.Errorf("failed to check vote record: %w", err)
	}
	if voted {
		return ErrAlreadyVoted
	}
	if err := ballot.Verify(e.tallyKey); err != nil {
		log.Warnw("ballot proof rejected", "proposal", proposalID,
			"voter", voter.Hex(), "error", err.Error())
		return ErrInvalidProof
	}

	yes, no, err := foldBallot(p, ballot)
	if err != nil {
		return err
	}
	p.YesTally = yes
	p.NoTally = no
	p.TotalVoters++
	rec := &types.VoteRecord{
		ProposalID: proposalID,
		Voter:      voter,
		Timestamp:  now,
	}
	if err := e.stg.CommitVote(p, rec); err != nil {
		return fmt.Errorf("failed to commit vote: %w", err)
	}
	log.Infow("vote accepted", "proposal", proposalID, "voter", voter.Hex(),
		"totalVoters", p.TotalVoters)
	e.publish(types.EventVoteAccepted, &types.VoteAccepted{
		ProposalID: proposalID,
		Voter:      voter,
	})
	return nil
}

// foldBallot returns the updated serialized tallies. The yes counter
// absorbs the encrypted choice as-is; the no counter absorbs its
// homomorphic complement Enc(1; k=0) - choice, derived here rather than
// taken from the voter so a malformed complement can never skew the
// count.
func foldBallot(p *types.Proposal, ballot *elgamal.Ballot) (types.HexBytes, types.HexBytes, error) {
	yesTally, err := elgamal.DeserializeCiphertext(p.YesTally)
	if err != nil {
		return nil, nil, fmt.Errorf("corrupt yes tally: %w", err)
	}
	noTally, err := elgamal.DeserializeCiphertext(p.NoTally)
	if err != nil {
		return nil, nil, fmt.Errorf("corrupt no tally: %w", err)
	}
	one := elgamal.NewCiphertext().SetPlaintext(big.NewInt(1))
	complement := elgamal.NewCiphertext().Sub(one, ballot.Choice)
	yesTally.Add(yesTally, ballot.Choice)
	noTally.Add(noTally, complement)
	return yesTally.Serialize(), noTally.Serialize(), nil
}
