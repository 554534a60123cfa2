package tally

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.vocdoni.io/dvote/log"

	"github.com/vocdoni/confidential-tally/crypto/elgamal"
	"github.com/vocdoni/confidential-tally/types"
)

// CreateProposal validates and stores a new proposal with both tallies
// initialized to the trivial encryption of zero, the identity of the
// homomorphic fold. Returns the allocated proposal id.
func (e *Engine) CreateProposal(ctx context.Context, caller common.Address,
	title, description string, start, end time.Time) (uint64, error) {
	if err := e.requireAdmin(caller); err != nil {
		return 0, err
	}
	if strings.TrimSpace(title) == "" {
		return 0, ErrEmptyTitle
	}
	if !start.Before(end) {
		return 0, ErrInvalidWindow
	}
	zero := elgamal.NewCiphertext().SetPlaintext(big.NewInt(0)).Serialize()
	p := &types.Proposal{
		Title:       title,
		Description: description,
		StartTime:   start,
		EndTime:     end,
		Status:      types.ProposalActive,
		YesTally:    zero,
		NoTally:     append(types.HexBytes{}, zero...),
	}
	id, err := e.stg.AddProposal(p)
	if err != nil {
		return 0, fmt.Errorf("failed to store proposal: %w", err)
	}
	log.Infow("proposal created", "id", id, "title", title,
		"start", start.String(), "end", end.String())
	e.publish(types.EventProposalCreated, &types.ProposalCreated{
		ProposalID: id,
		Title:      title,
		StartTime:  start,
		EndTime:    end,
	})
	return id, nil
}

// EndProposal closes the voting phase. Only an Active proposal can be
// ended; the transition is one-way and enables RequestReveal.
func (e *Engine) EndProposal(ctx context.Context, caller common.Address, proposalID uint64) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
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
	p.Status = types.ProposalEnded
	if err := e.stg.SetProposal(p); err != nil {
		return fmt.Errorf("failed to update proposal: %w", err)
	}
	log.Infow("proposal ended", "id", proposalID, "totalVoters", p.TotalVoters)
	return nil
}

// TransferAdmin hands the admin role to a new address. The caller must be
// the current admin and the new address must be non-zero.
func (e *Engine) TransferAdmin(caller, newAdmin common.Address) error {
	e.adminMu.Lock()
	defer e.adminMu.Unlock()
	if caller != e.admin {
		return ErrUnauthorized
	}
	if newAdmin == (common.Address{}) {
		return fmt.Errorf("new admin is the zero address")
	}
	log.Infow("admin transferred", "from", caller.Hex(), "to", newAdmin.Hex())
	e.admin = newAdmin
	return nil
}
