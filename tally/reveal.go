package tally

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.vocdoni.io/dvote/log"

	"github.com/vocdoni/confidential-tally/crypto/elgamal"
	"github.com/vocdoni/confidential-tally/storage"
	"github.com/vocdoni/confidential-tally/types"
)

// RequestReveal issues a batched decryption request for the two tallies of
// an ended proposal and returns the generated request id without waiting
// for the oracle. The request record is persisted before dispatch, so a
// callback can always be correlated back to its proposal, even one racing
// this call. At most one request per proposal may be pending.
func (e *Engine) RequestReveal(ctx context.Context, caller common.Address,
	proposalID uint64) (string, error) {
	if err := e.requireAdmin(caller); err != nil {
		return "", err
	}
	lk := e.proposalLock(proposalID)
	lk.Lock()
	defer lk.Unlock()

	p, err := e.Proposal(proposalID)
	if err != nil {
		return "", err
	}
	switch p.Status {
	case types.ProposalRevealed:
		return "", ErrAlreadyRevealed
	case types.ProposalEnded:
	default:
		return "", ErrNotAwaitingReveal
	}

	req := &types.DecryptionRequest{
		RequestID:  uuid.NewString(),
		ProposalID: proposalID,
		Status:     types.RequestPending,
		Ciphertexts: []types.HexBytes{
			append(types.HexBytes{}, p.YesTally...),
			append(types.HexBytes{}, p.NoTally...),
		},
		IssuedAt: time.Now(),
	}
	if err := e.stg.AddDecryptionRequest(req); err != nil {
		if err == storage.ErrRequestPending {
			return "", ErrRevealPending
		}
		return "", fmt.Errorf("failed to store decryption request: %w", err)
	}
	if err := e.oracle.RequestDecryption(ctx, req.RequestID, req.Ciphertexts); err != nil {
		// Roll the request back so the admin can retry.
		req.Status = types.RequestRejected
		req.ResolvedAt = time.Now()
		if rerr := e.stg.ResolveDecryptionRequest(req, true); rerr != nil {
			log.Errorf("failed to roll back request %s: %v", req.RequestID, rerr)
		}
		return "", fmt.Errorf("oracle dispatch failed: %w", err)
	}
	log.Infow("decryption requested", "proposal", proposalID, "request", req.RequestID)
	return req.RequestID, nil
}

// AbandonReveal marks the proposal's outstanding request Rejected and
// clears the pending slot so a fresh RequestReveal can be issued. This is
// the operator escape hatch for a lost callback or an integrity failure.
func (e *Engine) AbandonReveal(ctx context.Context, caller common.Address,
	proposalID uint64) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	lk := e.proposalLock(proposalID)
	lk.Lock()
	defer lk.Unlock()

	if _, err := e.Proposal(proposalID); err != nil {
		return err
	}
	requestID, err := e.stg.PendingRequestID(proposalID)
	if err != nil {
		if err == storage.ErrNotFound {
			return ErrUnknownRequest
		}
		return err
	}
	req, err := e.stg.DecryptionRequest(requestID)
	if err != nil {
		return err
	}
	if req.Status == types.RequestPending {
		req.Status = types.RequestRejected
	}
	req.ResolvedAt = time.Now()
	if err := e.stg.ResolveDecryptionRequest(req, true); err != nil {
		return fmt.Errorf("failed to abandon request: %w", err)
	}
	log.Warnw("reveal abandoned", "proposal", proposalID, "request", requestID)
	return nil
}

// HandleDecryptionCallback ingests an oracle callback. The request id is
// the only correlation handle: the stored request record routes the
// cleartexts to their proposal. Duplicate or forged deliveries are
// rejected by the request state machine without touching proposal state.
func (e *Engine) HandleDecryptionCallback(ctx context.Context, requestID string,
	cleartexts []uint64, proof *elgamal.DecryptionProof) error {
	req, err := e.stg.DecryptionRequest(requestID)
	if err != nil {
		if err == storage.ErrNotFound {
			log.Warnw("callback for unknown request", "request", requestID)
			return ErrUnknownRequest
		}
		return err
	}

	lk := e.proposalLock(req.ProposalID)
	lk.Lock()
	defer lk.Unlock()

	// Re-read under the lock: a concurrent callback may have resolved it.
	req, err = e.stg.DecryptionRequest(requestID)
	if err != nil {
		return err
	}
	if req.Status != types.RequestPending {
		log.Warnw("callback for resolved request", "request", requestID,
			"status", req.Status.String())
		return ErrRequestNotPending
	}
	p, err := e.Proposal(req.ProposalID)
	if err != nil {
		return err
	}

	if err := e.verifyCallback(req, cleartexts, proof); err != nil {
		// Verification failures free the pending slot so the admin can ask
		// the oracle again.
		req.Status = types.RequestRejected
		req.ResolvedAt = time.Now()
		if rerr := e.stg.ResolveDecryptionRequest(req, true); rerr != nil {
			log.Errorf("failed to reject request %s: %v", requestID, rerr)
		}
		log.Warnw("decryption callback rejected", "request", requestID,
			"proposal", req.ProposalID, "error", err.Error())
		return err
	}

	yes, no := cleartexts[0], cleartexts[1]
	if yes+no != p.TotalVoters {
		// An arithmetic mismatch means the encrypted state or the oracle is
		// compromised. Keep the pending slot occupied so no new request can
		// be issued without an explicit AbandonReveal.
		req.Status = types.RequestRejected
		req.ResolvedAt = time.Now()
		if rerr := e.stg.ResolveDecryptionRequest(req, false); rerr != nil {
			log.Errorf("failed to reject request %s: %v", requestID, rerr)
		}
		log.Errorf("tally integrity failure on proposal %d: yes=%d no=%d voters=%d",
			p.ID, yes, no, p.TotalVoters)
		e.publish(types.EventIntegrityFailure, &types.IntegrityFailure{
			ProposalID:  p.ID,
			RequestID:   requestID,
			YesVotes:    yes,
			NoVotes:     no,
			TotalVoters: p.TotalVoters,
		})
		return ErrTallyMismatch
	}

	now := time.Now()
	req.Status = types.RequestFulfilled
	req.ResolvedAt = now
	p.Status = types.ProposalRevealed
	p.FinalYes = yes
	p.FinalNo = no
	p.RevealedAt = now
	if err := e.stg.CommitReveal(p, req); err != nil {
		return fmt.Errorf("failed to commit reveal: %w", err)
	}
	log.Infow("results revealed", "proposal", p.ID, "yes", yes, "no", no,
		"totalVoters", p.TotalVoters)
	e.publish(types.EventResultsRevealed, &types.ResultsRevealed{
		ProposalID: p.ID,
		YesVotes:   yes,
		NoVotes:    no,
	})
	return nil
}

// verifyCallback checks the shape of the cleartexts and the decryption
// proof against the ciphertext snapshot the request was issued with.
func (e *Engine) verifyCallback(req *types.DecryptionRequest,
	cleartexts []uint64, proof *elgamal.DecryptionProof) error {
	if len(cleartexts) != types.CleartextsPerReveal {
		return fmt.Errorf("%w: expected %d cleartexts, got %d",
			ErrInvalidDecryptionProof, types.CleartextsPerReveal, len(cleartexts))
	}
	if proof == nil {
		return fmt.Errorf("%w: missing proof", ErrInvalidDecryptionProof)
	}
	ciphertexts := make([]*elgamal.Ciphertext, len(req.Ciphertexts))
	for i, data := range req.Ciphertexts {
		ct, err := elgamal.DeserializeCiphertext(data)
		if err != nil {
			return fmt.Errorf("corrupt ciphertext snapshot: %w", err)
		}
		ciphertexts[i] = ct
	}
	if err := proof.Verify(e.tallyKey, req.RequestID, ciphertexts, cleartexts); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDecryptionProof, err)
	}
	return nil
}
