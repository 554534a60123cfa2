package api

import (
	"encoding/json"
	"net/http"

	"go.vocdoni.io/dvote/log"

	"github.com/vocdoni/confidential-tally/crypto/ethereum"
)

// newVote submits an encrypted ballot
// POST /votes
func (a *API) newVote(w http.ResponseWriter, r *http.Request) {
	vote := &Vote{}
	if err := json.NewDecoder(r.Body).Decode(vote); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if vote.Ballot == nil || vote.Ballot.Choice == nil {
		ErrMalformedBody.Withf("missing ballot").Write(w)
		return
	}

	// The recovered address is the voter identity; the signed message binds
	// the ciphertext to the proposal so a ballot cannot be replayed.
	msg := VoteMessage(vote.ProposalID, vote.Ballot.Choice)
	voter, err := ethereum.AddrFromSignature(msg, vote.Signature)
	if err != nil {
		ErrInvalidSignature.Withf("could not extract address from signature: %v", err).Write(w)
		return
	}

	if err := a.engine.SubmitVote(r.Context(), vote.ProposalID, voter, vote.Ballot); err != nil {
		fromEngineError(err).Write(w)
		return
	}
	log.Infow("vote submitted", "proposalId", vote.ProposalID, "voter", voter.Hex())
	httpWriteOK(w)
}
