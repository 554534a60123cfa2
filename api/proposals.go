package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"go.vocdoni.io/dvote/log"

	"github.com/vocdoni/confidential-tally/crypto/ethereum"
	"github.com/vocdoni/confidential-tally/types"
)

// newProposal creates a new proposal
// POST /proposals
func (a *API) newProposal(w http.ResponseWriter, r *http.Request) {
	p := &NewProposal{}
	if err := json.NewDecoder(r.Body).Decode(p); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}

	// Extract the caller address from the signature
	msg := NewProposalMessage(p.Title, p.StartTime, p.EndTime)
	address, err := ethereum.AddrFromSignature(msg, p.Signature)
	if err != nil {
		ErrInvalidSignature.Withf("could not extract address from signature: %v", err).Write(w)
		return
	}

	id, err := a.engine.CreateProposal(r.Context(), address, p.Title, p.Description,
		windowTime(p.StartTime), windowTime(p.EndTime))
	if err != nil {
		fromEngineError(err).Write(w)
		return
	}
	log.Infow("new proposal", "proposalId", id, "title", p.Title, "creator", address.Hex())
	httpWriteJSON(w, &ProposalResponse{ProposalID: id})
}

// listProposals returns all proposal ids in creation order
// GET /proposals
func (a *API) listProposals(w http.ResponseWriter, r *http.Request) {
	ids, err := a.engine.ListProposals()
	if err != nil {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	if ids == nil {
		ids = []uint64{}
	}
	httpWriteJSON(w, &ProposalList{Proposals: ids})
}

// proposal returns the stored proposal record
// GET /proposals/{proposalId}
func (a *API) proposal(w http.ResponseWriter, r *http.Request) {
	id, ok := a.urlProposalID(w, r)
	if !ok {
		return
	}
	p, err := a.engine.Proposal(id)
	if err != nil {
		fromEngineError(err).Write(w)
		return
	}
	httpWriteJSON(w, p)
}

// endProposal closes the voting phase of a proposal
// POST /proposals/{proposalId}/end
func (a *API) endProposal(w http.ResponseWriter, r *http.Request) {
	id, ok := a.urlProposalID(w, r)
	if !ok {
		return
	}
	address, ok := a.lifecycleCaller(w, r, "end", id)
	if !ok {
		return
	}
	if err := a.engine.EndProposal(r.Context(), address, id); err != nil {
		fromEngineError(err).Write(w)
		return
	}
	httpWriteOK(w)
}

// revealProposal issues a decryption request for an ended proposal
// POST /proposals/{proposalId}/reveal
func (a *API) revealProposal(w http.ResponseWriter, r *http.Request) {
	id, ok := a.urlProposalID(w, r)
	if !ok {
		return
	}
	address, ok := a.lifecycleCaller(w, r, "reveal", id)
	if !ok {
		return
	}
	requestID, err := a.engine.RequestReveal(r.Context(), address, id)
	if err != nil {
		fromEngineError(err).Write(w)
		return
	}
	httpWriteJSON(w, &RevealResponse{RequestID: requestID})
}

// abandonProposal discards a stuck decryption request
// POST /proposals/{proposalId}/abandon
func (a *API) abandonProposal(w http.ResponseWriter, r *http.Request) {
	id, ok := a.urlProposalID(w, r)
	if !ok {
		return
	}
	address, ok := a.lifecycleCaller(w, r, "abandon", id)
	if !ok {
		return
	}
	if err := a.engine.AbandonReveal(r.Context(), address, id); err != nil {
		fromEngineError(err).Write(w)
		return
	}
	httpWriteOK(w)
}

// publicKey returns the tally encryption key
// GET /publickey
func (a *API) publicKey(w http.ResponseWriter, r *http.Request) {
	x, y := a.engine.PublicKey().Point()
	httpWriteJSON(w, &PublicKeyResponse{
		PublicKey: []types.BigInt{types.BigInt(*x), types.BigInt(*y)},
	})
}

// urlProposalID parses the proposal id URL parameter.
func (a *API) urlProposalID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	raw := chi.URLParam(r, ProposalURLParam)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		ErrMalformedProposalID.Withf("%q: %v", raw, err).Write(w)
		return 0, false
	}
	return id, true
}

// lifecycleCaller decodes the signed lifecycle request body and recovers
// the caller address.
func (a *API) lifecycleCaller(w http.ResponseWriter, r *http.Request,
	action string, proposalID uint64) (common.Address, bool) {
	req := &LifecycleRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return common.Address{}, false
	}
	address, err := ethereum.AddrFromSignature(LifecycleMessage(action, proposalID), req.Signature)
	if err != nil {
		ErrInvalidSignature.Withf("could not extract address from signature: %v", err).Write(w)
		return common.Address{}, false
	}
	return address, true
}
