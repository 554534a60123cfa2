package client

import (
	"fmt"

	"github.com/vocdoni/confidential-tally/api"
	"github.com/vocdoni/confidential-tally/crypto/ecc"
	"github.com/vocdoni/confidential-tally/crypto/elgamal"
	"github.com/vocdoni/confidential-tally/crypto/ethereum"
	"github.com/vocdoni/confidential-tally/types"
)

// PublicKey fetches the tally encryption key.
func (c *HTTPclient) PublicKey() (ecc.Point, error) {
	resp := &api.PublicKeyResponse{}
	if err := c.request(HTTPGET, nil, resp, api.PublicKeyEndpoint); err != nil {
		return nil, err
	}
	if len(resp.PublicKey) != 2 {
		return nil, fmt.Errorf("malformed public key response")
	}
	return ecc.NewG1().SetPoint(resp.PublicKey[0].MathBigInt(),
		resp.PublicKey[1].MathBigInt()), nil
}

// CreateProposal signs and submits a proposal creation request.
func (c *HTTPclient) CreateProposal(signer *ethereum.SignKeys, title, description string,
	startTime, endTime int64) (uint64, error) {
	sig, err := signer.Sign(api.NewProposalMessage(title, startTime, endTime))
	if err != nil {
		return 0, err
	}
	resp := &api.ProposalResponse{}
	err = c.request(HTTPPOST, &api.NewProposal{
		Title:       title,
		Description: description,
		StartTime:   startTime,
		EndTime:     endTime,
		Signature:   sig,
	}, resp, api.ProposalsEndpoint)
	if err != nil {
		return 0, err
	}
	return resp.ProposalID, nil
}

// Proposal fetches a proposal record.
func (c *HTTPclient) Proposal(proposalID uint64) (*types.Proposal, error) {
	p := &types.Proposal{}
	err := c.request(HTTPGET, nil, p, api.ProposalsEndpoint, fmt.Sprintf("%d", proposalID))
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListProposals fetches all proposal ids.
func (c *HTTPclient) ListProposals() ([]uint64, error) {
	resp := &api.ProposalList{}
	if err := c.request(HTTPGET, nil, resp, api.ProposalsEndpoint); err != nil {
		return nil, err
	}
	return resp.Proposals, nil
}

// Vote encrypts choice under the given public key, signs the ballot and
// submits it.
func (c *HTTPclient) Vote(signer *ethereum.SignKeys, publicKey ecc.Point,
	proposalID uint64, choice uint64) error {
	ballot, err := elgamal.NewBallot(publicKey, choice)
	if err != nil {
		return err
	}
	sig, err := signer.Sign(api.VoteMessage(proposalID, ballot.Choice))
	if err != nil {
		return err
	}
	return c.request(HTTPPOST, &api.Vote{
		ProposalID: proposalID,
		Ballot:     ballot,
		Signature:  sig,
	}, nil, api.VotesEndpoint)
}

// EndProposal signs and submits the end lifecycle action.
func (c *HTTPclient) EndProposal(signer *ethereum.SignKeys, proposalID uint64) error {
	return c.lifecycle(signer, "end", proposalID, nil)
}

// RevealProposal signs and submits the reveal lifecycle action, returning
// the decryption request id.
func (c *HTTPclient) RevealProposal(signer *ethereum.SignKeys, proposalID uint64) (string, error) {
	resp := &api.RevealResponse{}
	if err := c.lifecycle(signer, "reveal", proposalID, resp); err != nil {
		return "", err
	}
	return resp.RequestID, nil
}

// AbandonReveal signs and submits the abandon lifecycle action.
func (c *HTTPclient) AbandonReveal(signer *ethereum.SignKeys, proposalID uint64) error {
	return c.lifecycle(signer, "abandon", proposalID, nil)
}

func (c *HTTPclient) lifecycle(signer *ethereum.SignKeys, action string,
	proposalID uint64, out any) error {
	sig, err := signer.Sign(api.LifecycleMessage(action, proposalID))
	if err != nil {
		return err
	}
	return c.request(HTTPPOST, &api.LifecycleRequest{Signature: sig}, out,
		api.ProposalsEndpoint, fmt.Sprintf("%d", proposalID), action)
}
