package api

const (
	// PingEndpoint is the endpoint for checking the API status
	PingEndpoint = "/ping"
	// PublicKeyEndpoint returns the tally encryption key clients encrypt
	// their ballots under
	PublicKeyEndpoint = "/publickey"
	// ProposalsEndpoint is the endpoint for creating and listing proposals
	ProposalsEndpoint = "/proposals"
	// ProposalEndpoint is the endpoint to get the proposal info
	ProposalURLParam = "proposalId"
	ProposalEndpoint = "/proposals/{" + ProposalURLParam + "}"
	// EndProposalEndpoint closes the voting phase of a proposal
	EndProposalEndpoint = "/proposals/{" + ProposalURLParam + "}/end"
	// RevealProposalEndpoint issues a decryption request for an ended proposal
	RevealProposalEndpoint = "/proposals/{" + ProposalURLParam + "}/reveal"
	// AbandonProposalEndpoint discards a stuck decryption request
	AbandonProposalEndpoint = "/proposals/{" + ProposalURLParam + "}/abandon"
	// VotesEndpoint is the endpoint for submitting a vote
	VotesEndpoint = "/votes"
	// CallbackEndpoint is the ingress for decryption oracle callbacks
	CallbackEndpoint = "/callback"
)
