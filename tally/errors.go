package tally

import "errors"

// Sentinel errors for every rejected path of the engine. The API layer
// maps these to its numeric error table; tests match on them directly.
var (
	ErrUnauthorized           = errors.New("caller is not the admin")
	ErrProposalNotFound       = errors.New("proposal not found")
	ErrProposalNotActive      = errors.New("proposal is not active")
	ErrVotingWindowClosed     = errors.New("voting window is closed")
	ErrAlreadyVoted           = errors.New("voter has already voted")
	ErrInvalidProof           = errors.New("invalid ballot proof")
	ErrRevealPending          = errors.New("a decryption request is already pending")
	ErrNotAwaitingReveal      = errors.New("proposal is not awaiting reveal")
	ErrAlreadyRevealed        = errors.New("proposal is already revealed")
	ErrUnknownRequest         = errors.New("unknown decryption request")
	ErrRequestNotPending      = errors.New("decryption request is not pending")
	ErrInvalidDecryptionProof = errors.New("invalid decryption proof")
	ErrTallyMismatch          = errors.New("revealed totals do not match voter count")
	ErrResultsNotRevealed     = errors.New("results not yet revealed")
	ErrEmptyTitle             = errors.New("proposal title is empty")
	ErrInvalidWindow          = errors.New("invalid voting window")
)
