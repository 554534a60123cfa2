//nolint:lll
package api

import (
	"fmt"
	"net/http"
)

// The custom Error type satisfies the error interface.
// Error() returns a human-readable description of the error.
//
// Error codes in the 40001-49999 range are the user's fault,
// and they return HTTP Status 400, 403, 404 or 409, whatever is most appropriate.
//
// Error codes 50001-59999 are the server's fault
// and they return HTTP Status 500 or 503, or something else if appropriate.
//
// NEVER change any of the current error codes, only append new errors after the current last 4XXX or 5XXX.
// If you notice there's a gap (say, error code 40010, 40011 and 40013 exist, 40012 is missing) DON'T fill in
// the gap, that code was used in the past for some error (not anymore) and shouldn't be reused.
// There's no correlation between Code and HTTP Status.
var (
	ErrResourceNotFound       = Error{Code: 40001, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("resource not found")}
	ErrMalformedBody          = Error{Code: 40004, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed JSON body")}
	ErrInvalidSignature       = Error{Code: 40005, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid signature")}
	ErrMalformedProposalID    = Error{Code: 40006, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed proposal ID")}
	ErrProposalNotFound       = Error{Code: 40007, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("proposal not found")}
	ErrUnauthorized           = Error{Code: 40008, HTTPstatus: http.StatusForbidden, Err: fmt.Errorf("caller is not the admin")}
	ErrProposalNotActive      = Error{Code: 40009, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("proposal is not active")}
	ErrVotingWindowClosed     = Error{Code: 40010, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("voting window is closed")}
	ErrAlreadyVoted           = Error{Code: 40011, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("voter has already voted")}
	ErrInvalidBallotProof     = Error{Code: 40012, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid ballot proof")}
	ErrRevealPending          = Error{Code: 40013, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("a decryption request is already pending")}
	ErrNotAwaitingReveal      = Error{Code: 40014, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("proposal is not awaiting reveal")}
	ErrAlreadyRevealed        = Error{Code: 40015, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("proposal is already revealed")}
	ErrUnknownRequest         = Error{Code: 40016, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("unknown decryption request")}
	ErrRequestNotPending      = Error{Code: 40017, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("decryption request is not pending")}
	ErrInvalidDecryptionProof = Error{Code: 40018, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid decryption proof")}
	ErrResultsNotRevealed     = Error{Code: 40019, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("results not yet revealed")}
	ErrEmptyTitle             = Error{Code: 40020, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("proposal title is empty")}
	ErrInvalidWindow          = Error{Code: 40021, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid voting window")}

	ErrMarshalingServerJSONFailed = Error{Code: 50001, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("marshaling (server-side) JSON failed")}
	ErrGenericInternalServerError = Error{Code: 50002, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("internal server error")}
	ErrTallyMismatch              = Error{Code: 50003, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("revealed totals do not match voter count")}
)
