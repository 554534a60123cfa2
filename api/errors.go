package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.vocdoni.io/dvote/log"

	"github.com/vocdoni/confidential-tally/tally"
)

// Error is used by handler functions to wrap errors, assigning a unique error code
// and also specifying which HTTP Status should be used.
type Error struct {
	Err        error
	Code       int
	HTTPstatus int
}

// MarshalJSON returns a JSON containing Err.Error() and Code. Field HTTPstatus is ignored.
//
// Example output: {"error":"proposal not found","code":40007}
func (e Error) MarshalJSON() ([]byte, error) {
	// This anon struct is needed to actually include the error string,
	// since it wouldn't be marshaled otherwise. (json.Marshal doesn't call Err.Error())
	return json.Marshal(
		struct {
			Err  string `json:"error"`
			Code int    `json:"code"`
		}{
			Err:  e.Err.Error(),
			Code: e.Code,
		})
}

// Error returns the message contained inside the API error
func (e Error) Error() string {
	return e.Err.Error()
}

// Write serializes the error as JSON and writes it with its HTTP status.
func (e Error) Write(w http.ResponseWriter) {
	msg, err := json.Marshal(e)
	if err != nil {
		log.Warn(err)
		http.Error(w, "marshal failed", http.StatusInternalServerError)
		return
	}
	if log.Level() == log.LogLevelDebug {
		log.Debugw("API error response", "error", e.Error(), "code", e.Code, "httpStatus", e.HTTPstatus)
	}
	// set the content type to JSON
	w.Header().Set("Content-Type", "application/json")
	http.Error(w, string(msg), e.HTTPstatus)
}

// Withf returns a copy of the error with the Sprintf formatted string appended at the end of e.Err
func (e Error) Withf(format string, args ...any) Error {
	return Error{
		Err:        fmt.Errorf("%w: %v", e.Err, fmt.Sprintf(format, args...)),
		Code:       e.Code,
		HTTPstatus: e.HTTPstatus,
	}
}

// WithErr returns a copy of the error with err.Error() appended at the end of e.Err
func (e Error) WithErr(err error) Error {
	return Error{
		Err:        fmt.Errorf("%w: %v", e.Err, err.Error()),
		Code:       e.Code,
		HTTPstatus: e.HTTPstatus,
	}
}

// fromEngineError maps an engine sentinel to its API error. Unrecognized
// errors become a generic internal server error.
func fromEngineError(err error) Error {
	switch {
	case errors.Is(err, tally.ErrUnauthorized):
		return ErrUnauthorized
	case errors.Is(err, tally.ErrProposalNotFound):
		return ErrProposalNotFound
	case errors.Is(err, tally.ErrProposalNotActive):
		return ErrProposalNotActive
	case errors.Is(err, tally.ErrVotingWindowClosed):
		return ErrVotingWindowClosed
	case errors.Is(err, tally.ErrAlreadyVoted):
		return ErrAlreadyVoted
	case errors.Is(err, tally.ErrInvalidProof):
		return ErrInvalidBallotProof
	case errors.Is(err, tally.ErrRevealPending):
		return ErrRevealPending
	case errors.Is(err, tally.ErrNotAwaitingReveal):
		return ErrNotAwaitingReveal
	case errors.Is(err, tally.ErrAlreadyRevealed):
		return ErrAlreadyRevealed
	case errors.Is(err, tally.ErrUnknownRequest):
		return ErrUnknownRequest
	case errors.Is(err, tally.ErrRequestNotPending):
		return ErrRequestNotPending
	case errors.Is(err, tally.ErrInvalidDecryptionProof):
		return ErrInvalidDecryptionProof
	case errors.Is(err, tally.ErrTallyMismatch):
		return ErrTallyMismatch
	case errors.Is(err, tally.ErrResultsNotRevealed):
		return ErrResultsNotRevealed
	case errors.Is(err, tally.ErrEmptyTitle):
		return ErrEmptyTitle
	case errors.Is(err, tally.ErrInvalidWindow):
		return ErrInvalidWindow
	default:
		return ErrGenericInternalServerError.WithErr(err)
	}
}
