package api

import (
	"encoding/json"
	"net/http"
)

// decryptionCallback ingests a decryption oracle callback. Used when the
// oracle is a remote service; the in-process oracle delivers callbacks
// directly to the engine. Authenticity comes from the decryption proof
// bound to the request id, so the endpoint needs no transport-level
// authentication.
// POST /callback
func (a *API) decryptionCallback(w http.ResponseWriter, r *http.Request) {
	cb := &Callback{}
	if err := json.NewDecoder(r.Body).Decode(cb); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if err := a.engine.HandleDecryptionCallback(r.Context(), cb.RequestID,
		cb.Cleartexts, cb.Proof); err != nil {
		fromEngineError(err).Write(w)
		return
	}
	httpWriteOK(w)
}
