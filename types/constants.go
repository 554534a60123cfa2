package types

const (
	// CleartextsPerReveal is the number of ciphertexts batched in a single
	// decryption request: the yes tally followed by the no tally.
	CleartextsPerReveal = 2
	// MaxTallyValue bounds the discrete log search when the oracle recovers
	// a tally from its decrypted curve point. It caps the number of voters
	// a single proposal can reach.
	MaxTallyValue = 1 << 24
)
