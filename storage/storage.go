// Package storage persists the tally engine's artifacts in a prefixed
// key-value store. The following prefixes are used:
//   - 'p/'  for proposals, keyed by big-endian proposal id
//   - 'vr/' for vote records, keyed by proposal id + voter address
//   - 'dr/' for decryption requests, keyed by request id
//   - 'pr/' for the pending-request index, keyed by proposal id
//   - 'm/'  for metadata such as the proposal id counter
//
// The pending-request index is what enforces the one-pending-request-per-
// proposal invariant: a new decryption request can only be stored while no
// index entry exists for its proposal.
package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"
)

var (
	// Prefixes for the keys in the database.
	proposalPrefix = []byte("p/")
	votePrefix     = []byte("vr/")
	requestPrefix  = []byte("dr/")
	pendingPrefix  = []byte("pr/")
	metaPrefix     = []byte("m/")

	// nextIDKey stores the next proposal id under metaPrefix.
	nextIDKey = []byte("nextProposalID")
)

var (
	// ErrNotFound is returned when the requested artifact does not exist.
	ErrNotFound = errors.New("not found")
	// ErrRequestPending is returned when a decryption request is stored for
	// a proposal that already has one pending.
	ErrRequestPending = errors.New("decryption request already pending")
)

// Storage gives structured access to the proposals, vote records and
// decryption requests kept in the database.
type Storage struct {
	db         db.Database
	globalLock sync.Mutex
}

// New creates a new Storage instance on the given database.
func New(database db.Database) *Storage {
	return &Storage{db: database}
}

// Close closes the underlying database.
func (s *Storage) Close() {
	s.db.Close()
}

// encodeArtifact encodes an artifact with deterministic CBOR.
func encodeArtifact(a any) ([]byte, error) {
	encOpts := cbor.CoreDetEncOptions()
	em, err := encOpts.EncMode()
	if err != nil {
		return nil, fmt.Errorf("encode artifact: %w", err)
	}
	return em.Marshal(a)
}

// decodeArtifact decodes an artifact encoded by encodeArtifact.
func decodeArtifact(data []byte, out any) error {
	return cbor.Unmarshal(data, out)
}

// proposalKey returns the big-endian key of a proposal id. Big-endian keys
// make prefix iteration return proposals in creation order.
func proposalKey(id uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, id)
	return key
}

// getArtifact reads and decodes a single artifact.
func (s *Storage) getArtifact(prefix, key []byte, out any) error {
	rTx := prefixeddb.NewPrefixedReader(s.db, prefix)
	data, err := rTx.Get(key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return ErrNotFound
		}
		return err
	}
	return decodeArtifact(data, out)
}

// setArtifact encodes and writes a single artifact in its own transaction.
func (s *Storage) setArtifact(prefix, key []byte, a any) error {
	data, err := encodeArtifact(a)
	if err != nil {
		return err
	}
	wTx := prefixeddb.NewPrefixedWriteTx(s.db.WriteTx(), prefix)
	if err := wTx.Set(key, data); err != nil {
		wTx.Discard()
		return err
	}
	return wTx.Commit()
}
