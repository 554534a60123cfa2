// Package oracle implements the decryption side of the reveal flow. The
// tally engine only ever sees the DecryptionOracle interface; the Service
// here is the in-process implementation holding the ElGamal private key,
// used by tallyd and the tests. A production deployment would replace it
// with a remote committee behind the same callback contract.
package oracle

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"go.vocdoni.io/dvote/log"

	"github.com/vocdoni/confidential-tally/crypto/ecc"
	"github.com/vocdoni/confidential-tally/crypto/elgamal"
	"github.com/vocdoni/confidential-tally/types"
)

// CallbackHandler receives the result of a decryption request. The engine
// implements it; the requestID is the only correlation handle carried
// back.
type CallbackHandler interface {
	HandleDecryptionCallback(ctx context.Context, requestID string,
		cleartexts []uint64, proof *elgamal.DecryptionProof) error
}

// Service is an in-process decryption oracle. Each request is decrypted on
// its own goroutine and delivered asynchronously through the registered
// CallbackHandler, mimicking the out-of-band latency of a real oracle.
type Service struct {
	publicKey  ecc.Point
	privateKey *big.Int

	mu      sync.Mutex
	handler CallbackHandler
	wg      sync.WaitGroup
}

// New creates an oracle service with a freshly generated ElGamal keypair.
func New() (*Service, error) {
	pub, priv, err := elgamal.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate oracle key: %w", err)
	}
	return &Service{publicKey: pub, privateKey: priv}, nil
}

// NewWithKey creates an oracle service from an existing private key.
func NewWithKey(privateKey *big.Int) *Service {
	pub := ecc.NewG1()
	pub.SetGenerator()
	pub.ScalarMult(pub, privateKey)
	return &Service{publicKey: pub, privateKey: privateKey}
}

// PublicKey returns the key ballots must be encrypted under.
func (s *Service) PublicKey() ecc.Point {
	return s.publicKey
}

// SetHandler registers the callback sink. Must be called before the first
// RequestDecryption.
func (s *Service) SetHandler(h CallbackHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = h
}

// RequestDecryption decrypts the given serialized ciphertexts and delivers
// the cleartexts with a correctness proof to the callback handler. The
// call returns as soon as the work is scheduled.
func (s *Service) RequestDecryption(ctx context.Context, requestID string,
	ciphertexts []types.HexBytes) error {
	s.mu.Lock()
	handler := s.handler
	s.mu.Unlock()
	if handler == nil {
		return fmt.Errorf("no callback handler registered")
	}
	decoded := make([]*elgamal.Ciphertext, len(ciphertexts))
	for i, data := range ciphertexts {
		ct, err := elgamal.DeserializeCiphertext(data)
		if err != nil {
			return fmt.Errorf("malformed ciphertext %d: %w", i, err)
		}
		decoded[i] = ct
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.decryptAndDeliver(ctx, handler, requestID, decoded)
	}()
	return nil
}

// Wait blocks until all in-flight callbacks have been delivered.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) decryptAndDeliver(ctx context.Context, handler CallbackHandler,
	requestID string, ciphertexts []*elgamal.Ciphertext) {
	cleartexts := make([]uint64, len(ciphertexts))
	for i, ct := range ciphertexts {
		m, err := elgamal.Decrypt(s.privateKey, ct, types.MaxTallyValue)
		if err != nil {
			log.Errorf("oracle failed to decrypt request %s: %v", requestID, err)
			return
		}
		cleartexts[i] = m
	}
	proof, err := elgamal.ProveDecryption(s.privateKey, requestID, ciphertexts, cleartexts)
	if err != nil {
		log.Errorf("oracle failed to prove request %s: %v", requestID, err)
		return
	}
	if err := handler.HandleDecryptionCallback(ctx, requestID, cleartexts, proof); err != nil {
		log.Warnw("oracle callback rejected", "request", requestID, "error", err.Error())
	}
}
