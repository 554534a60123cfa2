package tally

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	qt "github.com/frankban/quicktest"
	"go.vocdoni.io/dvote/db/metadb"

	"github.com/vocdoni/confidential-tally/crypto/elgamal"
	"github.com/vocdoni/confidential-tally/events"
	"github.com/vocdoni/confidential-tally/oracle"
	"github.com/vocdoni/confidential-tally/storage"
	"github.com/vocdoni/confidential-tally/types"
)

var (
	adminAddr = common.HexToAddress("0xAAAA000000000000000000000000000000000001")
	voter1    = common.HexToAddress("0x1111000000000000000000000000000000000001")
	voter2    = common.HexToAddress("0x1111000000000000000000000000000000000002")
	voter3    = common.HexToAddress("0x1111000000000000000000000000000000000003")
)

// mockOracle records dispatched requests and never calls back, leaving
// requests pending under test control.
type mockOracle struct {
	requests    []string
	ciphertexts map[string][]types.HexBytes
}

func newMockOracle() *mockOracle {
	return &mockOracle{ciphertexts: make(map[string][]types.HexBytes)}
}

func (m *mockOracle) RequestDecryption(_ context.Context, requestID string,
	ciphertexts []types.HexBytes) error {
	m.requests = append(m.requests, requestID)
	m.ciphertexts[requestID] = ciphertexts
	return nil
}

// newLiveEngine wires an engine to the in-process oracle service.
func newLiveEngine(t *testing.T) (*Engine, *oracle.Service, *events.Bus) {
	orc, err := oracle.New()
	qt.Assert(t, err, qt.IsNil)
	bus := events.NewBus()
	t.Cleanup(bus.Stop)
	stg := storage.New(metadb.NewTest(t))
	engine := NewEngine(stg, orc, bus, orc.PublicKey(), adminAddr)
	orc.SetHandler(engine)
	return engine, orc, bus
}

// newMockedEngine wires an engine to a recording oracle; the test holds
// the private key and plays the oracle role itself.
func newMockedEngine(t *testing.T) (*Engine, *mockOracle, *big.Int, *storage.Storage) {
	pub, priv, err := elgamal.GenerateKey()
	qt.Assert(t, err, qt.IsNil)
	bus := events.NewBus()
	t.Cleanup(bus.Stop)
	stg := storage.New(metadb.NewTest(t))
	orc := newMockOracle()
	engine := NewEngine(stg, orc, bus, pub, adminAddr)
	return engine, orc, priv, stg
}

func openProposal(t *testing.T, e *Engine) uint64 {
	now := time.Now()
	id, err := e.CreateProposal(context.Background(), adminAddr, "Upgrade the sequencer",
		"", now.Add(-time.Hour), now.Add(7*24*time.Hour))
	qt.Assert(t, err, qt.IsNil)
	return id
}

func castVote(t *testing.T, e *Engine, proposalID uint64, voter common.Address, choice uint64) {
	ballot, err := elgamal.NewBallot(e.PublicKey(), choice)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, e.SubmitVote(context.Background(), proposalID, voter, ballot), qt.IsNil)
}

// oracleReply decrypts a recorded request and builds a valid callback,
// standing in for the oracle.
func oracleReply(t *testing.T, priv *big.Int, requestID string,
	ciphertexts []types.HexBytes) ([]uint64, *elgamal.DecryptionProof) {
	decoded := make([]*elgamal.Ciphertext, len(ciphertexts))
	cleartexts := make([]uint64, len(ciphertexts))
	for i, data := range ciphertexts {
		ct, err := elgamal.DeserializeCiphertext(data)
		qt.Assert(t, err, qt.IsNil)
		decoded[i] = ct
		m, err := elgamal.Decrypt(priv, ct, types.MaxTallyValue)
		qt.Assert(t, err, qt.IsNil)
		cleartexts[i] = m
	}
	proof, err := elgamal.ProveDecryption(priv, requestID, decoded, cleartexts)
	qt.Assert(t, err, qt.IsNil)
	return cleartexts, proof
}

// Full lifecycle: two voters, end, reveal, verified callback.
func TestLifecycleReveal(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	engine, orc, bus := newLiveEngine(t)
	_, revealed := bus.Subscribe(types.EventResultsRevealed)

	id := openProposal(t, engine)
	castVote(t, engine, id, voter1, 1)
	castVote(t, engine, id, voter2, 0)

	c.Assert(engine.EndProposal(ctx, adminAddr, id), qt.IsNil)
	reqID, err := engine.RequestReveal(ctx, adminAddr, id)
	c.Assert(err, qt.IsNil)
	c.Assert(reqID, qt.Not(qt.Equals), "")
	orc.Wait()

	p, err := engine.Proposal(id)
	c.Assert(err, qt.IsNil)
	c.Assert(p.Status, qt.Equals, types.ProposalRevealed)
	c.Assert(p.FinalYes, qt.Equals, uint64(1))
	c.Assert(p.FinalNo, qt.Equals, uint64(1))
	c.Assert(p.RevealedAt.IsZero(), qt.IsFalse)

	yes, no, total, err := engine.Results(id)
	c.Assert(err, qt.IsNil)
	c.Assert(yes, qt.Equals, uint64(1))
	c.Assert(no, qt.Equals, uint64(1))
	c.Assert(total, qt.Equals, uint64(2))

	select {
	case evt := <-revealed:
		data := evt.Data.(*types.ResultsRevealed)
		c.Assert(data.ProposalID, qt.Equals, id)
		c.Assert(data.YesVotes, qt.Equals, uint64(1))
	case <-time.After(time.Second):
		c.Fatal("timeout waiting for revealed event")
	}

	// terminal state rejects further reveals
	_, err = engine.RequestReveal(ctx, adminAddr, id)
	c.Assert(err, qt.Equals, ErrAlreadyRevealed)
}

// A forged callback with an unknown request id never touches proposal
// state; a wrong proof frees the pending slot for a retry.
func TestForgedCallback(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	engine, orc, priv, _ := newMockedEngine(t)

	id := openProposal(t, engine)
	castVote(t, engine, id, voter1, 1)
	castVote(t, engine, id, voter2, 0)
	c.Assert(engine.EndProposal(ctx, adminAddr, id), qt.IsNil)

	reqID, err := engine.RequestReveal(ctx, adminAddr, id)
	c.Assert(err, qt.IsNil)
	cleartexts, proof := oracleReply(t, priv, reqID, orc.ciphertexts[reqID])

	// mismatched request id
	err = engine.HandleDecryptionCallback(ctx, "forged-request-id", cleartexts, proof)
	c.Assert(err, qt.Equals, ErrUnknownRequest)
	p, err := engine.Proposal(id)
	c.Assert(err, qt.IsNil)
	c.Assert(p.Status, qt.Equals, types.ProposalEnded)

	// a proof bound to a different request id fails verification and
	// rejects the request, clearing the slot for a retry
	_, wrongProof := oracleReply(t, priv, "some-other-request", orc.ciphertexts[reqID])
	err = engine.HandleDecryptionCallback(ctx, reqID, cleartexts, wrongProof)
	c.Assert(err, qt.ErrorIs, ErrInvalidDecryptionProof)
	p, err = engine.Proposal(id)
	c.Assert(err, qt.IsNil)
	c.Assert(p.Status, qt.Equals, types.ProposalEnded)

	reqID2, err := engine.RequestReveal(ctx, adminAddr, id)
	c.Assert(err, qt.IsNil)
	c.Assert(reqID2, qt.Not(qt.Equals), reqID)

	// the honest callback completes the reveal
	cleartexts, proof = oracleReply(t, priv, reqID2, orc.ciphertexts[reqID2])
	c.Assert(engine.HandleDecryptionCallback(ctx, reqID2, cleartexts, proof), qt.IsNil)
	p, err = engine.Proposal(id)
	c.Assert(err, qt.IsNil)
	c.Assert(p.Status, qt.Equals, types.ProposalRevealed)

	// a duplicate delivery is rejected without touching the result
	err = engine.HandleDecryptionCallback(ctx, reqID2, cleartexts, proof)
	c.Assert(err, qt.Equals, ErrRequestNotPending)
}

// Double voting is rejected and leaves the tallies untouched.
func TestDoubleVote(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	engine, _, _ := newLiveEngine(t)

	id := openProposal(t, engine)
	castVote(t, engine, id, voter1, 1)
	p, err := engine.Proposal(id)
	c.Assert(err, qt.IsNil)
	yesAfterFirst := append(types.HexBytes{}, p.YesTally...)
	noAfterFirst := append(types.HexBytes{}, p.NoTally...)

	ballot, err := elgamal.NewBallot(engine.PublicKey(), 0)
	c.Assert(err, qt.IsNil)
	err = engine.SubmitVote(ctx, id, voter1, ballot)
	c.Assert(err, qt.Equals, ErrAlreadyVoted)

	p, err = engine.Proposal(id)
	c.Assert(err, qt.IsNil)
	c.Assert(p.TotalVoters, qt.Equals, uint64(1))
	c.Assert(p.YesTally, qt.DeepEquals, yesAfterFirst)
	c.Assert(p.NoTally, qt.DeepEquals, noAfterFirst)

	voted, err := engine.HasVoted(id, voter1)
	c.Assert(err, qt.IsNil)
	c.Assert(voted, qt.IsTrue)
}

// Non-admin callers are rejected on every lifecycle operation.
func TestUnauthorized(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	engine, _, _ := newLiveEngine(t)
	id := openProposal(t, engine)

	intruder := voter3
	_, err := engine.CreateProposal(ctx, intruder, "hijack", "", time.Now(), time.Now().Add(time.Hour))
	c.Assert(err, qt.Equals, ErrUnauthorized)
	c.Assert(engine.EndProposal(ctx, intruder, id), qt.Equals, ErrUnauthorized)
	_, err = engine.RequestReveal(ctx, intruder, id)
	c.Assert(err, qt.Equals, ErrUnauthorized)
	c.Assert(engine.AbandonReveal(ctx, intruder, id), qt.Equals, ErrUnauthorized)

	p, err := engine.Proposal(id)
	c.Assert(err, qt.IsNil)
	c.Assert(p.Status, qt.Equals, types.ProposalActive)
}

// Decrypted totals that do not reconcile with the voter count raise an
// integrity failure and lock the proposal until an explicit abandon.
func TestIntegrityFailure(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	engine, orc, priv, stg := newMockedEngine(t)
	_, failures := engine.bus.Subscribe(types.EventIntegrityFailure)

	id := openProposal(t, engine)
	castVote(t, engine, id, voter1, 1)
	castVote(t, engine, id, voter2, 1)
	castVote(t, engine, id, voter3, 1)

	// corrupt the bookkeeping so the decrypted sum cannot reconcile
	p, err := engine.Proposal(id)
	c.Assert(err, qt.IsNil)
	p.TotalVoters = 4
	c.Assert(stg.SetProposal(p), qt.IsNil)

	c.Assert(engine.EndProposal(ctx, adminAddr, id), qt.IsNil)
	reqID, err := engine.RequestReveal(ctx, adminAddr, id)
	c.Assert(err, qt.IsNil)

	cleartexts, proof := oracleReply(t, priv, reqID, orc.ciphertexts[reqID])
	c.Assert(cleartexts, qt.DeepEquals, []uint64{3, 0})
	err = engine.HandleDecryptionCallback(ctx, reqID, cleartexts, proof)
	c.Assert(err, qt.Equals, ErrTallyMismatch)

	p, err = engine.Proposal(id)
	c.Assert(err, qt.IsNil)
	c.Assert(p.Status, qt.Equals, types.ProposalEnded)
	c.Assert(p.FinalYes, qt.Equals, uint64(0))

	select {
	case evt := <-failures:
		data := evt.Data.(*types.IntegrityFailure)
		c.Assert(data.RequestID, qt.Equals, reqID)
		c.Assert(data.YesVotes, qt.Equals, uint64(3))
		c.Assert(data.TotalVoters, qt.Equals, uint64(4))
	case <-time.After(time.Second):
		c.Fatal("timeout waiting for integrity failure event")
	}

	// the slot stays occupied until the admin abandons it
	_, err = engine.RequestReveal(ctx, adminAddr, id)
	c.Assert(err, qt.Equals, ErrRevealPending)
	c.Assert(engine.AbandonReveal(ctx, adminAddr, id), qt.IsNil)
	_, err = engine.RequestReveal(ctx, adminAddr, id)
	c.Assert(err, qt.IsNil)
}

func TestCreateProposalValidation(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	engine, _, _ := newLiveEngine(t)
	now := time.Now()

	_, err := engine.CreateProposal(ctx, adminAddr, "  ", "", now, now.Add(time.Hour))
	c.Assert(err, qt.Equals, ErrEmptyTitle)
	_, err = engine.CreateProposal(ctx, adminAddr, "backwards", "", now.Add(time.Hour), now)
	c.Assert(err, qt.Equals, ErrInvalidWindow)
	_, err = engine.CreateProposal(ctx, adminAddr, "empty window", "", now, now)
	c.Assert(err, qt.Equals, ErrInvalidWindow)
}

func TestSubmitVoteChecks(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	engine, _, _ := newLiveEngine(t)
	now := time.Now()

	ballot, err := elgamal.NewBallot(engine.PublicKey(), 1)
	c.Assert(err, qt.IsNil)

	// unknown proposal
	err = engine.SubmitVote(ctx, 99, voter1, ballot)
	c.Assert(err, qt.Equals, ErrProposalNotFound)

	// window not yet open
	future, err := engine.CreateProposal(ctx, adminAddr, "future", "",
		now.Add(time.Hour), now.Add(2*time.Hour))
	c.Assert(err, qt.IsNil)
	err = engine.SubmitVote(ctx, future, voter1, ballot)
	c.Assert(err, qt.Equals, ErrVotingWindowClosed)

	// ended proposal
	id := openProposal(t, engine)
	c.Assert(engine.EndProposal(ctx, adminAddr, id), qt.IsNil)
	err = engine.SubmitVote(ctx, id, voter1, ballot)
	c.Assert(err, qt.Equals, ErrProposalNotActive)

	// tampered proof
	id2 := openProposal(t, engine)
	tampered, err := elgamal.NewBallot(engine.PublicKey(), 1)
	c.Assert(err, qt.IsNil)
	z := new(big.Int).Add(tampered.Proof.Z0.MathBigInt(), big.NewInt(1))
	tampered.Proof.Z0 = (*types.BigInt)(z)
	err = engine.SubmitVote(ctx, id2, voter1, tampered)
	c.Assert(err, qt.Equals, ErrInvalidProof)
}

// Concurrent submissions on one proposal must not lose updates: the fold
// is a read-modify-write serialized by the proposal mutex.
func TestConcurrentVotes(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	engine, orc, priv, _ := newMockedEngine(t)
	id := openProposal(t, engine)

	const voters = 16
	errCh := make(chan error, voters)
	for i := 0; i < voters; i++ {
		voter := common.BigToAddress(big.NewInt(int64(0x2000 + i)))
		go func(voter common.Address) {
			ballot, err := elgamal.NewBallot(engine.PublicKey(), 1)
			if err != nil {
				errCh <- err
				return
			}
			errCh <- engine.SubmitVote(ctx, id, voter, ballot)
		}(voter)
	}
	for i := 0; i < voters; i++ {
		c.Assert(<-errCh, qt.IsNil)
	}

	p, err := engine.Proposal(id)
	c.Assert(err, qt.IsNil)
	c.Assert(p.TotalVoters, qt.Equals, uint64(voters))

	c.Assert(engine.EndProposal(ctx, adminAddr, id), qt.IsNil)
	reqID, err := engine.RequestReveal(ctx, adminAddr, id)
	c.Assert(err, qt.IsNil)
	cleartexts, proof := oracleReply(t, priv, reqID, orc.ciphertexts[reqID])
	c.Assert(engine.HandleDecryptionCallback(ctx, reqID, cleartexts, proof), qt.IsNil)

	yes, no, total, err := engine.Results(id)
	c.Assert(err, qt.IsNil)
	c.Assert(yes, qt.Equals, uint64(voters))
	c.Assert(no, qt.Equals, uint64(0))
	c.Assert(total, qt.Equals, uint64(voters))
}

func TestTransferAdmin(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	engine, _, _ := newLiveEngine(t)
	newAdmin := voter1

	c.Assert(engine.TransferAdmin(newAdmin, newAdmin), qt.Equals, ErrUnauthorized)
	c.Assert(engine.TransferAdmin(adminAddr, common.Address{}), qt.IsNotNil)
	c.Assert(engine.TransferAdmin(adminAddr, newAdmin), qt.IsNil)
	c.Assert(engine.Admin(), qt.Equals, newAdmin)

	// old admin is locked out, new admin operates
	_, err := engine.CreateProposal(ctx, adminAddr, "locked out", "",
		time.Now(), time.Now().Add(time.Hour))
	c.Assert(err, qt.Equals, ErrUnauthorized)
	_, err = engine.CreateProposal(ctx, newAdmin, "handover", "",
		time.Now(), time.Now().Add(time.Hour))
	c.Assert(err, qt.IsNil)
}
