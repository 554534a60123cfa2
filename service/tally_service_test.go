package service

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/arbo/memdb"

	"github.com/vocdoni/confidential-tally/storage"
)

func TestTallyService(t *testing.T) {
	c := qt.New(t)

	// Setup storage
	kv := memdb.New()
	store := storage.New(kv)

	admin := common.HexToAddress("0xAAAA000000000000000000000000000000000001")
	// Port 0 lets the OS choose an available port
	svc := NewTally(store, "127.0.0.1", 0, admin)

	ctx := context.Background()
	err := svc.Start(ctx)
	c.Assert(err, qt.IsNil)
	defer svc.Stop()

	// Give the service time to start
	time.Sleep(time.Second)

	engine := svc.Engine()
	c.Assert(engine, qt.IsNotNil)
	c.Assert(engine.Admin(), qt.Equals, admin)

	// the engine is wired to the storage
	now := time.Now()
	id, err := engine.CreateProposal(ctx, admin, "wiring check", "",
		now, now.Add(time.Hour))
	c.Assert(err, qt.IsNil)
	p, err := store.Proposal(id)
	c.Assert(err, qt.IsNil)
	c.Assert(p.Title, qt.Equals, "wiring check")

	// Test starting an already running service
	err = svc.Start(ctx)
	c.Assert(err, qt.ErrorMatches, "service already running")
}
