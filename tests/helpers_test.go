package tests

import (
	"context"
	"fmt"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/arbo/memdb"

	"github.com/vocdoni/confidential-tally/api/client"
	"github.com/vocdoni/confidential-tally/crypto/ethereum"
	"github.com/vocdoni/confidential-tally/service"
	"github.com/vocdoni/confidential-tally/storage"
	"github.com/vocdoni/confidential-tally/util"
)

// NewTestService starts a full tally service on a random port and returns
// it together with the admin signer.
func NewTestService(t *testing.T, ctx context.Context) (*service.TallyService, *ethereum.SignKeys) {
	c := qt.New(t)
	admin, err := NewTestSigner()
	c.Assert(err, qt.IsNil)

	store := storage.New(memdb.New())
	port := util.RandomInt(40000, 60000)
	svc := service.NewTally(store, "127.0.0.1", port, admin.Address())
	c.Assert(svc.Start(ctx), qt.IsNil)
	t.Cleanup(svc.Stop)

	// Wait for the HTTP server to start
	time.Sleep(500 * time.Millisecond)
	return svc, admin
}

// NewTestSigner creates and initializes a new ethereum signer for testing.
func NewTestSigner() (*ethereum.SignKeys, error) {
	signer := ethereum.NewSignKeys()
	if err := signer.Generate(); err != nil {
		return nil, err
	}
	return signer, nil
}

// NewTestClient creates a new API client for testing.
func NewTestClient(port int) (*client.HTTPclient, error) {
	return client.New(fmt.Sprintf("http://127.0.0.1:%d", port))
}
