// Package service wires the storage, engine, oracle and HTTP API into a
// single unit with a guarded Start/Stop lifecycle.
package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vocdoni/arbo/memdb"
	"go.vocdoni.io/dvote/log"

	"github.com/vocdoni/confidential-tally/api"
	"github.com/vocdoni/confidential-tally/events"
	"github.com/vocdoni/confidential-tally/oracle"
	"github.com/vocdoni/confidential-tally/storage"
	"github.com/vocdoni/confidential-tally/tally"
)

// TallyService represents a running tally node: the engine with its
// storage, the in-process decryption oracle and the HTTP API server.
type TallyService struct {
	storage *storage.Storage
	engine  *tally.Engine
	oracle  *oracle.Service
	bus     *events.Bus
	api     *api.API
	admin   common.Address
	host    string
	port    int
	mu      sync.Mutex
	cancel  context.CancelFunc
}

// NewTally creates a new TallyService instance. If storage is nil, it uses
// a memory storage.
func NewTally(stg *storage.Storage, host string, port int, admin common.Address) *TallyService {
	if stg == nil {
		stg = storage.New(memdb.New())
	}
	return &TallyService{
		storage: stg,
		admin:   admin,
		host:    host,
		port:    port,
	}
}

// Start builds the oracle, the engine and the API server. It returns an
// error if the service is already running or if it fails to start.
func (ts *TallyService) Start(ctx context.Context) error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.cancel != nil {
		return fmt.Errorf("service already running")
	}

	_, ts.cancel = context.WithCancel(ctx)

	orc, err := oracle.New()
	if err != nil {
		ts.cancel = nil
		return fmt.Errorf("failed to create oracle: %w", err)
	}
	ts.oracle = orc
	ts.bus = events.NewBus()
	ts.engine = tally.NewEngine(ts.storage, orc, ts.bus, orc.PublicKey(), ts.admin)
	orc.SetHandler(ts.engine)

	ts.api, err = api.New(&api.APIConfig{
		Host:   ts.host,
		Port:   ts.port,
		Engine: ts.engine,
	})
	if err != nil {
		ts.cancel = nil
		return fmt.Errorf("failed to start API server: %w", err)
	}
	log.Infow("tally service started", "host", ts.host, "port", ts.port,
		"admin", ts.admin.Hex())
	return nil
}

// Stop halts the service, draining in-flight oracle callbacks first.
func (ts *TallyService) Stop() {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.cancel != nil {
		ts.cancel()
		ts.cancel = nil
	}
	if ts.oracle != nil {
		ts.oracle.Wait()
	}
	if ts.bus != nil {
		ts.bus.Stop()
	}
	ts.storage.Close()
}

// Engine returns the running engine, nil before Start.
func (ts *TallyService) Engine() *tally.Engine {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.engine
}

// Bus returns the event bus, nil before Start.
func (ts *TallyService) Bus() *events.Bus {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.bus
}

// HostPort returns the host and port of the API server.
func (ts *TallyService) HostPort() (string, int) {
	return ts.host, ts.port
}
