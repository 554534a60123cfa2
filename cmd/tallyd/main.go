package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/metadb"
	"go.vocdoni.io/dvote/log"

	"github.com/vocdoni/confidential-tally/crypto/ethereum"
	"github.com/vocdoni/confidential-tally/service"
	"github.com/vocdoni/confidential-tally/storage"
)

func main() {
	host := flag.String("host", "0.0.0.0", "API host to bind")
	port := flag.Int("port", 8080, "API port to bind")
	dataDir := flag.String("datadir", "", "data directory (empty for in-memory storage)")
	adminAddr := flag.String("admin", "", "admin address (0x...); a throwaway key is generated when empty")
	logLevel := flag.String("loglevel", "info", "log level (debug, info, warn, error)")
	flag.Parse()

	log.Init(*logLevel, "stdout", nil)

	var admin common.Address
	if *adminAddr != "" {
		if !common.IsHexAddress(*adminAddr) {
			log.Fatalf("invalid admin address %q", *adminAddr)
		}
		admin = common.HexToAddress(*adminAddr)
	} else {
		// Dev mode: generate a throwaway admin identity and print it so the
		// operator can sign lifecycle requests.
		keys := ethereum.NewSignKeys()
		if err := keys.Generate(); err != nil {
			log.Fatalf("failed to generate admin key: %v", err)
		}
		_, priv := keys.HexString()
		admin = keys.Address()
		log.Warnw("no admin address provided, generated a throwaway key",
			"address", admin.Hex(), "privkey", priv)
	}

	var stg *storage.Storage
	if *dataDir != "" {
		database, err := metadb.New(db.TypePebble, *dataDir)
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
		stg = storage.New(database)
	}

	svc := service.NewTally(stg, *host, *port, admin)
	ctx := context.Background()
	if err := svc.Start(ctx); err != nil {
		log.Fatalf("failed to start tally service: %v", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Infow("shutting down", "signal", sig.String())
	svc.Stop()
}
