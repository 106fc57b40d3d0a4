// cmd/vhostsync/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"github.com/tamzrod/vhostsync/internal/config"
	"github.com/tamzrod/vhostsync/internal/mgmt"
)

const usage = `usage:
  vhostsync <config.yaml>
  vhostsync <config.yaml> start|stop|delete|export|edit <node>/<host> [field=value ...]
  vhostsync <config.yaml> delete-queue|delete-exchange <node>/<host> <name> [name ...]`

func main() {
	if len(os.Args) < 2 {
		log.Fatal(usage)
	}

	cfgPath := os.Args[1]

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	if err := config.Validate(cfg); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}

	config.Normalize(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --------------------
	// One-shot action
	// --------------------

	if len(os.Args) > 2 {
		if len(os.Args) < 4 {
			log.Fatal(usage)
		}

		client, err := newClient(cfg.Sync.Management)
		if err != nil {
			log.Fatalf("management client failed: %v", err)
		}

		if err := runAction(ctx, client, os.Args[2], os.Args[3], os.Args[4:], "."); err != nil {
			log.Fatalf("%s %s failed: %v", os.Args[2], os.Args[3], err)
		}
		return
	}

	// --------------------
	// Synchronizer (one process per config)
	// --------------------

	lock := flock.New(cfg.Sync.LockFile)
	locked, err := lock.TryLock()
	if err != nil {
		log.Fatalf("lock %s failed: %v", cfg.Sync.LockFile, err)
	}
	if !locked {
		log.Fatalf("another vhostsync already holds %s", cfg.Sync.LockFile)
	}
	defer lock.Unlock()

	if err := runSync(ctx, cfg.Sync); err != nil {
		log.Printf("synchronizer stopped: %v", err)
	}
}

func newClient(mc config.ManagementConfig) (*mgmt.Client, error) {
	return mgmt.New(mgmt.Config{
		BaseURL:  mc.BaseURL,
		Username: mc.Username,
		Password: mc.Password,
		Timeout:  time.Duration(mc.TimeoutMs) * time.Millisecond,
	})
}
