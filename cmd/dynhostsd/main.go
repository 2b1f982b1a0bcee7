// Command dynhostsd serves the dynamic hosts table over a Unix socket.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lc/dynhosts/internal/config"
	"github.com/lc/dynhosts/internal/dnsresolver"
	"github.com/lc/dynhosts/internal/engine"
	"github.com/lc/dynhosts/internal/filesys"
	"github.com/lc/dynhosts/internal/log"
	"github.com/lc/dynhosts/internal/seed"
	"github.com/lc/dynhosts/pkg/api"
)

func main() {
	defer log.Sync()

	// load config
	cfg, err := config.New().Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	// seed records are all-or-nothing
	records, err := seed.LoadFiles(filesys.OS(), cfg.Hosts.SeedFiles)
	if err != nil {
		log.Fatalf("seed error: %v", err)
	}

	// build deps
	res := dnsresolver.New(cfg.Resolver.Timeout,
		dnsresolver.WithServers(cfg.Resolver.Servers),
		dnsresolver.WithRetries(cfg.Resolver.Retries),
	)
	eng, err := engine.New(res, records...)
	if err != nil {
		log.Fatalf("engine error: %v", err)
	}

	// start the api over unix socket
	apiSrv := api.New(eng)
	sockPath := cfg.Socket.Path

	go func() {
		if err := apiSrv.ListenAndServe(sockPath); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("api listen: %v", err)
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	<-sig
	log.Info("shutting down…")

	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()

	if err := apiSrv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("api shutdown error: %v", err)
	}
}
