// Package engine owns the daemon's dynamic hosts table. It seeds the table,
// inserts records on request, pins upstream DNS answers into it and serves
// lookups.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/lc/dynhosts/internal/dnsresolver"
	"github.com/lc/dynhosts/internal/hosts"
	"github.com/lc/dynhosts/internal/log"
)

var _ hosts.Source = (*Engine)(nil)

// Engine wraps one hosts.Table for the lifetime of the daemon.
type Engine struct {
	table    *hosts.Table
	resolver dnsresolver.Resolver
	started  time.Time
}

// New creates an Engine whose table is seeded with records, in order.
func New(resolver dnsresolver.Resolver, seeds ...hosts.Record) (*Engine, error) {
	table, err := hosts.New(seeds...)
	if err != nil {
		return nil, fmt.Errorf("seeding hosts table: %w", err)
	}
	log.Infof("engine: seeded %d records", len(seeds))

	return &Engine{
		table:    table,
		resolver: resolver,
		started:  time.Now(),
	}, nil
}

// Add inserts r into the table.
func (e *Engine) Add(r hosts.Record) error {
	if err := e.table.Add(r); err != nil {
		log.Warn("engine: rejected record", "addr", r.Addr, "hostname", r.Hostname, "error", err)
		return err
	}
	log.Info("engine: added record", "addr", r.Addr, "hostname", r.Hostname, "aliases", []string(r.Aliases))
	return nil
}

// Pin resolves hostname upstream and inserts one record per answer, in
// answer order, each carrying aliases. Nothing is inserted when resolution
// fails. Concurrent lookups may observe a partially pinned name.
func (e *Engine) Pin(ctx context.Context, hostname string, aliases hosts.Aliases) ([]string, error) {
	if hostname == "" {
		return nil, fmt.Errorf("%w: must specify hostname for host", hosts.ErrValidation)
	}

	addrs, err := e.resolver.LookupHost(ctx, hostname)
	if err != nil {
		return nil, fmt.Errorf("resolving %q: %w", hostname, err)
	}

	for _, addr := range addrs {
		if err := e.table.Add(hosts.Record{Addr: addr, Hostname: hostname, Aliases: aliases}); err != nil {
			return nil, err
		}
	}
	log.Info("engine: pinned host", "hostname", hostname, "addrs", addrs)
	return addrs, nil
}

// Address returns the first address for name.
func (e *Engine) Address(name string) (string, error) { return e.table.Address(name) }

// Addresses returns every address for name.
func (e *Engine) Addresses(name string) []string { return e.table.Addresses(name) }

// Name returns the first name for addr.
func (e *Engine) Name(addr string) (string, error) { return e.table.Name(addr) }

// Names returns every name for addr.
func (e *Engine) Names(addr string) []string { return e.table.Names(addr) }

// Dump returns every address with its names.
func (e *Engine) Dump() []hosts.Entry { return e.table.Dump() }

// Stats returns table counters.
func (e *Engine) Stats() hosts.Stats { return e.table.Stats() }

// Uptime reports how long the engine has been running.
func (e *Engine) Uptime() time.Duration { return time.Since(e.started) }
