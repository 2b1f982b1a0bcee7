// Package hosts provides a dynamic, in-memory hosts table: a bidirectional
// mapping between hostnames (and their aliases) and addresses that a name
// resolution pipeline can consult as an override source without touching
// /etc/hosts.
//
// Entries are never removed. Keys are compared by exact string equality, with
// no case folding and no trailing-dot handling.
package hosts

import (
	"fmt"
	"iter"
	"maps"
	"slices"
	"sync"

	"go.uber.org/atomic"
)

// Source is the lookup capability set a resolution chain composes.
type Source interface {
	// Address returns the first address for name, or ErrNotFound.
	Address(name string) (string, error)
	// Addresses returns every address for name, possibly none.
	Addresses(name string) []string
	// Name returns the first name for addr, or ErrNotFound.
	Name(addr string) (string, error)
	// Names returns every name for addr, possibly none.
	Names(addr string) []string
}

var _ Source = (*Table)(nil)

// Entry is one address and every name recorded for it.
type Entry struct {
	Addr  string   `json:"addr"`
	Names []string `json:"names"`
}

// Stats is a point-in-time view of table activity.
type Stats struct {
	Names   int   `json:"names"`
	Addrs   int   `json:"addrs"`
	Inserts int64 `json:"inserts"`
	Lookups int64 `json:"lookups"`
	Misses  int64 `json:"misses"`
}

// Table is the bidirectional hosts index. The zero value is not usable; use New.
// It is safe for concurrent use.
type Table struct {
	mu         sync.Mutex          // guards both indexes; reads lock too
	nameToAddr map[string][]string // hostname or alias -> addresses
	addrToName map[string][]string // address -> hostname, aliases...

	inserts atomic.Int64
	lookups atomic.Int64
	misses  atomic.Int64
}

// New builds a table and inserts records in order. It stops at the first
// record that fails validation.
func New(records ...Record) (*Table, error) {
	t := &Table{
		nameToAddr: make(map[string][]string),
		addrToName: make(map[string][]string),
	}
	for i, r := range records {
		if err := t.Add(r); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}
	return t, nil
}

// Add inserts r. The address is appended under the hostname and every alias;
// the hostname and aliases are appended under the address. Nothing is
// deduplicated. A record that fails validation leaves the table untouched.
func (t *Table) Add(r Record) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := r.Validate(); err != nil {
		return err
	}

	names := t.addrToName[r.Addr]
	names = append(names, r.Hostname)
	names = append(names, r.Aliases...)
	t.addrToName[r.Addr] = names

	t.nameToAddr[r.Hostname] = append(t.nameToAddr[r.Hostname], r.Addr)
	for _, alias := range r.Aliases {
		t.nameToAddr[alias] = append(t.nameToAddr[alias], r.Addr)
	}

	t.inserts.Inc()
	return nil
}

// Address returns the first address recorded for name.
func (t *Table) Address(name string) (string, error) {
	addr, ok := t.first(t.nameToAddr, name)
	if !ok {
		return "", fmt.Errorf("%w for name: %s", ErrNotFound, name)
	}
	return addr, nil
}

// Addresses returns every address recorded for name in insertion order.
// The result is empty, never nil, when name is unknown.
func (t *Table) Addresses(name string) []string {
	return clone(t.snapshot(t.nameToAddr, name))
}

// Name returns the first name recorded for addr.
func (t *Table) Name(addr string) (string, error) {
	name, ok := t.first(t.addrToName, addr)
	if !ok {
		return "", fmt.Errorf("%w for address: %s", ErrNotFound, addr)
	}
	return name, nil
}

// Names returns every name recorded for addr in insertion order.
func (t *Table) Names(addr string) []string {
	return clone(t.snapshot(t.addrToName, addr))
}

// AddressSeq iterates the addresses recorded for name. Each range over the
// sequence sees the entries present when it started.
//
// The table must not be mutated from inside the loop body.
func (t *Table) AddressSeq(name string) iter.Seq[string] {
	return t.seq(t.nameToAddr, name)
}

// NameSeq iterates the names recorded for addr; see AddressSeq.
func (t *Table) NameSeq(addr string) iter.Seq[string] {
	return t.seq(t.addrToName, addr)
}

// EachAddress calls visit for every address recorded for name.
func (t *Table) EachAddress(name string, visit func(addr string)) {
	for a := range t.AddressSeq(name) {
		visit(a)
	}
}

// EachName calls visit for every name recorded for addr.
func (t *Table) EachName(addr string, visit func(name string)) {
	for n := range t.NameSeq(addr) {
		visit(n)
	}
}

// Len returns the number of distinct names and addresses in the table.
func (t *Table) Len() (names, addrs int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.nameToAddr), len(t.addrToName)
}

// Dump returns every address with its names, ordered by address.
func (t *Table) Dump() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Entry, 0, len(t.addrToName))
	for _, addr := range slices.Sorted(maps.Keys(t.addrToName)) {
		out = append(out, Entry{Addr: addr, Names: clone(t.addrToName[addr])})
	}
	return out
}

// Stats returns the current index sizes and activity counters.
func (t *Table) Stats() Stats {
	names, addrs := t.Len()
	return Stats{
		Names:   names,
		Addrs:   addrs,
		Inserts: t.inserts.Load(),
		Lookups: t.lookups.Load(),
		Misses:  t.misses.Load(),
	}
}

func (t *Table) first(m map[string][]string, key string) (string, bool) {
	vals := t.snapshot(m, key)
	if len(vals) == 0 {
		t.misses.Inc()
		return "", false
	}
	return vals[0], true
}

// snapshot returns the stored slice for key, capped at its current length.
// Sequences are append-only, so the returned elements never change after the
// lock is released.
func (t *Table) snapshot(m map[string][]string, key string) []string {
	t.lookups.Inc()

	t.mu.Lock()
	defer t.mu.Unlock()
	vals := m[key]
	return vals[:len(vals):len(vals)]
}

func (t *Table) seq(m map[string][]string, key string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, v := range t.snapshot(m, key) {
			if !yield(v) {
				return
			}
		}
	}
}

func clone(s []string) []string {
	return append(make([]string, 0, len(s)), s...)
}
