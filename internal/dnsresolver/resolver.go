// Package dnsresolver resolves hostnames against upstream DNS servers. It is
// used to pin a name's current upstream answers into the dynamic hosts table.
package dnsresolver

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/miekg/dns"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrNoRecords is returned when no A or AAAA answers are found.
	ErrNoRecords = errors.New("no records found")
	// ErrEmptyMsg is returned when the DNS response message is empty.
	ErrEmptyMsg = errors.New("empty message")
	// ErrEmptyHostname is returned when an empty hostname is provided.
	ErrEmptyHostname = errors.New("empty hostname")
)

var _defaultServer = "1.1.1.1:53"

var _ Resolver = (*Client)(nil)

// Resolver looks up the addresses of a hostname.
type Resolver interface {
	// LookupHost returns IPv4 answers followed by IPv6 answers, each in the
	// order the server returned them.
	LookupHost(ctx context.Context, hostname string) ([]string, error)
}

// Exchanger sends one DNS message. *dns.Client satisfies it.
type Exchanger interface {
	ExchangeContext(ctx context.Context, m *dns.Msg, a string) (r *dns.Msg, rtt time.Duration, err error)
}

// Client is an upstream Resolver over miekg/dns.
type Client struct {
	Client  Exchanger
	Timeout time.Duration
	Servers []string
	Retries uint
}

// Opt configures a Client.
type Opt func(c *Client)

// New returns a Client with the given per-lookup timeout.
func New(timeout time.Duration, opts ...Opt) *Client {
	c := &Client{
		Client:  &dns.Client{Timeout: timeout},
		Timeout: timeout,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// WithServers sets the upstream servers (host:port). One is picked at
// random per query; 1.1.1.1:53 is used when none are set.
func WithServers(servers []string) Opt {
	return func(c *Client) {
		c.Servers = servers
	}
}

// WithTimeout overrides the timeout given to New.
func WithTimeout(timeout time.Duration) Opt {
	return func(c *Client) {
		c.Timeout = timeout
	}
}

// WithRetries sets how many extra attempts a failed query gets.
func WithRetries(n uint) Opt {
	return func(c *Client) {
		c.Retries = n
	}
}

// LookupHost resolves hostname to its A and AAAA addresses. A literal IP is
// returned as is.
func (c *Client) LookupHost(ctx context.Context, hostname string) ([]string, error) {
	hostname = strings.TrimSpace(hostname)
	if hostname == "" {
		return nil, ErrEmptyHostname
	}

	if ip := net.ParseIP(hostname); ip != nil {
		return []string{ip.String()}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	return c.lookupIPs(ctx, hostname)
}

// lookupIPs runs the A and AAAA queries concurrently. It fails only when
// both do.
func (c *Client) lookupIPs(ctx context.Context, host string) ([]string, error) {
	qtypes := [...]uint16{dns.TypeA, dns.TypeAAAA}

	var (
		mu      sync.Mutex
		errs    error
		answers [len(qtypes)][]string
	)

	grp, ctx := errgroup.WithContext(ctx)
	for i, qt := range qtypes {
		grp.Go(func() error {
			addrs, err := c.lookup(ctx, host, qt)
			if err != nil {
				mu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", dns.TypeToString[qt], err))
				mu.Unlock()
				return nil // a failed AAAA must not cancel the A query
			}
			answers[i] = addrs
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		errs = multierr.Append(errs, err)
	}

	var out []string
	for _, a := range answers {
		out = append(out, a...)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("dns lookup for %q: %w", host, errs)
	}
	return out, nil
}

// lookup sends one question, retrying c.Retries more times on failure.
func (c *Client) lookup(ctx context.Context, host string, qtype uint16) ([]string, error) {
	var lastErr error
	for attempt := uint(0); attempt <= c.Retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// ExchangeContext mutates the message; build a fresh one per attempt.
		req := new(dns.Msg)
		req.SetQuestion(dns.Fqdn(host), qtype)

		resp, _, err := c.Client.ExchangeContext(ctx, req, c.server())
		if err != nil {
			lastErr = err
			continue
		}
		if resp == nil {
			return nil, ErrEmptyMsg
		}

		addrs, err := parseAnswers(resp)
		if err != nil {
			lastErr = err
			continue
		}
		return addrs, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("dns lookup failed for %q", host)
	}
	return nil, lastErr
}

// parseAnswers extracts A and AAAA addresses from resp, skipping CNAMEs and
// anything else in the answer section.
func parseAnswers(resp *dns.Msg) ([]string, error) {
	if resp == nil {
		return nil, ErrEmptyMsg
	}

	var addrs []string
	for _, rr := range resp.Answer {
		switch record := rr.(type) {
		case *dns.A:
			addrs = append(addrs, record.A.String())
		case *dns.AAAA:
			addrs = append(addrs, record.AAAA.String())
		}
	}
	if len(addrs) == 0 {
		return nil, ErrNoRecords
	}
	return addrs, nil
}

// server picks a random configured server.
func (c *Client) server() string {
	if len(c.Servers) == 0 {
		return _defaultServer
	}

	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(c.Servers))))
	if err != nil {
		return c.Servers[0]
	}
	return c.Servers[n.Int64()]
}
