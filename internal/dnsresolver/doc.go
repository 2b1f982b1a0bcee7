// Package dnsresolver resolves hostnames against upstream DNS servers.
//
// The dynhosts daemon uses it for one thing: pinning. Pinning a name asks
// upstream DNS for its current addresses and records each one in the dynamic
// hosts table, so later lookups keep returning those addresses even if
// upstream changes.
//
// # Usage
//
//	res := dnsresolver.New(
//		5*time.Second,
//		dnsresolver.WithServers([]string{"1.1.1.1:53", "8.8.8.8:53"}),
//		dnsresolver.WithRetries(1),
//	)
//	addrs, err := res.LookupHost(ctx, "example.com")
//
// # Behaviour
//
//   - A and AAAA questions are sent concurrently (errgroup).
//   - IPv4 answers come first, then IPv6, each in server order.
//   - A lookup fails only when both questions fail; the per-question errors
//     are aggregated with go.uber.org/multierr.
//   - Each failed question is retried Retries more times against a randomly
//     chosen server.
//   - A hostname that is already an IP literal is returned unchanged.
//
// Names are sent fully qualified (dns.Fqdn); this does not affect the hosts
// table, whose keys are never normalized.
package dnsresolver
