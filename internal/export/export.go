// Package export renders a hosts table dump for consumption outside the
// daemon: as hosts(5)-style lines, or as DNS resource records that can be
// pasted into a zone.
package export

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/miekg/dns"

	"github.com/lc/dynhosts/internal/hosts"
)

// Format selects the rendering.
type Format string

const (
	FormatHosts Format = "hosts"
	FormatZone  Format = "zone"
)

// DefaultTTL is the TTL given to zone records.
const DefaultTTL = 300

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatHosts, FormatZone:
		return f, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want hosts or zone)", s)
	}
}

// Write renders entries to w in format f. It returns the addresses that
// could not be rendered (zone output only covers IP addresses).
func Write(w io.Writer, f Format, entries []hosts.Entry) (skipped []string, err error) {
	switch f {
	case FormatHosts:
		return nil, Hosts(w, entries)
	case FormatZone:
		return Zone(w, entries, DefaultTTL)
	default:
		return nil, fmt.Errorf("unknown export format %q", f)
	}
}

// Hosts writes one line per address: the address, a tab, then its names
// separated by spaces, in stored order.
func Hosts(w io.Writer, entries []hosts.Entry) error {
	bw := bufio.NewWriter(w)
	for _, e := range entries {
		if _, err := fmt.Fprintf(bw, "%s\t%s\n", e.Addr, strings.Join(e.Names, " ")); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Zone writes an A or AAAA record for every name of every IP address, plus
// one PTR record pointing the address back at its first name. Addresses that
// are not IPs are skipped and returned.
func Zone(w io.Writer, entries []hosts.Entry, ttl uint32) (skipped []string, err error) {
	bw := bufio.NewWriter(w)
	for _, e := range entries {
		rrs, ok := records(e, ttl)
		if !ok {
			skipped = append(skipped, e.Addr)
			continue
		}
		for _, rr := range rrs {
			if _, err := fmt.Fprintln(bw, rr.String()); err != nil {
				return skipped, err
			}
		}
	}
	return skipped, bw.Flush()
}

func records(e hosts.Entry, ttl uint32) ([]dns.RR, bool) {
	ip := net.ParseIP(e.Addr)
	if ip == nil || len(e.Names) == 0 {
		return nil, false
	}

	rrs := make([]dns.RR, 0, len(e.Names)+1)
	for _, name := range e.Names {
		hdr := dns.RR_Header{Name: dns.Fqdn(name), Class: dns.ClassINET, Ttl: ttl}
		if v4 := ip.To4(); v4 != nil {
			hdr.Rrtype = dns.TypeA
			rrs = append(rrs, &dns.A{Hdr: hdr, A: v4})
		} else {
			hdr.Rrtype = dns.TypeAAAA
			rrs = append(rrs, &dns.AAAA{Hdr: hdr, AAAA: ip})
		}
	}

	rev, err := dns.ReverseAddr(e.Addr)
	if err != nil {
		return nil, false
	}
	rrs = append(rrs, &dns.PTR{
		Hdr: dns.RR_Header{Name: rev, Rrtype: dns.TypePTR, Class: dns.ClassINET, Ttl: ttl},
		Ptr: dns.Fqdn(e.Names[0]),
	})
	return rrs, true
}
