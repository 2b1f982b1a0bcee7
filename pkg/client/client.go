// Package client is the typed caller side of pkg/api for CLI tools. It dials
// the daemon's Unix socket and maps API status codes back onto hosts errors,
// so callers can use errors.Is(err, hosts.ErrNotFound).
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/lc/dynhosts/internal/hosts"
	"github.com/lc/dynhosts/internal/socket"
	"github.com/lc/dynhosts/pkg/api"
)

// Client holds an http.Client wired to a Unix socket.
type Client struct {
	hc   *http.Client
	base string // dummy scheme+host for Request.URL (http://unix)
}

// New returns a Client that dials the given Unix-domain socket path.
func New(socketPath string) *Client {
	dial := func(ctx context.Context, _, _ string) (net.Conn, error) {
		return socket.ConnectContext(ctx, socketPath)
	}
	tr := &http.Transport{DialContext: dial}
	return &Client{hc: &http.Client{Transport: tr}, base: "http://unix"}
}

// Add inserts a record.
func (c *Client) Add(ctx context.Context, r hosts.Record) error {
	return c.post(ctx, "/v1/hosts", r, nil)
}

// Pin resolves hostname upstream on the daemon and records every answer.
func (c *Client) Pin(ctx context.Context, hostname string, aliases hosts.Aliases) ([]string, error) {
	var out api.PinResponse
	err := c.post(ctx, "/v1/pin", api.PinRequest{Hostname: hostname, Aliases: aliases}, &out)
	return out.Addresses, err
}

// Address returns the first address for name.
func (c *Client) Address(ctx context.Context, name string) (string, error) {
	var out api.AddressResponse
	err := c.get(ctx, "/v1/address", url.Values{"name": {name}}, &out)
	return out.Address, err
}

// Addresses returns every address for name.
func (c *Client) Addresses(ctx context.Context, name string) ([]string, error) {
	var out []string
	err := c.get(ctx, "/v1/addresses", url.Values{"name": {name}}, &out)
	return out, err
}

// Name returns the first name for addr.
func (c *Client) Name(ctx context.Context, addr string) (string, error) {
	var out api.NameResponse
	err := c.get(ctx, "/v1/name", url.Values{"addr": {addr}}, &out)
	return out.Name, err
}

// Names returns every name for addr.
func (c *Client) Names(ctx context.Context, addr string) ([]string, error) {
	var out []string
	err := c.get(ctx, "/v1/names", url.Values{"addr": {addr}}, &out)
	return out, err
}

// Entries returns the full table, ordered by address.
func (c *Client) Entries(ctx context.Context) ([]hosts.Entry, error) {
	var out []hosts.Entry
	err := c.get(ctx, "/v1/entries", nil, &out)
	return out, err
}

// Status retrieves the daemon status.
func (c *Client) Status(ctx context.Context) (api.StatusResponse, error) {
	var out api.StatusResponse
	err := c.get(ctx, "/v1/status", nil, &out)
	return out, err
}

// --------------------------- HTTP helpers --------------------------

func (c *Client) post(ctx context.Context, path string, payload, v any) error {
	buf, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, v)
}

func (c *Client) get(ctx context.Context, path string, params url.Values, v any) error {
	u := c.base + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, v)
}

func (c *Client) do(req *http.Request, v any) error {
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return statusError(resp)
	}
	if v == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// statusError rebuilds a hosts error from an error response.
func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := strings.TrimSpace(string(body))

	switch resp.StatusCode {
	case http.StatusBadRequest:
		return fmt.Errorf("%w: daemon: %s", hosts.ErrValidation, msg)
	case http.StatusNotFound:
		return fmt.Errorf("%w: daemon: %s", hosts.ErrNotFound, msg)
	default:
		return fmt.Errorf("daemon returned %s: %s", resp.Status, msg)
	}
}
