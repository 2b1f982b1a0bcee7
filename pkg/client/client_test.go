package client

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/lc/dynhosts/internal/engine"
	"github.com/lc/dynhosts/internal/hosts"
	"github.com/lc/dynhosts/pkg/api"
)

type stubResolver struct {
	mock.Mock
}

func (m *stubResolver) LookupHost(ctx context.Context, hostname string) ([]string, error) {
	args := m.Called(ctx, hostname)
	var addrs []string
	if v := args.Get(0); v != nil {
		addrs = v.([]string)
	}
	return addrs, args.Error(1)
}

type ClientTestSuite struct {
	suite.Suite
	resolver *stubResolver
	srv      *httptest.Server
	client   *Client
	ctx      context.Context
}

func (s *ClientTestSuite) SetupTest() {
	s.resolver = new(stubResolver)
	eng, err := engine.New(s.resolver, hosts.NewRecord("127.1.2.3", "host.example.com", "host"))
	s.Require().NoError(err)

	s.srv = httptest.NewServer(api.New(eng).Handler())
	s.client = &Client{hc: s.srv.Client(), base: s.srv.URL}
	s.ctx = context.Background()
}

func (s *ClientTestSuite) TearDownTest() {
	s.srv.Close()
}

func (s *ClientTestSuite) TestAddAndLookup() {
	s.Require().NoError(s.client.Add(s.ctx, hosts.NewRecord("127.4.5.6", "host.example.com", "other")))

	addr, err := s.client.Address(s.ctx, "host.example.com")
	s.Require().NoError(err)
	s.Equal("127.1.2.3", addr)

	addrs, err := s.client.Addresses(s.ctx, "host.example.com")
	s.Require().NoError(err)
	s.Equal([]string{"127.1.2.3", "127.4.5.6"}, addrs)

	name, err := s.client.Name(s.ctx, "127.4.5.6")
	s.Require().NoError(err)
	s.Equal("host.example.com", name)

	names, err := s.client.Names(s.ctx, "127.4.5.6")
	s.Require().NoError(err)
	s.Equal([]string{"host.example.com", "other"}, names)
}

func (s *ClientTestSuite) TestErrorMapping() {
	_, err := s.client.Address(s.ctx, "missing.example.com")
	s.ErrorIs(err, hosts.ErrNotFound)

	_, err = s.client.Name(s.ctx, "10.0.0.1")
	s.ErrorIs(err, hosts.ErrNotFound)

	err = s.client.Add(s.ctx, hosts.Record{Addr: "10.0.0.1"})
	s.ErrorIs(err, hosts.ErrValidation)

	names, err := s.client.Names(s.ctx, "10.0.0.1")
	s.Require().NoError(err)
	s.Empty(names)
}

func (s *ClientTestSuite) TestPin() {
	s.resolver.On("LookupHost", mock.Anything, "api.example.com").Return([]string{"192.0.2.7"}, nil).Once()
	s.resolver.On("LookupHost", mock.Anything, "down.example.com").Return(nil, errors.New("servfail")).Once()

	addrs, err := s.client.Pin(s.ctx, "api.example.com", hosts.Aliases{"api"})
	s.Require().NoError(err)
	s.Equal([]string{"192.0.2.7"}, addrs)

	addr, err := s.client.Address(s.ctx, "api")
	s.Require().NoError(err)
	s.Equal("192.0.2.7", addr)

	_, err = s.client.Pin(s.ctx, "down.example.com", nil)
	s.ErrorContains(err, "502")
	s.NotErrorIs(err, hosts.ErrValidation)
}

func (s *ClientTestSuite) TestEntriesAndStatus() {
	entries, err := s.client.Entries(s.ctx)
	s.Require().NoError(err)
	s.Equal([]hosts.Entry{{Addr: "127.1.2.3", Names: []string{"host.example.com", "host"}}}, entries)

	st, err := s.client.Status(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, st.Stats.Addrs)
	s.Equal(2, st.Stats.Names)
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}
