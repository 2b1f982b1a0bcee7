package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/lc/dynhosts/internal/hosts"
)

type ExportTestSuite struct {
	suite.Suite
	entries []hosts.Entry
}

func (s *ExportTestSuite) SetupTest() {
	s.entries = []hosts.Entry{
		{Addr: "127.1.2.3", Names: []string{"host.example.com", "host"}},
		{Addr: "::1", Names: []string{"v6.example.com"}},
		{Addr: "not-an-ip", Names: []string{"odd.example.com"}},
	}
}

func (s *ExportTestSuite) TestParseFormat() {
	f, err := ParseFormat("ZONE")
	s.Require().NoError(err)
	s.Equal(FormatZone, f)

	f, err = ParseFormat("hosts")
	s.Require().NoError(err)
	s.Equal(FormatHosts, f)

	_, err = ParseFormat("bind")
	s.ErrorContains(err, "unknown export format")
}

func (s *ExportTestSuite) TestHosts() {
	var buf bytes.Buffer
	s.Require().NoError(Hosts(&buf, s.entries))
	s.Equal("127.1.2.3\thost.example.com host\n"+
		"::1\tv6.example.com\n"+
		"not-an-ip\todd.example.com\n", buf.String())
}

func (s *ExportTestSuite) TestZone() {
	var buf bytes.Buffer
	skipped, err := Zone(&buf, s.entries, 60)
	s.Require().NoError(err)
	s.Equal([]string{"not-an-ip"}, skipped)
	s.Equal("host.example.com.\t60\tIN\tA\t127.1.2.3\n"+
		"host.\t60\tIN\tA\t127.1.2.3\n"+
		"3.2.1.127.in-addr.arpa.\t60\tIN\tPTR\thost.example.com.\n"+
		"v6.example.com.\t60\tIN\tAAAA\t::1\n"+
		"1.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.ip6.arpa.\t60\tIN\tPTR\tv6.example.com.\n",
		buf.String())
}

func (s *ExportTestSuite) TestWrite() {
	var buf bytes.Buffer
	skipped, err := Write(&buf, FormatHosts, s.entries[:1])
	s.Require().NoError(err)
	s.Empty(skipped)
	s.Equal("127.1.2.3\thost.example.com host\n", buf.String())

	_, err = Write(&buf, Format("csv"), s.entries)
	s.Error(err)
}

func TestExportSuite(t *testing.T) {
	suite.Run(t, new(ExportTestSuite))
}
