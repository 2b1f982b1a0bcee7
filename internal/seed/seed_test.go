package seed_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/lc/dynhosts/internal/filesys"
	"github.com/lc/dynhosts/internal/hosts"
	"github.com/lc/dynhosts/internal/mocks"
	"github.com/lc/dynhosts/internal/seed"
)

type SeedTestSuite struct {
	suite.Suite
}

func (s *SeedTestSuite) TestDecode() {
	testCases := []struct {
		name      string
		format    seed.Format
		in        string
		expected  []hosts.Record
		expectErr error
	}{
		{
			name:   "yaml single record",
			format: seed.FormatYAML,
			in:     "addr: 127.1.2.3\nhostname: host.example.com\n",
			expected: []hosts.Record{
				{Addr: "127.1.2.3", Hostname: "host.example.com"},
			},
		},
		{
			name:   "yaml list of records",
			format: seed.FormatYAML,
			in: `
- addr: 127.1.2.3
  hostname: host.example.com
  aliases: host
- addr: 127.4.5.6
  hostname: host2.example.com
  aliases: [a, b]
`,
			expected: []hosts.Record{
				{Addr: "127.1.2.3", Hostname: "host.example.com", Aliases: hosts.Aliases{"host"}},
				{Addr: "127.4.5.6", Hostname: "host2.example.com", Aliases: hosts.Aliases{"a", "b"}},
			},
		},
		{
			name:   "yaml empty document",
			format: seed.FormatYAML,
			in:     "",
		},
		{
			name:      "yaml scalar root",
			format:    seed.FormatYAML,
			in:        "just a string\n",
			expectErr: seed.ErrInvalidSeed,
		},
		{
			name:   "json single record",
			format: seed.FormatJSON,
			in:     `{"addr":"127.1.2.3","hostname":"host.example.com","aliases":"host"}`,
			expected: []hosts.Record{
				{Addr: "127.1.2.3", Hostname: "host.example.com", Aliases: hosts.Aliases{"host"}},
			},
		},
		{
			name:   "json list of records",
			format: seed.FormatJSON,
			in:     `[{"addr":"127.1.2.3","hostname":"a"},{"addr":"127.4.5.6","hostname":"b"}]`,
			expected: []hosts.Record{
				{Addr: "127.1.2.3", Hostname: "a"},
				{Addr: "127.4.5.6", Hostname: "b"},
			},
		},
		{
			name:   "toml hosts array",
			format: seed.FormatTOML,
			in: `
[[hosts]]
addr = "127.1.2.3"
hostname = "host.example.com"
aliases = ["host", "host2"]

[[hosts]]
addr = "127.4.5.6"
hostname = "host.example.com"
`,
			expected: []hosts.Record{
				{Addr: "127.1.2.3", Hostname: "host.example.com", Aliases: hosts.Aliases{"host", "host2"}},
				{Addr: "127.4.5.6", Hostname: "host.example.com"},
			},
		},
		{
			name:   "toml single record",
			format: seed.FormatTOML,
			in:     "addr = \"127.1.2.3\"\nhostname = \"host.example.com\"\n",
			expected: []hosts.Record{
				{Addr: "127.1.2.3", Hostname: "host.example.com"},
			},
		},
		{
			name:      "missing hostname",
			format:    seed.FormatYAML,
			in:        "- addr: 127.1.2.3\n",
			expectErr: hosts.ErrValidation,
		},
		{
			name:      "numeric alias",
			format:    seed.FormatJSON,
			in:        `{"addr":"127.1.2.3","hostname":"host","aliases":7}`,
			expectErr: hosts.ErrValidation,
		},
		{
			name:      "unknown format",
			format:    seed.Format("ini"),
			in:        "addr=1",
			expectErr: seed.ErrUnknownFormat,
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			records, err := seed.Decode(strings.NewReader(tc.in), tc.format)
			if tc.expectErr != nil {
				s.ErrorIs(err, tc.expectErr)
				return
			}
			s.Require().NoError(err)
			s.Equal(tc.expected, records)
		})
	}
}

func (s *SeedTestSuite) TestDecodeReportsEveryInvalidRecord() {
	in := `
- addr: 127.1.2.3
- hostname: orphan.example.com
- addr: 127.4.5.6
  hostname: ok.example.com
`
	_, err := seed.Decode(strings.NewReader(in), seed.FormatYAML)
	s.ErrorIs(err, seed.ErrInvalidSeed)
	s.ErrorIs(err, hosts.ErrValidation)
	s.ErrorContains(err, "record 0")
	s.ErrorContains(err, "record 1")
	s.NotContains(err.Error(), "record 2")
}

func (s *SeedTestSuite) TestFormatOf() {
	testCases := map[string]seed.Format{
		"seed.yaml":     seed.FormatYAML,
		"seed.YML":      seed.FormatYAML,
		"/etc/x.json":   seed.FormatJSON,
		"dir/seed.toml": seed.FormatTOML,
	}
	for path, expected := range testCases {
		got, err := seed.FormatOf(path)
		s.NoError(err, path)
		s.Equal(expected, got, path)
	}

	_, err := seed.FormatOf("/etc/hosts")
	s.ErrorIs(err, seed.ErrUnknownFormat)
}

func (s *SeedTestSuite) TestLoadFile() {
	path := filepath.Join(s.T().TempDir(), "seed.yaml")
	s.Require().NoError(os.WriteFile(path, []byte("addr: 127.1.2.3\nhostname: host.example.com\n"), 0o600))
	f, err := os.Open(path)
	s.Require().NoError(err)

	fs := new(mocks.MockFS)
	fs.On("Open", "/etc/dynhosts/seed.yaml").Return(f, nil)

	records, err := seed.LoadFile(fs, "/etc/dynhosts/seed.yaml")
	s.Require().NoError(err)
	s.Equal([]hosts.Record{hosts.NewRecord("127.1.2.3", "host.example.com")}, records)
	fs.AssertExpectations(s.T())
}

func (s *SeedTestSuite) TestLoadFileMissing() {
	fs := new(mocks.MockFS)
	fs.On("Open", "missing.json").Return(nil, os.ErrNotExist)

	_, err := seed.LoadFile(fs, "missing.json")
	s.ErrorIs(err, os.ErrNotExist)
	s.ErrorContains(err, "opening seed file")
}

func (s *SeedTestSuite) TestLoadFiles() {
	dir := s.T().TempDir()
	yamlPath := filepath.Join(dir, "a.yaml")
	jsonPath := filepath.Join(dir, "b.json")
	s.Require().NoError(os.WriteFile(yamlPath, []byte("addr: 127.1.2.3\nhostname: a\n"), 0o600))
	s.Require().NoError(os.WriteFile(jsonPath, []byte(`[{"addr":"127.4.5.6","hostname":"b"}]`), 0o600))

	s.Run("concatenates in order", func() {
		records, err := seed.LoadFiles(filesys.OS(), []string{yamlPath, jsonPath})
		s.Require().NoError(err)
		s.Equal([]hosts.Record{
			hosts.NewRecord("127.1.2.3", "a"),
			hosts.NewRecord("127.4.5.6", "b"),
		}, records)
	})

	s.Run("reports every failing file", func() {
		_, err := seed.LoadFiles(filesys.OS(), []string{
			filepath.Join(dir, "missing.yaml"),
			yamlPath,
			filepath.Join(dir, "hosts.txt"),
		})
		s.ErrorIs(err, os.ErrNotExist)
		s.ErrorIs(err, seed.ErrUnknownFormat)
	})
}

func TestSeedSuite(t *testing.T) {
	suite.Run(t, new(SeedTestSuite))
}
