// Package seed decodes the construction-time host records for a dynhosts
// table. A seed document holds either a single record or a list of records
// in YAML, JSON or TOML:
//
//	- addr: 127.1.2.3
//	  hostname: host.example.com
//	  aliases: [host, host2]
//	- addr: 127.4.5.6
//	  hostname: other.example.com
//	  aliases: other
//
// TOML documents use a top-level array of tables named hosts:
//
//	[[hosts]]
//	addr = "127.1.2.3"
//	hostname = "host.example.com"
//	aliases = "host"
package seed

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/lc/dynhosts/internal/filesys"
	"github.com/lc/dynhosts/internal/hosts"
)

var (
	// ErrInvalidSeed is returned when a seed document cannot be decoded or
	// holds records that fail validation.
	ErrInvalidSeed = errors.New("invalid seed document")
	// ErrUnknownFormat is returned for file extensions with no decoder.
	ErrUnknownFormat = errors.New("unknown seed format")

	errRoot = errors.New("document root must be a record or a list of records")
)

// Format names a seed document encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// FormatOf picks a format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, path)
	}
}

// LoadFile reads and decodes the seed document at path.
func LoadFile(fs filesys.ReadWriteFS, path string) ([]hosts.Record, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening seed file: %w", err)
	}
	defer f.Close()

	records, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// LoadFiles loads every path in order and concatenates their records. All
// failing files are reported together.
func LoadFiles(fs filesys.ReadWriteFS, paths []string) ([]hosts.Record, error) {
	var (
		all  []hosts.Record
		errs error
	)
	for _, path := range paths {
		records, err := LoadFile(fs, path)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		all = append(all, records...)
	}
	if errs != nil {
		return nil, errs
	}
	return all, nil
}

// Decode reads one seed document from r. Every record is validated; all
// invalid records are reported together.
func Decode(r io.Reader, format Format) ([]hosts.Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading seed: %w", err)
	}

	var records []hosts.Record
	switch format {
	case FormatYAML:
		records, err = decodeYAML(data)
	case FormatJSON:
		records, err = decodeJSON(data)
	case FormatTOML:
		records, err = decodeTOML(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSeed, err)
	}

	var errs error
	for i, rec := range records {
		if err := rec.Validate(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("record %d: %w", i, err))
		}
	}
	if errs != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSeed, errs)
	}
	return records, nil
}

func decodeYAML(data []byte) ([]hosts.Record, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil // empty document
	}

	root := doc.Content[0]
	switch root.Kind {
	case yaml.MappingNode:
		var rec hosts.Record
		if err := root.Decode(&rec); err != nil {
			return nil, err
		}
		return []hosts.Record{rec}, nil
	case yaml.SequenceNode:
		var recs []hosts.Record
		if err := root.Decode(&recs); err != nil {
			return nil, err
		}
		return recs, nil
	default:
		return nil, errRoot
	}
}

func decodeJSON(data []byte) ([]hosts.Record, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	switch data[0] {
	case '{':
		var rec hosts.Record
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, err
		}
		return []hosts.Record{rec}, nil
	case '[':
		var recs []hosts.Record
		if err := json.Unmarshal(data, &recs); err != nil {
			return nil, err
		}
		return recs, nil
	default:
		return nil, errRoot
	}
}

func decodeTOML(data []byte) ([]hosts.Record, error) {
	var doc struct {
		Hosts []hosts.Record `toml:"hosts"`
	}
	md, err := toml.Decode(string(data), &doc)
	if err != nil {
		return nil, err
	}
	if md.IsDefined("hosts") {
		return doc.Hosts, nil
	}
	if len(md.Keys()) == 0 {
		return nil, nil
	}

	var rec hosts.Record
	if _, err := toml.Decode(string(data), &rec); err != nil {
		return nil, err
	}
	return []hosts.Record{rec}, nil
}
