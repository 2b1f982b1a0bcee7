package hosts

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

var (
	// ErrValidation is returned when a record is missing a required field or
	// carries aliases of an unsupported shape.
	ErrValidation = errors.New("invalid host record")
	// ErrNotFound is returned by the single-result lookups when a key has no entries.
	ErrNotFound = errors.New("no dynamic hosts entry")
)

// Record is one address/hostname pair plus optional aliases.
type Record struct {
	Addr     string  `json:"addr" yaml:"addr" toml:"addr"`
	Hostname string  `json:"hostname" yaml:"hostname" toml:"hostname"`
	Aliases  Aliases `json:"aliases,omitempty" yaml:"aliases,omitempty" toml:"aliases,omitempty"`
}

// NewRecord is shorthand for building a Record in code.
func NewRecord(addr, hostname string, aliases ...string) Record {
	return Record{Addr: addr, Hostname: hostname, Aliases: aliases}
}

// Validate reports whether the record can be inserted.
func (r Record) Validate() error {
	if r.Addr == "" {
		return fmt.Errorf("%w: must specify addr for host", ErrValidation)
	}
	if r.Hostname == "" {
		return fmt.Errorf("%w: must specify hostname for host", ErrValidation)
	}
	return nil
}

// Aliases holds zero or more alternate names for a record. When decoded it
// accepts either a single string or a sequence of strings; any other shape
// is rejected with ErrValidation.
type Aliases []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (a *Aliases) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		switch value.ShortTag() {
		case "!!null":
			*a = nil
			return nil
		case "!!str":
			*a = Aliases{value.Value}
			return nil
		}
		return aliasShapeError(value.ShortTag())
	case yaml.SequenceNode:
		out := make(Aliases, 0, len(value.Content))
		for _, n := range value.Content {
			if n.Kind != yaml.ScalarNode || n.ShortTag() != "!!str" {
				return aliasShapeError(n.ShortTag())
			}
			out = append(out, n.Value)
		}
		*a = out
		return nil
	default:
		return aliasShapeError(value.ShortTag())
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Aliases) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = nil
		return nil
	}

	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*a = Aliases{one}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return aliasShapeError(string(data))
	}
	*a = many
	return nil
}

// UnmarshalTOML implements toml.Unmarshaler.
func (a *Aliases) UnmarshalTOML(v any) error {
	switch val := v.(type) {
	case nil:
		*a = nil
	case string:
		*a = Aliases{val}
	case []any:
		out := make(Aliases, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return aliasShapeError(fmt.Sprintf("%T", item))
			}
			out = append(out, s)
		}
		*a = out
	default:
		return aliasShapeError(fmt.Sprintf("%T", v))
	}
	return nil
}

func aliasShapeError(got string) error {
	return fmt.Errorf("%w: aliases must be a string or a list of strings, got %s", ErrValidation, got)
}
