// SPDX-License-Identifier: MPL-2.0

package report

import (
	"errors"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	// FormatText is rendered by the CLI and rejected by Encode.
	FormatText Format = "text"
	// FormatJSON encodes with json-iterator.
	FormatJSON Format = "json"
	// FormatYAML encodes with yaml.v3.
	FormatYAML Format = "yaml"
	// FormatTOML encodes with go-toml.
	FormatTOML Format = "toml"
)

// ErrInvalidFormat is the sentinel error wrapped by InvalidFormatError.
var ErrInvalidFormat = errors.New("invalid report format")

type (
	// Format names a report output encoding.
	Format string

	// InvalidFormatError is returned when a report format is not recognized.
	InvalidFormatError struct {
		Value string
	}
)

// Error implements the error interface.
func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("invalid report format %q (must be one of: text, json, yaml, toml)", e.Value)
}

// Unwrap returns ErrInvalidFormat so callers can use errors.Is for programmatic detection.
func (e *InvalidFormatError) Unwrap() error { return ErrInvalidFormat }

// Formats lists every supported format.
func Formats() []Format {
	return []Format{FormatText, FormatJSON, FormatYAML, FormatTOML}
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatText, FormatJSON, FormatYAML, FormatTOML:
		return f, nil
	default:
		return "", &InvalidFormatError{Value: s}
	}
}

// Encode writes r to w in a machine readable format.
func Encode(w io.Writer, r Report, format Format) error {
	switch format {
	case FormatJSON:
		enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encoding json report: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encoding yaml report: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encoding yaml report: %w", err)
		}
	case FormatTOML:
		if err := toml.NewEncoder(w).Encode(r); err != nil {
			return fmt.Errorf("encoding toml report: %w", err)
		}
	default:
		return &InvalidFormatError{Value: string(format)}
	}
	return nil
}
