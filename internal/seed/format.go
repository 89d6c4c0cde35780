// Package seed moves reference trees in and out of the repository: it
// decodes and encodes documents in YAML, TOML, and JSONL, applies them
// through the mutation API, and carries the built-in starter set.
package seed

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/formulary/pkg/types"
)

// Format names a document encoding.
type Format string

// Supported formats.
const (
	FormatYAML  Format = "yaml"
	FormatTOML  Format = "toml"
	FormatJSONL Format = "jsonl"
)

// ErrUnknownFormat is returned for an unrecognized format or file extension.
var ErrUnknownFormat = errors.New("unknown document format")

// ParseFormat maps a user-supplied name to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	case "jsonl", "ndjson":
		return FormatJSONL, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// Decode reads a document in the given format.
func Decode(r io.Reader, format Format) (types.Document, error) {
	var doc types.Document
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
			return doc, fmt.Errorf("decoding yaml: %w", err)
		}
	case FormatTOML:
		if _, err := toml.NewDecoder(r).Decode(&doc); err != nil {
			return doc, fmt.Errorf("decoding toml: %w", err)
		}
	case FormatJSONL:
		return decodeJSONL(r)
	default:
		return doc, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return doc, nil
}

// Encode writes doc in the given format.
func Encode(w io.Writer, doc types.Document, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	case FormatTOML:
		if err := toml.NewEncoder(w).Encode(doc); err != nil {
			return fmt.Errorf("encoding toml: %w", err)
		}
		return nil
	case FormatJSONL:
		return encodeJSONL(w, doc)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// decodeJSONL reads one category per line. Blank lines are skipped;
// a malformed line is an error naming its line number.
func decodeJSONL(r io.Reader) (types.Document, error) {
	doc := types.Document{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		b := bytes.TrimSpace(scanner.Bytes())
		if len(b) == 0 {
			continue
		}
		var c types.DocumentCategory
		if err := json.Unmarshal(b, &c); err != nil {
			return doc, fmt.Errorf("decoding jsonl line %d: %w", line, err)
		}
		doc.Categories = append(doc.Categories, c)
	}
	if err := scanner.Err(); err != nil {
		return doc, fmt.Errorf("scanning jsonl: %w", err)
	}
	return doc, nil
}

func encodeJSONL(w io.Writer, doc types.Document) error {
	bw := bufio.NewWriter(w)
	for _, c := range doc.Categories {
		data, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("marshaling category %q: %w", c.Name, err)
		}
		if _, err := bw.Write(data); err != nil {
			return fmt.Errorf("writing record: %w", err)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return fmt.Errorf("writing newline: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flushing buffer: %w", err)
	}
	return nil
}
