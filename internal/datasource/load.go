package datasource

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/expandable/pkg/debug"
)

// Format is an items file encoding.
type Format string

const (
	FormatJSON   Format = "json"
	FormatJSONL  Format = "jsonl"
	FormatYAML   Format = "yaml"
	FormatSQLite Format = "sqlite"
)

// ErrUnknownFormat is returned for files whose extension has no reader.
var ErrUnknownFormat = errors.New("unknown items file format")

// DefaultMaxLineSize bounds one JSON Lines record.
const DefaultMaxLineSize = 1024 * 1024

// DetectFormat picks the format from the file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".jsonl", ".ndjson":
		return FormatJSONL, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite, nil
	}
	return "", fmt.Errorf("%s: %w", path, ErrUnknownFormat)
}

// LoadFile reads every record of the file at path.
func LoadFile(path string) ([]Record, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	if format == FormatSQLite {
		return loadSQLite(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open items file: %w", err)
	}
	defer f.Close()
	records, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// Decode reads records in format from r. SQLite is not a stream format.
func Decode(r io.Reader, format Format) ([]Record, error) {
	var records []Record
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&records); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&records); err != nil && err != io.EOF {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	case FormatJSONL:
		return decodeLines(r)
	default:
		return nil, fmt.Errorf("decode %q: %w", format, ErrUnknownFormat)
	}
	for i, rec := range records {
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}
	return records, nil
}

// decodeLines reads one record per line, skipping blank, oversized and
// malformed lines with a warning.
func decodeLines(r io.Reader) ([]Record, error) {
	reader := bufio.NewReaderSize(r, DefaultMaxLineSize)
	var records []Record
	for lineNum := 1; ; lineNum++ {
		line, isPrefix, err := reader.ReadLine()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", lineNum, err)
		}
		if isPrefix {
			log.Printf("warning: skipping line %d: longer than %d bytes", lineNum, DefaultMaxLineSize)
			for isPrefix && err == nil {
				_, isPrefix, err = reader.ReadLine()
			}
			continue
		}
		if lineNum == 1 {
			line = bytes.TrimPrefix(line, []byte("\xef\xbb\xbf"))
		}
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			log.Printf("warning: skipping malformed JSON on line %d: %v", lineNum, err)
			continue
		}
		if err := rec.Validate(); err != nil {
			log.Printf("warning: skipping line %d: %v", lineNum, err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// LoadAll reads paths concurrently and concatenates their records in the
// order the paths were given. The first failure cancels the rest.
func LoadAll(ctx context.Context, paths []string) ([]Record, error) {
	results := make([][]Record, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			recs, err := LoadFile(path)
			if err != nil {
				return err
			}
			results[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var out []Record
	for i, recs := range results {
		debug.Log("datasource: %s: %d records", paths[i], len(recs))
		out = append(out, recs...)
	}
	return out, nil
}

// SaveFile writes records to path in the format implied by its extension.
func SaveFile(path string, records []Record) error {
	format, err := DetectFormat(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create items dir: %w", err)
	}
	if format == FormatSQLite {
		return saveSQLite(path, records)
	}
	var buf bytes.Buffer
	if err := Encode(&buf, format, records); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write items file: %w", err)
	}
	return nil
}

// Encode writes records to w in format.
func Encode(w io.Writer, format Format, records []Record) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case FormatJSONL:
		enc := json.NewEncoder(w)
		for _, rec := range records {
			if err := enc.Encode(rec); err != nil {
				return err
			}
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("encode %q: %w", format, ErrUnknownFormat)
}
