// Package schema validates caller-supplied chunk records before they reach
// the ingestion service. The same schema guards the CLI "add" command and the
// MCP add_chunks tool.
package schema

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// maxLine is the longest JSONL record accepted.
const maxLine = 4 << 20

// ChunkSchema describes one external chunk record.
var ChunkSchema = map[string]any{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"title":   "docrag external chunk",
	"type":    "object",
	"properties": map[string]any{
		"content": map[string]any{
			"type":        "string",
			"minLength":   1,
			"pattern":     `\S`,
			"description": "text to embed",
		},
		"metadata": map[string]any{
			"type":        "object",
			"description": "attributes returned with query results",
			"properties": map[string]any{
				domain.MetaSource:     map[string]any{"type": "string"},
				domain.MetaPage:       map[string]any{"type": "integer", "minimum": 0},
				domain.MetaStartIndex: map[string]any{"type": "integer", "minimum": 0},
			},
		},
	},
	"required":             []any{"content"},
	"additionalProperties": false,
}

var compiled = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewGoLoader(ChunkSchema))
})

// Validate checks one JSON record against ChunkSchema.
func Validate(record []byte) error {
	s, err := compiled()
	if err != nil {
		return fmt.Errorf("compiling chunk schema: %w", err)
	}

	result, err := s.Validate(gojsonschema.NewBytesLoader(record))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}
	return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(details, "; "))
}

// Decode validates and parses one record.
func Decode(record []byte) (domain.ExternalChunk, error) {
	if err := Validate(record); err != nil {
		return domain.ExternalChunk{}, err
	}
	var c domain.ExternalChunk
	if err := json.Unmarshal(record, &c); err != nil {
		return domain.ExternalChunk{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return c, nil
}

// ValidateChunks checks already-decoded chunks, naming the first bad index.
func ValidateChunks(chunks []domain.ExternalChunk) error {
	for i := range chunks {
		record, err := json.Marshal(chunks[i])
		if err != nil {
			return fmt.Errorf("chunk %d: %w: %v", i, domain.ErrInvalidInput, err)
		}
		if err := Validate(record); err != nil {
			return fmt.Errorf("chunk %d: %w", i, err)
		}
	}
	return nil
}

// Read parses chunk records from r. Input is either a JSON array of records
// or JSON Lines; blank lines are skipped. The whole input is rejected if any
// record is invalid.
func Read(r io.Reader) ([]domain.ExternalChunk, error) {
	br := bufio.NewReader(r)
	if first, err := peekNonSpace(br); err == nil && first == '[' {
		return readArray(br)
	}

	scanner := bufio.NewScanner(br)
	scanner.Buffer(make([]byte, 64*1024), maxLine)

	var chunks []domain.ExternalChunk
	line := 0
	for scanner.Scan() {
		line++
		record := bytes.TrimSpace(scanner.Bytes())
		if len(record) == 0 {
			continue
		}
		c, err := Decode(record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		chunks = append(chunks, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading chunks: %w", err)
	}
	return chunks, nil
}

func readArray(r io.Reader) ([]domain.ExternalChunk, error) {
	var records []json.RawMessage
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	chunks := make([]domain.ExternalChunk, 0, len(records))
	for i, record := range records {
		c, err := Decode(record)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		chunks = append(chunks, c)
	}
	return chunks, nil
}

// peekNonSpace returns the first non-whitespace byte without consuming it.
func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.Peek(1)
		if err != nil {
			return 0, err
		}
		switch b[0] {
		case ' ', '\t', '\r', '\n':
			_, _ = br.ReadByte()
		default:
			return b[0], nil
		}
	}
}
