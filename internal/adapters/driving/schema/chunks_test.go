package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		record  string
		wantErr string
	}{
		{"content only", `{"content":"hello"}`, ""},
		{"with metadata", `{"content":"hello","metadata":{"source":"a.md","page":2,"tag":"x"}}`, ""},
		{"missing content", `{"metadata":{}}`, "content"},
		{"empty content", `{"content":""}`, "content"},
		{"blank content", `{"content":"  \n "}`, "content"},
		{"content not a string", `{"content":42}`, "content"},
		{"unknown field", `{"content":"a","score":1}`, "score"},
		{"metadata not an object", `{"content":"a","metadata":"x"}`, "metadata"},
		{"negative page", `{"content":"a","metadata":{"page":-1}}`, "page"},
		{"fractional page", `{"content":"a","metadata":{"page":1.5}}`, "page"},
		{"source not a string", `{"content":"a","metadata":{"source":3}}`, "source"},
		{"not an object", `["content"]`, "object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate([]byte(tt.record))
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_MalformedJSON(t *testing.T) {
	err := Validate([]byte(`{"content":`))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDecode(t *testing.T) {
	c, err := Decode([]byte(`{"content":"hello","metadata":{"page":3,"author":"kim"}}`))
	require.NoError(t, err)
	assert.Equal(t, "hello", c.Content)
	assert.Equal(t, float64(3), c.Metadata["page"])
	assert.Equal(t, "kim", c.Metadata["author"])
}

func TestRead_JSONLines(t *testing.T) {
	input := `{"content":"first"}

{"content":"second","metadata":{"source":"notes.md"}}
`
	chunks, err := Read(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "first", chunks[0].Content)
	assert.Equal(t, "notes.md", chunks[1].Metadata["source"])
}

func TestRead_Array(t *testing.T) {
	input := `
  [{"content":"first"}, {"content":"second"}]`
	chunks, err := Read(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "second", chunks[1].Content)
}

func TestRead_RejectsWholeInput(t *testing.T) {
	input := `{"content":"fine"}
{"content":"   "}
{"content":"also fine"}`
	chunks, err := Read(strings.NewReader(input))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "line 2")
	assert.Nil(t, chunks)

	_, err = Read(strings.NewReader(`[{"content":"ok"},{"text":"wrong"}]`))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "record 1")
}

func TestRead_Empty(t *testing.T) {
	chunks, err := Read(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, chunks)

	chunks, err = Read(strings.NewReader("[]"))
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestValidateChunks(t *testing.T) {
	err := ValidateChunks([]domain.ExternalChunk{
		{Content: "ok", Metadata: map[string]any{"page": 2}},
		{Content: "ok too"},
	})
	assert.NoError(t, err)

	err = ValidateChunks([]domain.ExternalChunk{
		{Content: "ok"},
		{Content: "ok"},
		{Content: ""},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "chunk 2")

	err = ValidateChunks([]domain.ExternalChunk{{Content: "x", Metadata: map[string]any{"page": "two"}}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
