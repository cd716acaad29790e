package pdf

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// mockRunner is a test double for CommandRunner.
type mockRunner struct {
	outputs map[string][]byte
	errs    map[string]error
	calls   [][]string
}

func (m *mockRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	m.calls = append(m.calls, append([]string{name}, args...))
	if err := m.errs[name]; err != nil {
		return nil, err
	}
	return m.outputs[name], nil
}

// runnerFunc adapts a function to CommandRunner.
type runnerFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func (f runnerFunc) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return f(ctx, name, args...)
}

// stubLookPath makes only the given tools appear installed.
func stubLookPath(t *testing.T, installed ...string) {
	t.Helper()
	orig := lookPath
	t.Cleanup(func() { lookPath = orig })

	set := make(map[string]bool, len(installed))
	for _, tool := range installed {
		set[tool] = true
	}
	lookPath = func(file string) (string, error) {
		if set[file] {
			return "/usr/bin/" + file, nil
		}
		return "", errors.New("executable file not found in $PATH")
	}
}

func fakeDoc() domain.SourceDocument {
	return domain.SourceDocument{
		Path:    "docs/report.pdf",
		Name:    "report.pdf",
		Content: []byte("%PDF-1.4 fake"),
	}
}

func TestRequireTools(t *testing.T) {
	stubLookPath(t, "pdftotext")

	assert.NoError(t, requireTools("pdftotext"))

	err := requireTools("pdftotext", "tesseract")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPDFToolNotFound)
	assert.Contains(t, err.Error(), "tesseract")
}

func TestCheckAvailable(t *testing.T) {
	stubLookPath(t)
	assert.ErrorIs(t, CheckAvailable(), ErrPDFToolNotFound)

	stubLookPath(t, "pdftotext")
	assert.NoError(t, CheckAvailable())
}

func TestCheckTools(t *testing.T) {
	stubLookPath(t, "pdftotext", "tesseract")

	status := CheckTools()
	require.Len(t, status, 4)

	got := make(map[string]bool)
	for _, s := range status {
		assert.NotEmpty(t, s.Purpose)
		got[s.Tool] = s.Available
	}
	assert.Equal(t, map[string]bool{
		"pdftotext": true,
		"mutool":    false,
		"pdftoppm":  false,
		"tesseract": true,
	}, got)
}

func TestInstallInstructions(t *testing.T) {
	text := InstallInstructions()
	assert.Contains(t, text, "brew install poppler")
	assert.Contains(t, text, "apt install poppler-utils")
	assert.Contains(t, text, "tesseract-ocr")
}

func TestSplitPages(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		pages []string
	}{
		{name: "empty", text: "", pages: nil},
		{name: "single page", text: "hello", pages: []string{"hello"}},
		{name: "trailing form feed", text: "one\ftwo\f", pages: []string{"one", "two"}},
		{name: "blank middle page kept", text: "one\f\fthree\f", pages: []string{"one", "", "three"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pages := splitPages("a.pdf", tt.text, domain.MethodDirect)
			require.Len(t, pages, len(tt.pages))
			for i, p := range pages {
				assert.Equal(t, tt.pages[i], p.Text)
				assert.Equal(t, i+1, p.Page)
				assert.Equal(t, len(tt.pages), p.TotalPages)
				assert.Equal(t, "a.pdf", p.Source)
				assert.Equal(t, domain.MethodDirect, p.Method)
			}
		})
	}
}

func TestWithFile_UsesExistingPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "real.pdf")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	var got string
	err := withFile(domain.SourceDocument{Path: path}, func(p string) error {
		got = p
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, path, got)
}

func TestWithFile_SpillsContent(t *testing.T) {
	var spilled string
	err := withFile(fakeDoc(), func(p string) error {
		spilled = p
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		assert.Equal(t, "%PDF-1.4 fake", string(data))
		return nil
	})
	require.NoError(t, err)

	_, err = os.Stat(spilled)
	assert.True(t, os.IsNotExist(err), "temp file should be removed")
}

func TestWithFile_NoContent(t *testing.T) {
	err := withFile(domain.SourceDocument{Path: "missing.pdf"}, func(string) error {
		t.Fatal("callback should not run")
		return nil
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
