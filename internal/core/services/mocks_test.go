package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/extractors/pdf"
)

// --- Mock implementations ---

// mockEmbeddingService implements driven.EmbeddingService for testing.
// Every text maps to {1, len(text), 0} unless vectorFn is set.
type mockEmbeddingService struct {
	mu       sync.Mutex
	model    string
	err      error
	queryErr error
	vectorFn func(text string) []float32
	batches  []int
	queries  int
}

func (m *mockEmbeddingService) vector(text string) []float32 {
	if m.vectorFn != nil {
		return m.vectorFn(text)
	}
	return []float32{1, float32(len(text)), 0}
}

func (m *mockEmbeddingService) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.batches = append(m.batches, len(texts))
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vector(t)
	}
	return out, nil
}

func (m *mockEmbeddingService) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.queries++
	m.mu.Unlock()
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	return m.vector(text), nil
}

func (m *mockEmbeddingService) Dimensions() int { return 3 }

func (m *mockEmbeddingService) ModelName() string {
	if m.model == "" {
		return "mock-model"
	}
	return m.model
}

func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }

func (m *mockEmbeddingService) Close() error { return nil }

// mockVectorIndex implements driven.VectorIndex with canned responses.
type mockVectorIndex struct {
	exists    bool
	existsErr error
	results   []domain.QueryResult
	searchErr error
	stats     driven.IndexStats
	statsErr  error
	searchK   int
}

func (m *mockVectorIndex) Rebuild(_ context.Context, _ []domain.Chunk, _ [][]float32, _ string) error {
	return nil
}

func (m *mockVectorIndex) Add(_ context.Context, chunks []domain.Chunk, _ [][]float32, _ string) (int, error) {
	return len(chunks), nil
}

func (m *mockVectorIndex) Search(_ context.Context, _ []float32, k int, _ string) ([]domain.QueryResult, error) {
	m.searchK = k
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if k < len(m.results) {
		return m.results[:k], nil
	}
	return m.results, nil
}

func (m *mockVectorIndex) Exists(_ context.Context) (bool, error) {
	return m.exists, m.existsErr
}

func (m *mockVectorIndex) Stats(_ context.Context) (driven.IndexStats, error) {
	return m.stats, m.statsErr
}

func (m *mockVectorIndex) Close() error { return nil }

// fakeStrategy returns canned page texts keyed by file name.
// Files it has no entry for fail with an error.
type fakeStrategy struct {
	name   string
	method domain.ExtractionMethod
	pages  map[string][]string
}

func (s *fakeStrategy) Name() string { return s.name }

func (s *fakeStrategy) Method() domain.ExtractionMethod { return s.method }

func (s *fakeStrategy) Available() error { return nil }

func (s *fakeStrategy) ExtractPages(_ context.Context, doc domain.SourceDocument) ([]domain.PageRecord, error) {
	texts, ok := s.pages[doc.Name]
	if !ok {
		return nil, fmt.Errorf("%s cannot read %s", s.name, doc.Name)
	}
	out := make([]domain.PageRecord, len(texts))
	for i, text := range texts {
		out[i] = domain.PageRecord{
			Text:       text,
			Source:     doc.Path,
			Page:       i + 1,
			TotalPages: len(texts),
			Method:     s.method,
		}
	}
	return out, nil
}

// watchSource is an in-memory FileSource whose changes are pushed by tests.
type watchSource struct {
	mu      sync.Mutex
	files   map[string]string
	changes chan domain.FileChange
	lists   int
}

func newWatchSource(files map[string]string) *watchSource {
	return &watchSource{files: files, changes: make(chan domain.FileChange, 16)}
}

func (s *watchSource) Type() string { return "memory" }

func (s *watchSource) List(_ context.Context, _ string) ([]domain.FileInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists++
	out := make([]domain.FileInfo, 0, len(s.files))
	for name := range s.files {
		out = append(out, domain.FileInfo{Path: name, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (s *watchSource) Read(_ context.Context, path string) (*domain.SourceDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	content, ok := s.files[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &domain.SourceDocument{Path: path, Name: path, Content: []byte(content)}, nil
}

func (s *watchSource) Watch(_ context.Context, _ string) (<-chan domain.FileChange, error) {
	return s.changes, nil
}

func (s *watchSource) Close() error { return nil }

func (s *watchSource) listCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lists
}

// plainSource hides the Watch method of a watchSource.
type plainSource struct {
	driven.FileSource
}

// --- Fixtures ---

const (
	policyVacation = "Employees accrue twenty vacation days per calendar year, prorated for partial years of service."
	policyRemote   = "Remote work requires manager approval and a secure home network with encrypted storage."
	policyExpenses = "Expense reports must be filed within thirty days, including itemised receipts for travel."
	scanInvoice    = "Invoice number 4471 issued to Harbor Logistics for freight consolidation services."
	scanTerms      = "Payment terms net forty five days; late balances incur monthly interest charges."

	// handbookPage is longer than the default chunk size.
	handbookPage = "New hires complete orientation during their first week and receive a laptop, a badge and building access. " +
		"Managers schedule a check-in after thirty days to review goals and answer questions about benefits. " +
		"The cafeteria on the ground floor serves breakfast from seven until ten and lunch from noon until two. " +
		"Parents may take sixteen weeks of paid parental leave within the first year after a birth or adoption. " +
		"Leave requests go to the people team at least one month before the expected start date."
)

// scenarioCascade reads policy.pdf and handbook.pdf from their text layer
// and scan.pdf only through OCR. Any other file is unreadable.
func scenarioCascade() driven.Extractor {
	direct := &fakeStrategy{
		name:   "pdftotext",
		method: domain.MethodDirect,
		pages: map[string][]string{
			"policy.pdf":   {policyVacation, policyRemote, policyExpenses},
			"scan.pdf":     {"", "  \n"},
			"handbook.pdf": {handbookPage},
		},
	}
	ocr := &fakeStrategy{
		name:   "tesseract",
		method: domain.MethodOCR,
		pages: map[string][]string{
			"scan.pdf": {scanInvoice, scanTerms},
		},
	}
	return pdf.NewCascade(direct, ocr)
}

func writePDFs(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 "+name), 0644))
	}
}
