package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/logger"
)

var _ driven.ExtractionStrategy = (*OCRExtractor)(nil)

// OCRExtractor rasterises each page with pdftoppm and recognises the image
// with tesseract. It is the last resort for scanned documents.
type OCRExtractor struct {
	runner   CommandRunner
	language string
	dpi      int
}

// NewOCRExtractor creates an OCR strategy. Zero values select
// English at 300 DPI.
func NewOCRExtractor(runner CommandRunner, language string, dpi int) *OCRExtractor {
	if language == "" {
		language = domain.DefaultOCRLanguage
	}
	if dpi <= 0 {
		dpi = domain.DefaultOCRDPI
	}
	return &OCRExtractor{runner: runner, language: language, dpi: dpi}
}

// Name returns the strategy name.
func (p *OCRExtractor) Name() string { return "tesseract" }

// Method returns the extraction method recorded on pages.
func (p *OCRExtractor) Method() domain.ExtractionMethod { return domain.MethodOCR }

// Available checks pdftoppm and tesseract are installed.
func (p *OCRExtractor) Available() error { return requireTools("pdftoppm", "tesseract") }

// ExtractPages renders all pages to PNG then recognises them one by one.
// A page that fails recognition is logged and left empty.
func (p *OCRExtractor) ExtractPages(ctx context.Context, doc domain.SourceDocument) ([]domain.PageRecord, error) {
	var pages []domain.PageRecord
	err := withFile(doc, func(path string) error {
		dir, err := os.MkdirTemp("", "docrag-ocr-*")
		if err != nil {
			return fmt.Errorf("create image dir: %w", err)
		}
		defer os.RemoveAll(dir)

		prefix := filepath.Join(dir, "page")
		if _, err := p.runner.Run(ctx, "pdftoppm", "-r", strconv.Itoa(p.dpi), "-png", path, prefix); err != nil {
			return fmt.Errorf("pdftoppm failed: %w", err)
		}

		images, err := pageImages(dir)
		if err != nil {
			return err
		}
		if len(images) == 0 {
			return fmt.Errorf("pdftoppm produced no images")
		}

		pages = make([]domain.PageRecord, 0, len(images))
		for _, img := range images {
			if err := ctx.Err(); err != nil {
				return err
			}
			out, err := p.runner.Run(ctx, "tesseract", img.path, "stdout", "-l", p.language)
			if err != nil {
				logger.Debug("tesseract failed on %s page %d: %v", doc.Path, img.page, err)
				out = nil
			}
			pages = append(pages, domain.PageRecord{
				Text:       string(out),
				Source:     doc.Path,
				Page:       img.page,
				TotalPages: len(images),
				Method:     p.Method(),
			})
		}
		return nil
	})
	return pages, err
}

type pageImage struct {
	path string
	page int
}

// pageImages lists pdftoppm output ("page-1.png", "page-01.png", ...) in page order.
func pageImages(dir string) ([]pageImage, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "page-*.png"))
	if err != nil {
		return nil, fmt.Errorf("list page images: %w", err)
	}

	images := make([]pageImage, 0, len(matches))
	for _, m := range matches {
		base := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(m), "page-"), ".png")
		n, err := strconv.Atoi(base)
		if err != nil {
			continue
		}
		images = append(images, pageImage{path: m, page: n})
	}
	sort.Slice(images, func(i, j int) bool { return images[i].page < images[j].page })
	return images, nil
}
