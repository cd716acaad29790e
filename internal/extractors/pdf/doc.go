// Package pdf extracts page text from PDF files through an ordered cascade
// of strategies.
//
// Strategies, in order:
//
//   - DirectTextParser: poppler pdftotext
//   - AlternateParser: pure-Go decoder (github.com/ledongthuc/pdf)
//   - PermissiveParser: MuPDF mutool, tolerant of damaged files
//   - StructuredParser: pdftotext -layout, keeps column structure
//   - OCRExtractor: pdftoppm rasterisation + tesseract recognition
//
// The first strategy that yields a page with non-blank text wins. Strategies
// that shell out do so through a CommandRunner so tests can substitute
// canned output.
package pdf
