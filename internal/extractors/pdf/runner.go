package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrPDFToolNotFound indicates a required command-line tool is not in PATH.
var ErrPDFToolNotFound = errors.New("pdf tool not found in PATH (pdftotext, mutool, pdftoppm or tesseract)")

// CommandRunner executes an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs commands with os/exec.
type execRunner struct{}

// Run executes the command. Stderr is folded into the error on failure.
func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return stdout.Bytes(), nil
}

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// requireTools returns ErrPDFToolNotFound naming the first missing tool.
func requireTools(tools ...string) error {
	for _, tool := range tools {
		if _, err := lookPath(tool); err != nil {
			return fmt.Errorf("%w: %s", ErrPDFToolNotFound, tool)
		}
	}
	return nil
}

// CheckAvailable reports whether the primary extraction tool is installed.
func CheckAvailable() error {
	return requireTools("pdftotext")
}

// ToolStatus reports whether one external tool is installed.
type ToolStatus struct {
	Tool      string
	Purpose   string
	Available bool
}

// CheckTools reports the availability of every external tool the cascade can use.
func CheckTools() []ToolStatus {
	tools := []ToolStatus{
		{Tool: "pdftotext", Purpose: "direct and structured text extraction"},
		{Tool: "mutool", Purpose: "permissive parsing of damaged files"},
		{Tool: "pdftoppm", Purpose: "page rasterisation for OCR"},
		{Tool: "tesseract", Purpose: "optical character recognition"},
	}
	for i := range tools {
		_, err := lookPath(tools[i].Tool)
		tools[i].Available = err == nil
	}
	return tools
}

// InstallInstructions returns how to install the external tools.
func InstallInstructions() string {
	return `docrag uses external tools for PDF extraction. The pure-Go parser always
works; the others widen coverage:

  pdftotext, pdftoppm (poppler)
    macOS:          brew install poppler
    Ubuntu/Debian:  apt install poppler-utils
    Fedora:         dnf install poppler-utils

  mutool (MuPDF)
    macOS:          brew install mupdf-tools
    Ubuntu/Debian:  apt install mupdf-tools

  tesseract (OCR for scanned documents)
    macOS:          brew install tesseract
    Ubuntu/Debian:  apt install tesseract-ocr`
}

type panicError struct {
	strategy string
	value    any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("%s panicked: %v", e.strategy, e.value)
}
