// Package logger provides leveled logging for the docrag CLI.
// Debug, Info and Section messages print only in verbose mode (--verbose);
// warnings and errors always print. Level tags are coloured when the
// output is a terminal.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"golang.org/x/term"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr

	debugTag   = color.New(color.FgHiBlack)
	infoTag    = color.New(color.FgCyan)
	warnTag    = color.New(color.FgYellow)
	errorTag   = color.New(color.FgRed, color.Bold)
	sectionTag = color.New(color.FgMagenta, color.Bold)
)

func init() {
	setColour(isTerminal(output))
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Colour is disabled unless w is a terminal.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	setColour(isTerminal(w))
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, debugTag.Sprint("[DEBUG]")+" "+format+"\n", args...)
	}
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n%s\n", sectionTag.Sprintf("=== %s ===", name))
	}
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, infoTag.Sprint("[INFO]")+" "+format+"\n", args...)
	}
}

// Warn prints a warning message.
func Warn(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	fmt.Fprintf(output, warnTag.Sprint("[WARN]")+" "+format+"\n", args...)
}

// Error prints an error message.
func Error(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	fmt.Fprintf(output, errorTag.Sprint("[ERROR]")+" "+format+"\n", args...)
}

func setColour(enabled bool) {
	for _, c := range []*color.Color{debugTag, infoTag, warnTag, errorTag, sectionTag} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
