// Package filesystem provides a FileSource that reads PDFs from local directories.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/logger"
)

// Ensure Source implements the interfaces.
var (
	_ driven.FileSource      = (*Source)(nil)
	_ driven.WatchableSource = (*Source)(nil)
	_ driven.RootResolver    = (*Source)(nil)
)

// ErrClosed is returned by Watch after Close.
var ErrClosed = errors.New("filesystem source closed")

// Source lists and reads PDF files below local directories.
// Hidden files and directories (dot-prefixed) are skipped.
type Source struct {
	mu       sync.Mutex
	closed   bool
	watchers []*fsnotify.Watcher
}

// New creates a filesystem source.
func New() *Source {
	return &Source{}
}

// Type returns the source type identifier.
func (s *Source) Type() string {
	return "filesystem"
}

// ResolveRoot converts a file:// URI or a bare path to the clean local path
// List and Watch operate on.
func (s *Source) ResolveRoot(root string) string {
	return ResolvePath(root)
}

// List walks root recursively and returns every PDF sorted by path.
func (s *Source) List(ctx context.Context, root string) ([]domain.FileInfo, error) {
	root, err := checkRoot(root)
	if err != nil {
		return nil, err
	}

	var files []domain.FileInfo
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			logger.Warn("skipping %s: %v", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, _ := filepath.Rel(root, path)
		if rel != "." && isHidden(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !isPDF(path) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			logger.Warn("skipping %s: %v", path, err)
			return nil
		}
		files = append(files, fileInfo(path, info))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// Read returns the file's bytes.
func (s *Source) Read(ctx context.Context, path string) (*domain.SourceDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path = ResolvePath(path)

	info, err := os.Stat(path)
	if err != nil {
		return nil, statError(path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", domain.ErrInvalidInput, path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return &domain.SourceDocument{
		Path:       path,
		Name:       info.Name(),
		Content:    content,
		Size:       info.Size(),
		ModifiedAt: info.ModTime(),
	}, nil
}

// Watch reports PDF changes below root until ctx is cancelled.
// New subdirectories are watched as they appear.
func (s *Source) Watch(ctx context.Context, root string) (<-chan domain.FileChange, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	s.mu.Unlock()

	root, err := checkRoot(root)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := addTree(watcher, root); err != nil {
		watcher.Close()
		return nil, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		watcher.Close()
		return nil, ErrClosed
	}
	s.watchers = append(s.watchers, watcher)
	s.mu.Unlock()

	changes := make(chan domain.FileChange)
	go func() {
		defer close(changes)
		defer s.release(watcher)

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Create) {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						rel, _ := filepath.Rel(root, event.Name)
						if !isHidden(rel) {
							if err := addTree(watcher, event.Name); err != nil {
								logger.Warn("watching %s: %v", event.Name, err)
							}
						}
					}
				}
				change := handleFsEvent(root, event)
				if change == nil {
					continue
				}
				select {
				case changes <- *change:
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("watcher error: %v", err)
			}
		}
	}()

	return changes, nil
}

// Close stops every active watcher. Safe to call more than once.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	for _, w := range s.watchers {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.watchers = nil
	return errors.Join(errs...)
}

func (s *Source) release(w *fsnotify.Watcher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.watchers {
		if existing == w {
			s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)
			break
		}
	}
	w.Close()
}

// handleFsEvent maps an fsnotify event to a change, or nil when the event
// does not concern a visible PDF.
func handleFsEvent(root string, event fsnotify.Event) *domain.FileChange {
	rel, err := filepath.Rel(root, event.Name)
	if err != nil || isHidden(rel) || !isPDF(event.Name) {
		return nil
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return &domain.FileChange{Type: domain.ChangeDeleted, Path: event.Name}
	case event.Has(fsnotify.Create):
		if info, err := os.Stat(event.Name); err != nil || info.IsDir() {
			return nil
		}
		return &domain.FileChange{Type: domain.ChangeCreated, Path: event.Name}
	case event.Has(fsnotify.Write):
		return &domain.FileChange{Type: domain.ChangeUpdated, Path: event.Name}
	default:
		return nil
	}
}

// addTree watches dir and every visible directory below it.
func addTree(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

func checkRoot(root string) (string, error) {
	root = ResolvePath(root)
	if root == "" {
		return "", fmt.Errorf("%w: root path error: empty path", domain.ErrInvalidInput)
	}
	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("root path error: %w", statError(root, err))
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: root path error: %s is not a directory", domain.ErrInvalidInput, root)
	}
	return root, nil
}

func statError(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, path)
	}
	return fmt.Errorf("stat %s: %w", path, err)
}

func fileInfo(path string, info fs.FileInfo) domain.FileInfo {
	return domain.FileInfo{
		Path:       path,
		Name:       info.Name(),
		Size:       info.Size(),
		ModifiedAt: info.ModTime(),
	}
}

func isPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

// isHidden reports whether any element of path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "" || part == "." || part == ".." {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
