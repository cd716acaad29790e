package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestSource_Type(t *testing.T) {
	assert.Equal(t, "filesystem", New().Type())
}

func TestSource_List(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b.pdf"), "%PDF b")
	writeFile(t, filepath.Join(root, "a.PDF"), "%PDF a")
	writeFile(t, filepath.Join(root, "notes.txt"), "not a pdf")
	writeFile(t, filepath.Join(root, "nested", "deep", "c.pdf"), "%PDF c")
	writeFile(t, filepath.Join(root, ".hidden.pdf"), "%PDF hidden")
	writeFile(t, filepath.Join(root, ".git", "d.pdf"), "%PDF in hidden dir")

	files, err := New().List(context.Background(), root)
	require.NoError(t, err)

	var paths []string
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{
		filepath.Join(root, "a.PDF"),
		filepath.Join(root, "b.pdf"),
		filepath.Join(root, "nested", "deep", "c.pdf"),
	}, paths)

	assert.Equal(t, "a.PDF", files[0].Name)
	assert.Equal(t, int64(6), files[0].Size)
	assert.False(t, files[0].ModifiedAt.IsZero())
}

func TestSource_List_Empty(t *testing.T) {
	files, err := New().List(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestSource_List_RootUnderHiddenDirectory(t *testing.T) {
	root := filepath.Join(t.TempDir(), ".docrag", "inbox")
	writeFile(t, filepath.Join(root, "a.pdf"), "%PDF")

	files, err := New().List(context.Background(), root)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestSource_List_FileURI(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.pdf"), "%PDF")

	files, err := New().List(context.Background(), "file://"+root)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestSource_List_Errors(t *testing.T) {
	ctx := context.Background()
	src := New()

	_, err := src.List(ctx, "/non/existent/path")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "root path error")

	file := filepath.Join(t.TempDir(), "a.pdf")
	writeFile(t, file, "%PDF")
	_, err = src.List(ctx, file)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = src.List(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSource_List_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.pdf"), "%PDF")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().List(ctx, root)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSource_Read(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.pdf")
	writeFile(t, path, "%PDF-1.4 body")

	doc, err := New().Read(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, path, doc.Path)
	assert.Equal(t, "report.pdf", doc.Name)
	assert.Equal(t, []byte("%PDF-1.4 body"), doc.Content)
	assert.Equal(t, int64(13), doc.Size)
}

func TestSource_Read_Errors(t *testing.T) {
	ctx := context.Background()
	src := New()

	_, err := src.Read(ctx, filepath.Join(t.TempDir(), "missing.pdf"))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = src.Read(ctx, t.TempDir())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func waitForChange(t *testing.T, changes <-chan domain.FileChange, want domain.ChangeType, name string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case change, ok := <-changes:
			require.True(t, ok, "channel closed before %s of %s", want, name)
			if change.Type == want && filepath.Base(change.Path) == name {
				return
			}
		case <-deadline:
			t.Fatalf("timeout waiting for %s of %s", want, name)
		}
	}
}

func TestSource_Watch(t *testing.T) {
	t.Run("reports created, updated and deleted PDFs", func(t *testing.T) {
		root := t.TempDir()
		src := New()
		defer src.Close()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		changes, err := src.Watch(ctx, root)
		require.NoError(t, err)

		path := filepath.Join(root, "new.pdf")
		writeFile(t, path, "%PDF")
		waitForChange(t, changes, domain.ChangeCreated, "new.pdf")

		f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
		require.NoError(t, err)
		_, err = f.WriteString(" more")
		require.NoError(t, err)
		require.NoError(t, f.Close())
		waitForChange(t, changes, domain.ChangeUpdated, "new.pdf")

		require.NoError(t, os.Remove(path))
		waitForChange(t, changes, domain.ChangeDeleted, "new.pdf")
	})

	t.Run("watches new subdirectories", func(t *testing.T) {
		root := t.TempDir()
		src := New()
		defer src.Close()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		changes, err := src.Watch(ctx, root)
		require.NoError(t, err)

		sub := filepath.Join(root, "sub")
		require.NoError(t, os.Mkdir(sub, 0755))
		// Give the watcher time to register the new directory.
		time.Sleep(100 * time.Millisecond)
		writeFile(t, filepath.Join(sub, "inner.pdf"), "%PDF")

		waitForChange(t, changes, domain.ChangeCreated, "inner.pdf")
	})

	t.Run("returns error for non-existent directory", func(t *testing.T) {
		changes, err := New().Watch(context.Background(), "/non/existent/path")
		assert.Error(t, err)
		assert.Nil(t, changes)
		assert.Contains(t, err.Error(), "root path error")
	})

	t.Run("closes channel when context is cancelled", func(t *testing.T) {
		src := New()
		defer src.Close()
		ctx, cancel := context.WithCancel(context.Background())

		changes, err := src.Watch(ctx, t.TempDir())
		require.NoError(t, err)
		cancel()

		select {
		case _, ok := <-changes:
			assert.False(t, ok)
		case <-time.After(time.Second):
			t.Fatal("channel did not close after context cancellation")
		}
	})

	t.Run("closes channel when source is closed", func(t *testing.T) {
		src := New()
		changes, err := src.Watch(context.Background(), t.TempDir())
		require.NoError(t, err)

		require.NoError(t, src.Close())

		select {
		case _, ok := <-changes:
			assert.False(t, ok)
		case <-time.After(time.Second):
			t.Fatal("channel did not close after Close")
		}
	})

	t.Run("returns error when source is closed", func(t *testing.T) {
		src := New()
		require.NoError(t, src.Close())

		changes, err := src.Watch(context.Background(), t.TempDir())
		assert.ErrorIs(t, err, ErrClosed)
		assert.Nil(t, changes)
	})
}

func TestSource_Close_Idempotent(t *testing.T) {
	src := New()
	assert.NoError(t, src.Close())
	assert.NoError(t, src.Close())
}

func TestIsHidden(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{".hidden", true},
		{"path/to/.hidden", true},
		{"/path/.hidden/file.pdf", true},
		{"dir/.git/config", true},
		{".config/.cache/data", true},

		{"file.pdf", false},
		{"path/to/file.pdf", false},
		{"file.hidden", false},
		{"directory.name/file", false},

		{".", false},
		{"..", false},
		{"path/./file", false},
		{"path/../file", false},
		{"", false},
		{"/", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, isHidden(tt.path))
		})
	}
}

func TestHandleFsEvent(t *testing.T) {
	root := t.TempDir()
	pdf := filepath.Join(root, "doc.pdf")
	writeFile(t, pdf, "%PDF")
	dirPDF := filepath.Join(root, "folder.pdf")
	require.NoError(t, os.Mkdir(dirPDF, 0755))

	tests := []struct {
		name     string
		path     string
		op       fsnotify.Op
		wantType domain.ChangeType
		want     bool
	}{
		{"create", pdf, fsnotify.Create, domain.ChangeCreated, true},
		{"write", pdf, fsnotify.Write, domain.ChangeUpdated, true},
		{"write with chmod", pdf, fsnotify.Write | fsnotify.Chmod, domain.ChangeUpdated, true},
		{"remove", filepath.Join(root, "gone.pdf"), fsnotify.Remove, domain.ChangeDeleted, true},
		{"rename", filepath.Join(root, "moved.pdf"), fsnotify.Rename, domain.ChangeDeleted, true},
		{"chmod only", pdf, fsnotify.Chmod, 0, false},
		{"not a pdf", filepath.Join(root, "notes.txt"), fsnotify.Create, 0, false},
		{"directory named like a pdf", dirPDF, fsnotify.Create, 0, false},
		{"hidden file", filepath.Join(root, ".draft.pdf"), fsnotify.Write, 0, false},
		{"inside hidden dir", filepath.Join(root, ".cache", "x.pdf"), fsnotify.Remove, 0, false},
		{"create of vanished file", filepath.Join(root, "vanished.pdf"), fsnotify.Create, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			change := handleFsEvent(root, fsnotify.Event{Name: tt.path, Op: tt.op})
			if !tt.want {
				assert.Nil(t, change)
				return
			}
			require.NotNil(t, change)
			assert.Equal(t, tt.wantType, change.Type)
			assert.Equal(t, tt.path, change.Path)
		})
	}
}
