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

const eventTimeout = 2 * time.Second

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// nextChange waits for a change, skipping any for paths not matching want.
func nextChange(t *testing.T, changes <-chan domain.FileChange, want string) domain.FileChange {
	t.Helper()
	deadline := time.After(eventTimeout)
	for {
		select {
		case c, ok := <-changes:
			require.True(t, ok, "channel closed before change to %s", want)
			if c.Path == want {
				return c
			}
		case <-deadline:
			t.Fatalf("timeout waiting for change to %s", want)
		}
	}
}

func TestNew(t *testing.T) {
	w := New("/tmp/docs", WithExtensions(".TXT", ".md"), WithDebounce(time.Second), WithLogger(nil))

	assert.Equal(t, "/tmp/docs", w.Root())
	assert.Equal(t, time.Second, w.debounce)
	assert.Contains(t, w.extensions, ".txt")
	assert.Contains(t, w.extensions, ".md")
	assert.NotNil(t, w.log)
}

func TestWatcher_Accepts(t *testing.T) {
	root := "/data/docs"
	tests := []struct {
		name     string
		exts     []string
		path     string
		expected bool
	}{
		{"any file without filter", nil, "/data/docs/a.bin", true},
		{"matching extension", []string{".txt"}, "/data/docs/a.txt", true},
		{"extension case ignored", []string{".txt"}, "/data/docs/A.TXT", true},
		{"other extension", []string{".txt"}, "/data/docs/a.pdf", false},
		{"hidden file", nil, "/data/docs/.env", false},
		{"file in hidden dir", nil, "/data/docs/.git/HEAD", false},
		{"no extension with filter", []string{".txt"}, "/data/docs/README", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := New(root, WithExtensions(tt.exts...))
			assert.Equal(t, tt.expected, w.Accepts(tt.path))
		})
	}

	t.Run("root inside hidden directory", func(t *testing.T) {
		w := New("/home/user/.notes")
		assert.True(t, w.Accepts("/home/user/.notes/today.txt"))
	})
}

func TestWatcher_Files(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b.txt"), "b")
	writeFile(t, filepath.Join(root, "a.md"), "a")
	writeFile(t, filepath.Join(root, "image.png"), "png")
	writeFile(t, filepath.Join(root, "nested", "deep", "c.txt"), "c")
	writeFile(t, filepath.Join(root, ".hidden.txt"), "h")
	writeFile(t, filepath.Join(root, ".git", "notes.txt"), "g")

	w := New(root, WithExtensions(".txt", ".md"))
	files, err := w.Files(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "a.md"),
		filepath.Join(root, "b.txt"),
		filepath.Join(root, "nested", "deep", "c.txt"),
	}, files)
}

func TestWatcher_Files_Errors(t *testing.T) {
	t.Run("missing root", func(t *testing.T) {
		_, err := New(filepath.Join(t.TempDir(), "missing")).Files(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "root path error")
	})

	t.Run("root is a file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "file.txt")
		writeFile(t, path, "x")
		_, err := New(path).Files(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not a directory")
	})

	t.Run("cancelled context", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "a.txt"), "a")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := New(root).Files(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("empty directory", func(t *testing.T) {
		files, err := New(t.TempDir()).Files(context.Background())
		require.NoError(t, err)
		assert.Empty(t, files)
	})
}

func TestHandleFsEvent(t *testing.T) {
	tests := []struct {
		name           string
		setupFile      bool
		setupDir       bool
		setupHidden    bool
		fileName       string
		operation      fsnotify.Op
		expectedChange bool
		expectedType   domain.ChangeType
	}{
		{"create file event", true, false, false, "test.txt", fsnotify.Create, true, domain.ChangeCreated},
		{"write file event", true, false, false, "test.txt", fsnotify.Write, true, domain.ChangeUpdated},
		{"remove file event", false, false, false, "removed.txt", fsnotify.Remove, true, domain.ChangeDeleted},
		{"rename file event", false, false, false, "renamed.txt", fsnotify.Rename, true, domain.ChangeDeleted},
		{"chmod is ignored", true, false, false, "test.txt", fsnotify.Chmod, false, ""},
		{"directory create is ignored", false, true, false, "testdir.txt", fsnotify.Create, false, ""},
		{"hidden create is ignored", false, false, true, ".hidden.txt", fsnotify.Create, false, ""},
		{"hidden remove is ignored", false, false, true, ".hidden.txt", fsnotify.Remove, false, ""},
		{"filtered extension is ignored", true, false, false, "photo.png", fsnotify.Create, false, ""},
		{"write to vanished file is ignored", false, false, false, "gone.txt", fsnotify.Write, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			path := filepath.Join(root, tt.fileName)
			switch {
			case tt.setupDir:
				require.NoError(t, os.Mkdir(path, 0755))
			case tt.setupFile, tt.setupHidden && tt.operation != fsnotify.Remove:
				writeFile(t, path, "content")
			}

			w := New(root, WithExtensions(".txt"))
			change := w.handleFsEvent(fsnotify.Event{Name: path, Op: tt.operation})

			if !tt.expectedChange {
				assert.Nil(t, change)
				return
			}
			require.NotNil(t, change)
			assert.Equal(t, tt.expectedType, change.Type)
			assert.Equal(t, path, change.Path)
		})
	}
}

func TestExpand_RemovedDirectory(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "guides")
	writeFile(t, filepath.Join(sub, "intro.md"), "intro")
	writeFile(t, filepath.Join(sub, "deep", "setup.md"), "setup")
	writeFile(t, filepath.Join(sub, "diagram.png"), "png")
	writeFile(t, filepath.Join(root, "guides.md"), "sibling with a shared prefix")

	fw, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	defer fw.Close()

	w := New(root, WithExtensions(".md"))
	require.NoError(t, w.addTree(fw, root))

	changes := w.expand(fw, fsnotify.Event{Name: sub, Op: fsnotify.Rename})

	assert.Equal(t, []domain.FileChange{
		{Type: domain.ChangeDeleted, Path: filepath.Join(sub, "deep", "setup.md")},
		{Type: domain.ChangeDeleted, Path: filepath.Join(sub, "intro.md")},
	}, changes)

	// The directory is forgotten; a repeated event reports nothing.
	assert.Empty(t, w.expand(fw, fsnotify.Event{Name: sub, Op: fsnotify.Remove}))
	assert.Empty(t, w.expand(fw, fsnotify.Event{Name: filepath.Join(sub, "deep"), Op: fsnotify.Remove}))
}

func TestExpand_RemovedFileIsForgotten(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "notes")
	kept := filepath.Join(sub, "kept.txt")
	gone := filepath.Join(sub, "gone.txt")
	writeFile(t, kept, "kept")
	writeFile(t, gone, "gone")

	fw, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	defer fw.Close()

	w := New(root, WithExtensions(".txt"))
	require.NoError(t, w.addTree(fw, root))

	assert.Equal(t, []domain.FileChange{{Type: domain.ChangeDeleted, Path: gone}},
		w.expand(fw, fsnotify.Event{Name: gone, Op: fsnotify.Remove}))
	assert.Equal(t, []domain.FileChange{{Type: domain.ChangeDeleted, Path: kept}},
		w.expand(fw, fsnotify.Event{Name: sub, Op: fsnotify.Remove}))
}

func TestWatcher_Watch(t *testing.T) {
	t.Run("reports created files", func(t *testing.T) {
		root := t.TempDir()
		w := New(root)
		defer w.Close()

		changes, err := w.Watch(context.Background())
		require.NoError(t, err)

		path := filepath.Join(root, "new-file.txt")
		writeFile(t, path, "content")

		c := nextChange(t, changes, path)
		assert.Equal(t, domain.ChangeCreated, c.Type)
	})

	t.Run("reports modified files", func(t *testing.T) {
		root := t.TempDir()
		path := filepath.Join(root, "test.txt")
		writeFile(t, path, "initial")

		w := New(root)
		defer w.Close()
		changes, err := w.Watch(context.Background())
		require.NoError(t, err)

		require.NoError(t, os.WriteFile(path, []byte("modified"), 0644))

		c := nextChange(t, changes, path)
		assert.Equal(t, domain.ChangeUpdated, c.Type)
	})

	t.Run("reports deleted files", func(t *testing.T) {
		root := t.TempDir()
		path := filepath.Join(root, "to-delete.txt")
		writeFile(t, path, "delete me")

		w := New(root)
		defer w.Close()
		changes, err := w.Watch(context.Background())
		require.NoError(t, err)

		require.NoError(t, os.Remove(path))

		c := nextChange(t, changes, path)
		assert.Equal(t, domain.ChangeDeleted, c.Type)
	})

	t.Run("watches new directories", func(t *testing.T) {
		root := t.TempDir()
		w := New(root)
		defer w.Close()
		changes, err := w.Watch(context.Background())
		require.NoError(t, err)

		dir := filepath.Join(root, "later")
		require.NoError(t, os.Mkdir(dir, 0755))
		// Give the watcher time to register the new directory.
		time.Sleep(100 * time.Millisecond)

		path := filepath.Join(dir, "inner.txt")
		writeFile(t, path, "inner")

		c := nextChange(t, changes, path)
		assert.Contains(t, []domain.ChangeType{domain.ChangeCreated, domain.ChangeUpdated}, c.Type)
	})

	t.Run("reports files of a directory moved away", func(t *testing.T) {
		root := t.TempDir()
		sub := filepath.Join(root, "archive")
		path := filepath.Join(sub, "old.md")
		writeFile(t, path, "old")

		w := New(root, WithExtensions(".md"))
		defer w.Close()
		changes, err := w.Watch(context.Background())
		require.NoError(t, err)

		require.NoError(t, os.Rename(sub, filepath.Join(t.TempDir(), "archive")))

		c := nextChange(t, changes, path)
		assert.Equal(t, domain.ChangeDeleted, c.Type)
	})

	t.Run("debounce coalesces create and write", func(t *testing.T) {
		root := t.TempDir()
		w := New(root, WithDebounce(100*time.Millisecond))
		defer w.Close()
		changes, err := w.Watch(context.Background())
		require.NoError(t, err)

		path := filepath.Join(root, "burst.txt")
		writeFile(t, path, "one")
		require.NoError(t, os.WriteFile(path, []byte("two"), 0644))

		c := nextChange(t, changes, path)
		assert.Equal(t, domain.ChangeCreated, c.Type)

		select {
		case extra := <-changes:
			assert.NotEqual(t, path, extra.Path, "burst should produce one change")
		case <-time.After(300 * time.Millisecond):
		}
	})

	t.Run("missing root", func(t *testing.T) {
		w := New("/non/existent/path")
		changes, err := w.Watch(context.Background())

		require.Error(t, err)
		assert.Nil(t, changes)
		assert.Contains(t, err.Error(), "root path error")
	})

	t.Run("closes channel when context is cancelled", func(t *testing.T) {
		w := New(t.TempDir())
		defer w.Close()
		ctx, cancel := context.WithCancel(context.Background())

		changes, err := w.Watch(ctx)
		require.NoError(t, err)
		cancel()

		select {
		case _, ok := <-changes:
			if ok {
				for range changes {
				}
			}
		case <-time.After(eventTimeout):
			t.Fatal("channel did not close after context cancellation")
		}
	})

	t.Run("closes channel on Close", func(t *testing.T) {
		w := New(t.TempDir())
		changes, err := w.Watch(context.Background())
		require.NoError(t, err)

		require.NoError(t, w.Close())

		select {
		case _, ok := <-changes:
			assert.False(t, ok)
		case <-time.After(eventTimeout):
			t.Fatal("channel did not close after Close")
		}
	})

	t.Run("closed watcher", func(t *testing.T) {
		w := New(t.TempDir())
		require.NoError(t, w.Close())
		require.NoError(t, w.Close())

		changes, err := w.Watch(context.Background())
		assert.ErrorIs(t, err, ErrClosed)
		assert.Nil(t, changes)
	})
}

func TestIsHidden(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{".hidden", true},
		{"path/to/.hidden", true},
		{"/root/.config/file.txt", true},
		{"dir/.git/config", true},
		{".config/.cache/data", true},
		{"file.txt", false},
		{"path/to/file.txt", false},
		{".", false},
		{"..", false},
		{"path/./file", false},
		{"path/../file", false},
		{"", false},
		{"/", false},
		{"file.hidden", false},
		{"directory.name/file", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, isHidden(tt.path))
		})
	}
}

func TestCoalescer(t *testing.T) {
	tests := []struct {
		name     string
		sequence []domain.ChangeType
		expected []domain.FileChange
	}{
		{"single", []domain.ChangeType{domain.ChangeUpdated},
			[]domain.FileChange{{Type: domain.ChangeUpdated, Path: "a"}}},
		{"create then write", []domain.ChangeType{domain.ChangeCreated, domain.ChangeUpdated},
			[]domain.FileChange{{Type: domain.ChangeCreated, Path: "a"}}},
		{"write then delete", []domain.ChangeType{domain.ChangeUpdated, domain.ChangeDeleted},
			[]domain.FileChange{{Type: domain.ChangeDeleted, Path: "a"}}},
		{"delete then create", []domain.ChangeType{domain.ChangeDeleted, domain.ChangeCreated},
			[]domain.FileChange{{Type: domain.ChangeUpdated, Path: "a"}}},
		{"create then delete", []domain.ChangeType{domain.ChangeCreated, domain.ChangeDeleted},
			[]domain.FileChange{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCoalescer()
			for _, kind := range tt.sequence {
				c.add(domain.FileChange{Type: kind, Path: "a"})
			}
			assert.Equal(t, tt.expected, c.drain())
			assert.Empty(t, c.drain())
		})
	}

	t.Run("sorted by path", func(t *testing.T) {
		c := newCoalescer()
		c.add(domain.FileChange{Type: domain.ChangeUpdated, Path: "b"})
		c.add(domain.FileChange{Type: domain.ChangeDeleted, Path: "a"})
		assert.Equal(t, []domain.FileChange{
			{Type: domain.ChangeDeleted, Path: "a"},
			{Type: domain.ChangeUpdated, Path: "b"},
		}, c.drain())
	})
}
