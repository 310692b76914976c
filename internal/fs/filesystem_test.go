package fs

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func TestCopyFile(t *testing.T) {
	t.Run("creates parent directories", func(t *testing.T) {
		tmp := t.TempDir()
		src := filepath.Join(tmp, "src.xml.gz")
		dst := filepath.Join(tmp, "a", "b", "c", "dst.xml.gz")

		if err := os.WriteFile(src, []byte("content"), 0640); err != nil {
			t.Fatalf("writing source: %v", err)
		}

		m := NewOSFilesystemManager()
		if err := m.CopyFile(src, dst); err != nil {
			t.Fatalf("CopyFile() error = %v", err)
		}

		data, err := os.ReadFile(dst)
		if err != nil {
			t.Fatalf("reading destination: %v", err)
		}
		if string(data) != "content" {
			t.Errorf("destination content = %q, want %q", data, "content")
		}

		info, err := os.Stat(dst)
		if err != nil {
			t.Fatalf("stat destination: %v", err)
		}
		if info.Mode().Perm() != 0640 {
			t.Errorf("destination mode = %v, want 0640", info.Mode().Perm())
		}
	})

	t.Run("missing source", func(t *testing.T) {
		tmp := t.TempDir()
		m := NewOSFilesystemManager()
		err := m.CopyFile(filepath.Join(tmp, "nope"), filepath.Join(tmp, "dst"))
		if err == nil {
			t.Fatal("CopyFile() error = nil, want error")
		}
	})

	t.Run("refuses directory source", func(t *testing.T) {
		tmp := t.TempDir()
		m := NewOSFilesystemManager()
		err := m.CopyFile(tmp, filepath.Join(tmp, "dst"))
		if err == nil {
			t.Fatal("CopyFile() error = nil, want error for directory source")
		}
	})
}

func TestWalkFiles(t *testing.T) {
	tmp := t.TempDir()
	files := map[string]string{
		"en/a/1.xml.gz": "1",
		"en/a/2.xml.gz": "2",
		"en/a/2.xml":    "2",
		"en/README":     "r",
	}
	for rel, content := range files {
		p := filepath.Join(tmp, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	m := NewOSFilesystemManager()

	collect := func(patterns []string) []string {
		var got []string
		err := m.WalkFiles(tmp, patterns, func(path string, _ fs.FileInfo) error {
			rel, _ := filepath.Rel(tmp, path)
			got = append(got, rel)
			return nil
		})
		if err != nil {
			t.Fatalf("WalkFiles() error = %v", err)
		}
		sort.Strings(got)
		return got
	}

	t.Run("single pattern", func(t *testing.T) {
		got := collect([]string{"*.xml.gz"})
		want := []string{"en/a/1.xml.gz", "en/a/2.xml.gz"}
		if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
			t.Errorf("WalkFiles() = %v, want %v", got, want)
		}
	})

	t.Run("multiple patterns", func(t *testing.T) {
		got := collect([]string{"*.xml.gz", "*.xml"})
		if len(got) != 3 {
			t.Errorf("WalkFiles() = %v, want 3 documents", got)
		}
	})

	t.Run("no patterns matches everything", func(t *testing.T) {
		got := collect(nil)
		if len(got) != 4 {
			t.Errorf("WalkFiles() = %v, want all 4 files", got)
		}
	})
}

func TestRenameAndRemoveAll(t *testing.T) {
	tmp := t.TempDir()
	m := NewOSFilesystemManager()

	dir := filepath.Join(tmp, "tree")
	if err := m.MkdirAll(filepath.Join(dir, "sub")); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "sub", "f"), []byte("x"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	moved := filepath.Join(tmp, "moved")
	if err := m.Rename(dir, moved); err != nil {
		t.Fatalf("Rename() error = %v", err)
	}
	if _, err := m.Stat(filepath.Join(moved, "sub", "f")); err != nil {
		t.Errorf("moved file missing: %v", err)
	}

	if err := m.RemoveAll(moved); err != nil {
		t.Fatalf("RemoveAll() error = %v", err)
	}
	if _, err := os.Stat(moved); !os.IsNotExist(err) {
		t.Errorf("tree still present after RemoveAll: %v", err)
	}
}
