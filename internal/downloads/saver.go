// Package downloads provides the host "save file with this name"
// capability used by attachment downloads and spreadsheet exports.
package downloads

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Saver stores a named file and returns where it ended up.
type Saver interface {
	Save(ctx context.Context, name, mediaType string, r io.Reader) (string, error)
}

// DirSaver writes files into a downloads directory. Existing files are
// never overwritten; a " (n)" suffix is added instead.
type DirSaver struct {
	dir string
	mu  sync.Mutex
}

// NewDirSaver creates dir if needed and returns a DirSaver for it.
func NewDirSaver(dir string) (*DirSaver, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create downloads directory: %w", err)
	}
	return &DirSaver{dir: dir}, nil
}

// Dir returns the target directory.
func (d *DirSaver) Dir() string {
	return d.dir
}

// Save copies r into the downloads directory under name.
func (d *DirSaver) Save(ctx context.Context, name, _ string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// Buffer into a temp file first so a failed read leaves nothing behind
	tmpFile, err := os.CreateTemp(d.dir, ".download-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := io.Copy(tmpFile, r); err != nil {
		tmpFile.Close()
		return "", fmt.Errorf("failed to write file data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return "", fmt.Errorf("failed to flush file data: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	target := d.freePath(SanitizeName(name))
	if err := os.Rename(tmpFile.Name(), target); err != nil {
		return "", fmt.Errorf("failed to move file to downloads: %w", err)
	}
	return target, nil
}

// freePath returns the first non-existing path for name.
func (d *DirSaver) freePath(name string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	candidate := filepath.Join(d.dir, name)
	for n := 1; ; n++ {
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
		candidate = filepath.Join(d.dir, fmt.Sprintf("%s (%d)%s", stem, n, ext))
	}
}

// SanitizeName reduces name to a plain file name safe to join to a directory.
func SanitizeName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == "/" || name == "" || name == ".." {
		return "download"
	}
	return name
}

// SavedFile is one file captured by MemorySaver.
type SavedFile struct {
	Name      string
	MediaType string
	Data      []byte
}

// MemorySaver keeps saved files in memory.
type MemorySaver struct {
	mu    sync.Mutex
	files []SavedFile
}

// Save records the file.
func (m *MemorySaver) Save(_ context.Context, name, mediaType string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files = append(m.files, SavedFile{Name: name, MediaType: mediaType, Data: buf.Bytes()})
	return name, nil
}

// Files returns the files saved so far.
func (m *MemorySaver) Files() []SavedFile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SavedFile(nil), m.files...)
}
