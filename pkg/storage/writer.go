package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"trends-go/pkg/logger"
)

var (
	// ErrNotFound is returned by Read when the document file does not exist.
	ErrNotFound = errors.New("trends document not found")
	// ErrInvalid is returned by Read when the file is not a trends document.
	ErrInvalid = errors.New("invalid trends document")
)

// Writer persists a Document as indented UTF-8 JSON at a fixed path.
type Writer struct {
	path string
	log  *logger.Logger
}

// NewWriter creates a writer for path
func NewWriter(path string, log *logger.Logger) *Writer {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Writer{
		path: path,
		log:  log.WithField("component", "document_writer"),
	}
}

// Path returns the destination file
func (w *Writer) Path() string {
	return w.path
}

// Write replaces the file at the writer's path. The document is encoded to a
// temporary file in the same directory and renamed into place, so readers see
// either the previous document or the new one.
func (w *Writer) Write(doc *Document) error {
	doc.Normalize()

	data, err := Encode(doc)
	if err != nil {
		return err
	}

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(w.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("failed to chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, w.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", w.path, err)
	}

	w.log.WithFields(map[string]interface{}{
		"path":     w.path,
		"keywords": len(doc.Keywords),
		"bytes":    len(data),
	}).Debug("Trends document written")
	return nil
}

// Encode renders doc as two-space indented JSON with non-ASCII and HTML
// characters left as-is, followed by a newline.
func Encode(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode trends document: %w", err)
	}
	return buf.Bytes(), nil
}

// Read loads a document written by Writer.
func Read(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %w", ErrInvalid, path, err)
	}
	doc.Normalize()
	return &doc, nil
}

// StatusLine is the one-line summary printed after a successful write.
func StatusLine(keywords, items int) string {
	return fmt.Sprintf("TRENDS_OK terms=%d total_items=%d", keywords, items)
}
