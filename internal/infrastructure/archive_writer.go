package infrastructure

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/manga-dl-go/internal/domain"
)

// EntryExtension is appended to every archive entry name
const EntryExtension = ".jpg"

// ZipArchiveWriter writes payloads as stored (uncompressed) zip entries
// named 0.jpg, 1.jpg, ... in payload order.
type ZipArchiveWriter struct {
	now func() time.Time
}

// NewZipArchiveWriter creates a new archive writer
func NewZipArchiveWriter() *ZipArchiveWriter {
	return &ZipArchiveWriter{now: time.Now}
}

// WriteArchive writes the archive to a temp file next to destPath and renames
// it into place once complete. On any failure the temp file is removed and
// an existing file at destPath is left untouched.
func (w *ZipArchiveWriter) WriteArchive(payloads [][]byte, destPath string) error {
	dir := filepath.Dir(destPath)
	tmpPath := filepath.Join(dir, fmt.Sprintf(".%s.%s.part", filepath.Base(destPath), uuid.New().String()[:8]))

	if err := w.write(payloads, tmpPath); err != nil {
		_ = os.Remove(tmpPath)
		return &domain.WriteError{Path: destPath, Err: err}
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		_ = os.Remove(tmpPath)
		return &domain.WriteError{Path: destPath, Err: fmt.Errorf("rename: %w", err)}
	}

	return nil
}

func (w *ZipArchiveWriter) write(payloads [][]byte, path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}
	defer file.Close()

	zw := zip.NewWriter(file)
	modified := w.now()

	for i, payload := range payloads {
		header := &zip.FileHeader{
			Name:     strconv.Itoa(i) + EntryExtension,
			Method:   zip.Store,
			Modified: modified,
		}
		entry, err := zw.CreateHeader(header)
		if err != nil {
			return fmt.Errorf("create entry %d: %w", i, err)
		}
		if _, err := entry.Write(payload); err != nil {
			return fmt.Errorf("write entry %d: %w", i, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finish: %w", err)
	}

	return file.Close()
}
