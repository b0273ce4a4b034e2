// ABOUTME: Loads PDFs from the documents directory and extracts their plain text
// ABOUTME: Also replaces the directory contents when new PDFs are uploaded
package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrNoText is returned when none of the PDFs yielded extractable text
var ErrNoText = errors.New("no text could be extracted from the uploaded PDFs; please upload a text-based PDF instead of scanned images")

// Document is the extracted text of one file
type Document struct {
	Source string // base filename, shown with retrieved chunks
	Path   string
	Text   string
}

// SkippedFile records a PDF that could not be read
type SkippedFile struct {
	Path string
	Err  error
}

// LoadResult is the outcome of loading a directory
type LoadResult struct {
	Documents []Document
	Skipped   []SkippedFile
}

// IsPDF reports whether path has a .pdf extension (case-insensitive)
func IsPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

// ListPDFs returns the PDF files directly inside dir, sorted by name.
// A missing directory has no PDFs.
func ListPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !IsPDF(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// LoadDir extracts text from every PDF in dir.
// Unreadable files are reported in Skipped; files without text are dropped.
func LoadDir(dir string) (*LoadResult, error) {
	paths, err := ListPDFs(dir)
	if err != nil {
		return nil, err
	}

	result := &LoadResult{}
	for _, path := range paths {
		text, err := ExtractText(path)
		if err != nil {
			result.Skipped = append(result.Skipped, SkippedFile{Path: path, Err: err})
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		result.Documents = append(result.Documents, Document{
			Source: filepath.Base(path),
			Path:   path,
			Text:   text,
		})
	}
	return result, nil
}

// ExtractText returns the plain text of a PDF file
func ExtractText(path string) (text string, err error) {
	// The pdf reader panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to parse %s: %v", filepath.Base(path), r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", filepath.Base(path), err)
	}
	defer func() { _ = f.Close() }()

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract text from %s: %w", filepath.Base(path), err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("failed to read text from %s: %w", filepath.Base(path), err)
	}
	return buf.String(), nil
}

// ReplaceDir empties dir and copies the given PDFs into it
func ReplaceDir(dir string, files []string) error {
	for _, f := range files {
		if !IsPDF(f) {
			return fmt.Errorf("%s is not a PDF", f)
		}
		if _, err := os.Stat(f); err != nil {
			return fmt.Errorf("cannot read %s: %w", f, err)
		}
	}

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to reset %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	for _, f := range files {
		if err := copyFile(f, filepath.Join(dir, filepath.Base(f))); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return out.Close()
}
