// ABOUTME: Service bundles index lookup and rebuild for command and tool surfaces
// ABOUTME: Opens a fresh handle per search so rebuilds are visible immediately
package index

import (
	"context"
	"fmt"

	"github.com/harper/study-agent/internal/ingest"
	"github.com/harper/study-agent/internal/models"
)

// Service searches and rebuilds the index for one PDF directory
type Service struct {
	loader  *Loader
	builder *Builder
	pdfDir  string
}

// NewService creates a Service
func NewService(loader *Loader, builder *Builder, pdfDir string) *Service {
	return &Service{loader: loader, builder: builder, pdfDir: pdfDir}
}

// SearchDocuments returns up to k scored chunks; ErrNoIndex when nothing is built
func (s *Service) SearchDocuments(ctx context.Context, query string, k int) ([]models.VectorSearchResult, error) {
	idx, err := s.loader.Load()
	if err != nil {
		return nil, err
	}
	defer func() { _ = idx.Close() }()

	return idx.Search(ctx, query, k)
}

// Stats reports on the current index
func (s *Service) Stats() (Stats, error) {
	idx, err := s.loader.Load()
	if err != nil {
		return Stats{}, err
	}
	defer func() { _ = idx.Close() }()

	return idx.Stats()
}

// Rebuild re-indexes the PDF directory
func (s *Service) Rebuild(ctx context.Context) (*BuildStats, error) {
	return s.builder.RebuildFromDir(ctx, s.pdfDir)
}

// ReplaceAndRebuild swaps the PDF directory contents for files, then rebuilds
func (s *Service) ReplaceAndRebuild(ctx context.Context, files []string) (*BuildStats, error) {
	if err := ingest.ReplaceDir(s.pdfDir, files); err != nil {
		return nil, fmt.Errorf("failed to replace pdfs: %w", err)
	}
	return s.Rebuild(ctx)
}

// PDFDir returns the watched documents directory
func (s *Service) PDFDir() string {
	return s.pdfDir
}
