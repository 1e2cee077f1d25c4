// Package services: services/catalog_service.go
package services

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go-model-viewer/logger"
	"go-model-viewer/models"
)

var (
	ErrModelNotFound   = errors.New("model not found")
	ErrInvalidFileName = errors.New("invalid model file name")
)

// modelExtensions are the asset types served from the catalog directory.
var modelExtensions = map[string]bool{".js": true, ".json": true}

type CatalogServiceInterface interface {
	ListModels() ([]models.ModelRecord, error)
	ListEntries() ([]models.ModelEntry, error)
	OpenModel(file string) (*os.File, fs.FileInfo, error)
}

// CatalogService serves the model assets found in a single directory.
type CatalogService struct {
	dir string
}

// NewCatalogService creates a catalog over dir. The directory is read on every call.
func NewCatalogService(dir string) *CatalogService {
	return &CatalogService{dir: dir}
}

// Dir is the catalog directory.
func (s *CatalogService) Dir() string { return s.dir }

// ListModels returns a record per model asset, sorted by name.
func (s *CatalogService) ListModels() ([]models.ModelRecord, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", s.dir, err)
	}

	records := make([]models.ModelRecord, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() || !validFileName(de.Name()) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			logger.Warn.Printf("[CatalogService.ListModels] Skipping %s: %v", de.Name(), err)
			continue
		}
		records = append(records, models.ModelRecord{
			Name:     strings.TrimSuffix(de.Name(), filepath.Ext(de.Name())),
			File:     de.Name(),
			Size:     info.Size(),
			Modified: info.ModTime().UTC(),
		})
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].Name == records[j].Name {
			return records[i].File < records[j].File
		}
		return records[i].Name < records[j].Name
	})
	logger.Debug.Printf("[CatalogService.ListModels] %d models in %s", len(records), s.dir)
	return records, nil
}

// ListEntries is ListModels projected to names only.
func (s *CatalogService) ListEntries() ([]models.ModelEntry, error) {
	records, err := s.ListModels()
	if err != nil {
		return nil, err
	}
	entries := make([]models.ModelEntry, len(records))
	for i, r := range records {
		entries[i] = r.Entry()
	}
	return entries, nil
}

// OpenModel opens a model asset by file name. Names that leave the catalog
// directory fail with ErrInvalidFileName; missing files with ErrModelNotFound.
func (s *CatalogService) OpenModel(file string) (*os.File, fs.FileInfo, error) {
	if !validFileName(file) {
		return nil, nil, fmt.Errorf("%w: %q", ErrInvalidFileName, file)
	}

	f, err := os.Open(filepath.Join(s.dir, file))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", ErrModelNotFound, file)
		}
		return nil, nil, fmt.Errorf("catalog: open %s: %w", file, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("catalog: stat %s: %w", file, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, nil, fmt.Errorf("%w: %s", ErrModelNotFound, file)
	}
	return f, info, nil
}

func validFileName(file string) bool {
	if file == "" || file != filepath.Base(file) || strings.ContainsAny(file, `/\`) {
		return false
	}
	if file == "." || file == ".." || strings.HasPrefix(file, ".") {
		return false
	}
	return isModelFile(file)
}

func isModelFile(name string) bool {
	return modelExtensions[strings.ToLower(filepath.Ext(name))]
}
